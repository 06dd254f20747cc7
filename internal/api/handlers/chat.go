package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/budgemon/budgemon/internal/api/middleware"
	"github.com/budgemon/budgemon/internal/archive"
	"github.com/budgemon/budgemon/internal/chat"
	"github.com/budgemon/budgemon/internal/jobs"
	"github.com/budgemon/budgemon/internal/logger"
	"github.com/rs/zerolog"
)

const (
	// maxChatBodyBytes caps the request body; history and context are
	// already bounded by the client.
	maxChatBodyBytes = 1 << 20

	// publishTimeout bounds how long a response waits on a full archive queue.
	publishTimeout = 100 * time.Millisecond
)

// Interpreter turns a chat request into an interpretation.
type Interpreter interface {
	Interpret(ctx context.Context, req chat.Request) (*chat.Interpretation, error)
}

// ChatHandler handles the chat interpretation endpoint.
type ChatHandler struct {
	interpreter Interpreter
	publisher   jobs.Publisher
	log         zerolog.Logger
	now         func() time.Time
}

// NewChatHandler creates a new chat handler. publisher may be nil when
// archiving is disabled.
func NewChatHandler(interpreter Interpreter, publisher jobs.Publisher, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{
		interpreter: interpreter,
		publisher:   publisher,
		log:         log,
		now:         time.Now,
	}
}

// Interpret handles POST /api/gemini
func (h *ChatHandler) Interpret(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.requestLogger(ctx)

	var req chat.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBodyBytes)).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("Invalid chat request body")
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.RequestID = middleware.RequestIDFromContext(ctx)

	interp, err := h.interpreter.Interpret(logger.WithContext(ctx, log), req)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrMessageRequired):
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, chat.ErrNotConfigured):
			log.Error().Err(err).Msg("Chat request rejected")
			middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		default:
			log.Error().Err(err).Msg("Failed to interpret chat message")
			middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	h.archive(ctx, log, interp)

	middleware.WriteJSON(w, http.StatusOK, interp.Result)
}

// archive queues the interpretation for the archive sinks. Failures are
// logged and never change the response.
func (h *ChatHandler) archive(ctx context.Context, log zerolog.Logger, interp *chat.Interpretation) {
	if h.publisher == nil {
		return
	}

	rec := archive.NewRecord(interp, h.now())
	job := &jobs.ArchiveJob{
		RequestID: interp.RequestID,
		Record:    rec,
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := h.publisher.PublishArchive(pubCtx, job); err != nil {
		log.Warn().Err(err).Str("output_id", rec.OutputID).Msg("Failed to queue archive job")
		return
	}
	log.Debug().Str("job_id", job.JobID).Str("output_id", rec.OutputID).Msg("Archive job queued")
}

func (h *ChatHandler) requestLogger(ctx context.Context) zerolog.Logger {
	if id := middleware.RequestIDFromContext(ctx); id != "" {
		return h.log.With().Str("request_id", id).Logger()
	}
	return h.log
}
