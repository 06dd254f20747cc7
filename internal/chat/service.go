package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/budgemon/budgemon/internal/logger"
	"github.com/budgemon/budgemon/internal/metrics"
	"github.com/google/uuid"
)

// Service interprets chat messages. It holds no per-request state and is
// safe for concurrent use.
type Service struct {
	completer Completer
	timeout   time.Duration
}

// NewService creates a Service. completer may be nil, in which case every
// Interpret call fails with ErrNotConfigured. A zero timeout leaves the
// provider call bounded only by ctx.
func NewService(completer Completer, timeout time.Duration) *Service {
	return &Service{
		completer: completer,
		timeout:   timeout,
	}
}

// Configured reports whether a completion provider is available.
func (s *Service) Configured() bool {
	return s.completer != nil
}

// Interpret runs one message through context assembly, prompt building,
// completion, extraction and normalization.
func (s *Service) Interpret(ctx context.Context, req Request) (*Interpretation, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrMessageRequired
	}
	if s.completer == nil {
		return nil, ErrNotConfigured
	}

	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}
	persona := PersonaFor(req.PetType)

	log := logger.FromContext(ctx).With().
		Str("request_id", req.RequestID).
		Str("persona", string(persona)).
		Str("provider", s.completer.Name()).
		Logger()

	accountCtx := AssembleContext(req.Cards, req.Transactions)
	prompt := BuildPrompt(PromptInput{
		Context: accountCtx,
		Message: message,
		History: req.ConversationHistory,
		Persona: persona,
	})

	log.Debug().
		Int("cards", len(req.Cards)).
		Int("transactions", len(accountCtx.Transactions)).
		Int("history", len(RecentHistory(req.ConversationHistory))).
		Int("prompt_chars", len(prompt)).
		Msg("Prompt built")

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	completion, err := s.completer.Complete(callCtx, prompt)
	latency := time.Since(start)
	metrics.CompletionDuration.WithLabelValues(s.completer.Name()).Observe(latency.Seconds())
	if err != nil {
		metrics.Interpretations.WithLabelValues("provider_error").Inc()
		log.Error().Err(err).Dur("latency", latency).Msg("Completion failed")
		return nil, fmt.Errorf("Interpret: complete: %w", err)
	}

	raw, err := ExtractJSON(completion)
	if err != nil {
		metrics.Interpretations.WithLabelValues("unparsable").Inc()
		log.Error().Err(err).Str("raw_response", completion).Msg("Error parsing model response")
		return nil, err
	}

	result := Normalize(raw, NormalizeInput{
		Cards:   req.Cards,
		Message: message,
		Persona: persona,
	})

	interp := &Interpretation{
		RequestID:  req.RequestID,
		Provider:   s.completer.Name(),
		Persona:    persona,
		Message:    message,
		Prompt:     prompt,
		Completion: completion,
		Result:     result,
		Latency:    latency,
	}
	metrics.Interpretations.WithLabelValues(interp.Outcome()).Inc()

	log.Info().
		Str("outcome", interp.Outcome()).
		Str("category", result.Category).
		Bool("card_resolved", result.Card != nil).
		Dur("latency", latency).
		Msg("Message interpreted")

	return interp, nil
}
