package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/budgemon/budgemon/internal/api/handlers"
	"github.com/budgemon/budgemon/internal/api/middleware"
	"github.com/budgemon/budgemon/internal/archive"
	"github.com/budgemon/budgemon/internal/chat"
	"github.com/budgemon/budgemon/internal/config"
	infraBQ "github.com/budgemon/budgemon/internal/infra/bigquery"
	"github.com/budgemon/budgemon/internal/jobs"
	"github.com/budgemon/budgemon/internal/jobs/inmemory"
	"github.com/budgemon/budgemon/internal/llm"
	"github.com/budgemon/budgemon/internal/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	cfg := config.Load()

	var (
		port = flag.String("port", cfg.Port, "HTTP server port (or set PORT env)")
	)
	flag.Parse()
	cfg.Port = *port

	log := logger.NewWithOptions(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()

	// Completion provider. A missing key is not fatal: the endpoint
	// answers 500 until one is configured.
	var completer chat.Completer
	c, err := llm.New(ctx, llm.Options{
		Provider: cfg.LLMProvider,
		Model:    cfg.LLMModel,
		APIKey:   cfg.APIKey(),
		BaseURL:  cfg.OpenAIBaseURL,
	})
	switch {
	case errors.Is(err, llm.ErrNoAPIKey):
		log.Warn().Str("provider", cfg.LLMProvider).Msg("No API key configured - chat requests will fail")
	case err != nil:
		log.Fatal().Err(err).Msg("Failed to create completion client")
	default:
		completer = c
		log.Info().Str("provider", c.Name()).Msg("Completion client ready")
	}

	service := chat.NewService(completer, cfg.CompletionTimeout)

	// Archive sinks and the job queue that feeds them.
	archiver, closeArchive := buildArchiver(ctx, cfg, log)
	defer closeArchive()

	var publisher jobs.Publisher
	var jobStore *inmemory.Store
	var jobQueue *inmemory.Queue

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if archiver.Enabled() {
		jobStore = inmemory.NewStore()
		jobQueue = inmemory.NewQueue(100, jobStore)
		publisher = jobQueue

		go func() {
			log.Info().Msg("Starting archive worker")
			if err := jobQueue.Start(workerCtx, jobs.NewArchiveHandler(archiver, log)); err != nil {
				log.Error().Err(err).Msg("Archive worker stopped with error")
			}
		}()
	} else {
		log.Info().Msg("No archive configured - interpretations will not be archived")
	}

	chatHandler := handlers.NewChatHandler(service, publisher, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/gemini", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			chatHandler.Interpret(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	if jobStore != nil {
		jobsHandler := handlers.NewJobsHandler(jobStore, log)

		mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				jobsHandler.ListJobs(w, r)
			} else {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		})

		mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
				if jobID == "" {
					middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
					return
				}
				jobsHandler.GetJob(w, r, jobID)
			} else {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
		})
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"status":     "healthy",
			"time":       time.Now().Format(time.RFC3339),
			"configured": service.Configured(),
			"archive":    archiver.Enabled(),
		})
	})

	mux.Handle("/metrics", promhttp.Handler())

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.TrustProxy)

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(log)(
				middleware.CORS(
					middleware.RateLimit(limiter, log)(mux),
				),
			),
		),
	)

	// WriteTimeout leaves room for slow completions.
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight archive writes.
	if jobQueue != nil {
		if err := jobQueue.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Error stopping job queue")
		}
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}

// buildArchiver creates the configured sinks. Sinks that fail to
// initialise are logged and skipped.
func buildArchiver(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*archive.Archiver, func()) {
	if !cfg.ArchiveEnabled() {
		return archive.NewArchiver(), func() {}
	}

	var sinks []archive.Sink
	var closers []func() error

	if cfg.ArchiveProject != "" {
		repo, err := infraBQ.NewBigQueryInterpretationRepository(ctx, cfg.ArchiveProject, cfg.ArchiveDataset)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create BigQuery archive - skipping")
		} else if err := repo.EnsureTable(ctx); err != nil {
			log.Error().Err(err).Msg("Failed to prepare interpretations table - skipping")
			_ = repo.Close()
		} else {
			sinks = append(sinks, archive.NewBigQuerySink(repo))
			closers = append(closers, repo.Close)
			log.Info().
				Str("project", cfg.ArchiveProject).
				Str("dataset", cfg.ArchiveDataset).
				Msg("BigQuery archive enabled")
		}
	}

	if cfg.ArchiveBucket != "" {
		sink, err := archive.NewGCSSink(ctx, cfg.ArchiveBucket)
		if err != nil {
			log.Error().Err(err).Msg("Failed to create GCS archive - skipping")
		} else {
			sinks = append(sinks, sink)
			closers = append(closers, sink.Close)
			log.Info().Str("bucket", cfg.ArchiveBucket).Msg("GCS archive enabled")
		}
	}

	return archive.NewArchiver(sinks...), func() {
		for _, c := range closers {
			_ = c()
		}
	}
}
