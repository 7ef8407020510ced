package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	audithandlers "github.com/de-tools/compliance-atlas/pkg/handlers/audit"
	handlers "github.com/de-tools/compliance-atlas/pkg/handlers/records"
	schedulehandlers "github.com/de-tools/compliance-atlas/pkg/handlers/schedule"
	atlasmiddleware "github.com/de-tools/compliance-atlas/pkg/server/middleware"
	"github.com/de-tools/compliance-atlas/pkg/store/records"
	"github.com/de-tools/compliance-atlas/pkg/telemetry"
)

const defaultShutdownTimeout = 10 * time.Second

type WebAPI struct {
	logger          *zerolog.Logger
	server          *http.Server
	shutdownTimeout time.Duration
}

type Dependencies struct {
	Store records.Store
	// Auditor is optional; without it the API is read-only.
	Auditor audithandlers.AccountAuditor
	// Schedules is optional; it backs GET /api/v1/schedules.
	Schedules schedulehandlers.StatusSource
	Metrics   *telemetry.Metrics
	Logger    zerolog.Logger
}

type Config struct {
	Addr            string
	ShutdownTimeout time.Duration
	Dependencies    Dependencies
}

func ConfigureRouter(config Config) http.Handler {
	deps := config.Dependencies
	recordsHandler := handlers.NewHandler(deps.Store)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(atlasmiddleware.Logger(&deps.Logger))
	router.Use(middleware.Recoverer)

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/accounts/{account}/records", recordsHandler.ListRecords)
		if deps.Auditor != nil {
			r.Post("/accounts/{account}/audit", audithandlers.NewHandler(deps.Auditor).AuditAccount)
		}
		if deps.Schedules != nil {
			r.Get("/schedules", schedulehandlers.NewHandler(deps.Schedules).ListSchedules)
		}
	})

	return router
}

func NewWebAPI(config Config) *WebAPI {
	timeout := config.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	logger := config.Dependencies.Logger

	return &WebAPI{
		logger:          &logger,
		shutdownTimeout: timeout,
		server: &http.Server{
			Addr:              config.Addr,
			Handler:           ConfigureRouter(config),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (w *WebAPI) Start() error {
	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		w.logger.Info().Str("addr", w.server.Addr).Msg("starting server")
		serverErrors <- w.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-shutdown:
		w.logger.Info().Msg("shutdown initiated")

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), w.shutdownTimeout)
		defer cancel()

		err := w.server.Shutdown(ctx)
		if err != nil {
			w.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = w.server.Close()
		}

		if err != nil {
			return err
		}
	}

	return nil
}
