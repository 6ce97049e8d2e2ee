package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/pdms/pdms/internal/config"
	"github.com/pdms/pdms/internal/domain/patient"
	"github.com/pdms/pdms/internal/domain/scoring"
	"github.com/pdms/pdms/internal/platform/auth"
	"github.com/pdms/pdms/internal/platform/classifier"
	"github.com/pdms/pdms/internal/platform/db"
	"github.com/pdms/pdms/internal/platform/events"
	"github.com/pdms/pdms/internal/platform/httpx"
	"github.com/pdms/pdms/internal/platform/middleware"
	"github.com/pdms/pdms/internal/platform/predictionlog"
)

const shutdownTimeout = 10 * time.Second

func newEcho(cfg *config.Config, logger zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = httpx.ErrorHandler(logger)

	rl := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 && cfg.RateLimitBurst > 0 {
		rl.RequestsPerSecond = cfg.RateLimitRPS
		rl.BurstSize = cfg.RateLimitBurst
	}

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, middleware.RequestIDHeader},
	}))
	e.Use(middleware.RateLimit(rl))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))
	return e
}

func newRecordApp(cfg *config.Config, logger zerolog.Logger, st *recordStore, pub events.Publisher) *echo.Echo {
	e := newEcho(cfg, logger)

	var writeMW []echo.MiddlewareFunc
	if cfg.AuthEnabled() {
		writeMW = append(writeMW, auth.JWTMiddleware(jwtConfig(cfg)), auth.RequireRole(auth.RoleRegistrar))
	} else {
		logger.Warn().Msg("AUTH_SIGNING_KEY not set: write endpoints are open")
	}

	svc := patient.NewService(st.backend, pub, logger)
	patient.NewHandler(svc).RegisterRoutes(e, writeMW...)

	if st.pool != nil {
		e.GET("/health/db", db.HealthHandler(st.pool))
	}
	return e
}

func newScoringApp(cfg *config.Config, logger zerolog.Logger, clf scoring.Classifier, audit predictionlog.Recorder, pub events.Publisher) *echo.Echo {
	e := newEcho(cfg, logger)
	scoring.NewHandler(scoring.NewService(clf, audit, pub, logger)).RegisterRoutes(e)
	return e
}

func openEvents(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (events.Publisher, error) {
	return events.Open(ctx, events.Config{
		Sink:      cfg.EventSink,
		Brokers:   cfg.KafkaBrokers,
		Topic:     cfg.KafkaTopic,
		QueueName: cfg.SQSQueueName,
	}, logger)
}

func runRecordServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open record store")
		return err
	}
	defer st.Close()

	pub, err := openEvents(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open event sink")
		return err
	}
	defer pub.Close()

	logger.Info().Str("backend", st.backend.Name()).Str("events", cfg.EventSink).Msg("record service configured")
	return serve(ctx, newRecordApp(cfg, logger, st, pub), cfg, cfg.Port, logger)
}

func runScoringServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	model, err := classifier.Load(cfg.ModelPath)
	if err != nil {
		logger.Error().Err(err).Str("path", cfg.ModelPath).Msg("failed to load model")
		return err
	}
	logger.Info().Str("version", model.Version).Strs("classes", model.Classes).Msg("model loaded")

	var audit predictionlog.Recorder = predictionlog.Nop{}
	if cfg.PredictionLogDSN != "" {
		store, err := predictionlog.Open(cfg.PredictionLogDSN)
		if err != nil {
			logger.Error().Err(err).Msg("failed to open prediction log")
			return err
		}
		audit = store
	}
	defer audit.Close()

	pub, err := openEvents(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open event sink")
		return err
	}
	defer pub.Close()

	app := newScoringApp(cfg, logger, scoring.NewModelClassifier(model), audit, pub)
	return serve(ctx, app, cfg, cfg.PredictPort, logger)
}

// serve runs e until SIGINT or SIGTERM, then drains in-flight requests.
func serve(ctx context.Context, e *echo.Echo, cfg *config.Config, port string, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := ":" + port
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Bool("tls", cfg.TLSEnabled).Msg("starting server")
		var err error
		if cfg.TLSEnabled {
			err = e.StartTLS(addr, cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			err = e.Start(addr)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			logger.Error().Err(err).Msg("server error")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
