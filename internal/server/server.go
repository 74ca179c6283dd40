package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/webstack/starter/internal/config"
	"github.com/webstack/starter/internal/database"
	"github.com/webstack/starter/internal/docs"
	"github.com/webstack/starter/internal/handler"
	"github.com/webstack/starter/internal/lifecycle"
	"github.com/webstack/starter/internal/middleware"
	"github.com/webstack/starter/internal/response"
	"github.com/webstack/starter/internal/telemetry"
)

// Server holds the Echo app and the process components it depends on.
type Server struct {
	Echo      *echo.Echo
	Config    *config.Config
	Lifecycle *lifecycle.Manager

	logger   zerolog.Logger
	pipeline *middleware.Pipeline
}

// New builds the components enabled by cfg, the Echo app and its routes.
// Nothing is started until Run.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	manager := lifecycle.NewManager(logger)
	opts := middleware.Options{Logger: logger}

	if cfg.NewRelicEnabled() {
		nr, err := telemetry.NewNewRelic(cfg.Name, cfg.Observability.NewRelicLicenseKey, string(cfg.Environment))
		if err != nil {
			return nil, err
		}
		manager.Register(nr)
		opts.NewRelic = nr.Application()
	}
	if cfg.TracingEnabled() {
		tr, err := telemetry.NewTracing(ctx, telemetry.TracingConfigFrom(cfg))
		if err != nil {
			return nil, fmt.Errorf("tracing: %w", err)
		}
		manager.Register(tr)
		opts.Tracer = tr.Tracer()
		opts.Propagator = tr.Propagator()
	}
	if cfg.Observability.MetricsEnabled {
		opts.Metrics = telemetry.NewMetrics("")
	}
	if cfg.DatabaseEnabled() {
		manager.Register(database.NewPool(database.Options{
			URL:      cfg.Database.URL,
			MaxConns: cfg.Database.MaxConns,
			NewRelic: cfg.NewRelicEnabled(),
		}, logger))
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout
	e.HTTPErrorHandler = response.NewErrorHandler(cfg.Debug, logger)

	pipeline := middleware.NewPipeline(opts)
	e.Use(
		pipeline.Middleware(),
		echomw.RecoverWithConfig(echomw.RecoverConfig{DisableErrorHandler: true, DisablePrintStack: true}),
	)
	if origins := cfg.AllowedOrigins(); len(origins) > 0 {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     origins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"*"},
			ExposeHeaders:    []string{middleware.HeaderRequestID, middleware.HeaderTraceID},
			AllowCredentials: origins[0] != "*",
		}))
	}

	s := &Server{
		Echo:      e,
		Config:    cfg,
		Lifecycle: manager,
		logger:    logger,
		pipeline:  pipeline,
	}
	s.routes(opts.Metrics)
	return s, nil
}

func (s *Server) routes(metrics *telemetry.Metrics) {
	cfg := s.Config
	system := &handler.SystemHandler{Config: cfg, Readiness: s.Lifecycle}

	s.Echo.GET("/", system.Root)
	s.Echo.GET("/health", system.Health)
	s.Echo.GET("/ready", system.Ready)
	s.Echo.GET("/settings", system.Settings)
	if metrics != nil {
		s.Echo.GET("/metrics", echo.WrapHandler(metrics.Handler()))
	}

	if !cfg.Debug {
		return
	}
	prefix := cfg.APIPrefix
	docsHandler := &handler.DocsHandler{
		Title:   cfg.Name,
		SpecURL: prefix + "/openapi.json",
		Doc: docs.New(docs.Info{
			Title:       cfg.Name,
			Version:     cfg.Version,
			Environment: string(cfg.Environment),
			APIPrefix:   prefix,
			Metrics:     metrics != nil,
		}),
	}
	g := s.Echo.Group(prefix)
	g.GET("/docs", docsHandler.Page)
	g.GET("/openapi.json", docsHandler.OpenAPIJSON)
	g.GET("/openapi.yaml", docsHandler.OpenAPIYAML)
	g.GET("/settings/schema", docsHandler.SettingsSchema)
}

// Stages returns the request pipeline stages in order.
func (s *Server) Stages() []string { return s.pipeline.Stages() }

// Run starts the components and the HTTP server, then blocks until ctx is
// cancelled or the server fails. Cancellation triggers a graceful shutdown
// bounded by the configured shutdown timeout and returns nil when it succeeds.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info().EmbedObject(s.Config).Msg("Application starting up")

	if err := s.Lifecycle.Start(ctx); err != nil {
		return err
	}

	// the listening line is logged only once the port is bound
	if s.Echo.Listener == nil {
		ln, err := net.Listen("tcp", s.Config.Address())
		if err != nil {
			stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.Config.Server.ShutdownTimeout)
			defer cancel()
			return errors.Join(fmt.Errorf("listen %s: %w", s.Config.Address(), err), s.Lifecycle.Stop(stopCtx))
		}
		s.Echo.Listener = ln
	}
	s.logger.Info().
		Str("address", s.Echo.Listener.Addr().String()).
		Strs("components", s.Lifecycle.Names()).
		Msg("HTTP server listening")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Echo.Start(s.Config.Address())
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.Config.Server.ShutdownTimeout)
		defer cancel()
		return errors.Join(err, s.Lifecycle.Stop(stopCtx))
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.Config.Server.ShutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown drains in-flight requests, then stops the components in reverse order.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Application shutting down")
	var errs []error
	if err := s.Echo.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http server: %w", err))
	}
	if err := s.Lifecycle.Stop(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	s.logger.Info().Msg("Application shutdown complete")
	return nil
}
