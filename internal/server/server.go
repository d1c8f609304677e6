package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/dshills/lamp/internal/config"
	"github.com/dshills/lamp/internal/providers"
	"github.com/dshills/lamp/internal/review"
)

const shutdownTimeout = 10 * time.Second

// Server exposes the review pipeline over HTTP.
type Server struct {
	cfg     config.Config
	engine  *review.Engine
	echo    *echo.Echo
	log     *zap.Logger
	version string
}

// Option configures a Server.
type Option func(*options)

type options struct {
	log     *zap.Logger
	history review.Recorder
	version string
}

// WithLogger sets the server and engine logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithHistory records every review submitted through the server.
func WithHistory(r review.Recorder) Option {
	return func(o *options) { o.history = r }
}

// WithVersion sets the version reported by /healthz.
func WithVersion(v string) Option {
	return func(o *options) { o.version = v }
}

// New builds a server around client. The configured API key is used when a
// request carries no Authorization header.
func New(cfg config.Config, client providers.Submitter, opts ...Option) *Server {
	o := options{log: zap.NewNop(), version: "dev"}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.log.Named("server")

	engineOpts := []review.Option{review.WithLogger(o.log)}
	if o.history != nil {
		engineOpts = append(engineOpts, review.WithHistory(o.history))
	}

	s := &Server{
		cfg:     cfg,
		engine:  review.NewEngine(cfg, client, engineOpts...),
		echo:    echo.New(),
		log:     log,
		version: o.version,
	}
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = s.errorHandler
	s.echo.Server.ReadHeaderTimeout = 10 * time.Second
	s.echo.Server.WriteTimeout = time.Duration(cfg.TimeoutSeconds)*time.Second + 30*time.Second

	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency))
			return nil
		},
	}))
	if limit := cfg.Server.MaxUploadBytes.Int(); limit > 0 {
		s.echo.Use(middleware.BodyLimit(strconv.Itoa(limit)))
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/healthz", s.handleHealth)

	api := s.echo.Group("/api")
	api.POST("/review", s.handleReview)
	api.POST("/prompt", s.handlePrompt)
	api.GET("/models", s.handleModels)
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(s.cfg.Server.Addr)
	}()
	s.log.Info("listening", zap.String("addr", s.cfg.Server.Addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.log.Info("shutting down")
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-errCh
	return nil
}
