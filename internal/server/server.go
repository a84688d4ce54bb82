// Package server exposes registration services over HTTP.
package server

import (
	"bytes"
	"context"
	"log/slog"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aarelaponin/govstack-processing-server-sub000/internal/errors"
	"github.com/aarelaponin/govstack-processing-server-sub000/internal/registration"
)

const component = "server"

// DefaultBodyLimit is the largest accepted request body.
const DefaultBodyLimit = 10 * 1024 * 1024

// Route paths.
const (
	RegistrationPath = "/api/services/:serviceId/registrations"
	HealthPath       = "/health"
	MetricsPath      = "/metrics"
)

// Server routes HTTP requests to registration services.
type Server struct {
	app      *fiber.App
	registry *registration.Registry
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	now      func() time.Time

	bodyLimit int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithGatherer serves the metrics of g on MetricsPath.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithBodyLimit sets the largest accepted request body in bytes.
func WithBodyLimit(n int) Option {
	return func(s *Server) { s.bodyLimit = n }
}

// WithClock sets the time source of error response timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a server for the services in registry.
func New(registry *registration.Registry, opts ...Option) *Server {
	s := &Server{
		registry:  registry,
		logger:    slog.Default(),
		now:       time.Now,
		bodyLimit: DefaultBodyLimit,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With(slog.String("component", component))

	s.app = fiber.New(fiber.Config{
		BodyLimit:             s.bodyLimit,
		DisableStartupMessage: true,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		ErrorHandler:          s.handleError,
	})

	s.app.Use(recover.New())
	s.app.Use(s.accessLog)

	s.app.Get(HealthPath, s.handleHealth)
	s.app.Post(RegistrationPath, s.handleRegistration)

	if s.gatherer != nil {
		s.app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	return s
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves HTTP on addr until Shutdown is called.
func (s *Server) Listen(addr string) error {
	s.logger.Info("Starting HTTP server", slog.String("addr", addr), slog.Any("services", s.registry.IDs()))
	return s.app.Listen(addr)
}

// Shutdown stops the server, waiting for active requests until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleRegistration(c *fiber.Ctx) error {
	svc, err := s.registry.Get(c.Params("serviceId"))
	if err != nil {
		resp := registration.NewErrorResponse(err, s.now()).WithStatusCode(fiber.StatusNotFound)
		return c.Status(resp.StatusCode()).JSON(resp)
	}

	// The request buffer is reused by fasthttp once the handler returns.
	resp := svc.Process(c.UserContext(), bytes.Clone(c.Body()))

	return c.Status(resp.StatusCode()).JSON(resp)
}

type healthResponse struct {
	Status   string   `json:"status"`
	Services []string `json:"services"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(healthResponse{Status: "ok", Services: s.registry.IDs()})
}

// handleError renders errors returned by handlers and middleware, such as
// unknown routes and oversized bodies, in the error response shape.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}

	resp := registration.NewErrorResponse(err, s.now()).WithStatusCode(code)

	return c.Status(code).JSON(resp)
}

func (s *Server) accessLog(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}

	s.logger.Debug("Request handled",
		slog.String("method", c.Method()),
		slog.String("path", c.Path()),
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)))

	return err
}
