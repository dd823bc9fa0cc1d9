// Package server is the embedded portal: a JSON API over the explorer session
// and the Moments showcase page with its SDK bootstrap.
package server

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/vedsharma/momentscli/internal/logger"
	"github.com/vedsharma/momentscli/internal/sdk"
	"github.com/vedsharma/momentscli/internal/session"
	"github.com/vedsharma/momentscli/internal/showcase"
	"go.uber.org/zap"
)

// Server serves the portal
type Server struct {
	app    *fiber.App
	config *Config
	state  *session.State
	pages  map[string]*template.Template

	// mu guards the showcase flow and the SDK document
	mu       sync.Mutex
	settings sdk.Settings
	doc      *sdk.Document
	launcher *sdk.Launcher
	flow     *showcase.Flow
}

// Config holds the configuration for the portal.
type Config struct {
	// Address is the address to listen on (e.g., "127.0.0.1:8080").
	Address string

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// EnableCORS enables Cross-Origin Resource Sharing.
	EnableCORS bool

	// AccessLog writes one line per request to stderr.
	AccessLog bool

	// SDK configures the launcher on the showcase page.
	SDK sdk.Settings
}

// DefaultConfig returns a default portal configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:      "127.0.0.1:8080",
		ReadTimeout:  35 * time.Second,
		WriteTimeout: 35 * time.Second,
		EnableCORS:   true,
		SDK:          sdk.DefaultSettings(),
	}
}

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewServer creates the portal. Options are applied to the showcase flow.
func NewServer(state *session.State, config *Config, opts ...showcase.Option) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}

	pages, err := loadPages()
	if err != nil {
		return nil, err
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:           config.ReadTimeout,
		WriteTimeout:          config.WriteTimeout,
		ErrorHandler:          customErrorHandler,
		AppName:               "MomentScience API Explorer",
		DisableStartupMessage: true,
	})

	doc := sdk.NewDocument()
	launcher := sdk.NewLauncher(doc)
	if err := launcher.Configure(config.SDK, sdk.UserData{}); err != nil {
		return nil, err
	}

	s := &Server{
		app:      app,
		config:   config,
		state:    state,
		pages:    pages,
		settings: config.SDK,
		doc:      doc,
		launcher: launcher,
		flow:     showcase.New(append(opts, showcase.WithAdapter(launcher))...),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

func (s *Server) setupMiddleware() {
	s.app.Use(fiberrecover.New(fiberrecover.Config{
		EnableStackTrace: true,
	}))

	if s.config.AccessLog {
		s.app.Use(fiberlogger.New(fiberlogger.Config{
			Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
			TimeFormat: "2006-01-02 15:04:05",
			Output:     os.Stderr,
		}))
	}

	if s.config.EnableCORS {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins:     "*",
			AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
			AllowHeaders:     "Origin,Content-Type,Accept",
			AllowCredentials: false,
			MaxAge:           86400,
		}))
	}
}

func (s *Server) setupRoutes() {
	s.app.Get("/health", s.healthCheck)
	s.app.Get("/", s.explorerPage)
	s.app.Get("/showcase", s.showcasePage)

	api := s.app.Group("/api")

	api.Get("/endpoints", s.listEndpoints)
	api.Get("/endpoints/:id", s.getEndpoint)
	api.Post("/command", s.command)
	api.Post("/payload", s.payload)
	api.Post("/payload/apply", s.applyPayload)
	api.Post("/execute", s.execute)
	api.Get("/response", s.lastResponse)

	sc := api.Group("/showcase")
	sc.Get("", s.showcaseState)
	sc.Post("/cart", s.addToCart)
	sc.Delete("/cart/:id", s.removeFromCart)
	sc.Put("/customer", s.setCustomer)
	sc.Post("/next", s.nextStep)
	sc.Post("/reset", s.resetShowcase)
	sc.Post("/conversion", s.reportConversion)
}

func (s *Server) healthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "healthy",
		"inFlight": s.state.InFlight(),
	})
}

// Start starts the portal.
func (s *Server) Start() error {
	logger.Info("portal listening", zap.String("address", s.config.Address))
	return s.app.Listen(s.config.Address)
}

// StartWithContext starts the portal and shuts it down when ctx is done.
func (s *Server) StartWithContext(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		errCh <- s.Start()
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errCh:
		return err
	}
}

// Shutdown gracefully shuts down the portal.
func (s *Server) Shutdown() error {
	return s.app.ShutdownWithTimeout(5 * time.Second)
}

// App returns the underlying Fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// customErrorHandler handles errors returned by handlers.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	} else {
		logger.Error("handler failed", zap.String("path", c.Path()), zap.Error(err))
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   fmt.Sprintf("error_%d", code),
		Message: message,
	})
}

func badRequest(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "invalid_request",
		Message: err.Error(),
	})
}
