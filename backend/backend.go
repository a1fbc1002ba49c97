package backend

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/papercomputeco/ssechat/pkg/logger"
)

// Server is the mock chat backend.
type Server struct {
	config        Config
	conversations *conversations
	logger        *slog.Logger
	app           *fiber.App
}

// NewServer creates a new backend server. A nil log discards everything.
func NewServer(config Config, log *slog.Logger) *Server {
	if config.Responder == nil {
		config.Responder = EchoResponder
	}
	if log == nil {
		log = logger.Nop()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:        config,
		conversations: newConversations(),
		logger:        log,
		app:           app,
	}

	app.Use(recover.New())
	app.Use(cors.New())

	app.Get("/health", s.handleHealth)
	app.Get("/api", s.handleInfo)
	app.Post("/chat", s.handleChat)
	app.Post("/chat/stream", s.handleChatStream)
	app.Get("/conversations", s.handleListConversations)
	app.Get("/conversations/:id/history", s.handleGetHistory)
	app.Delete("/conversations/:id", s.handleClearConversation)

	return s
}

// Run starts the backend on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting chat backend",
		"listen", s.config.ListenAddr,
		"token_delay", s.config.TokenDelay,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// RunWithListener starts the backend on an existing listener.
func (s *Server) RunWithListener(listener net.Listener) error {
	s.logger.Info("starting chat backend",
		"listen", listener.Addr().String(),
		"token_delay", s.config.TokenDelay,
	)
	return s.app.Listener(listener)
}

// Handler exposes the backend as a net/http handler, for mounting into an
// existing mux. Streamed replies are buffered until complete on this path.
func (s *Server) Handler() http.Handler {
	return adaptor.FiberApp(s.app)
}

// Shutdown gracefully shuts down the backend.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
