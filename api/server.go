package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/link-companion-assistant/agent/contract"
	"github.com/tanpawarit/link-companion-assistant/pkg/errx"
)

// Chatter runs one assistant turn.
type Chatter interface {
	Chat(ctx context.Context, req contractx.ChatRequest) (*contractx.ChatResponse, error)
}

type Config struct {
	Addr         string        `split_words:"true" default:":8080"`
	BodyLimit    int           `split_words:"true" default:"1048576"`
	ReadTimeout  time.Duration `split_words:"true" default:"30s"`
	WriteTimeout time.Duration `split_words:"true" default:"120s"`
	CorsOrigins  string        `split_words:"true" default:"*"`
}

type Server struct {
	app *fiber.App
	cfg Config
}

func New(cfg Config, chat Chatter) (*Server, error) {
	if chat == nil {
		return nil, errors.New("chatter is required")
	}

	app := fiber.New(fiber.Config{
		AppName:               "link-companion-assistant",
		BodyLimit:             cfg.BodyLimit,
		ReadTimeout:           cfg.ReadTimeout,
		WriteTimeout:          cfg.WriteTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CorsOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	NewChatController(chat).RegisterRoutes(app)

	return &Server{app: app, cfg: cfg}, nil
}

func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Info().Str("addr", s.cfg.Addr).Msg("http server listening")
	return s.app.Listen(s.cfg.Addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// errorHandler renders every failure as {"error": message}.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	status, msg := errx.Resolve(err)
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}
