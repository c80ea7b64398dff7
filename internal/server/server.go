package server

import (
	"log"
	"time"

	"flowershop-chat-be/internal/bootstrap"
	"flowershop-chat-be/internal/config"
	"flowershop-chat-be/internal/pkg/serverutils"
	"flowershop-chat-be/pkg/ratelimit"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB, bulk ingest payloads
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.App.CorsAllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	// Routes
	registerRoutes(app, cfg, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("✅ Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown(timeout time.Duration) error {
	return s.app.ShutdownWithTimeout(timeout)
}

// newChatLimiter keys /chat by session id. Counters live in Redis when the
// container has a client, so all instances share them.
func newChatLimiter(cfg *config.Config, c *bootstrap.Container) fiber.Handler {
	limiterCfg := limiter.Config{
		Max:          cfg.App.RateLimitMax,
		Expiration:   cfg.App.RateLimitWindow,
		KeyGenerator: ratelimit.SessionKey,
		LimitReached: func(ctx *fiber.Ctx) error {
			return fiber.ErrTooManyRequests
		},
	}
	if c.Redis != nil {
		limiterCfg.Storage = ratelimit.NewRedisStorage(c.Redis, "ratelimit:chat:")
	}
	return limiter.New(limiterCfg)
}

func registerRoutes(app *fiber.App, cfg *config.Config, c *bootstrap.Container) {
	app.Get("/healthz", func(ctx *fiber.Ctx) error {
		return ctx.JSON(serverutils.SuccessResponse("ok", fiber.Map{
			"catalog_backend": c.CatalogBackend,
			"sessions":        c.SessionRepository.Count(),
			"redis":           c.Redis != nil,
			"nats":            c.Subscriber != nil,
		}))
	})

	var chatLimiter fiber.Handler
	if cfg.App.RateLimitMax > 0 {
		chatLimiter = newChatLimiter(cfg, c)
	}
	c.ChatbotController.RegisterRoutes(app, chatLimiter)

	api := app.Group("/api")
	c.CatalogController.RegisterRoutes(api, serverutils.NewJwtMiddleware(cfg.App.JwtSecret, "admin"))
}
