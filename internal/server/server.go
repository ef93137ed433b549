package server

import (
	"log"

	"subshare-be/internal/bootstrap"
	"subshare-be/internal/config"
	"subshare-be/internal/pkg/serverutils"
	"subshare-be/internal/websocket"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 1 * 1024 * 1024,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			return serverutils.WriteError(ctx, container.Logger, err)
		},
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware(container.Logger))

	app.Get("/healthz", func(ctx *fiber.Ctx) error {
		return ctx.JSON(serverutils.SuccessResponse("ok", nil))
	})

	RegisterRoutes(app, container, serverutils.JwtMiddleware(cfg.App.JwtSecret))

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
	log.Printf("Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func RegisterRoutes(app *fiber.App, c *bootstrap.Container, auth fiber.Handler) {
	api := app.Group("/api")

	c.ServiceInstanceController.RegisterRoutes(api, auth)
	c.SubscriptionController.RegisterRoutes(api, auth)
	c.BillingController.RegisterRoutes(api, auth)
	c.WalletController.RegisterRoutes(api, auth)
	websocket.RegisterRoutes(api, c.Hub, auth)
}
