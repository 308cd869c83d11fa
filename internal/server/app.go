package server

import (
	"time"

	"learnnest/internal/config"
	"learnnest/internal/handler"
	"learnnest/internal/middleware"
	"learnnest/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// bodyLimit fits the largest accepted source text (200,000 runes of up to
// four bytes each) with room for the other fields.
const bodyLimit = 2 * 1024 * 1024

// Handlers are the HTTP surfaces mounted by NewApp.
type Handlers struct {
	Quiz   *handler.QuizHandler
	Health *handler.HealthHandler
	Auth   service.AuthService
}

// NewApp builds the fiber application shared by the HTTP server and the
// Lambda entrypoint.
func NewApp(cfg config.ServerConfig, h Handlers) *fiber.App {
	readTimeout := cfg.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 150 * time.Second
	}

	app := fiber.New(fiber.Config{
		AppName:      "learnnest",
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
		BodyLimit:    bodyLimit,
		ErrorHandler: middleware.ErrorHandler(),
	})

	app.Use(middleware.RequestLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		MaxAge:       300,
	}))
	app.Use(recover.New())

	if h.Health != nil {
		app.Get("/healthz", h.Health.Health)
	}

	quizzes := app.Group("/api/quizzes", middleware.Protected(h.Auth))
	quizzes.Post("/validated", h.Quiz.GenerateValidatedQuiz)
	quizzes.Get("/logs", h.Quiz.ListGenerationLogs)
	quizzes.Get("/:id", h.Quiz.GetQuiz)

	return app
}
