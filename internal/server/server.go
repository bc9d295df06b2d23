package server

import (
	"context"
	"time"

	"github.com/flowbaker/categorizer/internal/config"
	"github.com/flowbaker/categorizer/internal/controllers"
	"github.com/flowbaker/categorizer/internal/version"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/rs/zerolog/log"
)

const serviceName = "categorizer"

type HTTPServerDependencies struct {
	Config             config.ServerConfig
	CategoryController *controllers.CategoryController
}

type structValidator struct {
	validate *validator.Validate
}

func (v *structValidator) Validate(out any) error {
	return v.validate.Struct(out)
}

func NewHTTPServer(deps HTTPServerDependencies) *fiber.App {
	router := fiber.New(fiber.Config{
		AppName:         serviceName,
		StructValidator: &structValidator{validate: validator.New()},
		ErrorHandler:    errorHandler,
	})

	router.Use(requestid.New())
	// Credentials cannot be combined with the wildcard origin
	router.Use(cors.New(cors.Config{
		AllowOrigins:     deps.Config.CORSOrigins,
		AllowCredentials: len(deps.Config.CORSOrigins) > 0,
	}))
	router.Use(logger.New())

	router.Get("/health", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":    "healthy",
			"service":   serviceName,
			"version":   version.GetVersion(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	api := router.Group("/api")

	api.Post("/detect-category", deps.CategoryController.DetectCategory)
	api.Post("/detect-categories", deps.CategoryController.DetectCategories)
	api.Get("/categories", deps.CategoryController.ListCategories)
	api.Get("/runs/:id", deps.CategoryController.GetRun)

	return router
}

// Serve listens until ctx is cancelled, then shuts down gracefully
func Serve(ctx context.Context, app *fiber.App, address string) error {
	log.Info().Str("address", address).Msg("Starting HTTP server")

	return app.Listen(address, fiber.ListenConfig{
		GracefulContext:       ctx,
		DisableStartupMessage: true,
	})
}

func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
	}

	return c.Status(code).JSON(controllers.ErrorResponse{
		Error: err.Error(),
	})
}
