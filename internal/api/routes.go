package api

import (
	"github.com/gofiber/fiber/v3"
)

func SetupRoutes(app *fiber.App, h *Handler) {
	api := app.Group("/api")

	// Extraction
	api.Post("/ingest", h.Ingest)
	api.Get("/content", h.NodeContent)

	// Stored graph
	api.Get("/graph", h.GetGraph)
	api.Post("/search", h.Search)

	// Repositories
	repos := api.Group("/repositories")
	repos.Get("/", h.ListRepositories)
	repos.Post("/", h.CreateRepository)
	repos.Get("/:id", h.GetRepository)
	repos.Delete("/:id", h.DeleteRepository)
}
