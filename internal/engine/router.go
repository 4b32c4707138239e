package engine

import "github.com/gofiber/fiber/v2"

// RegisterDynamicRoutes mounts the generic entity routes under /api. Routes
// with fixed segments under /api must be registered before this call.
func RegisterDynamicRoutes(app *fiber.App, h *Handler, middleware ...fiber.Handler) {
	api := app.Group("/api", middleware...)

	api.Get("/:entity", h.List)
	api.Post("/:entity/bulk-action", h.BulkAction)
	api.Get("/:entity/:id", h.GetByID)
	api.Post("/:entity", h.Create)
	api.Put("/:entity/:id", h.Update)
	api.Put("/:entity/:id/:transition", h.Transition)
	api.Delete("/:entity/:id", h.Delete)
}
