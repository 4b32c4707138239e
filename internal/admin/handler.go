package admin

import (
	"github.com/gofiber/fiber/v2"

	"accelerator-admin/internal/engine"
	"accelerator-admin/internal/metadata"
)

// Handler exposes the loaded entity descriptors read-only, so the
// back-office front-end can build its filter forms and action menus.
type Handler struct {
	registry *metadata.Registry
	defaults engine.Defaults
}

func NewHandler(reg *metadata.Registry, d engine.Defaults) *Handler {
	return &Handler{registry: reg, defaults: d}
}

// RegisterAdminRoutes mounts the descriptor routes. It must run before
// engine.RegisterDynamicRoutes, whose /api/:entity/:id would shadow them.
func RegisterAdminRoutes(app *fiber.App, h *Handler, middleware ...fiber.Handler) {
	admin := app.Group("/api/_admin", middleware...)

	admin.Get("/entities", h.ListEntities)
	admin.Get("/entities/:name", h.GetEntity)
}

// EntitySummary is one line of the entity index.
type EntitySummary struct {
	Name       string   `json:"name"`
	Label      string   `json:"label"`
	Table      string   `json:"table"`
	Filterable []string `json:"filterable"`
	Actions    []string `json:"actions"`
	PageSize   int      `json:"page_size"`
}

func (h *Handler) ListEntities(c *fiber.Ctx) error {
	entities := h.registry.AllEntities()
	out := make([]EntitySummary, 0, len(entities))
	for _, e := range entities {
		out = append(out, h.summarize(e))
	}
	return c.JSON(fiber.Map{"success": true, "data": out})
}

func (h *Handler) GetEntity(c *fiber.Ctx) error {
	name := c.Params("name")
	entity := h.registry.GetEntity(name)
	if entity == nil {
		return engine.UnknownEntityError(name)
	}
	return c.JSON(fiber.Map{"success": true, "data": entity})
}

func (h *Handler) summarize(e *metadata.Entity) EntitySummary {
	filterable := []string{}
	for _, f := range e.FilterableFields() {
		filterable = append(filterable, f.Name)
	}
	size := e.DefaultLimit
	if size <= 0 {
		size = h.defaults.Limit
	}
	return EntitySummary{
		Name:       e.Name,
		Label:      e.DisplayName(),
		Table:      e.Table,
		Filterable: filterable,
		Actions:    e.ActionNames(),
		PageSize:   size,
	}
}
