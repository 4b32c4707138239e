package engine

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"accelerator-admin/internal/metadata"
)

// Handler serves the generic entity routes. Every error is rendered here
// in the request's mode; nothing reaches fiber's error handler on purpose.
type Handler struct {
	locator  *Locator
	bulk     *BulkExecutor
	render   *Renderer
	defaults Defaults
}

func NewHandler(l *Locator, b *BulkExecutor, r *Renderer, d Defaults) *Handler {
	return &Handler{locator: l, bulk: b, render: r, defaults: d}
}

// List handles GET /api/:entity
func (h *Handler) List(c *fiber.Ctx) error {
	svc, err := h.locator.Service(c.Params("entity"))
	if err != nil {
		return h.render.Error(c, err)
	}

	fs, w := NormalizeQuery(c.Queries(), svc.Entity(), h.defaults)
	page, err := svc.List(c.UserContext(), fs, w)
	if err != nil {
		return h.render.Error(c, err)
	}
	return h.render.Page(c, svc.Entity(), page, fs)
}

// GetByID handles GET /api/:entity/:id
func (h *Handler) GetByID(c *fiber.Ctx) error {
	svc, err := h.locator.Service(c.Params("entity"))
	if err != nil {
		return h.render.Error(c, err)
	}

	row, err := svc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.render.Error(c, err)
	}
	return h.render.Record(c, fiber.StatusOK, svc.Entity(), row)
}

// Create handles POST /api/:entity
func (h *Handler) Create(c *fiber.Ctx) error {
	svc, err := h.locator.Service(c.Params("entity"))
	if err != nil {
		return h.render.Error(c, err)
	}

	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return h.render.Error(c, ValidationError("Invalid JSON body"))
	}

	row, err := svc.Create(c.UserContext(), body)
	if err != nil {
		return h.render.Error(c, err)
	}
	return h.render.Record(c, fiber.StatusCreated, svc.Entity(), row)
}

// Update handles PUT /api/:entity/:id
func (h *Handler) Update(c *fiber.Ctx) error {
	svc, err := h.locator.Service(c.Params("entity"))
	if err != nil {
		return h.render.Error(c, err)
	}

	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return h.render.Error(c, ValidationError("Invalid JSON body"))
	}

	row, err := svc.Update(c.UserContext(), c.Params("id"), body)
	if err != nil {
		return h.render.Error(c, err)
	}
	return h.render.Record(c, fiber.StatusOK, svc.Entity(), row)
}

// Delete handles DELETE /api/:entity/:id
func (h *Handler) Delete(c *fiber.Ctx) error {
	svc, err := h.locator.Service(c.Params("entity"))
	if err != nil {
		return h.render.Error(c, err)
	}

	id, err := svc.Remove(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.render.Error(c, err)
	}
	return h.render.Removed(c, id)
}

// Transition handles PUT /api/:entity/:id/:transition
func (h *Handler) Transition(c *fiber.Ctx) error {
	svc, err := h.locator.Service(c.Params("entity"))
	if err != nil {
		return h.render.Error(c, err)
	}

	if action := svc.Entity().GetAction(c.Params("transition")); action != nil {
		if err := CheckActionPermission(userOf(c), svc.Entity().Name, action); err != nil {
			return h.render.Error(c, err)
		}
	}

	res, err := svc.Transition(c.UserContext(), c.Params("id"), c.Params("transition"))
	if err != nil {
		return h.render.Error(c, err)
	}
	if res.State == metadata.DeletedState {
		return h.render.Removed(c, res.ID)
	}
	return h.render.Record(c, fiber.StatusOK, svc.Entity(), res.Record)
}

// BulkAction handles POST /api/:entity/bulk-action
func (h *Handler) BulkAction(c *fiber.Ctx) error {
	svc, err := h.locator.Service(c.Params("entity"))
	if err != nil {
		return h.render.Error(c, err)
	}

	req, err := parseBulkRequest(c)
	if err != nil {
		return h.render.Error(c, err)
	}

	if action := svc.Entity().GetAction(req.Action); action != nil {
		if err := CheckActionPermission(userOf(c), svc.Entity().Name, action); err != nil {
			return h.render.Error(c, err)
		}
	}

	out, err := h.bulk.Execute(c.UserContext(), svc, req)
	if err != nil {
		return h.render.Error(c, err)
	}
	return h.render.Bulk(c, svc.Entity(), req.Action, out)
}

// parseBulkRequest accepts a JSON body or, from fragment clients, a form
// with one ids value per selected row.
func parseBulkRequest(c *fiber.Ctx) (BulkRequest, error) {
	var req BulkRequest
	ct := strings.ToLower(c.Get(fiber.HeaderContentType))
	if strings.HasPrefix(ct, fiber.MIMEApplicationForm) || strings.HasPrefix(ct, fiber.MIMEMultipartForm) {
		req.Action = c.FormValue("action")
		for _, raw := range formValues(c, "ids") {
			req.IDs = append(req.IDs, RecordID(raw))
		}
		return req, nil
	}
	if err := c.BodyParser(&req); err != nil {
		return req, ValidationError("Invalid JSON body: " + err.Error())
	}
	return req, nil
}

func formValues(c *fiber.Ctx, key string) []string {
	var values []string
	if form, err := c.MultipartForm(); err == nil {
		values = append(values, form.Value[key]...)
		return values
	}
	for _, v := range c.Context().PostArgs().PeekMulti(key) {
		values = append(values, string(v))
	}
	return values
}
