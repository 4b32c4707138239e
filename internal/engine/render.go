package engine

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"accelerator-admin/internal/metadata"
	"accelerator-admin/internal/views"
)

// Mode is the response representation chosen for a request.
type Mode int

const (
	ModeJSON Mode = iota
	ModeFragment
)

func (m Mode) String() string {
	if m == ModeFragment {
		return "fragment"
	}
	return "json"
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type ListResponse struct {
	Success    bool             `json:"success"`
	Data       []map[string]any `json:"data"`
	Pagination Pagination       `json:"pagination"`
}

type RecordResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// Renderer writes results as JSON or as HTML fragments. The fragment path
// is chosen by a request header set by the front-end, not by Accept.
type Renderer struct {
	views  *views.Set
	header string
	log    *zap.Logger
}

func NewRenderer(v *views.Set, fragmentHeader string, log *zap.Logger) *Renderer {
	return &Renderer{views: v, header: fragmentHeader, log: log}
}

// ModeOf classifies the request.
func (r *Renderer) ModeOf(c *fiber.Ctx) Mode {
	v := strings.TrimSpace(c.Get(r.header))
	if v == "" || strings.EqualFold(v, "false") {
		return ModeJSON
	}
	return ModeFragment
}

// Page renders a listing. Fragment mode emits the rows followed by the
// pagination control, whose links carry the active filters.
func (r *Renderer) Page(c *fiber.Ctx, entity *metadata.Entity, page *ResultPage, fs FilterSet) error {
	if r.ModeOf(c) == ModeJSON {
		return c.JSON(ListResponse{
			Success: true,
			Data:    page.Rows,
			Pagination: Pagination{
				Page:       page.Page,
				Limit:      page.Limit,
				Total:      page.Total,
				TotalPages: page.TotalPages,
			},
		})
	}

	var buf bytes.Buffer
	cols := entity.ListColumns()
	if err := r.views.Rows(&buf, entity.Name, entity.DisplayName(), r.rowViews(entity, page.Rows), len(cols)); err != nil {
		return r.renderFailure(c, entity, err)
	}
	pager := BuildPager(c.Path(), fs.Params(), page)
	pager.Target = "#" + entity.Name + "-listing"
	if err := r.views.Pager(&buf, pager); err != nil {
		return r.renderFailure(c, entity, err)
	}
	return r.html(c, http.StatusOK, buf.Bytes())
}

// Record renders a single row, e.g. after a create, update or transition.
func (r *Renderer) Record(c *fiber.Ctx, status int, entity *metadata.Entity, row map[string]any) error {
	if r.ModeOf(c) == ModeJSON {
		return c.Status(status).JSON(RecordResponse{Success: true, Data: row})
	}
	var buf bytes.Buffer
	if err := r.views.Rows(&buf, entity.Name, entity.DisplayName(), r.rowViews(entity, []map[string]any{row}), len(entity.ListColumns())); err != nil {
		return r.renderFailure(c, entity, err)
	}
	return r.html(c, status, buf.Bytes())
}

// Removed acknowledges a delete. The fragment is empty so the client's
// swap drops the row.
func (r *Renderer) Removed(c *fiber.Ctx, id string) error {
	if r.ModeOf(c) == ModeJSON {
		return c.JSON(RecordResponse{Success: true, Data: fiber.Map{"id": RecordID(id)}})
	}
	return r.html(c, http.StatusOK, nil)
}

// Bulk renders a bulk outcome. Fragment mode returns a summary notice and
// asks the client to reload the listing through an HX-Trigger event.
func (r *Renderer) Bulk(c *fiber.Ctx, entity *metadata.Entity, action string, out *BulkOutcome) error {
	summary := out.Summary()
	if r.ModeOf(c) == ModeJSON {
		return c.JSON(RecordResponse{
			Success: true,
			Data: BulkResponse{
				Results: out.Succeeded,
				Errors:  out.Failed,
				Summary: summary,
			},
		})
	}

	view := views.BulkSummary{
		Action:    action,
		Verb:      "updated",
		Label:     entity.DisplayName(),
		Total:     summary.Total,
		Succeeded: summary.Succeeded,
		Failed:    summary.Failed,
	}
	if a := entity.GetAction(action); a != nil && a.Delete {
		view.Verb = "deleted"
	}
	for _, f := range out.Failed {
		view.Errors = append(view.Errors, views.BulkError{ID: f.ID.String(), Message: f.Error})
	}
	var buf bytes.Buffer
	if err := r.views.BulkSummary(&buf, view); err != nil {
		return r.renderFailure(c, entity, err)
	}
	c.Set("HX-Trigger", RefreshEvent(entity.Name))
	return r.html(c, http.StatusOK, buf.Bytes())
}

// RefreshEvent is the client event that makes a listing re-fetch itself.
func RefreshEvent(entity string) string {
	return entity + ":refresh"
}

// Error renders err in the request's mode. Store failures reach fragment
// clients as a generic notice; JSON clients get the message.
//
// Fragment notices keep the error status. htmx skips swapping 4xx and 5xx
// responses by default, so the page needs an htmx:beforeSwap handler that
// sets shouldSwap for them (or a responseHandling entry in htmx 2).
func (r *Renderer) Error(c *fiber.Ctx, err error) error {
	appErr := AsAppError(err)
	if r.ModeOf(c) == ModeJSON {
		return c.Status(appErr.Status).JSON(NewErrorResponse(appErr))
	}

	msg := appErr.Message
	if appErr.Status >= http.StatusInternalServerError {
		msg = "Something went wrong. Please try again."
	}
	var buf bytes.Buffer
	if err := r.views.Notice(&buf, views.Notice{Kind: "error", Message: msg}); err != nil {
		r.log.Error("render notice", zap.Error(err))
		return c.Status(appErr.Status).SendString(msg)
	}
	return r.html(c, appErr.Status, buf.Bytes())
}

func (r *Renderer) renderFailure(c *fiber.Ctx, entity *metadata.Entity, err error) error {
	r.log.Error("render fragment", zap.String("entity", entity.Name), zap.Error(err))
	return r.Error(c, NewAppError("RENDER_ERROR", http.StatusInternalServerError, err.Error()))
}

func (r *Renderer) html(c *fiber.Ctx, status int, body []byte) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Status(status).Send(body)
}

func (r *Renderer) rowViews(entity *metadata.Entity, rows []map[string]any) []views.Row {
	cols := entity.ListColumns()
	out := make([]views.Row, 0, len(rows))
	for _, row := range rows {
		cells := make([]views.Cell, len(cols))
		for i, f := range cols {
			cells[i] = views.Cell{Name: f.Name, Label: f.DisplayLabel(), Value: row[f.Name]}
		}
		out = append(out, views.Row{
			Entity: entity.Name,
			ID:     fmt.Sprint(row[entity.PrimaryKey.Field]),
			Cells:  cells,
			Record: row,
		})
	}
	return out
}
