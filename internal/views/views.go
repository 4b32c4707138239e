// Package views renders the HTML fragments returned to progressive-enhancement
// requests: listing rows, the pagination control and inline notices.
package views

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/dustin/go-humanize"
)

//go:embed templates/*.html
var templateFS embed.FS

// Set is the parsed fragment templates.
type Set struct {
	t *template.Template
}

// Cell is one rendered column of a generic row.
type Cell struct {
	Name  string
	Label string
	Value any
}

// Row is the view model passed to row templates. Entity-specific templates
// read Record directly; the generic one renders Cells in column order.
type Row struct {
	Entity string
	ID     string
	Cells  []Cell
	Record map[string]any
}

// Link is one entry of the pagination control.
type Link struct {
	Number  int
	URL     string
	Current bool
}

// Pager is the pagination control. No Pages means nothing is rendered.
type Pager struct {
	Prev   *Link
	Next   *Link
	Pages  []Link
	Total  int64
	Target string
}

type Notice struct {
	Kind    string // success, warning or error
	Message string
}

type BulkError struct {
	ID      string
	Message string
}

type BulkSummary struct {
	Action    string
	Verb      string // past tense shown after the count; "updated" when empty
	Label     string
	Total     int
	Succeeded int
	Failed    int
	Errors    []BulkError
}

// New parses the embedded templates.
func New() (*Set, error) {
	t, err := template.New("views").Funcs(Funcs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Set{t: t}, nil
}

// MustNew is New for package initialisation and tests.
func MustNew() *Set {
	s, err := New()
	if err != nil {
		panic(err)
	}
	return s
}

// HasRowTemplate reports whether entity has its own row template.
func (s *Set) HasRowTemplate(entity string) bool {
	return s.t.Lookup("row_"+entity) != nil
}

// Rows renders each row with the entity's template, falling back to the
// generic column template. An empty page renders a placeholder row.
func (s *Set) Rows(w io.Writer, entity, label string, rows []Row, span int) error {
	if len(rows) == 0 {
		return s.t.ExecuteTemplate(w, "empty", map[string]any{"Label": label, "Span": span + 1})
	}
	name := "row"
	if s.HasRowTemplate(entity) {
		name = "row_" + entity
	}
	for _, r := range rows {
		if err := s.t.ExecuteTemplate(w, name, r); err != nil {
			return fmt.Errorf("render %s row %s: %w", entity, r.ID, err)
		}
	}
	return nil
}

func (s *Set) Pager(w io.Writer, p Pager) error {
	return s.t.ExecuteTemplate(w, "pager", p)
}

func (s *Set) Notice(w io.Writer, n Notice) error {
	return s.t.ExecuteTemplate(w, "notice", n)
}

func (s *Set) BulkSummary(w io.Writer, b BulkSummary) error {
	return s.t.ExecuteTemplate(w, "bulk_summary", b)
}

// Funcs returns the template helpers shared by every fragment.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"cell":    FormatCell,
		"reltime": relTime,
		"comma":   comma,
	}
}

// FormatCell renders a record value for display.
func FormatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "Yes"
		}
		return "No"
	case time.Time:
		return val.Format("2006-01-02 15:04")
	case int64, int, int32:
		return comma(val)
	case float64:
		return humanize.CommafWithDigits(val, 2)
	default:
		return fmt.Sprint(val)
	}
}

func relTime(v any) string {
	t, ok := v.(time.Time)
	if !ok {
		return FormatCell(v)
	}
	return humanize.Time(t)
}

func comma(v any) string {
	switch n := v.(type) {
	case int64:
		return humanize.Comma(n)
	case int:
		return humanize.Comma(int64(n))
	case int32:
		return humanize.Comma(int64(n))
	case float64:
		return humanize.Commaf(n)
	default:
		return fmt.Sprint(v)
	}
}
