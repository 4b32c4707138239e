package views

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenericRowRendersCellsInOrder(t *testing.T) {
	s := MustNew()
	var buf bytes.Buffer
	rows := []Row{{
		Entity: "invoices",
		ID:     "inv-1",
		Cells: []Cell{
			{Name: "number", Label: "Number", Value: "INV-001"},
			{Name: "amount", Label: "Amount", Value: 1234.5},
			{Name: "paid", Label: "Paid", Value: true},
		},
	}}
	require.NoError(t, s.Rows(&buf, "invoices", "invoices", rows, 3))

	out := buf.String()
	assert.Contains(t, out, `id="invoices-inv-1"`)
	assert.Contains(t, out, `value="inv-1"`)
	number := strings.Index(out, "INV-001")
	amount := strings.Index(out, "1,234.5")
	require.True(t, number >= 0 && amount >= 0)
	assert.Less(t, number, amount)
	assert.Contains(t, out, ">Yes<")
}

func TestEntityRowTemplateWins(t *testing.T) {
	s := MustNew()
	assert.True(t, s.HasRowTemplate("users"))
	assert.False(t, s.HasRowTemplate("invoices"))

	var buf bytes.Buffer
	rows := []Row{{
		Entity: "users",
		ID:     "u1",
		Record: map[string]any{"email": "ada@example.com", "role": "admin", "status": "active"},
	}}
	require.NoError(t, s.Rows(&buf, "users", "users", rows, 5))
	assert.Contains(t, buf.String(), "mailto:ada@example.com")
	assert.Contains(t, buf.String(), "never")
}

func TestRowsEscapeValues(t *testing.T) {
	s := MustNew()
	var buf bytes.Buffer
	rows := []Row{{Entity: "comments", ID: "1", Cells: []Cell{{Name: "body", Value: "<script>x</script>"}}}}
	require.NoError(t, s.Rows(&buf, "comments", "comments", rows, 1))
	assert.NotContains(t, buf.String(), "<script>")
}

func TestEmptyRows(t *testing.T) {
	s := MustNew()
	var buf bytes.Buffer
	require.NoError(t, s.Rows(&buf, "ideas", "ideas", nil, 4))
	assert.Contains(t, buf.String(), "No ideas found.")
	assert.Contains(t, buf.String(), `colspan="5"`)
}

func TestPagerRendersNothingWithoutPages(t *testing.T) {
	s := MustNew()
	var buf bytes.Buffer
	require.NoError(t, s.Pager(&buf, Pager{Total: 3}))
	assert.Empty(t, strings.TrimSpace(buf.String()))
}

func TestPagerLinks(t *testing.T) {
	s := MustNew()
	var buf bytes.Buffer
	p := Pager{
		Prev:  &Link{Number: 1, URL: "/api/ideas?page=1"},
		Pages: []Link{{Number: 1, URL: "/api/ideas?page=1"}, {Number: 2, URL: "/api/ideas?page=2", Current: true}},
		Total: 12000,
	}
	require.NoError(t, s.Pager(&buf, p))
	out := buf.String()
	assert.Contains(t, out, `rel="prev"`)
	assert.NotContains(t, out, `rel="next"`)
	assert.Contains(t, out, `aria-current="page">2<`)
	assert.Contains(t, out, "12,000 total")
}

func TestBulkSummary(t *testing.T) {
	s := MustNew()
	var buf bytes.Buffer
	require.NoError(t, s.BulkSummary(&buf, BulkSummary{
		Action: "approve", Label: "ideas", Total: 3, Succeeded: 2, Failed: 1,
		Errors: []BulkError{{ID: "999", Message: "ideas with id 999 not found"}},
	}))
	out := buf.String()
	assert.Contains(t, out, "notice-warning")
	assert.Contains(t, out, "2 of 3 ideas updated, 1 failed")
	assert.Contains(t, out, "999: ideas with id 999 not found")

	buf.Reset()
	require.NoError(t, s.BulkSummary(&buf, BulkSummary{Action: "delete", Verb: "deleted", Label: "ideas", Total: 2, Succeeded: 2}))
	assert.Contains(t, buf.String(), "2 of 2 ideas deleted.")
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "", FormatCell(nil))
	assert.Equal(t, "No", FormatCell(false))
	assert.Equal(t, "1,500", FormatCell(int64(1500)))
	assert.Equal(t, "2024-03-01 09:30", FormatCell(time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)))
	assert.Equal(t, "draft", FormatCell("draft"))
}
