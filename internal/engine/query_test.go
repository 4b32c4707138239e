package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accelerator-admin/internal/metadata"
	"accelerator-admin/internal/store"
)

var testDefaults = Defaults{Limit: 10, MaxLimit: 100}

func ideasEntity(t *testing.T) *metadata.Entity {
	t.Helper()
	return testRegistry(t).GetEntity("ideas")
}

func TestNormalizeQuery_Window(t *testing.T) {
	ideas := ideasEntity(t)

	tests := []struct {
		name   string
		params map[string]string
		want   Window
	}{
		{"defaults", map[string]string{}, Window{Page: 1, Limit: 10, Offset: 0}},
		{"page zero is page one", map[string]string{"page": "0"}, Window{Page: 1, Limit: 10, Offset: 0}},
		{"negative page", map[string]string{"page": "-4"}, Window{Page: 1, Limit: 10, Offset: 0}},
		{"non numeric page", map[string]string{"page": "two"}, Window{Page: 1, Limit: 10, Offset: 0}},
		{"third page", map[string]string{"page": "3", "limit": "10"}, Window{Page: 3, Limit: 10, Offset: 20}},
		{"limit clamped", map[string]string{"limit": "1000"}, Window{Page: 1, Limit: 100, Offset: 0}},
		{"zero limit uses default", map[string]string{"limit": "0"}, Window{Page: 1, Limit: 10, Offset: 0}},
		{"whitespace trimmed", map[string]string{"page": " 2 ", "limit": " 5"}, Window{Page: 2, Limit: 5, Offset: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, w := NormalizeQuery(tt.params, ideas, testDefaults)
			assert.Equal(t, tt.want, w)
		})
	}
}

func TestNormalizeQuery_EntityDefaultLimit(t *testing.T) {
	notifications := testRegistry(t).GetEntity("notifications")

	_, w := NormalizeQuery(map[string]string{}, notifications, testDefaults)
	assert.Equal(t, 25, w.Limit)

	_, w = NormalizeQuery(map[string]string{"limit": "7"}, notifications, testDefaults)
	assert.Equal(t, 7, w.Limit)
}

func TestNewWindow_HugePageDoesNotOverflow(t *testing.T) {
	w := NewWindow(1<<62, 100, 100)
	assert.Positive(t, w.Offset)
	assert.Equal(t, (w.Page-1)*w.Limit, w.Offset)
}

func TestNormalizeQuery_Filters(t *testing.T) {
	ideas := ideasEntity(t)

	fs, _ := NormalizeQuery(map[string]string{
		"status":          "draft",
		"title":           "  rocket ",
		"is_featured":     "yes",
		"vote_count_from": "5",
		"vote_count_to":   "lots",
		"owner_id":        "not-a-uuid",
		"description":     "not filterable",
		"color":           "red",
	}, ideas, testDefaults)

	require.Len(t, fs.Fields, 4)
	assert.Equal(t, "draft", fs.Fields["status"].Value)
	assert.Equal(t, "rocket", fs.Fields["title"].Value)
	assert.Equal(t, true, fs.Fields["is_featured"].Value)

	votes := fs.Fields["vote_count"]
	assert.Equal(t, int64(5), votes.From)
	assert.Nil(t, votes.To)

	assert.False(t, fs.Has("owner_id"))
	assert.False(t, fs.Has("description"))
	assert.False(t, fs.Has("color"))
}

func TestNormalizeQuery_Booleans(t *testing.T) {
	ideas := ideasEntity(t)

	for raw, want := range map[string]bool{"true": true, "1": true, "ON": true, "false": false, "0": false, "no": false} {
		fs, _ := NormalizeQuery(map[string]string{"is_featured": raw}, ideas, testDefaults)
		require.True(t, fs.Has("is_featured"), raw)
		assert.Equal(t, want, fs.Fields["is_featured"].Value, raw)
	}

	fs, _ := NormalizeQuery(map[string]string{"is_featured": "maybe"}, ideas, testDefaults)
	assert.False(t, fs.Has("is_featured"))
}

func TestNormalizeQuery_DateRangeCoversWholeDay(t *testing.T) {
	ideas := ideasEntity(t)

	fs, _ := NormalizeQuery(map[string]string{
		"created_at_from": "2024-03-01",
		"created_at_to":   "2024-03-02",
	}, ideas, testDefaults)

	r := fs.Fields["created_at"]
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), r.From)
	assert.Equal(t, time.Date(2024, 3, 2, 23, 59, 59, 999999999, time.UTC), r.To)

	fs, _ = NormalizeQuery(map[string]string{"created_at_to": "2024-03-02T10:00:00Z"}, ideas, testDefaults)
	assert.Equal(t, time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC), fs.Fields["created_at"].To)
}

func TestNormalizeQuery_SearchAndSort(t *testing.T) {
	ideas := ideasEntity(t)

	fs, _ := NormalizeQuery(map[string]string{"search": "ai", "sort": "-vote_count"}, ideas, testDefaults)
	assert.Equal(t, "ai", fs.Search)
	require.NotNil(t, fs.Sort)
	assert.Equal(t, metadata.SortSpec{Field: "vote_count", Desc: true}, *fs.Sort)

	fs, _ = NormalizeQuery(map[string]string{"sort": "description"}, ideas, testDefaults)
	assert.Nil(t, fs.Sort, "unsortable field is ignored")

	subs := testRegistry(t).GetEntity("subscriptions")
	fs, _ = NormalizeQuery(map[string]string{"search": "pro"}, subs, testDefaults)
	assert.Empty(t, fs.Search, "entity without search fields")
}

func TestFilterSet_ParamsReproduceRequest(t *testing.T) {
	ideas := ideasEntity(t)

	fs, _ := NormalizeQuery(map[string]string{
		"status":          "draft",
		"vote_count_from": "5",
		"vote_count_to":   "bad",
		"search":          "ai",
		"sort":            "-vote_count",
		"page":            "2",
		"color":           "red",
	}, ideas, testDefaults)

	assert.Equal(t, "search=ai&sort=-vote_count&status=draft&vote_count_from=5", fs.Params().Encode())
}

func TestCompileFilters(t *testing.T) {
	ideas := ideasEntity(t)
	params := map[string]string{
		"search":          "ai",
		"vote_count_from": "3",
		"vote_count_to":   "9",
		"is_featured":     "true",
		"category":        "tools",
		"title":           "bot",
	}

	fs, _ := NormalizeQuery(params, ideas, testDefaults)
	pred := CompileFilters(fs, ideas)

	want := store.Predicate{
		store.Where("title", store.OpContains, "bot"),
		store.Where("category", store.OpEq, "tools"),
		store.Where("is_featured", store.OpEq, true),
		store.Where("vote_count", store.OpGte, int64(3)),
		store.Where("vote_count", store.OpLte, int64(9)),
		store.AnyOf(
			store.Condition{Field: "title", Op: store.OpContains, Value: "ai"},
			store.Condition{Field: "description", Op: store.OpContains, Value: "ai"},
		),
	}
	assert.Equal(t, want, pred)

	for i := 0; i < 5; i++ {
		again, _ := NormalizeQuery(params, ideas, testDefaults)
		assert.Equal(t, pred, CompileFilters(again, ideas))
	}
}

func TestCompileFilters_DropsMismatchedEntries(t *testing.T) {
	ideas := ideasEntity(t)
	fs := FilterSet{Fields: map[string]Filter{
		"status":      {Kind: metadata.FilterRange, From: "a"},
		"description": {Kind: metadata.FilterContains, Value: "x"},
	}}
	assert.Empty(t, CompileFilters(fs, ideas))
}

func TestCompileOrder(t *testing.T) {
	ideas := ideasEntity(t)

	assert.Equal(t, []store.Order{{Field: "created_at", Desc: true}, {Field: "id"}},
		CompileOrder(FilterSet{}, ideas))

	assert.Equal(t, []store.Order{{Field: "vote_count"}, {Field: "id"}},
		CompileOrder(FilterSet{Sort: &metadata.SortSpec{Field: "vote_count"}}, ideas))

	assert.Equal(t, []store.Order{{Field: "id", Desc: true}},
		CompileOrder(FilterSet{Sort: &metadata.SortSpec{Field: "id", Desc: true}}, ideas))
}
