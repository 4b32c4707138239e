package engine

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"accelerator-admin/internal/metadata"
)

// Defaults bounds list windows when a descriptor does not set its own limit.
type Defaults struct {
	Limit    int
	MaxLimit int
}

// Window is one page of a listing. Offset is always (Page-1)*Limit.
type Window struct {
	Page   int
	Limit  int
	Offset int
}

// NewWindow clamps page and limit and derives the offset.
func NewWindow(page, limit, maxLimit int) Window {
	if page < 1 {
		page = 1
	}
	if page > math.MaxInt32 {
		page = math.MaxInt32
	}
	if limit < 1 {
		limit = 1
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return Window{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

// Filter is one parsed constraint. Range filters fill From and/or To;
// every other kind uses Value.
type Filter struct {
	Kind  metadata.FilterKind
	Value any
	From  any
	To    any

	params url.Values // the query parameters the filter was parsed from
}

// FilterSet is the per-request set of constraints on a listing.
type FilterSet struct {
	Fields map[string]Filter
	Search string
	Sort   *metadata.SortSpec
}

// Has reports whether a constraint on field is in effect.
func (fs FilterSet) Has(field string) bool {
	_, ok := fs.Fields[field]
	return ok
}

// Params returns the query parameters that reproduce the filter set, so
// links built from them keep the active filters, search and sort.
func (fs FilterSet) Params() url.Values {
	v := url.Values{}
	for _, f := range fs.Fields {
		for key, vals := range f.params {
			v[key] = append([]string(nil), vals...)
		}
	}
	if fs.Search != "" {
		v.Set("search", fs.Search)
	}
	if fs.Sort != nil {
		name := fs.Sort.Field
		if fs.Sort.Desc {
			name = "-" + name
		}
		v.Set("sort", name)
	}
	return v
}

// NormalizeQuery turns raw query parameters into a filter set and window.
// It never fails: malformed values are dropped as if absent, and parameters
// that name no filterable field are ignored.
func NormalizeQuery(params map[string]string, entity *metadata.Entity, d Defaults) (FilterSet, Window) {
	get := func(key string) string {
		return strings.TrimSpace(params[key])
	}

	limit := entity.DefaultLimit
	if limit <= 0 {
		limit = d.Limit
	}
	if n, ok := positiveInt(get("limit")); ok {
		limit = n
	}
	page := 1
	if n, ok := positiveInt(get("page")); ok {
		page = n
	}
	w := NewWindow(page, limit, d.MaxLimit)

	fs := FilterSet{Fields: make(map[string]Filter)}
	for _, field := range entity.FilterableFields() {
		if f, ok := parseFilter(field, get); ok {
			fs.Fields[field.Name] = f
		}
	}

	if len(entity.Search) > 0 {
		fs.Search = get("search")
	}

	if s := get("sort"); s != "" {
		spec := metadata.SortSpec{Field: strings.TrimPrefix(s, "-"), Desc: strings.HasPrefix(s, "-")}
		if entity.CanSort(spec.Field) {
			fs.Sort = &spec
		}
	}

	return fs, w
}

func parseFilter(field metadata.Field, get func(string) string) (Filter, bool) {
	switch field.Filter {
	case metadata.FilterEquals:
		raw := get(field.Name)
		if raw == "" {
			return Filter{}, false
		}
		v, ok := parseValue(field, raw)
		if !ok {
			return Filter{}, false
		}
		return Filter{Kind: field.Filter, Value: v, params: url.Values{field.Name: {raw}}}, true

	case metadata.FilterContains:
		raw := get(field.Name)
		if raw == "" {
			return Filter{}, false
		}
		return Filter{Kind: field.Filter, Value: raw, params: url.Values{field.Name: {raw}}}, true

	case metadata.FilterBoolean:
		raw := get(field.Name)
		b, ok := parseBool(raw)
		if !ok {
			return Filter{}, false
		}
		return Filter{Kind: field.Filter, Value: b, params: url.Values{field.Name: {raw}}}, true

	case metadata.FilterRange:
		f := Filter{Kind: field.Filter, params: url.Values{}}
		fromKey, toKey := field.Name+"_from", field.Name+"_to"
		if raw := get(fromKey); raw != "" {
			if v, ok := parseValue(field, raw); ok {
				f.From = v
				f.params.Set(fromKey, raw)
			}
		}
		if raw := get(toKey); raw != "" {
			if v, ok := parseValue(field, raw); ok {
				// a bare date as the upper bound of a timestamp covers that whole day
				if t, isTime := v.(time.Time); isTime && field.Type == "timestamp" && len(raw) == len(time.DateOnly) {
					v = t.Add(24*time.Hour - time.Nanosecond)
				}
				f.To = v
				f.params.Set(toKey, raw)
			}
		}
		if f.From == nil && f.To == nil {
			return Filter{}, false
		}
		return f, true
	}
	return Filter{}, false
}

// parseValue converts a query string value to the field's Go type.
func parseValue(field metadata.Field, raw string) (any, bool) {
	switch field.Type {
	case "int", "bigint":
		n, err := strconv.ParseInt(raw, 10, 64)
		return n, err == nil
	case "decimal":
		f, err := strconv.ParseFloat(raw, 64)
		return f, err == nil
	case "boolean":
		return parseBool(raw)
	case "uuid":
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, false
		}
		return id.String(), true
	case "timestamp", "date":
		t, ok := parseTime(raw)
		return t, ok
	default:
		return raw, true
	}
}

func parseBool(raw string) (bool, bool) {
	switch strings.ToLower(raw) {
	case "true", "1", "yes", "on":
		return true, true
	case "false", "0", "no", "off":
		return false, true
	}
	return false, false
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", time.DateTime, time.DateOnly}

// parseTime returns UTC so stored and compared timestamps share one zone;
// SQLite compares them as text.
func parseTime(raw string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func positiveInt(raw string) (int, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
