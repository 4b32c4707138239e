package metadata

import (
	"sort"
	"strings"
)

type PrimaryKey struct {
	Field     string `json:"field" yaml:"field" validate:"required"`
	Type      string `json:"type" yaml:"type" validate:"required,oneof=uuid int bigint string"` // uuid, int, bigint, string
	Generated bool   `json:"generated" yaml:"generated"`
}

// SortSpec is the ordering applied when a list request names none.
type SortSpec struct {
	Field string `json:"field" yaml:"field"`
	Desc  bool   `json:"desc,omitempty" yaml:"desc,omitempty"`
}

// Entity describes one admin table: which columns can be filtered and sorted,
// which columns the list view shows, and which named transitions apply.
// Descriptors are built at startup and never mutated afterwards.
type Entity struct {
	Name         string            `json:"name" yaml:"name" validate:"required"`
	Table        string            `json:"table" yaml:"table" validate:"required"`
	Label        string            `json:"label,omitempty" yaml:"label,omitempty"`
	PrimaryKey   PrimaryKey        `json:"primary_key" yaml:"primary_key"`
	Fields       []Field           `json:"fields" yaml:"fields" validate:"required,min=1,dive"`
	Search       []string          `json:"search,omitempty" yaml:"search,omitempty"`
	Columns      []string          `json:"columns,omitempty" yaml:"columns,omitempty"`
	DefaultSort  SortSpec          `json:"default_sort" yaml:"default_sort"`
	DefaultLimit int               `json:"default_limit,omitempty" yaml:"default_limit,omitempty" validate:"gte=0"`
	StateField   string            `json:"state_field,omitempty" yaml:"state_field,omitempty"`
	Actions      map[string]Action `json:"actions,omitempty" yaml:"actions,omitempty" validate:"dive"`
}

// GetField returns a pointer to the field with the given name, or nil.
func (e *Entity) GetField(name string) *Field {
	for i := range e.Fields {
		if e.Fields[i].Name == name {
			return &e.Fields[i]
		}
	}
	return nil
}

// HasField returns true if the entity has a field with the given name.
func (e *Entity) HasField(name string) bool {
	return e.GetField(name) != nil
}

// FieldNames returns all field names.
func (e *Entity) FieldNames() []string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Name
	}
	return names
}

// FilterableFields returns the fields list queries may constrain, in declaration order.
func (e *Entity) FilterableFields() []Field {
	var fields []Field
	for _, f := range e.Fields {
		if f.Filterable() {
			fields = append(fields, f)
		}
	}
	return fields
}

// CanSort reports whether a list request may order by the named field.
// The default sort field and the primary key are always sortable.
func (e *Entity) CanSort(name string) bool {
	if name == e.DefaultSort.Field || name == e.PrimaryKey.Field {
		return true
	}
	f := e.GetField(name)
	return f != nil && f.Sortable
}

// WritableFields returns fields that can be set by the client.
// Excludes auto-generated PKs and auto-timestamp fields.
func (e *Entity) WritableFields() []Field {
	var fields []Field
	for _, f := range e.Fields {
		if f.Name == e.PrimaryKey.Field && e.PrimaryKey.Generated {
			continue
		}
		if f.IsAuto() {
			continue
		}
		fields = append(fields, f)
	}
	return fields
}

// UpdatableFields returns fields that can be set on UPDATE.
// Excludes the PK and auto-managed fields.
func (e *Entity) UpdatableFields() []Field {
	var fields []Field
	for _, f := range e.Fields {
		if f.Name == e.PrimaryKey.Field {
			continue
		}
		if f.IsAuto() {
			continue
		}
		fields = append(fields, f)
	}
	return fields
}

// AutoFields returns the fields stamped by the engine for the given write kind
// ("create" or "update"). Fields marked auto=update are stamped on both.
func (e *Entity) AutoFields(kind string) []string {
	var names []string
	for _, f := range e.Fields {
		if f.Auto == kind || (kind == "create" && f.Auto == "update") {
			names = append(names, f.Name)
		}
	}
	return names
}

// ListColumns returns the columns the generic row template renders.
// Falls back to every field when the descriptor names none.
func (e *Entity) ListColumns() []Field {
	if len(e.Columns) == 0 {
		return e.Fields
	}
	cols := make([]Field, 0, len(e.Columns))
	for _, name := range e.Columns {
		if f := e.GetField(name); f != nil {
			cols = append(cols, *f)
		}
	}
	return cols
}

// GetAction returns the named action, or nil.
func (e *Entity) GetAction(name string) *Action {
	a, ok := e.Actions[name]
	if !ok {
		return nil
	}
	a.Name = name
	if a.Field == "" && !a.Delete {
		a.Field = e.StateField
	}
	return &a
}

// ActionNames returns the action names in a stable order.
func (e *Entity) ActionNames() []string {
	names := make([]string, 0, len(e.Actions))
	for name := range e.Actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DisplayName returns the human label for the entity.
func (e *Entity) DisplayName() string {
	if e.Label != "" {
		return e.Label
	}
	return strings.ReplaceAll(e.Name, "_", " ")
}
