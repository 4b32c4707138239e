package metadata

// FilterKind is how a list query compares a request value against a field.
type FilterKind string

const (
	FilterEquals   FilterKind = "equals"
	FilterContains FilterKind = "contains"
	FilterBoolean  FilterKind = "boolean"
	FilterRange    FilterKind = "range"
)

// Valid reports whether k is one of the known comparison kinds.
func (k FilterKind) Valid() bool {
	switch k {
	case FilterEquals, FilterContains, FilterBoolean, FilterRange:
		return true
	}
	return false
}

type Field struct {
	Name     string     `json:"name" yaml:"name" validate:"required"`
	Type     string     `json:"type" yaml:"type" validate:"required,oneof=string text int bigint decimal boolean uuid timestamp date json"`
	Label    string     `json:"label,omitempty" yaml:"label,omitempty"`
	Required bool       `json:"required,omitempty" yaml:"required,omitempty"`
	Filter   FilterKind `json:"filter,omitempty" yaml:"filter,omitempty"`
	Sortable bool       `json:"sortable,omitempty" yaml:"sortable,omitempty"`
	Auto     string     `json:"auto,omitempty" yaml:"auto,omitempty" validate:"omitempty,oneof=create update"` // "create" or "update"
}

// IsAuto returns true if the field is auto-managed by the engine.
func (f Field) IsAuto() bool {
	return f.Auto == "create" || f.Auto == "update"
}

// Filterable returns true if list queries may constrain this field.
func (f Field) Filterable() bool {
	return f.Filter != ""
}

// DisplayLabel returns the column heading used by fragment templates.
func (f Field) DisplayLabel() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}
