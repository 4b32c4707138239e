package metadata

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// DescriptorError reports an entity descriptor that cannot be used.
type DescriptorError struct {
	Entity string
	Reason string
}

func (e *DescriptorError) Error() string {
	if e.Entity == "" {
		return "invalid entity descriptor: " + e.Reason
	}
	return fmt.Sprintf("invalid entity descriptor %s: %s", e.Entity, e.Reason)
}

var validate = validator.New()

// Validate checks a descriptor for internal consistency. Table and field
// names are interpolated into SQL, so they must be plain identifiers.
func Validate(e *Entity) error {
	if err := validate.Struct(e); err != nil {
		return &DescriptorError{Entity: e.Name, Reason: err.Error()}
	}
	fail := func(format string, args ...any) error {
		return &DescriptorError{Entity: e.Name, Reason: fmt.Sprintf(format, args...)}
	}

	if !isIdentifier(e.Table) {
		return fail("table name %q is not a plain identifier", e.Table)
	}
	seen := make(map[string]bool, len(e.Fields))
	for _, f := range e.Fields {
		if !isIdentifier(f.Name) {
			return fail("field name %q is not a plain identifier", f.Name)
		}
		if seen[f.Name] {
			return fail("duplicate field %s", f.Name)
		}
		seen[f.Name] = true
		if f.Filter != "" && !f.Filter.Valid() {
			return fail("field %s has unknown filter kind %q", f.Name, f.Filter)
		}
	}
	if e.PrimaryKey.Field == "" {
		return fail("primary key field is required")
	}
	if !e.HasField(e.PrimaryKey.Field) {
		return fail("primary key field %s not found in fields", e.PrimaryKey.Field)
	}
	for _, name := range e.Search {
		f := e.GetField(name)
		if f == nil {
			return fail("search field %s not found in fields", name)
		}
		if f.Type != "string" && f.Type != "text" {
			return fail("search field %s must be string or text", name)
		}
	}
	for _, name := range e.Columns {
		if !e.HasField(name) {
			return fail("column %s not found in fields", name)
		}
	}
	if e.DefaultSort.Field != "" && !e.HasField(e.DefaultSort.Field) {
		return fail("default sort field %s not found in fields", e.DefaultSort.Field)
	}
	if e.StateField != "" && !e.HasField(e.StateField) {
		return fail("state field %s not found in fields", e.StateField)
	}
	for name := range e.Actions {
		a := e.GetAction(name)
		if !a.Delete {
			if a.Field == "" {
				return fail("action %s has no state field", name)
			}
			if !e.HasField(a.Field) {
				return fail("action %s targets unknown field %s", name, a.Field)
			}
		}
		if a.Stamp != "" && !e.HasField(a.Stamp) {
			return fail("action %s stamps unknown field %s", name, a.Stamp)
		}
	}
	return nil
}

func isIdentifier(s string) bool {
	if len(s) == 0 || len(s) > 63 {
		return false
	}
	for i, c := range s {
		if c == '_' || (c >= 'a' && c <= 'z') {
			continue
		}
		if i > 0 && c >= '0' && c <= '9' {
			continue
		}
		return false
	}
	return true
}
