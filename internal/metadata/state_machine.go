package metadata

import (
	"encoding/json"
	"fmt"

	"github.com/expr-lang/expr"
	"gopkg.in/yaml.v3"
)

// DeletedState is reported as the resulting state of a delete action.
const DeletedState = "deleted"

// TransitionFrom handles both string and []string for the "from" field.
type TransitionFrom []string

func (t *TransitionFrom) UnmarshalJSON(data []byte) error {
	// Try string first
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*t = []string{single}
		return nil
	}
	// Try array
	var arr []string
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	*t = arr
	return nil
}

func (t TransitionFrom) MarshalJSON() ([]byte, error) {
	if len(t) == 1 {
		return json.Marshal(t[0])
	}
	return json.Marshal([]string(t))
}

func (t *TransitionFrom) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*t = []string{value.Value}
		return nil
	}
	var arr []string
	if err := value.Decode(&arr); err != nil {
		return err
	}
	*t = arr
	return nil
}

// Allows reports whether the transition may start from state. An empty
// list allows any source state.
func (t TransitionFrom) Allows(state string) bool {
	if len(t) == 0 {
		return true
	}
	for _, from := range t {
		if from == state {
			return true
		}
	}
	return false
}

// Action is a named state change applicable to a single record, e.g.
// approve or archive. Bulk requests name an action and a list of ids.
type Action struct {
	Name   string         `json:"-" yaml:"-"`
	Label  string         `json:"label,omitempty" yaml:"label,omitempty"`
	Field  string         `json:"field,omitempty" yaml:"field,omitempty"` // defaults to the entity state field
	To     string         `json:"to,omitempty" yaml:"to,omitempty" validate:"required_without=Delete"`
	From   TransitionFrom `json:"from,omitempty" yaml:"from,omitempty"`
	Guard  string         `json:"guard,omitempty" yaml:"guard,omitempty"`
	Stamp  string         `json:"stamp,omitempty" yaml:"stamp,omitempty"` // set to the current time
	Delete bool           `json:"delete,omitempty" yaml:"delete,omitempty"`
	Roles  []string       `json:"roles,omitempty" yaml:"roles,omitempty"` // empty means any back-office role

	// CompiledGuard holds the compiled guard expression (not serialized).
	CompiledGuard any `json:"-" yaml:"-"`
}

// ResultingState is the state a record is in after the action succeeds.
func (a *Action) ResultingState() string {
	if a.Delete {
		return DeletedState
	}
	return a.To
}

// NeedsCurrent reports whether applying the action requires reading the
// record first.
func (a *Action) NeedsCurrent() bool {
	return len(a.From) > 0 || a.Guard != ""
}

// CompileGuard compiles the guard expression once so evaluation at request
// time is allocation-light. Guards evaluate against {"record": map}.
func (a *Action) CompileGuard() error {
	if a.Guard == "" {
		return nil
	}
	prog, err := expr.Compile(a.Guard, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return fmt.Errorf("compile guard %q: %w", a.Guard, err)
	}
	a.CompiledGuard = prog
	return nil
}
