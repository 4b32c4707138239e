package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/google/uuid"

	"accelerator-admin/internal/metadata"
)

// coerceWrite converts a decoded JSON value to the Go type stored for the field.
func coerceWrite(f metadata.Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch f.Type {
	case "string", "text":
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("must be a string")
		}
		return s, nil

	case "int", "bigint":
		switch n := v.(type) {
		case float64:
			if n != math.Trunc(n) {
				return nil, fmt.Errorf("must be an integer")
			}
			return int64(n), nil
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		case json.Number:
			return n.Int64()
		case string:
			i, err := strconv.ParseInt(n, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("must be an integer")
			}
			return i, nil
		}
		return nil, fmt.Errorf("must be an integer")

	case "decimal":
		switch n := v.(type) {
		case float64:
			return n, nil
		case int64:
			return float64(n), nil
		case int:
			return float64(n), nil
		case json.Number:
			return n.Float64()
		case string:
			x, err := strconv.ParseFloat(n, 64)
			if err != nil {
				return nil, fmt.Errorf("must be a number")
			}
			return x, nil
		}
		return nil, fmt.Errorf("must be a number")

	case "boolean":
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			if parsed, ok := parseBool(b); ok {
				return parsed, nil
			}
		}
		return nil, fmt.Errorf("must be a boolean")

	case "uuid":
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("must be a uuid string")
		}
		u, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("must be a uuid string")
		}
		return u.String(), nil

	case "timestamp", "date":
		switch t := v.(type) {
		case time.Time:
			return t.UTC(), nil
		case string:
			if parsed, ok := parseTime(t); ok {
				return parsed, nil
			}
		}
		return nil, fmt.Errorf("must be an ISO 8601 date or time")

	case "json":
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("must be JSON: %w", err)
		}
		return string(b), nil
	}
	return v, nil
}

// EvaluateGuard runs the action's guard against env. It returns true when
// the guard blocks the action.
func EvaluateGuard(action *metadata.Action, env map[string]any) (bool, error) {
	prog, ok := action.CompiledGuard.(*vm.Program)
	if !ok || prog == nil {
		compiled, err := expr.Compile(action.Guard, expr.AsBool(), expr.AllowUndefinedVariables())
		if err != nil {
			return false, fmt.Errorf("compile guard: %w", err)
		}
		prog = compiled
	}

	result, err := expr.Run(prog, env)
	if err != nil {
		return false, fmt.Errorf("evaluate guard: %w", err)
	}

	allowed, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("guard did not return bool")
	}

	return !allowed, nil
}

func parseIntKey(id string) (any, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, false
	}
	return n, true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
