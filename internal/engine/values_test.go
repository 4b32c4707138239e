package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accelerator-admin/internal/metadata"
)

func TestEvaluateGuard(t *testing.T) {
	action := &metadata.Action{Name: "archive", To: "archived", Guard: `record.status != "archived"`}

	blocked, err := EvaluateGuard(action, map[string]any{"record": map[string]any{"status": "pending"}})
	require.NoError(t, err)
	assert.False(t, blocked)

	blocked, err = EvaluateGuard(action, map[string]any{"record": map[string]any{"status": "archived"}})
	require.NoError(t, err)
	assert.True(t, blocked)

	// a compiled program gives the same answers
	require.NoError(t, action.CompileGuard())
	require.NotNil(t, action.CompiledGuard)
	blocked, err = EvaluateGuard(action, map[string]any{"record": map[string]any{"status": "archived"}})
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestEvaluateGuard_BadExpression(t *testing.T) {
	_, err := EvaluateGuard(&metadata.Action{Guard: "record.total >"}, map[string]any{"record": map[string]any{}})
	assert.Error(t, err)
}

func TestCoerceWrite(t *testing.T) {
	tests := []struct {
		typ     string
		in      any
		want    any
		wantErr bool
	}{
		{"string", "a", "a", false},
		{"string", 1.0, nil, true},
		{"int", 3.0, int64(3), false},
		{"int", 3.5, nil, true},
		{"int", json.Number("12"), int64(12), false},
		{"int", "7", int64(7), false},
		{"decimal", 2.5, 2.5, false},
		{"decimal", "x", nil, true},
		{"boolean", "yes", true, false},
		{"boolean", 1.0, nil, true},
		{"uuid", "3F2504E0-4F89-11D3-9A0C-0305E82C3301", "3f2504e0-4f89-11d3-9a0c-0305e82c3301", false},
		{"uuid", "nope", nil, true},
		{"timestamp", "2024-03-01T10:00:00Z", time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), false},
		{"date", "2024-03-01", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), false},
		{"json", map[string]any{"a": 1.0}, `{"a":1}`, false},
		{"string", nil, nil, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%v", tt.typ, tt.in), func(t *testing.T) {
			got, err := coerceWrite(metadata.Field{Name: "f", Type: tt.typ}, tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAsAppError(t *testing.T) {
	nf := NotFoundError("ideas", "9")
	wrapped := fmt.Errorf("bulk item: %w", nf)
	assert.Same(t, nf, AsAppError(wrapped))

	plain := AsAppError(errors.New("boom"))
	assert.Equal(t, "INTERNAL_ERROR", plain.Code)
	assert.Equal(t, http.StatusInternalServerError, plain.Status)

	cause := errors.New("connection reset")
	se := StoreError("list ideas", cause)
	assert.ErrorIs(t, se, cause)
	assert.Equal(t, "list ideas: connection reset", se.Message)
}
