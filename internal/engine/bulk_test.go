package engine

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"accelerator-admin/internal/metadata"
)

// fakeTransitioner approves any id except those listed in fail. Later ids
// finish first so ordering bugs show up.
type fakeTransitioner struct {
	entity   *metadata.Entity
	fail     map[string]bool
	calls    atomic.Int64
	inFlight atomic.Int64
	peak     atomic.Int64
}

func (f *fakeTransitioner) Entity() *metadata.Entity { return f.entity }

func (f *fakeTransitioner) Transition(ctx context.Context, id, action string) (*TransitionResult, error) {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	time.Sleep(time.Duration(10-len(id)) * time.Millisecond)
	if f.fail[id] {
		return nil, NotFoundError("ideas", id)
	}
	return &TransitionResult{ID: id, State: "approved", Record: map[string]any{"id": id}}, nil
}

type countingObserver struct {
	mu     sync.Mutex
	ok     int
	failed int
}

func (o *countingObserver) BulkItem(_, _ string, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if ok {
		o.ok++
	} else {
		o.failed++
	}
}

func newFake(t *testing.T, fail ...string) *fakeTransitioner {
	f := &fakeTransitioner{entity: ideasEntity(t), fail: map[string]bool{}}
	for _, id := range fail {
		f.fail[id] = true
	}
	return f
}

func ids(raw ...string) []RecordID {
	out := make([]RecordID, len(raw))
	for i, r := range raw {
		out[i] = RecordID(r)
	}
	return out
}

func TestBulkExecute_PartialFailure(t *testing.T) {
	fake := newFake(t, "999")
	obs := &countingObserver{}
	b := NewBulkExecutor(2, obs, zap.NewNop())

	out, err := b.Execute(context.Background(), fake, BulkRequest{Action: "approve", IDs: ids("1", "2", "999")})
	require.NoError(t, err)

	assert.Equal(t, BulkSummary{Total: 3, Succeeded: 2, Failed: 1}, out.Summary())
	require.Len(t, out.Succeeded, 2)
	assert.Equal(t, RecordID("1"), out.Succeeded[0].ID)
	assert.Equal(t, RecordID("2"), out.Succeeded[1].ID)
	assert.Equal(t, "approved", out.Succeeded[0].ResultingState)

	require.Len(t, out.Failed, 1)
	assert.Equal(t, RecordID("999"), out.Failed[0].ID)
	assert.Equal(t, "NOT_FOUND", out.Failed[0].Code)

	assert.Equal(t, 2, obs.ok)
	assert.Equal(t, 1, obs.failed)
}

func TestBulkExecute_KeepsRequestOrder(t *testing.T) {
	fake := newFake(t)
	b := NewBulkExecutor(8, nil, zap.NewNop())

	req := BulkRequest{Action: "approve", IDs: ids("1", "22", "333", "4444", "55555", "6", "77")}
	out, err := b.Execute(context.Background(), fake, req)
	require.NoError(t, err)

	require.Len(t, out.Succeeded, len(req.IDs))
	for i, s := range out.Succeeded {
		assert.Equal(t, req.IDs[i], s.ID)
	}
	assert.Empty(t, out.Failed)
	assert.NotNil(t, out.Failed)
}

func TestBulkExecute_RespectsConcurrency(t *testing.T) {
	fake := newFake(t)
	b := NewBulkExecutor(2, nil, zap.NewNop())

	_, err := b.Execute(context.Background(), fake, BulkRequest{Action: "approve", IDs: ids("1", "2", "3", "4", "5", "6")})
	require.NoError(t, err)
	assert.Equal(t, int64(6), fake.calls.Load())
	assert.LessOrEqual(t, fake.peak.Load(), int64(2))
}

func TestBulkExecute_CancelledRequestStillCompletes(t *testing.T) {
	fake := newFake(t)
	b := NewBulkExecutor(4, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := b.Execute(ctx, fake, BulkRequest{Action: "approve", IDs: ids("1", "2")})
	require.NoError(t, err)
	assert.Len(t, out.Succeeded, 2)
}

func TestBulkValidate(t *testing.T) {
	b := NewBulkExecutor(4, nil, zap.NewNop())

	tests := []struct {
		name string
		req  BulkRequest
		code string
		msg  string
	}{
		{"missing action", BulkRequest{IDs: ids("1")}, "VALIDATION_FAILED", "action is required"},
		{"missing ids", BulkRequest{Action: "approve"}, "VALIDATION_FAILED", "ids must be a non-empty array"},
		{"empty ids", BulkRequest{Action: "approve", IDs: []RecordID{}}, "VALIDATION_FAILED", "ids must be a non-empty array"},
		{"blank id", BulkRequest{Action: "approve", IDs: ids("1", "")}, "VALIDATION_FAILED", "ids must not contain blank entries"},
		{"unknown action", BulkRequest{Action: "explode", IDs: ids("1")}, "INVALID_ACTION", `Unsupported action "explode" for ideas`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFake(t)
			_, err := b.Execute(context.Background(), fake, tt.req)
			require.Error(t, err)

			appErr := AsAppError(err)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, 400, appErr.Status)
			assert.Equal(t, tt.msg, appErr.Message)
			assert.Zero(t, fake.calls.Load(), "no item may run when the request is invalid")
		})
	}
}

func TestRecordID_JSON(t *testing.T) {
	var got []RecordID
	require.NoError(t, json.Unmarshal([]byte(`[1, "2", "abc", 12.0, null]`), &got))
	assert.Equal(t, []RecordID{"1", "2", "abc", "12.0", ""}, got)

	b, err := json.Marshal([]RecordID{"1", "abc", "007", "-3", "+4", "12.0"})
	require.NoError(t, err)
	assert.JSONEq(t, `[1, "abc", "007", -3, "+4", "12.0"]`, string(b))

	var bad RecordID
	assert.Error(t, json.Unmarshal([]byte(`{"id": 1}`), &bad))
}
