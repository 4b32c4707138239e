package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"accelerator-admin/internal/metadata"
	"accelerator-admin/internal/store"
	"accelerator-admin/internal/views"
)

var seedBase = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func testRegistry(t *testing.T) *metadata.Registry {
	t.Helper()
	reg := metadata.NewRegistry()
	require.NoError(t, reg.Load(metadata.DefaultCatalog()))
	return reg
}

// seedIdeas stores ideas 1..n. Ideas 5 and 6 are drafts, the rest pending;
// even ids are in the "tools" category. Later ids are created later.
func seedIdeas(ms *store.MemoryStore, n int) {
	for i := 1; i <= n; i++ {
		status, category := "pending", "ops"
		if i == 5 || i == 6 {
			status = "draft"
		}
		if i%2 == 0 {
			category = "tools"
		}
		ms.Seed("ideas", "id", map[string]any{
			"id":          int64(i),
			"title":       "Idea " + strconv.Itoa(i),
			"description": "",
			"status":      status,
			"category":    category,
			"is_featured": i%5 == 0,
			"vote_count":  int64(i * 3),
			"created_at":  seedBase.Add(time.Duration(i) * time.Hour),
			"updated_at":  seedBase.Add(time.Duration(i) * time.Hour),
		})
	}
}

func newTestHandler(t *testing.T, rs store.RecordStore) *Handler {
	t.Helper()
	log := zap.NewNop()
	return NewHandler(
		NewLocator(testRegistry(t), rs, log),
		NewBulkExecutor(4, nil, log),
		NewRenderer(views.MustNew(), "HX-Request", log),
		Defaults{Limit: 10, MaxLimit: 100},
	)
}

func testApp(t *testing.T, rs store.RecordStore) *fiber.App {
	t.Helper()
	app := fiber.New()
	RegisterDynamicRoutes(app, newTestHandler(t, rs))
	return app
}

func seededApp(t *testing.T) (*fiber.App, *store.MemoryStore) {
	t.Helper()
	ms := store.NewMemoryStore()
	seedIdeas(ms, 23)
	return testApp(t, ms), ms
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func doFragment(t *testing.T, app *fiber.App, method, path string, form string) *http.Response {
	t.Helper()
	var reader io.Reader
	if form != "" {
		reader = strings.NewReader(form)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("HX-Request", "true")
	if form != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return b
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(readBody(t, resp), &v))
	return v
}

// countingStore records how often the record store is reached.
type countingStore struct {
	store.RecordStore
	calls atomic.Int64
}

func (c *countingStore) Find(ctx context.Context, q store.FindQuery) (*store.FindResult, error) {
	c.calls.Add(1)
	return c.RecordStore.Find(ctx, q)
}

func (c *countingStore) Get(ctx context.Context, t store.Table, id any) (map[string]any, error) {
	c.calls.Add(1)
	return c.RecordStore.Get(ctx, t, id)
}

func (c *countingStore) Update(ctx context.Context, t store.Table, id any, cond store.Predicate, values map[string]any) (map[string]any, error) {
	c.calls.Add(1)
	return c.RecordStore.Update(ctx, t, id, cond, values)
}

func (c *countingStore) Delete(ctx context.Context, t store.Table, id any, cond store.Predicate) error {
	c.calls.Add(1)
	return c.RecordStore.Delete(ctx, t, id, cond)
}

// racingStore applies a competing write right after the first Get, the way
// a second admin acting on the same record would.
type racingStore struct {
	store.RecordStore
	once  sync.Once
	write map[string]any
}

func (r *racingStore) Get(ctx context.Context, t store.Table, id any) (map[string]any, error) {
	row, err := r.RecordStore.Get(ctx, t, id)
	if err != nil {
		return nil, err
	}
	r.once.Do(func() {
		_, err = r.RecordStore.Update(ctx, t, id, nil, r.write)
	})
	return row, err
}

// brokenStore fails every call the way an unreachable database would.
type brokenStore struct {
	err error
}

func (b brokenStore) Find(context.Context, store.FindQuery) (*store.FindResult, error) {
	return nil, b.err
}

func (b brokenStore) Get(context.Context, store.Table, any) (map[string]any, error) {
	return nil, b.err
}

func (b brokenStore) Insert(context.Context, store.Table, map[string]any) (map[string]any, error) {
	return nil, b.err
}

func (b brokenStore) Update(context.Context, store.Table, any, store.Predicate, map[string]any) (map[string]any, error) {
	return nil, b.err
}

func (b brokenStore) Delete(context.Context, store.Table, any, store.Predicate) error { return b.err }

func (b brokenStore) Ping(context.Context) error { return b.err }

func (b brokenStore) Close() {}
