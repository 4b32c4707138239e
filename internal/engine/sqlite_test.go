package engine

import (
	"context"
	"database/sql"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accelerator-admin/internal/store"
)

// sqliteApp serves ideas 1..n from an in-memory SQLite database, seeded the
// same way as seedIdeas.
func sqliteApp(t *testing.T, n int) *store.Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE ideas (
		id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL,
		category TEXT,
		owner_id TEXT,
		tenant_id TEXT,
		is_featured BOOLEAN NOT NULL DEFAULT 0,
		vote_count INTEGER NOT NULL DEFAULT 0,
		reviewed_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)
	require.NoError(t, err)

	s := store.NewWithDB(db, &store.SQLiteDialect{})
	tbl := store.Table{Name: "ideas", Key: "id"}
	for i := 1; i <= n; i++ {
		status := "pending"
		if i == 5 || i == 6 {
			status = "draft"
		}
		at := seedBase.Add(time.Duration(i) * time.Hour)
		_, err := s.Insert(context.Background(), tbl, map[string]any{
			"id":          int64(i),
			"title":       "Idea " + strconv.Itoa(i),
			"status":      status,
			"is_featured": i%5 == 0,
			"vote_count":  int64(i * 3),
			"created_at":  at,
			"updated_at":  at,
		})
		require.NoError(t, err)
	}
	return s
}

func TestSQLite_TimestampRangeWithOffset(t *testing.T) {
	app := testApp(t, sqliteApp(t, 6))

	// 12:30+02:00 is 10:30Z; ideas are created at 09:00Z plus id hours
	resp := doRequest(t, app, http.MethodGet, "/api/ideas?created_at_from=2024-03-01T12:30:00%2B02:00&sort=id", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[listBody](t, resp)
	assert.Equal(t, []float64{2, 3, 4, 5, 6}, rowIDs(body.Data))

	resp = doRequest(t, app, http.MethodGet,
		"/api/ideas?created_at_from=2024-03-01T05:30:00-05:00&created_at_to=2024-03-01T13:00:00%2B00:00&sort=id", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body = decode[listBody](t, resp)
	assert.Equal(t, []float64{2, 3, 4}, rowIDs(body.Data))
}

func TestSQLite_DateOnlyUpperBound(t *testing.T) {
	app := testApp(t, sqliteApp(t, 6))

	resp := doRequest(t, app, http.MethodGet, "/api/ideas?created_at_to=2024-03-01", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(6), decode[listBody](t, resp).Pagination.Total)

	resp = doRequest(t, app, http.MethodGet, "/api/ideas?created_at_to=2024-02-29", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Zero(t, decode[listBody](t, resp).Pagination.Total)
}

func TestSQLite_TransitionChecksStateOnWrite(t *testing.T) {
	s := sqliteApp(t, 6)
	app := testApp(t, &racingStore{RecordStore: s, write: map[string]any{"status": "rejected"}})

	resp := doRequest(t, app, http.MethodPut, "/api/ideas/6/approve", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doRequest(t, app, http.MethodPut, "/api/ideas/5/reject", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "rejected", decode[recordBody](t, resp).Data["status"])
}
