package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is a RecordStore kept in process memory. It backs the
// "memory" database driver for demos and the engine tests.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[string]*memTable
}

type memTable struct {
	rows   []map[string]any
	nextID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tables: make(map[string]*memTable)}
}

// Seed appends rows to a table as given, without generating keys.
func (m *MemoryStore) Seed(table, key string, rows ...map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tbl := m.table(table)
	for _, r := range rows {
		tbl.rows = append(tbl.rows, copyRow(r, nil))
		if n, ok := toInt64(r[key]); ok && n > tbl.nextID {
			tbl.nextID = n
		}
	}
}

func (m *MemoryStore) table(name string) *memTable {
	tbl, ok := m.tables[name]
	if !ok {
		tbl = &memTable{}
		m.tables[name] = tbl
	}
	return tbl
}

func (m *MemoryStore) Find(_ context.Context, q FindQuery) (*FindResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []map[string]any
	if tbl, ok := m.tables[q.Table.Name]; ok {
		for _, row := range tbl.rows {
			ok, err := matches(row, q.Where)
			if err != nil {
				return nil, err
			}
			if ok {
				matched = append(matched, row)
			}
		}
	}

	if len(q.OrderBy) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, o := range q.OrderBy {
				c := compareValues(matched[i][o.Field], matched[j][o.Field])
				if c == 0 {
					continue
				}
				if o.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}

	total := int64(len(matched))
	start, end := 0, len(matched)
	if q.Limit > 0 {
		start = min(q.Offset, len(matched))
		end = min(start+q.Limit, len(matched))
	}

	rows := make([]map[string]any, 0, end-start)
	for _, row := range matched[start:end] {
		rows = append(rows, copyRow(row, q.Table.Columns))
	}
	return &FindResult{Rows: rows, Total: total}, nil
}

func (m *MemoryStore) Get(_ context.Context, t Table, id any) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, row := m.lookup(t, id)
	if row == nil {
		return nil, ErrNotFound
	}
	return copyRow(row, t.Columns), nil
}

func (m *MemoryStore) Insert(_ context.Context, t Table, values map[string]any) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tbl := m.table(t.Name)
	row := copyRow(values, nil)
	if row[t.Key] == nil {
		tbl.nextID++
		row[t.Key] = tbl.nextID
	} else if _, existing := m.lookup(t, row[t.Key]); existing != nil {
		return nil, fmt.Errorf("insert %s: %w", t.Name, ErrUniqueViolation)
	}
	tbl.rows = append(tbl.rows, row)
	return copyRow(row, t.Columns), nil
}

func (m *MemoryStore) Update(_ context.Context, t Table, id any, cond Predicate, values map[string]any) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, row := m.lookup(t, id)
	if row == nil {
		return nil, ErrNotFound
	}
	if err := checkCond(row, cond); err != nil {
		return nil, err
	}
	for k, v := range values {
		row[k] = v
	}
	return copyRow(row, t.Columns), nil
}

func (m *MemoryStore) Delete(_ context.Context, t Table, id any, cond Predicate) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i, row := m.lookup(t, id)
	if row == nil {
		return ErrNotFound
	}
	if err := checkCond(row, cond); err != nil {
		return err
	}
	tbl := m.tables[t.Name]
	tbl.rows = append(tbl.rows[:i], tbl.rows[i+1:]...)
	return nil
}

func checkCond(row map[string]any, cond Predicate) error {
	ok, err := matches(row, cond)
	if err != nil {
		return err
	}
	if !ok {
		return ErrStale
	}
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() {}

// lookup must be called with the lock held.
func (m *MemoryStore) lookup(t Table, id any) (int, map[string]any) {
	tbl, ok := m.tables[t.Name]
	if !ok {
		return -1, nil
	}
	for i, row := range tbl.rows {
		if compareValues(row[t.Key], id) == 0 {
			return i, row
		}
	}
	return -1, nil
}

func matches(row map[string]any, pred Predicate) (bool, error) {
	for _, clause := range pred {
		if len(clause.AnyOf) == 0 {
			continue
		}
		hit := false
		for _, c := range clause.AnyOf {
			ok, err := matchCondition(row[c.Field], c)
			if err != nil {
				return false, err
			}
			if ok {
				hit = true
				break
			}
		}
		if !hit {
			return false, nil
		}
	}
	return true, nil
}

func matchCondition(v any, c Condition) (bool, error) {
	if v == nil {
		return false, nil
	}
	switch c.Op {
	case OpEq:
		return compareValues(v, c.Value) == 0, nil
	case OpGte:
		return compareValues(v, c.Value) >= 0, nil
	case OpLte:
		return compareValues(v, c.Value) <= 0, nil
	case OpContains:
		return strings.Contains(strings.ToLower(fmt.Sprint(v)), strings.ToLower(fmt.Sprint(c.Value))), nil
	default:
		return false, fmt.Errorf("unsupported operator %q on %s", c.Op, c.Field)
	}
}

// compareValues orders nil first, then numbers, times and booleans by value,
// and everything else by its string form.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	if x, ok := toFloat(a); ok {
		if y, ok := toFloat(b); ok {
			return cmpOrdered(x, y)
		}
	}
	if x, ok := toTime(a); ok {
		if y, ok := toTime(b); ok {
			return x.Compare(y)
		}
	}
	if x, ok := a.(bool); ok {
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func cmpOrdered(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), n == float64(int64(n))
	}
	return 0, false
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.DateTime, time.DateOnly} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

func copyRow(row map[string]any, columns []string) map[string]any {
	if len(columns) == 0 {
		out := make(map[string]any, len(row))
		for k, v := range row {
			out[k] = v
		}
		return out
	}
	out := make(map[string]any, len(columns))
	for _, col := range columns {
		out[col] = row[col]
	}
	return out
}

var _ RecordStore = (*MemoryStore)(nil)
