package store

import (
	"context"
	"errors"
	"fmt"
)

// Find runs the windowed select and the matching count.
func (s *Store) Find(ctx context.Context, q FindQuery) (*FindResult, error) {
	count, err := BuildCount(s.Dialect, q)
	if err != nil {
		return nil, err
	}
	var total int64
	if err := s.DB.QueryRowContext(ctx, count.SQL, count.Params...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count %s: %w", q.Table.Name, s.Dialect.MapError(err))
	}

	sel, err := BuildFind(s.Dialect, q)
	if err != nil {
		return nil, err
	}
	rows, err := QueryRows(ctx, s.DB, sel.SQL, sel.Params...)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", q.Table.Name, s.Dialect.MapError(err))
	}
	s.fixBooleans(q.Table, rows)

	return &FindResult{Rows: rows, Total: total}, nil
}

func (s *Store) Get(ctx context.Context, t Table, id any) (map[string]any, error) {
	pb := s.Dialect.NewParamBuilder()
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s", selectList(t), t.Name, t.Key, pb.Add(id))
	row, err := QueryRow(ctx, s.DB, sql, pb.Params()...)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", t.Name, s.Dialect.MapError(err))
	}
	s.fixBooleans(t, []map[string]any{row})
	return row, nil
}

func (s *Store) Insert(ctx context.Context, t Table, values map[string]any) (map[string]any, error) {
	stmt := buildInsert(s.Dialect, t, values)
	row, err := QueryRow(ctx, s.DB, stmt.SQL, stmt.Params...)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", t.Name, s.Dialect.MapError(err))
	}
	s.fixBooleans(t, []map[string]any{row})
	return row, nil
}

func (s *Store) Update(ctx context.Context, t Table, id any, cond Predicate, values map[string]any) (map[string]any, error) {
	if len(values) == 0 {
		return s.Get(ctx, t, id)
	}
	stmt, err := buildUpdate(s.Dialect, t, id, cond, values)
	if err != nil {
		return nil, err
	}
	row, err := QueryRow(ctx, s.DB, stmt.SQL, stmt.Params...)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, s.missed(ctx, t, id, cond)
		}
		return nil, fmt.Errorf("update %s: %w", t.Name, s.Dialect.MapError(err))
	}
	s.fixBooleans(t, []map[string]any{row})
	return row, nil
}

func (s *Store) Delete(ctx context.Context, t Table, id any, cond Predicate) error {
	stmt, err := buildDelete(s.Dialect, t, id, cond)
	if err != nil {
		return err
	}
	n, err := Exec(ctx, s.DB, stmt.SQL, stmt.Params...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", t.Name, s.Dialect.MapError(err))
	}
	if n == 0 {
		return s.missed(ctx, t, id, cond)
	}
	return nil
}

// missed tells a vanished row from one that failed the write condition.
func (s *Store) missed(ctx context.Context, t Table, id any, cond Predicate) error {
	if len(cond) == 0 {
		return ErrNotFound
	}
	if _, err := s.Get(ctx, t, id); err != nil {
		return err
	}
	return ErrStale
}

func (s *Store) fixBooleans(t Table, rows []map[string]any) {
	if s.Dialect.NeedsBoolFix() {
		NormalizeBooleans(rows, t.Booleans)
	}
}

var _ RecordStore = (*Store)(nil)
