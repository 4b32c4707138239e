package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUniqueViolation = errors.New("unique constraint violation")
	ErrConflict        = errors.New("conflicting reference")
	// ErrStale is returned by a conditional write when the row exists but no
	// longer satisfies the condition.
	ErrStale = errors.New("record changed since it was read")
)

// Op is a comparison understood by every RecordStore implementation.
type Op string

const (
	OpEq       Op = "eq"
	OpContains Op = "contains" // case-insensitive substring
	OpGte      Op = "gte"
	OpLte      Op = "lte"
)

// Condition compares one column against a value.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Clause is a disjunction of conditions. A clause with a single condition is
// a plain comparison.
type Clause struct {
	AnyOf []Condition
}

// Predicate is a conjunction of clauses. The empty predicate matches every row.
type Predicate []Clause

// Where builds a single-condition clause.
func Where(field string, op Op, value any) Clause {
	return Clause{AnyOf: []Condition{{Field: field, Op: op, Value: value}}}
}

// AnyOf builds an OR-group clause.
func AnyOf(conds ...Condition) Clause {
	return Clause{AnyOf: conds}
}

type Order struct {
	Field string
	Desc  bool
}

// Table names a stored table, its key column and the columns to return.
// Booleans lists columns that some drivers hand back as integers.
type Table struct {
	Name     string
	Key      string
	Columns  []string
	Booleans []string
}

// FindQuery is one page request against a table.
type FindQuery struct {
	Table   Table
	Where   Predicate
	OrderBy []Order
	Limit   int
	Offset  int
}

// FindResult holds one page of rows and the number of rows matching the
// predicate regardless of the window.
type FindResult struct {
	Rows  []map[string]any
	Total int64
}

// RecordStore is the narrow storage contract the entity engine depends on:
// filtered, ordered, windowed reads with an exact count, plus single-row
// writes that hand back the row as stored.
//
// Update and Delete take an optional condition that the row must still
// satisfy when the write lands. A nil condition writes unconditionally.
// A row that exists but fails the condition yields ErrStale.
type RecordStore interface {
	Find(ctx context.Context, q FindQuery) (*FindResult, error)
	Get(ctx context.Context, t Table, id any) (map[string]any, error)
	Insert(ctx context.Context, t Table, values map[string]any) (map[string]any, error)
	Update(ctx context.Context, t Table, id any, cond Predicate, values map[string]any) (map[string]any, error)
	Delete(ctx context.Context, t Table, id any, cond Predicate) error
	Ping(ctx context.Context) error
	Close()
}
