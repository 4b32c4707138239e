package store

import (
	"fmt"
	"strings"
)

// SQLiteDialect implements Dialect for SQLite via modernc.org/sqlite.
type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string       { return "sqlite" }
func (d *SQLiteDialect) DriverName() string { return "sqlite" }
func (d *SQLiteDialect) NeedsBoolFix() bool { return true }

func (d *SQLiteDialect) NewParamBuilder() ParamBuilder {
	return &numberedParams{prefix: "?"}
}

// ContainsExpr relies on LIKE being case-insensitive for ASCII in SQLite.
func (d *SQLiteDialect) ContainsExpr(field, placeholder string) string {
	return fmt.Sprintf(`CAST(%s AS TEXT) LIKE %s ESCAPE '\'`, field, placeholder)
}

func (d *SQLiteDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "UNIQUE constraint failed"), strings.Contains(errStr, "constraint failed: UNIQUE"):
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	case strings.Contains(errStr, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}

var _ Dialect = (*SQLiteDialect)(nil)
