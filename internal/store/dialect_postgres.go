package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresDialect implements Dialect for PostgreSQL via pgx/stdlib.
type PostgresDialect struct{}

func (d *PostgresDialect) Name() string       { return "postgres" }
func (d *PostgresDialect) DriverName() string { return "pgx" }
func (d *PostgresDialect) NeedsBoolFix() bool { return false }

func (d *PostgresDialect) NewParamBuilder() ParamBuilder {
	return &numberedParams{prefix: "$"}
}

// ContainsExpr casts to text so non-text columns can be searched too.
func (d *PostgresDialect) ContainsExpr(field, placeholder string) string {
	return fmt.Sprintf(`%s::text ILIKE %s ESCAPE '\'`, field, placeholder)
}

func (d *PostgresDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
		case pgerrcode.ForeignKeyViolation, pgerrcode.RestrictViolation:
			return fmt.Errorf("%w: %w", ErrConflict, err)
		}
		return err
	}
	// Errors that lost their type through a wrapper still carry the code text.
	errStr := err.Error()
	if strings.Contains(errStr, pgerrcode.UniqueViolation) || strings.Contains(errStr, "duplicate key") {
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	}
	return err
}

var _ Dialect = (*PostgresDialect)(nil)
