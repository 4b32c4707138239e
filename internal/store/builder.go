package store

import (
	"fmt"
	"strings"
)

// Statement is a rendered SQL string and its positional parameters.
type Statement struct {
	SQL    string
	Params []any
}

// BuildFind renders the windowed SELECT for q. Identifiers are taken from
// entity descriptors, which are validated at registry load; only values
// travel as parameters.
func BuildFind(d Dialect, q FindQuery) (Statement, error) {
	pb := d.NewParamBuilder()

	where, err := buildWhere(d, q.Where, pb)
	if err != nil {
		return Statement{}, err
	}

	sql := fmt.Sprintf("SELECT %s FROM %s", selectList(q.Table), q.Table.Name)
	if where != "" {
		sql += " WHERE " + where
	}

	if len(q.OrderBy) > 0 {
		parts := make([]string, 0, len(q.OrderBy))
		for _, o := range q.OrderBy {
			dir := "ASC"
			if o.Desc {
				dir = "DESC"
			}
			parts = append(parts, o.Field+" "+dir)
		}
		sql += " ORDER BY " + strings.Join(parts, ", ")
	}

	if q.Limit > 0 {
		limit := pb.Add(q.Limit)
		offset := pb.Add(q.Offset)
		sql += fmt.Sprintf(" LIMIT %s OFFSET %s", limit, offset)
	}

	return Statement{SQL: sql, Params: pb.Params()}, nil
}

// BuildCount renders the COUNT(*) over the same predicate as BuildFind.
func BuildCount(d Dialect, q FindQuery) (Statement, error) {
	pb := d.NewParamBuilder()

	where, err := buildWhere(d, q.Where, pb)
	if err != nil {
		return Statement{}, err
	}

	sql := fmt.Sprintf("SELECT COUNT(*) FROM %s", q.Table.Name)
	if where != "" {
		sql += " WHERE " + where
	}
	return Statement{SQL: sql, Params: pb.Params()}, nil
}

func buildWhere(d Dialect, pred Predicate, pb ParamBuilder) (string, error) {
	var clauses []string
	for _, clause := range pred {
		if len(clause.AnyOf) == 0 {
			continue
		}
		parts := make([]string, 0, len(clause.AnyOf))
		for _, c := range clause.AnyOf {
			cond, err := buildCondition(d, c, pb)
			if err != nil {
				return "", err
			}
			parts = append(parts, cond)
		}
		if len(parts) == 1 {
			clauses = append(clauses, parts[0])
			continue
		}
		clauses = append(clauses, "("+strings.Join(parts, " OR ")+")")
	}
	return strings.Join(clauses, " AND "), nil
}

func buildCondition(d Dialect, c Condition, pb ParamBuilder) (string, error) {
	switch c.Op {
	case OpEq:
		return fmt.Sprintf("%s = %s", c.Field, pb.Add(c.Value)), nil
	case OpGte:
		return fmt.Sprintf("%s >= %s", c.Field, pb.Add(c.Value)), nil
	case OpLte:
		return fmt.Sprintf("%s <= %s", c.Field, pb.Add(c.Value)), nil
	case OpContains:
		pattern := "%" + EscapeLike(fmt.Sprint(c.Value)) + "%"
		return d.ContainsExpr(c.Field, pb.Add(pattern)), nil
	default:
		return "", fmt.Errorf("unsupported operator %q on %s", c.Op, c.Field)
	}
}

// EscapeLike escapes the LIKE wildcards in s so it matches literally.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func selectList(t Table) string {
	if len(t.Columns) == 0 {
		return "*"
	}
	return strings.Join(t.Columns, ", ")
}

func buildInsert(d Dialect, t Table, values map[string]any) Statement {
	pb := d.NewParamBuilder()
	cols := sortedKeys(values)
	phs := make([]string, len(cols))
	for i, col := range cols {
		phs[i] = pb.Add(values[col])
	}
	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING %s",
		t.Name, strings.Join(cols, ", "), strings.Join(phs, ", "), selectList(t))
	if len(cols) == 0 {
		sql = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES RETURNING %s", t.Name, selectList(t))
	}
	return Statement{SQL: sql, Params: pb.Params()}
}

func buildUpdate(d Dialect, t Table, id any, cond Predicate, values map[string]any) (Statement, error) {
	pb := d.NewParamBuilder()
	cols := sortedKeys(values)
	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = fmt.Sprintf("%s = %s", col, pb.Add(values[col]))
	}
	where, err := keyedWhere(d, t, id, cond, pb)
	if err != nil {
		return Statement{}, err
	}
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s RETURNING %s",
		t.Name, strings.Join(sets, ", "), where, selectList(t))
	return Statement{SQL: sql, Params: pb.Params()}, nil
}

func buildDelete(d Dialect, t Table, id any, cond Predicate) (Statement, error) {
	pb := d.NewParamBuilder()
	where, err := keyedWhere(d, t, id, cond, pb)
	if err != nil {
		return Statement{}, err
	}
	return Statement{SQL: fmt.Sprintf("DELETE FROM %s WHERE %s", t.Name, where), Params: pb.Params()}, nil
}

// keyedWhere matches the row by key and, when given, the write condition.
func keyedWhere(d Dialect, t Table, id any, cond Predicate, pb ParamBuilder) (string, error) {
	where := fmt.Sprintf("%s = %s", t.Key, pb.Add(id))
	extra, err := buildWhere(d, cond, pb)
	if err != nil {
		return "", err
	}
	if extra != "" {
		where += " AND " + extra
	}
	return where, nil
}
