package engine

import (
	"accelerator-admin/internal/metadata"
	"accelerator-admin/internal/store"
)

// CompileFilters maps a filter set onto a store predicate. Clauses follow
// the descriptor's field order with the search group last, so equal inputs
// always compile to equal predicates. Entries for fields the descriptor
// does not mark filterable, or whose kind does not match, are dropped.
func CompileFilters(fs FilterSet, entity *metadata.Entity) store.Predicate {
	var pred store.Predicate

	for _, field := range entity.FilterableFields() {
		f, ok := fs.Fields[field.Name]
		if !ok || f.Kind != field.Filter {
			continue
		}
		switch f.Kind {
		case metadata.FilterEquals, metadata.FilterBoolean:
			pred = append(pred, store.Where(field.Name, store.OpEq, f.Value))
		case metadata.FilterContains:
			pred = append(pred, store.Where(field.Name, store.OpContains, f.Value))
		case metadata.FilterRange:
			if f.From != nil {
				pred = append(pred, store.Where(field.Name, store.OpGte, f.From))
			}
			if f.To != nil {
				pred = append(pred, store.Where(field.Name, store.OpLte, f.To))
			}
		}
	}

	if fs.Search != "" && len(entity.Search) > 0 {
		conds := make([]store.Condition, 0, len(entity.Search))
		for _, name := range entity.Search {
			conds = append(conds, store.Condition{Field: name, Op: store.OpContains, Value: fs.Search})
		}
		pred = append(pred, store.AnyOf(conds...))
	}

	return pred
}

// CompileOrder returns the requested sort, or the descriptor default, with
// the primary key appended so rows on the same sort value page stably.
func CompileOrder(fs FilterSet, entity *metadata.Entity) []store.Order {
	var order []store.Order
	switch {
	case fs.Sort != nil && entity.CanSort(fs.Sort.Field):
		order = append(order, store.Order{Field: fs.Sort.Field, Desc: fs.Sort.Desc})
	case entity.DefaultSort.Field != "":
		order = append(order, store.Order{Field: entity.DefaultSort.Field, Desc: entity.DefaultSort.Desc})
	}
	pk := entity.PrimaryKey.Field
	if len(order) == 0 || order[0].Field != pk {
		order = append(order, store.Order{Field: pk})
	}
	return order
}
