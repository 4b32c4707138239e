package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"accelerator-admin/internal/metadata"
	"accelerator-admin/internal/store"
)

// ResultPage is one fetched page of a listing. Rows never outnumber Limit.
type ResultPage struct {
	Rows       []map[string]any
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// NewResultPage derives TotalPages as ceil(total/limit).
func NewResultPage(rows []map[string]any, total int64, w Window) *ResultPage {
	if rows == nil {
		rows = []map[string]any{}
	}
	return &ResultPage{
		Rows:       rows,
		Total:      total,
		Page:       w.Page,
		Limit:      w.Limit,
		TotalPages: TotalPages(total, w.Limit),
	}
}

func TotalPages(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// TransitionResult is the outcome of a single applied action.
type TransitionResult struct {
	ID     string
	State  string
	Record map[string]any
}

// Locator hands out the generic service for a registered entity.
type Locator struct {
	registry *metadata.Registry
	store    store.RecordStore
	log      *zap.Logger
	now      func() time.Time
}

func NewLocator(reg *metadata.Registry, rs store.RecordStore, log *zap.Logger) *Locator {
	return &Locator{registry: reg, store: rs, log: log, now: time.Now}
}

// Service returns the operations for the named entity.
func (l *Locator) Service(name string) (*Service, error) {
	entity := l.registry.GetEntity(name)
	if entity == nil {
		return nil, UnknownEntityError(name)
	}
	return &Service{
		entity: entity,
		store:  l.store,
		log:    l.log.With(zap.String("entity", entity.Name)),
		now:    l.now,
	}, nil
}

// Service implements list, CRUD and transitions for one entity, driven only
// by its descriptor.
type Service struct {
	entity *metadata.Entity
	store  store.RecordStore
	log    *zap.Logger
	now    func() time.Time
}

func (s *Service) Entity() *metadata.Entity {
	return s.entity
}

func (s *Service) table() store.Table {
	var bools []string
	for _, f := range s.entity.Fields {
		if f.Type == "boolean" {
			bools = append(bools, f.Name)
		}
	}
	return store.Table{
		Name:     s.entity.Table,
		Key:      s.entity.PrimaryKey.Field,
		Columns:  s.entity.FieldNames(),
		Booleans: bools,
	}
}

// List fetches one window of rows matching fs along with the exact total.
func (s *Service) List(ctx context.Context, fs FilterSet, w Window) (*ResultPage, error) {
	res, err := s.store.Find(ctx, store.FindQuery{
		Table:   s.table(),
		Where:   CompileFilters(fs, s.entity),
		OrderBy: CompileOrder(fs, s.entity),
		Limit:   w.Limit,
		Offset:  w.Offset,
	})
	if err != nil {
		return nil, s.storeFailure("list", "", err)
	}
	return NewResultPage(res.Rows, res.Total, w), nil
}

func (s *Service) GetByID(ctx context.Context, id string) (map[string]any, error) {
	key, ok := s.parseKey(id)
	if !ok {
		return nil, NotFoundError(s.entity.Name, id)
	}
	row, err := s.store.Get(ctx, s.table(), key)
	if err != nil {
		return nil, s.storeFailure("get", id, err)
	}
	return row, nil
}

func (s *Service) Create(ctx context.Context, data map[string]any) (map[string]any, error) {
	values, appErr := s.planWrite(data, s.entity.WritableFields(), true)
	if appErr != nil {
		return nil, appErr
	}

	pk := s.entity.PrimaryKey
	if pk.Generated && pk.Type == "uuid" {
		values[pk.Field] = uuid.NewString()
	}
	now := s.now().UTC()
	for _, name := range s.entity.AutoFields("create") {
		values[name] = now
	}

	row, err := s.store.Insert(ctx, s.table(), values)
	if err != nil {
		return nil, s.storeFailure("create", "", err)
	}
	return row, nil
}

func (s *Service) Update(ctx context.Context, id string, data map[string]any) (map[string]any, error) {
	key, ok := s.parseKey(id)
	if !ok {
		return nil, NotFoundError(s.entity.Name, id)
	}
	values, appErr := s.planWrite(data, s.entity.UpdatableFields(), false)
	if appErr != nil {
		return nil, appErr
	}
	if len(values) == 0 {
		return nil, ValidationError("No updatable fields in request body")
	}
	now := s.now().UTC()
	for _, name := range s.entity.AutoFields("update") {
		values[name] = now
	}

	row, err := s.store.Update(ctx, s.table(), key, nil, values)
	if err != nil {
		return nil, s.storeFailure("update", id, err)
	}
	return row, nil
}

// Remove deletes the record and returns its id.
func (s *Service) Remove(ctx context.Context, id string) (string, error) {
	key, ok := s.parseKey(id)
	if !ok {
		return "", NotFoundError(s.entity.Name, id)
	}
	if err := s.store.Delete(ctx, s.table(), key, nil); err != nil {
		return "", s.storeFailure("delete", id, err)
	}
	return id, nil
}

// Transition applies a named action to one record. The action's field is
// set to its target state in a single-row update; delete actions remove the
// row instead. Declared source states and guards are checked against the
// current record first, and the write only lands if the state is still the
// one that was checked.
func (s *Service) Transition(ctx context.Context, id, actionName string) (*TransitionResult, error) {
	action := s.entity.GetAction(actionName)
	if action == nil {
		return nil, InvalidActionError(s.entity.Name, actionName)
	}
	key, ok := s.parseKey(id)
	if !ok {
		return nil, NotFoundError(s.entity.Name, id)
	}

	var current map[string]any
	var cond store.Predicate
	if action.NeedsCurrent() {
		row, err := s.store.Get(ctx, s.table(), key)
		if err != nil {
			return nil, s.storeFailure(actionName, id, err)
		}
		if err := checkTransition(action, row); err != nil {
			return nil, err
		}
		current = row
		cond = stateCondition(action, row)
	}

	if action.Delete {
		if err := s.store.Delete(ctx, s.table(), key, cond); err != nil {
			return nil, s.storeFailure(actionName, id, err)
		}
		if current == nil {
			current = map[string]any{s.entity.PrimaryKey.Field: key}
		}
		return &TransitionResult{ID: id, State: action.ResultingState(), Record: current}, nil
	}

	field := s.entity.GetField(action.Field)
	target, err := coerceWrite(*field, action.To)
	if err != nil {
		return nil, ValidationError(fmt.Sprintf("action %s: %v", actionName, err))
	}
	values := map[string]any{field.Name: target}
	now := s.now().UTC()
	if action.Stamp != "" {
		values[action.Stamp] = now
	}
	for _, name := range s.entity.AutoFields("update") {
		values[name] = now
	}

	row, err := s.store.Update(ctx, s.table(), key, cond, values)
	if err != nil {
		return nil, s.storeFailure(actionName, id, err)
	}
	return &TransitionResult{ID: id, State: action.ResultingState(), Record: row}, nil
}

// stateCondition pins the write to the state the checks ran against. A
// record with no state falls back to the declared source states.
func stateCondition(action *metadata.Action, record map[string]any) store.Predicate {
	if action.Field == "" {
		return nil
	}
	if v := record[action.Field]; v != nil {
		return store.Predicate{store.Where(action.Field, store.OpEq, v)}
	}
	if len(action.From) == 0 {
		return nil
	}
	conds := make([]store.Condition, 0, len(action.From))
	for _, from := range action.From {
		conds = append(conds, store.Condition{Field: action.Field, Op: store.OpEq, Value: from})
	}
	return store.Predicate{store.AnyOf(conds...)}
}

// checkTransition enforces the action's source states and guard.
func checkTransition(action *metadata.Action, record map[string]any) *AppError {
	if len(action.From) > 0 {
		state := stateOf(record[action.Field])
		if !action.From.Allows(state) {
			return ConflictError(fmt.Sprintf("cannot %s a record in state %q", action.Name, state))
		}
	}
	if action.Guard != "" {
		blocked, err := EvaluateGuard(action, map[string]any{"record": record})
		if err != nil {
			return ConflictError(fmt.Sprintf("cannot %s: %v", action.Name, err))
		}
		if blocked {
			return ConflictError(fmt.Sprintf("cannot %s: guard %q not satisfied", action.Name, action.Guard))
		}
	}
	return nil
}

func stateOf(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// planWrite validates a request body against the writable fields and
// converts each value to its column type.
func (s *Service) planWrite(data map[string]any, allowed []metadata.Field, isCreate bool) (map[string]any, *AppError) {
	byName := make(map[string]metadata.Field, len(allowed))
	for _, f := range allowed {
		byName[f.Name] = f
	}

	values := make(map[string]any, len(data))
	var details []ErrorDetail
	for _, name := range sortedKeys(data) {
		f, ok := byName[name]
		if !ok {
			details = append(details, ErrorDetail{Field: name, Rule: "unknown", Message: "field is not writable"})
			continue
		}
		v, err := coerceWrite(f, data[name])
		if err != nil {
			details = append(details, ErrorDetail{Field: name, Rule: "type", Message: err.Error()})
			continue
		}
		values[name] = v
	}

	if isCreate {
		for _, f := range allowed {
			if f.Required && values[f.Name] == nil && !hasDetail(details, f.Name) {
				details = append(details, ErrorDetail{Field: f.Name, Rule: "required", Message: "field is required"})
			}
		}
	}

	if len(details) > 0 {
		return nil, ValidationError("Validation failed", details...)
	}
	return values, nil
}

func hasDetail(details []ErrorDetail, field string) bool {
	for _, d := range details {
		if d.Field == field {
			return true
		}
	}
	return false
}

// parseKey converts a path id to the primary key's type. An id that cannot
// be of that type cannot match a row.
func (s *Service) parseKey(id string) (any, bool) {
	switch s.entity.PrimaryKey.Type {
	case "int", "bigint":
		return parseIntKey(id)
	case "uuid":
		u, err := uuid.Parse(id)
		if err != nil {
			return nil, false
		}
		return u.String(), true
	default:
		return id, id != ""
	}
}

// storeFailure translates store sentinels into the error taxonomy and logs
// anything else before reporting it as a store error.
func (s *Service) storeFailure(op, id string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return NotFoundError(s.entity.Name, id)
	case errors.Is(err, store.ErrUniqueViolation):
		return ConflictError("A record with this value already exists")
	case errors.Is(err, store.ErrConflict):
		return ConflictError("The record is referenced by other records")
	case errors.Is(err, store.ErrStale):
		return ConflictError(fmt.Sprintf("cannot %s: the record changed while the action was applied", op))
	}
	s.log.Error("record store call failed",
		zap.String("op", op),
		zap.String("id", id),
		zap.Error(err),
	)
	return StoreError(op+" "+s.entity.Name, err)
}
