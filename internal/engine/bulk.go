package engine

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"accelerator-admin/internal/metadata"
)

// BulkRequest is the body of POST /api/:entity/bulk-action.
type BulkRequest struct {
	Action string     `json:"action" validate:"required"`
	IDs    []RecordID `json:"ids" validate:"required,min=1,dive,required"`
}

type BulkSuccess struct {
	ID             RecordID       `json:"id"`
	ResultingState string         `json:"resultingState"`
	Record         map[string]any `json:"record,omitempty"`
}

type BulkFailure struct {
	ID    RecordID `json:"id"`
	Error string   `json:"error"`
	Code  string   `json:"code"`
}

// BulkOutcome separates the ids an action was applied to from those it
// failed on. Every requested id lands in exactly one of the two lists, in
// request order.
type BulkOutcome struct {
	Succeeded []BulkSuccess
	Failed    []BulkFailure
}

type BulkSummary struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type BulkResponse struct {
	Results []BulkSuccess `json:"results"`
	Errors  []BulkFailure `json:"errors"`
	Summary BulkSummary   `json:"summary"`
}

func (o *BulkOutcome) Summary() BulkSummary {
	return BulkSummary{
		Total:     len(o.Succeeded) + len(o.Failed),
		Succeeded: len(o.Succeeded),
		Failed:    len(o.Failed),
	}
}

// Transitioner applies a named action to one record.
type Transitioner interface {
	Entity() *metadata.Entity
	Transition(ctx context.Context, id, action string) (*TransitionResult, error)
}

// BulkObserver is told the outcome of every bulk item.
type BulkObserver interface {
	BulkItem(entity, action string, ok bool)
}

// BulkExecutor applies one action to many ids. Items are independent: a
// failed id is recorded and the rest still run. Applied items are never
// rolled back.
type BulkExecutor struct {
	concurrency int
	validate    *validator.Validate
	observer    BulkObserver
	log         *zap.Logger
}

func NewBulkExecutor(concurrency int, observer BulkObserver, log *zap.Logger) *BulkExecutor {
	if concurrency < 1 {
		concurrency = 1
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return &BulkExecutor{concurrency: concurrency, validate: v, observer: observer, log: log}
}

// Validate checks the request shape and the action name without touching
// the record store.
func (b *BulkExecutor) Validate(svc Transitioner, req BulkRequest) error {
	if err := b.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return ValidationError(err.Error())
		}
		details := make([]ErrorDetail, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, ErrorDetail{
				Field:   fe.Field(),
				Rule:    fe.Tag(),
				Message: bulkFieldMessage(fe),
			})
		}
		return ValidationError(details[0].Message, details...)
	}
	entity := svc.Entity()
	if entity.GetAction(req.Action) == nil {
		return InvalidActionError(entity.Name, req.Action)
	}
	return nil
}

func bulkFieldMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "action":
		return "action is required"
	case "ids":
		return "ids must be a non-empty array"
	}
	return "ids must not contain blank entries"
}

// Execute validates req and then transitions every id, at most
// concurrency at a time. Cancelling ctx does not stop items already
// dispatched; every outcome is collected before returning.
func (b *BulkExecutor) Execute(ctx context.Context, svc Transitioner, req BulkRequest) (*BulkOutcome, error) {
	if err := b.Validate(svc, req); err != nil {
		return nil, err
	}

	entity := svc.Entity().Name
	ctx = context.WithoutCancel(ctx)

	type result struct {
		res *TransitionResult
		err error
	}
	results := make([]result, len(req.IDs))

	var g errgroup.Group
	g.SetLimit(b.concurrency)
	for i, id := range req.IDs {
		g.Go(func() error {
			res, err := svc.Transition(ctx, id.String(), req.Action)
			results[i] = result{res: res, err: err}
			return nil
		})
	}
	_ = g.Wait()

	out := &BulkOutcome{Succeeded: []BulkSuccess{}, Failed: []BulkFailure{}}
	for i, r := range results {
		id := req.IDs[i]
		if r.err != nil {
			appErr := AsAppError(r.err)
			out.Failed = append(out.Failed, BulkFailure{ID: id, Error: appErr.Message, Code: appErr.Code})
			b.observe(entity, req.Action, false)
			continue
		}
		out.Succeeded = append(out.Succeeded, BulkSuccess{ID: id, ResultingState: r.res.State, Record: r.res.Record})
		b.observe(entity, req.Action, true)
	}

	b.log.Info("bulk action applied",
		zap.String("entity", entity),
		zap.String("action", req.Action),
		zap.Int("succeeded", len(out.Succeeded)),
		zap.Int("failed", len(out.Failed)),
	)
	return out, nil
}

func (b *BulkExecutor) observe(entity, action string, ok bool) {
	if b.observer != nil {
		b.observer.BulkItem(entity, action, ok)
	}
}
