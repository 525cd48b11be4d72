package draft

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-roteiro-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-roteiro-planner/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service edits the draft of one session. Every mutation loads the whole
// draft, applies one change and saves it back.
type Service interface {
	Load(ctx context.Context, session string) (types.Draft, error)
	SetTitle(ctx context.Context, session, title string) (types.Draft, error)
	SetDate(ctx context.Context, session, date string) (types.Draft, error)
	AddActivity(ctx context.Context, session string) (types.Draft, int64, error)
	UpdateActivityField(ctx context.Context, session string, activityID int64, field types.ActivityField, value string) (types.Draft, bool, error)
	SetActivityPlace(ctx context.Context, session string, activityID, placeID int64, opts ...MutationOption) (types.Draft, bool, error)
	RemoveActivity(ctx context.Context, session string, activityID int64) (types.Draft, bool, error)
	Discard(ctx context.Context, session string) error
}

// MutationOption adds a precondition to a mutation.
type MutationOption func(*mutation)

type mutation struct {
	draftID uuid.UUID
}

// IfDraft makes the mutation a no-op unless the current draft has the given id.
// uuid.Nil matches any draft.
func IfDraft(id uuid.UUID) MutationOption {
	return func(m *mutation) { m.draftID = id }
}

type ServiceImpl struct {
	logger *slog.Logger
	store  Store
	ids    IDGenerator
	locks  *sessionLocks
}

func NewServiceImpl(store Store, ids IDGenerator, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		store:  store,
		ids:    ids,
		locks:  newSessionLocks(),
	}
}

func (s *ServiceImpl) Load(ctx context.Context, session string) (types.Draft, error) {
	ctx, span := otel.Tracer("DraftService").Start(ctx, "Load", trace.WithAttributes(
		attribute.String("session", session),
	))
	defer span.End()

	unlock := s.locks.lock(session)
	defer unlock()

	d, err := s.load(ctx, session)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to load draft", slog.String("session", session), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load draft")
		return types.Draft{}, err
	}
	span.SetAttributes(attribute.Int("draft.activities", len(d.Activities)))
	return d, nil
}

func (s *ServiceImpl) SetTitle(ctx context.Context, session, title string) (types.Draft, error) {
	d, _, err := s.mutate(ctx, session, "SetTitle", func(d *types.Draft) bool {
		d.Title = title
		return true
	})
	return d, err
}

func (s *ServiceImpl) SetDate(ctx context.Context, session, date string) (types.Draft, error) {
	d, _, err := s.mutate(ctx, session, "SetDate", func(d *types.Draft) bool {
		d.Date = date
		return true
	})
	return d, err
}

// AddActivity appends a blank activity and returns its id.
func (s *ServiceImpl) AddActivity(ctx context.Context, session string) (types.Draft, int64, error) {
	var id int64
	d, _, err := s.mutate(ctx, session, "AddActivity", func(d *types.Draft) bool {
		id = s.ids.Next()
		for d.ActivityIndex(id) >= 0 {
			id = s.ids.Next()
		}
		d.Activities = append(d.Activities, types.Activity{ID: id})
		return true
	})
	if err != nil {
		return types.Draft{}, 0, err
	}
	return d, id, nil
}

// UpdateActivityField is a no-op when the activity does not exist.
func (s *ServiceImpl) UpdateActivityField(ctx context.Context, session string, activityID int64, field types.ActivityField, value string) (types.Draft, bool, error) {
	return s.mutate(ctx, session, "UpdateActivityField", func(d *types.Draft) bool {
		i := d.ActivityIndex(activityID)
		if i < 0 {
			return false
		}
		d.Activities[i].Set(field, value)
		return true
	})
}

// SetActivityPlace attaches a place to exactly one activity. It is a no-op
// when the activity does not exist or a precondition fails.
func (s *ServiceImpl) SetActivityPlace(ctx context.Context, session string, activityID, placeID int64, opts ...MutationOption) (types.Draft, bool, error) {
	var m mutation
	for _, opt := range opts {
		opt(&m)
	}
	return s.mutate(ctx, session, "SetActivityPlace", func(d *types.Draft) bool {
		if m.draftID != uuid.Nil && d.ID != m.draftID {
			return false
		}
		i := d.ActivityIndex(activityID)
		if i < 0 {
			return false
		}
		p := placeID
		d.Activities[i].PlaceID = &p
		return true
	})
}

func (s *ServiceImpl) RemoveActivity(ctx context.Context, session string, activityID int64) (types.Draft, bool, error) {
	return s.mutate(ctx, session, "RemoveActivity", func(d *types.Draft) bool {
		i := d.ActivityIndex(activityID)
		if i < 0 {
			return false
		}
		d.Activities = append(d.Activities[:i], d.Activities[i+1:]...)
		return true
	})
}

// Discard deletes the session's draft.
func (s *ServiceImpl) Discard(ctx context.Context, session string) error {
	ctx, span := otel.Tracer("DraftService").Start(ctx, "Discard", trace.WithAttributes(
		attribute.String("session", session),
	))
	defer span.End()

	unlock := s.locks.lock(session)
	defer unlock()

	if err := s.store.Clear(ctx, session); err != nil {
		s.logger.ErrorContext(ctx, "Failed to discard draft", slog.String("session", session), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to discard draft")
		return err
	}
	s.logger.InfoContext(ctx, "Draft discarded", slog.String("session", session))
	return nil
}

// load reads the draft and gives a record stored without an id a permanent
// one, so selection tokens issued against it stay valid. Callers hold the
// session lock.
func (s *ServiceImpl) load(ctx context.Context, session string) (types.Draft, error) {
	d, err := s.store.Load(ctx, session)
	if err != nil {
		return types.Draft{}, err
	}
	if d.ID != uuid.Nil {
		return d, nil
	}
	d.ID = uuid.New()
	if err := s.store.Save(ctx, session, d); err != nil {
		return types.Draft{}, fmt.Errorf("failed to assign draft id: %w", err)
	}
	s.logger.InfoContext(ctx, "Assigned id to stored draft",
		slog.String("session", session), slog.String("draftID", d.ID.String()))
	return d, nil
}

// mutate runs apply on a copy of the current draft and saves the copy when
// apply reports a change.
func (s *ServiceImpl) mutate(ctx context.Context, session, op string, apply func(*types.Draft) bool) (types.Draft, bool, error) {
	ctx, span := otel.Tracer("DraftService").Start(ctx, op, trace.WithAttributes(
		attribute.String("session", session),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", op), slog.String("session", session))

	unlock := s.locks.lock(session)
	defer unlock()

	current, err := s.load(ctx, session)
	if err != nil {
		l.ErrorContext(ctx, "Failed to load draft", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load draft")
		return types.Draft{}, false, err
	}

	next := current.Clone()
	if !apply(&next) {
		l.InfoContext(ctx, "Draft mutation skipped, target not found")
		span.SetAttributes(attribute.Bool("draft.changed", false))
		return current, false, nil
	}

	if err := s.store.Save(ctx, session, next); err != nil {
		l.ErrorContext(ctx, "Failed to save draft", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save draft")
		return types.Draft{}, false, fmt.Errorf("%s: %w", op, err)
	}

	metrics.Get().DraftMutationsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
	span.SetAttributes(attribute.Bool("draft.changed", true))
	l.DebugContext(ctx, "Draft saved", slog.Int("activities", len(next.Activities)))
	return next, true, nil
}
