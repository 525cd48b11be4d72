// Package selection carries "which activity is waiting for a place" from the
// itinerary editor to the recommender and writes the chosen place back.
package selection

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-roteiro-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-roteiro-planner/internal/api/draft"
	"github.com/FACorreiaa/go-roteiro-planner/internal/types"
)

// Query parameters that keep the token in the recommender URL.
const (
	ParamScheduleItemID = "scheduleItemId"
	ParamDraftID        = "draft"
)

// Routes are the client locations the bridge navigates between.
type Routes struct {
	Editor      string
	Recommender string
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Begin(ctx context.Context, session string, activityID int64) (types.SelectionToken, string, error)
	Complete(ctx context.Context, session string, token types.SelectionToken, placeID int64) (types.NavigationResponse, error)
}

type ServiceImpl struct {
	logger *slog.Logger
	drafts draft.Service
	routes Routes
}

func NewServiceImpl(drafts draft.Service, routes Routes, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		drafts: drafts,
		routes: routes,
	}
}

// RecommenderURL encodes the token as durable query parameters.
func (s *ServiceImpl) RecommenderURL(token types.SelectionToken) string {
	q := url.Values{}
	q.Set(ParamScheduleItemID, strconv.FormatInt(token.ActivityID, 10))
	if token.DraftID != uuid.Nil {
		q.Set(ParamDraftID, token.DraftID.String())
	}
	return s.routes.Recommender + "?" + q.Encode()
}

// Begin issues a token for an activity of the current draft.
func (s *ServiceImpl) Begin(ctx context.Context, session string, activityID int64) (types.SelectionToken, string, error) {
	ctx, span := otel.Tracer("SelectionService").Start(ctx, "Begin", trace.WithAttributes(
		attribute.String("session", session),
		attribute.Int64("activity.id", activityID),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "Begin"), slog.String("session", session))

	d, err := s.drafts.Load(ctx, session)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load draft")
		return types.SelectionToken{}, "", err
	}
	if d.ActivityIndex(activityID) < 0 {
		l.WarnContext(ctx, "Selection requested for unknown activity", slog.Int64("activityID", activityID))
		span.SetStatus(codes.Error, "Activity not found")
		return types.SelectionToken{}, "", fmt.Errorf("activity %d: %w", activityID, types.ErrNotFound)
	}

	token := types.SelectionToken{ActivityID: activityID, DraftID: d.ID}
	next := s.RecommenderURL(token)
	l.DebugContext(ctx, "Selection started", slog.String("next", next))
	return token, next, nil
}

// Complete merges the chosen place into the activity named by token. A token
// for another draft or a vanished activity changes nothing; the editor is the
// next location in every case except a storage failure.
func (s *ServiceImpl) Complete(ctx context.Context, session string, token types.SelectionToken, placeID int64) (types.NavigationResponse, error) {
	ctx, span := otel.Tracer("SelectionService").Start(ctx, "Complete", trace.WithAttributes(
		attribute.String("session", session),
		attribute.Int64("activity.id", token.ActivityID),
		attribute.Int64("place.id", placeID),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "Complete"), slog.String("session", session))

	if placeID <= 0 {
		span.SetStatus(codes.Error, "Invalid place id")
		return types.NavigationResponse{}, types.NewValidationError("place_id", "Choose a place from the list to continue.")
	}

	_, applied, err := s.drafts.SetActivityPlace(ctx, session, token.ActivityID, placeID, draft.IfDraft(token.DraftID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to apply selection")
		return types.NavigationResponse{}, err
	}

	outcome := "applied"
	if !applied {
		outcome = "ignored"
		l.InfoContext(ctx, "Selection ignored, token is stale or activity is gone",
			slog.Int64("activityID", token.ActivityID),
			slog.String("draftID", token.DraftID.String()))
	}
	metrics.Get().SelectionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	span.SetAttributes(attribute.Bool("selection.applied", applied))

	return types.NavigationResponse{Next: s.routes.Editor, Applied: applied}, nil
}

// TokenFromQuery reads a token from recommender query parameters. ok is false
// in browsing mode, when no activity is waiting for a place.
func TokenFromQuery(q url.Values) (types.SelectionToken, bool) {
	raw := q.Get(ParamScheduleItemID)
	if raw == "" {
		return types.SelectionToken{}, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return types.SelectionToken{}, false
	}
	token := types.SelectionToken{ActivityID: id}
	if rawDraft := q.Get(ParamDraftID); rawDraft != "" {
		draftID, err := uuid.Parse(rawDraft)
		if err != nil {
			return types.SelectionToken{}, false
		}
		token.DraftID = draftID
	}
	return token, true
}
