package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-roteiro-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-roteiro-planner/internal/api"
	"github.com/FACorreiaa/go-roteiro-planner/internal/api/draft"
	"github.com/FACorreiaa/go-roteiro-planner/internal/api/geo"
	"github.com/FACorreiaa/go-roteiro-planner/internal/api/recommender"
	"github.com/FACorreiaa/go-roteiro-planner/internal/client/roteiro"
	"github.com/FACorreiaa/go-roteiro-planner/internal/types"
)

// DateLayout is the calendar date format the roteiro API accepts.
const DateLayout = "2006-01-02"

// NoLocationDirectionsNotice is shown when links cannot start at the user.
const NoLocationDirectionsNotice = "We couldn't access your location, links open each place on the map instead."

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Submit(ctx context.Context, session string) (types.CreatedSchedule, error)
	ListForUser(ctx context.Context, userID int64) ([]types.Schedule, error)
	Directions(ctx context.Context, userID, scheduleID int64, origin types.Origin) (types.DirectionsResponse, error)
}

type ServiceImpl struct {
	logger     *slog.Logger
	client     roteiro.Client
	drafts     draft.Service
	candidates recommender.CandidateInvalidator
}

func NewServiceImpl(client roteiro.Client, drafts draft.Service, candidates recommender.CandidateInvalidator, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:     logger,
		client:     client,
		drafts:     drafts,
		candidates: candidates,
	}
}

// Validate checks a draft before anything is sent.
func Validate(d types.Draft) error {
	verr := &types.ValidationError{}
	if strings.TrimSpace(d.Title) == "" {
		verr.Add("title", "Give your itinerary a title.")
	}
	switch {
	case strings.TrimSpace(d.Date) == "":
		verr.Add("date", "Choose a date for your itinerary.")
	default:
		if _, err := time.Parse(DateLayout, d.Date); err != nil {
			verr.Add("date", "Use a date in the YYYY-MM-DD format.")
		}
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// Payload maps a draft onto the remote wire format. Activities without a
// place are sent with a null place_id.
func Payload(d types.Draft, userID int64) types.CreateScheduleRequest {
	items := make([]types.CreateScheduleItemRequest, len(d.Activities))
	for i, a := range d.Activities {
		items[i] = types.CreateScheduleItemRequest{
			Title:       a.Title,
			Description: a.Description,
			StartTime:   a.StartTime,
			EndTime:     a.EndTime,
			PlaceID:     a.PlaceID,
		}
	}
	return types.CreateScheduleRequest{
		Title:  d.Title,
		Date:   d.Date,
		UserID: userID,
		Items:  items,
	}
}

// Submit sends the session's draft. On success the draft and the cached
// candidates are cleared; on any failure both are left as they were.
func (s *ServiceImpl) Submit(ctx context.Context, session string) (types.CreatedSchedule, error) {
	ctx, span := otel.Tracer("ScheduleService").Start(ctx, "Submit", trace.WithAttributes(
		attribute.String("session", session),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "Submit"), slog.String("session", session))

	result := "rejected"
	defer func() {
		metrics.Get().SubmissionsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	}()

	userID, err := api.NumericUserID(session)
	if err != nil {
		span.SetStatus(codes.Error, "Invalid user id")
		return types.CreatedSchedule{}, err
	}

	d, err := s.drafts.Load(ctx, session)
	if err != nil {
		result = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load draft")
		return types.CreatedSchedule{}, err
	}
	if err := Validate(d); err != nil {
		l.InfoContext(ctx, "Draft rejected before submission", slog.Any("error", err))
		span.SetStatus(codes.Error, "Validation failed")
		return types.CreatedSchedule{}, err
	}

	created, err := s.client.CreateSchedule(ctx, Payload(d, userID))
	if err != nil {
		result = "failed"
		l.WarnContext(ctx, "Remote rejected itinerary", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create schedule")
		return types.CreatedSchedule{}, fmt.Errorf("failed to submit itinerary: %w", err)
	}
	result = "created"
	span.SetAttributes(attribute.Int64("schedule.id", created.ID))

	if err := s.drafts.Discard(ctx, session); err != nil {
		// The itinerary exists remotely; a leftover draft is only cosmetic.
		l.ErrorContext(ctx, "Itinerary saved but draft could not be cleared", slog.Any("error", err))
	}
	s.candidates.InvalidateCandidates(userID)

	l.InfoContext(ctx, "Itinerary submitted", slog.Int64("scheduleID", created.ID), slog.Int("items", len(d.Activities)))
	span.SetStatus(codes.Ok, "Itinerary submitted")
	return created, nil
}

func (s *ServiceImpl) ListForUser(ctx context.Context, userID int64) ([]types.Schedule, error) {
	ctx, span := otel.Tracer("ScheduleService").Start(ctx, "ListForUser", trace.WithAttributes(
		attribute.Int64("user.id", userID),
	))
	defer span.End()

	schedules, err := s.client.SchedulesByUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list schedules")
		return nil, err
	}
	if schedules == nil {
		schedules = []types.Schedule{}
	}
	return schedules, nil
}

// Directions links every resolved item of one of the user's schedules.
func (s *ServiceImpl) Directions(ctx context.Context, userID, scheduleID int64, origin types.Origin) (types.DirectionsResponse, error) {
	ctx, span := otel.Tracer("ScheduleService").Start(ctx, "Directions", trace.WithAttributes(
		attribute.Int64("user.id", userID),
		attribute.Int64("schedule.id", scheduleID),
	))
	defer span.End()

	schedules, err := s.ListForUser(ctx, userID)
	if err != nil {
		return types.DirectionsResponse{}, err
	}
	for _, sc := range schedules {
		if sc.ID != scheduleID {
			continue
		}
		resp := types.DirectionsResponse{ScheduleID: sc.ID, Stops: []types.Directions{}}
		if !origin.Available() {
			resp.Notice = NoLocationDirectionsNotice
		}
		for _, item := range sc.Items {
			if item.Place == nil {
				continue
			}
			resp.Stops = append(resp.Stops, types.Directions{
				ItemID:    item.ID,
				Title:     item.Title,
				PlaceName: item.Place.Name,
				URL:       geo.DirectionsURL(*item.Place, origin),
			})
		}
		return resp, nil
	}
	span.SetStatus(codes.Error, "Schedule not found")
	return types.DirectionsResponse{}, fmt.Errorf("schedule %d: %w", scheduleID, types.ErrNotFound)
}

// ScheduleForDay returns the schedules planned for date, in input order.
func ScheduleForDay(schedules []types.Schedule, date string) []types.Schedule {
	out := []types.Schedule{}
	for _, sc := range schedules {
		if sc.Date == date {
			out = append(out, sc)
		}
	}
	return out
}
