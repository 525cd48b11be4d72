package recommender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-roteiro-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-roteiro-planner/internal/api/geo"
	"github.com/FACorreiaa/go-roteiro-planner/internal/client/roteiro"
	"github.com/FACorreiaa/go-roteiro-planner/internal/store"
	"github.com/FACorreiaa/go-roteiro-planner/internal/types"
)

// ViewedPlaceKeyPrefix namespaces the "view on map" hand-off record.
const ViewedPlaceKeyPrefix = "recommendedPlace:"

// Query describes one recommender screen load.
type Query struct {
	UserID         int64
	Origin         types.Origin
	SortByDistance bool
	// Token is nil in browsing mode.
	Token *types.SelectionToken
}

// CandidateInvalidator drops the cached candidate list of a user.
type CandidateInvalidator interface {
	InvalidateCandidates(userID int64)
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	CandidateInvalidator
	Recommendations(ctx context.Context, q Query) (types.RecommendationsView, error)
	Preferences(ctx context.Context, userID int64) (options []types.Preference, selected []string, err error)
	SavePreferences(ctx context.Context, userID int64, names []string) error
	Places(ctx context.Context, filter types.PlaceFilter) ([]types.Place, error)
	ViewPlace(ctx context.Context, session string, place types.Place) error
	ViewedPlace(ctx context.Context, session string) (types.Place, error)
}

type ServiceImpl struct {
	logger     *slog.Logger
	client     roteiro.Client
	candidates *cache.Cache
	kv         store.KV
}

func NewServiceImpl(client roteiro.Client, kv store.KV, candidatesTTL time.Duration, logger *slog.Logger) *ServiceImpl {
	if candidatesTTL <= 0 {
		candidatesTTL = 10 * time.Minute
	}
	return &ServiceImpl{
		logger:     logger,
		client:     client,
		candidates: cache.New(candidatesTTL, 2*candidatesTTL),
		kv:         kv,
	}
}

func candidateKey(userID int64) string {
	return "recommendations:" + strconv.FormatInt(userID, 10)
}

// Recommendations loads candidates and the preference lists concurrently and
// orders candidates by distance when asked and possible. A result that
// arrives after ctx is done is dropped without being cached.
func (s *ServiceImpl) Recommendations(ctx context.Context, q Query) (types.RecommendationsView, error) {
	ctx, span := otel.Tracer("RecommenderService").Start(ctx, "Recommendations", trace.WithAttributes(
		attribute.Int64("user.id", q.UserID),
		attribute.Bool("sort.distance", q.SortByDistance),
		attribute.Bool("origin.available", q.Origin.Available()),
	))
	defer span.End()
	l := s.logger.With(slog.String("method", "Recommendations"), slog.Int64("userID", q.UserID))

	var (
		places   []types.Place
		fetched  bool
		options  []types.Preference
		selected []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if cached, found := s.candidates.Get(candidateKey(q.UserID)); found {
			metrics.Get().CandidateCacheTotal.Add(gctx, 1, metric.WithAttributes(attribute.String("result", "hit")))
			places = cached.([]types.Place)
			return nil
		}
		metrics.Get().CandidateCacheTotal.Add(gctx, 1, metric.WithAttributes(attribute.String("result", "miss")))
		var err error
		places, err = s.client.Recommendations(gctx, q.UserID)
		fetched = err == nil
		return err
	})
	g.Go(func() error {
		options, selected = s.loadPreferences(gctx, q.UserID)
		return nil
	})

	if err := g.Wait(); err != nil {
		l.WarnContext(ctx, "Failed to load recommendations", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load recommendations")
		return types.RecommendationsView{}, err
	}
	if err := ctx.Err(); err != nil {
		l.InfoContext(ctx, "Discarding recommendations that arrived after the request ended")
		span.SetStatus(codes.Error, "Request ended before results arrived")
		return types.RecommendationsView{}, err
	}
	if fetched {
		s.candidates.SetDefault(candidateKey(q.UserID), places)
	}

	view := types.RecommendationsView{
		PreferenceOptions:   options,
		SelectedPreferences: selected,
	}
	if q.SortByDistance {
		ranking := geo.RankByDistance(q.Origin, places)
		view.Places = make([]types.RankedPlace, len(ranking.Places))
		for i, p := range ranking.Places {
			view.Places[i] = types.RankedPlace{Place: p}
			if ranking.Distances != nil {
				d := ranking.Distances[i]
				view.Places[i].DistanceKm = &d
			}
		}
		view.SortedByDistance = ranking.Sorted
		view.Notice = ranking.Notice
	} else {
		view.Places = geo.Annotate(q.Origin, places)
	}
	if q.Token != nil {
		id := q.Token.ActivityID
		view.ChooseEnabled = true
		view.ScheduleItemID = &id
	}

	span.SetAttributes(attribute.Int("places.count", len(view.Places)))
	l.DebugContext(ctx, "Recommendations ready", slog.Int("count", len(view.Places)), slog.Bool("sorted", view.SortedByDistance))
	return view, nil
}

// loadPreferences never fails; either list degrades to empty.
func (s *ServiceImpl) loadPreferences(ctx context.Context, userID int64) ([]types.Preference, []string) {
	var options, mine []types.Preference
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if options, err = s.client.Preferences(gctx); err != nil {
			s.logger.WarnContext(ctx, "Preference catalogue unavailable", slog.Any("error", err))
			options = nil
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if mine, err = s.client.UserPreferences(gctx, userID); err != nil {
			s.logger.InfoContext(ctx, "User has no saved preferences", slog.Int64("userID", userID), slog.Any("error", err))
			mine = nil
		}
		return nil
	})
	_ = g.Wait()

	if options == nil {
		options = []types.Preference{}
	}
	selected := make([]string, 0, len(mine))
	for _, p := range mine {
		selected = append(selected, p.Name)
	}
	return options, selected
}

func (s *ServiceImpl) Preferences(ctx context.Context, userID int64) ([]types.Preference, []string, error) {
	ctx, span := otel.Tracer("RecommenderService").Start(ctx, "Preferences", trace.WithAttributes(
		attribute.Int64("user.id", userID),
	))
	defer span.End()

	options, selected := s.loadPreferences(ctx, userID)
	return options, selected, nil
}

// SavePreferences stores the user's preferences and drops the cached
// candidates, which were ranked against the old ones.
func (s *ServiceImpl) SavePreferences(ctx context.Context, userID int64, names []string) error {
	ctx, span := otel.Tracer("RecommenderService").Start(ctx, "SavePreferences", trace.WithAttributes(
		attribute.Int64("user.id", userID),
		attribute.Int("preferences.count", len(names)),
	))
	defer span.End()

	if err := s.client.SavePreferences(ctx, userID, names); err != nil {
		s.logger.WarnContext(ctx, "Failed to save preferences", slog.Int64("userID", userID), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save preferences")
		return err
	}
	s.InvalidateCandidates(userID)
	s.logger.InfoContext(ctx, "Preferences saved", slog.Int64("userID", userID))
	return nil
}

func (s *ServiceImpl) InvalidateCandidates(userID int64) {
	s.candidates.Delete(candidateKey(userID))
}

func (s *ServiceImpl) Places(ctx context.Context, filter types.PlaceFilter) ([]types.Place, error) {
	ctx, span := otel.Tracer("RecommenderService").Start(ctx, "Places", trace.WithAttributes(
		attribute.String("filter", filter.Filter),
	))
	defer span.End()

	places, err := s.client.Places(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list places")
		return nil, err
	}
	if places == nil {
		places = []types.Place{}
	}
	return places, nil
}

// ViewPlace records the place the user opened on the map.
func (s *ServiceImpl) ViewPlace(ctx context.Context, session string, place types.Place) error {
	b, err := json.Marshal(place)
	if err != nil {
		return fmt.Errorf("failed to encode viewed place: %w", err)
	}
	if err := s.kv.Set(ctx, ViewedPlaceKeyPrefix+session, b); err != nil {
		s.logger.ErrorContext(ctx, "Failed to store viewed place", slog.String("session", session), slog.Any("error", err))
		return fmt.Errorf("failed to store viewed place: %w", err)
	}
	return nil
}

// ViewedPlace returns types.ErrNotFound when nothing was viewed.
func (s *ServiceImpl) ViewedPlace(ctx context.Context, session string) (types.Place, error) {
	b, err := s.kv.Get(ctx, ViewedPlaceKeyPrefix+session)
	if err != nil {
		return types.Place{}, err
	}
	var p types.Place
	if err := json.Unmarshal(b, &p); err != nil {
		s.logger.WarnContext(ctx, "Unreadable viewed place record", slog.String("session", session), slog.Any("error", err))
		return types.Place{}, fmt.Errorf("viewed place: %w", types.ErrNotFound)
	}
	return p, nil
}

// IsLate reports whether err means the caller went away before results came back.
func IsLate(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
