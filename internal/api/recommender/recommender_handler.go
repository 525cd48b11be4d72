package recommender

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	appMiddleware "github.com/FACorreiaa/go-roteiro-planner/app/middleware"
	"github.com/FACorreiaa/go-roteiro-planner/internal/api"
	"github.com/FACorreiaa/go-roteiro-planner/internal/api/geo"
	"github.com/FACorreiaa/go-roteiro-planner/internal/api/geolocation"
	"github.com/FACorreiaa/go-roteiro-planner/internal/api/selection"
	"github.com/FACorreiaa/go-roteiro-planner/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	GetRecommendationsHandler(w http.ResponseWriter, r *http.Request)
	GetPreferencesHandler(w http.ResponseWriter, r *http.Request)
	SavePreferencesHandler(w http.ResponseWriter, r *http.Request)
	ListPlacesHandler(w http.ResponseWriter, r *http.Request)
	ViewPlaceHandler(w http.ResponseWriter, r *http.Request)
	GetViewedPlaceHandler(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	logger  *slog.Logger
	service Service
	locator geolocation.Locator
}

func NewHandler(service Service, locator geolocation.Locator, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		logger:  logger,
		service: service,
		locator: locator,
	}
}

// userFromRequest resolves the session and its numeric user id, writing the
// error response itself when either is missing.
func (h *HandlerImpl) userFromRequest(w http.ResponseWriter, r *http.Request) (string, int64, bool) {
	session, ok := appMiddleware.UserIDFromContext(r.Context())
	if !ok {
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Please sign in to continue.")
		return "", 0, false
	}
	userID, err := api.NumericUserID(session)
	if err != nil {
		api.ServiceErrorResponse(w, r, h.logger, err)
		return "", 0, false
	}
	return session, userID, true
}

func (h *HandlerImpl) GetRecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RecommenderHandler").Start(r.Context(), "GetRecommendations")
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetRecommendationsHandler"))

	_, userID, ok := h.userFromRequest(w, r)
	if !ok {
		span.SetStatus(codes.Error, "Unauthorized")
		return
	}

	query := r.URL.Query()
	q := Query{
		UserID:         userID,
		Origin:         h.locator.Locate(ctx, r),
		SortByDistance: query.Get("sort") == "distance",
	}
	if token, found := selection.TokenFromQuery(query); found {
		q.Token = &token
	}
	span.SetAttributes(attribute.Bool("selection.active", q.Token != nil))

	view, err := h.service.Recommendations(ctx, q)
	if err != nil {
		if IsLate(err) {
			l.InfoContext(ctx, "Client left before recommendations were ready")
			return
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load recommendations")
		api.ServiceErrorResponse(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, view)
}

func (h *HandlerImpl) GetPreferencesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RecommenderHandler").Start(r.Context(), "GetPreferences")
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetPreferencesHandler"))

	_, userID, ok := h.userFromRequest(w, r)
	if !ok {
		span.SetStatus(codes.Error, "Unauthorized")
		return
	}

	options, selected, err := h.service.Preferences(ctx, userID)
	if err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.PreferencesResponse{Options: options, Selected: selected})
}

func (h *HandlerImpl) SavePreferencesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RecommenderHandler").Start(r.Context(), "SavePreferences")
	defer span.End()
	l := h.logger.With(slog.String("handler", "SavePreferencesHandler"))

	_, userID, ok := h.userFromRequest(w, r)
	if !ok {
		span.SetStatus(codes.Error, "Unauthorized")
		return
	}

	var req types.SavePreferencesRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, api.UnreadableBodyMessage)
		return
	}

	if err := h.service.SavePreferences(ctx, userID, req.Preferences); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save preferences")
		api.ServiceErrorResponse(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.Response{Success: true, Message: "Preferences saved."})
}

func (h *HandlerImpl) ListPlacesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RecommenderHandler").Start(r.Context(), "ListPlaces")
	defer span.End()
	l := h.logger.With(slog.String("handler", "ListPlacesHandler"))

	places, err := h.service.Places(ctx, types.PlaceFilter{Filter: r.URL.Query().Get("filter")})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list places")
		api.ServiceErrorResponse(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, places)
}

func (h *HandlerImpl) ViewPlaceHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RecommenderHandler").Start(r.Context(), "ViewPlace")
	defer span.End()
	l := h.logger.With(slog.String("handler", "ViewPlaceHandler"))

	session, ok := appMiddleware.UserIDFromContext(ctx)
	if !ok {
		span.SetStatus(codes.Error, "Unauthorized")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Please sign in to continue.")
		return
	}

	var place types.Place
	if err := api.DecodeJSONBody(w, r, &place); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, api.UnreadableBodyMessage)
		return
	}
	if !place.Coordinate().Valid() {
		api.ValidationErrorResponse(w, r, types.NewValidationError("latitude", "The place has no valid coordinates."))
		return
	}

	if err := h.service.ViewPlace(ctx, session, place); err != nil {
		span.RecordError(err)
		api.ServiceErrorResponse(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}

func (h *HandlerImpl) GetViewedPlaceHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RecommenderHandler").Start(r.Context(), "GetViewedPlace")
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetViewedPlaceHandler"))

	session, ok := appMiddleware.UserIDFromContext(ctx)
	if !ok {
		span.SetStatus(codes.Error, "Unauthorized")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Please sign in to continue.")
		return
	}

	place, err := h.service.ViewedPlace(ctx, session)
	if err != nil {
		api.ServiceErrorResponse(w, r, l, err)
		return
	}
	origin := h.locator.Locate(ctx, r)
	api.WriteJSONResponse(w, r, http.StatusOK, types.ViewedPlaceResponse{
		Place:         place,
		DirectionsURL: geo.DirectionsURL(place, origin),
	})
}
