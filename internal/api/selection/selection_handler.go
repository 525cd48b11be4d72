package selection

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	appMiddleware "github.com/FACorreiaa/go-roteiro-planner/app/middleware"
	"github.com/FACorreiaa/go-roteiro-planner/internal/api"
	"github.com/FACorreiaa/go-roteiro-planner/internal/api/draft"
	"github.com/FACorreiaa/go-roteiro-planner/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	BeginSelectionHandler(w http.ResponseWriter, r *http.Request)
	CompleteSelectionHandler(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	logger  *slog.Logger
	service Service
}

func NewHandler(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		logger:  logger,
		service: service,
	}
}

func (h *HandlerImpl) BeginSelectionHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SelectionHandler").Start(r.Context(), "BeginSelection")
	defer span.End()
	l := h.logger.With(slog.String("handler", "BeginSelectionHandler"))

	session, ok := appMiddleware.UserIDFromContext(ctx)
	if !ok {
		span.SetStatus(codes.Error, "Unauthorized")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Please sign in to continue.")
		return
	}

	activityID, err := draft.ActivityIDParam(r)
	if err != nil {
		span.SetStatus(codes.Error, "Invalid activity id")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid activity id")
		return
	}
	span.SetAttributes(attribute.Int64("activity.id", activityID))

	token, next, err := h.service.Begin(ctx, session, activityID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to begin selection")
		api.ServiceErrorResponse(w, r, l, err)
		return
	}

	w.Header().Set("Location", next)
	api.WriteJSONResponse(w, r, http.StatusOK, types.BeginSelectionResponse{Token: token, Next: next})
}

func (h *HandlerImpl) CompleteSelectionHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SelectionHandler").Start(r.Context(), "CompleteSelection")
	defer span.End()
	l := h.logger.With(slog.String("handler", "CompleteSelectionHandler"))

	session, ok := appMiddleware.UserIDFromContext(ctx)
	if !ok {
		span.SetStatus(codes.Error, "Unauthorized")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Please sign in to continue.")
		return
	}

	var req types.CompleteSelectionRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, api.UnreadableBodyMessage)
		return
	}
	if req.ScheduleItemID == 0 {
		// Browsing mode: there is nothing to merge into.
		api.ValidationErrorResponse(w, r, types.NewValidationError("schedule_item_id", "Open the recommender from an activity to choose a place."))
		return
	}
	if req.PlaceID <= 0 {
		api.ValidationErrorResponse(w, r, types.NewValidationError("place_id", "Choose a place from the list to continue."))
		return
	}

	token := types.SelectionToken{ActivityID: req.ScheduleItemID, DraftID: req.DraftID}
	nav, err := h.service.Complete(ctx, session, token, req.PlaceID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to complete selection")
		api.ServiceErrorResponse(w, r, l, err)
		return
	}

	w.Header().Set("Location", nav.Next)
	api.WriteJSONResponse(w, r, http.StatusOK, nav)
}
