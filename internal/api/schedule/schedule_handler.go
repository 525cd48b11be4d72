package schedule

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	appMiddleware "github.com/FACorreiaa/go-roteiro-planner/app/middleware"
	"github.com/FACorreiaa/go-roteiro-planner/internal/api"
	"github.com/FACorreiaa/go-roteiro-planner/internal/api/geolocation"
	"github.com/FACorreiaa/go-roteiro-planner/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	SubmitHandler(w http.ResponseWriter, r *http.Request)
	ListSchedulesHandler(w http.ResponseWriter, r *http.Request)
	DirectionsHandler(w http.ResponseWriter, r *http.Request)
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

func (h *HandlerImpl) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ScheduleHandler").Start(r.Context(), "Submit")
	defer span.End()
	l := h.logger.With(slog.String("handler", "SubmitHandler"))

	session, ok := appMiddleware.UserIDFromContext(ctx)
	if !ok {
		span.SetStatus(codes.Error, "Unauthorized")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Please sign in to continue.")
		return
	}

	created, err := h.service.Submit(ctx, session)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Submission failed")
		api.ServiceErrorResponse(w, r, l, err)
		return
	}

	span.SetAttributes(attribute.Int64("schedule.id", created.ID))
	api.WriteJSONResponse(w, r, http.StatusCreated, types.SubmitResponse{
		ScheduleID: created.ID,
		Message:    "Itinerary saved.",
	})
}

// ListSchedulesHandler lists the user's schedules, optionally only those of
// ?date=YYYY-MM-DD.
func (h *HandlerImpl) ListSchedulesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ScheduleHandler").Start(r.Context(), "ListSchedules")
	defer span.End()
	l := h.logger.With(slog.String("handler", "ListSchedulesHandler"))

	session, ok := appMiddleware.UserIDFromContext(ctx)
	if !ok {
		span.SetStatus(codes.Error, "Unauthorized")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Please sign in to continue.")
		return
	}
	userID, err := api.NumericUserID(session)
	if err != nil {
		api.ServiceErrorResponse(w, r, l, err)
		return
	}

	schedules, err := h.service.ListForUser(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list schedules")
		api.ServiceErrorResponse(w, r, l, err)
		return
	}
	if date := r.URL.Query().Get("date"); date != "" {
		schedules = ScheduleForDay(schedules, date)
	}
	api.WriteJSONResponse(w, r, http.StatusOK, schedules)
}

func (h *HandlerImpl) DirectionsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ScheduleHandler").Start(r.Context(), "Directions")
	defer span.End()
	l := h.logger.With(slog.String("handler", "DirectionsHandler"))

	session, ok := appMiddleware.UserIDFromContext(ctx)
	if !ok {
		span.SetStatus(codes.Error, "Unauthorized")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Please sign in to continue.")
		return
	}
	userID, err := api.NumericUserID(session)
	if err != nil {
		api.ServiceErrorResponse(w, r, l, err)
		return
	}
	scheduleID, err := strconv.ParseInt(chi.URLParam(r, "scheduleID"), 10, 64)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid schedule id")
		return
	}

	resp, err := h.service.Directions(ctx, userID, scheduleID, h.locator.Locate(ctx, r))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to build directions")
		api.ServiceErrorResponse(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}
