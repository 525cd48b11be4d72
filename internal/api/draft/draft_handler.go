package draft

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
	"github.com/FACorreiaa/go-roteiro-planner/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	GetDraftHandler(w http.ResponseWriter, r *http.Request)
	SetTitleHandler(w http.ResponseWriter, r *http.Request)
	SetDateHandler(w http.ResponseWriter, r *http.Request)
	AddActivityHandler(w http.ResponseWriter, r *http.Request)
	UpdateActivityHandler(w http.ResponseWriter, r *http.Request)
	RemoveActivityHandler(w http.ResponseWriter, r *http.Request)
	DiscardDraftHandler(w http.ResponseWriter, r *http.Request)
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

// ActivityIDParam reads the {activityID} path parameter.
func ActivityIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "activityID"), 10, 64)
}

func (h *HandlerImpl) GetDraftHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("DraftHandler").Start(r.Context(), "GetDraft")
	defer span.End()
	l := h.logger.With(slog.String("handler", "GetDraftHandler"))

	session, ok := appMiddleware.UserIDFromContext(ctx)
	if !ok {
		l.WarnContext(ctx, "User ID not found in context")
		span.SetStatus(codes.Error, "Unauthorized")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Please sign in to continue.")
		return
	}

	d, err := h.service.Load(ctx, session)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to load draft")
		api.ServiceErrorResponse(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, d)
}

func (h *HandlerImpl) SetTitleHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("DraftHandler").Start(r.Context(), "SetTitle")
	defer span.End()
	l := h.logger.With(slog.String("handler", "SetTitleHandler"))

	session, ok := appMiddleware.UserIDFromContext(ctx)
	if !ok {
		span.SetStatus(codes.Error, "Unauthorized")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Please sign in to continue.")
		return
	}

	var req types.SetTitleRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, api.UnreadableBodyMessage)
		return
	}

	d, err := h.service.SetTitle(ctx, session, req.Title)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to set title")
		api.ServiceErrorResponse(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.DraftMutationResponse{Draft: d, Changed: true})
}

func (h *HandlerImpl) SetDateHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("DraftHandler").Start(r.Context(), "SetDate")
	defer span.End()
	l := h.logger.With(slog.String("handler", "SetDateHandler"))

	session, ok := appMiddleware.UserIDFromContext(ctx)
	if !ok {
		span.SetStatus(codes.Error, "Unauthorized")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Please sign in to continue.")
		return
	}

	var req types.SetDateRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, api.UnreadableBodyMessage)
		return
	}

	d, err := h.service.SetDate(ctx, session, req.Date)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to set date")
		api.ServiceErrorResponse(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.DraftMutationResponse{Draft: d, Changed: true})
}

func (h *HandlerImpl) AddActivityHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("DraftHandler").Start(r.Context(), "AddActivity")
	defer span.End()
	l := h.logger.With(slog.String("handler", "AddActivityHandler"))

	session, ok := appMiddleware.UserIDFromContext(ctx)
	if !ok {
		span.SetStatus(codes.Error, "Unauthorized")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Please sign in to continue.")
		return
	}

	d, id, err := h.service.AddActivity(ctx, session)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to add activity")
		api.ServiceErrorResponse(w, r, l, err)
		return
	}
	span.SetAttributes(attribute.Int64("activity.id", id))
	api.WriteJSONResponse(w, r, http.StatusCreated, types.DraftMutationResponse{Draft: d, Changed: true, ActivityID: id})
}

func (h *HandlerImpl) UpdateActivityHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("DraftHandler").Start(r.Context(), "UpdateActivity")
	defer span.End()
	l := h.logger.With(slog.String("handler", "UpdateActivityHandler"))

	session, ok := appMiddleware.UserIDFromContext(ctx)
	if !ok {
		span.SetStatus(codes.Error, "Unauthorized")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Please sign in to continue.")
		return
	}

	activityID, err := ActivityIDParam(r)
	if err != nil {
		span.SetStatus(codes.Error, "Invalid activity id")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid activity id")
		return
	}
	span.SetAttributes(attribute.Int64("activity.id", activityID))

	var req types.UpdateActivityFieldRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, api.UnreadableBodyMessage)
		return
	}
	field, err := types.ParseActivityField(req.Field)
	if err != nil {
		span.SetStatus(codes.Error, "Invalid field")
		api.ServiceErrorResponse(w, r, l, err)
		return
	}

	d, changed, err := h.service.UpdateActivityField(ctx, session, activityID, field, req.Value)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update activity")
		api.ServiceErrorResponse(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.DraftMutationResponse{Draft: d, Changed: changed})
}

func (h *HandlerImpl) RemoveActivityHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("DraftHandler").Start(r.Context(), "RemoveActivity")
	defer span.End()
	l := h.logger.With(slog.String("handler", "RemoveActivityHandler"))

	session, ok := appMiddleware.UserIDFromContext(ctx)
	if !ok {
		span.SetStatus(codes.Error, "Unauthorized")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Please sign in to continue.")
		return
	}

	activityID, err := ActivityIDParam(r)
	if err != nil {
		span.SetStatus(codes.Error, "Invalid activity id")
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid activity id")
		return
	}

	d, changed, err := h.service.RemoveActivity(ctx, session, activityID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to remove activity")
		api.ServiceErrorResponse(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, types.DraftMutationResponse{Draft: d, Changed: changed})
}

func (h *HandlerImpl) DiscardDraftHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("DraftHandler").Start(r.Context(), "DiscardDraft")
	defer span.End()
	l := h.logger.With(slog.String("handler", "DiscardDraftHandler"))

	session, ok := appMiddleware.UserIDFromContext(ctx)
	if !ok {
		span.SetStatus(codes.Error, "Unauthorized")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Please sign in to continue.")
		return
	}

	if err := h.service.Discard(ctx, session); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to discard draft")
		api.ServiceErrorResponse(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}
