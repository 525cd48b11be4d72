package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/FACorreiaa/go-roteiro-planner/internal/types"
)

// ErrorResponse writes a standard JSON error response including request ID.
func ErrorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	reqID := middleware.GetReqID(r.Context())
	resp := map[string]interface{}{
		"success":    false,
		"error":      message,
		"request_id": reqID,
	}
	WriteJSONResponse(w, r, status, resp)
}

// ValidationErrorResponse reports field-level failures.
func ValidationErrorResponse(w http.ResponseWriter, r *http.Request, verr *types.ValidationError) {
	WriteJSONResponse(w, r, http.StatusUnprocessableEntity, map[string]interface{}{
		"success":    false,
		"error":      "Please fix the highlighted fields and try again.",
		"fields":     verr.Fields,
		"request_id": middleware.GetReqID(r.Context()),
	})
}

// ServiceErrorResponse maps the error taxonomy onto status codes and
// actionable messages. Collaborator detail is logged, never echoed.
func ServiceErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var verr *types.ValidationError
	var uerr *types.UpstreamError
	switch {
	case errors.As(err, &verr):
		ValidationErrorResponse(w, r, verr)
	case errors.Is(err, types.ErrInvalidCredentials):
		ErrorResponse(w, r, http.StatusUnauthorized, "The email or password is incorrect.")
	case errors.Is(err, types.ErrUnauthenticated):
		ErrorResponse(w, r, http.StatusUnauthorized, "Please sign in to continue.")
	case errors.Is(err, types.ErrNotFound):
		ErrorResponse(w, r, http.StatusNotFound, "We couldn't find what you were looking for.")
	case errors.Is(err, types.ErrUpstreamUnavailable):
		logger.WarnContext(r.Context(), "Roteiro API unreachable", slog.Any("error", err))
		ErrorResponse(w, r, http.StatusServiceUnavailable, "We couldn't reach the server. Please try again in a moment.")
	case errors.As(err, &uerr):
		logger.WarnContext(r.Context(), "Roteiro API rejected request",
			slog.Int("upstream_status", uerr.Status), slog.String("detail", uerr.Detail))
		ErrorResponse(w, r, http.StatusBadGateway, "The server couldn't complete your request. Please try again.")
	default:
		logger.ErrorContext(r.Context(), "Unhandled service error", slog.Any("error", err))
		ErrorResponse(w, r, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
}

// WriteJSONResponse encodes the data to JSON and writes the response header and body.
func WriteJSONResponse(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	js, err := json.Marshal(data)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to marshal JSON response",
			slog.Any("error", err),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(js); err != nil {
		slog.ErrorContext(r.Context(), "Failed to write response body",
			slog.Any("error", err),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	}
}

// UnreadableBodyMessage is shown when a request body fails to decode. The
// decoder's own error is logged by the handler.
const UnreadableBodyMessage = "We couldn't read your request, please try again."

// DecodeJSONBody reads and decodes a JSON request body safely.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)

		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")

		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q (wanted %s)", unmarshalTypeError.Field, unmarshalTypeError.Type)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)

		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")

		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
			return fmt.Errorf("body contains unknown key %q", fieldName)

		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)

		case errors.As(err, &invalidUnmarshalError):
			panic(fmt.Errorf("developer error: invalid argument passed to json.Unmarshal: %w", err))

		default:
			return fmt.Errorf("error decoding JSON body: %w", err)
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

// NumericUserID converts the session identifier into the numeric id the
// roteiro API expects.
func NumericUserID(session string) (int64, error) {
	id, err := strconv.ParseInt(session, 10, 64)
	if err != nil || id <= 0 {
		return 0, types.NewValidationError("user_id", "Your session is not linked to a valid user, please sign in again.")
	}
	return id, nil
}
