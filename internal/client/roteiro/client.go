// Package roteiro talks to the remote roteiro API that owns users,
// preferences, places and persisted schedules.
package roteiro

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/go-roteiro-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-roteiro-planner/internal/types"
)

const maxErrorBody = 64 << 10

// Client is the subset of the remote API used by this service.
type Client interface {
	Login(ctx context.Context, email, password string) (types.User, error)
	Preferences(ctx context.Context) ([]types.Preference, error)
	UserPreferences(ctx context.Context, userID int64) ([]types.Preference, error)
	SavePreferences(ctx context.Context, userID int64, names []string) error
	Places(ctx context.Context, filter types.PlaceFilter) ([]types.Place, error)
	Recommendations(ctx context.Context, userID int64) ([]types.Place, error)
	CreateSchedule(ctx context.Context, req types.CreateScheduleRequest) (types.CreatedSchedule, error)
	SchedulesByUser(ctx context.Context, userID int64) ([]types.Schedule, error)
}

// Options configures an HTTPClient.
type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

var _ Client = (*HTTPClient)(nil)

type HTTPClient struct {
	logger  *slog.Logger
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

func NewHTTPClient(opts Options, logger *slog.Logger) *HTTPClient {
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	return &HTTPClient{
		logger:  logger,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (types.User, error) {
	var out types.User
	err := c.do(ctx, "Login", http.MethodPost, "/users/login", types.LoginRequest{Email: email, Password: password}, &out)
	return out, err
}

func (c *HTTPClient) Preferences(ctx context.Context) ([]types.Preference, error) {
	var out []types.Preference
	err := c.do(ctx, "Preferences", http.MethodGet, "/preferences/get-preferences", nil, &out)
	return out, err
}

func (c *HTTPClient) UserPreferences(ctx context.Context, userID int64) ([]types.Preference, error) {
	var out []types.Preference
	path := "/preferences/get-user-preferences?user_id=" + strconv.FormatInt(userID, 10)
	err := c.do(ctx, "UserPreferences", http.MethodGet, path, nil, &out)
	return out, err
}

func (c *HTTPClient) SavePreferences(ctx context.Context, userID int64, names []string) error {
	if names == nil {
		names = []string{}
	}
	body := struct {
		UserID      int64    `json:"user_id"`
		Preferences []string `json:"preferences"`
	}{UserID: userID, Preferences: names}
	return c.do(ctx, "SavePreferences", http.MethodPost, "/preferences/save-preferences", body, nil)
}

func (c *HTTPClient) Places(ctx context.Context, filter types.PlaceFilter) ([]types.Place, error) {
	path := "/places"
	if filter.Filter != "" {
		path += "?" + url.Values{"filter": {filter.Filter}}.Encode()
	}
	var out []types.Place
	err := c.do(ctx, "Places", http.MethodGet, path, nil, &out)
	return out, err
}

func (c *HTTPClient) Recommendations(ctx context.Context, userID int64) ([]types.Place, error) {
	var out []types.Place
	path := "/recommendations/get-recommendations/" + strconv.FormatInt(userID, 10)
	err := c.do(ctx, "Recommendations", http.MethodGet, path, nil, &out)
	return out, err
}

func (c *HTTPClient) CreateSchedule(ctx context.Context, req types.CreateScheduleRequest) (types.CreatedSchedule, error) {
	var out types.CreatedSchedule
	err := c.do(ctx, "CreateSchedule", http.MethodPost, "/schedules", req, &out)
	return out, err
}

func (c *HTTPClient) SchedulesByUser(ctx context.Context, userID int64) ([]types.Schedule, error) {
	var out []types.Schedule
	path := "/schedules/user/" + strconv.FormatInt(userID, 10)
	err := c.do(ctx, "SchedulesByUser", http.MethodGet, path, nil, &out)
	return out, err
}

// do sends one request. Transport failures become ErrUpstreamUnavailable and
// non-2xx answers become *types.UpstreamError.
func (c *HTTPClient) do(ctx context.Context, op, method, path string, in, out any) error {
	start := time.Now()
	status := 0
	defer func() {
		metrics.Get().RemoteRequestDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
			attribute.String("operation", op),
			attribute.Int("status", status),
		))
	}()
	l := c.logger.With(slog.String("operation", op), slog.String("path", path))

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: waiting for rate limiter: %w", op, err)
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: building request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s: %w", op, ctxErr)
		}
		l.WarnContext(ctx, "Roteiro API request failed", slog.Any("error", err))
		return fmt.Errorf("%s: %v: %w", op, err, types.ErrUpstreamUnavailable)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := errorDetail(io.LimitReader(resp.Body, maxErrorBody))
		l.WarnContext(ctx, "Roteiro API returned an error",
			slog.Int("status", resp.StatusCode), slog.String("detail", detail))
		return fmt.Errorf("%s: %w", op, &types.UpstreamError{Status: resp.StatusCode, Detail: detail})
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		l.WarnContext(ctx, "Unreadable roteiro API response", slog.Any("error", err))
		return fmt.Errorf("%s: decoding response: %v: %w", op, err, types.ErrUpstreamUnavailable)
	}
	return nil
}

// errorDetail extracts the "detail" or "message" field of an error body.
func errorDetail(r io.Reader) string {
	b, err := io.ReadAll(r)
	if err != nil || len(b) == 0 {
		return ""
	}
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(b, &payload); err != nil {
		return strings.TrimSpace(string(b))
	}
	if len(payload.Detail) > 0 {
		var s string
		if json.Unmarshal(payload.Detail, &s) == nil {
			return s
		}
		return string(payload.Detail)
	}
	return payload.Message
}
