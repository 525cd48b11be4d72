package geolocation

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/go-roteiro-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-roteiro-planner/internal/types"
)

const (
	// HeaderPosition carries "lat,lon" as reported by the browser.
	HeaderPosition = "X-Geo-Position"
	// HeaderStatus carries "denied" or "unsupported" when the browser could
	// not provide a position.
	HeaderStatus = "X-Geo-Status"
)

// Locator resolves the user's position for one screen request. It never
// fails; a missing or bad position becomes an unavailable Origin.
type Locator interface {
	Locate(ctx context.Context, r *http.Request) types.Origin
}

var _ Locator = (*RequestLocator)(nil)

type RequestLocator struct {
	logger *slog.Logger
}

func NewRequestLocator(logger *slog.Logger) *RequestLocator {
	return &RequestLocator{logger: logger}
}

// Locate reads lat/lon query parameters first, then the position headers.
func (l *RequestLocator) Locate(ctx context.Context, r *http.Request) types.Origin {
	origin := resolve(r)
	if reason := origin.Reason(); reason != "" {
		l.logger.DebugContext(ctx, "User position unavailable", slog.String("reason", string(reason)))
		metrics.Get().GeolocationFallbacksTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("reason", string(reason))))
	}
	return origin
}

func resolve(r *http.Request) types.Origin {
	q := r.URL.Query()
	if lat, lon := q.Get("lat"), q.Get("lon"); lat != "" || lon != "" {
		return parse(lat, lon)
	}
	if pos := r.Header.Get(HeaderPosition); pos != "" {
		lat, lon, found := strings.Cut(pos, ",")
		if !found {
			return types.OriginUnavailable(types.OriginInvalid)
		}
		return parse(lat, lon)
	}
	switch types.OriginUnavailableReason(strings.ToLower(r.Header.Get(HeaderStatus))) {
	case types.OriginDenied:
		return types.OriginUnavailable(types.OriginDenied)
	case types.OriginTimeout:
		return types.OriginUnavailable(types.OriginTimeout)
	}
	return types.OriginUnavailable(types.OriginUnsupported)
}

func parse(latStr, lonStr string) types.Origin {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return types.OriginUnavailable(types.OriginInvalid)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return types.OriginUnavailable(types.OriginInvalid)
	}
	c := types.Coordinate{Lat: lat, Lon: lon}
	if !c.Valid() {
		return types.OriginUnavailable(types.OriginInvalid)
	}
	return types.OriginAvailable(c)
}
