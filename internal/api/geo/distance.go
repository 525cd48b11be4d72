package geo

import (
	"fmt"
	"math"
	"net/url"
	"sort"

	"github.com/FACorreiaa/go-roteiro-planner/internal/types"
)

// EarthRadiusKm is the mean Earth radius used by DistanceKm.
const EarthRadiusKm = 6371.0

// NoLocationNotice is shown when places stay in the server-provided order.
const NoLocationNotice = "We couldn't access your location, showing places in recommended order."

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// DistanceKm returns the great-circle distance between a and b using the
// haversine formula.
func DistanceKm(a, b types.Coordinate) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Ranking is an ordered view over candidate places.
type Ranking struct {
	Places []types.Place
	// Distances is parallel to Places and nil when the origin is unavailable.
	Distances []float64
	Sorted    bool
	Notice    string
}

// RankByDistance returns the places ordered nearest first. Ties keep their
// input order and the input slice is never modified. With an unavailable
// origin the input order is kept and Notice explains why.
func RankByDistance(origin types.Origin, places []types.Place) Ranking {
	out := make([]types.Place, len(places))
	copy(out, places)

	from, ok := origin.Coordinate()
	if !ok {
		return Ranking{Places: out, Notice: NoLocationNotice}
	}

	type ranked struct {
		place types.Place
		km    float64
	}
	rs := make([]ranked, len(out))
	for i, p := range out {
		rs[i] = ranked{place: p, km: DistanceKm(from, p.Coordinate())}
	}
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].km < rs[j].km })

	distances := make([]float64, len(rs))
	for i, r := range rs {
		out[i] = r.place
		distances[i] = r.km
	}
	return Ranking{Places: out, Distances: distances, Sorted: true}
}

// Annotate pairs every place with its distance from origin without changing
// the order. Distances are omitted when the origin is unavailable.
func Annotate(origin types.Origin, places []types.Place) []types.RankedPlace {
	from, ok := origin.Coordinate()
	out := make([]types.RankedPlace, len(places))
	for i, p := range places {
		out[i] = types.RankedPlace{Place: p}
		if ok {
			km := DistanceKm(from, p.Coordinate())
			out[i].DistanceKm = &km
		}
	}
	return out
}

// DirectionsURL links to Google Maps driving directions from the user's
// position to dest, or to a plain map search for dest when the position is
// unknown.
func DirectionsURL(dest types.Place, origin types.Origin) string {
	destination := fmt.Sprintf("%v,%v", dest.Latitude, dest.Longitude)
	q := url.Values{}
	q.Set("api", "1")

	from, ok := origin.Coordinate()
	if !ok {
		q.Set("query", destination)
		return "https://www.google.com/maps/search/?" + q.Encode()
	}
	q.Set("origin", fmt.Sprintf("%v,%v", from.Lat, from.Lon))
	q.Set("destination", destination)
	q.Set("travelmode", "driving")
	return "https://www.google.com/maps/dir/?" + q.Encode()
}
