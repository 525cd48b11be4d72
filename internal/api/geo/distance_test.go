package geo

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-roteiro-planner/internal/types"
)

var brasilia = types.Coordinate{Lat: -15.7941, Lon: -47.8825}

func place(id int64, lat, lon float64) types.Place {
	return types.Place{ID: id, Name: "p", Latitude: lat, Longitude: lon}
}

func TestDistanceKm(t *testing.T) {
	t.Run("zero for identical points", func(t *testing.T) {
		for _, c := range []types.Coordinate{brasilia, {Lat: 0, Lon: 0}, {Lat: 89.9, Lon: 179.9}, {Lat: -22.951916, Lon: -43.210487}} {
			assert.Zero(t, DistanceKm(c, c))
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		pairs := [][2]types.Coordinate{
			{brasilia, {Lat: -22.9492, Lon: -43.1545}},
			{{Lat: 51.5, Lon: -0.12}, {Lat: 40.71, Lon: -74.0}},
			{{Lat: 0, Lon: 179}, {Lat: 0, Lon: -179}},
		}
		for _, p := range pairs {
			assert.InDelta(t, DistanceKm(p[0], p[1]), DistanceKm(p[1], p[0]), 1e-9)
		}
	})

	t.Run("esplanada to nearby point", func(t *testing.T) {
		// 0.0034° of latitude and 0.0094° of longitude at ~15.8°S.
		d := DistanceKm(brasilia, types.Coordinate{Lat: -15.7975, Lon: -47.8919})
		assert.InDelta(t, 1.07, d, 0.05)
	})

	t.Run("quarter meridian", func(t *testing.T) {
		d := DistanceKm(types.Coordinate{Lat: 0, Lon: 0}, types.Coordinate{Lat: 90, Lon: 0})
		assert.InDelta(t, EarthRadiusKm*math.Pi/2, d, 1e-6)
	})
}

func TestRankByDistance(t *testing.T) {
	places := []types.Place{
		place(1, -22.951916, -43.210487), // Rio
		place(2, -15.7975, -47.8919),     // next door
		place(3, -23.5505, -46.6333),     // São Paulo
		place(4, -15.7975, -47.8919),     // same spot as 2
		place(5, -16.6869, -49.2648),     // Goiânia
	}
	original := make([]types.Place, len(places))
	copy(original, places)

	r := RankByDistance(types.OriginAvailable(brasilia), places)

	t.Run("input untouched", func(t *testing.T) {
		assert.Equal(t, original, places)
	})

	t.Run("permutation", func(t *testing.T) {
		require.Len(t, r.Places, len(places))
		assert.ElementsMatch(t, places, r.Places)
	})

	t.Run("ascending", func(t *testing.T) {
		for i := 0; i+1 < len(r.Places); i++ {
			assert.LessOrEqual(t,
				DistanceKm(brasilia, r.Places[i].Coordinate()),
				DistanceKm(brasilia, r.Places[i+1].Coordinate()))
		}
	})

	t.Run("stable ties and order", func(t *testing.T) {
		ids := make([]int64, len(r.Places))
		for i, p := range r.Places {
			ids[i] = p.ID
		}
		assert.Equal(t, []int64{2, 4, 5, 3, 1}, ids)
		assert.True(t, r.Sorted)
		assert.Empty(t, r.Notice)
		require.Len(t, r.Distances, len(r.Places))
		assert.InDelta(t, DistanceKm(brasilia, r.Places[0].Coordinate()), r.Distances[0], 1e-12)
	})

	t.Run("unavailable origin keeps server order with notice", func(t *testing.T) {
		u := RankByDistance(types.OriginUnavailable(types.OriginDenied), places)
		assert.Equal(t, places, u.Places)
		assert.False(t, u.Sorted)
		assert.Nil(t, u.Distances)
		assert.Equal(t, NoLocationNotice, u.Notice)
	})

	t.Run("empty input", func(t *testing.T) {
		e := RankByDistance(types.OriginAvailable(brasilia), nil)
		assert.Empty(t, e.Places)
	})
}

func TestAnnotate(t *testing.T) {
	places := []types.Place{place(1, -15.7975, -47.8919)}

	withOrigin := Annotate(types.OriginAvailable(brasilia), places)
	require.NotNil(t, withOrigin[0].DistanceKm)
	assert.InDelta(t, 1.07, *withOrigin[0].DistanceKm, 0.05)

	without := Annotate(types.OriginUnavailable(types.OriginUnsupported), places)
	assert.Nil(t, without[0].DistanceKm)
}

func TestDirectionsURL(t *testing.T) {
	dest := place(9, -22.9492, -43.1545)

	withOrigin := DirectionsURL(dest, types.OriginAvailable(brasilia))
	assert.True(t, strings.HasPrefix(withOrigin, "https://www.google.com/maps/dir/?"))
	assert.Contains(t, withOrigin, "travelmode=driving")
	assert.Contains(t, withOrigin, "destination=-22.9492%2C-43.1545")

	withoutOrigin := DirectionsURL(dest, types.OriginUnavailable(types.OriginDenied))
	assert.True(t, strings.HasPrefix(withoutOrigin, "https://www.google.com/maps/search/?"))
	assert.Contains(t, withoutOrigin, "query=-22.9492%2C-43.1545")
}
