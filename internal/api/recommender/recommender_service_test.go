package recommender

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-roteiro-planner/internal/api/geo"
	"github.com/FACorreiaa/go-roteiro-planner/internal/store"
	"github.com/FACorreiaa/go-roteiro-planner/internal/types"
)

// Brasília landmarks in server order; the farthest from origin comes first.
var candidates = []types.Place{
	{ID: 1, Name: "Catetinho", Latitude: -15.9497, Longitude: -48.0019},
	{ID: 2, Name: "Torre de TV", Latitude: -15.7905, Longitude: -47.8923},
	{ID: 3, Name: "Catedral", Latitude: -15.7983, Longitude: -47.8755},
}

var origin = types.OriginAvailable(types.Coordinate{Lat: -15.7941, Lon: -47.8825})

func setupRecommenderTest() (*ServiceImpl, *MockClient) {
	client := new(MockClient)
	svc := NewServiceImpl(client, store.NewMemoryKV(), time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return svc, client
}

func expectPreferences(client *MockClient, userID int64) {
	client.On("Preferences", mock.Anything).Return([]types.Preference{{ID: 1, Name: "museus"}, {ID: 2, Name: "natureza"}}, nil)
	client.On("UserPreferences", mock.Anything, userID).Return([]types.Preference{{ID: 1, Name: "museus"}}, nil)
}

func ids(places []types.RankedPlace) []int64 {
	out := make([]int64, len(places))
	for i, p := range places {
		out[i] = p.ID
	}
	return out
}

func TestRecommendations_ServerOrderWithoutSort(t *testing.T) {
	svc, client := setupRecommenderTest()
	client.On("Recommendations", mock.Anything, int64(4)).Return(candidates, nil)
	expectPreferences(client, 4)

	view, err := svc.Recommendations(context.Background(), Query{UserID: 4, Origin: origin})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids(view.Places))
	assert.False(t, view.SortedByDistance)
	assert.NotNil(t, view.Places[0].DistanceKm)
	assert.False(t, view.ChooseEnabled)
	assert.Nil(t, view.ScheduleItemID)
	assert.Equal(t, []string{"museus"}, view.SelectedPreferences)
	assert.Len(t, view.PreferenceOptions, 2)
}

func TestRecommendations_SortByDistance(t *testing.T) {
	svc, client := setupRecommenderTest()
	client.On("Recommendations", mock.Anything, int64(4)).Return(candidates, nil)
	expectPreferences(client, 4)

	view, err := svc.Recommendations(context.Background(), Query{UserID: 4, Origin: origin, SortByDistance: true})
	require.NoError(t, err)
	assert.True(t, view.SortedByDistance)
	assert.Empty(t, view.Notice)
	assert.Equal(t, []int64{3, 2, 1}, ids(view.Places))
	for i := 1; i < len(view.Places); i++ {
		assert.LessOrEqual(t, *view.Places[i-1].DistanceKm, *view.Places[i].DistanceKm)
	}
	assert.Equal(t, int64(1), candidates[0].ID, "cached input must not be reordered")
}

func TestRecommendations_SortWithoutLocation(t *testing.T) {
	svc, client := setupRecommenderTest()
	client.On("Recommendations", mock.Anything, int64(4)).Return(candidates, nil)
	expectPreferences(client, 4)

	view, err := svc.Recommendations(context.Background(), Query{
		UserID:         4,
		Origin:         types.OriginUnavailable(types.OriginDenied),
		SortByDistance: true,
	})
	require.NoError(t, err)
	assert.False(t, view.SortedByDistance)
	assert.Equal(t, geo.NoLocationNotice, view.Notice)
	assert.Equal(t, []int64{1, 2, 3}, ids(view.Places))
	assert.Nil(t, view.Places[0].DistanceKm)
}

func TestRecommendations_SelectionTokenEnablesChoose(t *testing.T) {
	svc, client := setupRecommenderTest()
	client.On("Recommendations", mock.Anything, int64(4)).Return(candidates, nil)
	expectPreferences(client, 4)

	view, err := svc.Recommendations(context.Background(), Query{
		UserID: 4,
		Origin: origin,
		Token:  &types.SelectionToken{ActivityID: 7},
	})
	require.NoError(t, err)
	assert.True(t, view.ChooseEnabled)
	require.NotNil(t, view.ScheduleItemID)
	assert.Equal(t, int64(7), *view.ScheduleItemID)
}

func TestRecommendations_CachesCandidates(t *testing.T) {
	svc, client := setupRecommenderTest()
	client.On("Recommendations", mock.Anything, int64(4)).Return(candidates, nil).Once()
	expectPreferences(client, 4)

	for i := 0; i < 3; i++ {
		_, err := svc.Recommendations(context.Background(), Query{UserID: 4, Origin: origin})
		require.NoError(t, err)
	}
	client.AssertNumberOfCalls(t, "Recommendations", 1)

	svc.InvalidateCandidates(4)
	client.On("Recommendations", mock.Anything, int64(4)).Return(candidates, nil).Once()
	_, err := svc.Recommendations(context.Background(), Query{UserID: 4, Origin: origin})
	require.NoError(t, err)
	client.AssertNumberOfCalls(t, "Recommendations", 2)
}

func TestRecommendations_PreferenceFailuresDegrade(t *testing.T) {
	svc, client := setupRecommenderTest()
	client.On("Recommendations", mock.Anything, int64(4)).Return(candidates, nil)
	client.On("Preferences", mock.Anything).Return(nil, types.ErrUpstreamUnavailable)
	client.On("UserPreferences", mock.Anything, int64(4)).Return(nil, &types.UpstreamError{Status: 404})

	view, err := svc.Recommendations(context.Background(), Query{UserID: 4, Origin: origin})
	require.NoError(t, err)
	assert.Len(t, view.Places, 3)
	assert.Empty(t, view.PreferenceOptions)
	assert.NotNil(t, view.PreferenceOptions)
	assert.Empty(t, view.SelectedPreferences)
}

func TestRecommendations_FetchFailureIsNotCached(t *testing.T) {
	svc, client := setupRecommenderTest()
	client.On("Recommendations", mock.Anything, int64(4)).Return(nil, types.ErrUpstreamUnavailable).Once()
	client.On("Recommendations", mock.Anything, int64(4)).Return(candidates, nil).Once()
	expectPreferences(client, 4)

	_, err := svc.Recommendations(context.Background(), Query{UserID: 4, Origin: origin})
	assert.ErrorIs(t, err, types.ErrUpstreamUnavailable)

	view, err := svc.Recommendations(context.Background(), Query{UserID: 4, Origin: origin})
	require.NoError(t, err)
	assert.Len(t, view.Places, 3)
}

func TestRecommendations_LateResultIsDiscarded(t *testing.T) {
	svc, client := setupRecommenderTest()
	ctx, cancel := context.WithCancel(context.Background())
	client.On("Recommendations", mock.Anything, int64(4)).
		Run(func(mock.Arguments) { cancel() }).
		Return(candidates, nil).Twice()
	expectPreferences(client, 4)

	_, err := svc.Recommendations(ctx, Query{UserID: 4, Origin: origin})
	require.Error(t, err)
	assert.True(t, IsLate(err))

	// Nothing was cached, so the next screen load fetches again.
	_, err = svc.Recommendations(context.Background(), Query{UserID: 4, Origin: origin})
	require.NoError(t, err)
	client.AssertNumberOfCalls(t, "Recommendations", 2)
}

func TestSavePreferences(t *testing.T) {
	svc, client := setupRecommenderTest()
	client.On("Recommendations", mock.Anything, int64(4)).Return(candidates, nil).Twice()
	expectPreferences(client, 4)
	client.On("SavePreferences", mock.Anything, int64(4), []string{"natureza"}).Return(nil).Once()

	_, err := svc.Recommendations(context.Background(), Query{UserID: 4, Origin: origin})
	require.NoError(t, err)
	require.NoError(t, svc.SavePreferences(context.Background(), 4, []string{"natureza"}))
	_, err = svc.Recommendations(context.Background(), Query{UserID: 4, Origin: origin})
	require.NoError(t, err)
	client.AssertNumberOfCalls(t, "Recommendations", 2)

	client.On("SavePreferences", mock.Anything, int64(5), []string{"x"}).Return(errors.New("boom"))
	assert.Error(t, svc.SavePreferences(context.Background(), 5, []string{"x"}))
}

func TestViewedPlace(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupRecommenderTest()

	_, err := svc.ViewedPlace(ctx, "4")
	assert.ErrorIs(t, err, types.ErrNotFound)

	require.NoError(t, svc.ViewPlace(ctx, "4", candidates[2]))
	got, err := svc.ViewedPlace(ctx, "4")
	require.NoError(t, err)
	assert.Equal(t, candidates[2], got)
}

func TestPlaces(t *testing.T) {
	svc, client := setupRecommenderTest()
	client.On("Places", mock.Anything, types.PlaceFilter{Filter: "praia"}).Return(nil, nil)

	places, err := svc.Places(context.Background(), types.PlaceFilter{Filter: "praia"})
	require.NoError(t, err)
	assert.NotNil(t, places)
	assert.Empty(t, places)
}
