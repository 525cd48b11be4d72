package recommender

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appMiddleware "github.com/FACorreiaa/go-roteiro-planner/app/middleware"
	"github.com/FACorreiaa/go-roteiro-planner/internal/api/geolocation"
	"github.com/FACorreiaa/go-roteiro-planner/internal/types"
)

func setupRecommenderHandlerTest() (*HandlerImpl, *MockClient) {
	svc, client := setupRecommenderTest()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(svc, geolocation.NewRequestLocator(logger), logger), client
}

func authed(req *http.Request, userID string) *http.Request {
	return req.WithContext(appMiddleware.WithUserID(req.Context(), userID))
}

func TestGetRecommendationsHandler(t *testing.T) {
	h, client := setupRecommenderHandlerTest()
	client.On("Recommendations", mock.Anything, int64(4)).Return(candidates, nil)
	expectPreferences(client, 4)

	req := httptest.NewRequest(http.MethodGet,
		"/recommendations?sort=distance&lat=-15.7941&lon=-47.8825&scheduleItemId=7", nil)
	rr := httptest.NewRecorder()
	h.GetRecommendationsHandler(rr, authed(req, "4"))

	require.Equal(t, http.StatusOK, rr.Code)
	var view types.RecommendationsView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	assert.True(t, view.SortedByDistance)
	assert.True(t, view.ChooseEnabled)
	assert.Equal(t, int64(3), view.Places[0].ID)
}

func TestGetRecommendationsHandler_Errors(t *testing.T) {
	t.Run("non numeric user", func(t *testing.T) {
		h, _ := setupRecommenderHandlerTest()
		rr := httptest.NewRecorder()
		h.GetRecommendationsHandler(rr, authed(httptest.NewRequest(http.MethodGet, "/recommendations", nil), "abc"))
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	})

	t.Run("upstream down", func(t *testing.T) {
		h, client := setupRecommenderHandlerTest()
		client.On("Recommendations", mock.Anything, int64(4)).Return(nil, types.ErrUpstreamUnavailable)
		expectPreferences(client, 4)
		rr := httptest.NewRecorder()
		h.GetRecommendationsHandler(rr, authed(httptest.NewRequest(http.MethodGet, "/recommendations", nil), "4"))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.NotContains(t, rr.Body.String(), "roteiro api")
	})
}

func TestViewedPlaceHandlers(t *testing.T) {
	h, _ := setupRecommenderHandlerTest()

	rr := httptest.NewRecorder()
	h.GetViewedPlaceHandler(rr, authed(httptest.NewRequest(http.MethodGet, "/places/viewed", nil), "4"))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	body := `{"id":3,"name":"Catedral","description":"","latitude":-15.7983,"longitude":-47.8755}`
	rr = httptest.NewRecorder()
	h.ViewPlaceHandler(rr, authed(httptest.NewRequest(http.MethodPost, "/places/viewed", strings.NewReader(body)), "4"))
	require.Equal(t, http.StatusNoContent, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/places/viewed", nil)
	req.Header.Set(geolocation.HeaderStatus, "denied")
	rr = httptest.NewRecorder()
	h.GetViewedPlaceHandler(rr, authed(req, "4"))
	require.Equal(t, http.StatusOK, rr.Code)
	var resp types.ViewedPlaceResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "Catedral", resp.Place.Name)
	assert.Contains(t, resp.DirectionsURL, "maps/search")
}

func TestSavePreferencesHandler(t *testing.T) {
	h, client := setupRecommenderHandlerTest()
	client.On("SavePreferences", mock.Anything, int64(4), []string{"museus"}).Return(nil)

	req := httptest.NewRequest(http.MethodPut, "/preferences", strings.NewReader(`{"preferences":["museus"]}`))
	rr := httptest.NewRecorder()
	h.SavePreferencesHandler(rr, authed(req, "4"))
	assert.Equal(t, http.StatusOK, rr.Code)
	client.AssertExpectations(t)
}
