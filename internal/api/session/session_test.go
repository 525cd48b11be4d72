package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appMiddleware "github.com/FACorreiaa/go-roteiro-planner/app/middleware"
	"github.com/FACorreiaa/go-roteiro-planner/config"
	"github.com/FACorreiaa/go-roteiro-planner/internal/types"
)

var testJWT = config.JWTConfig{SecretKey: "test-secret", Issuer: "roteiro-planner", TTL: time.Hour}

// MockAuthenticator is a mock implementation of Authenticator
type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Login(ctx context.Context, email, password string) (types.User, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(types.User), args.Error(1)
}

func setupSessionTest() (*MockAuthenticator, *HandlerImpl, *slog.Logger) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	accounts := new(MockAuthenticator)
	return accounts, NewHandler(NewServiceImpl(accounts, testJWT, logger), logger), logger
}

func createSession(h *HandlerImpl, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.CreateSessionHandler(rr, httptest.NewRequest(http.MethodPost, "/session", strings.NewReader(body)))
	return rr
}

func TestIssuedTokenPassesAuthenticate(t *testing.T) {
	accounts, h, logger := setupSessionTest()
	accounts.On("Login", mock.Anything, "ana@example.com", "segredo").Return(types.User{ID: 12}, nil)

	rr := createSession(h, `{"email":" ana@example.com ","password":"segredo"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp types.SessionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "12", resp.UserID)
	assert.Equal(t, int64(3600), resp.ExpiresIn)

	var seen string
	protected := appMiddleware.Authenticate(logger, testJWT)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = appMiddleware.UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodGet, "/draft", nil)
	req.Header.Set("Authorization", "Bearer "+resp.AccessToken)
	rr = httptest.NewRecorder()
	protected.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "12", seen)
	accounts.AssertExpectations(t)
}

func TestCreateSessionHandler_UnknownLogin(t *testing.T) {
	accounts, h, _ := setupSessionTest()
	rejected := fmt.Errorf("Login: %w", &types.UpstreamError{Status: http.StatusUnauthorized, Detail: "Email ou senha inválidos"})
	accounts.On("Login", mock.Anything, "ana@example.com", "errada").Return(types.User{}, rejected)

	rr := createSession(h, `{"email":"ana@example.com","password":"errada"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "The email or password is incorrect.")
	assert.NotContains(t, rr.Body.String(), "access_token")
}

func TestCreateSessionHandler_Rejects(t *testing.T) {
	accounts, h, _ := setupSessionTest()

	t.Run("missing credentials", func(t *testing.T) {
		rr := createSession(h, `{"email":"  ","password":""}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Contains(t, rr.Body.String(), `"email"`)
		assert.Contains(t, rr.Body.String(), `"password"`)
	})

	t.Run("user id alone is not a login", func(t *testing.T) {
		rr := createSession(h, `{"user_id":"7"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	accounts.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogin_UpstreamFailures(t *testing.T) {
	tests := []struct {
		name string
		user types.User
		err  error
		want error
	}{
		{"unreachable", types.User{}, fmt.Errorf("dial: %w", types.ErrUpstreamUnavailable), types.ErrUpstreamUnavailable},
		{"no user id", types.User{}, nil, types.ErrUpstreamUnavailable},
		{"server error is not a bad password", types.User{}, &types.UpstreamError{Status: http.StatusInternalServerError}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := new(MockAuthenticator)
			accounts.On("Login", mock.Anything, "a@b.c", "x").Return(tt.user, tt.err)
			svc := NewServiceImpl(accounts, testJWT, slog.New(slog.NewTextHandler(io.Discard, nil)))

			_, err := svc.Login(context.Background(), "a@b.c", "x")
			require.Error(t, err)
			assert.False(t, errors.Is(err, types.ErrInvalidCredentials))
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}
