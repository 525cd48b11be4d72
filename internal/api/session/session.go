// Package session signs in against the roteiro API and issues the token that
// carries the user identifier.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-roteiro-planner/config"
	"github.com/FACorreiaa/go-roteiro-planner/internal/api"
	"github.com/FACorreiaa/go-roteiro-planner/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Login(ctx context.Context, email, password string) (types.SessionResponse, error)
}

// Authenticator checks credentials against the account owner.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (types.User, error)
}

type ServiceImpl struct {
	logger   *slog.Logger
	accounts Authenticator
	cfg      config.JWTConfig
	now      func() time.Time
}

func NewServiceImpl(accounts Authenticator, cfg config.JWTConfig, logger *slog.Logger) *ServiceImpl {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &ServiceImpl{logger: logger, accounts: accounts, cfg: cfg, now: time.Now}
}

// Login verifies the credentials with the roteiro API and signs a token for
// the account it returns.
func (s *ServiceImpl) Login(ctx context.Context, email, password string) (types.SessionResponse, error) {
	ctx, span := otel.Tracer("SessionService").Start(ctx, "Login")
	defer span.End()
	l := s.logger.With(slog.String("method", "Login"))

	email = strings.TrimSpace(email)
	verr := &types.ValidationError{}
	if email == "" {
		verr.Add("email", "Enter your email.")
	}
	if password == "" {
		verr.Add("password", "Enter your password.")
	}
	if len(verr.Fields) > 0 {
		span.SetStatus(codes.Error, "Missing credentials")
		return types.SessionResponse{}, verr
	}

	user, err := s.accounts.Login(ctx, email, password)
	if err != nil {
		var uerr *types.UpstreamError
		if errors.As(err, &uerr) && rejectsCredentials(uerr.Status) {
			l.InfoContext(ctx, "Login rejected", slog.Int("upstream_status", uerr.Status))
			span.SetStatus(codes.Error, "Invalid credentials")
			return types.SessionResponse{}, fmt.Errorf("login: %w", types.ErrInvalidCredentials)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Login failed")
		return types.SessionResponse{}, fmt.Errorf("login: %w", err)
	}
	if user.ID <= 0 {
		l.WarnContext(ctx, "Login answered without a user id")
		span.SetStatus(codes.Error, "Missing user id")
		return types.SessionResponse{}, fmt.Errorf("login returned no user id: %w", types.ErrUpstreamUnavailable)
	}

	return s.issue(ctx, strconv.FormatInt(user.ID, 10))
}

func rejectsCredentials(status int) bool {
	switch status {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return false
}

// issue signs an HS256 token for userID.
func (s *ServiceImpl) issue(ctx context.Context, userID string) (types.SessionResponse, error) {
	now := s.now()
	claims := types.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TTL)),
		},
	}
	if s.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.cfg.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.SecretKey))
	if err != nil {
		return types.SessionResponse{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	s.logger.InfoContext(ctx, "Session issued", slog.String("userID", userID))
	return types.SessionResponse{
		AccessToken: signed,
		UserID:      userID,
		ExpiresIn:   int64(s.cfg.TTL.Seconds()),
	}, nil
}

type HandlerImpl struct {
	logger  *slog.Logger
	service Service
}

func NewHandler(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{logger: logger, service: service}
}

func (h *HandlerImpl) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("SessionHandler").Start(r.Context(), "CreateSession")
	defer span.End()
	l := h.logger.With(slog.String("handler", "CreateSessionHandler"))

	var req types.LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, api.UnreadableBodyMessage)
		return
	}

	resp, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to issue session")
		api.ServiceErrorResponse(w, r, l, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusCreated, resp)
}
