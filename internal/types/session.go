package types

import "github.com/golang-jwt/jwt/v5"

// Claims carries the opaque user identifier inside the session token.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// LoginRequest carries the credentials checked by the roteiro API.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User is the account returned by the roteiro API on login.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type SessionResponse struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"user_id"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Response is a generic success/error envelope.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
