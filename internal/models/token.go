package models

import (
	"time"

	"github.com/google/uuid"
)

// TokenPayload is carried inside both access and refresh tokens.
// It is never persisted directly: verification reconstructs it from the
// signed token string.
type TokenPayload struct {
	UserID   uuid.UUID
	Email    string
	UserType UserType
}

// RefreshToken as persisted. The signed token string is the primary key.
type RefreshToken struct {
	Token     string
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// TokenState is the derived lifecycle state of a refresh token.
// A token is never stored with a state column: the state follows from
// row presence and the stored expiry.
type TokenState int

const (
	// TokenValid: row exists and expiry is in the future
	TokenValid TokenState = iota
	// TokenExpired: row exists but expiry passed; invalid even before the sweep
	TokenExpired
	// TokenRevoked: no row; terminal
	TokenRevoked
)

func (s TokenState) String() string {
	switch s {
	case TokenValid:
		return "valid"
	case TokenExpired:
		return "expired"
	case TokenRevoked:
		return "revoked"
	}
	return "unknown"
}

// StateAt derives the token state at the given moment.
// The expiry boundary is inclusive: a token expiring exactly now is expired.
func (t RefreshToken) StateAt(now time.Time) TokenState {
	if !t.ExpiresAt.After(now) {
		return TokenExpired
	}
	return TokenValid
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by the auth service on register, login or refresh
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
