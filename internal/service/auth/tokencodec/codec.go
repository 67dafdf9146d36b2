package tokencodec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/agroview/agroview/internal/apperrors"
	"github.com/agroview/agroview/internal/models"
)

const (
	defaultSigningMethod   = "HS256"
	defaultAccessTokenTTL  = 1 * time.Hour
	defaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Claims carried by both token kinds
type Claims struct {
	jwt.RegisteredClaims
	UserID   uuid.UUID       `json:"uid"`
	Email    string          `json:"email"`
	UserType models.UserType `json:"userType"`
}

// Codec configuration with sensible defaults
type Config struct {
	// Secret keys, one per token kind
	// Both required to be set
	AccessSecret  string
	RefreshSecret string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Codec signs and verifies access and refresh tokens.
// It is a pure transform: no side effects, safe for concurrent use.
type Codec struct {
	accessKey  []byte
	refreshKey []byte

	alg jwt.SigningMethod

	accessTTL  time.Duration
	refreshTTL time.Duration
}

func New(cfg Config) (*Codec, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("secret keys must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	return &Codec{
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(cfg.RefreshSecret),
		alg:        jwt.GetSigningMethod(cfg.Alg),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}, nil
}

// RefreshTTL reports the configured refresh token lifetime
func (c *Codec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

func (c *Codec) IssueAccess(payload models.TokenPayload) (models.IssuedToken, error) {
	return c.issue(payload, c.accessKey, c.accessTTL)
}

func (c *Codec) IssueRefresh(payload models.TokenPayload) (models.IssuedToken, error) {
	return c.issue(payload, c.refreshKey, c.refreshTTL)
}

func (c *Codec) issue(payload models.TokenPayload, key []byte, ttl time.Duration) (models.IssuedToken, error) {
	now := time.Now().Truncate(time.Second)
	expiresAt := now.Add(ttl)

	token := jwt.NewWithClaims(
		c.alg,
		Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			UserID:   payload.UserID,
			Email:    payload.Email,
			UserType: payload.UserType,
		},
	)
	signed, err := token.SignedString(key)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing token. Err: %w", err)
	}

	return models.IssuedToken{Value: signed, ExpiresAt: expiresAt}, nil
}

func (c *Codec) VerifyAccess(tokenString string) (models.TokenPayload, error) {
	return c.verify(tokenString, c.accessKey)
}

func (c *Codec) VerifyRefresh(tokenString string) (models.TokenPayload, error) {
	return c.verify(tokenString, c.refreshKey)
}

func (c *Codec) verify(tokenString string, key []byte) (models.TokenPayload, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{c.alg.Alg()}),
	)

	switch {
	case err == nil:
		return models.TokenPayload{
			UserID:   claims.UserID,
			Email:    claims.Email,
			UserType: claims.UserType,
		}, nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return models.TokenPayload{}, fmt.Errorf("%w: %w", apperrors.ErrTokenExpired, err)
	default:
		return models.TokenPayload{}, fmt.Errorf("%w: %w", apperrors.ErrTokenInvalid, err)
	}
}
