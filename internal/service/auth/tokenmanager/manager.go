package tokenmanager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/agroview/agroview/internal/apperrors"
	"github.com/agroview/agroview/internal/models"
	"github.com/agroview/agroview/internal/repository"
	"github.com/agroview/agroview/internal/service/auth/tokencodec"
)

// Manager orchestrates the refresh token lifecycle: issue, validate,
// rotate, revoke and sweep. It holds no state of its own, the token
// repository is the single source of truth: deleting a row revokes the
// token immediately, no matter what expiry is baked into the signature.
type Manager struct {
	codec       *tokencodec.Codec
	userRepo    repository.UserRepo
	refreshRepo repository.RefreshTokenRepo

	// now is the clock, replaceable in tests to hit expiry boundaries
	now func() time.Time
}

func New(codec *tokencodec.Codec, userRepo repository.UserRepo, refreshRepo repository.RefreshTokenRepo) (*Manager, error) {
	if codec == nil {
		return nil, errors.New("token codec must not be nil")
	}
	if userRepo == nil || refreshRepo == nil {
		return nil, errors.New("repos must not be nil")
	}

	return &Manager{
		codec:       codec,
		userRepo:    userRepo,
		refreshRepo: refreshRepo,
		now:         time.Now,
	}, nil
}

// Create issues a refresh token for the user and persists it.
// Returns apperrors.ErrUserNotFound if the user does not exist.
func (m *Manager) Create(ctx context.Context, userID uuid.UUID) (models.IssuedToken, error) {
	user, err := m.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while looking up token owner. Err: %w", err)
	}

	issued, err := m.codec.IssueRefresh(models.TokenPayload{
		UserID:   user.ID,
		Email:    user.Email,
		UserType: user.UserType,
	})
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing refresh token. Err: %w", err)
	}

	_, err = m.refreshRepo.Save(ctx, models.RefreshToken{
		Token:     issued.Value,
		UserID:    user.ID,
		CreatedAt: m.now().Truncate(time.Second),
		ExpiresAt: issued.ExpiresAt,
	})
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while saving refresh token. Err: %w", err)
	}

	return issued, nil
}

// Validate reports whether the token is good to use and returns its payload.
// Invalid conditions (unknown token, stored expiry passed, bad signature)
// come back as ok=false, never as an error: the caller decides the status.
// The stored expiry is checked, not the one embedded in the signature.
func (m *Manager) Validate(ctx context.Context, tokenString string) (models.TokenPayload, bool) {
	row, err := m.refreshRepo.Get(ctx, tokenString)
	if err != nil {
		return models.TokenPayload{}, false
	}

	if row.StateAt(m.now()) != models.TokenValid {
		return models.TokenPayload{}, false
	}

	payload, err := m.codec.VerifyRefresh(tokenString)
	if err != nil {
		return models.TokenPayload{}, false
	}

	return payload, true
}

// Rotate revokes the old token and issues a fresh one for the same user.
// The two steps are sequential, not atomic: a crash in between leaves the
// user with no valid refresh token, which fails safe (re-login works).
func (m *Manager) Rotate(ctx context.Context, oldToken string, userID uuid.UUID) (models.IssuedToken, error) {
	if err := m.Revoke(ctx, oldToken); err != nil {
		return models.IssuedToken{}, err
	}

	return m.Create(ctx, userID)
}

// Revoke deletes the token row. Revoking an unknown or already revoked
// token is a no-op, not an error.
func (m *Manager) Revoke(ctx context.Context, tokenString string) error {
	_, err := m.refreshRepo.Delete(ctx, tokenString)
	if err != nil {
		return fmt.Errorf("error while revoking refresh token. Err: %w", err)
	}
	return nil
}

// RevokeAll deletes every refresh token of the user ("logout everywhere")
func (m *Manager) RevokeAll(ctx context.Context, userID uuid.UUID) error {
	_, err := m.refreshRepo.DeleteForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("error while revoking user tokens. Err: %w", err)
	}
	return nil
}

// CleanupExpired removes rows whose stored expiry has passed.
// Called once at process start; not scheduled.
func (m *Manager) CleanupExpired(ctx context.Context) (int64, error) {
	removed, err := m.refreshRepo.DeleteExpired(ctx, m.now())
	if err != nil {
		return 0, fmt.Errorf("error while sweeping expired tokens. Err: %w", err)
	}
	return removed, nil
}

// State derives the lifecycle state of the token from the store.
// A missing row means revoked (terminal); otherwise the stored expiry decides.
func (m *Manager) State(ctx context.Context, tokenString string) (models.TokenState, error) {
	row, err := m.refreshRepo.Get(ctx, tokenString)
	switch {
	case err == nil:
		return row.StateAt(m.now()), nil
	case errors.Is(err, apperrors.ErrRefreshTokenNotFound):
		return models.TokenRevoked, nil
	default:
		return models.TokenRevoked, err
	}
}
