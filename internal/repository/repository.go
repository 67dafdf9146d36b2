package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agroview/agroview/internal/models"
)

type CreateUserParams struct {
	Name           string
	Email          string
	HashedPassword string
	UserType       models.UserType
}

type UpdateUserParams struct {
	// Nil fields are left unchanged
	Name  *string
	Email *string
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with email exists already has to return error apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, arg CreateUserParams) (models.User, error)

	// Get user by it's id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// Update user profile fields and bump updated_at
	// Email uniqueness violation must return apperrors.ErrUserAlreadyExists
	UpdateUser(ctx context.Context, userID uuid.UUID, arg UpdateUserParams) (models.User, error)
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	// Save token row
	Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error)

	// Return the token row even if expired
	// If no row exists must return apperrors.ErrRefreshTokenNotFound
	Get(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Delete rows matching the token string
	// Must not fail if nothing matched; returns the number of rows removed
	Delete(ctx context.Context, tokenString string) (int64, error)

	// Delete every row owned by the user
	DeleteForUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// Delete rows with expires_at <= now
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type CreateAnalysisParams struct {
	UserID             uuid.UUID
	GrainType          string
	TotalGrains        int
	HealthyGrains      int
	DefectiveGrains    int
	DefectsBreakdown   models.DefectsBreakdown
	PurityPercentage   decimal.Decimal
	ImpurityPercentage decimal.Decimal
	ImageURL           string
}

// Analysis repository interface
// Every read is scoped by the owning user
type AnalysisRepo interface {
	Create(ctx context.Context, arg CreateAnalysisParams) (models.Analysis, error)

	// If not found (or owned by someone else) must return apperrors.ErrAnalysisNotFound
	GetByID(ctx context.Context, id uuid.UUID, userID uuid.UUID) (models.Analysis, error)

	// Newest first, at most limit rows
	List(ctx context.Context, userID uuid.UUID, limit int) ([]models.Analysis, error)
	ListByGrainType(ctx context.Context, userID uuid.UUID, grainType string, limit int) ([]models.Analysis, error)

	// Rows matching ids and owned by userID; missing ids are silently absent
	ListByIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]models.Analysis, error)

	Stats(ctx context.Context, userID uuid.UUID) (models.AnalysisStats, error)

	// If not found must return apperrors.ErrAnalysisNotFound
	Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
}

// Storage aggregates the repositories over a single connection or transaction
type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
	Analysis() AnalysisRepo

	// InTx runs fn with a Storage bound to one transaction
	InTx(ctx context.Context, fn func(Storage) error) error
}
