package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/agroview/agroview/internal/apperrors"
	"github.com/agroview/agroview/internal/models"
	"github.com/agroview/agroview/internal/repository"
	"github.com/agroview/agroview/internal/service/auth/tokencodec"
	"github.com/agroview/agroview/internal/service/auth/tokenmanager"
)

const bearerScheme = "Bearer"

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type Config struct {
	// Hasher to use during registration or login
	// Defaults to BcryptHasher if not set
	Hasher PasswordHasher
}

type RegisterParams struct {
	Name     string
	Email    string
	Password string
	UserType models.UserType
}

type UpdateProfileParams struct {
	// Nil fields are left unchanged
	Name  *string
	Email *string
}

// Result of a successful register, login or refresh:
// the authenticated user plus a fresh token pair
type Result struct {
	User models.User
	Pair models.TokenPair
}

// Auth service. Thin orchestration over the token manager and user repo,
// holds no mutable state and is safe for concurrent use.
type AuthService struct {
	tokens   *tokenmanager.Manager
	codec    *tokencodec.Codec
	hasher   PasswordHasher
	userRepo repository.UserRepo
}

func NewService(cfg Config, tokens *tokenmanager.Manager, codec *tokencodec.Codec, userRepo repository.UserRepo) (*AuthService, error) {
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	if tokens == nil || codec == nil || userRepo == nil {
		return nil, errors.New("token manager, codec and user repo must not be nil")
	}

	return &AuthService{
		tokens:   tokens,
		codec:    codec,
		hasher:   hasher,
		userRepo: userRepo,
	}, nil
}

func (s *AuthService) Register(ctx context.Context, arg RegisterParams) (Result, error) {
	hash, err := s.hasher.Hash(arg.Password)
	if err != nil {
		return Result{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, repository.CreateUserParams{
		Name:           arg.Name,
		Email:          arg.Email,
		HashedPassword: hash,
		UserType:       arg.UserType,
	})
	if err != nil {
		return Result{}, err
	}

	return s.issuePair(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, email string, password string) (Result, error) {
	// Ignore the lookup error: comparing against the empty hash below
	// fails the same way, so unknown email and wrong password are
	// indistinguishable to the caller
	user, _ := s.userRepo.GetUserByEmail(ctx, email)

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return Result{}, apperrors.ErrInvalidCredentials
	}

	return s.issuePair(ctx, user)
}

// Refresh exchanges a valid refresh token for a fresh pair, rotating the
// refresh token: the presented one stops working even before its expiry.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (Result, error) {
	payload, ok := s.tokens.Validate(ctx, refreshToken)
	if !ok {
		return Result{}, apperrors.ErrRefreshTokenNotFound
	}

	user, err := s.userRepo.GetUserByID(ctx, payload.UserID)
	if err != nil {
		return Result{}, fmt.Errorf("token owner lookup failed. Err: %w", err)
	}

	refresh, err := s.tokens.Rotate(ctx, refreshToken, user.ID)
	if err != nil {
		return Result{}, fmt.Errorf("token rotation failed. Err: %w", err)
	}

	access, err := s.codec.IssueAccess(models.TokenPayload{
		UserID:   user.ID,
		Email:    user.Email,
		UserType: user.UserType,
	})
	if err != nil {
		return Result{}, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	return Result{User: user, Pair: models.TokenPair{Access: access, Refresh: refresh}}, nil
}

// Logout revokes the refresh token. Idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.Revoke(ctx, refreshToken)
}

// LogoutAll revokes every refresh token of the user
func (s *AuthService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	return s.tokens.RevokeAll(ctx, userID)
}

// Authenticate resolves the request's bearer access token to a user
func (s *AuthService) Authenticate(ctx context.Context, r *http.Request) (models.User, error) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, bearerScheme) || token == "" {
		return models.User{}, apperrors.ErrTokenInvalid
	}

	payload, err := s.codec.VerifyAccess(token)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.userRepo.GetUserByID(ctx, payload.UserID)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %w", apperrors.ErrTokenInvalid, err)
	}

	return user, nil
}

func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (models.User, error) {
	return s.userRepo.GetUserByID(ctx, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID uuid.UUID, arg UpdateProfileParams) (models.User, error) {
	return s.userRepo.UpdateUser(ctx, userID, repository.UpdateUserParams{
		Name:  arg.Name,
		Email: arg.Email,
	})
}

func (s *AuthService) issuePair(ctx context.Context, user models.User) (Result, error) {
	access, err := s.codec.IssueAccess(models.TokenPayload{
		UserID:   user.ID,
		Email:    user.Email,
		UserType: user.UserType,
	})
	if err != nil {
		return Result{}, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	refresh, err := s.tokens.Create(ctx, user.ID)
	if err != nil {
		return Result{}, fmt.Errorf("error while issuing refresh token. Err: %w", err)
	}

	return Result{User: user, Pair: models.TokenPair{Access: access, Refresh: refresh}}, nil
}
