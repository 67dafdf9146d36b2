package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenExpired  = errors.New("refresh token is expired")
	ErrTokenInvalid         = errors.New("token is invalid")
	ErrTokenExpired         = errors.New("token is expired")

	ErrGrainTypeInvalid   = errors.New("grain type is invalid")
	ErrAnalysisNotFound   = errors.New("analysis not found")
	ErrNotEnoughAnalyses  = errors.New("at least 2 analyses required for comparison")
	ErrImageTypeInvalid   = errors.New("image type is not allowed")
	ErrImageTooLarge      = errors.New("image exceeds maximum allowed size")
)
