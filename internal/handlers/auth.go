package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/agroview/agroview/internal/apperrors"
	"github.com/agroview/agroview/internal/handlers/render"
	"github.com/agroview/agroview/internal/handlers/userctx"
	"github.com/agroview/agroview/internal/logger"
	"github.com/agroview/agroview/internal/models"
	"github.com/agroview/agroview/internal/service/auth"
)

type userResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	UserType  string `json:"userType"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

func toUserResponse(u models.User) userResponse {
	return userResponse{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		UserType:  string(u.UserType),
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
		UpdatedAt: u.UpdatedAt.Format(time.RFC3339),
	}
}

type authResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
	User         userResponse `json:"user"`
}

func toAuthResponse(r auth.Result) authResponse {
	return authResponse{
		Token:        r.Pair.Access.Value,
		RefreshToken: r.Pair.Refresh.Value,
		User:         toUserResponse(r.User),
	}
}

func handleRegister(as authService, l logger.Logger) http.Handler {
	type request struct {
		Name     string `json:"name" validate:"required,min=2,max=100"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=6"`
		UserType string `json:"userType" validate:"required,usertype"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		result, err := as.Register(r.Context(), auth.RegisterParams{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			UserType: models.UserType(req.UserType),
		})

		switch {
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.Error(w, "Email already in use", render.CodeConflict, http.StatusConflict)
		case err != nil:
			l.Error("failed to register user", "error", err)
			render.Error(w, "Internal server error", render.CodeInternal, http.StatusInternalServerError)
		default:
			render.JSONWithStatus(w, toAuthResponse(result), http.StatusCreated)
		}
	})
}

func handleLogin(as authService, l logger.Logger) http.Handler {
	type request struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		result, err := as.Login(r.Context(), req.Email, req.Password)

		switch {
		case errors.Is(err, apperrors.ErrInvalidCredentials):
			render.Error(w, "Invalid email or password", render.CodeUnauthorized, http.StatusUnauthorized)
		case err != nil:
			l.Error("failed to login user", "error", err)
			render.Error(w, "Internal server error", render.CodeInternal, http.StatusInternalServerError)
		default:
			render.JSON(w, toAuthResponse(result))
		}
	})
}

func handleTokenRefresh(as authService, l logger.Logger) http.Handler {
	type request struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		result, err := as.Refresh(r.Context(), req.RefreshToken)

		switch {
		case errors.Is(err, apperrors.ErrRefreshTokenNotFound),
			errors.Is(err, apperrors.ErrRefreshTokenExpired),
			errors.Is(err, apperrors.ErrUserNotFound):
			render.Error(w, "Invalid or expired refresh token", render.CodeInvalidToken, http.StatusUnauthorized)
		case err != nil:
			l.Error("failed to refresh token", "error", err)
			render.Error(w, "Internal server error", render.CodeInternal, http.StatusInternalServerError)
		default:
			render.JSON(w, toAuthResponse(result))
		}
	})
}

func handleLogout(as authService, l logger.Logger) http.Handler {
	type request struct {
		RefreshToken string `json:"refreshToken"`
	}

	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Logout is idempotent: a missing or malformed body still succeeds
		var req request
		_ = json.NewDecoder(r.Body).Decode(&req)

		if req.RefreshToken != "" {
			if err := as.Logout(r.Context(), req.RefreshToken); err != nil {
				l.Error("failed to logout", "error", err)
				render.Error(w, "Internal server error", render.CodeInternal, http.StatusInternalServerError)
				return
			}
		}

		render.JSON(w, response{Message: "Logged out successfully"})
	})
}

func handleLogoutAll(as authService, l logger.Logger) http.Handler {
	type response struct {
		Message string `json:"message"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.Error(w, "Authentication required", render.CodeUnauthorized, http.StatusUnauthorized)
			return
		}

		if err := as.LogoutAll(r.Context(), user.ID); err != nil {
			l.Error("failed to logout from all devices", "error", err)
			render.Error(w, "Internal server error", render.CodeInternal, http.StatusInternalServerError)
			return
		}

		render.JSON(w, response{Message: "Logged out from all devices"})
	})
}

func handleGetProfile(as authService, l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.Error(w, "Authentication required", render.CodeUnauthorized, http.StatusUnauthorized)
			return
		}

		profile, err := as.Profile(r.Context(), user.ID)

		switch {
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.Error(w, "User not found", render.CodeNotFound, http.StatusNotFound)
		case err != nil:
			l.Error("failed to get profile", "error", err)
			render.Error(w, "Internal server error", render.CodeInternal, http.StatusInternalServerError)
		default:
			render.JSON(w, toUserResponse(profile))
		}
	})
}

func handleUpdateProfile(as authService, l logger.Logger) http.Handler {
	type request struct {
		Name  *string `json:"name" validate:"omitempty,min=2,max=100"`
		Email *string `json:"email" validate:"omitempty,email"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := userctx.FromContext(r.Context())
		if !ok {
			render.Error(w, "Authentication required", render.CodeUnauthorized, http.StatusUnauthorized)
			return
		}

		req, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		updated, err := as.UpdateProfile(r.Context(), user.ID, auth.UpdateProfileParams{
			Name:  req.Name,
			Email: req.Email,
		})

		switch {
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.Error(w, "Email already in use", render.CodeConflict, http.StatusConflict)
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.Error(w, "User not found", render.CodeNotFound, http.StatusNotFound)
		case err != nil:
			l.Error("failed to update profile", "error", err)
			render.Error(w, "Internal server error", render.CodeInternal, http.StatusInternalServerError)
		default:
			render.JSON(w, toUserResponse(updated))
		}
	})
}
