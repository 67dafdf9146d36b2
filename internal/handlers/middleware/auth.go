package middleware

import (
	"context"
	"net/http"

	"github.com/agroview/agroview/internal/handlers/render"
	"github.com/agroview/agroview/internal/handlers/userctx"
	"github.com/agroview/agroview/internal/models"
)

type authService interface {
	Authenticate(ctx context.Context, r *http.Request) (models.User, error)
}

// AuthMiddleware resolves the bearer access token and puts the user into
// the request context. Anything short of a valid token is a 401.
func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				render.Error(w, "Access token required", render.CodeMissingToken, http.StatusUnauthorized)
				return
			}

			user, err := as.Authenticate(r.Context(), r)
			if err != nil {
				render.Error(w, "Invalid or expired token", render.CodeInvalidToken, http.StatusUnauthorized)
				return
			}

			ctx := userctx.New(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
