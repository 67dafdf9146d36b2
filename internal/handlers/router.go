package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/agroview/agroview/internal/handlers/middleware"
	"github.com/agroview/agroview/internal/handlers/render"
	"github.com/agroview/agroview/internal/imagestore"
	"github.com/agroview/agroview/internal/logger"
	"github.com/agroview/agroview/internal/models"
	"github.com/agroview/agroview/internal/service/analysis"
	"github.com/agroview/agroview/internal/service/auth"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type RouterConfig struct {
	AuthService     authService
	AnalysisService analysisService
	Reports         reportGenerator
	Images          imagestore.Store

	// Directory served under /uploads/images when the disk store is used.
	// Empty disables static serving (e.g. images live in S3)
	StaticImageDir string

	Environment string
	Logger      logger.Logger
}

func NewRouter(c RouterConfig) http.Handler {
	authMiddleware := middleware.AuthMiddleware(c.AuthService)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}

	apiauth := http.NewServeMux()
	apiauth.Handle("POST /register", handleRegister(c.AuthService, c.Logger))
	apiauth.Handle("POST /login", handleLogin(c.AuthService, c.Logger))
	apiauth.Handle("POST /refresh-token", handleTokenRefresh(c.AuthService, c.Logger))
	apiauth.Handle("POST /logout", handleLogout(c.AuthService, c.Logger))
	apiauth.Handle("POST /logout-all", withAuth(handleLogoutAll(c.AuthService, c.Logger)))
	apiauth.Handle("GET /profile", withAuth(handleGetProfile(c.AuthService, c.Logger)))
	apiauth.Handle("PUT /profile", withAuth(handleUpdateProfile(c.AuthService, c.Logger)))

	apiimages := http.NewServeMux()
	apiimages.Handle("POST /process", withAuth(handleProcessImage(c.AnalysisService, c.Images, c.Logger)))
	apiimages.Handle("GET /formats", withAuth(handleSupportedFormats()))

	apianalyses := http.NewServeMux()
	apianalyses.Handle("GET /{$}", withAuth(handleAnalysisHistory(c.AnalysisService, c.Logger)))
	apianalyses.Handle("GET /recent", withAuth(handleRecentAnalyses(c.AnalysisService, c.Logger)))
	apianalyses.Handle("GET /stats", withAuth(handleAnalysisStats(c.AnalysisService, c.Logger)))
	apianalyses.Handle("GET /grain-type/{grainType}", withAuth(handleAnalysesByGrainType(c.AnalysisService, c.Logger)))
	apianalyses.Handle("GET /{id}", withAuth(handleAnalysisByID(c.AnalysisService, c.Logger)))
	apianalyses.Handle("GET /{id}/report", withAuth(handleAnalysisReport(c.AnalysisService, c.Reports, c.Logger)))
	apianalyses.Handle("POST /compare", withAuth(handleCompareAnalyses(c.AnalysisService, c.Logger)))
	apianalyses.Handle("DELETE /{id}", withAuth(handleDeleteAnalysis(c.AnalysisService, c.Logger)))

	root := http.NewServeMux()
	root.Handle("/api/auth/", http.StripPrefix("/api/auth", apiauth))
	root.Handle("/api/images/", http.StripPrefix("/api/images", apiimages))
	root.Handle("/api/analyses/", http.StripPrefix("/api/analyses", apianalyses))
	root.Handle("GET /health", handleHealth(c.Environment))

	if c.StaticImageDir != "" {
		root.Handle("GET "+imagestore.URLPrefix+"/", http.StripPrefix(imagestore.URLPrefix+"/", http.FileServer(http.Dir(c.StaticImageDir))))
	}

	root.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render.Error(w, "Route not found: "+r.Method+" "+r.URL.Path, render.CodeRouteNotFound, http.StatusNotFound)
	}))

	handler := chain(root,
		middleware.LoggerMiddleware(c.Logger),
	)

	return handler
}

type authService interface {
	// Register user; has to return apperrors.ErrUserAlreadyExists on a duplicate email
	Register(ctx context.Context, arg auth.RegisterParams) (auth.Result, error)

	// Login; has to return apperrors.ErrInvalidCredentials for unknown email or wrong password
	Login(ctx context.Context, email string, password string) (auth.Result, error)

	// Exchange a refresh token for a fresh pair, rotating the refresh token
	// Has to return apperrors.ErrRefreshTokenNotFound for any invalid token
	Refresh(ctx context.Context, refreshToken string) (auth.Result, error)

	// Revoke a single token (idempotent) or all tokens of the user
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, userID uuid.UUID) error

	// Resolve the request's bearer token to a user
	Authenticate(ctx context.Context, r *http.Request) (models.User, error)

	Profile(ctx context.Context, userID uuid.UUID) (models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, arg auth.UpdateProfileParams) (models.User, error)
}

type analysisService interface {
	Process(ctx context.Context, userID uuid.UUID, imageURL string, grainType string) (models.Analysis, error)
	History(ctx context.Context, userID uuid.UUID, limit int) ([]models.Analysis, error)
	Recent(ctx context.Context, userID uuid.UUID) ([]models.Analysis, error)
	ByID(ctx context.Context, id uuid.UUID, userID uuid.UUID) (models.Analysis, error)
	ByGrainType(ctx context.Context, userID uuid.UUID, grainType string) ([]models.Analysis, error)
	Stats(ctx context.Context, userID uuid.UUID) (models.AnalysisStats, error)
	Compare(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (analysis.Comparison, error)
	Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
}

type reportGenerator interface {
	Generate(analysis models.Analysis) ([]byte, error)
}
