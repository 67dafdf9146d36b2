package integration

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/agroview/agroview/internal/handlers"
	"github.com/agroview/agroview/internal/imagestore"
	"github.com/agroview/agroview/internal/logger"
	"github.com/agroview/agroview/internal/repository/postgres"
	"github.com/agroview/agroview/internal/service/analysis"
	"github.com/agroview/agroview/internal/service/auth"
	"github.com/agroview/agroview/internal/service/auth/tokencodec"
	"github.com/agroview/agroview/internal/service/auth/tokenmanager"
	"github.com/agroview/agroview/internal/service/report"
	"github.com/agroview/agroview/internal/testutil"
)

type Services struct {
	AuthService     *auth.AuthService
	AnalysisService *analysis.AnalysisService
	TokenManager    *tokenmanager.Manager
}

// Create db transaction and run server with that connection (one connection cause one transaction)
// The whole API surface is wired exactly like production, minus the real listener
func ServeWithTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, s Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		// Initialize repositories
		userRepo := &postgres.UserRepo{DB: tx}
		refreshRepo := &postgres.RefreshTokenRepo{DB: tx}
		analysisRepo := &postgres.AnalysisRepo{DB: tx}

		// Initialize services
		codec, err := tokencodec.New(tokencodec.Config{
			AccessSecret:  "test-access-secret",
			RefreshSecret: "test-refresh-secret",
		})
		require.NoError(t, err, "token codec should be created without errors")

		tokenManager, err := tokenmanager.New(codec, userRepo, refreshRepo)
		require.NoError(t, err, "token manager should be created without errors")

		as, err := auth.NewService(auth.Config{}, tokenManager, codec, userRepo)
		require.NoError(t, err, "auth service starting error")

		ans, err := analysis.NewService(nil, analysisRepo)
		require.NoError(t, err, "analysis service starting error")

		images, err := imagestore.NewDisk(t.TempDir())
		require.NoError(t, err, "disk image store starting error")

		// Complete all together as router
		router := handlers.NewRouter(handlers.RouterConfig{
			AuthService:     as,
			AnalysisService: ans,
			Reports:         report.NewGenerator(),
			Images:          images,
			StaticImageDir:  images.Dir(),
			Environment:     logger.EnvDevelopment,
			Logger:          logger.NewNoOpLogger(),
		})

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{
			AuthService:     as,
			AnalysisService: ans,
			TokenManager:    tokenManager,
		})
	})
}
