package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/agroview/agroview/internal/db"
	"github.com/agroview/agroview/internal/handlers"
	"github.com/agroview/agroview/internal/imagestore"
	"github.com/agroview/agroview/internal/logger"
	"github.com/agroview/agroview/internal/repository/postgres"
	"github.com/agroview/agroview/internal/service/analysis"
	"github.com/agroview/agroview/internal/service/auth"
	"github.com/agroview/agroview/internal/service/auth/tokencodec"
	"github.com/agroview/agroview/internal/service/auth/tokenmanager"
	"github.com/agroview/agroview/internal/service/report"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	codec, err := tokencodec.New(tokencodec.Config{
		AccessSecret:  c.AccessSecretKey,
		RefreshSecret: c.RefreshSecretKey,
		AccessTTL:     c.AccessTokenTTL,
		RefreshTTL:    c.RefreshTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating token codec. Err: %w", err)
	}

	tokenManager, err := tokenmanager.New(codec, storage.User(), storage.Refresh())
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	// Drop refresh tokens that expired while the service was down
	if removed, err := tokenManager.CleanupExpired(ctx); err != nil {
		logger.Warn("failed to cleanup expired refresh tokens", "error", err)
	} else if removed > 0 {
		logger.Info("removed expired refresh tokens", "count", removed)
	}

	authService, err := auth.NewService(auth.Config{}, tokenManager, codec, storage.User())
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	analysisService, err := analysis.NewService(nil, storage.Analysis())
	if err != nil {
		return nil, fmt.Errorf("error while creating analysis service. Err: %w", err)
	}

	images, staticDir, err := newImageStore(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("error while creating image store. Err: %w", err)
	}

	mux := handlers.NewRouter(handlers.RouterConfig{
		AuthService:     authService,
		AnalysisService: analysisService,
		Reports:         report.NewGenerator(),
		Images:          images,
		StaticImageDir:  staticDir,
		Environment:     c.Environment,
		Logger:          logger,
	})

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
	}, nil
}

// newImageStore picks S3 when a bucket is configured, local disk otherwise.
// The returned dir is empty for S3: nothing to serve statically
func newImageStore(ctx context.Context, c *Config) (imagestore.Store, string, error) {
	if c.S3Bucket != "" {
		store, err := imagestore.NewS3(ctx, imagestore.S3Config{
			Endpoint:  c.S3Endpoint,
			Region:    c.S3Region,
			Bucket:    c.S3Bucket,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
		})
		return store, "", err
	}

	store, err := imagestore.NewDisk(c.UploadDir)
	if err != nil {
		return nil, "", err
	}
	return store, store.Dir(), nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
