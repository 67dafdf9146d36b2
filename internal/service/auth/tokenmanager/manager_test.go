package tokenmanager

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agroview/agroview/internal/models"
	"github.com/agroview/agroview/internal/repository"
	"github.com/agroview/agroview/internal/repository/postgres"
	"github.com/agroview/agroview/internal/service/auth/tokencodec"
	"github.com/agroview/agroview/internal/testutil"
)

func mustCodec(t *testing.T, refreshTTL time.Duration) *tokencodec.Codec {
	t.Helper()

	codec, err := tokencodec.New(tokencodec.Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		RefreshTTL:    refreshTTL,
	})
	require.NoError(t, err, "codec should be created without errors")
	return codec
}

func Test_Manager(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	withTx := func(dbpool *pgxpool.Pool, t *testing.T, refreshTTL time.Duration, fn func(m *Manager, user models.User)) {
		testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
			userRepo := &postgres.UserRepo{DB: tx}
			refreshRepo := &postgres.RefreshTokenRepo{DB: tx}

			user, err := userRepo.CreateUser(t.Context(), repository.CreateUserParams{
				Name:           "João Silva",
				Email:          "joao@fazenda.com.br",
				HashedPassword: "hashed-password",
				UserType:       models.UserTypeProdutor,
			})
			require.NoError(t, err, "user should be created without errors")

			m, err := New(mustCodec(t, refreshTTL), userRepo, refreshRepo)
			require.NoError(t, err, "token manager should be created without errors")

			fn(m, user)
		})
	}

	t.Run("new requires deps", func(t *testing.T) {
		codec := mustCodec(t, 0)

		_, err := New(nil, &postgres.UserRepo{}, &postgres.RefreshTokenRepo{})
		require.Error(t, err, "nil codec should not be accepted")

		_, err = New(codec, nil, &postgres.RefreshTokenRepo{})
		require.Error(t, err, "nil user repo should not be accepted")

		_, err = New(codec, &postgres.UserRepo{}, nil)
		require.Error(t, err, "nil refresh repo should not be accepted")
	})

	t.Run("create", func(t *testing.T) {
		t.Run("issues and persists token", func(t *testing.T) {
			withTx(pg.Pool, t, 24*time.Hour, func(m *Manager, user models.User) {
				issued, err := m.Create(t.Context(), user.ID)
				require.NoError(t, err)

				assert.NotEmpty(t, issued.Value, "refresh token should not be empty")
				assert.WithinDuration(t, time.Now().Add(24*time.Hour), issued.ExpiresAt, time.Second)

				row, err := m.refreshRepo.Get(t.Context(), issued.Value)
				require.NoError(t, err, "issued token should be stored")
				assert.Equal(t, user.ID, row.UserID)
				assert.WithinDuration(t, issued.ExpiresAt, row.ExpiresAt, time.Second)
			})
		})

		t.Run("unknown user fails", func(t *testing.T) {
			withTx(pg.Pool, t, 24*time.Hour, func(m *Manager, _ models.User) {
				_, err := m.Create(t.Context(), uuid.New())
				require.Error(t, err, "token for unknown user must not be issued")
			})
		})

		t.Run("tokens are unique per call", func(t *testing.T) {
			withTx(pg.Pool, t, 24*time.Hour, func(m *Manager, user models.User) {
				first, err := m.Create(t.Context(), user.ID)
				require.NoError(t, err)
				second, err := m.Create(t.Context(), user.ID)
				require.NoError(t, err)

				assert.NotEqual(t, first.Value, second.Value)
			})
		})
	})

	t.Run("validate", func(t *testing.T) {
		t.Run("fresh token ok", func(t *testing.T) {
			withTx(pg.Pool, t, 24*time.Hour, func(m *Manager, user models.User) {
				issued, err := m.Create(t.Context(), user.ID)
				require.NoError(t, err)

				payload, ok := m.Validate(t.Context(), issued.Value)
				require.True(t, ok, "fresh token should validate")
				assert.Equal(t, user.ID, payload.UserID)
				assert.Equal(t, user.Email, payload.Email)
				assert.Equal(t, user.UserType, payload.UserType)
			})
		})

		t.Run("unknown token fails", func(t *testing.T) {
			withTx(pg.Pool, t, 24*time.Hour, func(m *Manager, _ models.User) {
				_, ok := m.Validate(t.Context(), "never-issued")
				require.False(t, ok)
			})
		})

		t.Run("revoked token fails", func(t *testing.T) {
			withTx(pg.Pool, t, 24*time.Hour, func(m *Manager, user models.User) {
				issued, err := m.Create(t.Context(), user.ID)
				require.NoError(t, err)

				require.NoError(t, m.Revoke(t.Context(), issued.Value))

				_, ok := m.Validate(t.Context(), issued.Value)
				require.False(t, ok, "revoked token must not validate")
			})
		})

		t.Run("stored expiry wins over signature", func(t *testing.T) {
			withTx(pg.Pool, t, 24*time.Hour, func(m *Manager, user models.User) {
				issued, err := m.Create(t.Context(), user.ID)
				require.NoError(t, err)

				// Move the clock to the stored expiry. The signature is
				// still good for almost a day, the row decides
				m.now = func() time.Time { return issued.ExpiresAt }

				_, ok := m.Validate(t.Context(), issued.Value)
				require.False(t, ok, "token expired in store must not validate")
			})
		})

		t.Run("valid just before expiry", func(t *testing.T) {
			withTx(pg.Pool, t, 24*time.Hour, func(m *Manager, user models.User) {
				issued, err := m.Create(t.Context(), user.ID)
				require.NoError(t, err)

				m.now = func() time.Time { return issued.ExpiresAt.Add(-time.Second) }

				_, ok := m.Validate(t.Context(), issued.Value)
				require.True(t, ok)
			})
		})
	})

	t.Run("rotate", func(t *testing.T) {
		t.Run("old token stops working", func(t *testing.T) {
			withTx(pg.Pool, t, 24*time.Hour, func(m *Manager, user models.User) {
				old, err := m.Create(t.Context(), user.ID)
				require.NoError(t, err)

				fresh, err := m.Rotate(t.Context(), old.Value, user.ID)
				require.NoError(t, err)

				assert.NotEqual(t, old.Value, fresh.Value, "rotation must issue a different token")

				_, ok := m.Validate(t.Context(), old.Value)
				assert.False(t, ok, "rotated out token must not validate")

				_, ok = m.Validate(t.Context(), fresh.Value)
				assert.True(t, ok, "fresh token should validate")
			})
		})
	})

	t.Run("revoke", func(t *testing.T) {
		t.Run("idempotent", func(t *testing.T) {
			withTx(pg.Pool, t, 24*time.Hour, func(m *Manager, user models.User) {
				issued, err := m.Create(t.Context(), user.ID)
				require.NoError(t, err)

				require.NoError(t, m.Revoke(t.Context(), issued.Value))
				require.NoError(t, m.Revoke(t.Context(), issued.Value), "second revoke is a no-op")
				require.NoError(t, m.Revoke(t.Context(), "never-issued"), "revoking unknown token is a no-op")
			})
		})

		t.Run("revoke all", func(t *testing.T) {
			withTx(pg.Pool, t, 24*time.Hour, func(m *Manager, user models.User) {
				first, err := m.Create(t.Context(), user.ID)
				require.NoError(t, err)
				second, err := m.Create(t.Context(), user.ID)
				require.NoError(t, err)

				require.NoError(t, m.RevokeAll(t.Context(), user.ID))

				_, ok := m.Validate(t.Context(), first.Value)
				assert.False(t, ok)
				_, ok = m.Validate(t.Context(), second.Value)
				assert.False(t, ok)
			})
		})
	})

	t.Run("cleanup expired", func(t *testing.T) {
		withTx(pg.Pool, t, 24*time.Hour, func(m *Manager, user models.User) {
			issued, err := m.Create(t.Context(), user.ID)
			require.NoError(t, err)

			// Nothing to sweep yet
			removed, err := m.CleanupExpired(t.Context())
			require.NoError(t, err)
			assert.Equal(t, int64(0), removed)

			// Advance the clock past the stored expiry and sweep again
			m.now = func() time.Time { return issued.ExpiresAt.Add(time.Second) }

			removed, err = m.CleanupExpired(t.Context())
			require.NoError(t, err)
			assert.Equal(t, int64(1), removed)

			_, err = m.refreshRepo.Get(t.Context(), issued.Value)
			require.Error(t, err, "swept token row should be gone")
		})
	})

	t.Run("state", func(t *testing.T) {
		withTx(pg.Pool, t, 24*time.Hour, func(m *Manager, user models.User) {
			issued, err := m.Create(t.Context(), user.ID)
			require.NoError(t, err)

			state, err := m.State(t.Context(), issued.Value)
			require.NoError(t, err)
			assert.Equal(t, models.TokenValid, state)

			// Expired by the clock but still stored
			m.now = func() time.Time { return issued.ExpiresAt }
			state, err = m.State(t.Context(), issued.Value)
			require.NoError(t, err)
			assert.Equal(t, models.TokenExpired, state)

			// Missing row reads as revoked
			state, err = m.State(t.Context(), "never-issued")
			require.NoError(t, err)
			assert.Equal(t, models.TokenRevoked, state)
		})
	})
}
