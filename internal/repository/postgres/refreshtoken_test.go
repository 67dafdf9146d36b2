package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/agroview/agroview/internal/apperrors"
	"github.com/agroview/agroview/internal/models"
	"github.com/agroview/agroview/internal/repository"
	"github.com/agroview/agroview/internal/testutil"
)

func mustParseTime(value string) time.Time {
	dt, err := time.Parse("2006-01-02 15:04:05Z07:00", value)
	if err != nil {
		panic(err)
	}
	return dt
}

// createTestUser inserts a token owner, the refresh_tokens table has a FK on users
func createTestUser(t *testing.T, tx pgx.Tx, email string) models.User {
	t.Helper()

	user, err := (&UserRepo{DB: tx}).CreateUser(t.Context(), repository.CreateUserParams{
		Name:           "João Silva",
		Email:          email,
		HashedPassword: "hashed-password",
		UserType:       models.UserTypeProdutor,
	})
	require.NoError(t, err, "user should be created without errors")
	return user
}

func Test_RefreshTokenRepo(t *testing.T) {
	t.Parallel() // It's ok to run in parallel with other tests, but not with subtests

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	newToken := func(user models.User, value string) models.RefreshToken {
		return models.RefreshToken{
			Token:     value,
			UserID:    user.ID,
			CreatedAt: mustParseTime("2024-01-01 19:00:01Z"),
			ExpiresAt: mustParseTime("2200-01-01 03:00:02Z"),
		}
	}

	t.Run("save token ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}
			user := createTestUser(t, tx, "joao@fazenda.com.br")
			token := newToken(user, "secret-token")

			got, err := repo.Save(t.Context(), token)

			require.NoError(t, err)
			require.Equal(t, token.Token, got.Token)
			require.Equal(t, token.UserID, got.UserID)
			require.WithinDuration(t, token.CreatedAt, got.CreatedAt, time.Microsecond)
			require.WithinDuration(t, token.ExpiresAt, got.ExpiresAt, time.Microsecond)
		})
	})

	t.Run("get token ok", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}
			user := createTestUser(t, tx, "joao@fazenda.com.br")
			token := newToken(user, "secret-token")

			_, err := repo.Save(t.Context(), token)
			require.NoError(t, err)

			got, err := repo.Get(t.Context(), token.Token)

			require.NoError(t, err)
			require.Equal(t, token.Token, got.Token)
			require.Equal(t, token.UserID, got.UserID)
			require.WithinDuration(t, token.CreatedAt, got.CreatedAt, 0)
			require.WithinDuration(t, token.ExpiresAt, got.ExpiresAt, 0)
		})
	})

	t.Run("get returns expired rows too", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}
			user := createTestUser(t, tx, "joao@fazenda.com.br")
			token := newToken(user, "expired-token")
			token.ExpiresAt = mustParseTime("2024-01-02 19:00:01Z")

			_, err := repo.Save(t.Context(), token)
			require.NoError(t, err)

			got, err := repo.Get(t.Context(), token.Token)
			require.NoError(t, err, "expired row should still be readable, state is derived by the caller")
			require.Equal(t, models.TokenExpired, got.StateAt(time.Now()))
		})
	})

	t.Run("get not existed token fails", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}

			_, err := repo.Get(t.Context(), "never-saved")
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
		})
	})

	t.Run("delete", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}
			user := createTestUser(t, tx, "joao@fazenda.com.br")

			_, err := repo.Save(t.Context(), newToken(user, "secret-token"))
			require.NoError(t, err)

			deleted, err := repo.Delete(t.Context(), "secret-token")
			require.NoError(t, err)
			require.Equal(t, int64(1), deleted)

			deleted, err = repo.Delete(t.Context(), "secret-token")
			require.NoError(t, err, "deleting missing token is not an error")
			require.Equal(t, int64(0), deleted)
		})
	})

	t.Run("delete for user", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}
			user := createTestUser(t, tx, "joao@fazenda.com.br")
			other := createTestUser(t, tx, "maria@cooperativa.com.br")

			_, err := repo.Save(t.Context(), newToken(user, "token-one"))
			require.NoError(t, err)
			_, err = repo.Save(t.Context(), newToken(user, "token-two"))
			require.NoError(t, err)
			_, err = repo.Save(t.Context(), newToken(other, "token-other"))
			require.NoError(t, err)

			deleted, err := repo.DeleteForUser(t.Context(), user.ID)
			require.NoError(t, err)
			require.Equal(t, int64(2), deleted)

			_, err = repo.Get(t.Context(), "token-other")
			require.NoError(t, err, "other user's token should survive")
		})
	})

	t.Run("delete expired", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}
			user := createTestUser(t, tx, "joao@fazenda.com.br")

			fresh := newToken(user, "fresh-token")
			expired := newToken(user, "expired-token")
			expired.ExpiresAt = mustParseTime("2024-01-02 19:00:01Z")

			_, err := repo.Save(t.Context(), fresh)
			require.NoError(t, err)
			_, err = repo.Save(t.Context(), expired)
			require.NoError(t, err)

			deleted, err := repo.DeleteExpired(t.Context(), time.Now())
			require.NoError(t, err)
			require.Equal(t, int64(1), deleted)

			_, err = repo.Get(t.Context(), "fresh-token")
			require.NoError(t, err)
			_, err = repo.Get(t.Context(), "expired-token")
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound)
		})
	})

	t.Run("tokens removed with token owner", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := RefreshTokenRepo{DB: tx}
			user := createTestUser(t, tx, "joao@fazenda.com.br")

			_, err := repo.Save(t.Context(), newToken(user, "secret-token"))
			require.NoError(t, err)

			_, err = tx.Exec(t.Context(), "DELETE FROM users WHERE id = $1", user.ID)
			require.NoError(t, err)

			_, err = repo.Get(t.Context(), "secret-token")
			require.ErrorIs(t, err, apperrors.ErrRefreshTokenNotFound, "cascade should remove the token rows")
		})
	})
}
