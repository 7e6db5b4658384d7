package refresh_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/hr-dashboard/internal/config"
	"github.com/jrsteele09/hr-dashboard/token/refresh"
	refreshrepofake "github.com/jrsteele09/hr-dashboard/token/refresh/repofake"
	"github.com/stretchr/testify/require"
)

func setupManager(t *testing.T) (*refresh.Manager, refresh.Repo) {
	t.Helper()
	vars := config.Defaults()
	vars.RefreshTokenLength = 16
	vars.RefreshTokenExpiry = time.Hour
	repo := refreshrepofake.NewFakeRefreshTokenRepo()
	return refresh.NewManager(repo, config.FromVars(vars)), repo
}

func TestManager_Create(t *testing.T) {
	m, repo := setupManager(t)

	first, err := m.Create(7, "s1")
	require.NoError(t, err)
	require.Len(t, first, 32)

	stored, err := m.Get(first)
	require.NoError(t, err)
	require.Equal(t, int64(7), stored.UserID)
	require.Equal(t, "s1", stored.SessionID)

	t.Run("one token per user", func(t *testing.T) {
		second, err := m.Create(7, "s2")
		require.NoError(t, err)
		require.NotEqual(t, first, second)

		_, err = m.Get(first)
		require.ErrorIs(t, err, refresh.ErrNotFound)

		list, err := repo.List(0, 0)
		require.NoError(t, err)
		require.Len(t, list, 1)
	})

	t.Run("delete for user without token", func(t *testing.T) {
		require.NoError(t, m.DeleteForUser(99))
	})
}

func TestManager_DeleteSession(t *testing.T) {
	m, _ := setupManager(t)

	tok, err := m.Create(3, "current")
	require.NoError(t, err)

	t.Run("other session", func(t *testing.T) {
		deleted, err := m.DeleteSession(3, "earlier")
		require.NoError(t, err)
		require.False(t, deleted)
		_, err = m.Get(tok)
		require.NoError(t, err)
	})

	t.Run("same session", func(t *testing.T) {
		deleted, err := m.DeleteSession(3, "current")
		require.NoError(t, err)
		require.True(t, deleted)
		_, err = m.Get(tok)
		require.ErrorIs(t, err, refresh.ErrNotFound)
	})

	t.Run("user without token", func(t *testing.T) {
		deleted, err := m.DeleteSession(42, "current")
		require.NoError(t, err)
		require.False(t, deleted)
	})
}

func TestManager_IsExpired(t *testing.T) {
	m, _ := setupManager(t)
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	refresh.NowTimeFunc = func() time.Time { return now }
	t.Cleanup(func() { refresh.NowTimeFunc = time.Now })

	tok, err := m.Create(1, "s1")
	require.NoError(t, err)
	rt, err := m.Get(tok)
	require.NoError(t, err)

	require.False(t, m.IsExpired(rt))
	now = now.Add(2 * time.Hour)
	require.True(t, m.IsExpired(rt))
}

func TestFakeRefreshTokenRepo_List(t *testing.T) {
	repo := refreshrepofake.NewFakeRefreshTokenRepo()
	base := time.Now()
	for i := int64(1); i <= 5; i++ {
		require.NoError(t, repo.Upsert(&refresh.StoredRefreshToken{
			Token:  string(rune('a' + i)),
			UserID: i,
			Iat:    base.Add(time.Duration(i) * time.Minute),
		}))
	}

	page, err := repo.List(1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, int64(2), page[0].UserID)
	require.Equal(t, int64(3), page[1].UserID)

	page, err = repo.List(4, 10)
	require.NoError(t, err)
	require.Len(t, page, 1)

	page, err = repo.List(5, 10)
	require.NoError(t, err)
	require.Empty(t, page)
}
