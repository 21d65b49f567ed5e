package data

import (
	"context"
	"testing"

	domainauth "github.com/danxi/authgate/internal/domain/auth"
	"github.com/danxi/authgate/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKVRepo_Integration(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	repo := NewKVRepo(db, "authgate:")
	ctx := context.Background()

	t.Run("missing keys report not found", func(t *testing.T) {
		var rec domainauth.UserRecord
		found, err := repo.GetObject(ctx, "userInfo", &rec)
		require.NoError(t, err)
		assert.False(t, found)

		_, found, err = repo.GetString(ctx, "token")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("objects round trip and overwrite", func(t *testing.T) {
		first := domainauth.UserRecord{ID: "a", DisplayName: "A", Group: domainauth.GroupVisitor}
		second := domainauth.UserRecord{ID: "b", DisplayName: "B", Group: domainauth.GroupFudanStaff}
		require.NoError(t, repo.SetObject(ctx, "userInfo", first))
		require.NoError(t, repo.SetObject(ctx, "userInfo", second))

		var got domainauth.UserRecord
		found, err := repo.GetObject(ctx, "userInfo", &got)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, second, got)
	})

	t.Run("strings are prefixed on disk", func(t *testing.T) {
		require.NoError(t, repo.SetString(ctx, "token", "abc"))

		var stored string
		err := db.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = $1`, "authgate:token").Scan(&stored)
		require.NoError(t, err)
		assert.Equal(t, "abc", stored)

		require.NoError(t, repo.Delete(ctx, "token"))
		_, found, err := repo.GetString(ctx, "token")
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestKVRepo_EmptyKey(t *testing.T) {
	repo := NewKVRepo(nil, "")
	_, _, err := repo.GetString(context.Background(), "")
	assert.Error(t, err)
	assert.Error(t, repo.SetString(context.Background(), "", "v"))
}
