package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/guidesync/guidesync/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupEpgSourceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.EpgSource{})
	require.NoError(t, err)

	return db
}

func TestEpgSourceRepo_Create(t *testing.T) {
	db := setupEpgSourceTestDB(t)
	repo := NewEpgSourceRepository(db)
	ctx := context.Background()

	source := &models.EpgSource{
		Name: "Test EPG",
		URL:  "http://example.com/epg.xml",
	}

	err := repo.Create(ctx, source)
	require.NoError(t, err)
	assert.False(t, source.ID.IsZero())
}

func TestEpgSourceRepo_GetByID(t *testing.T) {
	db := setupEpgSourceTestDB(t)
	repo := NewEpgSourceRepository(db)
	ctx := context.Background()

	source := &models.EpgSource{
		Name: "Find Me EPG",
		URL:  "http://example.com/find.xml",
	}
	require.NoError(t, repo.Create(ctx, source))

	t.Run("found", func(t *testing.T) {
		found, err := repo.GetByID(ctx, source.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "Find Me EPG", found.Name)
	})

	t.Run("not found", func(t *testing.T) {
		found, err := repo.GetByID(ctx, models.NewULID())
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestEpgSourceRepo_GetByName(t *testing.T) {
	db := setupEpgSourceTestDB(t)
	repo := NewEpgSourceRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.EpgSource{
		Name: "named",
		URL:  "http://example.com/named.xml",
	}))

	found, err := repo.GetByName(ctx, "named")
	require.NoError(t, err)
	require.NotNil(t, found)

	missing, err := repo.GetByName(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestEpgSourceRepo_GetEnabled(t *testing.T) {
	db := setupEpgSourceTestDB(t)
	repo := NewEpgSourceRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.EpgSource{
		Name: "enabled", URL: "http://example.com/a.xml", Priority: 1,
	}))
	require.NoError(t, repo.Create(ctx, &models.EpgSource{
		Name: "disabled", URL: "http://example.com/b.xml", Enabled: models.BoolPtr(false),
	}))

	enabled, err := repo.GetEnabled(ctx)
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, "enabled", enabled[0].Name)

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestEpgSourceRepo_RecordSync(t *testing.T) {
	db := setupEpgSourceTestDB(t)
	repo := NewEpgSourceRepository(db)
	ctx := context.Background()

	source := &models.EpgSource{Name: "sync", URL: "http://example.com/sync.xml"}
	require.NoError(t, repo.Create(ctx, source))

	t.Run("success updates counts and clears error", func(t *testing.T) {
		require.NoError(t, repo.RecordSync(ctx, source.ID, 17, nil))

		got, err := repo.GetByID(ctx, source.ID)
		require.NoError(t, err)
		assert.Equal(t, 17, got.ChannelCount)
		assert.NotNil(t, got.LastSyncAt)
		assert.Empty(t, got.LastError)
	})

	t.Run("failure keeps previous sync data", func(t *testing.T) {
		require.NoError(t, repo.RecordSync(ctx, source.ID, 0, errors.New("download failed")))

		got, err := repo.GetByID(ctx, source.ID)
		require.NoError(t, err)
		assert.Equal(t, 17, got.ChannelCount)
		assert.NotNil(t, got.LastSyncAt)
		assert.Equal(t, "download failed", got.LastError)
	})
}

func TestEpgSourceRepo_Delete(t *testing.T) {
	db := setupEpgSourceTestDB(t)
	repo := NewEpgSourceRepository(db)
	ctx := context.Background()

	source := &models.EpgSource{Name: "doomed", URL: "http://example.com/doomed.xml"}
	require.NoError(t, repo.Create(ctx, source))

	require.NoError(t, repo.Delete(ctx, source.ID))

	found, err := repo.GetByID(ctx, source.ID)
	require.NoError(t, err)
	assert.Nil(t, found)
}
