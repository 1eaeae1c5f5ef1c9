package views

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/foliolib/folio/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	dbPath := "./test_views_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&entities.View{},
		&entities.ViewOverride{},
	)
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func TestRepository_CreateAndGetByName(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	view := &entities.View{Name: "shelf", Description: "my shelf", Definition: `{"select":"all"}`}
	require.NoError(t, repo.Create(view))
	assert.NotZero(t, view.ID)

	got, err := repo.GetByName("shelf")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "my shelf", got.Description)
	assert.Equal(t, `{"select":"all"}`, got.Definition)

	missing, err := repo.GetByName("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepository_ListOrderedByName(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, repo.Create(&entities.View{Name: "zeta", Definition: "{}"}))
	require.NoError(t, repo.Create(&entities.View{Name: "alpha", Definition: "{}"}))

	list, err := repo.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, "zeta", list[1].Name)
}

func TestRepository_SaveClearsCachedCount(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	count := 7
	now := time.Now()
	view := &entities.View{Name: "shelf", Definition: "{}", CachedCount: &count, CachedAt: &now}
	require.NoError(t, repo.Create(view))

	view.CachedCount = nil
	view.CachedAt = nil
	require.NoError(t, repo.Save(view))

	got, err := repo.GetByName("shelf")
	require.NoError(t, err)
	assert.Nil(t, got.CachedCount)
	assert.Nil(t, got.CachedAt)
}

func TestRepository_DeleteCascadesOverrides(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	view := &entities.View{Name: "shelf", Definition: "{}"}
	require.NoError(t, repo.Create(view))

	title := "T"
	require.NoError(t, repo.SaveOverride(&entities.ViewOverride{ViewID: view.ID, BookID: 1, Title: &title}))
	require.NoError(t, repo.SaveOverride(&entities.ViewOverride{ViewID: view.ID, BookID: 2, Title: &title}))

	deleted, err := repo.Delete("shelf")
	require.NoError(t, err)
	assert.True(t, deleted)

	overrides, err := repo.GetOverrides(view.ID)
	require.NoError(t, err)
	assert.Empty(t, overrides)

	deleted, err = repo.Delete("shelf")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestRepository_OverrideUpsertAndClear(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	view := &entities.View{Name: "shelf", Definition: "{}"}
	require.NoError(t, repo.Create(view))

	title := "Display Title"
	pos := 3
	require.NoError(t, repo.SaveOverride(&entities.ViewOverride{ViewID: view.ID, BookID: 9, Title: &title, Position: &pos}))

	got, err := repo.GetOverride(view.ID, 9)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Display Title", *got.Title)
	assert.Equal(t, 3, *got.Position)

	// saving again for the same pair updates the existing row, and a
	// cleared field reaches the database as NULL
	got.Position = nil
	require.NoError(t, repo.SaveOverride(got))

	again, err := repo.GetOverride(view.ID, 9)
	require.NoError(t, err)
	assert.Equal(t, got.ID, again.ID)
	assert.Nil(t, again.Position)
	assert.Equal(t, "Display Title", *again.Title)

	rows, err := repo.GetOverrides(view.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRepository_DeleteOverride(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	view := &entities.View{Name: "shelf", Definition: "{}"}
	require.NoError(t, repo.Create(view))

	title := "T"
	require.NoError(t, repo.SaveOverride(&entities.ViewOverride{ViewID: view.ID, BookID: 5, Title: &title}))

	deleted, err := repo.DeleteOverride(view.ID, 5)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.DeleteOverride(view.ID, 5)
	require.NoError(t, err)
	assert.False(t, deleted)
}
