package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliolib/folio/internal/database"
	"github.com/foliolib/folio/internal/database/books"
)

func TestSplitFilename(t *testing.T) {
	tests := []struct {
		path   string
		author string
		title  string
	}{
		{"/books/Frank Herbert - Dune.epub", "Frank Herbert", "Dune"},
		{"/books/Dune.epub", "", "Dune"},
		{"/books/Some - Nested - Name.pdf", "Some", "Nested - Name"},
		{"/books/trailing space .epub", "", "trailing space"},
	}

	for _, tt := range tests {
		author, title := splitFilename(tt.path)
		assert.Equal(t, tt.author, author, tt.path)
		assert.Equal(t, tt.title, title, tt.path)
	}
}

func TestImportBooksRun(t *testing.T) {
	tmpDir := t.TempDir()
	libDir := filepath.Join(tmpDir, "library")
	require.NoError(t, os.MkdirAll(libDir, 0o755))

	require.NoError(t, os.WriteFile(filepath.Join(libDir, "Frank Herbert - Dune.epub"), []byte("epub bytes"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(libDir, "notes.md"), []byte("not an ebook"), 0o644))

	cmd := &ImportBooksCommand{
		Dir:          libDir,
		DatabasePath: filepath.Join(tmpDir, "library.db"),
		IndexPath:    filepath.Join(tmpDir, "library.bleve"),
	}
	require.NoError(t, cmd.Run())

	db, err := database.NewDatabase(cmd.DatabasePath)
	require.NoError(t, err)
	defer db.Close()

	repo := books.NewRepository(db.DB)
	all, err := repo.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Dune", all[0].Title)
	require.Len(t, all[0].Authors, 1)
	assert.Equal(t, "Frank Herbert", all[0].Authors[0].Name)
	require.Len(t, all[0].Files, 1)
	assert.Equal(t, "epub", all[0].Files[0].Format)
	assert.NotEmpty(t, all[0].Files[0].Hash)

	// Second run skips the already-registered file.
	require.NoError(t, cmd.Run())
	all, err = repo.All()
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestImportBooksDryRun(t *testing.T) {
	tmpDir := t.TempDir()
	libDir := filepath.Join(tmpDir, "library")
	require.NoError(t, os.MkdirAll(libDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(libDir, "Dune.epub"), []byte("epub bytes"), 0o644))

	cmd := &ImportBooksCommand{
		Dir:          libDir,
		DatabasePath: filepath.Join(tmpDir, "library.db"),
		IndexPath:    filepath.Join(tmpDir, "library.bleve"),
		DryRun:       true,
	}
	require.NoError(t, cmd.Run())

	db, err := database.NewDatabase(cmd.DatabasePath)
	require.NoError(t, err)
	defer db.Close()

	all, err := books.NewRepository(db.DB).All()
	require.NoError(t, err)
	assert.Empty(t, all)
}
