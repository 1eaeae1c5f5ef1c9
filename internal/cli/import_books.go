package cli

import (
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/foliolib/folio/internal/config"
	"github.com/foliolib/folio/internal/database"
	"github.com/foliolib/folio/internal/database/books"
	"github.com/foliolib/folio/internal/entities"
	"github.com/foliolib/folio/internal/search"
)

// ebookExtensions lists the file formats the importer registers.
var ebookExtensions = map[string]bool{
	".epub": true,
	".pdf":  true,
	".mobi": true,
	".azw3": true,
	".fb2":  true,
	".cbz":  true,
	".txt":  true,
}

// ImportBooksCommand registers ebook files from a directory into the library.
type ImportBooksCommand struct {
	Dir          string
	DatabasePath string
	IndexPath    string
	DryRun       bool
	Verbose      bool
}

// NewImportBooksCommand creates a new ImportBooksCommand
func NewImportBooksCommand() *ImportBooksCommand {
	return &ImportBooksCommand{}
}

// ParseFlags parses command line flags
func (cmd *ImportBooksCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import-books", flag.ExitOnError)

	fs.StringVar(&cmd.Dir, "dir", "", "Directory to scan for ebook files (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the library database file")
	fs.StringVar(&cmd.IndexPath, "index", config.DefaultIndexPath, "Path to the full-text search index")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Show what would be imported without making changes")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import-books -dir <directory> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Scan a directory for ebook files and register them in the library.\n")
		fmt.Fprintf(os.Stderr, "Files already known (by content hash) are skipped, so the command is\n")
		fmt.Fprintf(os.Stderr, "safe to re-run. Filenames of the form \"Author - Title.epub\" set the\n")
		fmt.Fprintf(os.Stderr, "author; otherwise the whole filename becomes the title.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import-books -dir ~/Books\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import-books -dir ~/Books -dry-run -verbose\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Dir == "" {
		fs.Usage()
		return fmt.Errorf("-dir is required")
	}
	return nil
}

// Run executes the import command
func (cmd *ImportBooksCommand) Run() error {
	fmt.Println("📚 Importing books")
	fmt.Println("==================")

	if cmd.DryRun {
		fmt.Println("🔍 DRY RUN MODE - No changes will be made")
		fmt.Println()
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	repo := books.NewRepository(db.DB)

	var files []string
	err = filepath.WalkDir(cmd.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && ebookExtensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", cmd.Dir, err)
	}

	fmt.Printf("📁 Found %d ebook files under %s\n", len(files), cmd.Dir)

	imported, skipped := 0, 0
	var indexable []entities.Book
	for _, path := range files {
		hash, size, err := hashFile(path)
		if err != nil {
			fmt.Printf("⚠️  Skipping %s: %v\n", path, err)
			continue
		}

		existing, err := repo.FindFileByHash(hash)
		if err != nil {
			return fmt.Errorf("failed to check hash for %s: %w", path, err)
		}
		if existing != nil {
			if cmd.Verbose {
				fmt.Printf("⏭️  Already registered: %s\n", path)
			}
			skipped++
			continue
		}

		author, title := splitFilename(path)
		if cmd.DryRun {
			fmt.Printf("➕ Would import: %s (%s)\n", title, path)
			imported++
			continue
		}

		book := entities.Book{
			Title: title,
			Files: []entities.BookFile{{
				Format:    strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
				Path:      path,
				SizeBytes: size,
				Hash:      hash,
			}},
		}
		if author != "" {
			book.Authors = []entities.Author{{Name: author}}
		}

		if err := repo.Create(&book); err != nil {
			return fmt.Errorf("failed to import %s: %w", path, err)
		}
		indexable = append(indexable, book)
		imported++

		if cmd.Verbose {
			fmt.Printf("➕ Imported: %s (%s)\n", title, path)
		}
	}

	if !cmd.DryRun && len(indexable) > 0 {
		index, err := search.OpenIndex(cmd.IndexPath)
		if err != nil {
			return fmt.Errorf("failed to open search index: %w", err)
		}
		defer index.Close()

		if err := index.IndexBooks(indexable); err != nil {
			return fmt.Errorf("failed to index imported books: %w", err)
		}
	}

	fmt.Printf("\n✅ Done: %d imported, %d already present\n", imported, skipped)
	return nil
}

// hashFile returns the SHA-256 content hash and size of a file.
func hashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), size, nil
}

// splitFilename derives (author, title) from an "Author - Title.ext"
// filename. Without the separator the whole stem is the title.
func splitFilename(path string) (author, title string) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if before, after, found := strings.Cut(stem, " - "); found {
		return strings.TrimSpace(before), strings.TrimSpace(after)
	}
	return "", strings.TrimSpace(stem)
}
