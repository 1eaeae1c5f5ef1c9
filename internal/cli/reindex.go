package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/foliolib/folio/internal/config"
	"github.com/foliolib/folio/internal/database"
	"github.com/foliolib/folio/internal/database/books"
	"github.com/foliolib/folio/internal/search"
)

// ReindexCommand rebuilds the full-text search index from the database.
type ReindexCommand struct {
	DatabasePath string
	IndexPath    string
}

// NewReindexCommand creates a new ReindexCommand
func NewReindexCommand() *ReindexCommand {
	return &ReindexCommand{}
}

// ParseFlags parses command line flags
func (cmd *ReindexCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("reindex", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the library database file")
	fs.StringVar(&cmd.IndexPath, "index", config.DefaultIndexPath, "Path to the full-text search index")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s reindex [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Rebuild the full-text search index from the book database.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

// Run executes the reindex command
func (cmd *ReindexCommand) Run() error {
	fmt.Println("🔎 Rebuilding search index")

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	index, err := search.OpenIndex(cmd.IndexPath)
	if err != nil {
		return fmt.Errorf("failed to open search index: %w", err)
	}
	defer index.Close()

	service := search.NewService(index, books.NewRepository(db.DB))
	count, err := service.Reindex()
	if err != nil {
		return fmt.Errorf("failed to rebuild index: %w", err)
	}

	fmt.Printf("✅ Indexed %d books\n", count)
	return nil
}
