package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/foliolib/folio/internal/config"
	"github.com/foliolib/folio/internal/database"
	"github.com/foliolib/folio/internal/database/books"
	viewsdb "github.com/foliolib/folio/internal/database/views"
	"github.com/foliolib/folio/internal/views"
)

// ImportViewCommand creates a view from a YAML document.
type ImportViewCommand struct {
	FilePath     string
	DatabasePath string
	Overwrite    bool
}

// NewImportViewCommand creates a new ImportViewCommand
func NewImportViewCommand() *ImportViewCommand {
	return &ImportViewCommand{}
}

// ParseFlags parses command line flags
func (cmd *ImportViewCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import-view", flag.ExitOnError)

	fs.StringVar(&cmd.FilePath, "file", "", "YAML file to import (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the library database file")
	fs.BoolVar(&cmd.Overwrite, "overwrite", false, "Replace an existing view with the same name")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import-view -file <view.yaml> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a view from a YAML document produced by export-view.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.FilePath == "" {
		fs.Usage()
		return fmt.Errorf("-file is required")
	}
	return nil
}

// Run executes the import command
func (cmd *ImportViewCommand) Run() error {
	data, err := os.ReadFile(cmd.FilePath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", cmd.FilePath, err)
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	service := views.NewService(viewsdb.NewRepository(db.DB), books.NewRepository(db.DB))
	name, err := service.ImportYAML(data, cmd.Overwrite)
	if err != nil {
		return fmt.Errorf("failed to import view: %w", err)
	}

	fmt.Printf("✅ Imported view %q\n", name)
	return nil
}
