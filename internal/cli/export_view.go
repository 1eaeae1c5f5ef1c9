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

// ExportViewCommand writes a view definition as a YAML document.
type ExportViewCommand struct {
	Name         string
	DatabasePath string
	OutputPath   string
}

// NewExportViewCommand creates a new ExportViewCommand
func NewExportViewCommand() *ExportViewCommand {
	return &ExportViewCommand{}
}

// ParseFlags parses command line flags
func (cmd *ExportViewCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("export-view", flag.ExitOnError)

	fs.StringVar(&cmd.Name, "name", "", "Name of the view to export (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the library database file")
	fs.StringVar(&cmd.OutputPath, "output", "", "Output file (default: stdout)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s export-view -name <view> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Export a view definition (and its per-book overrides) as YAML,\n")
		fmt.Fprintf(os.Stderr, "suitable for import-view on another library.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Name == "" {
		fs.Usage()
		return fmt.Errorf("-name is required")
	}
	return nil
}

// Run executes the export command
func (cmd *ExportViewCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	service := views.NewService(viewsdb.NewRepository(db.DB), books.NewRepository(db.DB))
	data, err := service.ExportYAML(cmd.Name)
	if err != nil {
		return fmt.Errorf("failed to export view %q: %w", cmd.Name, err)
	}

	if cmd.OutputPath == "" {
		_, err = os.Stdout.Write(data)
		return err
	}

	if err := os.WriteFile(cmd.OutputPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", cmd.OutputPath, err)
	}
	fmt.Printf("✅ Exported view %q to %s\n", cmd.Name, cmd.OutputPath)
	return nil
}
