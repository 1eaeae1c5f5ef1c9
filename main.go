package main

import (
	"fmt"
	"os"

	"github.com/foliolib/folio/internal/cli"
	"github.com/foliolib/folio/internal/config"
	"github.com/foliolib/folio/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "import-books":
		runCommand(cli.NewImportBooksCommand(), args)

	case "export-view":
		runCommand(cli.NewExportViewCommand(), args)

	case "import-view":
		runCommand(cli.NewImportViewCommand(), args)

	case "reindex":
		runCommand(cli.NewReindexCommand(), args)

	case "create-user":
		runCommand(cli.NewCreateUserCommand(), args)

	case "-h", "--help", "help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

// command is the shape every CLI subcommand shares.
type command interface {
	ParseFlags(args []string) error
	Run() error
}

func runCommand(cmd command, args []string) {
	if err := cmd.ParseFlags(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve         Start the HTTP server (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  import-books  Register ebook files from a directory\n")
	fmt.Fprintf(os.Stderr, "  export-view   Export a view definition as YAML\n")
	fmt.Fprintf(os.Stderr, "  import-view   Create a view from a YAML document\n")
	fmt.Fprintf(os.Stderr, "  reindex       Rebuild the full-text search index\n")
	fmt.Fprintf(os.Stderr, "  create-user   Create a local user account\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
