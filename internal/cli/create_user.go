package cli

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/foliolib/folio/internal/auth"
	"github.com/foliolib/folio/internal/config"
	"github.com/foliolib/folio/internal/database"
)

// CreateUserCommand creates a local account for password-protected setups.
type CreateUserCommand struct {
	Username     string
	DatabasePath string
}

// NewCreateUserCommand creates a new CreateUserCommand
func NewCreateUserCommand() *CreateUserCommand {
	return &CreateUserCommand{}
}

// ParseFlags parses command line flags
func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)

	fs.StringVar(&cmd.Username, "username", "", "Username for the new account (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the library database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user -username <name> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a local user account. The password is read from the\n")
		fmt.Fprintf(os.Stderr, "FOLIO_PASSWORD environment variable, or prompted for on stdin.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" {
		fs.Usage()
		return fmt.Errorf("-username is required")
	}
	return nil
}

// Run executes the create-user command
func (cmd *CreateUserCommand) Run() error {
	password := os.Getenv("FOLIO_PASSWORD")
	if password == "" {
		fmt.Printf("Password for %s (min %d characters): ", cmd.Username, auth.MinPasswordLength)
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	cfg := config.NewConfig()
	service := auth.NewService(db.DB, cfg.Auth)
	user, err := service.CreateUser(cmd.Username, password)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("✅ Created user %q (id %d)\n", user.Username, user.ID)
	return nil
}
