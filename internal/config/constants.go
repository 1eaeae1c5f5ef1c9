package config

// Default paths for on-disk state
const (
	// DefaultDatabasePath is the default path for the main application database
	DefaultDatabasePath = "./folio.db"

	// DefaultIndexPath is the default directory for the full-text search index
	DefaultIndexPath = "./folio.bleve"
)
