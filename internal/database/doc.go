// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations
//	├── books/           # Book catalog queries and personal metadata
//	└── views/           # Persisted view definitions and overrides
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	// Initialize database connection
//	db, err := database.NewDatabase("./folio.db")
//
//	// Create domain-specific repositories
//	booksRepo := books.NewRepository(db.DB)
//	viewsRepo := views.NewRepository(db.DB)
//
//	// Use repositories
//	book, err := booksRepo.ByID(123)
//	view, err := viewsRepo.GetByName("favorites")
//
// # Interface Implementations
//
// Each sub-package implements specific interfaces:
//
//   - books.Repository: implements views.BookCatalog and search.Catalog
//   - views.Repository: implements views.ViewStore
//
// Compile-time checks (var _ SomeInterface = (*Repository)(nil)) live next
// to each implementation.
package database
