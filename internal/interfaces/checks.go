package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/foliolib/folio/internal/database/books"
	viewsdb "github.com/foliolib/folio/internal/database/views"
	"github.com/foliolib/folio/internal/http"
	"github.com/foliolib/folio/internal/search"
	"github.com/foliolib/folio/internal/views"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// The book repository backs view evaluation, full-text filtering and the
// HTTP controllers.
var (
	_ views.BookStore   = (*books.Repository)(nil)
	_ views.BookCatalog = (*books.Repository)(nil)
	_ search.Catalog    = (*books.Repository)(nil)
	_ http.BookStore    = (*books.Repository)(nil)
)

// The view repository backs the view service.
var _ views.ViewStore = (*viewsdb.Repository)(nil)

// =============================================================================
// Services
// =============================================================================

// The view service resolves view references during evaluation.
var _ views.DefinitionResolver = (*views.Service)(nil)

// The search service feeds the OPDS search endpoint.
var _ http.OPDSSearcher = (*search.Service)(nil)
