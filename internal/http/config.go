package http

import (
	"github.com/foliolib/folio/internal/auth"
	"github.com/foliolib/folio/internal/config"
	"github.com/foliolib/folio/internal/database"
	"github.com/foliolib/folio/internal/opds"
	"github.com/foliolib/folio/internal/search"
	"github.com/foliolib/folio/internal/views"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database    *database.Database
	BookStore   BookStore
	ViewService *views.Service
	Search      *search.Service
	SearchIndex *search.Index

	// OPDS catalog (nil disables the feed endpoints)
	OPDSCatalog *opds.Catalog

	// Authentication
	AuthConfig     config.Auth
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager
	CSRFSecret     []byte
	SecureCookies  bool

	// Application info
	Version string
}
