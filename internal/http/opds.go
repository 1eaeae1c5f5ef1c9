package http

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/foliolib/folio/internal/entities"
	"github.com/foliolib/folio/internal/opds"
	"github.com/foliolib/folio/internal/views"
)

const atomContentType = "application/atom+xml;charset=utf-8"

// OPDSSearcher is the search access the feed endpoints need.
type OPDSSearcher interface {
	Search(ctx context.Context, raw string) ([]entities.Book, error)
}

// OPDSController serves the OPDS 1.2 catalog consumed by ebook readers.
type OPDSController struct {
	catalog  *opds.Catalog
	views    *views.Service
	store    BookStore
	searcher OPDSSearcher
}

func NewOPDSController(catalog *opds.Catalog, viewService *views.Service, store BookStore, searcher OPDSSearcher) *OPDSController {
	return &OPDSController{
		catalog:  catalog,
		views:    viewService,
		store:    store,
		searcher: searcher,
	}
}

// Root serves the navigation feed listing all views.
func (controller *OPDSController) Root(c *gin.Context) {
	summaries, err := controller.views.List(true)
	if err != nil {
		respondInternalError(c, err, "opds root")
		return
	}

	data, err := controller.catalog.Root(summaries)
	if err != nil {
		respondInternalError(c, err, "opds root")
		return
	}
	c.Data(200, atomContentType, data)
}

// AllBooks serves the acquisition feed with the whole library.
func (controller *OPDSController) AllBooks(c *gin.Context) {
	books, err := controller.store.All()
	if err != nil {
		respondInternalError(c, err, "opds all books")
		return
	}

	data, err := controller.catalog.AllBooks(books)
	if err != nil {
		respondInternalError(c, err, "opds all books")
		return
	}
	c.Data(200, atomContentType, data)
}

// View serves one evaluated view as an acquisition feed.
func (controller *OPDSController) View(c *gin.Context) {
	name := c.Param("name")
	results, err := controller.views.Evaluate(name)
	if err != nil {
		if errors.Is(err, views.ErrViewNotFound) {
			respondNotFound(c, "view")
			return
		}
		respondInternalError(c, err, "opds view")
		return
	}

	data, err := controller.catalog.View(name, results)
	if err != nil {
		respondInternalError(c, err, "opds view")
		return
	}
	c.Data(200, atomContentType, data)
}

// Search serves search results as an acquisition feed.
func (controller *OPDSController) Search(c *gin.Context) {
	raw := c.Query("q")
	if raw == "" {
		respondBadRequest(c, "q query parameter is required")
		return
	}

	books, err := controller.searcher.Search(c.Request.Context(), raw)
	if err != nil {
		respondInternalError(c, err, "opds search")
		return
	}

	data, err := controller.catalog.SearchResults(raw, books)
	if err != nil {
		respondInternalError(c, err, "opds search")
		return
	}
	c.Data(200, atomContentType, data)
}
