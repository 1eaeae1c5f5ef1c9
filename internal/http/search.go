package http

import (
	"github.com/gin-gonic/gin"

	"github.com/foliolib/folio/internal/search"
)

type SearchController struct {
	service *search.Service
}

func NewSearchController(service *search.Service) *SearchController {
	return &SearchController{service: service}
}

// Search runs a raw query string (free text plus field:value filters)
// against the library.
func (controller *SearchController) Search(c *gin.Context) {
	raw := c.Query("q")
	if raw == "" {
		respondBadRequest(c, "q query parameter is required")
		return
	}

	books, err := controller.service.Search(c.Request.Context(), raw)
	if err != nil {
		respondInternalError(c, err, "search")
		return
	}

	limit, offset := parsePagination(c)
	total := len(books)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	c.JSON(200, PaginatedResponse{
		Data:    books[offset:end],
		Total:   int64(total),
		Limit:   limit,
		Offset:  offset,
		HasMore: end < total,
	})
}

// Reindex rebuilds the full-text index from the book table.
func (controller *SearchController) Reindex(c *gin.Context) {
	count, err := controller.service.Reindex()
	if err != nil {
		respondInternalError(c, err, "reindex")
		return
	}
	c.JSON(200, SuccessResponse{Message: "index rebuilt", Data: gin.H{"indexed": count}})
}
