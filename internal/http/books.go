package http

import (
	"github.com/gin-gonic/gin"

	"github.com/foliolib/folio/internal/entities"
	"github.com/foliolib/folio/internal/utils"
)

type BooksController struct {
	store BookStore
}

func NewBooksController(store BookStore) *BooksController {
	return &BooksController{store: store}
}

// ListBooks returns the library, paginated by limit/offset.
func (controller *BooksController) ListBooks(c *gin.Context) {
	books, err := controller.store.All()
	if err != nil {
		respondInternalError(c, err, "list books")
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

func (controller *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := controller.store.ByID(id)
	if err != nil {
		respondInternalError(c, err, "get book")
		return
	}
	if book == nil {
		respondNotFound(c, "book")
		return
	}
	c.JSON(200, book)
}

func (controller *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	deleted, err := controller.store.Delete(id)
	if err != nil {
		respondInternalError(c, err, "delete book")
		return
	}
	if !deleted {
		respondNotFound(c, "book")
		return
	}
	respondSuccess(c, "book deleted")
}

type personalMetadataRequest struct {
	Favorite        *bool    `json:"favorite"`
	Rating          *float64 `json:"rating"`
	ReadingStatus   *string  `json:"reading_status"`
	ReadingProgress *float64 `json:"reading_progress"`
	Notes           *string  `json:"notes"`
}

// UpdatePersonal merges the request into the book's personal metadata,
// creating the row on first write. Absent fields are left untouched.
func (controller *BooksController) UpdatePersonal(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := controller.store.ByID(id)
	if err != nil {
		respondInternalError(c, err, "get book")
		return
	}
	if book == nil {
		respondNotFound(c, "book")
		return
	}

	var req personalMetadataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	pm, err := controller.store.GetPersonal(id)
	if err != nil {
		respondInternalError(c, err, "get personal metadata")
		return
	}
	if pm == nil {
		pm = &entities.PersonalMetadata{BookID: id}
	}

	if req.Favorite != nil {
		pm.Favorite = *req.Favorite
	}
	if req.Rating != nil {
		if *req.Rating < 0 || *req.Rating > 5 {
			respondBadRequest(c, "rating must be between 0 and 5")
			return
		}
		pm.Rating = *req.Rating
	}
	if req.ReadingStatus != nil {
		switch entities.ReadingStatus(*req.ReadingStatus) {
		case entities.ReadingStatusUnread, entities.ReadingStatusReading, entities.ReadingStatusFinished, entities.ReadingStatusAbandon:
			pm.ReadingStatus = entities.ReadingStatus(*req.ReadingStatus)
		default:
			respondBadRequest(c, "invalid reading_status: "+*req.ReadingStatus)
			return
		}
	}
	if req.ReadingProgress != nil {
		pm.ReadingProgress = *req.ReadingProgress
	}
	if req.Notes != nil {
		pm.Notes = *req.Notes
	}

	if err := controller.store.SavePersonal(pm); err != nil {
		respondInternalError(c, err, "save personal metadata")
		return
	}
	c.JSON(200, pm)
}

// GetCover serves the extracted cover image for a book.
func (controller *BooksController) GetCover(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := controller.store.ByID(id)
	if err != nil {
		respondInternalError(c, err, "get book")
		return
	}
	if book == nil || book.CoverPath == "" {
		respondNotFound(c, "cover")
		return
	}
	c.File(book.CoverPath)
}

// DownloadFile streams one of the book's ebook files.
func (controller *BooksController) DownloadFile(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	fileID, ok := parseIDParam(c, "fileId")
	if !ok {
		return
	}

	book, err := controller.store.ByID(id)
	if err != nil {
		respondInternalError(c, err, "get book")
		return
	}
	if book == nil {
		respondNotFound(c, "book")
		return
	}

	for _, file := range book.Files {
		if file.ID == fileID {
			c.FileAttachment(file.Path, utils.SanitizeFilename(book.Title)+"."+file.Format)
			return
		}
	}
	respondNotFound(c, "file")
}

func (controller *BooksController) ListAuthors(c *gin.Context) {
	authors, err := controller.store.ListAuthors()
	if err != nil {
		respondInternalError(c, err, "list authors")
		return
	}
	c.JSON(200, gin.H{"authors": authors, "count": len(authors)})
}

func (controller *BooksController) ListSubjects(c *gin.Context) {
	subjects, err := controller.store.ListSubjects()
	if err != nil {
		respondInternalError(c, err, "list subjects")
		return
	}
	c.JSON(200, gin.H{"subjects": subjects, "count": len(subjects)})
}

func (controller *BooksController) GetStats(c *gin.Context) {
	books, authors, subjects, err := controller.store.Stats()
	if err != nil {
		respondInternalError(c, err, "library stats")
		return
	}
	c.JSON(200, gin.H{
		"total_books":    books,
		"total_authors":  authors,
		"total_subjects": subjects,
	})
}
