// Package search maintains the full-text index over the book catalog and
// answers free-text queries by combining index hits with the structured
// filters produced by the query parser.
package search

import (
	"strconv"
	"strings"

	"github.com/foliolib/folio/internal/entities"
)

// Document is the indexable projection of a book.
type Document struct {
	ID            string
	Title         string
	Description   string
	Author        string
	Subject       []string
	Series        string
	Publisher     string
	Language      string
	Format        []string
	ExtractedText string
	Year          float64
}

// DocumentFromBook projects a book into its index document.
func DocumentFromBook(book *entities.Book) *Document {
	authors := make([]string, 0, len(book.Authors))
	for _, a := range book.Authors {
		authors = append(authors, a.Name)
	}
	subjects := make([]string, 0, len(book.Subjects))
	for _, s := range book.Subjects {
		subjects = append(subjects, s.Name)
	}
	formats := make([]string, 0, len(book.Files))
	for _, f := range book.Files {
		formats = append(formats, strings.ToLower(f.Format))
	}

	var year float64
	if len(book.PublicationDate) >= 4 {
		if y, err := strconv.Atoi(book.PublicationDate[:4]); err == nil {
			year = float64(y)
		}
	}

	return &Document{
		ID:            strconv.FormatUint(uint64(book.ID), 10),
		Title:         book.Title,
		Description:   book.Description,
		Author:        strings.Join(authors, "; "),
		Subject:       subjects,
		Series:        book.Series,
		Publisher:     book.Publisher,
		Language:      book.Language,
		Format:        formats,
		ExtractedText: book.ExtractedText,
		Year:          year,
	}
}

// ToMap converts to the lowercase field names the index mapping uses.
func (d *Document) ToMap() map[string]any {
	return map[string]any{
		"id":             d.ID,
		"title":          d.Title,
		"description":    d.Description,
		"author":         d.Author,
		"subject":        d.Subject,
		"series":         d.Series,
		"publisher":      d.Publisher,
		"language":       d.Language,
		"format":         d.Format,
		"extracted_text": d.ExtractedText,
		"year":           d.Year,
	}
}

// BookID recovers the numeric book identity from an index hit.
func BookID(docID string) (uint, bool) {
	n, err := strconv.ParseUint(docID, 10, 64)
	if err != nil {
		return 0, false
	}
	return uint(n), true
}
