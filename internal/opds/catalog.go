package opds

import (
	"fmt"
	"strings"

	"github.com/foliolib/folio/internal/entities"
	"github.com/foliolib/folio/internal/views"
)

// Catalog builds the feeds of the OPDS catalog tree:
//
//	/opds                 root navigation
//	/opds/all             every book
//	/opds/views/:name     one view's evaluation result
//	/opds/search?q=       search results
type Catalog struct {
	baseURL string
}

// NewCatalog creates a catalog builder. baseURL prefixes every href so the
// feeds work behind a reverse proxy path.
func NewCatalog(baseURL string) *Catalog {
	return &Catalog{baseURL: strings.TrimRight(baseURL, "/")}
}

func (c *Catalog) href(path string) string {
	return c.baseURL + path
}

// Root renders the top navigation feed: the full catalog plus one entry
// per view.
func (c *Catalog) Root(viewSummaries []views.Summary) ([]byte, error) {
	feed := NewFeed("urn:folio:root", "Folio Library", c.href("/opds"), NavigationType)
	feed.AddNavigation("urn:folio:all", "All Books", c.href("/opds/all"), "Every book in the library")

	for _, summary := range viewSummaries {
		title := summary.Name
		if summary.Description != "" {
			title = summary.Name + " – " + summary.Description
		}
		feed.AddNavigation(
			"urn:folio:view:"+summary.Name,
			title,
			c.href("/opds/views/"+summary.Name),
			summary.Description,
		)
	}
	return feed.Marshal()
}

// AllBooks renders the acquisition feed over the whole library.
func (c *Catalog) AllBooks(books []entities.Book) ([]byte, error) {
	feed := NewFeed("urn:folio:all", "All Books", c.href("/opds/all"), AcquisitionType)
	for i := range books {
		feed.Entries = append(feed.Entries, c.bookEntry(&books[i], books[i].Title, books[i].Description))
	}
	return feed.Marshal()
}

// View renders the acquisition feed of one evaluated view. Titles and
// descriptions honor the view's overrides.
func (c *Catalog) View(name string, results []views.TransformedBook) ([]byte, error) {
	feed := NewFeed("urn:folio:view:"+name, name, c.href("/opds/views/"+name), AcquisitionType)
	for i := range results {
		tb := &results[i]
		feed.Entries = append(feed.Entries, c.bookEntry(&tb.Book, tb.Title(), tb.Description()))
	}
	return feed.Marshal()
}

// SearchResults renders the acquisition feed for a search query.
func (c *Catalog) SearchResults(rawQuery string, books []entities.Book) ([]byte, error) {
	feed := NewFeed(
		"urn:folio:search:"+rawQuery,
		fmt.Sprintf("Search: %s", rawQuery),
		c.href("/opds/search?q="+rawQuery),
		AcquisitionType,
	)
	for i := range books {
		feed.Entries = append(feed.Entries, c.bookEntry(&books[i], books[i].Title, books[i].Description))
	}
	return feed.Marshal()
}

func (c *Catalog) bookEntry(book *entities.Book, title, description string) Entry {
	entry := Entry{
		ID:        fmt.Sprintf("urn:folio:book:%d", book.ID),
		Title:     title,
		Updated:   book.UpdatedAt,
		Language:  book.Language,
		Issued:    book.PublicationDate,
		Publisher: book.Publisher,
	}
	for _, author := range book.Authors {
		entry.Authors = append(entry.Authors, Author{Name: author.Name})
	}
	for _, subject := range book.Subjects {
		entry.Categories = append(entry.Categories, Category{Term: subject.Name, Label: subject.Name})
	}
	if description != "" {
		entry.Summary = &Summary{Type: "text", Text: description}
	}
	if book.CoverPath != "" {
		entry.Links = append(entry.Links, Link{
			Rel:  relImage,
			Href: c.href(fmt.Sprintf("/api/books/%d/cover", book.ID)),
			Type: "image/jpeg",
		})
	}
	for _, file := range book.Files {
		entry.Links = append(entry.Links, Link{
			Rel:  relAcq,
			Href: c.href(fmt.Sprintf("/api/books/%d/files/%d", book.ID, file.ID)),
			Type: MimeType(strings.ToLower(file.Format)),
		})
	}
	return entry
}
