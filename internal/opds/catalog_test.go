package opds

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliolib/folio/internal/entities"
	"github.com/foliolib/folio/internal/views"
)

func sampleBook() entities.Book {
	return entities.Book{
		ID:              7,
		Title:           "Dune",
		Description:     "A science fiction epic",
		Language:        "en",
		PublicationDate: "1965-08-01",
		Authors:         []entities.Author{{Name: "Frank Herbert"}},
		Subjects:        []entities.Subject{{Name: "fiction"}},
		Files: []entities.BookFile{
			{ID: 11, BookID: 7, Format: "epub"},
			{ID: 12, BookID: 7, Format: "pdf"},
		},
	}
}

func TestCatalogRoot(t *testing.T) {
	catalog := NewCatalog("")

	data, err := catalog.Root([]views.Summary{
		{Name: "favorites", Description: "Books marked as favorite", BuiltIn: true},
		{Name: "to-read"},
	})
	require.NoError(t, err)

	body := string(data)
	assert.True(t, strings.HasPrefix(body, xml.Header))
	assert.Contains(t, body, "/opds/all")
	assert.Contains(t, body, "/opds/views/favorites")
	assert.Contains(t, body, "/opds/views/to-read")

	var feed Feed
	require.NoError(t, xml.Unmarshal(data, &feed))
	assert.Len(t, feed.Entries, 3)
}

func TestCatalogAllBooksEntry(t *testing.T) {
	catalog := NewCatalog("/folio")

	data, err := catalog.AllBooks([]entities.Book{sampleBook()})
	require.NoError(t, err)

	var feed Feed
	require.NoError(t, xml.Unmarshal(data, &feed))
	require.Len(t, feed.Entries, 1)

	entry := feed.Entries[0]
	assert.Equal(t, "Dune", entry.Title)
	assert.Equal(t, "urn:folio:book:7", entry.ID)
	require.Len(t, entry.Authors, 1)
	assert.Equal(t, "Frank Herbert", entry.Authors[0].Name)

	// one acquisition link per file, with the base URL prefix
	require.Len(t, entry.Links, 2)
	assert.Equal(t, "/folio/api/books/7/files/11", entry.Links[0].Href)
	assert.Equal(t, "application/epub+zip", entry.Links[0].Type)
	assert.Equal(t, "application/pdf", entry.Links[1].Type)
}

func TestCatalogViewUsesOverrides(t *testing.T) {
	catalog := NewCatalog("")

	title := "Display Title"
	result := []views.TransformedBook{{Book: sampleBook(), TitleOverride: &title}}

	data, err := catalog.View("picks", result)
	require.NoError(t, err)

	var feed Feed
	require.NoError(t, xml.Unmarshal(data, &feed))
	require.Len(t, feed.Entries, 1)
	assert.Equal(t, "Display Title", feed.Entries[0].Title)
}

func TestMimeTypeFallback(t *testing.T) {
	assert.Equal(t, "application/epub+zip", MimeType("epub"))
	assert.Equal(t, "application/octet-stream", MimeType("weird"))
}
