// Package opds renders OPDS 1.2 (Atom) catalog feeds so e-reader apps can
// browse and download the library.
package opds

import (
	"encoding/xml"
	"fmt"
	"time"
)

const (
	// feed content types per the OPDS 1.2 spec
	NavigationType  = "application/atom+xml;profile=opds-catalog;kind=navigation"
	AcquisitionType = "application/atom+xml;profile=opds-catalog;kind=acquisition"

	relSubsection = "subsection"
	relAcq        = "http://opds-spec.org/acquisition"
	relImage      = "http://opds-spec.org/image"
)

// Feed is an OPDS catalog feed.
type Feed struct {
	XMLName xml.Name  `xml:"feed"`
	Xmlns   string    `xml:"xmlns,attr"`
	ID      string    `xml:"id"`
	Title   string    `xml:"title"`
	Updated time.Time `xml:"updated"`
	Links   []Link    `xml:"link"`
	Entries []Entry   `xml:"entry"`
}

// Link is an Atom link element.
type Link struct {
	Rel   string `xml:"rel,attr,omitempty"`
	Href  string `xml:"href,attr"`
	Type  string `xml:"type,attr,omitempty"`
	Title string `xml:"title,attr,omitempty"`
}

// Entry is one catalog entry: a navigation target or a book.
type Entry struct {
	ID         string     `xml:"id"`
	Title      string     `xml:"title"`
	Updated    time.Time  `xml:"updated"`
	Authors    []Author   `xml:"author,omitempty"`
	Summary    *Summary   `xml:"summary,omitempty"`
	Language   string     `xml:"dc:language,omitempty"`
	Issued     string     `xml:"dc:issued,omitempty"`
	Publisher  string     `xml:"dc:publisher,omitempty"`
	Categories []Category `xml:"category,omitempty"`
	Links      []Link     `xml:"link"`
}

// Author is an Atom author element.
type Author struct {
	Name string `xml:"name"`
}

// Summary carries the entry description as plain text.
type Summary struct {
	Type string `xml:"type,attr"`
	Text string `xml:",chardata"`
}

// Category is an Atom category element, used for subjects.
type Category struct {
	Term  string `xml:"term,attr"`
	Label string `xml:"label,attr,omitempty"`
}

// NewFeed creates a feed with the self link already attached.
func NewFeed(id, title, selfHref, kind string) *Feed {
	return &Feed{
		Xmlns:   "http://www.w3.org/2005/Atom",
		ID:      id,
		Title:   title,
		Updated: time.Now().UTC(),
		Links: []Link{
			{Rel: "self", Href: selfHref, Type: kind},
			{Rel: "start", Href: "/opds", Type: NavigationType},
		},
	}
}

// AddNavigation appends a navigation entry pointing at another feed.
func (f *Feed) AddNavigation(id, title, href, summary string) {
	entry := Entry{
		ID:      id,
		Title:   title,
		Updated: f.Updated,
		Links: []Link{
			{Rel: relSubsection, Href: href, Type: AcquisitionType},
		},
	}
	if summary != "" {
		entry.Summary = &Summary{Type: "text", Text: summary}
	}
	f.Entries = append(f.Entries, entry)
}

// Marshal renders the feed as an XML document.
func (f *Feed) Marshal() ([]byte, error) {
	body, err := xml.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal opds feed: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// MimeType maps a book file format to the content type advertised in
// acquisition links.
func MimeType(format string) string {
	switch format {
	case "epub":
		return "application/epub+zip"
	case "pdf":
		return "application/pdf"
	case "mobi":
		return "application/x-mobipocket-ebook"
	case "azw3":
		return "application/vnd.amazon.ebook"
	case "fb2":
		return "application/fb2+xml"
	case "cbz":
		return "application/vnd.comicbook+zip"
	case "txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
