package search

import (
	"context"
	"sort"
	"strings"

	"github.com/foliolib/folio/internal/entities"
	"github.com/foliolib/folio/internal/query"
)

// Catalog is the slice of the book repository the search service needs.
type Catalog interface {
	All() ([]entities.Book, error)
	FilterWhere(clause string, params map[string]any) ([]entities.Book, error)
}

// Service answers free-text searches: the query parser splits a raw query
// into a full-text part (answered by the index) and structured filters
// (lowered to SQL against the catalog), and the service intersects the two.
type Service struct {
	index   *Index
	catalog Catalog
}

// NewService creates a search service.
func NewService(index *Index, catalog Catalog) *Service {
	return &Service{index: index, catalog: catalog}
}

// Search parses and executes a raw user query. Results keep index
// relevance order when a full-text part is present, title order otherwise.
func (s *Service) Search(ctx context.Context, raw string) ([]entities.Book, error) {
	parsed := query.Parse(raw)

	clause, params := query.ToSQLConditions(parsed)
	filtered, err := s.catalog.FilterWhere(clause, params)
	if err != nil {
		return nil, err
	}

	if parsed.FTSQuery == "" {
		sort.SliceStable(filtered, func(i, j int) bool {
			return strings.ToLower(filtered[i].Title) < strings.ToLower(filtered[j].Title)
		})
		return filtered, nil
	}

	ranked, err := s.index.Query(ctx, parsed.FTSQuery, 0)
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]entities.Book, len(filtered))
	for _, book := range filtered {
		byID[book.ID] = book
	}

	results := make([]entities.Book, 0, len(ranked))
	for _, id := range ranked {
		if book, ok := byID[id]; ok {
			results = append(results, book)
		}
	}
	return results, nil
}

// Reindex rebuilds the full-text index from the catalog.
func (s *Service) Reindex() (int, error) {
	books, err := s.catalog.All()
	if err != nil {
		return 0, err
	}
	if err := s.index.Rebuild(); err != nil {
		return 0, err
	}
	if err := s.index.IndexBooks(books); err != nil {
		return 0, err
	}
	return len(books), nil
}
