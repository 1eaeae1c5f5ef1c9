package search

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/foliolib/folio/internal/entities"
)

// mappingVersion is incremented whenever the index mapping changes; a
// mismatch on startup forces a rebuild.
const mappingVersion = "1"

// Index wraps a Bleve index with book-specific operations.
//
// All public methods are safe for concurrent use; the mutex protects the
// index handle across Rebuild.
type Index struct {
	index bleve.Index
	path  string // empty for in-memory indexes
	mu    sync.RWMutex
}

// OpenIndex creates or opens the on-disk search index under dataPath. An
// existing index with an outdated mapping version is removed and rebuilt
// empty; the caller should reindex afterwards.
func OpenIndex(dataPath string) (*Index, error) {
	indexPath := filepath.Join(dataPath, "search.bleve")
	versionPath := filepath.Join(dataPath, "search.version")

	needsRebuild := false
	if _, err := os.Stat(indexPath); err == nil {
		version, readErr := os.ReadFile(versionPath)
		if readErr != nil || string(version) != mappingVersion {
			log.Printf("search index mapping is outdated, rebuilding")
			needsRebuild = true
		}
	}

	var index bleve.Index
	var err error
	if !needsRebuild {
		index, err = bleve.Open(indexPath)
		if err == bleve.ErrorIndexPathDoesNotExist {
			index = nil
		} else if err != nil {
			log.Printf("failed to open search index, recreating: %v", err)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, fmt.Errorf("remove old search index: %w", err)
		}
		index = nil
	}

	if index == nil {
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create search index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0644); err != nil {
			log.Printf("failed to write search index version file: %v", err)
		}
	}

	return &Index{index: index, path: indexPath}, nil
}

// NewMemoryIndex creates a throwaway in-memory index, used by tests.
func NewMemoryIndex() (*Index, error) {
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create in-memory search index: %w", err)
	}
	return &Index{index: index}, nil
}

// Close releases the index.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.index.Close()
}

// IndexBook adds or updates one book in the index.
func (x *Index) IndexBook(book *entities.Book) error {
	x.mu.RLock()
	defer x.mu.RUnlock()
	doc := DocumentFromBook(book)
	return x.index.Index(doc.ID, doc.ToMap())
}

// IndexBooks indexes books in batches, far cheaper than one-at-a-time for
// bulk import and reindex runs.
func (x *Index) IndexBooks(books []entities.Book) error {
	x.mu.RLock()
	defer x.mu.RUnlock()

	const batchSize = 500

	for i := 0; i < len(books); i += batchSize {
		end := i + batchSize
		if end > len(books) {
			end = len(books)
		}

		batch := x.index.NewBatch()
		for j := i; j < end; j++ {
			doc := DocumentFromBook(&books[j])
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index book %s: %w", doc.ID, err)
			}
		}
		if err := x.index.Batch(batch); err != nil {
			return fmt.Errorf("commit index batch: %w", err)
		}
	}
	return nil
}

// DeleteBook removes a book from the index.
func (x *Index) DeleteBook(bookID uint) error {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.index.Delete(fmt.Sprintf("%d", bookID))
}

// Count returns the number of indexed books.
func (x *Index) Count() (uint64, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.index.DocCount()
}

// Query runs a full-text query (Bleve query-string syntax, as produced by
// the search query parser) and returns matching book IDs in relevance
// order.
func (x *Index) Query(ctx context.Context, ftsQuery string, limit int) ([]uint, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if limit <= 0 {
		limit = 1000
	}

	q := bleve.NewQueryStringQuery(ftsQuery)
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.SortBy([]string{"-_score"})

	result, err := x.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	ids := make([]uint, 0, len(result.Hits))
	for _, hit := range result.Hits {
		if id, ok := BookID(hit.ID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Rebuild drops the index contents and recreates it empty. It takes the
// exclusive lock, blocking searches until it finishes.
func (x *Index) Rebuild() error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := x.index.Close(); err != nil {
		return fmt.Errorf("close search index: %w", err)
	}

	if x.path == "" {
		index, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return fmt.Errorf("recreate in-memory search index: %w", err)
		}
		x.index = index
		return nil
	}

	if err := os.RemoveAll(x.path); err != nil {
		return fmt.Errorf("remove search index: %w", err)
	}
	index, err := bleve.New(x.path, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("recreate search index: %w", err)
	}
	x.index = index
	return nil
}
