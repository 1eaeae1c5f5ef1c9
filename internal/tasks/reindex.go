package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/foliolib/folio/internal/search"
)

// ReindexSearchTask rebuilds the full-text index from the book table.
type ReindexSearchTask struct{}

// Config returns the queue configuration for search reindex tasks.
// MaxAttempts is 1 because a rebuild that failed halfway should be
// retried deliberately, not on a backoff loop over a torn index.
func (t ReindexSearchTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "reindex_search",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     15 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ReindexSearchProcessor creates a processor function for ReindexSearchTask.
func ReindexSearchProcessor(service *search.Service) backlite.QueueProcessor[ReindexSearchTask] {
	return func(ctx context.Context, task ReindexSearchTask) error {
		if service == nil {
			return fmt.Errorf("search service not configured")
		}

		count, err := service.Reindex()
		if err != nil {
			return fmt.Errorf("reindex search: %w", err)
		}

		log.Printf("[TASK] Search index rebuilt with %d books", count)
		return nil
	}
}

// NewReindexSearchQueue creates a backlite queue for search reindex tasks.
func NewReindexSearchQueue(service *search.Service) backlite.Queue {
	return backlite.NewQueue(ReindexSearchProcessor(service))
}
