package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/foliolib/folio/internal/views"
)

// RefreshViewCountsTask re-evaluates every persisted view to refresh its
// cached book count. ViewName narrows the run to a single view when set.
type RefreshViewCountsTask struct {
	ViewName string `json:"view_name,omitempty"`
}

// Config returns the queue configuration for view-count refresh tasks.
func (t RefreshViewCountsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "refresh_view_counts",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// RefreshViewCountsProcessor creates a processor function for
// RefreshViewCountsTask. Evaluation updates the stored count as a side
// effect, so the processor only has to walk the views.
func RefreshViewCountsProcessor(service *views.Service) backlite.QueueProcessor[RefreshViewCountsTask] {
	return func(ctx context.Context, task RefreshViewCountsTask) error {
		if service == nil {
			return fmt.Errorf("view service not configured")
		}

		names := []string{task.ViewName}
		if task.ViewName == "" {
			summaries, err := service.List(false)
			if err != nil {
				return fmt.Errorf("list views: %w", err)
			}
			names = names[:0]
			for _, summary := range summaries {
				names = append(names, summary.Name)
			}
		}

		refreshed := 0
		for _, name := range names {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := service.Evaluate(name); err != nil {
				// A broken definition should not stall the rest of the run.
				log.Printf("[TASK] Skipping view %q: %v", name, err)
				continue
			}
			refreshed++
		}

		log.Printf("[TASK] Refreshed counts for %d of %d views", refreshed, len(names))
		return nil
	}
}

// NewRefreshViewCountsQueue creates a backlite queue for view-count refresh tasks.
func NewRefreshViewCountsQueue(service *views.Service) backlite.Queue {
	return backlite.NewQueue(RefreshViewCountsProcessor(service))
}
