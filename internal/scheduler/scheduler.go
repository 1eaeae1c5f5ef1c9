package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/robfig/cron/v3"

	"github.com/foliolib/folio/internal/config"
	"github.com/foliolib/folio/internal/tasks"
)

// Scheduler enqueues periodic maintenance tasks: view-count refresh and
// search reindex. The work itself runs on the task queue so a slow job
// never blocks the cron loop.
type Scheduler struct {
	client *tasks.Client
	cfg    config.Scheduler

	cron       *cron.Cron
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
}

// NewScheduler creates a scheduler over the given task client.
func NewScheduler(client *tasks.Client, cfg config.Scheduler) *Scheduler {
	return &Scheduler{
		client: client,
		cfg:    cfg,
		cron:   cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start registers the cron entries and begins the loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if !s.cfg.Enabled {
		log.Printf("Scheduler: disabled")
		return nil
	}

	if s.cfg.ViewRefreshSchedule != "" {
		_, err := s.cron.AddFunc(s.cfg.ViewRefreshSchedule, func() {
			s.enqueue(tasks.RefreshViewCountsTask{})
		})
		if err != nil {
			return fmt.Errorf("invalid view refresh schedule '%s': %w", s.cfg.ViewRefreshSchedule, err)
		}
	}

	if s.cfg.ReindexSchedule != "" {
		_, err := s.cron.AddFunc(s.cfg.ReindexSchedule, func() {
			s.enqueue(tasks.ReindexSearchTask{})
		})
		if err != nil {
			return fmt.Errorf("invalid reindex schedule '%s': %w", s.cfg.ReindexSchedule, err)
		}
	}

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true
	log.Printf("Scheduler: started (view refresh '%s', reindex '%s')",
		s.cfg.ViewRefreshSchedule, s.cfg.ReindexSchedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Scheduler: stopped")
}

// IsRunning returns whether the scheduler is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRuns returns the upcoming fire times of all entries.
func (s *Scheduler) NextRuns() []time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	entries := s.cron.Entries()
	times := make([]time.Time, 0, len(entries))
	for _, entry := range entries {
		times = append(times, entry.Next)
	}
	return times
}

func (s *Scheduler) enqueue(task backlite.Task) {
	if s.client == nil {
		return
	}
	if _, err := s.client.Add(task).Save(); err != nil {
		log.Printf("Scheduler: failed to enqueue task: %v", err)
	}
}
