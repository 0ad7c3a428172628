// Package scheduler triggers the daily digest crawl on a cron schedule.
package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler wraps a cron runner around a single crawl job.
type Scheduler struct {
	cron    *cron.Cron
	entryID cron.EntryID
	logger  *zap.Logger
}

// New creates a scheduler firing job on the given cron spec
// (standard 5-field syntax, e.g. "0 9 * * *" for daily 09:00).
func New(spec string, job func(), logger *zap.Logger) (*Scheduler, error) {
	c := cron.New()
	id, err := c.AddFunc(spec, job)
	if err != nil {
		return nil, err
	}
	return &Scheduler{cron: c, entryID: id, logger: logger}, nil
}

// Start begins firing the schedule.
func (s *Scheduler) Start() {
	s.cron.Start()
	if next := s.NextRun(); next != nil {
		s.logger.Info("scheduler started", zap.Time("next_crawl_at", *next))
	}
}

// Stop stops the cron runner and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// NextRun returns the next scheduled fire time, or nil before Start.
func (s *Scheduler) NextRun() *time.Time {
	next := s.cron.Entry(s.entryID).Next
	if next.IsZero() {
		return nil
	}
	return &next
}
