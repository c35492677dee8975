package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Job is one crawl run; runID tags its log lines and stored rows
type Job func(ctx context.Context, runID uuid.UUID) error

// Scheduler reruns a job on a fixed interval
type Scheduler struct {
	job    Job
	every  time.Duration
	log    logrus.FieldLogger
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewScheduler creates a scheduler bound to parent; cancelling parent stops it
func NewScheduler(parent context.Context, every time.Duration, job Job, log logrus.FieldLogger) *Scheduler {
	ctx, cancel := context.WithCancel(parent)

	return &Scheduler{
		job:    job,
		every:  every,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Start starts the scheduler in a goroutine
func (s *Scheduler) Start() {
	s.once.Do(func() {
		go func() {
			defer close(s.done)
			s.run()
		}()
	})
}

// Stop stops the scheduler and waits for a running job to return
func (s *Scheduler) Stop() {
	s.cancel()
	s.once.Do(func() { close(s.done) })
	<-s.done
	s.log.Info("Scheduler stopped")
}

// Done is closed once the loop has exited
func (s *Scheduler) Done() <-chan struct{} {
	return s.done
}

// run executes the job at once and then on every tick. A run that overlaps
// the next tick delays it; ticks are not queued.
func (s *Scheduler) run() {
	s.runOnce()

	ticker := time.NewTicker(s.every)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.runOnce()
		}
	}
}

func (s *Scheduler) runOnce() {
	if s.ctx.Err() != nil {
		return
	}

	runID := uuid.New()
	log := s.log.WithField("run", runID.String())
	log.Info("Starting scheduled run")

	start := time.Now()
	err := s.job(s.ctx, runID)
	switch {
	case err == nil:
		log.WithField("took", time.Since(start).Round(time.Millisecond)).Infof("Run finished, next in %s", s.every)
	case errors.Is(err, context.Canceled):
		log.Info("Run cancelled")
	default:
		log.Errorf("Run failed: %v", err)
	}
}
