package purge

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Scheduler runs purge passes on a fixed interval.
type Scheduler struct {
	purger   *Purger
	interval time.Duration
	log      *zap.SugaredLogger
	stopChan chan struct{}
	stopOnce sync.Once
	started  atomic.Bool
	done     chan struct{}
}

// NewScheduler returns a scheduler running p every interval.
func NewScheduler(p *Purger, interval time.Duration, log *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		purger:   p,
		interval: interval,
		log:      log,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs a pass immediately and then once per interval until Stop.
func (s *Scheduler) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}

	go func() {
		defer close(s.done)

		s.run()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.run()
			case <-s.stopChan:
				s.log.Info("Purge scheduler stopped")
				return
			}
		}
	}()
	s.log.Infof("Purge scheduler started, running every %v", s.interval)
}

// Stop halts the scheduler and waits for a running pass to finish. It is
// safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	if s.started.Load() {
		<-s.done
	}
}

func (s *Scheduler) run() {
	if _, err := s.purger.Run(); err != nil {
		s.log.Errorw("Purge pass failed", "error", err)
	}
}
