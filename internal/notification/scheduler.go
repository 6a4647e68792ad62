package notification

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/alenva214/Space-app/internal/metrics"
)

// Runner is one notification cycle execution.
type Runner interface {
	Run(ctx context.Context) ([]Result, error)
}

// Scheduler drives the notification cycle on a fixed interval. It is built
// once at process start with its dependencies injected, started once, and
// stopped on shutdown. Overlapping runs are forbidden: a tick that fires
// while a run is still in flight is skipped.
type Scheduler struct {
	runner   Runner
	interval time.Duration

	running  atomic.Bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewScheduler(runner Runner, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Scheduler{
		runner:   runner,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the background timer loop. Call it once.
func (s *Scheduler) Start() {
	log.WithField("interval", s.interval).Info("notification scheduler started")
	go s.loop()
}

// Stop halts the timer and waits for the loop to exit. An in-flight run is
// allowed to finish. Safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		<-s.done
		log.Info("notification scheduler stopped")
	})
}

func (s *Scheduler) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.tick()
		case <-s.stop:
			return
		}
	}
}

// tick runs one cycle, unless a previous one is still running.
func (s *Scheduler) tick() {
	if !s.running.CompareAndSwap(false, true) {
		metrics.CycleTicksSkipped.Inc()
		log.Warn("previous notification cycle still running, skipping tick")
		return
	}
	defer s.running.Store(false)

	started := time.Now()
	results, err := s.runner.Run(context.Background())
	if err != nil {
		log.WithError(err).Error("notification cycle failed")
		return
	}

	notified := 0
	for _, r := range results {
		if r.Outcome == OutcomeNotified {
			notified++
		}
	}
	log.WithFields(log.Fields{
		"locations": len(results),
		"notified":  notified,
		"took":      time.Since(started),
	}).Info("notification cycle completed")
}
