package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// DefaultInterval is used when a non-positive interval is configured.
const DefaultInterval = time.Hour

// Refresher is anything that can re-render the dashboard.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Scheduler periodically refreshes the dashboard. Ticks run whether or not
// the location dialog is open, and are not serialized against refreshes
// triggered elsewhere.
type Scheduler struct {
	scheduler *gocron.Scheduler
	target    Refresher
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler. timeout bounds each refresh.
func New(target Refresher, interval, timeout time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		target:    target,
		interval:  interval,
		timeout:   timeout,
	}
}

// Start schedules the periodic job and starts the underlying scheduler. The
// first run happens one interval after Start.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	log.Printf("scheduler: refreshing every %s", s.interval)
	return nil
}

func (s *Scheduler) run() {
	log.Println("scheduler: running refresh job")

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.target.Refresh(ctx); err != nil {
		// Already rendered as placeholders; nothing to retry.
		log.Printf("scheduler: refresh failed: %v", err)
		return
	}
	log.Println("scheduler: completed refresh job")
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
