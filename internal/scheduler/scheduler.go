package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/i474232898/weather-ku/internal/weather"
)

// Flusher persists the current table.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Scheduler periodically flushes the table to its backing file.
type Scheduler struct {
	scheduler *gocron.Scheduler
	flusher   Flusher
	interval  time.Duration
	logger    *slog.Logger
	onFatal   func(error)
}

// New creates a Scheduler. onFatal is called when a periodic flush fails;
// the caller is expected to shut the process down.
func New(flusher Flusher, interval time.Duration, logger *slog.Logger, onFatal func(error)) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		flusher:   flusher,
		interval:  interval,
		logger:    logger,
		onFatal:   onFatal,
	}
}

// Start schedules the flush job and starts the underlying scheduler. The
// first run happens one interval after Start; runs never overlap.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		return errors.New("scheduler: flush interval must be positive")
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().WaitForSchedule().Do(s.run)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("flush scheduler started", "interval", s.interval)
	return nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.interval)
	defer cancel()

	err := s.flusher.Flush(ctx)
	switch {
	case err == nil:
		s.logger.Debug("scheduled flush completed")
	case errors.Is(err, weather.ErrNotRunning):
		// shutdown owns the final flush
	default:
		s.logger.Error("scheduled flush failed", "error", err)
		if s.onFatal != nil {
			s.onFatal(err)
		}
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
