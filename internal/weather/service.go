package weather

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/i474232898/weather-ku/internal/observability"
	"github.com/jonboulle/clockwork"
)

// State is the lifecycle stage of a Service.
type State int32

const (
	StateRunning State = iota
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Service validates requests against the shared table, coordinates flushes
// to the backing file and tracks the Running, Draining, Stopped lifecycle.
type Service struct {
	store     Store
	persister Persister
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock

	state      atomic.Int32
	flushMu    sync.Mutex
	shutdownMu sync.Mutex
	lastFlush  atomic.Int64 // unix nanos, 0 before the first successful flush
}

// NewService creates a Service in the Running state.
func NewService(store Store, persister Persister, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Service {
	s := &Service{
		store:     store,
		persister: persister,
		logger:    logger,
		metrics:   metrics,
		clock:     clock,
	}
	metrics.Records.Set(float64(store.Len()))
	metrics.ServiceState.Set(observability.StateRunning)
	return s
}

func (s *Service) State() State { return State(s.state.Load()) }

// Len reports the number of records in the table.
func (s *Service) Len() int { return s.store.Len() }

// LastFlush returns the time of the last successful flush.
func (s *Service) LastFlush() (time.Time, bool) {
	n := s.lastFlush.Load()
	if n == 0 {
		return time.Time{}, false
	}
	return time.Unix(0, n).UTC(), true
}

func (s *Service) admit(op string) error {
	if s.State() != StateRunning {
		s.metrics.Requests.WithLabelValues(op, "unavailable").Inc()
		return ErrNotRunning
	}
	return nil
}

func (s *Service) observe(op string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	s.metrics.Requests.WithLabelValues(op, outcome).Inc()
}

// Range returns the entries between begin and end inclusive, ascending.
func (s *Service) Range(begin, end Date) (*Table, error) {
	if err := s.admit("range"); err != nil {
		return nil, err
	}
	t, err := s.store.Range(begin, end)
	s.observe("range", err)
	return t, err
}

// All returns a copy of the whole table in table order.
func (s *Service) All() (*Table, error) {
	if err := s.admit("all"); err != nil {
		return nil, err
	}
	t := s.store.All()
	s.observe("all", nil)
	return t, nil
}

// Stats summarizes one field over the range [begin, end].
func (s *Service) Stats(begin, end Date, f Field) (Summary, error) {
	if err := s.admit("stats"); err != nil {
		return Summary{}, err
	}
	var sum Summary
	t, err := s.store.Range(begin, end)
	if err == nil {
		sum, err = Summarize(t, f)
	}
	s.observe("stats", err)
	return sum, err
}

// Insert adds every record or none of them.
func (s *Service) Insert(records []Record) error {
	if err := s.admit("insert"); err != nil {
		return err
	}
	err := s.store.Insert(records)
	s.afterWrite("insert", len(records), err)
	return err
}

// Update applies patches[i] to dates[i], all or nothing.
func (s *Service) Update(dates []Date, patches []Patch) error {
	if err := s.admit("update"); err != nil {
		return err
	}
	err := s.store.Update(dates, patches)
	s.afterWrite("update", len(dates), err)
	return err
}

// Delete removes every date or none of them.
func (s *Service) Delete(dates []Date) error {
	if err := s.admit("delete"); err != nil {
		return err
	}
	err := s.store.Delete(dates)
	s.afterWrite("delete", len(dates), err)
	return err
}

func (s *Service) afterWrite(op string, n int, err error) {
	s.observe(op, err)
	if err != nil {
		s.logger.Debug("batch rejected", "operation", op, "size", n, "error", err)
		return
	}
	s.metrics.Records.Set(float64(s.store.Len()))
	s.logger.Debug("batch applied", "operation", op, "size", n)
}

// Flush rewrites the backing file from a consistent snapshot of the table.
// Concurrent flushes are serialized.
func (s *Service) Flush(ctx context.Context) error {
	if s.State() == StateStopped {
		return ErrNotRunning
	}
	return s.flush(ctx)
}

func (s *Service) flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	start := s.clock.Now()
	text := s.store.Text()
	if err := s.persister.Save(ctx, text); err != nil {
		s.metrics.Flushes.WithLabelValues("error").Inc()
		return fmt.Errorf("flush: %w", err)
	}

	now := s.clock.Now()
	s.lastFlush.Store(now.UnixNano())
	s.metrics.Flushes.WithLabelValues("ok").Inc()
	s.metrics.FlushDuration.Observe(now.Sub(start).Seconds())
	s.logger.Debug("table flushed", "bytes", len(text), "duration", now.Sub(start))
	return nil
}

// Drain stops admitting requests. Flushes are still allowed.
func (s *Service) Drain() {
	if s.state.CompareAndSwap(int32(StateRunning), int32(StateDraining)) {
		s.metrics.ServiceState.Set(observability.StateDraining)
		s.logger.Info("service draining")
	}
}

// Shutdown drains the service, performs the final flush and moves to
// Stopped. Later calls wait for the first one to finish and return nil.
func (s *Service) Shutdown(ctx context.Context) error {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()

	s.Drain()
	if !s.state.CompareAndSwap(int32(StateDraining), int32(StateStopped)) {
		return nil
	}
	err := s.flush(ctx)
	s.metrics.ServiceState.Set(observability.StateStopped)
	if err != nil {
		s.logger.Error("final flush failed", "error", err)
		return fmt.Errorf("final %w", err)
	}
	s.logger.Info("service stopped", "records", s.store.Len())
	return nil
}
