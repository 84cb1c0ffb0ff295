// Package scheduler runs the recurring free/busy sync cycle.
//
// Each cycle starts a fetch for every room without waiting for any of them,
// then sleeps until the next wall-clock boundary that is a multiple of the
// interval (:00, :05, :10 ... for five minutes). A slow or failing room never
// delays the next cycle or the other rooms.
package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/navikt/roomstatus/internal/models"
)

// RoomSyncer updates one room's state from its feed
type RoomSyncer interface {
	SyncRoom(ctx context.Context, room models.Room, now time.Time) error
}

// NextFire returns the first wall-clock boundary strictly after now that is a
// whole multiple of interval past the hour. Seconds are discarded, so 12:03:40
// with a five minute interval fires at 12:05:00, and 12:05:00 fires at 12:10:00.
func NextFire(now time.Time, interval time.Duration) time.Time {
	minutes := int(interval / time.Minute)
	if minutes <= 0 {
		minutes = 1
	}
	// Truncate works on absolute time; drop seconds in the local wall clock instead
	floor := now.Add(-time.Duration(now.Second())*time.Second - time.Duration(now.Nanosecond()))
	return floor.Add(time.Duration(minutes-now.Minute()%minutes) * time.Minute)
}

// Scheduler drives the sync cycle for a fixed set of rooms
type Scheduler struct {
	rooms    []models.Room
	syncer   RoomSyncer
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	now   func() time.Time
	after func(time.Duration) <-chan time.Time

	cycles atomic.Int64
}

// Option customises a Scheduler
type Option func(*Scheduler)

// WithClock replaces the time source and timer, for tests
func WithClock(now func() time.Time, after func(time.Duration) <-chan time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
		s.after = after
	}
}

// WithFetchTimeout bounds each room's sync; zero means no limit
func WithFetchTimeout(timeout time.Duration) Option {
	return func(s *Scheduler) {
		s.timeout = timeout
	}
}

// New creates a scheduler for rooms syncing every interval
func New(rooms []models.Room, syncer RoomSyncer, interval time.Duration, logger *zap.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		rooms:    append([]models.Room(nil), rooms...),
		syncer:   syncer,
		interval: interval,
		logger:   logger,
		now:      time.Now,
		after:    time.After,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cycles returns how many cycles have been started
func (s *Scheduler) Cycles() int64 {
	return s.cycles.Load()
}

// Ready reports whether at least one cycle has been issued
func (s *Scheduler) Ready() bool {
	return s.Cycles() > 0
}

// Run starts a cycle immediately and then once per aligned boundary until ctx
// is cancelled. It only returns ctx's error.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		now := s.now()
		s.SyncAll(ctx, now)

		next := NextFire(now, s.interval)
		wait := next.Sub(s.now())
		if wait < 0 {
			wait = 0
		}
		s.logger.Info("next sync scheduled",
			zap.Time("at", next),
			zap.Duration("in", wait),
		)

		select {
		case <-ctx.Done():
			s.logger.Info("sync scheduler stopped")
			return ctx.Err()
		case <-s.after(wait):
		}
	}
}

// SyncAll starts one fetch per room and returns at once. The returned channel
// is closed when every fetch of this cycle has finished; Run never waits on it.
func (s *Scheduler) SyncAll(ctx context.Context, now time.Time) <-chan struct{} {
	cycleID := uuid.NewString()
	s.cycles.Add(1)

	s.logger.Info("starting sync cycle",
		zap.String("cycle_id", cycleID),
		zap.Time("now", now),
		zap.Int("rooms", len(s.rooms)),
	)

	done := make(chan struct{})
	var wg sync.WaitGroup
	var failed atomic.Int32

	for _, room := range s.rooms {
		wg.Add(1)
		go func(room models.Room) {
			defer wg.Done()

			roomCtx, cancel := s.roomContext(ctx)
			defer cancel()

			if err := s.syncer.SyncRoom(roomCtx, room, now); err != nil {
				failed.Add(1)
			}
		}(room)
	}

	go func() {
		wg.Wait()
		s.logger.Info("sync cycle finished",
			zap.String("cycle_id", cycleID),
			zap.Int("rooms", len(s.rooms)),
			zap.Int32("failed", failed.Load()),
		)
		close(done)
	}()

	return done
}

func (s *Scheduler) roomContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}
