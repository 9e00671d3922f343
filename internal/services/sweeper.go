package services

import (
	"context"
	"fmt"
	"time"

	"busbooking/internal/events"
	"busbooking/internal/metrics"
	"busbooking/internal/utils"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

const sweepLockKey = "busbooking:reservation-sweep"

// ReservationSweeper expires Pending bookings whose hold has lapsed and frees their seats.
type ReservationSweeper struct {
	Bookings  BookingStore
	Lock      Locker
	Events    EventPublisher
	BatchSize int
	LockTTL   time.Duration
	Now       func() time.Time
}

// SweepResult summarizes one pass.
type SweepResult struct {
	Scanned int
	Expired int
	Skipped bool
}

func (s ReservationSweeper) batch() int {
	if s.BatchSize <= 0 {
		return 200
	}
	return s.BatchSize
}

// Sweep runs one pass. Only one instance sweeps at a time when a Locker is configured;
// when the lock backend is unreachable the pass still runs, since Expire is idempotent.
func (s ReservationSweeper) Sweep(ctx context.Context) (SweepResult, error) {
	start := time.Now()
	defer func() { metrics.SweepDuration.Observe(time.Since(start).Seconds()) }()

	if s.Lock != nil {
		ttl := s.LockTTL
		if ttl <= 0 {
			ttl = time.Minute
		}
		ok, err := s.Lock.TryLock(ctx, sweepLockKey, ttl)
		switch {
		case err != nil:
			zap.L().Warn("sweep lock unavailable, sweeping without it", zap.Error(err))
		case !ok:
			return SweepResult{Skipped: true}, nil
		default:
			defer func() {
				if err := s.Lock.Unlock(context.WithoutCancel(ctx), sweepLockKey); err != nil {
					zap.L().Warn("sweep unlock failed", zap.Error(err))
				}
			}()
		}
	}

	now := clock(s.Now).now()
	due, err := s.Bookings.ListExpired(ctx, now, s.batch())
	if err != nil {
		return SweepResult{}, fmt.Errorf("list expired bookings: %w", err)
	}

	res := SweepResult{Scanned: len(due)}
	for _, b := range due {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		expired, err := s.Bookings.Expire(ctx, b.ID, now)
		if err != nil {
			utils.LogError("", "sweeper", "expire", fmt.Errorf("booking %d: %w", b.ID, err))
			continue
		}
		if !expired {
			continue
		}
		res.Expired++
		metrics.BookingsExpired.Inc()

		evt := events.BookingEvent{BookingID: b.ID, PNR: b.PNR, TravelDate: b.TravelDate, TotalAmount: b.TotalAmount, OccurredAt: now}
		if v, err := s.Bookings.GetByID(ctx, b.ID); err == nil {
			evt = bookingEvent(v)
			evt.OccurredAt = now
		}
		publish(ctx, s.Events, "", "sweeper", events.TopicBookingExpired, evt)
	}
	if res.Expired > 0 {
		utils.LogEvent("", "sweeper", "sweep", fmt.Sprintf("scanned=%d expired=%d", res.Scanned, res.Expired))
	}
	return res, nil
}

// Schedule registers the sweep as a singleton duration job on sched.
func (s ReservationSweeper) Schedule(ctx context.Context, sched gocron.Scheduler, every time.Duration) (gocron.Job, error) {
	return sched.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			if _, err := s.Sweep(ctx); err != nil {
				utils.LogError("", "sweeper", "sweep", err)
			}
		}),
		gocron.WithName("reservation-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
}
