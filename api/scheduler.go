/*
scheduler.go - Automated due-date reminders

PURPOSE:
  Periodically scans every configured entity and records a reminder for each
  unpaid obligation whose warning window (warning date to due date) contains
  today. A reminder is recorded once per (entity, obligation key) no matter
  how many sweeps see it.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - "Today" comes from the service's generator clock, so tests pin it
  - One entity failing does not stop the sweep; it is logged and counted
  - Delivery is a structured log line; anything heavier plugs in here

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewReminderScheduler(service, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: RunReminders endpoint (manual sweep)
  - fiscal/service.go: DueSoon, MarkReminded
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/warp/fiscal-engine/fiscal"
	"go.uber.org/zap"
)

// ReminderScheduler records reminders for obligations coming due.
type ReminderScheduler struct {
	Service       *fiscal.Service
	CheckInterval time.Duration
	Enabled       bool

	logger *zap.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewReminderScheduler creates a new scheduler.
func NewReminderScheduler(service *fiscal.Service, logger *zap.Logger) *ReminderScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReminderScheduler{
		Service:       service,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		logger:        logger.Named("reminders"),
	}
}

// Start begins the scheduler.
func (rs *ReminderScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.logger.Info("scheduler disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)

	go rs.run(rs.ticker, rs.stop)

	rs.logger.Info("scheduler started", zap.Duration("interval", rs.CheckInterval))
}

// Stop stops the scheduler and waits for an in-flight sweep.
func (rs *ReminderScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		rs.logger.Info("scheduler stopped")
	}
}

func (rs *ReminderScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer rs.wg.Done()

	// Run immediately on start
	rs.sweep()

	for {
		select {
		case <-ticker.C:
			rs.sweep()
		case <-stop:
			return
		}
	}
}

func (rs *ReminderScheduler) sweep() {
	if _, err := rs.RunOnce(context.Background()); err != nil {
		rs.logger.Error("reminder sweep failed", zap.Error(err))
	}
}

// RunOnce performs one sweep over every entity.
func (rs *ReminderScheduler) RunOnce(ctx context.Context) (ReminderRunDTO, error) {
	report := ReminderRunDTO{
		Today:    rs.Service.Today(),
		Reminded: []ReminderDTO{},
	}

	entities, err := rs.Service.Entities(ctx)
	if err != nil {
		return report, err
	}

	for _, entityID := range entities {
		report.EntitiesChecked++

		due, err := rs.Service.DueSoon(ctx, entityID)
		if err != nil {
			report.EntitiesFailed++
			rs.logger.Error("failed to compute upcoming obligations",
				zap.String("entity_id", string(entityID)), zap.Error(err))
			continue
		}

		for _, o := range due {
			recorded, err := rs.Service.MarkReminded(ctx, entityID, o.Key)
			if err != nil {
				rs.logger.Error("failed to record reminder",
					zap.String("entity_id", string(entityID)),
					zap.String("obligation_key", o.Key),
					zap.Error(err))
				continue
			}
			if !recorded {
				continue
			}

			fields := []zap.Field{
				zap.String("entity_id", string(entityID)),
				zap.String("obligation_key", o.Key),
				zap.String("label", o.Label),
				zap.Stringer("due_date", o.DueDate),
				zap.String("status", string(o.Status)),
			}
			if o.Amount != nil {
				fields = append(fields, zap.Stringer("amount", o.Amount))
			}
			rs.logger.Info("obligation coming due", fields...)

			report.Reminded = append(report.Reminded, ReminderDTO{
				EntityID:      string(entityID),
				ObligationKey: o.Key,
				Label:         o.Label,
				DueDate:       o.DueDate,
				Amount:        o.Amount,
			})
		}
	}

	rs.logger.Info("reminder sweep done",
		zap.Stringer("today", report.Today),
		zap.Int("entities", report.EntitiesChecked),
		zap.Int("reminded", len(report.Reminded)))
	return report, nil
}
