package reminder

import (
	"context"
	"log/slog"
	"time"

	"github.com/daybook-ai/daybook/internal/logger"
	"github.com/robfig/cron/v3"
)

// Dispatcher periodically scans for due reminders and hands them to the
// delivery callback. Delivery mechanics stay behind the callback; the default
// sink only logs.
type Dispatcher struct {
	service *Service
	logger  *logger.Logger
	cron    *cron.Cron
	deliver func(context.Context, Reminder) error
}

// NewDispatcher creates a reminder dispatcher. deliver may be nil, in which
// case due reminders are logged and marked delivered.
func NewDispatcher(service *Service, log *logger.Logger, deliver func(context.Context, Reminder) error) *Dispatcher {
	return &Dispatcher{
		service: service,
		logger:  log.WithComponent("reminder-dispatcher"),
		cron:    cron.New(),
		deliver: deliver,
	}
}

// Start schedules the periodic scan with the given cron spec and starts the
// scheduler in its own goroutine.
func (d *Dispatcher) Start(spec string) error {
	_, err := d.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		d.DispatchDue(ctx)
	})
	if err != nil {
		return err
	}
	d.cron.Start()
	d.logger.Info("reminder dispatcher started", slog.String("spec", spec))
	return nil
}

// Stop stops the scheduler and waits for a running scan to finish.
func (d *Dispatcher) Stop() {
	<-d.cron.Stop().Done()
}

// DispatchDue processes all currently due reminders once.
func (d *Dispatcher) DispatchDue(ctx context.Context) {
	due, err := d.service.ListDue(ctx, time.Now())
	if err != nil {
		d.logger.Error("failed to list due reminders", slog.String("error", err.Error()))
		return
	}

	for _, r := range due {
		if d.deliver != nil {
			if err := d.deliver(ctx, r); err != nil {
				d.logger.Error("failed to deliver reminder",
					slog.String("reminder_id", r.ID),
					slog.String("error", err.Error()))
				continue
			}
		} else {
			d.logger.Info("reminder due",
				slog.String("reminder_id", r.ID),
				slog.Int64("user_id", r.UserID),
				slog.String("channel", r.Channel),
				slog.String("content", r.Content))
		}
		if err := d.service.MarkDelivered(ctx, r.ID); err != nil {
			d.logger.Error("failed to mark reminder delivered",
				slog.String("reminder_id", r.ID),
				slog.String("error", err.Error()))
		}
	}
}
