package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/innhub/service-reservation/internal/contract/events"
	bookingDomain "github.com/innhub/service-reservation/internal/domain/booking"
	"github.com/innhub/service-reservation/internal/domain/inventory"
	"github.com/innhub/service-reservation/internal/domain/uow"
	"github.com/innhub/service-reservation/internal/platform/domain"
	"github.com/innhub/service-reservation/internal/platform/lock"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// RestorationReport summarises one batch of restoration attempts.
type RestorationReport struct {
	Restored int `json:"restored"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
}

// Compensator returns held units to the ledger. Every restoration task runs
// in its own transaction, so one room type failing never blocks the others.
type Compensator struct {
	unit         uow.UnitOfWork
	repos        uow.Repositories
	locker       lock.Locker
	availability *AvailabilityService
	events       emitter
	maxAttempts  int
	logger       *zap.Logger
}

// NewCompensator creates a Compensator. Tasks that fail maxAttempts times are
// parked as failed until an operator requeues them.
func NewCompensator(
	unit uow.UnitOfWork,
	repos uow.Repositories,
	locker lock.Locker,
	availability *AvailabilityService,
	publisher EventPublisher,
	maxAttempts int,
	logger *zap.Logger,
) *Compensator {
	return &Compensator{
		unit:         unit,
		repos:        repos,
		locker:       locker,
		availability: availability,
		events:       emitter{publisher: publisher, logger: logger},
		maxAttempts:  maxAttempts,
		logger:       logger,
	}
}

// RestoreAll runs each task independently. Failures are recorded on the task
// and counted, never returned.
func (c *Compensator) RestoreAll(ctx context.Context, tasks []*inventory.RestorationTask) RestorationReport {
	var report RestorationReport
	for _, task := range tasks {
		restored, err := c.Restore(ctx, task)
		switch {
		case err != nil:
			report.Failed++
		case restored:
			report.Restored++
		default:
			report.Skipped++
		}
	}
	return report
}

// Restore applies one task: it claims the task, checks the room type still
// exists and releases the units for every night of the stay. A false result
// with no error means another worker already applied it.
func (c *Compensator) Restore(ctx context.Context, task *inventory.RestorationTask) (bool, error) {
	ctx, span := tracer.Start(ctx, "inventory.restore")
	defer span.End()
	span.SetAttributes(
		attribute.String("task_id", task.ID.String()),
		attribute.String("room_type_id", task.RoomTypeID.String()),
	)

	unlock, err := c.locker.Lock(ctx, roomTypeLockKey(task.RoomTypeID))
	if err != nil {
		return false, c.recordFailure(ctx, task, fmt.Errorf("failed to lock room type: %w", err))
	}
	defer unlock()

	var claimed bool
	var shortNights int
	err = c.unit.Do(ctx, func(r uow.Repositories) error {
		ok, err := r.Restorations.Claim(ctx, task.ID)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		claimed = true

		if _, err := r.RoomTypes.FindByID(ctx, task.RoomTypeID); err != nil {
			return err
		}
		shortNights, err = r.Ledger.Release(ctx, task.RoomTypeID, task.Stay, task.Units)
		return err
	})
	if err != nil {
		return false, c.recordFailure(ctx, task, err)
	}
	if !claimed {
		return false, nil
	}

	c.availability.Invalidate(task.RoomTypeID)

	if shortNights > 0 {
		c.logger.Warn("ledger held fewer units than released",
			zap.String("task_id", task.ID.String()),
			zap.String("booking_id", task.BookingID.String()),
			zap.String("room_type_id", task.RoomTypeID.String()),
			zap.Int("short_nights", shortNights),
		)
	}
	c.logger.Info("inventory restored",
		zap.String("task_id", task.ID.String()),
		zap.String("booking_id", task.BookingID.String()),
		zap.String("room_type_id", task.RoomTypeID.String()),
		zap.Int("units", task.Units),
		zap.String("reason", task.Reason),
	)

	c.events.publish(ctx, events.TopicBookingEvents, events.InventoryRestored, task.BookingID.String(), events.InventoryRestoredEvent{
		TaskID:      task.ID,
		BookingID:   task.BookingID,
		RoomTypeID:  task.RoomTypeID,
		Units:       task.Units,
		CheckIn:     task.Stay.CheckIn.Format(bookingDomain.DateLayout),
		CheckOut:    task.Stay.CheckOut.Format(bookingDomain.DateLayout),
		Reason:      task.Reason,
		ShortNights: shortNights,
		OccurredAt:  time.Now().UTC(),
	})
	return true, nil
}

// recordFailure stores cause on the task outside the failed transaction and
// returns cause unchanged.
func (c *Compensator) recordFailure(ctx context.Context, task *inventory.RestorationTask, cause error) error {
	updated, err := c.repos.Restorations.RecordFailure(ctx, task.ID, cause.Error(), c.maxAttempts)
	if err != nil {
		c.logger.Error("failed to record restoration failure",
			zap.String("task_id", task.ID.String()),
			zap.NamedError("cause", cause),
			zap.Error(err),
		)
		return cause
	}

	final := updated.Status == inventory.RestorationFailed
	c.logger.Error("inventory restoration failed",
		zap.String("task_id", task.ID.String()),
		zap.String("booking_id", task.BookingID.String()),
		zap.String("room_type_id", task.RoomTypeID.String()),
		zap.Int("attempts", updated.Attempts),
		zap.Bool("final", final),
		zap.Error(cause),
	)

	c.events.publish(ctx, events.TopicBookingEvents, events.InventoryRestorationFailed, task.BookingID.String(), events.InventoryRestorationFailedEvent{
		TaskID:     task.ID,
		BookingID:  task.BookingID,
		RoomTypeID: task.RoomTypeID,
		Units:      task.Units,
		Attempts:   updated.Attempts,
		Error:      updated.LastError,
		Final:      final,
		OccurredAt: time.Now().UTC(),
	})
	return cause
}

// ListTasks returns restoration tasks, optionally filtered by status.
func (c *Compensator) ListTasks(ctx context.Context, status string) ([]RestorationTaskDTO, error) {
	var filter *inventory.RestorationStatus
	if status != "" {
		s := inventory.RestorationStatus(status)
		if !s.IsValid() {
			return nil, domain.NewFieldValidationError("status", fmt.Sprintf("invalid restoration status: %q", status))
		}
		filter = &s
	}

	tasks, err := c.repos.Restorations.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]RestorationTaskDTO, len(tasks))
	for i, t := range tasks {
		out[i] = toRestorationTaskDTO(t)
	}
	return out, nil
}

// Requeue moves a failed task back to pending and tries it once immediately.
func (c *Compensator) Requeue(ctx context.Context, taskID uuid.UUID) (*RestorationTaskDTO, error) {
	task, err := c.repos.Restorations.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	ok, err := c.repos.Restorations.Requeue(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NewConflictError(fmt.Sprintf("restoration task is %s, only failed tasks can be requeued", task.Status))
	}

	task.Status = inventory.RestorationPending
	task.Attempts = 0
	if _, err := c.Restore(ctx, task); err != nil {
		// The failure is already on the task; the reloaded task reports it.
		c.logger.Debug("requeued restoration failed again",
			zap.String("task_id", taskID.String()),
			zap.Error(err),
		)
	}

	task, err = c.repos.Restorations.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	result := toRestorationTaskDTO(task)
	return &result, nil
}

// RestorationWorker periodically retries pending restoration tasks.
type RestorationWorker struct {
	compensator *Compensator
	repos       uow.Repositories
	interval    time.Duration
	batchSize   int
	logger      *zap.Logger
}

func NewRestorationWorker(compensator *Compensator, repos uow.Repositories, interval time.Duration, logger *zap.Logger) *RestorationWorker {
	return &RestorationWorker{
		compensator: compensator,
		repos:       repos,
		interval:    interval,
		batchSize:   100,
		logger:      logger,
	}
}

// Start runs until ctx is cancelled. A sweep runs immediately so tasks left
// pending by a crash are picked up on boot.
func (w *RestorationWorker) Start(ctx context.Context) error {
	w.logger.Info("restoration worker started", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error("restoration sweep failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			w.logger.Info("restoration worker stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// RunOnce retries one batch of pending tasks, oldest first.
func (w *RestorationWorker) RunOnce(ctx context.Context) (RestorationReport, error) {
	tasks, err := w.repos.Restorations.FindPending(ctx, w.batchSize)
	if err != nil {
		return RestorationReport{}, err
	}
	if len(tasks) == 0 {
		return RestorationReport{}, nil
	}

	report := w.compensator.RestoreAll(ctx, tasks)
	w.logger.Info("restoration sweep finished",
		zap.Int("restored", report.Restored),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
	)
	return report, nil
}

func roomTypeLockKey(id uuid.UUID) string {
	return "roomtype:" + id.String()
}
