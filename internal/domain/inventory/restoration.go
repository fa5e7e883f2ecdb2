package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/innhub/service-reservation/internal/domain/booking"
)

type RestorationStatus string

const (
	RestorationPending RestorationStatus = "pending"
	RestorationDone    RestorationStatus = "done"
	RestorationFailed  RestorationStatus = "failed"
)

func (s RestorationStatus) IsValid() bool {
	switch s {
	case RestorationPending, RestorationDone, RestorationFailed:
		return true
	}
	return false
}

// Outstanding reports whether the task's units are still held in the ledger.
// Failed tasks have not released anything yet.
func (s RestorationStatus) Outstanding() bool {
	return s == RestorationPending || s == RestorationFailed
}

// ReasonDeleted marks restorations caused by DELETE /bookings/:id.
const ReasonDeleted = "deleted"

// RestorationTask records that one room line of a booking owes units back to
// the ledger. Until it is done, the units count as held.
type RestorationTask struct {
	ID         uuid.UUID
	BookingID  uuid.UUID
	RoomTypeID uuid.UUID
	Units      int
	Stay       booking.Stay
	Reason     string
	Status     RestorationStatus
	Attempts   int
	LastError  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewRestorationTasks creates one pending task per room line of b.
func NewRestorationTasks(b *booking.Booking, reason string) []*RestorationTask {
	now := time.Now().UTC()
	rooms := b.Rooms()
	tasks := make([]*RestorationTask, 0, len(rooms))
	for _, r := range rooms {
		tasks = append(tasks, &RestorationTask{
			ID:         uuid.New(),
			BookingID:  b.ID(),
			RoomTypeID: r.RoomTypeID,
			Units:      r.Units,
			Stay:       b.Stay(),
			Reason:     reason,
			Status:     RestorationPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	return tasks
}

// RestorationRepository persists restoration tasks.
type RestorationRepository interface {
	// SaveAll inserts tasks. A task for the same booking and room type
	// already existing is a conflict.
	SaveAll(ctx context.Context, tasks []*RestorationTask) error
	FindByID(ctx context.Context, id uuid.UUID) (*RestorationTask, error)
	FindByBooking(ctx context.Context, bookingID uuid.UUID) ([]*RestorationTask, error)
	FindPending(ctx context.Context, limit int) ([]*RestorationTask, error)
	// FindOutstandingByRoomType returns pending and failed tasks, whose
	// units the ledger still holds.
	FindOutstandingByRoomType(ctx context.Context, roomTypeID uuid.UUID) ([]*RestorationTask, error)
	// List returns tasks, optionally filtered by status, newest first.
	List(ctx context.Context, status *RestorationStatus) ([]*RestorationTask, error)

	// Claim marks a pending task done. False means another worker got it.
	Claim(ctx context.Context, id uuid.UUID) (bool, error)
	// RecordFailure bumps attempts and stores the error; the task becomes
	// failed once attempts reaches maxAttempts.
	RecordFailure(ctx context.Context, id uuid.UUID, cause string, maxAttempts int) (*RestorationTask, error)
	// Requeue moves a failed task back to pending with zero attempts.
	Requeue(ctx context.Context, id uuid.UUID) (bool, error)
}
