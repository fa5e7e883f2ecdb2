package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/innhub/service-reservation/internal/domain/booking"
)

// NightCount is the ledger row for one room type and night.
type NightCount struct {
	Night    time.Time
	Reserved int
}

// Ledger is the single source of truth for units currently held per night.
type Ledger interface {
	// Reserve adds units to every night of stay, failing with a conflict if
	// any night would exceed the room type's unit count.
	Reserve(ctx context.Context, roomTypeID uuid.UUID, stay booking.Stay, units int) error

	// Release returns units for every night of stay. Nights holding fewer
	// units than requested drop to zero and are counted in shortNights.
	Release(ctx context.Context, roomTypeID uuid.UUID, stay booking.Stay, units int) (shortNights int, err error)

	// Nights lists ledger rows for roomTypeID ordered by night. A zero from
	// or to leaves that side open.
	Nights(ctx context.Context, roomTypeID uuid.UUID, from, to time.Time) ([]NightCount, error)

	// MaxReserved is the busiest night from "from" onwards.
	MaxReserved(ctx context.Context, roomTypeID uuid.UUID, from time.Time) (int, error)

	// SetReserved overwrites a single night. Used only by reconciliation.
	SetReserved(ctx context.Context, roomTypeID uuid.UUID, night time.Time, reserved int) error

	DeleteRoomType(ctx context.Context, roomTypeID uuid.UUID) error
}
