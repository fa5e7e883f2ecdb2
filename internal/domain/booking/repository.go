package booking

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows booking listings. Nil fields are ignored.
type ListFilter struct {
	GuestUserID *uuid.UUID
	Status      *BookingStatus
	RoomTypeID  *uuid.UUID
}

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	FindByNumber(ctx context.Context, number string) (*Booking, error)

	// List retrieves bookings matching filter, newest first.
	List(ctx context.Context, filter ListFilter, page, limit int) ([]*Booking, int64, error)

	// FindActiveOverlapping returns active bookings holding roomTypeID on at
	// least one night of stay.
	FindActiveOverlapping(ctx context.Context, roomTypeID uuid.UUID, stay Stay) ([]*Booking, error)

	// FindActiveByRoomType returns every active booking holding roomTypeID.
	FindActiveByRoomType(ctx context.Context, roomTypeID uuid.UUID) ([]*Booking, error)

	CountActiveByRoomType(ctx context.Context, roomTypeID uuid.UUID) (int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// Update persists changes to an existing booking with optimistic locking.
	Update(ctx context.Context, booking *Booking) error
}
