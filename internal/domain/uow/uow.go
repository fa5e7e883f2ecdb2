// Package uow groups repositories that must commit together.
package uow

import (
	"context"

	"github.com/innhub/service-reservation/internal/domain/booking"
	"github.com/innhub/service-reservation/internal/domain/inventory"
	"github.com/innhub/service-reservation/internal/domain/roomtype"
)

// Repositories are bound to one transaction inside Do.
type Repositories struct {
	Bookings     booking.BookingRepository
	RoomTypes    roomtype.RoomTypeRepository
	Ledger       inventory.Ledger
	Restorations inventory.RestorationRepository
}

// UnitOfWork runs fn in a transaction. A non-nil error from fn rolls back.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(r Repositories) error) error
}
