package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/innhub/service-reservation/internal/platform/domain"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// RoomReservation is one room-type line of a booking.
type RoomReservation struct {
	RoomTypeID       uuid.UUID
	Units            int
	NightlyRateCents int64
}

// MergeRooms folds duplicate room types into one entry, keeping the order of
// first appearance.
func MergeRooms(rooms []RoomReservation) []RoomReservation {
	index := make(map[uuid.UUID]int, len(rooms))
	merged := make([]RoomReservation, 0, len(rooms))
	for _, r := range rooms {
		if i, ok := index[r.RoomTypeID]; ok {
			merged[i].Units += r.Units
			continue
		}
		index[r.RoomTypeID] = len(merged)
		merged = append(merged, r)
	}
	return merged
}

// Booking is the aggregate root for the booking domain.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	guestUserID   *uuid.UUID
	rooms         []RoomReservation
	stay          Stay
	status        BookingStatus

	paymentStatus PaymentStatus
	paymentMethod string
	transactionID string

	personDetails    []PersonDetail
	totalAmountCents int64
	currency         string

	cancellationReason string
	adminNotes         string

	confirmedAt *time.Time
	checkedInAt *time.Time
	completedAt *time.Time
	cancelledAt *time.Time
	paidAt      *time.Time

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateBookingNumber creates a booking number in the format "BK-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "BK-" + string(result), nil
}

// NewBooking creates a booking in the given initial status, which must be
// pending or confirmed. Rooms are expected to be merged already.
func NewBooking(
	guestUserID *uuid.UUID,
	rooms []RoomReservation,
	stay Stay,
	personDetails []PersonDetail,
	totalAmountCents int64,
	currency string,
	initial BookingStatus,
) (*Booking, error) {
	if len(rooms) == 0 {
		return nil, domain.NewFieldValidationError("rooms", "at least one room is required")
	}
	for i, r := range rooms {
		if r.RoomTypeID == uuid.Nil {
			return nil, domain.NewFieldValidationError(fmt.Sprintf("rooms[%d].roomId", i), "is required")
		}
		if r.Units < 1 {
			return nil, domain.NewFieldValidationError(fmt.Sprintf("rooms[%d].numberOfRooms", i), "must be at least 1")
		}
	}
	if !stay.CheckOut.After(stay.CheckIn) {
		return nil, domain.NewFieldValidationError("checkOutDate", "must be after checkInDate")
	}
	if err := ValidatePersonDetails(personDetails); err != nil {
		return nil, err
	}
	if totalAmountCents < 0 {
		return nil, domain.NewFieldValidationError("totalAmount", "must not be negative")
	}
	if initial != StatusPending && initial != StatusConfirmed {
		return nil, domain.NewValidationError(fmt.Sprintf("bookings cannot start as %s", initial))
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	b := &Booking{
		id:               uuid.New(),
		bookingNumber:    bookingNumber,
		guestUserID:      guestUserID,
		rooms:            append([]RoomReservation(nil), rooms...),
		stay:             stay,
		status:           initial,
		paymentStatus:    PaymentUnpaid,
		personDetails:    append([]PersonDetail(nil), personDetails...),
		totalAmountCents: totalAmountCents,
		currency:         currency,
		version:          1,
		createdAt:        now,
		updatedAt:        now,
	}
	if initial == StatusConfirmed {
		b.confirmedAt = &now
	}
	return b, nil
}

// Snapshot carries persisted booking state back into the aggregate.
type Snapshot struct {
	ID                 uuid.UUID
	BookingNumber      string
	GuestUserID        *uuid.UUID
	Rooms              []RoomReservation
	Stay               Stay
	Status             BookingStatus
	PaymentStatus      PaymentStatus
	PaymentMethod      string
	TransactionID      string
	PersonDetails      []PersonDetail
	TotalAmountCents   int64
	Currency           string
	CancellationReason string
	AdminNotes         string
	ConfirmedAt        *time.Time
	CheckedInAt        *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time
	PaidAt             *time.Time
	Version            int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(s Snapshot) *Booking {
	return &Booking{
		id:                 s.ID,
		bookingNumber:      s.BookingNumber,
		guestUserID:        s.GuestUserID,
		rooms:              s.Rooms,
		stay:               s.Stay,
		status:             s.Status,
		paymentStatus:      s.PaymentStatus,
		paymentMethod:      s.PaymentMethod,
		transactionID:      s.TransactionID,
		personDetails:      s.PersonDetails,
		totalAmountCents:   s.TotalAmountCents,
		currency:           s.Currency,
		cancellationReason: s.CancellationReason,
		adminNotes:         s.AdminNotes,
		confirmedAt:        s.ConfirmedAt,
		checkedInAt:        s.CheckedInAt,
		completedAt:        s.CompletedAt,
		cancelledAt:        s.CancelledAt,
		paidAt:             s.PaidAt,
		version:            s.Version,
		createdAt:          s.CreatedAt,
		updatedAt:          s.UpdatedAt,
	}
}

// --- Getters ---

func (b *Booking) ID() uuid.UUID                { return b.id }
func (b *Booking) BookingNumber() string        { return b.bookingNumber }
func (b *Booking) GuestUserID() *uuid.UUID      { return b.guestUserID }
func (b *Booking) Stay() Stay                   { return b.stay }
func (b *Booking) Status() BookingStatus        { return b.status }
func (b *Booking) PaymentStatus() PaymentStatus { return b.paymentStatus }
func (b *Booking) PaymentMethod() string        { return b.paymentMethod }
func (b *Booking) TransactionID() string        { return b.transactionID }
func (b *Booking) TotalAmountCents() int64      { return b.totalAmountCents }
func (b *Booking) Currency() string             { return b.currency }
func (b *Booking) CancellationReason() string   { return b.cancellationReason }
func (b *Booking) AdminNotes() string           { return b.adminNotes }
func (b *Booking) ConfirmedAt() *time.Time      { return b.confirmedAt }
func (b *Booking) CheckedInAt() *time.Time      { return b.checkedInAt }
func (b *Booking) CompletedAt() *time.Time      { return b.completedAt }
func (b *Booking) CancelledAt() *time.Time      { return b.cancelledAt }
func (b *Booking) PaidAt() *time.Time           { return b.paidAt }
func (b *Booking) Version() int64               { return b.version }
func (b *Booking) CreatedAt() time.Time         { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time         { return b.updatedAt }

// Rooms returns a copy of the room lines.
func (b *Booking) Rooms() []RoomReservation {
	return append([]RoomReservation(nil), b.rooms...)
}

// PersonDetails returns a copy of the guest list.
func (b *Booking) PersonDetails() []PersonDetail {
	return append([]PersonDetail(nil), b.personDetails...)
}

// UnitsFor returns the units this booking holds of a room type.
func (b *Booking) UnitsFor(roomTypeID uuid.UUID) int {
	for _, r := range b.rooms {
		if r.RoomTypeID == roomTypeID {
			return r.Units
		}
	}
	return 0
}

// IsHeldBy reports whether userID is the guest account on the booking.
func (b *Booking) IsHeldBy(userID uuid.UUID) bool {
	return b.guestUserID != nil && *b.guestUserID == userID
}

// IsActive reports whether the booking still holds units.
func (b *Booking) IsActive() bool {
	return b.status.IsActive()
}

// --- Behavior ---

// TransitionTo moves the booking to target and stamps the matching timestamp.
// Returning false with no error means the booking already had that status.
func (b *Booking) TransitionTo(target BookingStatus, reason string) (bool, error) {
	if !target.IsValid() {
		return false, domain.NewFieldValidationError("status", fmt.Sprintf("invalid booking status: %q", target))
	}
	if target == b.status {
		return false, nil
	}
	if !b.status.CanTransitionTo(target) {
		return false, domain.NewInvalidStateError(string(b.status), string(target))
	}

	now := time.Now().UTC()
	switch target {
	case StatusConfirmed:
		b.confirmedAt = &now
	case StatusCheckedIn:
		b.checkedInAt = &now
	case StatusCheckedOut, StatusCompleted:
		b.completedAt = &now
	case StatusCancelled:
		b.cancelledAt = &now
		b.cancellationReason = reason
	}
	b.status = target
	b.updatedAt = now
	return true, nil
}

// Cancel transitions the booking to cancelled. Cancelling a booking that has
// already left the active set is an invalid state.
func (b *Booking) Cancel(reason string) error {
	if !b.status.CanTransitionTo(StatusCancelled) {
		return domain.NewInvalidStateError(string(b.status), string(StatusCancelled))
	}
	_, err := b.TransitionTo(StatusCancelled, reason)
	return err
}

// RecordPayment applies a payment status change. Repeating the current status
// only refreshes the method and transaction reference.
func (b *Booking) RecordPayment(target PaymentStatus, method, transactionID string) (bool, error) {
	if !target.IsValid() {
		return false, domain.NewFieldValidationError("paymentStatus", fmt.Sprintf("invalid payment status: %q", target))
	}
	now := time.Now().UTC()
	if target == b.paymentStatus {
		changed := false
		if method != "" && method != b.paymentMethod {
			b.paymentMethod = method
			changed = true
		}
		if transactionID != "" && transactionID != b.transactionID {
			b.transactionID = transactionID
			changed = true
		}
		if changed {
			b.updatedAt = now
		}
		return false, nil
	}
	if !b.paymentStatus.CanTransitionTo(target) {
		return false, domain.NewInvalidStateError("payment "+string(b.paymentStatus), string(target))
	}

	if target == PaymentPaid {
		b.paidAt = &now
	}
	if method != "" {
		b.paymentMethod = method
	}
	if transactionID != "" {
		b.transactionID = transactionID
	}
	b.paymentStatus = target
	b.updatedAt = now
	return true, nil
}

// SetAdminNotes replaces the staff notes.
func (b *Booking) SetAdminNotes(notes string) {
	b.adminNotes = notes
	b.updatedAt = time.Now().UTC()
}

// SetCancellationReason records a reason without changing status.
func (b *Booking) SetCancellationReason(reason string) {
	b.cancellationReason = reason
	b.updatedAt = time.Now().UTC()
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
	b.updatedAt = time.Now().UTC()
}
