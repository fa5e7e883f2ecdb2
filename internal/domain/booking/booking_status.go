package booking

import (
	"fmt"

	"github.com/innhub/service-reservation/internal/platform/domain"
)

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	StatusPending    BookingStatus = "pending"
	StatusConfirmed  BookingStatus = "confirmed"
	StatusCheckedIn  BookingStatus = "checked-in"
	StatusCheckedOut BookingStatus = "checked-out"
	StatusCompleted  BookingStatus = "completed"
	StatusCancelled  BookingStatus = "cancelled"
)

// validTransitions defines the state machine for booking status transitions.
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:    {StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCompleted, StatusCancelled},
	StatusConfirmed:  {StatusCheckedIn, StatusCheckedOut, StatusCompleted, StatusCancelled},
	StatusCheckedIn:  {StatusCheckedOut, StatusCompleted, StatusCancelled},
	StatusCheckedOut: {},
	StatusCompleted:  {},
	StatusCancelled:  {},
}

// ActiveStatuses hold units on the ledger.
var ActiveStatuses = []BookingStatus{StatusPending, StatusConfirmed, StatusCheckedIn}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s BookingStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// IsActive reports whether a booking in this status counts against capacity.
func (s BookingStatus) IsActive() bool {
	return s.IsValid() && !s.IsTerminal()
}

// ReleasesInventory reports whether entering this status hands units back.
func (s BookingStatus) ReleasesInventory() bool {
	return s == StatusCancelled || s == StatusCheckedOut || s == StatusCompleted
}

func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", domain.NewFieldValidationError("status", fmt.Sprintf("invalid booking status: %q", s))
	}
	return status, nil
}
