// Package events defines the topics, event types and payloads this service
// publishes and consumes.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicBookingEvents = "hotel.booking.events"
	TopicPaymentEvents = "hotel.payment.events"
)

// Event types published on TopicBookingEvents.
const (
	BookingCreated             = "booking.created"
	BookingStatusChanged       = "booking.status_changed"
	BookingCancelled           = "booking.cancelled"
	BookingCheckedOut          = "booking.checked_out"
	BookingPaid                = "booking.paid"
	InventoryRestored          = "inventory.restored"
	InventoryRestorationFailed = "inventory.restoration_failed"
)

// Event types consumed from TopicPaymentEvents.
const (
	PaymentCaptured = "payment.captured"
)

// RoomLine is one room type held by a booking.
type RoomLine struct {
	RoomTypeID uuid.UUID `json:"roomTypeId"`
	Units      int       `json:"units"`
}

type BookingCreatedEvent struct {
	BookingID        uuid.UUID  `json:"bookingId"`
	BookingNumber    string     `json:"bookingNumber"`
	GuestUserID      *uuid.UUID `json:"guestUserId,omitempty"`
	Rooms            []RoomLine `json:"rooms"`
	CheckIn          string     `json:"checkIn"`
	CheckOut         string     `json:"checkOut"`
	Status           string     `json:"status"`
	TotalAmountCents int64      `json:"totalAmountCents"`
	Currency         string     `json:"currency"`
	OccurredAt       time.Time  `json:"occurredAt"`
}

// BookingStatusChangedEvent is published for every status transition. The
// cancelled and checked-out transitions also get their own event types with
// the same payload.
type BookingStatusChangedEvent struct {
	BookingID     uuid.UUID `json:"bookingId"`
	BookingNumber string    `json:"bookingNumber"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

type BookingPaidEvent struct {
	BookingID     uuid.UUID `json:"bookingId"`
	BookingNumber string    `json:"bookingNumber"`
	PaymentMethod string    `json:"paymentMethod,omitempty"`
	TransactionID string    `json:"transactionId,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

type InventoryRestoredEvent struct {
	TaskID      uuid.UUID `json:"taskId"`
	BookingID   uuid.UUID `json:"bookingId"`
	RoomTypeID  uuid.UUID `json:"roomTypeId"`
	Units       int       `json:"units"`
	CheckIn     string    `json:"checkIn"`
	CheckOut    string    `json:"checkOut"`
	Reason      string    `json:"reason"`
	ShortNights int       `json:"shortNights"`
	OccurredAt  time.Time `json:"occurredAt"`
}

type InventoryRestorationFailedEvent struct {
	TaskID     uuid.UUID `json:"taskId"`
	BookingID  uuid.UUID `json:"bookingId"`
	RoomTypeID uuid.UUID `json:"roomTypeId"`
	Units      int       `json:"units"`
	Attempts   int       `json:"attempts"`
	Error      string    `json:"error"`
	Final      bool      `json:"final"` // task gave up and needs an operator
	OccurredAt time.Time `json:"occurredAt"`
}

// PaymentCapturedEvent is emitted by the payment service once funds for a
// booking are captured.
type PaymentCapturedEvent struct {
	BookingID     uuid.UUID `json:"bookingId"`
	PaymentMethod string    `json:"paymentMethod"`
	TransactionID string    `json:"transactionId"`
	AmountCents   int64     `json:"amountCents,omitempty"`
}
