package booking

import (
	"testing"

	"github.com/google/uuid"
	"github.com/innhub/service-reservation/internal/platform/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var guests = []PersonDetail{{Name: "Aisyah Rahman", Email: "aisyah@example.com"}}

func newTestBooking(t *testing.T, initial BookingStatus) *Booking {
	t.Helper()
	rooms := []RoomReservation{{RoomTypeID: uuid.New(), Units: 2, NightlyRateCents: 15000}}
	b, err := NewBooking(nil, rooms, mustStay(t, "2025-06-10", "2025-06-12"), guests, 60000, "MYR", initial)
	require.NoError(t, err)
	return b
}

func TestNewBooking(t *testing.T) {
	b := newTestBooking(t, StatusPending)

	assert.Regexp(t, `^BK-[A-Z2-9]{6}$`, b.BookingNumber())
	assert.Equal(t, StatusPending, b.Status())
	assert.Equal(t, PaymentUnpaid, b.PaymentStatus())
	assert.Equal(t, int64(1), b.Version())
	assert.Nil(t, b.ConfirmedAt())
	assert.True(t, b.IsActive())

	confirmed := newTestBooking(t, StatusConfirmed)
	assert.NotNil(t, confirmed.ConfirmedAt())
}

func TestNewBooking_Validation(t *testing.T) {
	stay := mustStay(t, "2025-06-10", "2025-06-12")
	room := RoomReservation{RoomTypeID: uuid.New(), Units: 1}

	tests := []struct {
		name    string
		rooms   []RoomReservation
		guests  []PersonDetail
		initial BookingStatus
		field   string
	}{
		{"no rooms", nil, guests, StatusPending, "rooms"},
		{"zero units", []RoomReservation{{RoomTypeID: uuid.New(), Units: 0}}, guests, StatusPending, "rooms[0].numberOfRooms"},
		{"nil room type", []RoomReservation{{Units: 1}}, guests, StatusPending, "rooms[0].roomId"},
		{"no guests", []RoomReservation{room}, nil, StatusPending, "personDetails"},
		{"unnamed guest", []RoomReservation{room}, []PersonDetail{{Email: "x@y.z"}}, StatusPending, "personDetails[0].name"},
		{"checked-in start", []RoomReservation{room}, guests, StatusCheckedIn, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBooking(nil, tt.rooms, stay, tt.guests, 0, "MYR", tt.initial)
			require.Error(t, err)
			de, ok := domain.AsDomainError(err)
			require.True(t, ok)
			assert.Equal(t, domain.CodeValidation, de.Code)
			assert.Equal(t, tt.field, de.Field)
		})
	}
}

func TestMergeRooms(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	merged := MergeRooms([]RoomReservation{
		{RoomTypeID: a, Units: 1},
		{RoomTypeID: b, Units: 2},
		{RoomTypeID: a, Units: 3},
	})
	require.Len(t, merged, 2)
	assert.Equal(t, RoomReservation{RoomTypeID: a, Units: 4}, merged[0])
	assert.Equal(t, RoomReservation{RoomTypeID: b, Units: 2}, merged[1])
}

func TestBooking_TransitionStamps(t *testing.T) {
	b := newTestBooking(t, StatusPending)

	changed, err := b.TransitionTo(StatusConfirmed, "")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NotNil(t, b.ConfirmedAt())

	changed, err = b.TransitionTo(StatusConfirmed, "")
	require.NoError(t, err)
	assert.False(t, changed, "same status is a no-op")

	_, err = b.TransitionTo(StatusCheckedIn, "")
	require.NoError(t, err)
	assert.NotNil(t, b.CheckedInAt())

	_, err = b.TransitionTo(StatusCheckedOut, "")
	require.NoError(t, err)
	assert.NotNil(t, b.CompletedAt())
	assert.False(t, b.IsActive())

	_, err = b.TransitionTo(StatusCancelled, "late")
	assert.True(t, domain.IsInvalidState(err))
	assert.Equal(t, StatusCheckedOut, b.Status())
}

func TestBooking_CancelTwiceIsInvalidState(t *testing.T) {
	b := newTestBooking(t, StatusConfirmed)
	require.NoError(t, b.Cancel("guest request"))
	assert.Equal(t, "guest request", b.CancellationReason())
	stamped := b.CancelledAt()
	require.NotNil(t, stamped)

	err := b.Cancel("again")
	assert.True(t, domain.IsInvalidState(err))
	assert.Equal(t, "guest request", b.CancellationReason())
	assert.Equal(t, stamped, b.CancelledAt())
}

func TestBooking_TransitionRejectsUnknownStatus(t *testing.T) {
	b := newTestBooking(t, StatusPending)
	_, err := b.TransitionTo(BookingStatus("bogus"), "")
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, StatusPending, b.Status())
}

func TestBooking_RecordPayment(t *testing.T) {
	b := newTestBooking(t, StatusConfirmed)

	_, err := b.RecordPayment(PaymentRefunded, "", "")
	assert.True(t, domain.IsInvalidState(err))

	changed, err := b.RecordPayment(PaymentPaid, "card", "tx-1")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.NotNil(t, b.PaidAt())
	assert.Equal(t, "card", b.PaymentMethod())
	assert.Equal(t, "tx-1", b.TransactionID())

	changed, err = b.RecordPayment(PaymentPaid, "", "tx-2")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "tx-2", b.TransactionID())

	_, err = b.RecordPayment(PaymentRefunded, "", "")
	require.NoError(t, err)
	assert.Equal(t, PaymentRefunded, b.PaymentStatus())
	assert.Equal(t, StatusConfirmed, b.Status(), "payment does not move the stay lifecycle")
}

func TestBooking_IsHeldBy(t *testing.T) {
	owner := uuid.New()
	rooms := []RoomReservation{{RoomTypeID: uuid.New(), Units: 1}}
	b, err := NewBooking(&owner, rooms, mustStay(t, "2025-06-10", "2025-06-11"), guests, 0, "MYR", StatusPending)
	require.NoError(t, err)

	assert.True(t, b.IsHeldBy(owner))
	assert.False(t, b.IsHeldBy(uuid.New()))
	assert.False(t, newTestBooking(t, StatusPending).IsHeldBy(owner))
}
