package application

import (
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/innhub/service-reservation/internal/domain/booking"
	"github.com/innhub/service-reservation/internal/domain/inventory"
	"github.com/innhub/service-reservation/internal/domain/roomtype"
)

// RoomRequest is one line of a booking request.
type RoomRequest struct {
	RoomID        string `json:"roomId"`
	NumberOfRooms int    `json:"numberOfRooms"`
}

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	Rooms         []RoomRequest                `json:"rooms"`
	CheckInDate   string                       `json:"checkInDate"`
	CheckOutDate  string                       `json:"checkOutDate"`
	PersonDetails []bookingDomain.PersonDetail `json:"personDetails"`
	TotalAmount   int64                        `json:"totalAmount"`

	// UserID lets staff book on behalf of a guest account.
	UserID string `json:"userId,omitempty"`
}

// UpdateBookingRequest is a PUT body; absent fields are left untouched.
type UpdateBookingRequest struct {
	Status             *string `json:"status"`
	PaymentStatus      *string `json:"paymentStatus"`
	PaymentMethod      *string `json:"paymentMethod"`
	TransactionID      *string `json:"transactionId"`
	CancellationReason *string `json:"cancellationReason"`
	AdminNotes         *string `json:"adminNotes"`
}

// CancelUserBookingRequest is the body of POST /bookings/user.
type CancelUserBookingRequest struct {
	BookingID          string `json:"bookingId"`
	CancellationReason string `json:"cancellationReason"`
	UserID             string `json:"userId,omitempty"`
}

// BookingRoomDTO is one room line of a booking.
type BookingRoomDTO struct {
	RoomID        uuid.UUID `json:"roomId"`
	NumberOfRooms int       `json:"numberOfRooms"`
	NightlyRate   int64     `json:"nightlyRate"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID                 uuid.UUID                    `json:"_id"`
	BookingNumber      string                       `json:"bookingNumber"`
	UserID             *uuid.UUID                   `json:"userId,omitempty"`
	Rooms              []BookingRoomDTO             `json:"rooms"`
	CheckInDate        string                       `json:"checkInDate"`
	CheckOutDate       string                       `json:"checkOutDate"`
	Nights             int                          `json:"nights"`
	Status             string                       `json:"status"`
	PaymentStatus      string                       `json:"paymentStatus"`
	PaymentMethod      string                       `json:"paymentMethod,omitempty"`
	TransactionID      string                       `json:"transactionId,omitempty"`
	PersonDetails      []bookingDomain.PersonDetail `json:"personDetails"`
	TotalAmount        int64                        `json:"totalAmount"`
	Currency           string                       `json:"currency"`
	CancellationReason string                       `json:"cancellationReason,omitempty"`
	AdminNotes         string                       `json:"adminNotes,omitempty"`
	ConfirmedAt        *time.Time                   `json:"confirmedAt,omitempty"`
	CheckedInAt        *time.Time                   `json:"checkedInAt,omitempty"`
	CompletedAt        *time.Time                   `json:"completedAt,omitempty"`
	CancelledAt        *time.Time                   `json:"cancelledAt,omitempty"`
	PaidAt             *time.Time                   `json:"paidAt,omitempty"`
	Version            int64                        `json:"version"`
	CreatedAt          time.Time                    `json:"createdAt"`
	UpdatedAt          time.Time                    `json:"updatedAt"`
}

// CancelledBookingDTO is the trimmed body returned by DELETE /bookings/:id.
type CancelledBookingDTO struct {
	ID          uuid.UUID  `json:"_id"`
	Status      string     `json:"status"`
	CancelledAt *time.Time `json:"cancelledAt"`
}

// BookingStatsDTO holds booking counts by status.
type BookingStatsDTO struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"byStatus"`
}

// RoomTypeDTO is the response representation of a room type. AvailableUnits
// is set only when the room type was evaluated against a date range.
type RoomTypeDTO struct {
	ID             uuid.UUID `json:"_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	NightlyRate    int64     `json:"nightlyRate"`
	Currency       string    `json:"currency"`
	UnitCount      int       `json:"unitCount"`
	IsAvailable    bool      `json:"isAvailable"`
	AvailableUnits *int      `json:"availableUnits,omitempty"`
	Version        int64     `json:"version"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// AvailabilityDTO answers a single room type availability query.
type AvailabilityDTO struct {
	RoomTypeID     uuid.UUID `json:"roomTypeId"`
	CheckIn        string    `json:"checkIn"`
	CheckOut       string    `json:"checkOut"`
	UnitCount      int       `json:"unitCount"`
	ReservedUnits  int       `json:"reservedUnits"`
	AvailableUnits int       `json:"availableUnits"`
	IsAvailable    bool      `json:"isAvailable"`
}

// RestorationTaskDTO is a restoration task as shown on the admin surface.
type RestorationTaskDTO struct {
	ID         uuid.UUID `json:"_id"`
	BookingID  uuid.UUID `json:"bookingId"`
	RoomTypeID uuid.UUID `json:"roomTypeId"`
	Units      int       `json:"units"`
	CheckIn    string    `json:"checkIn"`
	CheckOut   string    `json:"checkOut"`
	Reason     string    `json:"reason"`
	Status     string    `json:"status"`
	Attempts   int       `json:"attempts"`
	LastError  string    `json:"lastError,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	rooms := bk.Rooms()
	roomDTOs := make([]BookingRoomDTO, len(rooms))
	for i, r := range rooms {
		roomDTOs[i] = BookingRoomDTO{
			RoomID:        r.RoomTypeID,
			NumberOfRooms: r.Units,
			NightlyRate:   r.NightlyRateCents,
		}
	}
	stay := bk.Stay()
	return BookingDTO{
		ID:                 bk.ID(),
		BookingNumber:      bk.BookingNumber(),
		UserID:             bk.GuestUserID(),
		Rooms:              roomDTOs,
		CheckInDate:        stay.CheckIn.Format(bookingDomain.DateLayout),
		CheckOutDate:       stay.CheckOut.Format(bookingDomain.DateLayout),
		Nights:             stay.Nights(),
		Status:             string(bk.Status()),
		PaymentStatus:      string(bk.PaymentStatus()),
		PaymentMethod:      bk.PaymentMethod(),
		TransactionID:      bk.TransactionID(),
		PersonDetails:      bk.PersonDetails(),
		TotalAmount:        bk.TotalAmountCents(),
		Currency:           bk.Currency(),
		CancellationReason: bk.CancellationReason(),
		AdminNotes:         bk.AdminNotes(),
		ConfirmedAt:        bk.ConfirmedAt(),
		CheckedInAt:        bk.CheckedInAt(),
		CompletedAt:        bk.CompletedAt(),
		CancelledAt:        bk.CancelledAt(),
		PaidAt:             bk.PaidAt(),
		Version:            bk.Version(),
		CreatedAt:          bk.CreatedAt(),
		UpdatedAt:          bk.UpdatedAt(),
	}
}

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	out := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		out[i] = toBookingDTO(bk)
	}
	return out
}

func toRoomTypeDTO(rt *roomtype.RoomType) RoomTypeDTO {
	return RoomTypeDTO{
		ID:          rt.ID(),
		Name:        rt.Name(),
		Description: rt.Description(),
		NightlyRate: rt.NightlyRateCents(),
		Currency:    rt.Currency(),
		UnitCount:   rt.UnitCount(),
		IsAvailable: rt.IsAvailable(),
		Version:     rt.Version(),
		CreatedAt:   rt.CreatedAt(),
		UpdatedAt:   rt.UpdatedAt(),
	}
}

func toAvailabilityDTO(a inventory.Availability) AvailabilityDTO {
	return AvailabilityDTO{
		RoomTypeID:     a.RoomTypeID,
		CheckIn:        a.Stay.CheckIn.Format(bookingDomain.DateLayout),
		CheckOut:       a.Stay.CheckOut.Format(bookingDomain.DateLayout),
		UnitCount:      a.UnitCount,
		ReservedUnits:  a.ReservedUnits,
		AvailableUnits: a.AvailableUnits,
		IsAvailable:    a.IsAvailable,
	}
}

func toRestorationTaskDTO(t *inventory.RestorationTask) RestorationTaskDTO {
	return RestorationTaskDTO{
		ID:         t.ID,
		BookingID:  t.BookingID,
		RoomTypeID: t.RoomTypeID,
		Units:      t.Units,
		CheckIn:    t.Stay.CheckIn.Format(bookingDomain.DateLayout),
		CheckOut:   t.Stay.CheckOut.Format(bookingDomain.DateLayout),
		Reason:     t.Reason,
		Status:     string(t.Status),
		Attempts:   t.Attempts,
		LastError:  t.LastError,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}
