package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/innhub/service-reservation/internal/contract/events"
	bookingDomain "github.com/innhub/service-reservation/internal/domain/booking"
	"github.com/innhub/service-reservation/internal/domain/uow"
	"github.com/innhub/service-reservation/internal/platform/domain"
	"github.com/innhub/service-reservation/internal/platform/lock"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// bookingInput is a create request after validation.
type bookingInput struct {
	rooms         []bookingDomain.RoomReservation
	stay          bookingDomain.Stay
	personDetails []bookingDomain.PersonDetail
	guestUserID   *uuid.UUID
	clientTotal   int64
}

// CreateBooking reserves units for every room line and records the booking.
// Either the booking and all of its ledger holds commit, or nothing does.
func (s *BookingService) CreateBooking(ctx context.Context, actor Actor, req CreateBookingRequest) (*BookingDTO, error) {
	in, err := parseCreateRequest(actor, req)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "booking.create")
	defer span.End()
	span.SetAttributes(
		attribute.String("stay", in.stay.String()),
		attribute.Int("room_lines", len(in.rooms)),
	)

	// Locks are taken in key order, so two multi-room bookings cannot deadlock.
	unlock, err := lock.AcquireAll(ctx, s.locker, roomLockKeys(in.rooms))
	if err != nil {
		return nil, fmt.Errorf("failed to lock room types: %w", err)
	}
	defer unlock()

	var bk *bookingDomain.Booking
	err = s.unit.Do(ctx, func(r uow.Repositories) error {
		rooms := in.rooms
		var currency string
		for i := range rooms {
			rt, err := r.RoomTypes.FindByID(ctx, rooms[i].RoomTypeID)
			if err != nil {
				return err
			}
			if currency == "" {
				currency = rt.Currency()
			} else if rt.Currency() != currency {
				return domain.NewFieldValidationError("rooms", "all rooms must be priced in the same currency")
			}
			rooms[i].NightlyRateCents = rt.NightlyRateCents()
		}

		total, err := s.pricing.Calculate(bookingDomain.PricingParams{Rooms: rooms, Nights: in.stay.Nights()})
		if err != nil {
			return domain.NewFieldValidationError("totalAmount", err.Error())
		}
		if bookingDomain.IsPriced(rooms) {
			if in.clientTotal != 0 && in.clientTotal != total {
				return domain.NewFieldValidationError("totalAmount",
					fmt.Sprintf("does not match the computed total of %d", total))
			}
		} else if in.clientTotal > 0 {
			total = in.clientTotal
		}

		b, err := bookingDomain.NewBooking(in.guestUserID, rooms, in.stay, in.personDetails, total, currency, s.defaultStatus)
		if err != nil {
			return err
		}
		if err := r.Bookings.Save(ctx, b); err != nil {
			return err
		}
		for _, room := range rooms {
			if err := r.Ledger.Reserve(ctx, room.RoomTypeID, in.stay, room.Units); err != nil {
				return err
			}
		}
		bk = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	roomTypeIDs := make([]uuid.UUID, 0, len(in.rooms))
	lines := make([]events.RoomLine, 0, len(in.rooms))
	for _, room := range bk.Rooms() {
		roomTypeIDs = append(roomTypeIDs, room.RoomTypeID)
		lines = append(lines, events.RoomLine{RoomTypeID: room.RoomTypeID, Units: room.Units})
	}
	s.availability.Invalidate(roomTypeIDs...)

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("booking_number", bk.BookingNumber()),
		zap.String("stay", in.stay.String()),
		zap.Int("room_lines", len(lines)),
	)

	s.events.publish(ctx, events.TopicBookingEvents, events.BookingCreated, bk.ID().String(), events.BookingCreatedEvent{
		BookingID:        bk.ID(),
		BookingNumber:    bk.BookingNumber(),
		GuestUserID:      bk.GuestUserID(),
		Rooms:            lines,
		CheckIn:          in.stay.CheckIn.Format(bookingDomain.DateLayout),
		CheckOut:         in.stay.CheckOut.Format(bookingDomain.DateLayout),
		Status:           string(bk.Status()),
		TotalAmountCents: bk.TotalAmountCents(),
		Currency:         bk.Currency(),
		OccurredAt:       time.Now().UTC(),
	})

	result := toBookingDTO(bk)
	return &result, nil
}

// parseCreateRequest validates every field before anything is locked or
// written. Field names in errors follow the request body.
func parseCreateRequest(actor Actor, req CreateBookingRequest) (bookingInput, error) {
	var in bookingInput

	if len(req.Rooms) == 0 {
		return in, domain.NewFieldValidationError("rooms", "at least one room is required")
	}
	rooms := make([]bookingDomain.RoomReservation, 0, len(req.Rooms))
	for i, r := range req.Rooms {
		id, err := uuid.Parse(r.RoomID)
		if err != nil {
			return in, domain.NewFieldValidationError(fmt.Sprintf("rooms[%d].roomId", i), "invalid room ID")
		}
		if r.NumberOfRooms < 1 {
			return in, domain.NewFieldValidationError(fmt.Sprintf("rooms[%d].numberOfRooms", i), "must be at least 1")
		}
		rooms = append(rooms, bookingDomain.RoomReservation{RoomTypeID: id, Units: r.NumberOfRooms})
	}
	in.rooms = bookingDomain.MergeRooms(rooms)

	checkIn, err := bookingDomain.ParseDate("checkInDate", req.CheckInDate)
	if err != nil {
		return in, err
	}
	checkOut, err := bookingDomain.ParseDate("checkOutDate", req.CheckOutDate)
	if err != nil {
		return in, err
	}
	if in.stay, err = bookingDomain.NewStay(checkIn, checkOut); err != nil {
		return in, err
	}

	if err := bookingDomain.ValidatePersonDetails(req.PersonDetails); err != nil {
		return in, err
	}
	in.personDetails = req.PersonDetails

	if req.TotalAmount < 0 {
		return in, domain.NewFieldValidationError("totalAmount", "must not be negative")
	}
	in.clientTotal = req.TotalAmount

	switch {
	case !actor.IsStaff():
		userID := actor.UserID
		in.guestUserID = &userID
	case req.UserID != "":
		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			return in, domain.NewFieldValidationError("userId", "invalid user ID")
		}
		in.guestUserID = &userID
	}
	return in, nil
}
