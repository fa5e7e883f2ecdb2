package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/innhub/service-reservation/internal/contract/events"
	bookingDomain "github.com/innhub/service-reservation/internal/domain/booking"
	"github.com/innhub/service-reservation/internal/domain/inventory"
	"github.com/innhub/service-reservation/internal/domain/uow"
	"github.com/innhub/service-reservation/internal/platform/domain"
	"github.com/innhub/service-reservation/internal/platform/lock"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	unit          uow.UnitOfWork
	repos         uow.Repositories
	locker        lock.Locker
	pricing       bookingDomain.PricingStrategy
	availability  *AvailabilityService
	compensator   *Compensator
	events        emitter
	defaultStatus bookingDomain.BookingStatus
	logger        *zap.Logger
}

// NewBookingService creates a new BookingService. New bookings start in
// defaultStatus, which must be pending or confirmed.
func NewBookingService(
	unit uow.UnitOfWork,
	repos uow.Repositories,
	locker lock.Locker,
	pricing bookingDomain.PricingStrategy,
	availability *AvailabilityService,
	compensator *Compensator,
	publisher EventPublisher,
	defaultStatus bookingDomain.BookingStatus,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		unit:          unit,
		repos:         repos,
		locker:        locker,
		pricing:       pricing,
		availability:  availability,
		compensator:   compensator,
		events:        emitter{publisher: publisher, logger: logger},
		defaultStatus: defaultStatus,
		logger:        logger,
	}
}

// GetBooking returns a booking. Guests only see their own.
func (s *BookingService) GetBooking(ctx context.Context, actor Actor, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repos.Bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && !bk.IsHeldBy(actor.UserID) {
		return nil, domain.NewForbiddenError("booking belongs to another guest")
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// BookingQuery holds the optional filters of a booking listing.
type BookingQuery struct {
	Status     string
	RoomTypeID string
}

func (q BookingQuery) filter() (bookingDomain.ListFilter, error) {
	var f bookingDomain.ListFilter
	if q.Status != "" {
		status, err := bookingDomain.ParseBookingStatus(q.Status)
		if err != nil {
			return f, err
		}
		f.Status = &status
	}
	if q.RoomTypeID != "" {
		id, err := uuid.Parse(q.RoomTypeID)
		if err != nil {
			return f, domain.NewFieldValidationError("roomTypeId", "invalid room type ID")
		}
		f.RoomTypeID = &id
	}
	return f, nil
}

// ListBookings returns a page of bookings. Guests are limited to their own.
func (s *BookingService) ListBookings(ctx context.Context, actor Actor, q BookingQuery, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	filter, err := q.filter()
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() {
		userID := actor.UserID
		filter.GuestUserID = &userID
	}
	return s.list(ctx, filter, page, limit)
}

// ListAllBookings returns every booking for the admin surface.
func (s *BookingService) ListAllBookings(ctx context.Context, q BookingQuery, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	filter, err := q.filter()
	if err != nil {
		return nil, err
	}
	return s.list(ctx, filter, page, limit)
}

func (s *BookingService) list(ctx context.Context, filter bookingDomain.ListFilter, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repos.Bookings.List(ctx, filter, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// GetBookingStats returns booking counts grouped by status.
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repos.Bookings.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, n := range counts {
		total += n
	}
	return &BookingStatsDTO{Total: total, ByStatus: counts}, nil
}

// UpdateBooking applies a staff PUT. Every enum is validated before the
// booking is loaded, so a bad value never has side effects.
func (s *BookingService) UpdateBooking(ctx context.Context, bookingID uuid.UUID, req UpdateBookingRequest) (*BookingDTO, error) {
	var target *bookingDomain.BookingStatus
	if req.Status != nil {
		status, err := bookingDomain.ParseBookingStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		target = &status
	}
	var payment *bookingDomain.PaymentStatus
	if req.PaymentStatus != nil {
		ps, err := bookingDomain.ParsePaymentStatus(*req.PaymentStatus)
		if err != nil {
			return nil, err
		}
		payment = &ps
	}

	bk, err := s.mutate(ctx, bookingID, "", func(b *bookingDomain.Booking, ch *change) error {
		reason := deref(req.CancellationReason)
		if target != nil {
			changed, err := b.TransitionTo(*target, reason)
			if err != nil {
				return err
			}
			ch.statusChanged = changed
		}
		if req.CancellationReason != nil && !(ch.statusChanged && b.Status() == bookingDomain.StatusCancelled) {
			b.SetCancellationReason(reason)
			ch.dirty = true
		}

		if payment != nil || req.PaymentMethod != nil || req.TransactionID != nil {
			ps := b.PaymentStatus()
			if payment != nil {
				ps = *payment
			}
			method, txID := b.PaymentMethod(), b.TransactionID()
			if req.PaymentMethod != nil {
				method = *req.PaymentMethod
			}
			if req.TransactionID != nil {
				txID = *req.TransactionID
			}
			changed, err := b.RecordPayment(ps, method, txID)
			if err != nil {
				return err
			}
			ch.paid = changed && ps == bookingDomain.PaymentPaid
			ch.dirty = true
		}

		if req.AdminNotes != nil {
			b.SetAdminNotes(*req.AdminNotes)
			ch.dirty = true
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// DeleteBooking soft-cancels a booking and restores its inventory.
func (s *BookingService) DeleteBooking(ctx context.Context, bookingID uuid.UUID) (*CancelledBookingDTO, error) {
	bk, err := s.mutate(ctx, bookingID, inventory.ReasonDeleted, func(b *bookingDomain.Booking, ch *change) error {
		if err := b.Cancel(b.CancellationReason()); err != nil {
			return err
		}
		ch.statusChanged = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &CancelledBookingDTO{
		ID:          bk.ID(),
		Status:      string(bk.Status()),
		CancelledAt: bk.CancelledAt(),
	}, nil
}

// CancelUserBooking cancels a booking on behalf of its guest. Guests may only
// name themselves; staff may name any guest account.
func (s *BookingService) CancelUserBooking(ctx context.Context, actor Actor, req CancelUserBookingRequest) (*BookingDTO, error) {
	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, domain.NewFieldValidationError("bookingId", "invalid booking ID")
	}

	userID := actor.UserID
	if req.UserID != "" {
		requested, err := uuid.Parse(req.UserID)
		if err != nil {
			return nil, domain.NewFieldValidationError("userId", "invalid user ID")
		}
		if !actor.IsStaff() && requested != actor.UserID {
			return nil, domain.NewForbiddenError("guests may only cancel their own bookings")
		}
		userID = requested
	}

	bk, err := s.mutate(ctx, bookingID, "", func(b *bookingDomain.Booking, ch *change) error {
		if !b.IsHeldBy(userID) {
			return domain.NewForbiddenError("booking does not belong to this user")
		}
		if err := b.Cancel(req.CancellationReason); err != nil {
			return err
		}
		ch.statusChanged = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// MarkPaid records a captured payment. Replaying the same capture is a no-op;
// a second capture under another transaction is rejected and leaves the first
// reference in place.
func (s *BookingService) MarkPaid(ctx context.Context, bookingID uuid.UUID, method, transactionID string) (*BookingDTO, error) {
	bk, err := s.mutate(ctx, bookingID, "", func(b *bookingDomain.Booking, ch *change) error {
		if b.PaymentStatus() == bookingDomain.PaymentPaid {
			if b.TransactionID() == transactionID {
				return nil
			}
			if b.TransactionID() != "" && transactionID != "" {
				return domain.NewInvalidStateError(
					fmt.Sprintf("paid (transaction %s)", b.TransactionID()),
					fmt.Sprintf("paid (transaction %s)", transactionID),
				)
			}
		}
		changed, err := b.RecordPayment(bookingDomain.PaymentPaid, method, transactionID)
		if err != nil {
			return err
		}
		ch.paid = changed
		ch.dirty = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	result := toBookingDTO(bk)
	return &result, nil
}

// change records what a mutation did to a booking.
type change struct {
	dirty         bool
	statusChanged bool
	paid          bool
}

// mutate loads a booking, applies fn and persists the result in one
// transaction. When the booking leaves the active set its restoration tasks
// commit with it and are applied right after. restoreReason overrides the
// status as the recorded restoration reason.
func (s *BookingService) mutate(
	ctx context.Context,
	bookingID uuid.UUID,
	restoreReason string,
	fn func(b *bookingDomain.Booking, ch *change) error,
) (*bookingDomain.Booking, error) {
	ctx, span := tracer.Start(ctx, "booking.update")
	defer span.End()
	span.SetAttributes(attribute.String("booking_id", bookingID.String()))

	var (
		bk    *bookingDomain.Booking
		from  bookingDomain.BookingStatus
		ch    change
		tasks []*inventory.RestorationTask
	)
	err := s.unit.Do(ctx, func(r uow.Repositories) error {
		b, err := r.Bookings.FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		from = b.Status()
		ch = change{}
		if err := fn(b, &ch); err != nil {
			return err
		}
		bk = b
		if !ch.dirty && !ch.statusChanged {
			return nil
		}

		b.IncrementVersion()
		if err := r.Bookings.Update(ctx, b); err != nil {
			return err
		}

		if ch.statusChanged && b.Status().ReleasesInventory() {
			reason := restoreReason
			if reason == "" {
				reason = string(b.Status())
			}
			tasks = inventory.NewRestorationTasks(b, reason)
			if err := r.Restorations.SaveAll(ctx, tasks); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(tasks) > 0 {
		// The status change is committed; restoration outcomes are recorded
		// on the tasks and must not depend on the caller staying connected.
		s.compensator.RestoreAll(context.WithoutCancel(ctx), tasks)
	}
	if ch.statusChanged {
		s.publishStatusChanged(ctx, bk, from)
	}
	if ch.paid {
		s.events.publish(ctx, events.TopicBookingEvents, events.BookingPaid, bk.ID().String(), events.BookingPaidEvent{
			BookingID:     bk.ID(),
			BookingNumber: bk.BookingNumber(),
			PaymentMethod: bk.PaymentMethod(),
			TransactionID: bk.TransactionID(),
			OccurredAt:    time.Now().UTC(),
		})
	}
	return bk, nil
}

func (s *BookingService) publishStatusChanged(ctx context.Context, bk *bookingDomain.Booking, from bookingDomain.BookingStatus) {
	s.logger.Info("booking status changed",
		zap.String("booking_id", bk.ID().String()),
		zap.String("from", string(from)),
		zap.String("to", string(bk.Status())),
	)

	evt := events.BookingStatusChangedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		From:          string(from),
		To:            string(bk.Status()),
		Reason:        bk.CancellationReason(),
		OccurredAt:    time.Now().UTC(),
	}
	s.events.publish(ctx, events.TopicBookingEvents, events.BookingStatusChanged, bk.ID().String(), evt)

	switch bk.Status() {
	case bookingDomain.StatusCancelled:
		s.events.publish(ctx, events.TopicBookingEvents, events.BookingCancelled, bk.ID().String(), evt)
	case bookingDomain.StatusCheckedOut:
		s.events.publish(ctx, events.TopicBookingEvents, events.BookingCheckedOut, bk.ID().String(), evt)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func roomLockKeys(rooms []bookingDomain.RoomReservation) []string {
	keys := make([]string, len(rooms))
	for i, r := range rooms {
		keys[i] = roomTypeLockKey(r.RoomTypeID)
	}
	return keys
}
