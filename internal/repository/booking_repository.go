package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/innhub/service-reservation/internal/domain/booking"
	"github.com/innhub/service-reservation/internal/platform/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID                 uuid.UUID          `gorm:"type:uuid;primaryKey"`
	BookingNumber      string             `gorm:"uniqueIndex;not null;size:20"`
	GuestUserID        *uuid.UUID         `gorm:"type:uuid;index"`
	Rooms              []BookingRoomModel `gorm:"foreignKey:BookingID;constraint:OnDelete:CASCADE"`
	CheckIn            time.Time          `gorm:"not null;index:idx_bookings_stay"`
	CheckOut           time.Time          `gorm:"not null;index:idx_bookings_stay"`
	Status             string             `gorm:"not null;size:20;index"`
	PaymentStatus      string             `gorm:"not null;size:20;default:'unpaid'"`
	PaymentMethod      string             `gorm:"size:50"`
	TransactionID      string             `gorm:"size:100"`
	PersonDetails      datatypes.JSON     `gorm:"not null"`
	TotalAmountCents   int64              `gorm:"not null"`
	Currency           string             `gorm:"not null;size:3;default:'MYR'"`
	CancellationReason string             `gorm:"size:500"`
	AdminNotes         string             `gorm:"size:1000"`
	ConfirmedAt        *time.Time
	CheckedInAt        *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time
	PaidAt             *time.Time
	Version            int64     `gorm:"not null;default:1"`
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}

func (BookingModel) TableName() string { return "bookings" }

// BookingRoomModel is one room line of a booking.
type BookingRoomModel struct {
	BookingID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoomTypeID       uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	Position         int       `gorm:"not null"`
	Units            int       `gorm:"not null"`
	NightlyRateCents int64     `gorm:"not null"`
}

func (BookingRoomModel) TableName() string { return "booking_rooms" }

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

func (r *GormBookingRepository) withRooms(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Rooms", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
}

func activeStatuses() []string {
	out := make([]string, len(bookingDomain.ActiveStatuses))
	for i, s := range bookingDomain.ActiveStatuses {
		out[i] = string(s)
	}
	return out
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.withRooms(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// FindByNumber retrieves a booking by its booking number.
func (r *GormBookingRepository) FindByNumber(ctx context.Context, number string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.withRooms(ctx).Where("booking_number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", number)
		}
		return nil, fmt.Errorf("failed to find booking by number: %w", err)
	}
	return toDomainBooking(&model)
}

func (r *GormBookingRepository) heldRoomType(roomTypeID uuid.UUID) *gorm.DB {
	return r.db.Model(&BookingRoomModel{}).Select("booking_id").Where("room_type_id = ?", roomTypeID)
}

func (r *GormBookingRepository) List(ctx context.Context, filter bookingDomain.ListFilter, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.GuestUserID != nil {
			db = db.Where("guest_user_id = ?", *filter.GuestUserID)
		}
		if filter.Status != nil {
			db = db.Where("status = ?", string(*filter.Status))
		}
		if filter.RoomTypeID != nil {
			db = db.Where("id IN (?)", r.heldRoomType(*filter.RoomTypeID))
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := r.withRooms(ctx).
		Scopes(scope).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// FindActiveOverlapping uses the half-open test check_in < q.out AND check_out > q.in.
func (r *GormBookingRepository) FindActiveOverlapping(ctx context.Context, roomTypeID uuid.UUID, stay bookingDomain.Stay) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.withRooms(ctx).
		Where("status IN ?", activeStatuses()).
		Where("check_in < ? AND check_out > ?", stay.CheckOut, stay.CheckIn).
		Where("id IN (?)", r.heldRoomType(roomTypeID)).
		Order("check_in ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find overlapping bookings: %w", err)
	}
	return toDomainBookings(models)
}

func (r *GormBookingRepository) FindActiveByRoomType(ctx context.Context, roomTypeID uuid.UUID) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := r.withRooms(ctx).
		Where("status IN ?", activeStatuses()).
		Where("id IN (?)", r.heldRoomType(roomTypeID)).
		Order("check_in ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find active bookings: %w", err)
	}
	return toDomainBookings(models)
}

func (r *GormBookingRepository) CountActiveByRoomType(ctx context.Context, roomTypeID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Where("status IN ?", activeStatuses()).
		Where("id IN (?)", r.heldRoomType(roomTypeID)).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count active bookings: %w", err)
	}
	return count, nil
}

// CountByStatus returns booking counts grouped by status.
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count bookings by status: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.Count
	}
	return counts, nil
}

// Save persists a new booking together with its room lines.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// Update persists changes to an existing booking with optimistic locking.
// Room lines are immutable and left alone.
func (r *GormBookingRepository) Update(ctx context.Context, bk *bookingDomain.Booking) error {
	model, err := toBookingModel(bk)
	if err != nil {
		return fmt.Errorf("failed to convert booking to model: %w", err)
	}

	// IncrementVersion has already been called on the aggregate
	expectedVersion := bk.Version() - 1
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, expectedVersion).
		Updates(map[string]any{
			"status":              model.Status,
			"payment_status":      model.PaymentStatus,
			"payment_method":      model.PaymentMethod,
			"transaction_id":      model.TransactionID,
			"person_details":      model.PersonDetails,
			"cancellation_reason": model.CancellationReason,
			"admin_notes":         model.AdminNotes,
			"confirmed_at":        model.ConfirmedAt,
			"checked_in_at":       model.CheckedInAt,
			"completed_at":        model.CompletedAt,
			"cancelled_at":        model.CancelledAt,
			"paid_at":             model.PaidAt,
			"version":             model.Version,
			"updated_at":          model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// --- Converters ---

func toBookingModel(bk *bookingDomain.Booking) (*BookingModel, error) {
	details, err := json.Marshal(bk.PersonDetails())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal person details: %w", err)
	}

	rooms := bk.Rooms()
	roomModels := make([]BookingRoomModel, len(rooms))
	for i, rm := range rooms {
		roomModels[i] = BookingRoomModel{
			BookingID:        bk.ID(),
			RoomTypeID:       rm.RoomTypeID,
			Position:         i,
			Units:            rm.Units,
			NightlyRateCents: rm.NightlyRateCents,
		}
	}

	stay := bk.Stay()
	return &BookingModel{
		ID:                 bk.ID(),
		BookingNumber:      bk.BookingNumber(),
		GuestUserID:        bk.GuestUserID(),
		Rooms:              roomModels,
		CheckIn:            stay.CheckIn,
		CheckOut:           stay.CheckOut,
		Status:             string(bk.Status()),
		PaymentStatus:      string(bk.PaymentStatus()),
		PaymentMethod:      bk.PaymentMethod(),
		TransactionID:      bk.TransactionID(),
		PersonDetails:      datatypes.JSON(details),
		TotalAmountCents:   bk.TotalAmountCents(),
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
	}, nil
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	var details []bookingDomain.PersonDetail
	if len(m.PersonDetails) > 0 {
		if err := json.Unmarshal(m.PersonDetails, &details); err != nil {
			return nil, fmt.Errorf("failed to unmarshal person details of booking %s: %w", m.ID, err)
		}
	}

	rooms := make([]bookingDomain.RoomReservation, len(m.Rooms))
	for i, rm := range m.Rooms {
		rooms[i] = bookingDomain.RoomReservation{
			RoomTypeID:       rm.RoomTypeID,
			Units:            rm.Units,
			NightlyRateCents: rm.NightlyRateCents,
		}
	}

	return bookingDomain.ReconstructBooking(bookingDomain.Snapshot{
		ID:                 m.ID,
		BookingNumber:      m.BookingNumber,
		GuestUserID:        m.GuestUserID,
		Rooms:              rooms,
		Stay:               bookingDomain.Stay{CheckIn: m.CheckIn.UTC(), CheckOut: m.CheckOut.UTC()},
		Status:             bookingDomain.BookingStatus(m.Status),
		PaymentStatus:      bookingDomain.PaymentStatus(m.PaymentStatus),
		PaymentMethod:      m.PaymentMethod,
		TransactionID:      m.TransactionID,
		PersonDetails:      details,
		TotalAmountCents:   m.TotalAmountCents,
		Currency:           m.Currency,
		CancellationReason: m.CancellationReason,
		AdminNotes:         m.AdminNotes,
		ConfirmedAt:        m.ConfirmedAt,
		CheckedInAt:        m.CheckedInAt,
		CompletedAt:        m.CompletedAt,
		CancelledAt:        m.CancelledAt,
		PaidAt:             m.PaidAt,
		Version:            m.Version,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
