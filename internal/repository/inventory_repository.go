package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/innhub/service-reservation/internal/domain/booking"
	"github.com/innhub/service-reservation/internal/domain/inventory"
	"github.com/innhub/service-reservation/internal/platform/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoomNightModel is one row of the per-night ledger.
type RoomNightModel struct {
	RoomTypeID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Night      time.Time `gorm:"primaryKey"`
	Reserved   int       `gorm:"not null;default:0;check:reserved >= 0"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (RoomNightModel) TableName() string { return "room_nights" }

// GormLedger keeps held units per room type and night. Every mutation is a
// single conditional UPDATE so concurrent writers cannot oversell.
type GormLedger struct {
	db *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{db: db}
}

func (l *GormLedger) ensureNights(ctx context.Context, roomTypeID uuid.UUID, stay bookingDomain.Stay) error {
	now := time.Now().UTC()
	nights := stay.NightDates()
	rows := make([]RoomNightModel, len(nights))
	for i, n := range nights {
		rows[i] = RoomNightModel{RoomTypeID: roomTypeID, Night: n, UpdatedAt: now}
	}
	if err := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to initialise ledger nights: %w", err)
	}
	return nil
}

func (l *GormLedger) Reserve(ctx context.Context, roomTypeID uuid.UUID, stay bookingDomain.Stay, units int) error {
	if units < 1 {
		return domain.NewValidationError("units to reserve must be positive")
	}
	if err := l.ensureNights(ctx, roomTypeID, stay); err != nil {
		return err
	}

	capacity := l.db.Model(&RoomTypeModel{}).Select("unit_count").Where("id = ?", roomTypeID)
	result := l.db.WithContext(ctx).
		Model(&RoomNightModel{}).
		Where("room_type_id = ? AND night >= ? AND night < ?", roomTypeID, stay.CheckIn, stay.CheckOut).
		Where("reserved + ? <= (?)", units, capacity).
		Updates(map[string]any{
			"reserved":   gorm.Expr("reserved + ?", units),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to reserve units: %w", result.Error)
	}
	if result.RowsAffected != int64(stay.Nights()) {
		return domain.NewConflictError(fmt.Sprintf(
			"not enough units of room type %s for %s", roomTypeID, stay))
	}
	return nil
}

// Release returns units night by night. A night holding fewer units than
// requested is clamped to zero and counted in shortNights.
func (l *GormLedger) Release(ctx context.Context, roomTypeID uuid.UUID, stay bookingDomain.Stay, units int) (int, error) {
	if units < 1 {
		return 0, domain.NewValidationError("units to release must be positive")
	}
	now := time.Now().UTC()
	inStay := l.db.WithContext(ctx).
		Model(&RoomNightModel{}).
		Where("room_type_id = ? AND night >= ? AND night < ?", roomTypeID, stay.CheckIn, stay.CheckOut)

	// clamp first so that nights decremented below are not clamped again
	clamped := inStay.Session(&gorm.Session{}).
		Where("reserved < ? AND reserved > 0", units).
		Updates(map[string]any{"reserved": 0, "updated_at": now})
	if clamped.Error != nil {
		return 0, fmt.Errorf("failed to clamp ledger nights: %w", clamped.Error)
	}

	released := inStay.Session(&gorm.Session{}).
		Where("reserved >= ?", units).
		Updates(map[string]any{
			"reserved":   gorm.Expr("reserved - ?", units),
			"updated_at": now,
		})
	if released.Error != nil {
		return 0, fmt.Errorf("failed to release units: %w", released.Error)
	}

	return stay.Nights() - int(released.RowsAffected), nil
}

func (l *GormLedger) Nights(ctx context.Context, roomTypeID uuid.UUID, from, to time.Time) ([]inventory.NightCount, error) {
	q := l.db.WithContext(ctx).Where("room_type_id = ?", roomTypeID)
	if !from.IsZero() {
		q = q.Where("night >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("night < ?", to)
	}

	var rows []RoomNightModel
	if err := q.Order("night ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	out := make([]inventory.NightCount, len(rows))
	for i, rw := range rows {
		out[i] = inventory.NightCount{Night: rw.Night.UTC(), Reserved: rw.Reserved}
	}
	return out, nil
}

func (l *GormLedger) MaxReserved(ctx context.Context, roomTypeID uuid.UUID, from time.Time) (int, error) {
	var peak int
	if err := l.db.WithContext(ctx).
		Model(&RoomNightModel{}).
		Select("COALESCE(MAX(reserved), 0)").
		Where("room_type_id = ? AND night >= ?", roomTypeID, from).
		Scan(&peak).Error; err != nil {
		return 0, fmt.Errorf("failed to read peak reservation: %w", err)
	}
	return peak, nil
}

func (l *GormLedger) SetReserved(ctx context.Context, roomTypeID uuid.UUID, night time.Time, reserved int) error {
	if reserved < 0 {
		return domain.NewValidationError("reserved units cannot be negative")
	}
	row := RoomNightModel{
		RoomTypeID: roomTypeID,
		Night:      bookingDomain.NormalizeDate(night),
		Reserved:   reserved,
		UpdatedAt:  time.Now().UTC(),
	}
	if err := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "room_type_id"}, {Name: "night"}},
			DoUpdates: clause.AssignmentColumns([]string{"reserved", "updated_at"}),
		}).
		Create(&row).Error; err != nil {
		return fmt.Errorf("failed to set ledger night: %w", err)
	}
	return nil
}

func (l *GormLedger) DeleteRoomType(ctx context.Context, roomTypeID uuid.UUID) error {
	if err := l.db.WithContext(ctx).
		Where("room_type_id = ?", roomTypeID).
		Delete(&RoomNightModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete ledger rows: %w", err)
	}
	return nil
}
