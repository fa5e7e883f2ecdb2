package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/innhub/service-reservation/internal/domain/booking"
	"github.com/innhub/service-reservation/internal/domain/inventory"
	"github.com/innhub/service-reservation/internal/platform/database"
	"github.com/innhub/service-reservation/internal/platform/domain"
	"gorm.io/gorm"
)

// RestorationTaskModel is the GORM model for the restoration_tasks table.
type RestorationTaskModel struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	BookingID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_restoration_booking_room"`
	RoomTypeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_restoration_booking_room;index"`
	Units      int       `gorm:"not null"`
	CheckIn    time.Time `gorm:"not null"`
	CheckOut   time.Time `gorm:"not null"`
	Reason     string    `gorm:"not null;size:20"`
	Status     string    `gorm:"not null;size:20;index"`
	Attempts   int       `gorm:"not null;default:0"`
	LastError  string    `gorm:"size:1000"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (RestorationTaskModel) TableName() string { return "restoration_tasks" }

type GormRestorationRepository struct {
	db *gorm.DB
}

func NewGormRestorationRepository(db *gorm.DB) *GormRestorationRepository {
	return &GormRestorationRepository{db: db}
}

func (r *GormRestorationRepository) SaveAll(ctx context.Context, tasks []*inventory.RestorationTask) error {
	if len(tasks) == 0 {
		return nil
	}
	models := make([]RestorationTaskModel, len(tasks))
	for i, t := range tasks {
		models[i] = toRestorationModel(t)
	}
	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return domain.NewConflictError("inventory for this booking is already being restored")
		}
		return fmt.Errorf("failed to save restoration tasks: %w", err)
	}
	return nil
}

func (r *GormRestorationRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.RestorationTask, error) {
	var model RestorationTaskModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("RestorationTask", id.String())
		}
		return nil, fmt.Errorf("failed to find restoration task: %w", err)
	}
	return toRestorationDomain(&model), nil
}

func (r *GormRestorationRepository) FindByBooking(ctx context.Context, bookingID uuid.UUID) ([]*inventory.RestorationTask, error) {
	return r.find(ctx, r.db.WithContext(ctx).Where("booking_id = ?", bookingID).Order("created_at ASC"))
}

// FindPending returns the oldest pending tasks first.
func (r *GormRestorationRepository) FindPending(ctx context.Context, limit int) ([]*inventory.RestorationTask, error) {
	q := r.db.WithContext(ctx).Where("status = ?", string(inventory.RestorationPending)).Order("updated_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return r.find(ctx, q)
}

func (r *GormRestorationRepository) FindOutstandingByRoomType(ctx context.Context, roomTypeID uuid.UUID) ([]*inventory.RestorationTask, error) {
	return r.find(ctx, r.db.WithContext(ctx).
		Where("room_type_id = ? AND status IN ?", roomTypeID,
			[]string{string(inventory.RestorationPending), string(inventory.RestorationFailed)}))
}

func (r *GormRestorationRepository) List(ctx context.Context, status *inventory.RestorationStatus) ([]*inventory.RestorationTask, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if status != nil {
		q = q.Where("status = ?", string(*status))
	}
	return r.find(ctx, q)
}

func (r *GormRestorationRepository) find(_ context.Context, q *gorm.DB) ([]*inventory.RestorationTask, error) {
	var models []RestorationTaskModel
	if err := q.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to query restoration tasks: %w", err)
	}
	out := make([]*inventory.RestorationTask, len(models))
	for i := range models {
		out[i] = toRestorationDomain(&models[i])
	}
	return out, nil
}

// Claim flips pending to done. Only one caller can win the update.
func (r *GormRestorationRepository) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&RestorationTaskModel{}).
		Where("id = ? AND status = ?", id, string(inventory.RestorationPending)).
		Updates(map[string]any{
			"status":     string(inventory.RestorationDone),
			"last_error": "",
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to claim restoration task: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *GormRestorationRepository) RecordFailure(ctx context.Context, id uuid.UUID, cause string, maxAttempts int) (*inventory.RestorationTask, error) {
	task, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if task.Status != inventory.RestorationPending {
		return task, nil
	}

	task.Attempts++
	task.LastError = truncate(cause, 1000)
	task.UpdatedAt = time.Now().UTC()
	if maxAttempts > 0 && task.Attempts >= maxAttempts {
		task.Status = inventory.RestorationFailed
	}

	if err := r.db.WithContext(ctx).
		Model(&RestorationTaskModel{}).
		Where("id = ? AND status = ?", id, string(inventory.RestorationPending)).
		Updates(map[string]any{
			"attempts":   task.Attempts,
			"last_error": task.LastError,
			"status":     string(task.Status),
			"updated_at": task.UpdatedAt,
		}).Error; err != nil {
		return nil, fmt.Errorf("failed to record restoration failure: %w", err)
	}
	return task, nil
}

func (r *GormRestorationRepository) Requeue(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&RestorationTaskModel{}).
		Where("id = ? AND status = ?", id, string(inventory.RestorationFailed)).
		Updates(map[string]any{
			"status":     string(inventory.RestorationPending),
			"attempts":   0,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to requeue restoration task: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func toRestorationModel(t *inventory.RestorationTask) RestorationTaskModel {
	return RestorationTaskModel{
		ID:         t.ID,
		BookingID:  t.BookingID,
		RoomTypeID: t.RoomTypeID,
		Units:      t.Units,
		CheckIn:    t.Stay.CheckIn,
		CheckOut:   t.Stay.CheckOut,
		Reason:     t.Reason,
		Status:     string(t.Status),
		Attempts:   t.Attempts,
		LastError:  t.LastError,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}

func toRestorationDomain(m *RestorationTaskModel) *inventory.RestorationTask {
	return &inventory.RestorationTask{
		ID:         m.ID,
		BookingID:  m.BookingID,
		RoomTypeID: m.RoomTypeID,
		Units:      m.Units,
		Stay:       bookingDomain.Stay{CheckIn: m.CheckIn.UTC(), CheckOut: m.CheckOut.UTC()},
		Reason:     m.Reason,
		Status:     inventory.RestorationStatus(m.Status),
		Attempts:   m.Attempts,
		LastError:  m.LastError,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
