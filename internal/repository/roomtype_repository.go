package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	roomDomain "github.com/innhub/service-reservation/internal/domain/roomtype"
	"github.com/innhub/service-reservation/internal/platform/domain"
	"gorm.io/gorm"
)

// RoomTypeModel is the GORM model for the room_types table.
type RoomTypeModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name             string    `gorm:"not null;size:100"`
	Description      string    `gorm:"size:1000"`
	NightlyRateCents int64     `gorm:"not null;default:0"`
	Currency         string    `gorm:"not null;size:3;default:'MYR'"`
	UnitCount        int       `gorm:"not null;default:0;check:unit_count >= 0"`
	IsAvailable      bool      `gorm:"not null;default:false"`
	Version          int64     `gorm:"not null;default:1"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`
}

func (RoomTypeModel) TableName() string { return "room_types" }

type GormRoomTypeRepository struct {
	db *gorm.DB
}

func NewGormRoomTypeRepository(db *gorm.DB) *GormRoomTypeRepository {
	return &GormRoomTypeRepository{db: db}
}

func (r *GormRoomTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*roomDomain.RoomType, error) {
	var model RoomTypeModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("RoomType", id.String())
		}
		return nil, fmt.Errorf("failed to find room type: %w", err)
	}
	return toRoomTypeDomain(&model), nil
}

// FindByIDs returns the room types that exist among ids, in name order.
func (r *GormRoomTypeRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*roomDomain.RoomType, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []RoomTypeModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find room types: %w", err)
	}
	return toRoomTypeDomains(models), nil
}

func (r *GormRoomTypeRepository) List(ctx context.Context) ([]*roomDomain.RoomType, error) {
	var models []RoomTypeModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list room types: %w", err)
	}
	return toRoomTypeDomains(models), nil
}

func (r *GormRoomTypeRepository) Save(ctx context.Context, rt *roomDomain.RoomType) error {
	if err := r.db.WithContext(ctx).Create(toRoomTypeModel(rt)).Error; err != nil {
		return fmt.Errorf("failed to save room type: %w", err)
	}
	return nil
}

// Update writes catalog changes if the stored version is the one Apply started from.
func (r *GormRoomTypeRepository) Update(ctx context.Context, rt *roomDomain.RoomType) error {
	model := toRoomTypeModel(rt)
	result := r.db.WithContext(ctx).
		Model(&RoomTypeModel{}).
		Where("id = ? AND version = ?", model.ID, rt.Version()-1).
		Updates(map[string]any{
			"name":               model.Name,
			"description":        model.Description,
			"nightly_rate_cents": model.NightlyRateCents,
			"currency":           model.Currency,
			"unit_count":         model.UnitCount,
			"is_available":       model.IsAvailable,
			"version":            model.Version,
			"updated_at":         model.UpdatedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update room type: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("room type was modified by another transaction")
	}
	return nil
}

func (r *GormRoomTypeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&RoomTypeModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete room type: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewNotFoundError("RoomType", id.String())
	}
	return nil
}

func toRoomTypeModel(rt *roomDomain.RoomType) *RoomTypeModel {
	return &RoomTypeModel{
		ID:               rt.ID(),
		Name:             rt.Name(),
		Description:      rt.Description(),
		NightlyRateCents: rt.NightlyRateCents(),
		Currency:         rt.Currency(),
		UnitCount:        rt.UnitCount(),
		IsAvailable:      rt.IsAvailable(),
		Version:          rt.Version(),
		CreatedAt:        rt.CreatedAt(),
		UpdatedAt:        rt.UpdatedAt(),
	}
}

func toRoomTypeDomain(m *RoomTypeModel) *roomDomain.RoomType {
	return roomDomain.Reconstruct(
		m.ID,
		m.Name, m.Description,
		m.NightlyRateCents,
		m.Currency,
		m.UnitCount,
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	)
}

func toRoomTypeDomains(models []RoomTypeModel) []*roomDomain.RoomType {
	out := make([]*roomDomain.RoomType, len(models))
	for i := range models {
		out[i] = toRoomTypeDomain(&models[i])
	}
	return out
}
