package roomtype

import (
	"context"

	"github.com/google/uuid"
)

// RoomTypeRepository defines persistence operations for the room catalog.
type RoomTypeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*RoomType, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*RoomType, error)
	List(ctx context.Context) ([]*RoomType, error)
	Save(ctx context.Context, rt *RoomType) error
	// Update persists changes with optimistic locking on version.
	Update(ctx context.Context, rt *RoomType) error
	Delete(ctx context.Context, id uuid.UUID) error
}
