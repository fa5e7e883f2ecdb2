package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/innhub/service-reservation/internal/domain/booking"
	"github.com/innhub/service-reservation/internal/domain/roomtype"
	"github.com/innhub/service-reservation/internal/domain/uow"
	"github.com/innhub/service-reservation/internal/platform/domain"
	"github.com/innhub/service-reservation/internal/platform/lock"
	"go.uber.org/zap"
)

// CreateRoomTypeRequest holds the data needed to add a room type.
type CreateRoomTypeRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	NightlyRate int64  `json:"nightlyRate"`
	Currency    string `json:"currency"`
	UnitCount   int    `json:"unitCount"`
}

// UpdateRoomTypeRequest is a PATCH body; nil fields are left unchanged.
type UpdateRoomTypeRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	NightlyRate *int64  `json:"nightlyRate"`
	Currency    *string `json:"currency"`
	UnitCount   *int    `json:"unitCount"`
}

// RoomTypeService manages the room catalog. Changes to unitCount are checked
// against the ledger so provisioned units never drop below what is held.
type RoomTypeService struct {
	unit         uow.UnitOfWork
	repos        uow.Repositories
	locker       lock.Locker
	availability *AvailabilityService
	logger       *zap.Logger
}

func NewRoomTypeService(
	unit uow.UnitOfWork,
	repos uow.Repositories,
	locker lock.Locker,
	availability *AvailabilityService,
	logger *zap.Logger,
) *RoomTypeService {
	return &RoomTypeService{
		unit:         unit,
		repos:        repos,
		locker:       locker,
		availability: availability,
		logger:       logger,
	}
}

func (s *RoomTypeService) CreateRoomType(ctx context.Context, req CreateRoomTypeRequest) (*RoomTypeDTO, error) {
	rt, err := roomtype.NewRoomType(req.Name, req.Description, req.NightlyRate, req.Currency, req.UnitCount)
	if err != nil {
		return nil, err
	}
	if err := s.repos.RoomTypes.Save(ctx, rt); err != nil {
		return nil, err
	}

	s.logger.Info("room type created",
		zap.String("room_type_id", rt.ID().String()),
		zap.String("name", rt.Name()),
		zap.Int("unit_count", rt.UnitCount()),
	)
	result := toRoomTypeDTO(rt)
	return &result, nil
}

func (s *RoomTypeService) GetRoomType(ctx context.Context, id uuid.UUID) (*RoomTypeDTO, error) {
	rt, err := s.repos.RoomTypes.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	result := toRoomTypeDTO(rt)
	return &result, nil
}

func (s *RoomTypeService) ListRoomTypes(ctx context.Context) ([]RoomTypeDTO, error) {
	rts, err := s.repos.RoomTypes.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RoomTypeDTO, len(rts))
	for i, rt := range rts {
		out[i] = toRoomTypeDTO(rt)
	}
	return out, nil
}

// UpdateRoomType applies a catalog patch. Lowering unitCount below the busiest
// night from today onwards is a conflict.
func (s *RoomTypeService) UpdateRoomType(ctx context.Context, id uuid.UUID, req UpdateRoomTypeRequest) (*RoomTypeDTO, error) {
	unlock, err := s.locker.Lock(ctx, roomTypeLockKey(id))
	if err != nil {
		return nil, fmt.Errorf("failed to lock room type: %w", err)
	}
	defer unlock()

	var updated *roomtype.RoomType
	err = s.unit.Do(ctx, func(r uow.Repositories) error {
		rt, err := r.RoomTypes.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if req.UnitCount != nil && *req.UnitCount < rt.UnitCount() {
			today := bookingDomain.NormalizeDate(time.Now().UTC())
			peak, err := r.Ledger.MaxReserved(ctx, id, today)
			if err != nil {
				return err
			}
			if *req.UnitCount < peak {
				return domain.NewConflictError(fmt.Sprintf("%d units are already reserved on the busiest night", peak))
			}
		}

		if err := rt.Apply(roomtype.Patch{
			Name:             req.Name,
			Description:      req.Description,
			NightlyRateCents: req.NightlyRate,
			Currency:         req.Currency,
			UnitCount:        req.UnitCount,
		}); err != nil {
			return err
		}
		if err := r.RoomTypes.Update(ctx, rt); err != nil {
			return err
		}
		updated = rt
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.availability.Invalidate(id)
	s.logger.Info("room type updated",
		zap.String("room_type_id", id.String()),
		zap.Int("unit_count", updated.UnitCount()),
	)
	result := toRoomTypeDTO(updated)
	return &result, nil
}

// DeleteRoomType removes a room type and its ledger. A room type still held by
// an active booking or an unapplied restoration cannot be deleted.
func (s *RoomTypeService) DeleteRoomType(ctx context.Context, id uuid.UUID) error {
	unlock, err := s.locker.Lock(ctx, roomTypeLockKey(id))
	if err != nil {
		return fmt.Errorf("failed to lock room type: %w", err)
	}
	defer unlock()

	err = s.unit.Do(ctx, func(r uow.Repositories) error {
		if _, err := r.RoomTypes.FindByID(ctx, id); err != nil {
			return err
		}
		active, err := r.Bookings.CountActiveByRoomType(ctx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return domain.NewConflictError(fmt.Sprintf("room type is referenced by %d active bookings", active))
		}
		outstanding, err := r.Restorations.FindOutstandingByRoomType(ctx, id)
		if err != nil {
			return err
		}
		if len(outstanding) > 0 {
			return domain.NewConflictError("room type has inventory restorations still outstanding")
		}

		if err := r.Ledger.DeleteRoomType(ctx, id); err != nil {
			return err
		}
		return r.RoomTypes.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.availability.Invalidate(id)
	s.logger.Info("room type deleted", zap.String("room_type_id", id.String()))
	return nil
}
