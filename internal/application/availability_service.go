package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/innhub/service-reservation/internal/domain/booking"
	"github.com/innhub/service-reservation/internal/domain/inventory"
	"github.com/innhub/service-reservation/internal/domain/roomtype"
	"github.com/innhub/service-reservation/internal/domain/uow"
	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// AvailabilityService answers "how many units of a room type are free for a
// stay". Results are cached per room type and stay until the ledger for that
// room type changes or the TTL elapses.
type AvailabilityService struct {
	repos  uow.Repositories
	cache  *cache.Cache
	logger *zap.Logger
}

// NewAvailabilityService creates an AvailabilityService. A ttl of zero or less
// disables caching.
func NewAvailabilityService(repos uow.Repositories, ttl time.Duration, logger *zap.Logger) *AvailabilityService {
	s := &AvailabilityService{repos: repos, logger: logger}
	if ttl > 0 {
		s.cache = cache.New(ttl, 2*ttl)
	}
	return s
}

// ParseStay validates a check-in/check-out query pair.
func ParseStay(checkIn, checkOut string) (bookingDomain.Stay, error) {
	in, err := bookingDomain.ParseDate("checkIn", checkIn)
	if err != nil {
		return bookingDomain.Stay{}, err
	}
	out, err := bookingDomain.ParseDate("checkOut", checkOut)
	if err != nil {
		return bookingDomain.Stay{}, err
	}
	return bookingDomain.NewStay(in, out)
}

// Check returns the availability of one room type over stay.
func (s *AvailabilityService) Check(ctx context.Context, roomTypeID uuid.UUID, stay bookingDomain.Stay) (*AvailabilityDTO, error) {
	rt, err := s.repos.RoomTypes.FindByID(ctx, roomTypeID)
	if err != nil {
		return nil, err
	}
	a, err := s.Compute(ctx, rt, stay)
	if err != nil {
		return nil, err
	}
	result := toAvailabilityDTO(a)
	return &result, nil
}

// ListAvailable returns the room types with at least one free unit over stay.
// A non-nil category restricts the search to that room type.
func (s *AvailabilityService) ListAvailable(ctx context.Context, category *uuid.UUID, stay bookingDomain.Stay) ([]RoomTypeDTO, error) {
	var candidates []*roomtype.RoomType
	if category != nil {
		rt, err := s.repos.RoomTypes.FindByID(ctx, *category)
		if err != nil {
			return nil, err
		}
		candidates = []*roomtype.RoomType{rt}
	} else {
		all, err := s.repos.RoomTypes.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list room types: %w", err)
		}
		candidates = all
	}

	rooms := make([]RoomTypeDTO, 0, len(candidates))
	for _, rt := range candidates {
		a, err := s.Compute(ctx, rt, stay)
		if err != nil {
			return nil, err
		}
		if !a.IsAvailable {
			continue
		}
		dto := toRoomTypeDTO(rt)
		units := a.AvailableUnits
		dto.AvailableUnits = &units
		dto.IsAvailable = true
		rooms = append(rooms, dto)
	}
	return rooms, nil
}

// Compute derives availability from the active bookings overlapping stay and
// the restorations not yet applied to the ledger.
func (s *AvailabilityService) Compute(ctx context.Context, rt *roomtype.RoomType, stay bookingDomain.Stay) (inventory.Availability, error) {
	key := cacheKey(rt.ID(), stay)
	if s.cache != nil {
		if cached, found := s.cache.Get(key); found {
			a := cached.(inventory.Availability)
			// A catalog change may have moved unitCount since the entry was stored.
			if a.UnitCount == rt.UnitCount() {
				return a, nil
			}
		}
	}

	ctx, span := tracer.Start(ctx, "availability.compute")
	defer span.End()
	span.SetAttributes(
		attribute.String("room_type_id", rt.ID().String()),
		attribute.String("stay", stay.String()),
	)

	bookings, err := s.repos.Bookings.FindActiveOverlapping(ctx, rt.ID(), stay)
	if err != nil {
		return inventory.Availability{}, fmt.Errorf("failed to load overlapping bookings: %w", err)
	}
	outstanding, err := s.repos.Restorations.FindOutstandingByRoomType(ctx, rt.ID())
	if err != nil {
		return inventory.Availability{}, fmt.Errorf("failed to load outstanding restorations: %w", err)
	}

	a := inventory.Compute(rt.ID(), rt.UnitCount(), stay, inventory.HoldsFor(rt.ID(), bookings, outstanding))
	if s.cache != nil {
		s.cache.SetDefault(key, a)
	}
	return a, nil
}

// Invalidate drops cached results for the given room types.
func (s *AvailabilityService) Invalidate(roomTypeIDs ...uuid.UUID) {
	if s.cache == nil || len(roomTypeIDs) == 0 {
		return
	}
	for key := range s.cache.Items() {
		for _, id := range roomTypeIDs {
			if strings.HasPrefix(key, id.String()+"|") {
				s.cache.Delete(key)
				break
			}
		}
	}
}

func cacheKey(roomTypeID uuid.UUID, stay bookingDomain.Stay) string {
	return roomTypeID.String() + "|" + stay.String()
}
