package roomtype

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/innhub/service-reservation/internal/platform/domain"
)

// RoomType is a category of interchangeable bookable units. UnitCount is the
// provisioned total; units held per night live on the ledger.
type RoomType struct {
	id               uuid.UUID
	name             string
	description      string
	nightlyRateCents int64
	currency         string
	unitCount        int
	version          int64
	createdAt        time.Time
	updatedAt        time.Time
}

// NewRoomType creates a room type with validated fields.
func NewRoomType(name, description string, nightlyRateCents int64, currency string, unitCount int) (*RoomType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.NewFieldValidationError("name", "is required")
	}
	if nightlyRateCents < 0 {
		return nil, domain.NewFieldValidationError("nightlyRate", "must not be negative")
	}
	if unitCount < 0 {
		return nil, domain.NewFieldValidationError("unitCount", "must not be negative")
	}
	if currency == "" {
		currency = domain.CurrencyMYR
	}

	now := time.Now().UTC()
	return &RoomType{
		id:               uuid.New(),
		name:             name,
		description:      description,
		nightlyRateCents: nightlyRateCents,
		currency:         currency,
		unitCount:        unitCount,
		version:          1,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

// Reconstruct rebuilds a RoomType from persistence data (no validation).
func Reconstruct(
	id uuid.UUID,
	name, description string,
	nightlyRateCents int64,
	currency string,
	unitCount int,
	version int64,
	createdAt, updatedAt time.Time,
) *RoomType {
	return &RoomType{
		id:               id,
		name:             name,
		description:      description,
		nightlyRateCents: nightlyRateCents,
		currency:         currency,
		unitCount:        unitCount,
		version:          version,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// --- Getters ---

func (r *RoomType) ID() uuid.UUID           { return r.id }
func (r *RoomType) Name() string            { return r.name }
func (r *RoomType) Description() string     { return r.description }
func (r *RoomType) NightlyRateCents() int64 { return r.nightlyRateCents }
func (r *RoomType) Currency() string        { return r.currency }
func (r *RoomType) UnitCount() int          { return r.unitCount }
func (r *RoomType) Version() int64          { return r.version }
func (r *RoomType) CreatedAt() time.Time    { return r.createdAt }
func (r *RoomType) UpdatedAt() time.Time    { return r.updatedAt }

// IsAvailable is true when any unit is provisioned at all.
func (r *RoomType) IsAvailable() bool {
	return r.unitCount > 0
}

// Patch holds optional catalog changes. Nil fields are left unchanged.
type Patch struct {
	Name             *string
	Description      *string
	NightlyRateCents *int64
	Currency         *string
	UnitCount        *int
}

// Apply validates and applies a patch. Callers must check that a lowered
// UnitCount still covers every night already held.
func (r *RoomType) Apply(p Patch) error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return domain.NewFieldValidationError("name", "must not be empty")
	}
	if p.NightlyRateCents != nil && *p.NightlyRateCents < 0 {
		return domain.NewFieldValidationError("nightlyRate", "must not be negative")
	}
	if p.UnitCount != nil && *p.UnitCount < 0 {
		return domain.NewFieldValidationError("unitCount", "must not be negative")
	}

	if p.Name != nil {
		r.name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		r.description = *p.Description
	}
	if p.NightlyRateCents != nil {
		r.nightlyRateCents = *p.NightlyRateCents
	}
	if p.Currency != nil && *p.Currency != "" {
		r.currency = *p.Currency
	}
	if p.UnitCount != nil {
		r.unitCount = *p.UnitCount
	}
	r.version++
	r.updatedAt = time.Now().UTC()
	return nil
}
