// Package inventory models held room-units per night and the arithmetic that
// turns holds into availability.
package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/innhub/service-reservation/internal/domain/booking"
)

// Hold is a number of units held across a stay.
type Hold struct {
	Stay  booking.Stay
	Units int
}

// Availability is the free capacity of one room type over a range.
type Availability struct {
	RoomTypeID     uuid.UUID    `json:"roomTypeId"`
	Stay           booking.Stay `json:"-"`
	UnitCount      int          `json:"unitCount"`
	ReservedUnits  int          `json:"reservedUnits"`
	AvailableUnits int          `json:"availableUnits"`
	IsAvailable    bool         `json:"isAvailable"`
}

// HoldsFor collects the holds on roomTypeID from active bookings and from
// restorations that have not yet been applied to the ledger, including ones
// parked as failed.
func HoldsFor(roomTypeID uuid.UUID, bookings []*booking.Booking, outstanding []*RestorationTask) []Hold {
	holds := make([]Hold, 0, len(bookings)+len(outstanding))
	for _, b := range bookings {
		if !b.IsActive() {
			continue
		}
		if units := b.UnitsFor(roomTypeID); units > 0 {
			holds = append(holds, Hold{Stay: b.Stay(), Units: units})
		}
	}
	for _, t := range outstanding {
		if t.RoomTypeID == roomTypeID && t.Status.Outstanding() {
			holds = append(holds, Hold{Stay: t.Stay, Units: t.Units})
		}
	}
	return holds
}

// HeldPerNight sums the units held on each night of stay.
func HeldPerNight(stay booking.Stay, holds []Hold) map[time.Time]int {
	perNight := make(map[time.Time]int, stay.Nights())
	for _, night := range stay.NightDates() {
		perNight[night] = 0
	}
	for _, h := range holds {
		if !h.Stay.Overlaps(stay) {
			continue
		}
		for _, night := range h.Stay.NightDates() {
			if _, inRange := perNight[night]; inRange {
				perNight[night] += h.Units
			}
		}
	}
	return perNight
}

// PeakReserved is the largest number of units held on any single night of
// stay. Back-to-back holds never add up.
func PeakReserved(stay booking.Stay, holds []Hold) int {
	peak := 0
	for _, held := range HeldPerNight(stay, holds) {
		if held > peak {
			peak = held
		}
	}
	return peak
}

// Compute derives availability of a room type over stay.
func Compute(roomTypeID uuid.UUID, unitCount int, stay booking.Stay, holds []Hold) Availability {
	reserved := PeakReserved(stay, holds)
	available := unitCount - reserved
	if available < 0 {
		available = 0
	}
	return Availability{
		RoomTypeID:     roomTypeID,
		Stay:           stay,
		UnitCount:      unitCount,
		ReservedUnits:  reserved,
		AvailableUnits: available,
		IsAvailable:    available > 0,
	}
}
