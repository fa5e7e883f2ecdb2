package booking

import (
	"fmt"
	"math"
)

// PricingStrategy defines the interface for calculating booking prices.
type PricingStrategy interface {
	// Calculate returns the total in minor units for the given parameters.
	Calculate(params PricingParams) (int64, error)
}

// PricingParams holds the inputs for price calculation. Each room carries
// the nightly rate of its room type at booking time.
type PricingParams struct {
	Rooms  []RoomReservation
	Nights int
}

// NightlyRatePricing charges rate × nights × units per room line.
type NightlyRatePricing struct{}

func NewNightlyRatePricing() *NightlyRatePricing {
	return &NightlyRatePricing{}
}

func (p *NightlyRatePricing) Calculate(params PricingParams) (int64, error) {
	if params.Nights < 1 {
		return 0, fmt.Errorf("stay must be at least one night")
	}

	var total int64
	for _, r := range params.Rooms {
		if r.NightlyRateCents < 0 {
			return 0, fmt.Errorf("nightly rate cannot be negative")
		}
		line := r.NightlyRateCents * int64(params.Nights) * int64(r.Units)
		if r.NightlyRateCents != 0 && line/r.NightlyRateCents != int64(params.Nights)*int64(r.Units) {
			return 0, fmt.Errorf("booking total overflows")
		}
		if total > math.MaxInt64-line {
			return 0, fmt.Errorf("booking total overflows")
		}
		total += line
	}
	return total, nil
}

// IsPriced reports whether every line carries a non-zero rate.
func IsPriced(rooms []RoomReservation) bool {
	for _, r := range rooms {
		if r.NightlyRateCents == 0 {
			return false
		}
	}
	return len(rooms) > 0
}
