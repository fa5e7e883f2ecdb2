package booking

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNightlyRatePricing(t *testing.T) {
	p := NewNightlyRatePricing()

	total, err := p.Calculate(PricingParams{
		Nights: 3,
		Rooms: []RoomReservation{
			{RoomTypeID: uuid.New(), Units: 2, NightlyRateCents: 20000},
			{RoomTypeID: uuid.New(), Units: 1, NightlyRateCents: 35000},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2*3*20000+1*3*35000), total)
}

func TestNightlyRatePricing_Errors(t *testing.T) {
	p := NewNightlyRatePricing()

	_, err := p.Calculate(PricingParams{Nights: 0, Rooms: []RoomReservation{{Units: 1, NightlyRateCents: 100}}})
	assert.Error(t, err)

	_, err = p.Calculate(PricingParams{Nights: 1, Rooms: []RoomReservation{{Units: 1, NightlyRateCents: -1}}})
	assert.Error(t, err)

	_, err = p.Calculate(PricingParams{Nights: 2, Rooms: []RoomReservation{{Units: 1, NightlyRateCents: math.MaxInt64}}})
	assert.Error(t, err)
}

func TestIsPriced(t *testing.T) {
	assert.True(t, IsPriced([]RoomReservation{{NightlyRateCents: 1}}))
	assert.False(t, IsPriced([]RoomReservation{{NightlyRateCents: 1}, {NightlyRateCents: 0}}))
	assert.False(t, IsPriced(nil))
}
