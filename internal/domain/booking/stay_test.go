package booking

import (
	"testing"
	"time"

	"github.com/innhub/service-reservation/internal/platform/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func date(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func mustStay(t *testing.T, in, out string) Stay {
	t.Helper()
	s, err := NewStay(date(in), date(out))
	require.NoError(t, err)
	return s
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("checkInDate", "2025-06-10")
	require.NoError(t, err)
	assert.Equal(t, date("2025-06-10"), d)

	d, err = ParseDate("checkInDate", "2025-06-10T23:30:00+08:00")
	require.NoError(t, err)
	assert.Equal(t, date("2025-06-10"), d, "calendar date as written is kept")

	_, err = ParseDate("checkInDate", "")
	require.Error(t, err)
	de, ok := domain.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "checkInDate", de.Field)

	_, err = ParseDate("checkOutDate", "10/06/2025")
	assert.True(t, domain.IsValidation(err))
}

func TestNewStay_RejectsInvertedAndEmptyRanges(t *testing.T) {
	_, err := NewStay(date("2025-06-12"), date("2025-06-10"))
	assert.True(t, domain.IsValidation(err))

	_, err = NewStay(date("2025-06-10"), date("2025-06-10"))
	assert.True(t, domain.IsValidation(err))

	// time of day is dropped before comparing
	_, err = NewStay(date("2025-06-10").Add(9*time.Hour), date("2025-06-10").Add(20*time.Hour))
	assert.True(t, domain.IsValidation(err))
}

func TestStay_NightsAndDates(t *testing.T) {
	s := mustStay(t, "2025-06-10", "2025-06-13")
	assert.Equal(t, 3, s.Nights())
	assert.Equal(t, []time.Time{date("2025-06-10"), date("2025-06-11"), date("2025-06-12")}, s.NightDates())
	assert.True(t, s.Contains(date("2025-06-12")))
	assert.False(t, s.Contains(date("2025-06-13")))
	assert.False(t, s.Contains(date("2025-06-09")))
}

func TestStay_Overlaps_Examples(t *testing.T) {
	a := mustStay(t, "2025-06-10", "2025-06-12")

	assert.False(t, a.Overlaps(mustStay(t, "2025-06-12", "2025-06-14")), "check-out day is free")
	assert.False(t, a.Overlaps(mustStay(t, "2025-06-08", "2025-06-10")), "check-in day of a is free for an earlier stay")
	assert.True(t, a.Overlaps(mustStay(t, "2025-06-11", "2025-06-13")))
	assert.True(t, a.Overlaps(mustStay(t, "2025-06-01", "2025-06-30")))
}

func TestStay_Overlaps_Property(t *testing.T) {
	base := date("2025-01-01")
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.IntRange(0, 60).Draw(t, "a")
		b := a + rapid.IntRange(1, 20).Draw(t, "lenAB")
		c := rapid.IntRange(0, 60).Draw(t, "c")
		d := c + rapid.IntRange(1, 20).Draw(t, "lenCD")

		x := Stay{CheckIn: base.AddDate(0, 0, a), CheckOut: base.AddDate(0, 0, b)}
		y := Stay{CheckIn: base.AddDate(0, 0, c), CheckOut: base.AddDate(0, 0, d)}

		want := a < d && c < b
		if x.Overlaps(y) != want {
			t.Fatalf("Overlaps([%d,%d),[%d,%d)) = %v, want %v", a, b, c, d, !want, want)
		}
		if x.Overlaps(y) != y.Overlaps(x) {
			t.Fatalf("overlap is not symmetric")
		}

		shared := 0
		for _, n := range x.NightDates() {
			if y.Contains(n) {
				shared++
			}
		}
		if (shared > 0) != want {
			t.Fatalf("shared nights %d disagree with overlap %v", shared, want)
		}
	})
}
