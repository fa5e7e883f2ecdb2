package booking

import (
	"strings"
	"time"

	"github.com/innhub/service-reservation/internal/platform/domain"
)

// DateLayout is the wire format of check-in and check-out dates.
const DateLayout = "2006-01-02"

// Stay is the half-open night range [CheckIn, CheckOut). The check-out day is
// not occupied.
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// NormalizeDate keeps the calendar date of t, as written in its own zone, at
// UTC midnight.
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts "2006-01-02" or an RFC 3339 timestamp and returns the
// normalised date. Field names the request field for the error.
func ParseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, domain.NewFieldValidationError(field, "is required")
	}
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, domain.NewFieldValidationError(field, "must be a date (YYYY-MM-DD)")
	}
	return NormalizeDate(t), nil
}

// NewStay normalises both dates and requires check-out after check-in.
func NewStay(checkIn, checkOut time.Time) (Stay, error) {
	s := Stay{CheckIn: NormalizeDate(checkIn), CheckOut: NormalizeDate(checkOut)}
	if !s.CheckOut.After(s.CheckIn) {
		return Stay{}, domain.NewFieldValidationError("checkOutDate", "must be after checkInDate")
	}
	return s, nil
}

// Nights is the number of nights slept.
func (s Stay) Nights() int {
	return int(s.CheckOut.Sub(s.CheckIn).Hours() / 24)
}

// Overlaps reports whether the two stays share at least one night.
func (s Stay) Overlaps(o Stay) bool {
	return s.CheckIn.Before(o.CheckOut) && o.CheckIn.Before(s.CheckOut)
}

// Contains reports whether night is slept during the stay.
func (s Stay) Contains(night time.Time) bool {
	night = NormalizeDate(night)
	return !night.Before(s.CheckIn) && night.Before(s.CheckOut)
}

// NightDates lists every night of the stay in order.
func (s Stay) NightDates() []time.Time {
	nights := make([]time.Time, 0, s.Nights())
	for d := s.CheckIn; d.Before(s.CheckOut); d = d.AddDate(0, 0, 1) {
		nights = append(nights, d)
	}
	return nights
}

func (s Stay) String() string {
	return s.CheckIn.Format(DateLayout) + "/" + s.CheckOut.Format(DateLayout)
}
