package fixedincome

import (
	"time"

	apperrors "bondfolio/internal/errors"
)

// day truncates t to its UTC calendar day at midnight.
func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// actualDays returns the number of calendar days from start to end.
func actualDays(start, end time.Time) int {
	return int(day(end).Sub(day(start)).Hours() / 24)
}

// thirty360Days counts days on the 30/360 bond basis: a 31st start day becomes
// the 30th, and a 31st end day becomes the 30th when the start day is the 30th
// or later.
func thirty360Days(start, end time.Time) int {
	y1, m1, d1 := day(start).Date()
	y2, m2, d2 := day(end).Date()
	if d1 == 31 {
		d1 = 30
	}
	if d2 == 31 && d1 >= 30 {
		d2 = 30
	}
	return 360*(y2-y1) + 30*(int(m2)-int(m1)) + (d2 - d1)
}

// DaysBetween returns the day count from start to end under the convention.
func DaysBetween(start, end time.Time, convention DayCountConvention) (int, error) {
	if !convention.Valid() {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidTerms, "Unknown day count convention "+string(convention))
	}
	if !day(end).After(day(start)) {
		return 0, apperrors.ErrInvalidDateRange
	}
	if convention == DayCountThirty360 {
		return thirty360Days(start, end), nil
	}
	return actualDays(start, end), nil
}

// YearFraction converts the span from start to end into years.
//
// ACT_ACT is approximated as actual days / 365.25 rather than the
// coupon-period based definition.
func YearFraction(start, end time.Time, convention DayCountConvention) (float64, error) {
	days, err := DaysBetween(start, end, convention)
	if err != nil {
		return 0, err
	}
	return float64(days) / daysPerYear(convention), nil
}

func daysPerYear(convention DayCountConvention) float64 {
	switch convention {
	case DayCountAct360, DayCountThirty360:
		return 360
	case DayCountActAct:
		return 365.25
	default:
		return 365
	}
}
