package fixedincome

import (
	"slices"
	"time"

	apperrors "bondfolio/internal/errors"
)

// CashFlow is a single dated payment of a security, per unit of face value held.
type CashFlow struct {
	Date      time.Time `json:"date"`
	Coupon    float64   `json:"coupon"`
	Principal float64   `json:"principal"`
}

// Amount is the total paid on the date.
func (c CashFlow) Amount() float64 { return c.Coupon + c.Principal }

// IsRedemption reports whether the flow repays the face value.
func (c CashFlow) IsRedemption() bool { return c.Principal > 0 }

// addMonths moves t by the given number of months the way EDATE does: the day
// of month is kept unless the target month is shorter, in which case it is
// clamped to the last day of that month.
func addMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	if last := first.AddDate(0, 1, -1).Day(); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, time.UTC)
}

// couponDates returns the payment dates in ascending order. Each date is
// measured back from maturity so an end-of-month clamp in one period does not
// leak into the next.
func couponDates(t Terms) []time.Time {
	maturity := day(t.MaturityDate)
	n := t.Frequency.PaymentsPerYear()
	if n == 0 {
		return []time.Time{maturity}
	}

	step := 12 / n
	issue := day(t.IssueDate)
	var dates []time.Time
	for k := 0; ; k++ {
		d := addMonths(maturity, -k*step)
		if !d.After(issue) {
			break
		}
		dates = append(dates, d)
	}
	slices.Reverse(dates)
	return dates
}

// GenerateSchedule returns every cash flow of the security from issue to
// maturity. When the life of the security is not a whole number of periods the
// first period is a short stub; the schedule always ends on the maturity date
// with the face value redemption.
func GenerateSchedule(t Terms) ([]CashFlow, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}

	dates := couponDates(t)
	coupon := t.PeriodCoupon()
	flows := make([]CashFlow, len(dates))
	for i, d := range dates {
		flows[i] = CashFlow{Date: d, Coupon: coupon}
	}
	flows[len(flows)-1].Principal = t.FaceValue
	return flows, nil
}

// TimedCashFlow is a cash flow positioned relative to a settlement date.
type TimedCashFlow struct {
	CashFlow
	// Periods is the time from settlement to the flow in compounding periods.
	Periods float64 `json:"periods"`
}

// Schedule is the set of cash flows still to be received after a settlement
// date. It is built once and shared by the yield solver and the risk metrics so
// both see exactly the same timing.
type Schedule struct {
	Terms      Terms           `json:"-"`
	Settlement time.Time       `json:"settlement"`
	Flows      []TimedCashFlow `json:"flows"`
}

// Frequency is the number of compounding periods per year. Zero-coupon
// securities compound annually.
func (s Schedule) Frequency() int {
	if n := s.Terms.Frequency.PaymentsPerYear(); n > 0 {
		return n
	}
	return 1
}

// Years returns the time to the i-th flow in years.
func (s Schedule) Years(i int) float64 {
	return s.Flows[i].Periods / float64(s.Frequency())
}

// YearsToMaturity is the time to the final flow in years, or zero when nothing
// remains.
func (s Schedule) YearsToMaturity() float64 {
	if len(s.Flows) == 0 {
		return 0
	}
	return s.Years(len(s.Flows) - 1)
}

// NewSchedule generates the schedule for t and positions the flows after
// settlement. A settlement on the maturity date yields an empty schedule.
func NewSchedule(t Terms, settlement time.Time) (Schedule, error) {
	flows, err := GenerateSchedule(t)
	if err != nil {
		return Schedule{}, err
	}
	return positionFlows(t, flows, settlement)
}

func checkSettlement(t Terms, settle time.Time) error {
	if settle.Before(day(t.IssueDate)) || settle.After(day(t.MaturityDate)) {
		return apperrors.WithMessage(apperrors.ErrSettlementOutOfRange,
			"Settlement date "+settle.Format(time.DateOnly)+" is outside "+
				day(t.IssueDate).Format(time.DateOnly)+" to "+day(t.MaturityDate).Format(time.DateOnly))
	}
	return nil
}

func positionFlows(t Terms, flows []CashFlow, settlement time.Time) (Schedule, error) {
	settle := day(settlement)
	if err := checkSettlement(t, settle); err != nil {
		return Schedule{}, err
	}

	s := Schedule{Terms: t, Settlement: settle}
	first := slices.IndexFunc(flows, func(cf CashFlow) bool { return cf.Date.After(settle) })
	if first < 0 {
		return s, nil
	}

	remaining := flows[first:]
	s.Flows = make([]TimedCashFlow, len(remaining))

	if t.Frequency == FrequencyZeroCoupon {
		years, err := YearFraction(settle, remaining[0].Date, t.DayCount)
		if err != nil {
			return Schedule{}, err
		}
		s.Flows[0] = TimedCashFlow{CashFlow: remaining[0], Periods: years}
		return s, nil
	}

	// The first period runs from the regular coupon date before the next
	// payment, which for a short stub lies before the issue date.
	step := 12 / t.Frequency.PaymentsPerYear()
	prev := addMonths(day(t.MaturityDate), -len(remaining)*step)
	fraction, err := periodFraction(prev, settle, remaining[0].Date, t.DayCount)
	if err != nil {
		return Schedule{}, err
	}
	for i, cf := range remaining {
		s.Flows[i] = TimedCashFlow{CashFlow: cf, Periods: fraction + float64(i)}
	}
	return s, nil
}

// periodFraction is the share of the period (prev, next] still to run at settle.
func periodFraction(prev, settle, next time.Time, convention DayCountConvention) (float64, error) {
	whole, err := DaysBetween(prev, next, convention)
	if err != nil {
		return 0, err
	}
	if whole <= 0 {
		return 1, nil
	}
	left, err := DaysBetween(settle, next, convention)
	if err != nil {
		return 0, err
	}
	return float64(left) / float64(whole), nil
}
