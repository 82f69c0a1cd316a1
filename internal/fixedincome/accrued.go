package fixedincome

import "time"

// AccruedInterest returns the coupon earned from the last coupon date (or the
// issue date) up to settlement, per unit of face value held.
func AccruedInterest(t Terms, settlement time.Time) (float64, error) {
	flows, err := GenerateSchedule(t)
	if err != nil {
		return 0, err
	}
	return accruedFromFlows(t, flows, settlement)
}

// AccruedInterest is AccruedInterest backed by the cache.
func (c *ScheduleCache) AccruedInterest(t Terms, settlement time.Time) (float64, error) {
	flows, err := c.Schedule(t)
	if err != nil {
		return 0, err
	}
	return accruedFromFlows(t, flows, settlement)
}

func accruedFromFlows(t Terms, flows []CashFlow, settlement time.Time) (float64, error) {
	settle := day(settlement)
	if err := checkSettlement(t, settle); err != nil {
		return 0, err
	}
	if t.PeriodCoupon() == 0 {
		return 0, nil
	}

	last := day(t.IssueDate)
	var next time.Time
	for _, cf := range flows {
		if cf.Date.After(settle) {
			next = cf.Date
			break
		}
		last = cf.Date
	}
	if next.IsZero() || !settle.After(last) {
		return 0, nil
	}

	elapsed, err := YearFraction(last, settle, t.DayCount)
	if err != nil {
		return 0, err
	}
	period, err := YearFraction(last, next, t.DayCount)
	if err != nil {
		return 0, err
	}
	if period == 0 {
		return 0, nil
	}
	return elapsed / period * t.PeriodCoupon(), nil
}
