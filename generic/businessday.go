/*
businessday.go - Business-day calculator

PURPOSE:
  Every statutory deadline is expressed either as "the Nth business day of a
  month" or as "a fixed date, pushed to the next business day". This file
  holds the predicates and navigation functions both rules reduce to.

DEFINITION:
  A business day is neither a Saturday, a Sunday, nor a fixed holiday of the
  calendar in use. Moving holidays are not modeled.

USAGE:
  due, err := generic.NthBusinessDayOfMonth(2027, time.May, 2)  // 2027-05-04
  due := generic.AdjustToBusinessDay(generic.NewTimePoint(2028, 7, 15)) // 2028-07-17

SEE ALSO:
  - holiday.go: FrenchFixedHolidays
  - fiscal/tva.go, fiscal/cfe.go: due-date rules built on these functions
*/
package generic

import "time"

// BusinessCalendar answers business-day questions against one holiday calendar.
type BusinessCalendar struct {
	holidays HolidayCalendar
}

// NewBusinessCalendar returns a calculator bound to the given holidays.
// A nil calendar means weekends only.
func NewBusinessCalendar(holidays HolidayCalendar) BusinessCalendar {
	return BusinessCalendar{holidays: holidays}
}

// DefaultBusinessCalendar uses the French fixed holidays.
var DefaultBusinessCalendar = NewBusinessCalendar(FrenchCalendar)

func (bc BusinessCalendar) IsHoliday(date TimePoint) bool {
	return bc.holidays != nil && bc.holidays.IsHoliday(date)
}

func (bc BusinessCalendar) IsBusinessDay(date TimePoint) bool {
	return !IsWeekend(date) && !bc.IsHoliday(date)
}

// NextBusinessDay returns the first business day strictly after date.
func (bc BusinessCalendar) NextBusinessDay(date TimePoint) TimePoint {
	next := date.AddDays(1)
	for !bc.IsBusinessDay(next) {
		next = next.AddDays(1)
	}
	return next
}

// AdjustToBusinessDay returns date itself when it is a business day,
// otherwise the next one.
func (bc BusinessCalendar) AdjustToBusinessDay(date TimePoint) TimePoint {
	if bc.IsBusinessDay(date) {
		return date
	}
	return bc.NextBusinessDay(date)
}

// NthBusinessDayOfMonth counts business days from the 1st of the month.
// The walk stops at the month boundary rather than spilling into the next one.
func (bc BusinessCalendar) NthBusinessDayOfMonth(year int, month time.Month, n int) (TimePoint, error) {
	if n < 1 {
		return TimePoint{}, &RankError{Year: year, Month: month, Rank: n, Err: ErrInvalidRank}
	}

	count := 0
	for current := StartOfMonth(year, month); current.Month() == month; current = current.AddDays(1) {
		if !bc.IsBusinessDay(current) {
			continue
		}
		count++
		if count == n {
			return current, nil
		}
	}
	return TimePoint{}, &RankError{Year: year, Month: month, Rank: n, Found: count, Err: ErrRankOutOfMonth}
}

// NthBusinessDayAfter applies NextBusinessDay n times. n <= 0 returns date.
func (bc BusinessCalendar) NthBusinessDayAfter(date TimePoint, n int) TimePoint {
	current := date
	for i := 0; i < n; i++ {
		current = bc.NextBusinessDay(current)
	}
	return current
}

// BusinessDaysIn lists the business days of a period in order.
func (bc BusinessCalendar) BusinessDaysIn(p Period) []TimePoint {
	days := make([]TimePoint, 0, 23)
	for _, d := range p.Days() {
		if bc.IsBusinessDay(d) {
			days = append(days, d)
		}
	}
	return days
}

// =============================================================================
// PACKAGE-LEVEL HELPERS (French fixed holidays)
// =============================================================================

func IsWeekend(date TimePoint) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func IsFixedHoliday(date TimePoint) bool { return DefaultBusinessCalendar.IsHoliday(date) }
func IsBusinessDay(date TimePoint) bool  { return DefaultBusinessCalendar.IsBusinessDay(date) }

func NextBusinessDay(date TimePoint) TimePoint {
	return DefaultBusinessCalendar.NextBusinessDay(date)
}

func AdjustToBusinessDay(date TimePoint) TimePoint {
	return DefaultBusinessCalendar.AdjustToBusinessDay(date)
}

func NthBusinessDayOfMonth(year int, month time.Month, n int) (TimePoint, error) {
	return DefaultBusinessCalendar.NthBusinessDayOfMonth(year, month, n)
}

func NthBusinessDayAfter(date TimePoint, n int) TimePoint {
	return DefaultBusinessCalendar.NthBusinessDayAfter(date, n)
}

func BusinessDaysIn(p Period) []TimePoint {
	return DefaultBusinessCalendar.BusinessDaysIn(p)
}
