package generic

import "time"

// =============================================================================
// PERIOD - Inclusive date range
// =============================================================================

// Period is an inclusive [Start, End] range of dates.
//
// Examples:
//   - Calendar year 2027: Jan 1 - Dec 31
//   - May 2027: May 1 - May 31
//   - Fiscal year closing 2027-03-31: Apr 1 2026 - Mar 31 2027
type Period struct {
	Start TimePoint
	End   TimePoint
}

// NewPeriod returns ErrInvalidPeriod when end precedes start.
func NewPeriod(start, end TimePoint) (Period, error) {
	if end.Before(start) {
		return Period{}, ErrInvalidPeriod
	}
	return Period{Start: start, End: end}, nil
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Days returns all days in the period as a slice of TimePoints.
func (p Period) Days() []TimePoint {
	var days []TimePoint
	current := p.Start
	for current.BeforeOrEqual(p.End) {
		days = append(days, current)
		current = current.AddDays(1)
	}
	return days
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// CalendarYear is Jan 1 - Dec 31 of year.
func CalendarYear(year int) Period {
	return Period{Start: StartOfYear(year), End: EndOfYear(year)}
}

// CalendarMonth covers every day of the month.
func CalendarMonth(year int, month time.Month) Period {
	return Period{Start: StartOfMonth(year, month), End: EndOfMonth(year, month)}
}

// FiscalYearEnding returns the twelve-month accounting period closing on
// closingMonth/closingDay of year. A closing day past the end of the month
// is clamped, so 02/29 closes on Feb 28 in non-leap years.
func FiscalYearEnding(year int, closingMonth time.Month, closingDay int) Period {
	end := NewTimePoint(year, closingMonth, clampDay(year, closingMonth, closingDay))
	prev := end.AddYears(-1)
	prevEnd := NewTimePoint(prev.Year(), closingMonth, clampDay(prev.Year(), closingMonth, closingDay))
	return Period{Start: prevEnd.AddDays(1), End: end}
}

func clampDay(year int, month time.Month, day int) int {
	if last := DaysIn(year, month); day > last {
		return last
	}
	if day < 1 {
		return 1
	}
	return day
}
