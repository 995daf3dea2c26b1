package generic

import "time"

// =============================================================================
// HOLIDAY CALENDAR
// =============================================================================

// Holiday is a public holiday falling on the same month/day every year.
type Holiday struct {
	Month time.Month
	Day   int
	Name  string
}

// On returns the holiday's date in the given year.
func (h Holiday) On(year int) TimePoint { return NewTimePoint(year, h.Month, h.Day) }

// HolidayCalendar provides holiday lookup functionality.
type HolidayCalendar interface {
	// IsHoliday checks if a date is a public holiday.
	IsHoliday(date TimePoint) bool

	// Holidays returns every holiday of the year, in calendar order.
	Holidays(year int) []Holiday
}

// FrenchFixedHolidays lists the eight French public holidays tied to a fixed
// date. Easter Monday, Ascension and Whit Monday move every year and are
// deliberately absent.
var FrenchFixedHolidays = []Holiday{
	{Month: time.January, Day: 1, Name: "Jour de l'an"},
	{Month: time.May, Day: 1, Name: "Fête du Travail"},
	{Month: time.May, Day: 8, Name: "Victoire 1945"},
	{Month: time.July, Day: 14, Name: "Fête nationale"},
	{Month: time.August, Day: 15, Name: "Assomption"},
	{Month: time.November, Day: 1, Name: "Toussaint"},
	{Month: time.November, Day: 11, Name: "Armistice 1918"},
	{Month: time.December, Day: 25, Name: "Noël"},
}

// FixedHolidayCalendar matches dates on (month, day) only.
type FixedHolidayCalendar struct {
	holidays []Holiday
	index    map[monthDay]struct{}
}

type monthDay struct {
	month time.Month
	day   int
}

// NewFixedHolidayCalendar builds a calendar over the given recurring holidays.
func NewFixedHolidayCalendar(holidays []Holiday) *FixedHolidayCalendar {
	c := &FixedHolidayCalendar{
		holidays: append([]Holiday(nil), holidays...),
		index:    make(map[monthDay]struct{}, len(holidays)),
	}
	for _, h := range holidays {
		c.index[monthDay{h.Month, h.Day}] = struct{}{}
	}
	return c
}

func (c *FixedHolidayCalendar) IsHoliday(date TimePoint) bool {
	_, ok := c.index[monthDay{date.Month(), date.Day()}]
	return ok
}

func (c *FixedHolidayCalendar) Holidays(year int) []Holiday {
	return append([]Holiday(nil), c.holidays...)
}

// FrenchCalendar is the holiday calendar every due date is adjusted against.
var FrenchCalendar HolidayCalendar = NewFixedHolidayCalendar(FrenchFixedHolidays)
