package fiscal

import (
	"sort"

	"github.com/warp/fiscal-engine/generic"
)

// CalendarEntry is the slice of an obligation a calendar view needs.
type CalendarEntry struct {
	Key    string            `json:"obligation_key"`
	Date   generic.TimePoint `json:"date"`
	Label  string            `json:"label"`
	Amount *generic.Amount   `json:"amount,omitempty"`
	Status Status            `json:"status"`
}

// CalendarFor returns the entries due within period, by date.
func CalendarFor(obligations []Obligation, period generic.Period) []CalendarEntry {
	entries := make([]CalendarEntry, 0, len(obligations))
	for _, o := range obligations {
		if !period.Contains(o.DueDate) {
			continue
		}
		entries = append(entries, CalendarEntry{
			Key:    o.Key,
			Date:   o.DueDate,
			Label:  o.Label,
			Amount: o.Amount,
			Status: o.Status,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})
	return entries
}
