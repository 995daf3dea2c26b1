package fiscal

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warp/fiscal-engine/generic"
)

// Warnings collects non-fatal generation messages meant for end users.
type Warnings []string

func (w *Warnings) Addf(format string, args ...any) {
	*w = append(*w, fmt.Sprintf(format, args...))
}

// List returns the messages, never nil.
func (w Warnings) List() []string {
	if w == nil {
		return []string{}
	}
	return append([]string(nil), w...)
}

// stamp fills the fields every family derives the same way: a fresh ID, the
// warning date and the initial status.
func stamp(o Obligation) Obligation {
	o.ID = uuid.NewString()
	o.WarningDate = o.DueDate.AddDays(-WarningLeadDays)
	o.Status = StatusPending
	return o
}

// mustNthBusinessDay is only called with ranks every month can satisfy.
func mustNthBusinessDay(year int, month time.Month, n int) generic.TimePoint {
	d, err := generic.NthBusinessDayOfMonth(year, month, n)
	if err != nil {
		panic(err)
	}
	return d
}

// KeyYear extracts the trailing calendar year of an obligation key,
// e.g. 2027 for "TVA_ACOMPTE_JUILLET_2027".
func KeyYear(key string) (int, bool) {
	i := strings.LastIndexByte(key, '_')
	if i < 0 || i == len(key)-1 {
		return 0, false
	}
	year, err := strconv.Atoi(key[i+1:])
	if err != nil || year < 1 {
		return 0, false
	}
	return year, true
}

func formatDate(d generic.TimePoint) string {
	return d.Time.Format("02/01/2006")
}

// adjustedDate pushes a nominal statutory date to the next business day.
func adjustedDate(year int, month time.Month, day int) generic.TimePoint {
	return generic.AdjustToBusinessDay(generic.NewTimePoint(year, month, day))
}

var frenchMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

func frenchMonth(m time.Month) string { return frenchMonths[m-1] }
