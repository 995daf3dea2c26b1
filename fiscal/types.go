// Package fiscal generates the calendar of recurring French tax obligations
// of a legal entity from its creation date, fiscal-year end and VAT regime.
// Generation is pure: configuration in, sorted obligations and warnings out.
package fiscal

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/fiscal-engine/generic"
)

// =============================================================================
// REGIME
// =============================================================================

// Regime is the VAT regime of the entity.
type Regime string

const (
	RegimeSimplifiedReal Regime = "simplified-real" // régime réel simplifié
	RegimeNormalReal     Regime = "normal-real"     // régime réel normal
	RegimeBaseExemption  Regime = "base-exemption"  // franchise en base de TVA
)

// Regimes lists every known regime.
func Regimes() []Regime {
	return []Regime{RegimeSimplifiedReal, RegimeNormalReal, RegimeBaseExemption}
}

func (r Regime) Valid() bool {
	for _, known := range Regimes() {
		if r == known {
			return true
		}
	}
	return false
}

// =============================================================================
// OBLIGATION
// =============================================================================

type ObligationType string

const (
	TypeTVAAnnual      ObligationType = "TVA_ANNUELLE"
	TypeTVAInstallment ObligationType = "TVA_ACOMPTE"
	TypeTaxReturn      ObligationType = "LIASSE_FISCALE"
	TypeCFE            ObligationType = "CFE"
	TypeSocial         ObligationType = "URSSAF"
	TypeOther          ObligationType = "AUTRE"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusPaid, StatusOverdue:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", generic.ErrInvalidStatus, s)
}

// WarningLeadDays is how long before the due date an obligation starts
// showing up as upcoming.
const WarningLeadDays = 30

// Obligation is one dated fiscal duty. Records are built once per generation
// call; only Status is rewritten, by the overdue pass and by overrides.
type Obligation struct {
	ID             string            `json:"id"`
	Key            string            `json:"obligation_key"`
	Type           ObligationType    `json:"type"`
	Label          string            `json:"label"`
	Description    string            `json:"description"`
	DueDate        generic.TimePoint `json:"due_date"`
	WarningDate    generic.TimePoint `json:"warning_date"`
	FiscalYear     int               `json:"fiscal_year"`
	CalendarYear   int               `json:"calendar_year"`
	Recurring      bool              `json:"recurring"`
	IsFirstYear    bool              `json:"is_first_year"`
	Status         Status            `json:"status"`
	Amount         *generic.Amount   `json:"amount,omitempty"`
	Tags           []string          `json:"tags"`
	LegalReference string            `json:"legal_reference,omitempty"`
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config is the per-entity input of the generator.
type Config struct {
	CreationDate     generic.TimePoint
	FirstClosingDate generic.TimePoint
	ClosingMonth     time.Month
	ClosingDay       int
	Regime           Regime
	URSSAFEnabled    bool

	// TVAByFiscalYear holds the net VAT due for each closed fiscal year.
	// Years with no known figure are simply absent.
	TVAByFiscalYear map[int]decimal.Decimal

	CFEEstimatedAmount *decimal.Decimal
}

// CreationYear is the calendar year the entity was registered.
func (c Config) CreationYear() int { return c.CreationDate.Year() }

// FirstFiscalYear is the year of the first closing.
func (c Config) FirstFiscalYear() int { return c.FirstClosingDate.Year() }

// TVAReference returns the net VAT recorded for fiscalYear.
func (c Config) TVAReference(fiscalYear int) (generic.Amount, bool) {
	v, ok := c.TVAByFiscalYear[fiscalYear]
	if !ok {
		return generic.Amount{}, false
	}
	return generic.NewAmount(v, generic.EUR), true
}

// FiscalPeriod returns the accounting period closing in year.
func (c Config) FiscalPeriod(year int) generic.Period {
	if year == c.FirstFiscalYear() {
		return generic.Period{Start: c.CreationDate, End: c.FirstClosingDate}
	}
	month, day := c.ClosingMonth, c.ClosingDay
	if month == 0 {
		month, day = time.December, 31
	}
	return generic.FiscalYearEnding(year, month, day)
}

// Clone returns a deep copy, so a result's config echo cannot be mutated
// through the caller's maps.
func (c Config) Clone() Config {
	out := c
	if c.TVAByFiscalYear != nil {
		out.TVAByFiscalYear = make(map[int]decimal.Decimal, len(c.TVAByFiscalYear))
		for k, v := range c.TVAByFiscalYear {
			out.TVAByFiscalYear[k] = v
		}
	}
	if c.CFEEstimatedAmount != nil {
		v := *c.CFEEstimatedAmount
		out.CFEEstimatedAmount = &v
	}
	return out
}

// Validate checks the invariants the generator relies on.
func (c Config) Validate() error {
	if c.CreationDate.IsZero() {
		return &generic.ConfigError{Field: "creation_date", Reason: "required"}
	}
	if c.FirstClosingDate.IsZero() {
		return &generic.ConfigError{Field: "first_closing_date", Reason: "required"}
	}
	if c.FirstClosingDate.Before(c.CreationDate) {
		return &generic.ConfigError{Field: "first_closing_date", Reason: "before creation_date"}
	}
	if c.ClosingMonth < time.January || c.ClosingMonth > time.December {
		return &generic.ConfigError{Field: "closing_month", Reason: fmt.Sprintf("%d out of 1-12", c.ClosingMonth)}
	}
	// Feb 29 is accepted as a leap-year closing.
	if last := generic.DaysIn(2028, c.ClosingMonth); c.ClosingDay < 1 || c.ClosingDay > last {
		return &generic.ConfigError{Field: "closing_day", Reason: fmt.Sprintf("%d out of 1-%d", c.ClosingDay, last)}
	}
	if !c.Regime.Valid() {
		return &generic.ConfigError{Field: "tva_regime", Reason: fmt.Sprintf("unknown regime %q", c.Regime)}
	}
	for year, amount := range c.TVAByFiscalYear {
		if amount.IsNegative() {
			return &generic.ConfigError{Field: "tva_by_fiscal_year", Reason: fmt.Sprintf("negative amount for %d", year)}
		}
	}
	if c.CFEEstimatedAmount != nil && c.CFEEstimatedAmount.IsNegative() {
		return &generic.ConfigError{Field: "cfe_estimated_amount", Reason: "negative"}
	}
	return nil
}

// =============================================================================
// RESULT
// =============================================================================

// Result is the output of one single-year generation.
type Result struct {
	Year        int          `json:"year"`
	Obligations []Obligation `json:"obligations"`
	Config      Config       `json:"-"`
	Warnings    []string     `json:"warnings"`
}

// Keys returns the obligation keys in result order.
func (r Result) Keys() []string {
	keys := make([]string, len(r.Obligations))
	for i, o := range r.Obligations {
		keys[i] = o.Key
	}
	return keys
}

// Find returns the obligation with the given key.
func (r Result) Find(key string) (Obligation, bool) {
	for _, o := range r.Obligations {
		if o.Key == key {
			return o, true
		}
	}
	return Obligation{}, false
}
