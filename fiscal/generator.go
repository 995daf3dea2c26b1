/*
generator.go - Regime dispatch and multi-year driver

PURPOSE:
  Runs the obligation families that apply to an entity for a calendar year,
  orders the result and flags what is already late.

FAMILIES:
  A family is a pure function (year, config, warnings) -> obligations. It
  never reads another family's output and never fails: "nothing due this
  year" is an empty slice, missing inputs are warnings.

    VAT family      chosen by Config.Regime through regimeFamilies
    Common families run for every regime: tax return, CFE, URSSAF stub

ADDING A REGIME:
  1. Add the Regime constant and list it in Regimes()
  2. Write its family function
  3. Register it in regimeFamilies
  init() panics if step 3 is forgotten, so a new regime cannot silently
  produce no VAT obligations.

CLOCK:
  The overdue pass is the only step that looks at the current date. It goes
  through the Generator's generic.Clock so tests can pin "today".

SEE ALSO:
  - tva.go, taxreturn.go, cfe.go: family functions
  - service.go: merges stored overrides on top of generated obligations
*/
package fiscal

import (
	"fmt"
	"sort"

	"github.com/warp/fiscal-engine/generic"
)

// Family generates one family of obligations for a calendar year.
type Family func(year int, cfg Config, warnings *Warnings) []Obligation

var regimeFamilies = map[Regime]Family{
	RegimeSimplifiedReal: SimplifiedRealTVA,
	RegimeNormalReal:     NormalRealTVA,
	RegimeBaseExemption:  ExemptTVA,
}

var commonFamilies = []Family{
	AnnualTaxReturn,
	LocalBusinessTax,
	SocialContributions,
}

func init() {
	for _, r := range Regimes() {
		if _, ok := regimeFamilies[r]; !ok {
			panic(fmt.Sprintf("fiscal: regime %q has no VAT family registered", r))
		}
	}
}

// =============================================================================
// GENERATOR
// =============================================================================

type Generator struct {
	clock generic.Clock
}

type Option func(*Generator)

// WithClock replaces the wall clock used by the overdue pass.
func WithClock(c generic.Clock) Option {
	return func(g *Generator) { g.clock = c }
}

func NewGenerator(opts ...Option) *Generator {
	g := &Generator{clock: generic.SystemClock{}}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns the obligations falling due in year, sorted by due date.
func (g *Generator) Generate(year int, cfg Config) Result {
	var warnings Warnings
	var obligations []Obligation

	if family, ok := regimeFamilies[cfg.Regime]; ok {
		obligations = append(obligations, family(year, cfg, &warnings)...)
	} else {
		warnings.Addf("Régime de TVA inconnu %q : aucune échéance de TVA générée pour %d.", cfg.Regime, year)
	}
	for _, family := range commonFamilies {
		obligations = append(obligations, family(year, cfg, &warnings)...)
	}

	sort.SliceStable(obligations, func(i, j int) bool {
		return obligations[i].DueDate.Before(obligations[j].DueDate)
	})
	markOverdue(obligations, g.clock.Today())

	if obligations == nil {
		obligations = []Obligation{}
	}
	return Result{
		Year:        year,
		Obligations: obligations,
		Config:      cfg.Clone(),
		Warnings:    warnings.List(),
	}
}

// MaxYearSpan is the largest number of years one range request may cover.
const MaxYearSpan = 50

// CheckYearRange rejects inverted ranges and ranges longer than MaxYearSpan.
func CheckYearRange(from, to int) error {
	if from > to {
		return &generic.YearRangeError{From: from, To: to}
	}
	// to-from wraps negative when the bounds are far apart.
	if span := to - from; span < 0 || span >= MaxYearSpan {
		return &generic.YearRangeError{From: from, To: to, MaxSpan: MaxYearSpan}
	}
	return nil
}

// GenerateRange runs Generate for every year in [from, to].
func (g *Generator) GenerateRange(from, to int, cfg Config) ([]Result, error) {
	if err := CheckYearRange(from, to); err != nil {
		return nil, err
	}
	results := make([]Result, 0, to-from+1)
	for year := from; year <= to; year++ {
		results = append(results, g.Generate(year, cfg))
	}
	return results, nil
}

// Today is the date the overdue pass compares against.
func (g *Generator) Today() generic.TimePoint { return g.clock.Today() }

// markOverdue flips pending obligations whose due date has passed.
// An obligation due today is still pending.
func markOverdue(obligations []Obligation, today generic.TimePoint) {
	for i := range obligations {
		if obligations[i].Status == StatusPending && obligations[i].DueDate.Before(today) {
			obligations[i].Status = StatusOverdue
		}
	}
}

// =============================================================================
// PACKAGE-LEVEL ENTRY POINTS (wall clock)
// =============================================================================

var defaultGenerator = NewGenerator()

func GenerateObligations(year int, cfg Config) Result {
	return defaultGenerator.Generate(year, cfg)
}

func GenerateMultiYearObligations(from, to int, cfg Config) ([]Result, error) {
	return defaultGenerator.GenerateRange(from, to, cfg)
}
