package fiscal

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/fiscal-engine/generic"
)

// DefaultConfig is the configuration an entity gets on first access: a
// first fiscal year closing on December 31st of the creation year, no
// URSSAF module and no reference figures yet.
func DefaultConfig(regime Regime, creationDate generic.TimePoint) Config {
	if regime == "" {
		regime = RegimeSimplifiedReal
	}
	return Config{
		CreationDate:     creationDate,
		FirstClosingDate: generic.EndOfYear(creationDate.Year()),
		ClosingMonth:     time.December,
		ClosingDay:       31,
		Regime:           regime,
		TVAByFiscalYear:  map[int]decimal.Decimal{},
	}
}
