/*
Package generic provides the domain-agnostic date and money engine.

PURPOSE:
  This package contains the calendar arithmetic and monetary types that
  fiscal obligation rules are written on top of. It knows what a business
  day is and how to round money; it knows nothing about VAT or tax returns.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A monetary quantity with a currency
  - EntityID: Type-safe identifier of the legal entity owning a calendar

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Two decimals: Computed amounts are rounded to cents, nothing finer
  3. Type Safety: Strong typing for IDs prevents mixing identifiers

USAGE:
  ref := generic.NewAmountFromInt(12000, generic.EUR)
  july := ref.Percent(generic.MustParseDecimal("0.55")) // 6600.00 EUR

SEE ALSO:
  - time.go: TimePoint and Clock
  - businessday.go: Business-day calculator
  - errors.go: Sentinel and structured errors
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Monetary quantity
// =============================================================================

type Amount struct {
	Value    decimal.Decimal `json:"value"`
	Currency Currency        `json:"currency"`
}

type Currency string

const EUR Currency = "EUR"

// CentsPrecision is the number of decimals kept on computed amounts.
const CentsPrecision = 2

func NewAmount(value decimal.Decimal, currency Currency) Amount {
	return Amount{Value: value, Currency: currency}
}

func NewAmountFromInt(value int64, currency Currency) Amount {
	return Amount{Value: decimal.NewFromInt(value), Currency: currency}
}

func NewAmountFromFloat(value float64, currency Currency) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Currency: currency}
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value), Currency: a.Currency} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value), Currency: a.Currency} }
func (a Amount) Mul(s decimal.Decimal) Amount { return Amount{Value: a.Value.Mul(s), Currency: a.Currency} }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsNegative() bool             { return a.Value.IsNegative() }
func (a Amount) Equal(b Amount) bool          { return a.Currency == b.Currency && a.Value.Equal(b.Value) }

// Round rounds half away from zero to cents.
func (a Amount) Round() Amount {
	return Amount{Value: a.Value.Round(CentsPrecision), Currency: a.Currency}
}

// Percent multiplies by rate and rounds to cents.
func (a Amount) Percent(rate decimal.Decimal) Amount {
	return a.Mul(rate).Round()
}

func (a Amount) String() string {
	return a.Value.StringFixed(CentsPrecision) + " " + string(a.Currency)
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EntityID string
