/*
Package factory provides JSON to Go configuration conversion.

PURPOSE:
  Converts JSON entity configurations into fiscal.Config. Configurations
  come from the HTTP API, the CLI and demo scenario files, so the parsing
  rules (defaults, validation, date format) live in one place.

JSON SCHEMA:
  {
    "creation_date": "2026-03-01",
    "first_closing_date": "2026-12-31",
    "closing_month": 12,
    "closing_day": 31,
    "tva_regime": "simplified-real",
    "urssaf_enabled": false,
    "tva_by_fiscal_year": {"2026": "12000", "2027": "15000"},
    "cfe_estimated_amount": "800"
  }

DEFAULTS:
  Only creation_date is required. Missing fields take the values of
  fiscal.DefaultConfig: first closing on December 31st of the creation
  year, closing 12/31, simplified real regime, URSSAF off.

USAGE:
  cfg, err := factory.ParseConfig(data)
  if err != nil {
      return err // wraps generic.ErrInvalidConfig
  }
  result := generator.Generate(2027, cfg)

SEE ALSO:
  - fiscal/types.go: Config type definition
  - fiscal/defaults.go: DefaultConfig
*/
package factory

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/warp/fiscal-engine/fiscal"
	"github.com/warp/fiscal-engine/generic"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ConfigJSON is the JSON representation of an entity configuration.
type ConfigJSON struct {
	CreationDate       string                  `json:"creation_date"`
	FirstClosingDate   string                  `json:"first_closing_date,omitempty"`
	ClosingMonth       int                     `json:"closing_month,omitempty"` // 1-12
	ClosingDay         int                     `json:"closing_day,omitempty"`
	Regime             string                  `json:"tva_regime,omitempty"`
	URSSAFEnabled      bool                    `json:"urssaf_enabled,omitempty"`
	TVAByFiscalYear    map[int]decimal.Decimal `json:"tva_by_fiscal_year,omitempty"`
	CFEEstimatedAmount *decimal.Decimal        `json:"cfe_estimated_amount,omitempty"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseConfig decodes, defaults and validates a JSON configuration.
func ParseConfig(data []byte) (fiscal.Config, error) {
	var cj ConfigJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return fiscal.Config{}, &generic.ConfigError{Field: "body", Reason: err.Error()}
	}
	return cj.ToConfig()
}

// ToConfig applies defaults and validates.
func (cj ConfigJSON) ToConfig() (fiscal.Config, error) {
	if cj.CreationDate == "" {
		return fiscal.Config{}, &generic.ConfigError{Field: "creation_date", Reason: "required"}
	}
	creation, err := generic.ParseDate(cj.CreationDate)
	if err != nil {
		return fiscal.Config{}, &generic.ConfigError{Field: "creation_date", Reason: "expected YYYY-MM-DD"}
	}

	cfg := fiscal.DefaultConfig(fiscal.Regime(cj.Regime), creation)

	if cj.FirstClosingDate != "" {
		if cfg.FirstClosingDate, err = generic.ParseDate(cj.FirstClosingDate); err != nil {
			return fiscal.Config{}, &generic.ConfigError{Field: "first_closing_date", Reason: "expected YYYY-MM-DD"}
		}
	}
	if cj.ClosingMonth != 0 {
		cfg.ClosingMonth = time.Month(cj.ClosingMonth)
	}
	if cj.ClosingDay != 0 {
		cfg.ClosingDay = cj.ClosingDay
	}
	cfg.URSSAFEnabled = cj.URSSAFEnabled
	for year, amount := range cj.TVAByFiscalYear {
		cfg.TVAByFiscalYear[year] = amount
	}
	if cj.CFEEstimatedAmount != nil {
		v := *cj.CFEEstimatedAmount
		cfg.CFEEstimatedAmount = &v
	}

	if err := cfg.Validate(); err != nil {
		return fiscal.Config{}, err
	}
	return cfg, nil
}

// FromConfig is the inverse of ToConfig, used for API responses and exports.
func FromConfig(cfg fiscal.Config) ConfigJSON {
	cj := ConfigJSON{
		CreationDate:     cfg.CreationDate.String(),
		FirstClosingDate: cfg.FirstClosingDate.String(),
		ClosingMonth:     int(cfg.ClosingMonth),
		ClosingDay:       cfg.ClosingDay,
		Regime:           string(cfg.Regime),
		URSSAFEnabled:    cfg.URSSAFEnabled,
		TVAByFiscalYear:  make(map[int]decimal.Decimal, len(cfg.TVAByFiscalYear)),
	}
	for year, amount := range cfg.TVAByFiscalYear {
		cj.TVAByFiscalYear[year] = amount
	}
	if cfg.CFEEstimatedAmount != nil {
		v := *cfg.CFEEstimatedAmount
		cj.CFEEstimatedAmount = &v
	}
	return cj
}

// ResultJSON is the wire form of a fiscal.Result. Config echoes the
// configuration the year was generated from.
type ResultJSON struct {
	Year        int                 `json:"year"`
	Obligations []fiscal.Obligation `json:"obligations"`
	Config      ConfigJSON          `json:"config"`
	Warnings    []string            `json:"warnings"`
}

func FromResult(r fiscal.Result) ResultJSON {
	rj := ResultJSON{
		Year:        r.Year,
		Obligations: r.Obligations,
		Config:      FromConfig(r.Config),
		Warnings:    r.Warnings,
	}
	if rj.Obligations == nil {
		rj.Obligations = []fiscal.Obligation{}
	}
	if rj.Warnings == nil {
		rj.Warnings = []string{}
	}
	return rj
}

func FromResults(results []fiscal.Result) []ResultJSON {
	out := make([]ResultJSON, len(results))
	for i, r := range results {
		out[i] = FromResult(r)
	}
	return out
}

// MarshalConfig encodes cfg in the same schema ParseConfig reads.
func MarshalConfig(cfg fiscal.Config) ([]byte, error) {
	data, err := json.MarshalIndent(FromConfig(cfg), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode configuration: %w", err)
	}
	return data, nil
}
