package fiscal_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/fiscal-engine/fiscal"
	"github.com/warp/fiscal-engine/generic"
)

var stamped = time.Date(2027, time.July, 10, 9, 30, 0, 0, time.UTC)

func TestOverride_PaidSetsPaidAt(t *testing.T) {
	o := fiscal.Override{Key: "CFE_2027"}.WithStatus(fiscal.StatusPaid, stamped)

	assert.Equal(t, fiscal.StatusPaid, o.Status)
	require.NotNil(t, o.PaidAt)
	assert.Equal(t, stamped, *o.PaidAt)
	assert.Equal(t, stamped, o.UpdatedAt)
}

func TestOverride_OtherStatusClearsPaidAt(t *testing.T) {
	for _, status := range []fiscal.Status{fiscal.StatusPending, fiscal.StatusOverdue} {
		t.Run(string(status), func(t *testing.T) {
			paid := fiscal.Override{Key: "CFE_2027"}.WithStatus(fiscal.StatusPaid, stamped)
			o := paid.WithStatus(status, stamped.Add(time.Hour))

			assert.Equal(t, status, o.Status)
			assert.Nil(t, o.PaidAt)
			assert.NotNil(t, paid.PaidAt, "receiver is not mutated")
		})
	}
}

func TestObligationUpdate_Apply(t *testing.T) {
	status := fiscal.StatusPaid
	amount := decimal.NewFromInt(812)
	notes := "virement du 10/07"

	o := fiscal.ObligationUpdate{Status: &status, Amount: &amount, Notes: &notes}.
		Apply(fiscal.Override{Key: "CFE_2027"}, stamped)

	assert.Equal(t, fiscal.StatusPaid, o.Status)
	require.NotNil(t, o.Amount)
	assert.True(t, o.Amount.Equal(amount))
	assert.Equal(t, notes, o.Notes)
	assert.NotNil(t, o.PaidAt)

	// Clearing the amount leaves status and notes alone
	o = fiscal.ObligationUpdate{ClearAmount: true}.Apply(o, stamped)
	assert.Nil(t, o.Amount)
	assert.Equal(t, fiscal.StatusPaid, o.Status)
	assert.Equal(t, notes, o.Notes)
}

func TestApplyOverrides(t *testing.T) {
	r := newTestGenerator().Generate(2027, startupConfig())
	amount := decimal.NewFromInt(950)
	overrides := map[string]fiscal.Override{
		"CFE_2027":    {Key: "CFE_2027", Amount: &amount},
		"LIASSE_2027": {Key: "LIASSE_2027", Status: fiscal.StatusPaid},
		"CFE_2099":    {Key: "CFE_2099", Status: fiscal.StatusPaid},
	}

	merged := fiscal.ApplyOverrides(r.Obligations, overrides)
	require.Len(t, merged, len(r.Obligations))

	byKey := map[string]fiscal.Obligation{}
	for _, o := range merged {
		byKey[o.Key] = o
	}

	cfe := byKey["CFE_2027"]
	require.NotNil(t, cfe.Amount)
	assert.Equal(t, "950.00 EUR", cfe.Amount.String())
	assert.Equal(t, fiscal.StatusPending, cfe.Status, "no status override keeps the generated one")

	assert.Equal(t, fiscal.StatusPaid, byKey["LIASSE_2027"].Status)

	// Source slice untouched
	original, _ := r.Find("CFE_2027")
	assert.Equal(t, "800.00 EUR", original.Amount.String())
	liasse, _ := r.Find("LIASSE_2027")
	assert.Equal(t, fiscal.StatusPending, liasse.Status)
}

func TestParseStatus(t *testing.T) {
	s, err := fiscal.ParseStatus("paid")
	require.NoError(t, err)
	assert.Equal(t, fiscal.StatusPaid, s)

	_, err = fiscal.ParseStatus("cancelled")
	assert.ErrorIs(t, err, generic.ErrInvalidStatus)
}

func TestKeyYear(t *testing.T) {
	tests := []struct {
		key  string
		year int
		ok   bool
	}{
		{"TVA_ACOMPTE_JUILLET_2027", 2027, true},
		{"CFE_2030", 2030, true},
		{"CFE", 0, false},
		{"CFE_", 0, false},
		{"CFE_abc", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			year, ok := fiscal.KeyYear(tt.key)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.year, year)
		})
	}
}

func TestCalendarFor(t *testing.T) {
	r := newTestGenerator().Generate(2027, startupConfig())

	may := generic.CalendarMonth(2027, time.May)
	entries := fiscal.CalendarFor(r.Obligations, may)

	require.Len(t, entries, 2)
	assert.Equal(t, "TVA_CA12_2027", entries[0].Key)
	assert.Equal(t, "LIASSE_2027", entries[1].Key)
	assert.Equal(t, date(2027, time.May, 4), entries[0].Date)

	june := generic.CalendarMonth(2027, time.June)
	assert.Empty(t, fiscal.CalendarFor(r.Obligations, june))
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, startupConfig().Validate())

	cfg := startupConfig()
	cfg.FirstClosingDate = date(2025, time.December, 31)
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, generic.ErrInvalidConfig)

	cfg = startupConfig()
	cfg.CreationDate = generic.TimePoint{}
	assert.Error(t, cfg.Validate())
}

func TestDefaultConfig(t *testing.T) {
	cfg := fiscal.DefaultConfig("", date(2026, time.March, 1))

	assert.Equal(t, fiscal.RegimeSimplifiedReal, cfg.Regime)
	assert.Equal(t, date(2026, time.December, 31), cfg.FirstClosingDate)
	assert.Equal(t, time.December, cfg.ClosingMonth)
	assert.Equal(t, 31, cfg.ClosingDay)
	assert.NotNil(t, cfg.TVAByFiscalYear)
	assert.NoError(t, cfg.Validate())
}
