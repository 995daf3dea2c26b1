package fiscal_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/fiscal-engine/fiscal"
	"github.com/warp/fiscal-engine/generic"
	"github.com/warp/fiscal-engine/store/memory"
)

const startup = generic.EntityID("startup-2026")

type serviceFixture struct {
	svc   *fiscal.Service
	store *memory.Memory
}

func newServiceFixture(t *testing.T, today generic.TimePoint) serviceFixture {
	t.Helper()
	store := memory.New()
	svc := fiscal.NewService(store,
		fiscal.WithGenerator(fiscal.NewGenerator(fiscal.WithClock(generic.FixedClock(today)))),
		fiscal.WithNow(func() time.Time { return stamped }),
	)
	require.NoError(t, svc.SaveConfig(context.Background(), startup, startupConfig()))
	return serviceFixture{svc: svc, store: store}
}

func TestService_UnknownEntity(t *testing.T) {
	f := newServiceFixture(t, date(2026, time.January, 1))

	_, err := f.svc.Obligations(context.Background(), "nobody", 2027)
	assert.ErrorIs(t, err, generic.ErrConfigNotFound)
	assert.True(t, generic.IsNotFound(err))
}

func TestService_SaveConfigValidates(t *testing.T) {
	f := newServiceFixture(t, date(2026, time.January, 1))

	cfg := startupConfig()
	cfg.ClosingDay = 0
	err := f.svc.SaveConfig(context.Background(), "bad", cfg)
	assert.ErrorIs(t, err, generic.ErrInvalidConfig)

	_, err = f.store.GetConfig(context.Background(), "bad")
	assert.ErrorIs(t, err, generic.ErrConfigNotFound)
}

func TestService_EnsureConfig(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, date(2026, time.January, 1))

	cfg, created, err := f.svc.EnsureConfig(ctx, "new-co", fiscal.RegimeBaseExemption, date(2026, time.June, 1))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, fiscal.RegimeBaseExemption, cfg.Regime)

	again, created, err := f.svc.EnsureConfig(ctx, "new-co", fiscal.RegimeSimplifiedReal, date(2020, time.January, 1))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, fiscal.RegimeBaseExemption, again.Regime)

	entities, err := f.svc.Entities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []generic.EntityID{"new-co", startup}, entities)
}

func TestService_SetTVAReference(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, date(2026, time.January, 1))

	_, err := f.svc.SetTVAReference(ctx, startup, 2028, decimal.NewFromInt(20000))
	require.NoError(t, err)

	r, err := f.svc.Obligations(ctx, startup, 2029)
	require.NoError(t, err)
	july, ok := r.Find("TVA_ACOMPTE_JUILLET_2029")
	require.True(t, ok)
	assert.Equal(t, "11000.00 EUR", july.Amount.String())
}

func TestService_SetCFEEstimate(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, date(2026, time.January, 1))

	_, err := f.svc.SetCFEEstimate(ctx, startup, nil)
	require.NoError(t, err)

	r, err := f.svc.Obligations(ctx, startup, 2027)
	require.NoError(t, err)
	cfe, _ := r.Find("CFE_2027")
	assert.Nil(t, cfe.Amount)

	negative := decimal.NewFromInt(-1)
	_, err = f.svc.SetCFEEstimate(ctx, startup, &negative)
	assert.ErrorIs(t, err, generic.ErrInvalidConfig)
}

func TestService_UpdateObligation_PaidSurvivesRegeneration(t *testing.T) {
	ctx := context.Background()
	// After the CA12 deadline: it would otherwise be overdue
	f := newServiceFixture(t, date(2027, time.June, 1))

	paid := fiscal.StatusPaid
	o, err := f.svc.UpdateObligation(ctx, startup, "TVA_CA12_2027", fiscal.ObligationUpdate{Status: &paid})
	require.NoError(t, err)
	assert.Equal(t, fiscal.StatusPaid, o.Status)

	r, err := f.svc.Obligations(ctx, startup, 2027)
	require.NoError(t, err)
	ca12, _ := r.Find("TVA_CA12_2027")
	assert.Equal(t, fiscal.StatusPaid, ca12.Status)
	liasse, _ := r.Find("LIASSE_2027")
	assert.Equal(t, fiscal.StatusOverdue, liasse.Status)

	stored, found, err := f.store.GetOverride(ctx, startup, "TVA_CA12_2027")
	require.NoError(t, err)
	require.True(t, found)
	require.NotNil(t, stored.PaidAt)
	assert.Equal(t, stamped, *stored.PaidAt)
}

func TestService_UpdateObligation_AmountOnlyKeepsOverduePass(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, date(2027, time.June, 1))

	amount := decimal.NewFromInt(3100)
	o, err := f.svc.UpdateObligation(ctx, startup, "LIASSE_2027", fiscal.ObligationUpdate{Amount: &amount})
	require.NoError(t, err)

	assert.Equal(t, fiscal.StatusOverdue, o.Status)
	assert.Equal(t, "3100.00 EUR", o.Amount.String())
}

func TestService_UpdateObligation_Rejects(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, date(2026, time.January, 1))

	bogus := fiscal.Status("cancelled")
	_, err := f.svc.UpdateObligation(ctx, startup, "CFE_2027", fiscal.ObligationUpdate{Status: &bogus})
	assert.ErrorIs(t, err, generic.ErrInvalidStatus)
	assert.True(t, generic.IsClientError(err))

	negative := decimal.NewFromInt(-5)
	_, err = f.svc.UpdateObligation(ctx, startup, "CFE_2027", fiscal.ObligationUpdate{Amount: &negative})
	assert.ErrorIs(t, err, generic.ErrInvalidConfig)

	// The creation year has no CFE
	_, err = f.svc.UpdateObligation(ctx, startup, "CFE_2026", fiscal.ObligationUpdate{})
	assert.ErrorIs(t, err, generic.ErrObligationNotFound)

	_, err = f.svc.UpdateObligation(ctx, startup, "garbage", fiscal.ObligationUpdate{})
	assert.ErrorIs(t, err, generic.ErrObligationNotFound)
}

func TestService_ObligationsRange(t *testing.T) {
	f := newServiceFixture(t, date(2026, time.January, 1))

	results, err := f.svc.ObligationsRange(context.Background(), startup, 2026, 2028)
	require.NoError(t, err)
	require.Len(t, results, 3)

	_, err = f.svc.ObligationsRange(context.Background(), startup, 2028, 2026)
	assert.ErrorIs(t, err, generic.ErrInvalidYearRange)
}

func TestService_Calendar(t *testing.T) {
	f := newServiceFixture(t, date(2026, time.January, 1))

	// Spans two calendar years
	period, err := generic.NewPeriod(date(2027, time.December, 1), date(2028, time.May, 31))
	require.NoError(t, err)

	entries, err := f.svc.Calendar(context.Background(), startup, period)
	require.NoError(t, err)

	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	assert.Equal(t, []string{"TVA_ACOMPTE_DECEMBRE_2027", "CFE_2027", "TVA_CA12_2028", "LIASSE_2028"}, keys)
}

func TestService_DueSoon(t *testing.T) {
	ctx := context.Background()
	// 2027-06-20: inside the July installment window (warning 2027-06-15)
	f := newServiceFixture(t, date(2027, time.June, 20))

	due, err := f.svc.DueSoon(ctx, startup)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "TVA_ACOMPTE_JUILLET_2027", due[0].Key)

	paid := fiscal.StatusPaid
	_, err = f.svc.UpdateObligation(ctx, startup, "TVA_ACOMPTE_JUILLET_2027", fiscal.ObligationUpdate{Status: &paid})
	require.NoError(t, err)

	due, err = f.svc.DueSoon(ctx, startup)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestService_MarkReminded_Once(t *testing.T) {
	f := newServiceFixture(t, date(2027, time.June, 20))

	first, err := f.svc.MarkReminded(context.Background(), startup, "TVA_ACOMPTE_JUILLET_2027")
	require.NoError(t, err)
	assert.True(t, first)

	second, err := f.svc.MarkReminded(context.Background(), startup, "TVA_ACOMPTE_JUILLET_2027")
	require.NoError(t, err)
	assert.False(t, second)
}
