/*
handlers_test.go - HTTP tests for API handlers

Tests for:
- Configuration round trip and validation errors
- Single- and multi-year obligation listings
- Overrides via PATCH, calendar and business-day endpoints
- Error mapping (400 / 404)
*/
package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/fiscal-engine/fiscal"
	"github.com/warp/fiscal-engine/generic"
	"github.com/warp/fiscal-engine/store/sqlite"
)

const startupConfigJSON = `{
	"creation_date": "2026-03-01",
	"first_closing_date": "2026-12-31",
	"tva_regime": "simplified-real",
	"tva_by_fiscal_year": {"2026": "12000", "2027": "15000"},
	"cfe_estimated_amount": "800"
}`

func setupTestHandler(t *testing.T, today generic.TimePoint) (*Handler, http.Handler) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	gen := fiscal.NewGenerator(fiscal.WithClock(generic.FixedClock(today)))
	svc := fiscal.NewService(store, fiscal.WithGenerator(gen))
	h := NewHandler(store, svc, nil)
	return h, NewRouter(h, []string{"http://localhost:5173"})
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func putStartup(t *testing.T, router http.Handler) {
	t.Helper()
	rec := do(t, router, http.MethodPut, "/api/entities/acme/config", startupConfigJSON)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestConfig_PutAndGet(t *testing.T) {
	_, router := setupTestHandler(t, generic.NewTimePoint(2026, time.January, 1))
	putStartup(t, router)

	rec := do(t, router, http.MethodGet, "/api/entities/acme/config", "")
	require.Equal(t, http.StatusOK, rec.Code)

	dto := decode[EntityConfigDTO](t, rec)
	assert.Equal(t, "acme", dto.EntityID)
	assert.Equal(t, "2026-03-01", dto.Config.CreationDate)
	assert.Equal(t, 12, dto.Config.ClosingMonth)
	assert.Len(t, dto.Config.TVAByFiscalYear, 2)

	rec = do(t, router, http.MethodGet, "/api/entities", "")
	require.Equal(t, http.StatusOK, rec.Code)
	entities := decode[[]EntityDTO](t, rec)
	require.Len(t, entities, 1)
	assert.Equal(t, "simplified-real", entities[0].Regime)
}

func TestConfig_Errors(t *testing.T) {
	_, router := setupTestHandler(t, generic.NewTimePoint(2026, time.January, 1))

	rec := do(t, router, http.MethodGet, "/api/entities/ghost/config", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPut, "/api/entities/acme/config", `{"creation_date": "2026-03-01", "tva_regime": "micro"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Details, "tva_regime")

	rec = do(t, router, http.MethodPut, "/api/entities/acme/config", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestObligations_SingleYear(t *testing.T) {
	_, router := setupTestHandler(t, generic.NewTimePoint(2026, time.January, 1))
	putStartup(t, router)

	rec := do(t, router, http.MethodGet, "/api/entities/acme/obligations?year=2027", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[ObligationsResponse](t, rec)
	assert.Equal(t, 2027, resp.Year)
	assert.Empty(t, resp.Warnings)
	assert.Equal(t, "2026-12-31", resp.Config.FirstClosingDate)
	assert.True(t, resp.Config.TVAByFiscalYear[2026].Equal(decimal.NewFromInt(12000)))
	require.Len(t, resp.Obligations, 5)

	byKey := map[string]fiscal.Obligation{}
	for _, o := range resp.Obligations {
		byKey[o.Key] = o
	}
	july := byKey["TVA_ACOMPTE_JUILLET_2027"]
	require.NotNil(t, july.Amount)
	assert.Equal(t, "6600.00 EUR", july.Amount.String())
	assert.Equal(t, "2027-05-04", byKey["TVA_CA12_2027"].DueDate.String())
	assert.Equal(t, "2027-06-15", july.WarningDate.String())
}

func TestObligations_CreationYearIsEmptyArray(t *testing.T) {
	_, router := setupTestHandler(t, generic.NewTimePoint(2026, time.January, 1))
	putStartup(t, router)

	rec := do(t, router, http.MethodGet, "/api/entities/acme/obligations?year=2026", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"obligations":[]`)
	assert.Contains(t, rec.Body.String(), `"warnings":[]`)
}

func TestObligations_DefaultsToCurrentYear(t *testing.T) {
	_, router := setupTestHandler(t, generic.NewTimePoint(2028, time.February, 1))
	putStartup(t, router)

	rec := do(t, router, http.MethodGet, "/api/entities/acme/obligations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2028, decode[ObligationsResponse](t, rec).Year)
}

func TestObligations_Range(t *testing.T) {
	_, router := setupTestHandler(t, generic.NewTimePoint(2026, time.January, 1))
	putStartup(t, router)

	rec := do(t, router, http.MethodGet, "/api/entities/acme/obligations?from=2026&to=2028", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[MultiYearResponse](t, rec)
	require.Len(t, resp.Results, 3)
	assert.Len(t, resp.Results[0].Obligations, 0)
	assert.Len(t, resp.Results[1].Obligations, 5)
	assert.Len(t, resp.Results[2].Obligations, 5)

	rec = do(t, router, http.MethodGet, "/api/entities/acme/obligations?from=2028&to=2026", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Equal(t, "2026-03-01", resp.Results[1].Config.CreationDate)
	assert.Equal(t, "simplified-real", resp.Results[1].Config.Regime)

	rec = do(t, router, http.MethodGet, "/api/entities/acme/obligations?from=2026", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/entities/acme/obligations?year=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestObligations_RangeTooWide(t *testing.T) {
	_, router := setupTestHandler(t, generic.NewTimePoint(2026, time.January, 1))
	putStartup(t, router)

	for _, query := range []string{
		"from=2026&to=2076",
		"from=0&to=2000000000",
		"from=-4611686018427387904&to=4611686018427387904",
	} {
		rec := do(t, router, http.MethodGet, "/api/entities/acme/obligations?"+query, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
		assert.Contains(t, decode[ErrorResponse](t, rec).Details, "invalid year range", query)
	}

	// The limit itself is accepted
	rec := do(t, router, http.MethodGet, "/api/entities/acme/obligations?from=2026&to=2075", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[MultiYearResponse](t, rec).Results, 50)
}

func TestObligations_UnknownEntity(t *testing.T) {
	_, router := setupTestHandler(t, generic.NewTimePoint(2026, time.January, 1))

	rec := do(t, router, http.MethodGet, "/api/entities/ghost/obligations?year=2027", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateObligation(t *testing.T) {
	// GIVEN: June 2027, the May deadlines are overdue
	_, router := setupTestHandler(t, generic.NewTimePoint(2027, time.June, 1))
	putStartup(t, router)

	// WHEN: The CA12 is marked paid with its real amount
	rec := do(t, router, http.MethodPatch, "/api/entities/acme/obligations/TVA_CA12_2027",
		`{"status": "paid", "amount": "11840.50", "notes": "télédéclaré"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	o := decode[fiscal.Obligation](t, rec)
	assert.Equal(t, fiscal.StatusPaid, o.Status)
	assert.Equal(t, "11840.50 EUR", o.Amount.String())

	// THEN: Regeneration keeps the override, the liasse stays overdue
	rec = do(t, router, http.MethodGet, "/api/entities/acme/obligations?year=2027", "")
	resp := decode[ObligationsResponse](t, rec)
	statuses := map[string]fiscal.Status{}
	for _, o := range resp.Obligations {
		statuses[o.Key] = o.Status
	}
	assert.Equal(t, fiscal.StatusPaid, statuses["TVA_CA12_2027"])
	assert.Equal(t, fiscal.StatusOverdue, statuses["LIASSE_2027"])
	assert.Equal(t, fiscal.StatusPending, statuses["CFE_2027"])
}

func TestUpdateObligation_Errors(t *testing.T) {
	_, router := setupTestHandler(t, generic.NewTimePoint(2027, time.June, 1))
	putStartup(t, router)

	rec := do(t, router, http.MethodPatch, "/api/entities/acme/obligations/CFE_2027", `{"status": "cancelled"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPatch, "/api/entities/acme/obligations/CFE_2026", `{"status": "paid"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPatch, "/api/entities/acme/obligations/CFE_2027", `{"amount": "-3"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTVAReferenceAndCFEEstimate(t *testing.T) {
	_, router := setupTestHandler(t, generic.NewTimePoint(2026, time.January, 1))
	putStartup(t, router)

	rec := do(t, router, http.MethodPut, "/api/entities/acme/config/tva/2028", `{"amount": "20000"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, router, http.MethodPut, "/api/entities/acme/config/cfe", `{"amount": null}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/entities/acme/obligations?year=2029", "")
	resp := decode[ObligationsResponse](t, rec)
	for _, o := range resp.Obligations {
		switch o.Key {
		case "TVA_ACOMPTE_DECEMBRE_2029":
			assert.Equal(t, "8000.00 EUR", o.Amount.String())
		case "CFE_2029":
			assert.Nil(t, o.Amount)
		}
	}

	rec = do(t, router, http.MethodPut, "/api/entities/acme/config/tva/2028", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, router, http.MethodPut, "/api/entities/acme/config/tva/next", `{"amount": "1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, router, http.MethodPut, "/api/entities/acme/config/tva/2028", `{"amount": "-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCalendar(t *testing.T) {
	_, router := setupTestHandler(t, generic.NewTimePoint(2026, time.January, 1))
	putStartup(t, router)

	rec := do(t, router, http.MethodGet, "/api/entities/acme/calendar?year=2027&month=12", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[CalendarResponse](t, rec)
	assert.Equal(t, "2027-12-01", resp.Start.String())
	assert.Equal(t, "2027-12-31", resp.End.String())
	require.Len(t, resp.Entries, 2)
	assert.Equal(t, "TVA_ACOMPTE_DECEMBRE_2027", resp.Entries[0].Key)
	assert.Equal(t, "CFE_2027", resp.Entries[1].Key)

	rec = do(t, router, http.MethodGet, "/api/entities/acme/calendar?year=2027", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[CalendarResponse](t, rec).Entries, 5)

	rec = do(t, router, http.MethodGet, "/api/entities/acme/calendar?year=2027&month=13", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBusinessDays(t *testing.T) {
	_, router := setupTestHandler(t, generic.NewTimePoint(2026, time.January, 1))

	rec := do(t, router, http.MethodGet, "/api/business-days?year=2027&month=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[BusinessDaysResponse](t, rec)
	assert.Equal(t, 21, resp.Count)
	assert.Equal(t, "2027-05-03", resp.Days[0].String())
	assert.Equal(t, "2027-05-04", resp.Days[1].String())

	rec = do(t, router, http.MethodGet, "/api/business-days?year=2027", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportOverrides(t *testing.T) {
	_, router := setupTestHandler(t, generic.NewTimePoint(2027, time.June, 1))
	putStartup(t, router)

	do(t, router, http.MethodPatch, "/api/entities/acme/obligations/LIASSE_2027", `{"status": "paid"}`)

	rec := do(t, router, http.MethodGet, "/api/admin/overrides/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	records := decode[[]sqlite.OverrideRecord](t, rec)
	require.Len(t, records, 1)
	assert.Equal(t, "LIASSE_2027", records[0].ObligationKey)
}

func TestHealthz(t *testing.T) {
	_, router := setupTestHandler(t, generic.NewTimePoint(2026, time.January, 1))
	rec := do(t, router, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
