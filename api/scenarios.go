/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built entities that populate the store with realistic
	fiscal configurations. Each scenario shows one behavior of the
	calendar generator.

AVAILABLE SCENARIOS:

	startup-2026:      Simplified real regime, created 2026-03-01, references known
	missing-reference: Simplified real regime, no net VAT recorded yet
	micro-exempt:      Franchise en base, no VAT deadlines at all
	normal-real:       Réel normal with URSSAF on, both reported as warnings
	long-first-year:   First fiscal year extended to 2027-12-31

HOW SCENARIOS WORK:
 1. Reset the store (clear all data)
 2. Parse the configuration JSON via factory
 3. Save it through the service (validation applies)
 4. Optionally record overrides (paid obligations)

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "startup-2026"}

	{"scenario_id": "all"} loads every scenario side by side.

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: LoadScenario, ListScenarios handlers
  - factory/config.go: Configuration JSON schema
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/warp/fiscal-engine/factory"
	"github.com/warp/fiscal-engine/fiscal"
	"github.com/warp/fiscal-engine/generic"
	"go.uber.org/zap"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// AllScenarios loads every scenario at once.
const AllScenarios = "all"

type scenario struct {
	ScenarioDTO
	configJSON string
	paid       []string // obligation keys recorded as paid
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "startup-2026",
			Name:        "Startup 2026",
			Description: "SAS created 2026-03-01, net VAT known for 2026 and 2027, CA12 2027 already filed",
			Regime:      string(fiscal.RegimeSimplifiedReal),
		},
		configJSON: `{
			"creation_date": "2026-03-01",
			"first_closing_date": "2026-12-31",
			"tva_regime": "simplified-real",
			"tva_by_fiscal_year": {"2026": "12000", "2027": "15000"},
			"cfe_estimated_amount": "800"
		}`,
		paid: []string{"TVA_CA12_2027"},
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "missing-reference",
			Name:        "Missing VAT Reference",
			Description: "Installments generated without amount and flagged until the net VAT is entered",
			Regime:      string(fiscal.RegimeSimplifiedReal),
		},
		configJSON: `{
			"creation_date": "2025-02-01",
			"tva_regime": "simplified-real"
		}`,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "micro-exempt",
			Name:        "Franchise en base",
			Description: "VAT-exempt micro company: only the tax return and the CFE",
			Regime:      string(fiscal.RegimeBaseExemption),
		},
		configJSON: `{
			"creation_date": "2025-06-01",
			"tva_regime": "base-exemption",
			"cfe_estimated_amount": "350"
		}`,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "normal-real",
			Name:        "Réel normal",
			Description: "Regime and URSSAF module not generated yet: both surface as warnings",
			Regime:      string(fiscal.RegimeNormalReal),
		},
		configJSON: `{
			"creation_date": "2024-01-15",
			"tva_regime": "normal-real",
			"urssaf_enabled": true,
			"cfe_estimated_amount": "1200"
		}`,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "long-first-year",
			Name:        "Long First Fiscal Year",
			Description: "Created 2026-09-01 with a first closing on 2027-12-31: installments start in 2028",
			Regime:      string(fiscal.RegimeSimplifiedReal),
		},
		configJSON: `{
			"creation_date": "2026-09-01",
			"first_closing_date": "2027-12-31",
			"tva_regime": "simplified-real",
			"tva_by_fiscal_year": {"2027": "9000"}
		}`,
	},
}

func findScenario(id string) (scenario, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return scenario{}, false
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	if s, ok := findScenario(current); ok {
		writeJSON(w, http.StatusOK, s.ScenarioDTO)
		return
	}
	if current == AllScenarios {
		writeJSON(w, http.StatusOK, ScenarioDTO{ID: AllScenarios, Name: "All scenarios"})
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the store and loads the requested scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.LoadScenarioByID(r.Context(), req.ScenarioID); err != nil {
		if _, ok := findScenario(req.ScenarioID); !ok && req.ScenarioID != AllScenarios {
			writeError(w, http.StatusNotFound, "Unknown scenario", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "loaded",
		"scenario": req.ScenarioID,
	})
}

// LoadScenarioByID resets the store and loads one scenario, or all of them.
func (h *Handler) LoadScenarioByID(ctx context.Context, id string) error {
	var selected []scenario
	if id == AllScenarios {
		selected = scenarios
	} else {
		s, ok := findScenario(id)
		if !ok {
			return fmt.Errorf("unknown scenario %q", id)
		}
		selected = []scenario{s}
	}

	if err := h.resetStore(ctx); err != nil {
		return err
	}
	for _, s := range selected {
		if err := h.loadScenario(ctx, s); err != nil {
			return fmt.Errorf("scenario %s: %w", s.ID, err)
		}
	}

	h.mu.Lock()
	h.currentScenario = id
	h.mu.Unlock()

	h.logger.Info("scenario loaded", zap.String("scenario", id), zap.Int("entities", len(selected)))
	return nil
}

func (h *Handler) loadScenario(ctx context.Context, s scenario) error {
	cfg, err := factory.ParseConfig([]byte(s.configJSON))
	if err != nil {
		return err
	}
	entityID := generic.EntityID(s.ID)
	if err := h.Service.SaveConfig(ctx, entityID, cfg); err != nil {
		return err
	}

	paid := fiscal.StatusPaid
	for _, key := range s.paid {
		if _, err := h.Service.UpdateObligation(ctx, entityID, key, fiscal.ObligationUpdate{Status: &paid}); err != nil {
			return err
		}
	}
	return nil
}

// ResetStore clears all data.
func (h *Handler) ResetStore(w http.ResponseWriter, r *http.Request) {
	if err := h.resetStore(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}
	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) resetStore(ctx context.Context) error {
	rs, ok := h.Store.(resetter)
	if !ok {
		return fmt.Errorf("store does not support reset")
	}
	return rs.Reset(ctx)
}
