/*
handlers.go - HTTP API handlers for the fiscal calendar

PURPOSE:
  Exposes the obligation generator via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to fiscal.Service.

ENDPOINTS:
  Entities:
    GET    /api/entities                              List configured entities
    GET    /api/entities/{id}/config                  Get configuration
    PUT    /api/entities/{id}/config                  Create/replace configuration
    PUT    /api/entities/{id}/config/tva/{fiscalYear} Record net VAT of a fiscal year
    PUT    /api/entities/{id}/config/cfe              Record (or clear) the CFE estimate

  Obligations:
    GET    /api/entities/{id}/obligations?year=Y      One calendar year
    GET    /api/entities/{id}/obligations?from=A&to=B Several calendar years
    PATCH  /api/entities/{id}/obligations/{key}       Status/amount/notes override
    GET    /api/entities/{id}/calendar?year=Y&month=M Calendar entries

  Calendar:
    GET    /api/business-days?year=Y&month=M          Business days of a month

  Admin:
    POST   /api/admin/reminders/run                   Run the reminder sweep now
    GET    /api/admin/overrides/export                Dump stored overrides

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Service: generation, override merge, validation
  - Store: the same store the service uses, for reset/export
  - Reminders: the scheduler, also triggered by hand

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input (generic.IsClientError)
  - 404: Unknown entity or obligation key (generic.IsNotFound)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/warp/fiscal-engine/factory"
	"github.com/warp/fiscal-engine/fiscal"
	"github.com/warp/fiscal-engine/generic"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies; configurations are a few hundred bytes.
const maxBodyBytes = 1 << 20

// resetter is implemented by stores that can be wiped (demo scenarios).
type resetter interface {
	Reset(ctx context.Context) error
}

// overrideExporter is implemented by stores that can dump their overrides.
type overrideExporter interface {
	ExportOverrides(ctx context.Context) ([]byte, error)
}

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service   *fiscal.Service
	Store     fiscal.Store
	Reminders *ReminderScheduler

	logger *zap.Logger

	// Track currently loaded scenario
	mu              sync.RWMutex
	currentScenario string
}

// NewHandler creates a new handler. The service must be built on store.
func NewHandler(store fiscal.Store, service *fiscal.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Service:   service,
		Store:     store,
		Reminders: NewReminderScheduler(service, logger),
		logger:    logger,
	}
}

// =============================================================================
// ENTITY & CONFIGURATION HANDLERS
// =============================================================================

// ListEntities returns all configured entities.
// GET /api/entities
func (h *Handler) ListEntities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ids, err := h.Service.Entities(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list entities", err)
		return
	}

	dtos := make([]EntityDTO, 0, len(ids))
	for _, id := range ids {
		cfg, err := h.Service.Config(ctx, id)
		if err != nil {
			writeDomainError(w, "Failed to load configuration", err)
			return
		}
		dtos = append(dtos, EntityDTO{
			ID:           string(id),
			Regime:       string(cfg.Regime),
			CreationDate: cfg.CreationDate.String(),
		})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetConfig returns the configuration of one entity.
// GET /api/entities/{id}/config
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	entityID := entityParam(r)
	cfg, err := h.Service.Config(r.Context(), entityID)
	if err != nil {
		writeDomainError(w, "Failed to load configuration", err)
		return
	}
	writeJSON(w, http.StatusOK, EntityConfigDTO{EntityID: string(entityID), Config: factory.FromConfig(cfg)})
}

// PutConfig creates or replaces the configuration of one entity.
// PUT /api/entities/{id}/config
func (h *Handler) PutConfig(w http.ResponseWriter, r *http.Request) {
	entityID := entityParam(r)
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	cfg, err := factory.ParseConfig(body)
	if err != nil {
		writeDomainError(w, "Invalid configuration", err)
		return
	}
	if err := h.Service.SaveConfig(r.Context(), entityID, cfg); err != nil {
		writeDomainError(w, "Failed to save configuration", err)
		return
	}

	h.logger.Info("configuration saved",
		zap.String("entity_id", string(entityID)),
		zap.String("regime", string(cfg.Regime)))
	writeJSON(w, http.StatusOK, EntityConfigDTO{EntityID: string(entityID), Config: factory.FromConfig(cfg)})
}

// PutTVAReference records the net VAT of a closed fiscal year.
// PUT /api/entities/{id}/config/tva/{fiscalYear}
func (h *Handler) PutTVAReference(w http.ResponseWriter, r *http.Request) {
	entityID := entityParam(r)
	fiscalYear, err := strconv.Atoi(chi.URLParam(r, "fiscalYear"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid fiscal year", err)
		return
	}

	var req SetAmountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Amount == nil {
		writeError(w, http.StatusBadRequest, "amount is required", nil)
		return
	}

	cfg, err := h.Service.SetTVAReference(r.Context(), entityID, fiscalYear, *req.Amount)
	if err != nil {
		writeDomainError(w, "Failed to record VAT reference", err)
		return
	}
	writeJSON(w, http.StatusOK, EntityConfigDTO{EntityID: string(entityID), Config: factory.FromConfig(cfg)})
}

// PutCFEEstimate records the estimated CFE; a null amount clears it.
// PUT /api/entities/{id}/config/cfe
func (h *Handler) PutCFEEstimate(w http.ResponseWriter, r *http.Request) {
	entityID := entityParam(r)
	var req SetAmountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cfg, err := h.Service.SetCFEEstimate(r.Context(), entityID, req.Amount)
	if err != nil {
		writeDomainError(w, "Failed to record CFE estimate", err)
		return
	}
	writeJSON(w, http.StatusOK, EntityConfigDTO{EntityID: string(entityID), Config: factory.FromConfig(cfg)})
}

// =============================================================================
// OBLIGATION HANDLERS
// =============================================================================

// GetObligations returns one year (?year=) or a range (?from=&to=).
// Without parameters the current year is returned.
// GET /api/entities/{id}/obligations
func (h *Handler) GetObligations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entityID := entityParam(r)
	today := h.Service.Today()

	from, hasFrom, err := queryInt(r, "from")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from", err)
		return
	}
	to, hasTo, err := queryInt(r, "to")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to", err)
		return
	}

	if hasFrom || hasTo {
		if !hasFrom || !hasTo {
			writeError(w, http.StatusBadRequest, "from and to must be given together", nil)
			return
		}
		if err := fiscal.CheckYearRange(from, to); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid year range", err)
			return
		}
		results, err := h.Service.ObligationsRange(ctx, entityID, from, to)
		if err != nil {
			writeDomainError(w, "Failed to generate obligations", err)
			return
		}
		writeJSON(w, http.StatusOK, MultiYearResponse{
			EntityID: string(entityID),
			From:     from,
			To:       to,
			Today:    today,
			Results:  factory.FromResults(results),
		})
		return
	}

	year, hasYear, err := queryInt(r, "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	if !hasYear {
		year = today.Year()
	}

	result, err := h.Service.Obligations(ctx, entityID, year)
	if err != nil {
		writeDomainError(w, "Failed to generate obligations", err)
		return
	}
	writeJSON(w, http.StatusOK, ObligationsResponse{
		EntityID:    string(entityID),
		Year:        result.Year,
		Today:       today,
		Obligations: result.Obligations,
		Config:      factory.FromConfig(result.Config),
		Warnings:    result.Warnings,
	})
}

// UpdateObligation records a user override on one obligation.
// PATCH /api/entities/{id}/obligations/{key}
func (h *Handler) UpdateObligation(w http.ResponseWriter, r *http.Request) {
	entityID := entityParam(r)
	key := chi.URLParam(r, "key")

	var req UpdateObligationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	update := fiscal.ObligationUpdate{
		Amount:      req.Amount,
		ClearAmount: req.ClearAmount,
		Notes:       req.Notes,
	}
	if req.Status != nil {
		status, err := fiscal.ParseStatus(*req.Status)
		if err != nil {
			writeDomainError(w, "Invalid status", err)
			return
		}
		update.Status = &status
	}

	o, err := h.Service.UpdateObligation(r.Context(), entityID, key, update)
	if err != nil {
		writeDomainError(w, "Failed to update obligation", err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

// GetCalendar returns the entries due in a year, or in one month of it.
// GET /api/entities/{id}/calendar?year=Y[&month=M]
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	entityID := entityParam(r)

	year, hasYear, err := queryInt(r, "year")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid year", err)
		return
	}
	if !hasYear {
		year = h.Service.Today().Year()
	}
	month, hasMonth, err := queryInt(r, "month")
	if err != nil || (hasMonth && (month < 1 || month > 12)) {
		writeError(w, http.StatusBadRequest, "Invalid month", err)
		return
	}

	period := generic.CalendarYear(year)
	if hasMonth {
		period = generic.CalendarMonth(year, time.Month(month))
	}

	entries, err := h.Service.Calendar(r.Context(), entityID, period)
	if err != nil {
		writeDomainError(w, "Failed to build calendar", err)
		return
	}
	writeJSON(w, http.StatusOK, CalendarResponse{
		EntityID: string(entityID),
		Start:    period.Start,
		End:      period.End,
		Entries:  entries,
	})
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// GetBusinessDays lists the business days of one month.
// GET /api/business-days?year=Y&month=M
func (h *Handler) GetBusinessDays(w http.ResponseWriter, r *http.Request) {
	year, hasYear, err := queryInt(r, "year")
	if err != nil || !hasYear {
		writeError(w, http.StatusBadRequest, "year is required", err)
		return
	}
	month, hasMonth, err := queryInt(r, "month")
	if err != nil || !hasMonth || month < 1 || month > 12 {
		writeError(w, http.StatusBadRequest, "month must be 1-12", err)
		return
	}

	days := generic.BusinessDaysIn(generic.CalendarMonth(year, time.Month(month)))
	writeJSON(w, http.StatusOK, BusinessDaysResponse{
		Year:  year,
		Month: month,
		Count: len(days),
		Days:  days,
	})
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// RunReminders runs one reminder sweep synchronously.
// POST /api/admin/reminders/run
func (h *Handler) RunReminders(w http.ResponseWriter, r *http.Request) {
	report, err := h.Reminders.RunOnce(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Reminder sweep failed", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// ExportOverrides dumps every stored override.
// GET /api/admin/overrides/export
func (h *Handler) ExportOverrides(w http.ResponseWriter, r *http.Request) {
	exporter, ok := h.Store.(overrideExporter)
	if !ok {
		writeError(w, http.StatusNotImplemented, "Store does not support export", nil)
		return
	}
	data, err := exporter.ExportOverrides(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to export overrides", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// =============================================================================
// HELPERS
// =============================================================================

func entityParam(r *http.Request) generic.EntityID {
	return generic.EntityID(chi.URLParam(r, "id"))
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, name string) (int, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, true, fmt.Errorf("%s: %q is not an integer", name, raw)
	}
	return v, true, nil
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError picks the status from the error's category.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
