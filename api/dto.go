/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Obligations and
  calendar entries are serialized as the fiscal package defines them; the
  types here wrap them with the entity and the query that produced them.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Validation is done in handlers and in the fiscal service, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/config.go: ConfigJSON type
*/
package api

import (
	"github.com/shopspring/decimal"
	"github.com/warp/fiscal-engine/factory"
	"github.com/warp/fiscal-engine/fiscal"
	"github.com/warp/fiscal-engine/generic"
)

// =============================================================================
// ENTITIES & CONFIGURATION
// =============================================================================

// EntityDTO summarizes one configured entity.
type EntityDTO struct {
	ID           string `json:"id"`
	Regime       string `json:"tva_regime"`
	CreationDate string `json:"creation_date"`
}

// EntityConfigDTO is the configuration of one entity.
type EntityConfigDTO struct {
	EntityID string             `json:"entity_id"`
	Config   factory.ConfigJSON `json:"config"`
}

// SetAmountRequest sets a reference or estimated amount. A null amount
// clears the CFE estimate; it is rejected for a VAT reference.
type SetAmountRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

// =============================================================================
// OBLIGATIONS
// =============================================================================

// ObligationsResponse is the single-year envelope.
type ObligationsResponse struct {
	EntityID    string              `json:"entity_id"`
	Year        int                 `json:"year"`
	Today       generic.TimePoint   `json:"today"`
	Obligations []fiscal.Obligation `json:"obligations"`
	Config      factory.ConfigJSON  `json:"config"`
	Warnings    []string            `json:"warnings"`
}

// MultiYearResponse carries one envelope per year, in year order.
type MultiYearResponse struct {
	EntityID string               `json:"entity_id"`
	From     int                  `json:"from"`
	To       int                  `json:"to"`
	Today    generic.TimePoint    `json:"today"`
	Results  []factory.ResultJSON `json:"results"`
}

// UpdateObligationRequest is a partial update; omitted fields are untouched.
type UpdateObligationRequest struct {
	Status      *string          `json:"status,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	ClearAmount bool             `json:"clear_amount,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
}

// =============================================================================
// CALENDAR
// =============================================================================

// CalendarResponse lists the entries due within [Start, End].
type CalendarResponse struct {
	EntityID string                 `json:"entity_id"`
	Start    generic.TimePoint      `json:"start"`
	End      generic.TimePoint      `json:"end"`
	Entries  []fiscal.CalendarEntry `json:"entries"`
}

// BusinessDaysResponse lists the business days of one month.
type BusinessDaysResponse struct {
	Year  int                 `json:"year"`
	Month int                 `json:"month"`
	Count int                 `json:"count"`
	Days  []generic.TimePoint `json:"days"`
}

// =============================================================================
// REMINDERS
// =============================================================================

// ReminderDTO is one reminder recorded by a sweep.
type ReminderDTO struct {
	EntityID      string            `json:"entity_id"`
	ObligationKey string            `json:"obligation_key"`
	Label         string            `json:"label"`
	DueDate       generic.TimePoint `json:"due_date"`
	Amount        *generic.Amount   `json:"amount,omitempty"`
}

// ReminderRunDTO reports one sweep.
type ReminderRunDTO struct {
	Today           generic.TimePoint `json:"today"`
	EntitiesChecked int               `json:"entities_checked"`
	EntitiesFailed  int               `json:"entities_failed"`
	Reminded        []ReminderDTO     `json:"reminded"`
}

// =============================================================================
// SCENARIOS & ERRORS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Regime      string `json:"tva_regime"`
}

// LoadScenarioRequest is the request body for loading a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
