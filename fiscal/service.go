package fiscal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/fiscal-engine/generic"
	"go.uber.org/zap"
)

// Service ties the pure generator to a Store: it loads configurations,
// merges stored overrides by key and validates user updates.
type Service struct {
	store     Store
	generator *Generator
	logger    *zap.Logger
	now       func() time.Time
}

type ServiceOption func(*Service)

func WithGenerator(g *Generator) ServiceOption {
	return func(s *Service) { s.generator = g }
}

func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// WithNow sets the timestamp source for PaidAt/UpdatedAt.
func WithNow(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{
		store:     store,
		generator: NewGenerator(),
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today is the generator clock's date.
func (s *Service) Today() generic.TimePoint { return s.generator.Today() }

// =============================================================================
// CONFIGURATION
// =============================================================================

func (s *Service) Entities(ctx context.Context) ([]generic.EntityID, error) {
	return s.store.ListEntities(ctx)
}

func (s *Service) Config(ctx context.Context, entityID generic.EntityID) (Config, error) {
	return s.store.GetConfig(ctx, entityID)
}

// EnsureConfig returns the stored configuration, creating the default one
// for regime and creationDate on first access.
func (s *Service) EnsureConfig(ctx context.Context, entityID generic.EntityID, regime Regime, creationDate generic.TimePoint) (Config, bool, error) {
	cfg, err := s.store.GetConfig(ctx, entityID)
	if err == nil {
		return cfg, false, nil
	}
	if !errors.Is(err, generic.ErrConfigNotFound) {
		return Config{}, false, err
	}

	cfg = DefaultConfig(regime, creationDate)
	if err := s.SaveConfig(ctx, entityID, cfg); err != nil {
		return Config{}, false, err
	}
	s.logger.Info("created default configuration",
		zap.String("entity_id", string(entityID)),
		zap.String("regime", string(cfg.Regime)),
		zap.Stringer("creation_date", cfg.CreationDate))
	return cfg, true, nil
}

func (s *Service) SaveConfig(ctx context.Context, entityID generic.EntityID, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := s.store.SaveConfig(ctx, entityID, cfg); err != nil {
		return fmt.Errorf("save configuration %s: %w", entityID, err)
	}
	return nil
}

// SetTVAReference records the net VAT of a closed fiscal year.
func (s *Service) SetTVAReference(ctx context.Context, entityID generic.EntityID, fiscalYear int, amount decimal.Decimal) (Config, error) {
	cfg, err := s.store.GetConfig(ctx, entityID)
	if err != nil {
		return Config{}, err
	}
	cfg = cfg.Clone()
	if cfg.TVAByFiscalYear == nil {
		cfg.TVAByFiscalYear = make(map[int]decimal.Decimal)
	}
	cfg.TVAByFiscalYear[fiscalYear] = amount
	if err := s.SaveConfig(ctx, entityID, cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// SetCFEEstimate records (or clears, with nil) the estimated CFE.
func (s *Service) SetCFEEstimate(ctx context.Context, entityID generic.EntityID, amount *decimal.Decimal) (Config, error) {
	cfg, err := s.store.GetConfig(ctx, entityID)
	if err != nil {
		return Config{}, err
	}
	cfg = cfg.Clone()
	cfg.CFEEstimatedAmount = amount
	if err := s.SaveConfig(ctx, entityID, cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// =============================================================================
// OBLIGATIONS
// =============================================================================

// Obligations generates year for the entity and lays its overrides on top.
func (s *Service) Obligations(ctx context.Context, entityID generic.EntityID, year int) (Result, error) {
	cfg, err := s.store.GetConfig(ctx, entityID)
	if err != nil {
		return Result{}, err
	}
	overrides, err := s.store.GetOverrides(ctx, entityID)
	if err != nil {
		return Result{}, fmt.Errorf("load overrides %s: %w", entityID, err)
	}
	return s.merge(entityID, s.generator.Generate(year, cfg), overrides), nil
}

// ObligationsRange is Obligations for every year of [from, to].
func (s *Service) ObligationsRange(ctx context.Context, entityID generic.EntityID, from, to int) ([]Result, error) {
	cfg, err := s.store.GetConfig(ctx, entityID)
	if err != nil {
		return nil, err
	}
	results, err := s.generator.GenerateRange(from, to, cfg)
	if err != nil {
		return nil, err
	}
	overrides, err := s.store.GetOverrides(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("load overrides %s: %w", entityID, err)
	}
	for i := range results {
		results[i] = s.merge(entityID, results[i], overrides)
	}
	return results, nil
}

func (s *Service) merge(entityID generic.EntityID, result Result, overrides map[string]Override) Result {
	result.Obligations = ApplyOverrides(result.Obligations, overrides)
	for _, w := range result.Warnings {
		s.logger.Warn("generation warning",
			zap.String("entity_id", string(entityID)),
			zap.Int("year", result.Year),
			zap.String("warning", w))
	}
	return result
}

// Calendar returns the merged entries due within period.
func (s *Service) Calendar(ctx context.Context, entityID generic.EntityID, period generic.Period) ([]CalendarEntry, error) {
	results, err := s.ObligationsRange(ctx, entityID, period.Start.Year(), period.End.Year())
	if err != nil {
		return nil, err
	}
	var all []Obligation
	for _, r := range results {
		all = append(all, r.Obligations...)
	}
	return CalendarFor(all, period), nil
}

// UpdateObligation stores a status/amount/notes override. The key must name
// an obligation the generator produces for the year in its suffix.
func (s *Service) UpdateObligation(ctx context.Context, entityID generic.EntityID, key string, update ObligationUpdate) (Obligation, error) {
	if update.Status != nil {
		if _, err := ParseStatus(string(*update.Status)); err != nil {
			return Obligation{}, err
		}
	}
	if update.Amount != nil && update.Amount.IsNegative() {
		return Obligation{}, &generic.ConfigError{Field: "amount", Reason: "negative"}
	}

	year, ok := KeyYear(key)
	if !ok {
		return Obligation{}, fmt.Errorf("%w: %q", generic.ErrObligationNotFound, key)
	}
	cfg, err := s.store.GetConfig(ctx, entityID)
	if err != nil {
		return Obligation{}, err
	}
	generated, found := s.generator.Generate(year, cfg).Find(key)
	if !found {
		return Obligation{}, fmt.Errorf("%w: %q", generic.ErrObligationNotFound, key)
	}

	current, _, err := s.store.GetOverride(ctx, entityID, key)
	if err != nil {
		return Obligation{}, err
	}
	// An override without a status keeps the generated one, so the overdue
	// pass still applies to it.
	current.Key = key
	next := update.Apply(current, s.now())
	if err := s.store.SaveOverride(ctx, entityID, next); err != nil {
		return Obligation{}, fmt.Errorf("save override %s/%s: %w", entityID, key, err)
	}

	s.logger.Info("obligation updated",
		zap.String("entity_id", string(entityID)),
		zap.String("obligation_key", key),
		zap.String("status", string(next.Status)),
		zap.Bool("paid", next.PaidAt != nil))
	return ApplyOverrides([]Obligation{generated}, map[string]Override{key: next})[0], nil
}

// =============================================================================
// REMINDERS
// =============================================================================

// DueSoon returns unpaid obligations whose warning window contains today:
// WarningDate <= today <= DueDate.
func (s *Service) DueSoon(ctx context.Context, entityID generic.EntityID) ([]Obligation, error) {
	today := s.Today()
	// A warning window can straddle January 1st.
	results, err := s.ObligationsRange(ctx, entityID, today.Year(), today.Year()+1)
	if err != nil {
		return nil, err
	}
	var due []Obligation
	for _, r := range results {
		for _, o := range r.Obligations {
			if o.Status == StatusPaid {
				continue
			}
			if o.WarningDate.BeforeOrEqual(today) && today.BeforeOrEqual(o.DueDate) {
				due = append(due, o)
			}
		}
	}
	return due, nil
}

// MarkReminded records a reminder once per (entity, key).
func (s *Service) MarkReminded(ctx context.Context, entityID generic.EntityID, key string) (bool, error) {
	return s.store.MarkReminded(ctx, entityID, key, s.now())
}
