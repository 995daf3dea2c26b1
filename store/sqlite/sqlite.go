/*
Package sqlite provides a SQLite-backed implementation of fiscal.Store.

PURPOSE:
  Persists what the generator cannot recompute: each entity's fiscal
  configuration, the user overrides on generated obligations and the log of
  reminders already sent. Obligations themselves are never stored; they are
  regenerated on every read and overrides are merged by obligation key.

INTERFACES IMPLEMENTED:
  fiscal.ConfigStore:   Entity configurations and reference amounts
  fiscal.OverrideStore: Status/amount/notes keyed by obligation key
  fiscal.ReminderStore: One reminder per (entity, obligation key)

KEY TABLES:
  entity_configs:        One row per entity
  tva_reference_amounts: Net VAT per closed fiscal year (child of entity_configs)
  obligation_overrides:  User changes, primary key (entity_id, obligation_key)
  reminders:             Sent reminders, primary key (entity_id, obligation_key)

AMOUNTS:
  Decimal amounts are stored as TEXT and parsed back with shopspring/decimal
  so no float rounding ever reaches a euro figure.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Multiple readers don't block
  - Single writer at a time

USAGE:
  store, err := sqlite.New("./data/fiscal.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := fiscal.NewService(store)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - fiscal/store.go: Interface definitions
  - store/memory/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/fiscal-engine/fiscal"
	"github.com/warp/fiscal-engine/generic"
)

const timestampLayout = time.RFC3339Nano

// Store implements fiscal.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Compile-time check
var _ fiscal.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every pooled connection to ":memory:" would get its own empty database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Entity configurations
	CREATE TABLE IF NOT EXISTS entity_configs (
		entity_id TEXT PRIMARY KEY,
		creation_date TEXT NOT NULL,
		first_closing_date TEXT NOT NULL,
		closing_month INTEGER NOT NULL,
		closing_day INTEGER NOT NULL,
		tva_regime TEXT NOT NULL,
		urssaf_enabled BOOLEAN NOT NULL DEFAULT FALSE,
		cfe_estimated_amount TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Net VAT of each closed fiscal year, the basis of the next installments
	CREATE TABLE IF NOT EXISTS tva_reference_amounts (
		entity_id TEXT NOT NULL REFERENCES entity_configs(entity_id) ON DELETE CASCADE,
		fiscal_year INTEGER NOT NULL,
		net_amount TEXT NOT NULL,
		PRIMARY KEY (entity_id, fiscal_year)
	);

	-- User overrides, keyed by the stable obligation key
	CREATE TABLE IF NOT EXISTS obligation_overrides (
		entity_id TEXT NOT NULL,
		obligation_key TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT '',
		amount TEXT,
		notes TEXT NOT NULL DEFAULT '',
		paid_at TEXT,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (entity_id, obligation_key)
	);

	-- Reminders already sent
	CREATE TABLE IF NOT EXISTS reminders (
		entity_id TEXT NOT NULL,
		obligation_key TEXT NOT NULL,
		reminded_at TEXT NOT NULL,
		PRIMARY KEY (entity_id, obligation_key)
	);

	CREATE INDEX IF NOT EXISTS idx_overrides_status
		ON obligation_overrides(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CONFIG STORE (fiscal.ConfigStore interface)
// =============================================================================

// GetConfig loads the configuration and its reference amounts.
func (s *Store) GetConfig(ctx context.Context, entityID generic.EntityID) (fiscal.Config, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT creation_date, first_closing_date, closing_month, closing_day,
		       tva_regime, urssaf_enabled, cfe_estimated_amount
		FROM entity_configs
		WHERE entity_id = ?
	`

	var (
		creation, firstClosing string
		closingMonth           int
		cfg                    fiscal.Config
		regime                 string
		cfe                    sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, entityID).Scan(
		&creation, &firstClosing, &closingMonth, &cfg.ClosingDay,
		&regime, &cfg.URSSAFEnabled, &cfe,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fiscal.Config{}, generic.ErrConfigNotFound
	}
	if err != nil {
		return fiscal.Config{}, fmt.Errorf("failed to load configuration: %w", err)
	}

	if cfg.CreationDate, err = generic.ParseDate(creation); err != nil {
		return fiscal.Config{}, fmt.Errorf("corrupt creation_date for %s: %w", entityID, err)
	}
	if cfg.FirstClosingDate, err = generic.ParseDate(firstClosing); err != nil {
		return fiscal.Config{}, fmt.Errorf("corrupt first_closing_date for %s: %w", entityID, err)
	}
	cfg.ClosingMonth = time.Month(closingMonth)
	cfg.Regime = fiscal.Regime(regime)
	if cfe.Valid {
		v, err := decimal.NewFromString(cfe.String)
		if err != nil {
			return fiscal.Config{}, fmt.Errorf("corrupt cfe_estimated_amount for %s: %w", entityID, err)
		}
		cfg.CFEEstimatedAmount = &v
	}

	if cfg.TVAByFiscalYear, err = s.loadReferenceAmounts(ctx, entityID); err != nil {
		return fiscal.Config{}, err
	}
	return cfg, nil
}

func (s *Store) loadReferenceAmounts(ctx context.Context, entityID generic.EntityID) (map[int]decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT fiscal_year, net_amount FROM tva_reference_amounts WHERE entity_id = ?`, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reference amounts: %w", err)
	}
	defer rows.Close()

	amounts := make(map[int]decimal.Decimal)
	for rows.Next() {
		var (
			year  int
			value string
		)
		if err := rows.Scan(&year, &value); err != nil {
			return nil, err
		}
		amount, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("corrupt net_amount for %s/%d: %w", entityID, year, err)
		}
		amounts[year] = amount
	}
	return amounts, rows.Err()
}

// SaveConfig upserts the configuration and replaces its reference amounts
// in one transaction.
func (s *Store) SaveConfig(ctx context.Context, entityID generic.EntityID, cfg fiscal.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(timestampLayout)
	var cfe sql.NullString
	if cfg.CFEEstimatedAmount != nil {
		cfe = sql.NullString{String: cfg.CFEEstimatedAmount.String(), Valid: true}
	}

	query := `
		INSERT INTO entity_configs
		(entity_id, creation_date, first_closing_date, closing_month, closing_day,
		 tva_regime, urssaf_enabled, cfe_estimated_amount, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(entity_id) DO UPDATE SET
			creation_date = excluded.creation_date,
			first_closing_date = excluded.first_closing_date,
			closing_month = excluded.closing_month,
			closing_day = excluded.closing_day,
			tva_regime = excluded.tva_regime,
			urssaf_enabled = excluded.urssaf_enabled,
			cfe_estimated_amount = excluded.cfe_estimated_amount,
			updated_at = excluded.updated_at
	`
	_, err = tx.ExecContext(ctx, query,
		entityID,
		cfg.CreationDate.String(),
		cfg.FirstClosingDate.String(),
		int(cfg.ClosingMonth),
		cfg.ClosingDay,
		string(cfg.Regime),
		cfg.URSSAFEnabled,
		cfe,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM tva_reference_amounts WHERE entity_id = ?`, entityID); err != nil {
		return fmt.Errorf("failed to clear reference amounts: %w", err)
	}
	for year, amount := range cfg.TVAByFiscalYear {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO tva_reference_amounts (entity_id, fiscal_year, net_amount) VALUES (?, ?, ?)`,
			entityID, year, amount.String())
		if err != nil {
			return fmt.Errorf("failed to save reference amount %d: %w", year, err)
		}
	}

	return tx.Commit()
}

// ListEntities returns every configured entity, sorted.
func (s *Store) ListEntities(ctx context.Context) ([]generic.EntityID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT entity_id FROM entity_configs ORDER BY entity_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list entities: %w", err)
	}
	defer rows.Close()

	ids := []generic.EntityID{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, generic.EntityID(id))
	}
	return ids, rows.Err()
}

// =============================================================================
// OVERRIDE STORE (fiscal.OverrideStore interface)
// =============================================================================

const overrideColumns = `obligation_key, status, amount, notes, paid_at, updated_at`

// GetOverrides returns every override of the entity keyed by obligation key.
func (s *Store) GetOverrides(ctx context.Context, entityID generic.EntityID) (map[string]fiscal.Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+overrideColumns+` FROM obligation_overrides WHERE entity_id = ?`, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to load overrides: %w", err)
	}
	defer rows.Close()

	overrides := make(map[string]fiscal.Override)
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		overrides[o.Key] = o
	}
	return overrides, rows.Err()
}

// GetOverride returns the override for one obligation key, if any.
func (s *Store) GetOverride(ctx context.Context, entityID generic.EntityID, key string) (fiscal.Override, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT `+overrideColumns+` FROM obligation_overrides WHERE entity_id = ? AND obligation_key = ?`,
		entityID, key)
	o, err := scanOverride(row)
	if errors.Is(err, sql.ErrNoRows) {
		return fiscal.Override{}, false, nil
	}
	if err != nil {
		return fiscal.Override{}, false, err
	}
	return o, true, nil
}

// SaveOverride creates or replaces the override for o.Key.
func (s *Store) SaveOverride(ctx context.Context, entityID generic.EntityID, o fiscal.Override) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var amount, paidAt sql.NullString
	if o.Amount != nil {
		amount = sql.NullString{String: o.Amount.String(), Valid: true}
	}
	if o.PaidAt != nil {
		paidAt = sql.NullString{String: o.PaidAt.UTC().Format(timestampLayout), Valid: true}
	}

	query := `
		INSERT INTO obligation_overrides
		(entity_id, obligation_key, status, amount, notes, paid_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(entity_id, obligation_key) DO UPDATE SET
			status = excluded.status,
			amount = excluded.amount,
			notes = excluded.notes,
			paid_at = excluded.paid_at,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		entityID, o.Key, string(o.Status), amount, o.Notes, paidAt,
		o.UpdatedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save override: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOverride(row scanner) (fiscal.Override, error) {
	var (
		o              fiscal.Override
		status         string
		amount, paidAt sql.NullString
		updatedAt      string
	)
	if err := row.Scan(&o.Key, &status, &amount, &o.Notes, &paidAt, &updatedAt); err != nil {
		return fiscal.Override{}, err
	}
	o.Status = fiscal.Status(status)
	if amount.Valid {
		v, err := decimal.NewFromString(amount.String)
		if err != nil {
			return fiscal.Override{}, fmt.Errorf("corrupt amount for %s: %w", o.Key, err)
		}
		o.Amount = &v
	}
	if paidAt.Valid {
		t, err := time.Parse(timestampLayout, paidAt.String)
		if err != nil {
			return fiscal.Override{}, fmt.Errorf("corrupt paid_at for %s: %w", o.Key, err)
		}
		o.PaidAt = &t
	}
	t, err := time.Parse(timestampLayout, updatedAt)
	if err != nil {
		return fiscal.Override{}, fmt.Errorf("corrupt updated_at for %s: %w", o.Key, err)
	}
	o.UpdatedAt = t
	return o, nil
}

// =============================================================================
// REMINDER STORE (fiscal.ReminderStore interface)
// =============================================================================

// MarkReminded inserts the reminder unless one exists and reports whether
// this call recorded it.
func (s *Store) MarkReminded(ctx context.Context, entityID generic.EntityID, key string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO reminders (entity_id, obligation_key, reminded_at) VALUES (?, ?, ?)`,
		entityID, key, at.UTC().Format(timestampLayout))
	if err != nil {
		return false, fmt.Errorf("failed to record reminder: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"reminders", "obligation_overrides", "tva_reference_amounts", "entity_configs"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// OverrideRecord is the export shape of one stored override.
type OverrideRecord struct {
	EntityID      string           `json:"entity_id"`
	ObligationKey string           `json:"obligation_key"`
	Status        string           `json:"status,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	PaidAt        *time.Time       `json:"paid_at,omitempty"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// ExportOverrides dumps every override as JSON, ordered by entity then key.
func (s *Store) ExportOverrides(ctx context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_id, `+overrideColumns+` FROM obligation_overrides ORDER BY entity_id, obligation_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to export overrides: %w", err)
	}
	defer rows.Close()

	records := []OverrideRecord{}
	for rows.Next() {
		var entityID string
		o, err := scanOverride(prefixScanner{row: rows, prefix: &entityID})
		if err != nil {
			return nil, err
		}
		records = append(records, OverrideRecord{
			EntityID:      entityID,
			ObligationKey: o.Key,
			Status:        string(o.Status),
			Amount:        o.Amount,
			Notes:         o.Notes,
			PaidAt:        o.PaidAt,
			UpdatedAt:     o.UpdatedAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return json.Marshal(records)
}

// prefixScanner scans one leading column into prefix before the override
// columns.
type prefixScanner struct {
	row    scanner
	prefix *string
}

func (p prefixScanner) Scan(dest ...any) error {
	return p.row.Scan(append([]any{p.prefix}, dest...)...)
}
