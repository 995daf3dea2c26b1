/*
store.go - Persistence interfaces around the generator

PURPOSE:
  The generator never touches storage. These interfaces describe what the
  service layer needs from a backing store: the configuration of each
  entity, the user overrides keyed by obligation key, and a log of the
  reminders already sent.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite
  - store/memory/memory.go: In-memory for testing

SEE ALSO:
  - service.go: the only consumer
*/
package fiscal

import (
	"context"
	"time"

	"github.com/warp/fiscal-engine/generic"
)

// ConfigStore persists one configuration per entity.
type ConfigStore interface {
	// GetConfig returns generic.ErrConfigNotFound when the entity is unknown.
	GetConfig(ctx context.Context, entityID generic.EntityID) (Config, error)

	// SaveConfig creates or replaces the configuration, reference amounts included.
	SaveConfig(ctx context.Context, entityID generic.EntityID, cfg Config) error

	// ListEntities returns every entity with a configuration, sorted.
	ListEntities(ctx context.Context) ([]generic.EntityID, error)
}

// OverrideStore persists user overrides keyed by obligation key.
type OverrideStore interface {
	GetOverrides(ctx context.Context, entityID generic.EntityID) (map[string]Override, error)
	GetOverride(ctx context.Context, entityID generic.EntityID, key string) (Override, bool, error)
	SaveOverride(ctx context.Context, entityID generic.EntityID, o Override) error
}

// ReminderStore remembers which upcoming obligations were already announced.
type ReminderStore interface {
	// MarkReminded records the reminder and reports whether it is new.
	MarkReminded(ctx context.Context, entityID generic.EntityID, key string, at time.Time) (bool, error)
}

// Store is everything the service needs.
type Store interface {
	ConfigStore
	OverrideStore
	ReminderStore
}
