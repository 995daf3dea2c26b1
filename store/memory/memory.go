// Package memory provides an in-memory fiscal.Store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/fiscal-engine/fiscal"
	"github.com/warp/fiscal-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	configs   map[generic.EntityID]fiscal.Config
	overrides map[key]fiscal.Override
	reminders map[key]time.Time
}

type key struct {
	EntityID      generic.EntityID
	ObligationKey string
}

// Compile-time check
var _ fiscal.Store = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		configs:   make(map[generic.EntityID]fiscal.Config),
		overrides: make(map[key]fiscal.Override),
		reminders: make(map[key]time.Time),
	}
}

func (m *Memory) GetConfig(_ context.Context, entityID generic.EntityID) (fiscal.Config, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cfg, ok := m.configs[entityID]
	if !ok {
		return fiscal.Config{}, generic.ErrConfigNotFound
	}
	return cfg.Clone(), nil
}

func (m *Memory) SaveConfig(_ context.Context, entityID generic.EntityID, cfg fiscal.Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[entityID] = cfg.Clone()
	return nil
}

func (m *Memory) ListEntities(_ context.Context) ([]generic.EntityID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]generic.EntityID, 0, len(m.configs))
	for id := range m.configs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *Memory) GetOverrides(_ context.Context, entityID generic.EntityID) (map[string]fiscal.Override, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]fiscal.Override)
	for k, o := range m.overrides {
		if k.EntityID == entityID {
			result[k.ObligationKey] = o
		}
	}
	return result, nil
}

func (m *Memory) GetOverride(_ context.Context, entityID generic.EntityID, obligationKey string) (fiscal.Override, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.overrides[key{EntityID: entityID, ObligationKey: obligationKey}]
	return o, ok, nil
}

func (m *Memory) SaveOverride(_ context.Context, entityID generic.EntityID, o fiscal.Override) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[key{EntityID: entityID, ObligationKey: o.Key}] = o
	return nil
}

func (m *Memory) MarkReminded(_ context.Context, entityID generic.EntityID, obligationKey string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key{EntityID: entityID, ObligationKey: obligationKey}
	if _, done := m.reminders[k]; done {
		return false, nil
	}
	m.reminders[k] = at
	return true, nil
}

// Reset drops everything.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs = make(map[generic.EntityID]fiscal.Config)
	m.overrides = make(map[key]fiscal.Override)
	m.reminders = make(map[key]time.Time)
	return nil
}
