package catalog

import (
	"sync"

	"battery_sizer/internal/model"
)

// Store holds the current tables and lets them be swapped while lookups are
// in flight. Tables placed in the store must not be mutated afterwards.
type Store struct {
	mu       sync.RWMutex
	tables   *Tables
	onReload []func(*Tables)
}

func NewStore(t *Tables) *Store {
	if t == nil {
		t = Default()
	}
	return &Store{tables: t}
}

// Tables returns the current tables.
func (s *Store) Tables() *Tables {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables
}

// OnReload registers a callback invoked after every successful Replace.
func (s *Store) OnReload(fn func(*Tables)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReload = append(s.onReload, fn)
}

// Replace validates t and makes it current. Callbacks run outside the lock.
func (s *Store) Replace(t *Tables) error {
	if err := t.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.tables = t
	callbacks := make([]func(*Tables), len(s.onReload))
	copy(callbacks, s.onReload)
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn(t)
	}
	return nil
}

// Resolve maps c to the chemistry key the current tables will use for it.
func (s *Store) Resolve(c model.Chemistry) model.Chemistry {
	return s.Tables().Resolve(c)
}

// Profile looks up a chemistry profile in the current tables.
func (s *Store) Profile(c model.Chemistry) model.ChemistryProfile {
	return s.Tables().Profile(c)
}

// Factor looks up an environment derating in the current tables.
func (s *Store) Factor(c model.Chemistry, env model.Environment) model.EnvironmentFactor {
	return s.Tables().Factor(c, env)
}
