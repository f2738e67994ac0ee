// Package pending tracks the players currently owed a death penalty.
// Membership lives only in the persisted document; every operation is a
// full load, modify, save cycle so external edits are never overwritten
// with stale state.
package pending

import (
	"fmt"

	"github.com/nathoo/deathpenalty/types"
)

// Store is the durable backing for the configuration document.
type Store interface {
	Load() (*types.Document, error)
	Save(doc *types.Document) error
}

// Set is the pending-death set backed by a Store.
type Set struct {
	store Store
}

// New creates a Set over store.
func New(store Store) *Set {
	return &Set{store: store}
}

// Add records player as pending. Adding a player twice is the same as adding once.
func (s *Set) Add(player types.PlayerID) error {
	doc, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("loading pending set: %w", err)
	}
	doc.RecentlyDied = Normalize(doc.RecentlyDied)
	if indexOf(doc.RecentlyDied, player) >= 0 {
		return nil
	}
	doc.RecentlyDied = append(doc.RecentlyDied, player)
	if err := s.store.Save(doc); err != nil {
		return fmt.Errorf("saving pending set: %w", err)
	}
	return nil
}

// Remove clears player. Removing an absent player is a no-op.
func (s *Set) Remove(player types.PlayerID) error {
	doc, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("loading pending set: %w", err)
	}
	list := Normalize(doc.RecentlyDied)
	i := indexOf(list, player)
	if i < 0 {
		return nil
	}
	doc.RecentlyDied = append(list[:i], list[i+1:]...)
	if err := s.store.Save(doc); err != nil {
		return fmt.Errorf("saving pending set: %w", err)
	}
	return nil
}

// Contains reports whether player is pending.
func (s *Set) Contains(player types.PlayerID) (bool, error) {
	doc, err := s.store.Load()
	if err != nil {
		return false, fmt.Errorf("loading pending set: %w", err)
	}
	return indexOf(doc.RecentlyDied, player) >= 0, nil
}

// List returns the pending players in recorded order.
func (s *Set) List() ([]types.PlayerID, error) {
	doc, err := s.store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading pending set: %w", err)
	}
	return Normalize(doc.RecentlyDied), nil
}

// Normalize drops duplicate IDs, keeping first occurrence order. Hand-edited
// documents may list a player twice.
func Normalize(ids []types.PlayerID) []types.PlayerID {
	seen := make(map[types.PlayerID]bool, len(ids))
	out := make([]types.PlayerID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func indexOf(ids []types.PlayerID, id types.PlayerID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
