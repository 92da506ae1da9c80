// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/AleutianAI/RageRaps/services/battle/datatypes"
)

// MemoryStore is a map-backed BattleStore. A single RWMutex guards the map
// itself; per-battle mutexes (see Lock) guard multi-step mutations so two
// judgments on the same battle cannot interleave.
type MemoryStore struct {
	mu      sync.RWMutex
	battles map[uuid.UUID]*datatypes.Battle

	lockMu sync.Mutex
	locks  map[uuid.UUID]*sync.Mutex
}

// NewMemoryStore creates an empty in-memory battle store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		battles: make(map[uuid.UUID]*datatypes.Battle),
		locks:   make(map[uuid.UUID]*sync.Mutex),
	}
}

// Create stores a deep copy of the battle. Creating the same ID twice is a
// programming error and gets rejected.
func (s *MemoryStore) Create(_ context.Context, battle *datatypes.Battle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.battles[battle.ID]; exists {
		return fmt.Errorf("battle %s already exists", battle.ID)
	}
	s.battles[battle.ID] = battle.Clone()
	return nil
}

// Get returns a deep copy of the battle or ErrBattleNotFound.
func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*datatypes.Battle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	battle, ok := s.battles[id]
	if !ok {
		return nil, ErrBattleNotFound
	}
	return battle.Clone(), nil
}

// Update replaces the stored aggregate with a deep copy of the given one.
// The whole aggregate swaps atomically under the map lock.
func (s *MemoryStore) Update(_ context.Context, battle *datatypes.Battle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.battles[battle.ID]; !ok {
		return ErrBattleNotFound
	}
	s.battles[battle.ID] = battle.Clone()
	return nil
}

// List returns deep copies of all battles, newest first.
func (s *MemoryStore) List(_ context.Context) ([]*datatypes.Battle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*datatypes.Battle, 0, len(s.battles))
	for _, battle := range s.battles {
		out = append(out, battle.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Lock acquires the per-battle mutex, creating it on first use. Mutexes are
// never removed; a battle's entry is 8 bytes and battles are few.
func (s *MemoryStore) Lock(id uuid.UUID) func() {
	s.lockMu.Lock()
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	s.lockMu.Unlock()

	m.Lock()
	return m.Unlock
}
