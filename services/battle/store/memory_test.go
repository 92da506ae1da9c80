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
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/RageRaps/services/battle/datatypes"
)

func newTestBattle() *datatypes.Battle {
	return datatypes.NewBattle(datatypes.BattleCreate{
		Rapper1Name: "MC Fortran",
		Rapper2Name: "DJ COBOL",
		Style1:      "old school",
		Style2:      "boom bap",
	})
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	s := NewMemoryStore()
	battle := newTestBattle()

	require.NoError(t, s.Create(context.Background(), battle))

	got, err := s.Get(context.Background(), battle.ID)
	require.NoError(t, err)
	assert.Equal(t, battle.ID, got.ID)
	assert.Equal(t, "MC Fortran", got.Rapper1Name)
	assert.Equal(t, datatypes.StatusInProgress, got.Status)
}

func TestMemoryStore_CreateDuplicate(t *testing.T) {
	s := NewMemoryStore()
	battle := newTestBattle()

	require.NoError(t, s.Create(context.Background(), battle))
	err := s.Create(context.Background(), battle)
	assert.Error(t, err)
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrBattleNotFound)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	battle := newTestBattle()
	round := datatypes.NewRound(battle.ID, 1)
	verse := datatypes.NewVerse(round.ID, battle.Rapper1Name, "original bars")
	round.Rapper1Verse = &verse
	battle.Rounds = append(battle.Rounds, round)
	require.NoError(t, s.Create(context.Background(), battle))

	first, err := s.Get(context.Background(), battle.ID)
	require.NoError(t, err)
	first.Status = datatypes.StatusCompleted
	first.Rounds[0].Rapper1Verse.Content = "tampered"

	second, err := s.Get(context.Background(), battle.ID)
	require.NoError(t, err)
	assert.Equal(t, datatypes.StatusInProgress, second.Status)
	assert.Equal(t, "original bars", second.Rounds[0].Rapper1Verse.Content)
}

func TestMemoryStore_Update(t *testing.T) {
	s := NewMemoryStore()
	battle := newTestBattle()
	require.NoError(t, s.Create(context.Background(), battle))

	battle.Rapper1Wins = 1
	battle.CurrentRound = 2
	require.NoError(t, s.Update(context.Background(), battle))

	got, err := s.Get(context.Background(), battle.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Rapper1Wins)
	assert.Equal(t, 2, got.CurrentRound)
}

func TestMemoryStore_UpdateNotFound(t *testing.T) {
	s := NewMemoryStore()

	err := s.Update(context.Background(), newTestBattle())
	assert.ErrorIs(t, err, ErrBattleNotFound)
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	s := NewMemoryStore()

	older := newTestBattle()
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := newTestBattle()
	require.NoError(t, s.Create(context.Background(), older))
	require.NoError(t, s.Create(context.Background(), newer))

	battles, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, battles, 2)
	assert.Equal(t, newer.ID, battles[0].ID)
	assert.Equal(t, older.ID, battles[1].ID)
}

func TestMemoryStore_LockSerializesSameBattle(t *testing.T) {
	s := NewMemoryStore()
	battle := newTestBattle()
	require.NoError(t, s.Create(context.Background(), battle))

	// 50 goroutines each do a locked read-modify-write. Without the
	// per-battle lock the increments would race and drop updates.
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := s.Lock(battle.ID)
			defer unlock()
			b, err := s.Get(context.Background(), battle.ID)
			require.NoError(t, err)
			b.Rapper1Wins++
			require.NoError(t, s.Update(context.Background(), b))
		}()
	}
	wg.Wait()

	got, err := s.Get(context.Background(), battle.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.Rapper1Wins)
}
