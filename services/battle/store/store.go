// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store persists battle aggregates. The only implementation today is
// in-memory; the interface exists so a document store can slot in later
// without touching the engine.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/AleutianAI/RageRaps/services/battle/datatypes"
)

// ErrBattleNotFound is returned when a battle ID has no stored aggregate.
var ErrBattleNotFound = errors.New("battle not found")

// BattleStore is the persistence boundary for battles. Get and List return
// deep copies; callers mutate a copy and commit it back through Update so a
// failed mutation never leaves a half-written aggregate behind.
type BattleStore interface {
	Create(ctx context.Context, battle *datatypes.Battle) error
	Get(ctx context.Context, id uuid.UUID) (*datatypes.Battle, error)
	Update(ctx context.Context, battle *datatypes.Battle) error
	List(ctx context.Context) ([]*datatypes.Battle, error)

	// Lock serializes read-modify-write cycles for one battle. It blocks
	// until the battle's mutex is held and returns the unlock func. Locks
	// are independent per battle ID, so concurrent judgments on different
	// battles never contend.
	Lock(id uuid.UUID) (unlock func())
}
