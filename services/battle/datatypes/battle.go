// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes defines the battle aggregate and the request/response
// shapes shared by the battle service packages.
package datatypes

import (
	"time"

	"github.com/google/uuid"
)

// Battle and round status values.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// MaxRounds is the hard cap on rounds per battle (best of three).
const MaxRounds = 3

// WinsToTakeBattle is the win count that ends a battle early.
const WinsToTakeBattle = 2

// Verse is one rapper's generated content for one round. Verses are
// immutable after creation; regeneration replaces the round's slot with a
// fresh Verse rather than editing in place.
type Verse struct {
	ID         uuid.UUID `json:"id"`
	RoundID    uuid.UUID `json:"round_id"`
	RapperName string    `json:"rapper_name"`
	Content    string    `json:"content"`
}

// NewVerse creates a verse with a fresh identity.
func NewVerse(roundID uuid.UUID, rapperName, content string) Verse {
	return Verse{
		ID:         uuid.New(),
		RoundID:    roundID,
		RapperName: rapperName,
		Content:    content,
	}
}

// Round is one verse-exchange-plus-judgment cycle within a battle.
type Round struct {
	ID            uuid.UUID  `json:"id"`
	BattleID      uuid.UUID  `json:"battle_id"`
	RoundNumber   int        `json:"round_number"`
	Rapper1Verse  *Verse     `json:"rapper1_verse"`
	Rapper2Verse  *Verse     `json:"rapper2_verse"`
	Winner        string     `json:"winner,omitempty"`
	JudgeFeedback string     `json:"judge_feedback,omitempty"`
	// UserJudgment is nil until the round is judged, then reports whether
	// the judgment came from a user (true) or the AI judge (false).
	UserJudgment *bool     `json:"user_judgment"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewRound creates an in-progress round with empty verse slots.
func NewRound(battleID uuid.UUID, roundNumber int) Round {
	now := time.Now().UTC()
	return Round{
		ID:          uuid.New(),
		BattleID:    battleID,
		RoundNumber: roundNumber,
		Status:      StatusInProgress,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// HasBothVerses reports whether both verse slots are filled.
func (r *Round) HasBothVerses() bool {
	return r.Rapper1Verse != nil && r.Rapper2Verse != nil
}

// Judged reports whether a judgment has been recorded for this round.
func (r *Round) Judged() bool {
	return r.Winner != ""
}

// Battle is the aggregate root for a best-of-three match between two
// rappers. It is mutated only by the battle engine; the store hands out
// deep copies so callers never alias live state.
type Battle struct {
	ID           uuid.UUID `json:"id"`
	Rapper1Name  string    `json:"rapper1_name"`
	Rapper2Name  string    `json:"rapper2_name"`
	Style1       string    `json:"style1"`
	Style2       string    `json:"style2"`
	Rounds       []Round   `json:"rounds"`
	Status       string    `json:"status"`
	CurrentRound int       `json:"current_round"`
	Rapper1Wins  int       `json:"rapper1_wins"`
	Rapper2Wins  int       `json:"rapper2_wins"`
	Winner       string    `json:"winner,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewBattle creates an in-progress battle with no rounds.
func NewBattle(data BattleCreate) *Battle {
	return &Battle{
		ID:           uuid.New(),
		Rapper1Name:  data.Rapper1Name,
		Rapper2Name:  data.Rapper2Name,
		Style1:       data.Style1,
		Style2:       data.Style2,
		Rounds:       []Round{},
		Status:       StatusInProgress,
		CurrentRound: 1,
		CreatedAt:    time.Now().UTC(),
	}
}

// FindRound returns a pointer into b.Rounds for the given round ID, or nil.
func (b *Battle) FindRound(roundID uuid.UUID) *Round {
	for i := range b.Rounds {
		if b.Rounds[i].ID == roundID {
			return &b.Rounds[i]
		}
	}
	return nil
}

// HasContestant reports whether name is one of the battle's two rappers.
func (b *Battle) HasContestant(name string) bool {
	return name == b.Rapper1Name || name == b.Rapper2Name
}

// CompletedRounds counts rounds that have been judged.
func (b *Battle) CompletedRounds() int {
	n := 0
	for i := range b.Rounds {
		if b.Rounds[i].Status == StatusCompleted {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the battle. Rounds and verse pointers are
// duplicated so mutations on the copy never leak into the original.
func (b *Battle) Clone() *Battle {
	c := *b
	c.Rounds = make([]Round, len(b.Rounds))
	for i := range b.Rounds {
		c.Rounds[i] = b.Rounds[i]
		if v := b.Rounds[i].Rapper1Verse; v != nil {
			vc := *v
			c.Rounds[i].Rapper1Verse = &vc
		}
		if v := b.Rounds[i].Rapper2Verse; v != nil {
			vc := *v
			c.Rounds[i].Rapper2Verse = &vc
		}
	}
	return &c
}

// BattleCreate is the request body for creating a battle.
type BattleCreate struct {
	Rapper1Name string `json:"rapper1_name" binding:"required"`
	Rapper2Name string `json:"rapper2_name" binding:"required"`
	Style1      string `json:"style1" binding:"required"`
	Style2      string `json:"style2" binding:"required"`
}

// PreviousVerse is a prior-round verse passed to the generator as battle
// context, ordered rapper1 then rapper2 within each round.
type PreviousVerse struct {
	RapperName string `json:"rapper_name"`
	Content    string `json:"content"`
}
