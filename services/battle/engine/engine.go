// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package engine runs battles end to end: it creates them, fans out verse
// generation, applies judgments, and advances or completes the battle.
// All state transitions for one battle happen under that battle's store
// lock, so concurrent judgments cannot double-count a round.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/RageRaps/services/battle/datatypes"
	"github.com/AleutianAI/RageRaps/services/battle/judge"
	"github.com/AleutianAI/RageRaps/services/battle/observability"
	"github.com/AleutianAI/RageRaps/services/battle/store"
	"github.com/AleutianAI/RageRaps/services/battle/verse"
)

var tracer = otel.Tracer("rageraps.engine")

// Engine coordinates the store, the verse generator, and the judge.
type Engine struct {
	store     store.BattleStore
	generator *verse.Generator
	judge     *judge.Judge
}

// NewEngine wires a battle engine.
func NewEngine(battleStore store.BattleStore, generator *verse.Generator, battleJudge *judge.Judge) *Engine {
	return &Engine{
		store:     battleStore,
		generator: generator,
		judge:     battleJudge,
	}
}

// CreateBattleWithVerses starts a battle and generates both round-one
// verses before returning. Judging is left to the caller.
func (e *Engine) CreateBattleWithVerses(ctx context.Context, data datatypes.BattleCreate) (*datatypes.Battle, error) {
	ctx, span := tracer.Start(ctx, "Engine.CreateBattleWithVerses")
	defer span.End()

	battle := datatypes.NewBattle(data)
	span.SetAttributes(attribute.String("battle.id", battle.ID.String()))

	round, err := e.generateRound(ctx, battle, 1)
	if err != nil {
		return nil, err
	}
	battle.Rounds = append(battle.Rounds, round)

	if err := e.store.Create(ctx, battle); err != nil {
		return nil, err
	}
	observability.RecordBattleStarted("with_verses")
	slog.Info("Created battle",
		"battle_id", battle.ID,
		"rapper1", battle.Rapper1Name,
		"rapper2", battle.Rapper2Name)
	return battle, nil
}

// GenerateCompleteBattle runs a whole battle in one call: verses and AI
// judgment for every round until a winner emerges. The battle is stored
// only once, fully resolved.
func (e *Engine) GenerateCompleteBattle(ctx context.Context, data datatypes.BattleCreate) (*datatypes.Battle, error) {
	ctx, span := tracer.Start(ctx, "Engine.GenerateCompleteBattle")
	defer span.End()

	battle := datatypes.NewBattle(data)
	span.SetAttributes(attribute.String("battle.id", battle.ID.String()))

	for battle.Status == datatypes.StatusInProgress {
		round, err := e.generateRound(ctx, battle, battle.CurrentRound)
		if err != nil {
			return nil, err
		}
		battle.Rounds = append(battle.Rounds, round)
		current := &battle.Rounds[len(battle.Rounds)-1]

		decision := e.judge.Decide(ctx, judge.Request{
			Rapper1Name: battle.Rapper1Name,
			Rapper2Name: battle.Rapper2Name,
			RoundNumber: current.RoundNumber,
			Verse1:      current.Rapper1Verse.Content,
			Verse2:      current.Rapper2Verse.Content,
		})
		e.applyJudgment(battle, current, decision.Winner, decision.Rationale, false)
		observability.RecordRoundJudged("ai", aiOutcome(decision))
	}

	if err := e.store.Create(ctx, battle); err != nil {
		return nil, err
	}
	observability.RecordBattleStarted("complete")
	slog.Info("Generated complete battle",
		"battle_id", battle.ID,
		"winner", battle.Winner,
		"rounds", len(battle.Rounds))
	return battle, nil
}

// GetBattle returns one battle by ID.
func (e *Engine) GetBattle(ctx context.Context, id uuid.UUID) (*datatypes.Battle, error) {
	return e.store.Get(ctx, id)
}

// ListBattles returns all battles, newest first.
func (e *Engine) ListBattles(ctx context.Context) ([]*datatypes.Battle, error) {
	return e.store.List(ctx)
}

// JudgeRoundAI has the AI judge score a round, then advances the battle.
func (e *Engine) JudgeRoundAI(ctx context.Context, battleID, roundID uuid.UUID) (*datatypes.Battle, error) {
	ctx, span := tracer.Start(ctx, "Engine.JudgeRoundAI")
	defer span.End()

	return e.judgeRound(ctx, battleID, roundID,
		func(battle *datatypes.Battle, round *datatypes.Round) (string, string, bool, string, error) {
			decision := e.judge.Decide(ctx, judge.Request{
				Rapper1Name: battle.Rapper1Name,
				Rapper2Name: battle.Rapper2Name,
				RoundNumber: round.RoundNumber,
				Verse1:      round.Rapper1Verse.Content,
				Verse2:      round.Rapper2Verse.Content,
			})
			return decision.Winner, decision.Rationale, false, aiOutcome(decision), nil
		})
}

// JudgeRoundUser records a user's judgment for a round, then advances the
// battle. The winner must be one of the battle's contestants.
func (e *Engine) JudgeRoundUser(ctx context.Context, battleID uuid.UUID, judgment datatypes.JudgmentCreate) (*datatypes.Battle, error) {
	ctx, span := tracer.Start(ctx, "Engine.JudgeRoundUser")
	defer span.End()

	return e.judgeRound(ctx, battleID, judgment.RoundID,
		func(battle *datatypes.Battle, _ *datatypes.Round) (string, string, bool, string, error) {
			if !battle.HasContestant(judgment.Winner) {
				return "", "", false, "", ErrInvalidWinner
			}
			return judgment.Winner, judgment.Feedback, true, "user", nil
		})
}

// decideFunc resolves a judgment for a validated, unjudged round. It
// returns winner, feedback, whether a user judged, and the metrics outcome.
type decideFunc func(battle *datatypes.Battle, round *datatypes.Round) (string, string, bool, string, error)

// judgeRound is the shared judgment path. Under the battle lock it
// validates the round, applies the decision, commits, and then generates
// the next round's verses if the battle continues.
func (e *Engine) judgeRound(ctx context.Context, battleID, roundID uuid.UUID, decide decideFunc) (*datatypes.Battle, error) {
	unlock := e.store.Lock(battleID)
	defer unlock()

	battle, err := e.store.Get(ctx, battleID)
	if err != nil {
		return nil, err
	}
	if battle.Status == datatypes.StatusCompleted {
		return nil, ErrBattleCompleted
	}
	round := battle.FindRound(roundID)
	if round == nil {
		return nil, ErrRoundNotFound
	}
	if round.Judged() {
		return nil, ErrRoundAlreadyJudged
	}
	if !round.HasBothVerses() {
		return nil, ErrVersesMissing
	}

	winner, feedback, userJudged, outcome, err := decide(battle, round)
	if err != nil {
		return nil, err
	}

	e.applyJudgment(battle, round, winner, feedback, userJudged)
	if err := e.store.Update(ctx, battle); err != nil {
		return nil, err
	}
	judgeLabel := "ai"
	if userJudged {
		judgeLabel = "user"
	}
	observability.RecordRoundJudged(judgeLabel, outcome)
	slog.Info("Judged round",
		"battle_id", battle.ID,
		"round", round.RoundNumber,
		"winner", winner,
		"user_judged", userJudged)

	// The judgment is committed; the next round's verses follow in the
	// same call so clients always see a ready-to-judge battle.
	if battle.Status == datatypes.StatusInProgress && len(battle.Rounds) < battle.CurrentRound {
		next, err := e.generateRound(ctx, battle, battle.CurrentRound)
		if err != nil {
			return nil, err
		}
		battle.Rounds = append(battle.Rounds, next)
		if err := e.store.Update(ctx, battle); err != nil {
			return nil, err
		}
	}
	return battle, nil
}

// applyJudgment records a round result and moves the battle forward, either
// to the next round or to completion.
func (e *Engine) applyJudgment(battle *datatypes.Battle, round *datatypes.Round, winner, feedback string, userJudged bool) {
	now := time.Now().UTC()
	round.Winner = winner
	round.JudgeFeedback = feedback
	round.UserJudgment = &userJudged
	round.Status = datatypes.StatusCompleted
	round.UpdatedAt = now

	if winner == battle.Rapper1Name {
		battle.Rapper1Wins++
	} else {
		battle.Rapper2Wins++
	}

	if battle.Rapper1Wins >= datatypes.WinsToTakeBattle ||
		battle.Rapper2Wins >= datatypes.WinsToTakeBattle ||
		battle.CompletedRounds() >= datatypes.MaxRounds {
		battle.Status = datatypes.StatusCompleted
		battle.Winner = e.determineWinner(battle)
		observability.RecordBattleCompleted()
		return
	}
	battle.CurrentRound = round.RoundNumber + 1
}

// determineWinner resolves the battle winner from the win counts. An exact
// tie cannot happen when every round has one winner, but if counts ever do
// tie the final round's winner takes the battle.
func (e *Engine) determineWinner(battle *datatypes.Battle) string {
	switch {
	case battle.Rapper1Wins > battle.Rapper2Wins:
		return battle.Rapper1Name
	case battle.Rapper2Wins > battle.Rapper1Wins:
		return battle.Rapper2Name
	}
	for i := len(battle.Rounds) - 1; i >= 0; i-- {
		if battle.Rounds[i].Winner != "" {
			return battle.Rounds[i].Winner
		}
	}
	return battle.Rapper1Name
}

func aiOutcome(decision judge.Decision) string {
	if decision.Fallback {
		return "fallback"
	}
	return "llm"
}
