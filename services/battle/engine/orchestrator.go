// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/RageRaps/services/battle/datatypes"
	"github.com/AleutianAI/RageRaps/services/battle/verse"
)

// generateRound produces a fully-versed round for the battle. The two
// verses are generated concurrently; rapper two sees the same battle
// history as rapper one, not rapper one's in-flight verse.
func (e *Engine) generateRound(ctx context.Context, battle *datatypes.Battle, roundNumber int) (datatypes.Round, error) {
	if roundNumber > datatypes.MaxRounds {
		return datatypes.Round{}, ErrInvalidRoundNumber
	}

	round := datatypes.NewRound(battle.ID, roundNumber)
	previous := previousVerses(battle)

	var verse1, verse2 verse.Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		verse1 = e.generator.Generate(gctx, verse.Request{
			RapperName:     battle.Rapper1Name,
			OpponentName:   battle.Rapper2Name,
			Style:          battle.Style1,
			RoundNumber:    roundNumber,
			PreviousVerses: previous,
		})
		return nil
	})
	g.Go(func() error {
		verse2 = e.generator.Generate(gctx, verse.Request{
			RapperName:     battle.Rapper2Name,
			OpponentName:   battle.Rapper1Name,
			Style:          battle.Style2,
			RoundNumber:    roundNumber,
			PreviousVerses: previous,
		})
		return nil
	})
	if err := g.Wait(); err != nil {
		return datatypes.Round{}, err
	}

	v1 := datatypes.NewVerse(round.ID, battle.Rapper1Name, verse1.Content)
	v2 := datatypes.NewVerse(round.ID, battle.Rapper2Name, verse2.Content)
	round.Rapper1Verse = &v1
	round.Rapper2Verse = &v2
	return round, nil
}

// previousVerses flattens the battle's existing rounds into generator
// context, rapper one's verse before rapper two's within each round.
func previousVerses(battle *datatypes.Battle) []datatypes.PreviousVerse {
	out := make([]datatypes.PreviousVerse, 0, len(battle.Rounds)*2)
	for i := range battle.Rounds {
		round := &battle.Rounds[i]
		if round.Rapper1Verse != nil {
			out = append(out, datatypes.PreviousVerse{
				RapperName: round.Rapper1Verse.RapperName,
				Content:    round.Rapper1Verse.Content,
			})
		}
		if round.Rapper2Verse != nil {
			out = append(out, datatypes.PreviousVerse{
				RapperName: round.Rapper2Verse.RapperName,
				Content:    round.Rapper2Verse.Content,
			})
		}
	}
	return out
}
