// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package judge decides the winner of one round. Like verse generation it
// never blocks a battle: an unreachable LLM produces a coin-flip decision
// flagged as a fallback.
package judge

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/RageRaps/services/battle/datatypes"
	"github.com/AleutianAI/RageRaps/services/battle/prompts"
	"github.com/AleutianAI/RageRaps/services/llm"
)

var tracer = otel.Tracer("rageraps.judge")

// DefaultTimeout bounds a single judgment call.
const DefaultTimeout = 60 * time.Second

// Decision is the outcome of judging one round. Fallback is true when the
// LLM could not be reached and the winner was drawn at random.
type Decision struct {
	Winner    string
	Rationale string
	Fallback  bool
}

// WinnerExtractor pulls the declared winner out of free-form judge text.
type WinnerExtractor interface {
	ExtractWinner(response, contestant1, contestant2 string) string
}

// Request names the round under judgment.
type Request struct {
	Rapper1Name string
	Rapper2Name string
	RoundNumber int
	Verse1      string
	Verse2      string
}

// Judge scores rounds through an LLM.
type Judge struct {
	llmClient llm.LLMClient
	extractor WinnerExtractor
	templates prompts.Templates
	timeout   time.Duration

	// randIntn is swapped out in tests to make the coin flip deterministic.
	randIntn func(n int) int
}

// NewJudge wires a judge with the heuristic extractor.
func NewJudge(llmClient llm.LLMClient, templates prompts.Templates) *Judge {
	return &Judge{
		llmClient: llmClient,
		extractor: HeuristicExtractor{},
		templates: templates,
		timeout:   DefaultTimeout,
		randIntn:  rand.IntN,
	}
}

// WithExtractor overrides the winner extractor.
func (j *Judge) WithExtractor(e WinnerExtractor) *Judge {
	j.extractor = e
	return j
}

// Decide judges one round. It never fails: LLM errors yield a random winner
// with a tagged rationale.
func (j *Judge) Decide(ctx context.Context, req Request) Decision {
	ctx, span := tracer.Start(ctx, "Judge.Decide")
	defer span.End()
	span.SetAttributes(attribute.Int("judge.round", req.RoundNumber))

	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	system, user, err := j.templates.BuildJudgePrompt(prompts.JudgePromptData{
		Rapper1Name: req.Rapper1Name,
		Rapper2Name: req.Rapper2Name,
		RoundNumber: req.RoundNumber,
		Verse1:      req.Verse1,
		Verse2:      req.Verse2,
	})
	if err != nil {
		slog.Error("Failed to build judge prompt", "error", err)
		return j.randomDecision(req)
	}

	temp := float32(0.3)
	response, err := j.llmClient.Chat(ctx, []datatypes.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}, llm.GenerationParams{Temperature: &temp})
	if err != nil {
		slog.Warn("Judgment failed, picking a random winner",
			"round", req.RoundNumber, "error", err)
		return j.randomDecision(req)
	}
	if strings.TrimSpace(response) == "" {
		slog.Warn("Judge returned an empty response, picking a random winner",
			"round", req.RoundNumber)
		return j.randomDecision(req)
	}

	winner := j.extractor.ExtractWinner(response, req.Rapper1Name, req.Rapper2Name)
	return Decision{
		Winner:    winner,
		Rationale: CleanRationale(response),
	}
}

func (j *Judge) randomDecision(req Request) Decision {
	winner := req.Rapper1Name
	if j.randIntn(2) == 1 {
		winner = req.Rapper2Name
	}
	return Decision{
		Winner: winner,
		Rationale: fmt.Sprintf(
			"The judge was unavailable for this round, so the winner was chosen at random: %s.",
			winner),
		Fallback: true,
	}
}

// HeuristicExtractor finds the winner in judge prose. It tries an explicit
// winner declaration first, then scores sentences that pair a contestant
// with a comparative word, and finally defaults to contestant1.
type HeuristicExtractor struct{}

var comparativeWords = []string{"better", "stronger", "wins", "superior", "impressive"}

var winnerMarkers = []string{"the winner is", "winner:"}

var sentenceSplit = regexp.MustCompile(`[.!?\n]+`)

// ExtractWinner always returns one of the two contestant names.
func (HeuristicExtractor) ExtractWinner(response, contestant1, contestant2 string) string {
	lower := strings.ToLower(response)
	l1 := strings.ToLower(contestant1)
	l2 := strings.ToLower(contestant2)

	// Tier 1: an explicit declaration. The contestant named soonest after
	// the marker wins.
	for _, marker := range winnerMarkers {
		idx := strings.Index(lower, marker)
		if idx < 0 {
			continue
		}
		tail := lower[idx+len(marker):]
		i1 := strings.Index(tail, l1)
		i2 := strings.Index(tail, l2)
		switch {
		case i1 >= 0 && (i2 < 0 || i1 <= i2):
			return contestant1
		case i2 >= 0:
			return contestant2
		}
	}

	// Tier 2: sentences pairing exactly one contestant with a comparative
	// word count as a vote. Ties go to contestant1.
	votes1, votes2 := 0, 0
	for _, sentence := range sentenceSplit.Split(lower, -1) {
		hasComparative := false
		for _, word := range comparativeWords {
			if strings.Contains(sentence, word) {
				hasComparative = true
				break
			}
		}
		if !hasComparative {
			continue
		}
		has1 := strings.Contains(sentence, l1)
		has2 := strings.Contains(sentence, l2)
		switch {
		case has1 && !has2:
			votes1++
		case has2 && !has1:
			votes2++
		}
	}
	if votes2 > votes1 {
		return contestant2
	}
	if votes1 > 0 {
		return contestant1
	}

	// Tier 3: nothing usable in the response.
	slog.Debug("Could not extract a winner from judge response, defaulting to contestant1")
	return contestant1
}

var leadingWinnerLine = regexp.MustCompile(`(?i)^\s*(?:the\s+)?winner\s*(?:is\b|[:\-])\s*[^\n]*\n?`)

var sectionHeading = regexp.MustCompile(`([^\n])\n(Analysis of|Comparison:)`)

// CleanRationale tidies raw judge output for display: the leading
// "Winner: X" line goes away (the winner is stored separately) and section
// headings get a blank line before them.
func CleanRationale(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = leadingWinnerLine.ReplaceAllString(cleaned, "")
	cleaned = sectionHeading.ReplaceAllString(cleaned, "$1\n\n$2")
	return strings.TrimSpace(cleaned)
}
