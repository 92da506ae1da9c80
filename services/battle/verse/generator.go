// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package verse generates one rapper's verse for one round. Generation is
// best-effort end to end: enrichment failures degrade the prompt, LLM
// failures degrade to a canned verse, and a battle always moves forward.
package verse

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/RageRaps/services/battle/cache"
	"github.com/AleutianAI/RageRaps/services/battle/datatypes"
	"github.com/AleutianAI/RageRaps/services/battle/enrich"
	"github.com/AleutianAI/RageRaps/services/battle/observability"
	"github.com/AleutianAI/RageRaps/services/battle/prompts"
	"github.com/AleutianAI/RageRaps/services/battle/retrieval"
	"github.com/AleutianAI/RageRaps/services/llm"
)

var tracer = otel.Tracer("rageraps.verse")

// Verse sources reported in Result.
const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"
)

// DefaultTimeout bounds a single verse generation call.
const DefaultTimeout = 90 * time.Second

const defaultSnippetLimit = 3

// Request describes the verse to generate.
type Request struct {
	RapperName     string
	OpponentName   string
	Style          string
	RoundNumber    int
	PreviousVerses []datatypes.PreviousVerse
}

// Result is a generated verse plus where it came from. Source is
// SourceFallback when the LLM could not produce usable content.
type Result struct {
	Content string
	Source  string
}

// Generator produces verses through an LLM, enriched with a cached rapper
// bio and style snippets on round one.
type Generator struct {
	llmClient   llm.LLMClient
	fetcher     enrich.Fetcher
	searcher    retrieval.SnippetSearcher
	rapperCache *cache.RapperCache
	templates   prompts.Templates
	timeout     time.Duration
}

// NewGenerator wires a verse generator. fetcher and searcher may be nil
// when enrichment or retrieval is disabled.
func NewGenerator(llmClient llm.LLMClient, fetcher enrich.Fetcher,
	searcher retrieval.SnippetSearcher, rapperCache *cache.RapperCache,
	templates prompts.Templates) *Generator {

	return &Generator{
		llmClient:   llmClient,
		fetcher:     fetcher,
		searcher:    searcher,
		rapperCache: rapperCache,
		templates:   templates,
		timeout:     DefaultTimeout,
	}
}

// WithTimeout overrides the per-call generation timeout.
func (g *Generator) WithTimeout(d time.Duration) *Generator {
	g.timeout = d
	return g
}

// Generate produces a verse for the request. It never fails: any error on
// the way to the LLM, or an empty LLM response, yields the fallback verse
// with Source set accordingly.
func (g *Generator) Generate(ctx context.Context, req Request) Result {
	ctx, span := tracer.Start(ctx, "Generator.Generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("verse.rapper", req.RapperName),
		attribute.Int("verse.round", req.RoundNumber),
	)

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	profile := g.enrichProfile(ctx, req)

	system, user, err := g.templates.BuildVersePrompt(prompts.VersePromptData{
		RapperName:     req.RapperName,
		OpponentName:   req.OpponentName,
		Style:          req.Style,
		RoundNumber:    req.RoundNumber,
		Bio:            profile.Bio,
		StyleSnippets:  profile.Snippets,
		PreviousVerses: req.PreviousVerses,
	})
	if err != nil {
		slog.Error("Failed to build verse prompt", "rapper", req.RapperName, "error", err)
		return g.fallback(req, start)
	}

	temp := float32(0.9)
	raw, err := g.llmClient.Chat(ctx, []datatypes.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}, llm.GenerationParams{Temperature: &temp})
	if err != nil {
		slog.Warn("Verse generation failed, using fallback verse",
			"rapper", req.RapperName, "round", req.RoundNumber, "error", err)
		return g.fallback(req, start)
	}

	content := extractVerse(raw)
	if content == "" {
		slog.Warn("LLM returned no usable verse content, using fallback verse",
			"rapper", req.RapperName, "round", req.RoundNumber)
		return g.fallback(req, start)
	}

	observability.RecordVerse(SourceLLM, time.Since(start).Seconds())
	return Result{Content: content, Source: SourceLLM}
}

// enrichProfile returns the rapper's cached profile, filling it from
// Wikipedia and the lyric store on round one. Rounds after the first reuse
// whatever round one cached and never refetch.
func (g *Generator) enrichProfile(ctx context.Context, req Request) cache.Profile {
	profile, cached := g.rapperCache.Get(req.RapperName)
	if req.RoundNumber != 1 || cached {
		return profile
	}

	if g.fetcher != nil {
		bio, err := g.fetcher.FetchBio(ctx, req.RapperName)
		if err != nil {
			slog.Warn("Bio enrichment failed", "rapper", req.RapperName, "error", err)
		} else {
			g.rapperCache.Put(req.RapperName, cache.Fields{Bio: &bio})
			profile.Bio = bio
		}
	}

	if g.searcher != nil {
		snippets, err := g.searcher.SearchStyleSnippets(ctx, req.Style, defaultSnippetLimit)
		if err != nil {
			slog.Warn("Style snippet retrieval failed", "style", req.Style, "error", err)
		} else if len(snippets) > 0 {
			g.rapperCache.Put(req.RapperName, cache.Fields{Snippets: snippets})
			profile.Snippets = snippets
		}
	}
	return profile
}

func (g *Generator) fallback(req Request, start time.Time) Result {
	observability.RecordVerse(SourceFallback, time.Since(start).Seconds())
	return Result{Content: FallbackVerse(req), Source: SourceFallback}
}

// FallbackVerse is the deterministic stand-in used when generation fails.
// It names both rappers, the round, and the style so the battle still reads
// coherently.
func FallbackVerse(req Request) string {
	return fmt.Sprintf(
		"Yo, I'm %s, round %d, mic in my hand,\n"+
			"%s style flowing like only I can,\n"+
			"%s, you're outclassed, better understand,\n"+
			"I run this cypher, you're just in the stands.",
		req.RapperName, req.RoundNumber, req.Style, req.OpponentName)
}

// preambleStarts are throat-clearing openers models put before the verse.
var preambleStarts = []string{
	"i'll ", "i will ", "here's ", "here is ", "this is ", "sure", "okay", "ok,",
}

// extractVerse pulls the verse out of raw model output. A fenced block wins
// when present; otherwise leading preamble lines are dropped.
func extractVerse(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if fenced := extractFenced(raw); fenced != "" {
		return fenced
	}

	lines := strings.Split(raw, "\n")
	start := 0
	for start < len(lines) {
		line := strings.ToLower(strings.TrimSpace(lines[start]))
		if line == "" {
			start++
			continue
		}
		isPreamble := false
		for _, p := range preambleStarts {
			if strings.HasPrefix(line, p) {
				isPreamble = true
				break
			}
		}
		if !isPreamble {
			break
		}
		start++
	}
	return strings.TrimSpace(strings.Join(lines[start:], "\n"))
}

// extractFenced returns the body of the first ``` fence, or "".
func extractFenced(raw string) string {
	open := strings.Index(raw, "```")
	if open < 0 {
		return ""
	}
	rest := raw[open+3:]
	// Skip a language tag on the fence line.
	if nl := strings.Index(rest, "\n"); nl >= 0 {
		firstLine := strings.TrimSpace(rest[:nl])
		if firstLine != "" && !strings.ContainsAny(firstLine, " \t") && len(firstLine) < 20 {
			rest = rest[nl+1:]
		}
	}
	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(rest)
	}
	return strings.TrimSpace(rest[:end])
}
