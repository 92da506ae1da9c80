// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package prompts builds the verse and judge prompts. Templates ship with
// working defaults and can be overridden per deployment via a YAML file
// named by RAGERAPS_PROMPTS_FILE, which is how we tune prompt wording
// without rebuilding the service.
package prompts

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/RageRaps/services/battle/datatypes"
)

const defaultVerseSystem = `You are {{.RapperName}}, a legendary battle rapper. ` +
	`You write in the {{.Style}} style. Respond with exactly one verse of ` +
	`8-16 lines. Wrap the verse in a fenced code block and write nothing ` +
	`else outside the fence.`

const defaultVerse = `You are battling {{.OpponentName}}. This is round {{.RoundNumber}} of 3.
{{- if .Bio}}

Background on you:
{{.Bio}}
{{- end}}
{{- if .StyleSnippets}}

Lines in your style for inspiration:
{{- range .StyleSnippets}}
- {{.}}
{{- end}}
{{- end}}
{{- if .PreviousVerses}}

The battle so far:
{{- range .PreviousVerses}}

[{{.RapperName}}]
{{.Content}}
{{- end}}
{{- end}}

Write your verse for this round. Attack {{.OpponentName}}'s weaknesses and
respond to anything they said about you. Stay in character as {{.RapperName}}.`

const defaultJudgeSystem = `You are an impartial rap battle judge. You weigh ` +
	`wordplay, flow, punchlines, and how directly each rapper answered the ` +
	`other. You always pick exactly one winner.`

const defaultJudge = `Round {{.RoundNumber}} of a battle between {{.Rapper1Name}} and {{.Rapper2Name}}.

[{{.Rapper1Name}}]
{{.Verse1}}

[{{.Rapper2Name}}]
{{.Verse2}}

Declare the winner of this round on the first line in the form
"Winner: <name>", then explain your decision in a short paragraph.`

// Templates holds the four prompt templates. Zero-valued fields fall back
// to the built-in defaults when loading overrides.
type Templates struct {
	VerseSystem string `yaml:"verse_system"`
	Verse       string `yaml:"verse"`
	JudgeSystem string `yaml:"judge_system"`
	Judge       string `yaml:"judge"`
}

// Defaults returns the built-in templates.
func Defaults() Templates {
	return Templates{
		VerseSystem: defaultVerseSystem,
		Verse:       defaultVerse,
		JudgeSystem: defaultJudgeSystem,
		Judge:       defaultJudge,
	}
}

// Load returns the defaults merged with any overrides from the YAML file
// named by RAGERAPS_PROMPTS_FILE. A missing env var is fine; a named file
// that cannot be read or parsed is an error, since silently running with
// the wrong prompts is worse than failing startup.
func Load() (Templates, error) {
	t := Defaults()
	path := os.Getenv("RAGERAPS_PROMPTS_FILE")
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("failed to read prompts file %s: %w", path, err)
	}
	var overrides Templates
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return t, fmt.Errorf("failed to parse prompts file %s: %w", path, err)
	}
	if overrides.VerseSystem != "" {
		t.VerseSystem = overrides.VerseSystem
	}
	if overrides.Verse != "" {
		t.Verse = overrides.Verse
	}
	if overrides.JudgeSystem != "" {
		t.JudgeSystem = overrides.JudgeSystem
	}
	if overrides.Judge != "" {
		t.Judge = overrides.Judge
	}
	slog.Info("Loaded prompt overrides", "path", path)
	return t, nil
}

// VersePromptData is everything the verse templates can reference.
type VersePromptData struct {
	RapperName     string
	OpponentName   string
	Style          string
	RoundNumber    int
	Bio            string
	StyleSnippets  []string
	PreviousVerses []datatypes.PreviousVerse
}

// BuildVersePrompt renders the system and user messages for one verse.
func (t Templates) BuildVersePrompt(data VersePromptData) (system, user string, err error) {
	system, err = render("verse_system", t.VerseSystem, data)
	if err != nil {
		return "", "", err
	}
	user, err = render("verse", t.Verse, data)
	if err != nil {
		return "", "", err
	}
	return system, user, nil
}

// JudgePromptData is everything the judge templates can reference.
type JudgePromptData struct {
	Rapper1Name string
	Rapper2Name string
	RoundNumber int
	Verse1      string
	Verse2      string
}

// BuildJudgePrompt renders the system and user messages for one judgment.
func (t Templates) BuildJudgePrompt(data JudgePromptData) (system, user string, err error) {
	system, err = render("judge_system", t.JudgeSystem, data)
	if err != nil {
		return "", "", err
	}
	user, err = render("judge", t.Judge, data)
	if err != nil {
		return "", "", err
	}
	return system, user, nil
}

func render(name, text string, data any) (string, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("invalid %s template: %w", name, err)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render %s template: %w", name, err)
	}
	return sb.String(), nil
}
