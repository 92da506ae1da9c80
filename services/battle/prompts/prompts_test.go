// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package prompts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/RageRaps/services/battle/datatypes"
)

func TestBuildVersePrompt(t *testing.T) {
	system, user, err := Defaults().BuildVersePrompt(VersePromptData{
		RapperName:    "MC Fortran",
		OpponentName:  "DJ COBOL",
		Style:         "old school",
		RoundNumber:   2,
		Bio:           "A compiled-language pioneer.",
		StyleSnippets: []string{"punch cards in my pocket"},
		PreviousVerses: []datatypes.PreviousVerse{
			{RapperName: "MC Fortran", Content: "loop unrolled"},
			{RapperName: "DJ COBOL", Content: "divisions performed"},
		},
	})
	require.NoError(t, err)

	assert.Contains(t, system, "MC Fortran")
	assert.Contains(t, system, "old school")
	assert.Contains(t, user, "round 2 of 3")
	assert.Contains(t, user, "A compiled-language pioneer.")
	assert.Contains(t, user, "punch cards in my pocket")
	assert.Contains(t, user, "[DJ COBOL]")
	assert.Contains(t, user, "divisions performed")
}

func TestBuildVersePrompt_OmitsEmptySections(t *testing.T) {
	_, user, err := Defaults().BuildVersePrompt(VersePromptData{
		RapperName:   "MC Fortran",
		OpponentName: "DJ COBOL",
		Style:        "trap",
		RoundNumber:  1,
	})
	require.NoError(t, err)

	assert.NotContains(t, user, "Background on you")
	assert.NotContains(t, user, "inspiration")
	assert.NotContains(t, user, "The battle so far")
}

func TestBuildJudgePrompt(t *testing.T) {
	system, user, err := Defaults().BuildJudgePrompt(JudgePromptData{
		Rapper1Name: "Alice",
		Rapper2Name: "Bob",
		RoundNumber: 3,
		Verse1:      "alice bars",
		Verse2:      "bob bars",
	})
	require.NoError(t, err)

	assert.Contains(t, system, "impartial")
	assert.Contains(t, user, "Round 3")
	assert.Contains(t, user, "[Alice]\nalice bars")
	assert.Contains(t, user, "[Bob]\nbob bars")
	assert.Contains(t, user, "Winner: <name>")
}

func TestLoad_NoOverrideFile(t *testing.T) {
	t.Setenv("RAGERAPS_PROMPTS_FILE", "")

	tmpl, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), tmpl)
}

func TestLoad_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("judge_system: custom judge\n"), 0o644))
	t.Setenv("RAGERAPS_PROMPTS_FILE", path)

	tmpl, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "custom judge", tmpl.JudgeSystem)
	assert.Equal(t, Defaults().Verse, tmpl.Verse)
}

func TestLoad_MissingFileFails(t *testing.T) {
	t.Setenv("RAGERAPS_PROMPTS_FILE", "/nonexistent/prompts.yaml")

	_, err := Load()
	assert.Error(t, err)
}
