// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/RageRaps/services/battle/cache"
	"github.com/AleutianAI/RageRaps/services/battle/datatypes"
	"github.com/AleutianAI/RageRaps/services/battle/engine"
	"github.com/AleutianAI/RageRaps/services/battle/judge"
	"github.com/AleutianAI/RageRaps/services/battle/prompts"
	"github.com/AleutianAI/RageRaps/services/battle/store"
	"github.com/AleutianAI/RageRaps/services/battle/verse"
	"github.com/AleutianAI/RageRaps/services/llm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// mockLLMClient answers every verse prompt with bars and every judge
// prompt with a win for rapper1.
type mockLLMClient struct {
	judgeResponse string
}

func (m *mockLLMClient) Chat(_ context.Context, messages []datatypes.Message, _ llm.GenerationParams) (string, error) {
	for _, msg := range messages {
		if msg.Role == "system" && strings.Contains(msg.Content, "judge") {
			return m.judgeResponse, nil
		}
	}
	return "mock bars", nil
}

func newTestRouter() (*gin.Engine, *engine.Engine) {
	mockLLM := &mockLLMClient{judgeResponse: "Winner: Alice\nAlice took it."}
	rapperCache := cache.NewRapperCache(cache.DefaultTTL, cache.RealClock())
	generator := verse.NewGenerator(mockLLM, nil, nil, rapperCache, prompts.Defaults())
	battleJudge := judge.NewJudge(mockLLM, prompts.Defaults())
	e := engine.NewEngine(store.NewMemoryStore(), generator, battleJudge)

	router := gin.New()
	router.POST("/v1/battles/with-verses", CreateBattle(e))
	router.POST("/v1/battles/complete", GenerateCompleteBattle(e))
	router.GET("/v1/battles", ListBattles(e))
	router.GET("/v1/battles/:battleId", GetBattle(e))
	router.POST("/v1/battles/:battleId/rounds/:roundId/judge", JudgeRoundAI(e))
	router.POST("/v1/battles/:battleId/rounds/:roundId/user-judge", JudgeRoundUser(e))
	return router, e
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createBody() map[string]string {
	return map[string]string{
		"rapper1_name": "Alice",
		"rapper2_name": "Bob",
		"style1":       "boom bap",
		"style2":       "trap",
	}
}

func TestCreateBattle(t *testing.T) {
	router, _ := newTestRouter()

	w := doJSON(router, "POST", "/v1/battles/with-verses", createBody())
	require.Equal(t, http.StatusCreated, w.Code)

	var battle datatypes.Battle
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &battle))
	assert.Equal(t, "Alice", battle.Rapper1Name)
	assert.Equal(t, datatypes.StatusInProgress, battle.Status)
	require.Len(t, battle.Rounds, 1)
	assert.NotNil(t, battle.Rounds[0].Rapper1Verse)
	assert.NotNil(t, battle.Rounds[0].Rapper2Verse)
}

func TestCreateBattle_MissingFields(t *testing.T) {
	router, _ := newTestRouter()

	w := doJSON(router, "POST", "/v1/battles/with-verses", map[string]string{"rapper1_name": "Alice"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGenerateCompleteBattle(t *testing.T) {
	router, _ := newTestRouter()

	w := doJSON(router, "POST", "/v1/battles/complete", createBody())
	require.Equal(t, http.StatusCreated, w.Code)

	var battle datatypes.Battle
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &battle))
	assert.Equal(t, datatypes.StatusCompleted, battle.Status)
	assert.NotEmpty(t, battle.Winner)
	assert.NotEmpty(t, battle.Rounds)
}

func TestGetBattle_NotFound(t *testing.T) {
	router, _ := newTestRouter()

	w := doJSON(router, "GET", "/v1/battles/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetBattle_InvalidID(t *testing.T) {
	router, _ := newTestRouter()

	w := doJSON(router, "GET", "/v1/battles/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListBattles(t *testing.T) {
	router, _ := newTestRouter()
	require.Equal(t, http.StatusCreated, doJSON(router, "POST", "/v1/battles/with-verses", createBody()).Code)

	w := doJSON(router, "GET", "/v1/battles", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Battles []datatypes.Battle `json:"battles"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Battles, 1)
}

func TestJudgeRoundAI(t *testing.T) {
	router, e := newTestRouter()
	battle, err := e.CreateBattleWithVerses(context.Background(), datatypes.BattleCreate{
		Rapper1Name: "Alice", Rapper2Name: "Bob", Style1: "boom bap", Style2: "trap",
	})
	require.NoError(t, err)

	path := fmt.Sprintf("/v1/battles/%s/rounds/%s/judge", battle.ID, battle.Rounds[0].ID)
	w := doJSON(router, "POST", path, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var judged datatypes.Battle
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &judged))
	assert.NotEmpty(t, judged.Rounds[0].Winner)
	assert.Len(t, judged.Rounds, 2)

	// Judging the same round again conflicts.
	w = doJSON(router, "POST", path, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestJudgeRoundUser(t *testing.T) {
	router, e := newTestRouter()
	battle, err := e.CreateBattleWithVerses(context.Background(), datatypes.BattleCreate{
		Rapper1Name: "Alice", Rapper2Name: "Bob", Style1: "boom bap", Style2: "trap",
	})
	require.NoError(t, err)

	path := fmt.Sprintf("/v1/battles/%s/rounds/%s/user-judge", battle.ID, battle.Rounds[0].ID)
	w := doJSON(router, "POST", path, map[string]string{
		"winner":   "Bob",
		"feedback": "Bob's wordplay was sharper.",
		// A mismatched round_id in the body must be ignored.
		"round_id": uuid.NewString(),
	})
	require.Equal(t, http.StatusOK, w.Code)

	var judged datatypes.Battle
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &judged))
	assert.Equal(t, "Bob", judged.Rounds[0].Winner)
	require.NotNil(t, judged.Rounds[0].UserJudgment)
	assert.True(t, *judged.Rounds[0].UserJudgment)
}

func TestJudgeRoundUser_InvalidWinner(t *testing.T) {
	router, e := newTestRouter()
	battle, err := e.CreateBattleWithVerses(context.Background(), datatypes.BattleCreate{
		Rapper1Name: "Alice", Rapper2Name: "Bob", Style1: "boom bap", Style2: "trap",
	})
	require.NoError(t, err)

	path := fmt.Sprintf("/v1/battles/%s/rounds/%s/user-judge", battle.ID, battle.Rounds[0].ID)
	w := doJSON(router, "POST", path, map[string]string{"winner": "Charlie"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJudgeRound_UnknownRound(t *testing.T) {
	router, e := newTestRouter()
	battle, err := e.CreateBattleWithVerses(context.Background(), datatypes.BattleCreate{
		Rapper1Name: "Alice", Rapper2Name: "Bob", Style1: "boom bap", Style2: "trap",
	})
	require.NoError(t, err)

	path := fmt.Sprintf("/v1/battles/%s/rounds/%s/judge", battle.ID, uuid.NewString())
	w := doJSON(router, "POST", path, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
