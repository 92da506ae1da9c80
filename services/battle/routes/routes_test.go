// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

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
	// Set Gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

// mockLLMClient is a minimal mock for llm.LLMClient
type mockLLMClient struct{}

func (m *mockLLMClient) Chat(_ context.Context, _ []datatypes.Message, _ llm.GenerationParams) (string, error) {
	return "mock chat response", nil
}

func newTestEngine() *engine.Engine {
	mockLLM := &mockLLMClient{}
	rapperCache := cache.NewRapperCache(cache.DefaultTTL, cache.RealClock())
	generator := verse.NewGenerator(mockLLM, nil, nil, rapperCache, prompts.Defaults())
	battleJudge := judge.NewJudge(mockLLM, prompts.Defaults())
	return engine.NewEngine(store.NewMemoryStore(), generator, battleJudge)
}

func TestSetupRoutes_RegistersCoreRoutes(t *testing.T) {
	router := gin.New()

	// Should not panic when the lyric writer is nil (lightweight mode)
	SetupRoutes(router, newTestEngine(), nil)

	coreRoutes := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/metrics"},
		{"POST", "/v1/battles/with-verses"},
		{"POST", "/v1/battles/complete"},
		{"GET", "/v1/battles"},
		{"GET", "/v1/battles/:battleId"},
		{"POST", "/v1/battles/:battleId/rounds/:roundId/judge"},
		{"POST", "/v1/battles/:battleId/rounds/:roundId/user-judge"},
		{"POST", "/v1/lyrics"},
	}

	routes := router.Routes()
	for _, expected := range coreRoutes {
		found := false
		for _, r := range routes {
			if r.Method == expected.method && r.Path == expected.path {
				found = true
				break
			}
		}
		assert.True(t, found, "route %s %s not registered", expected.method, expected.path)
	}
}

func TestSetupRoutes_HealthEndpoint(t *testing.T) {
	router := gin.New()
	SetupRoutes(router, newTestEngine(), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestSetupRoutes_LyricsWithoutWeaviate(t *testing.T) {
	router := gin.New()
	SetupRoutes(router, newTestEngine(), nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/v1/lyrics", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
