// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers holds the gin handlers for the battle API. Handlers do
// request parsing and status mapping only; all battle semantics live in
// the engine.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/RageRaps/services/battle/datatypes"
	"github.com/AleutianAI/RageRaps/services/battle/engine"
	"github.com/AleutianAI/RageRaps/services/battle/store"
)

// respondError maps engine and store errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrBattleNotFound),
		errors.Is(err, engine.ErrRoundNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrRoundAlreadyJudged),
		errors.Is(err, engine.ErrBattleCompleted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrInvalidWinner),
		errors.Is(err, engine.ErrVersesMissing),
		errors.Is(err, engine.ErrInvalidRoundNumber):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		slog.Error("Battle request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// CreateBattle starts a battle with round-one verses generated.
func CreateBattle(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var data datatypes.BattleCreate
		if err := c.ShouldBindJSON(&data); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.Info("Received request to create battle",
			"rapper1", data.Rapper1Name, "rapper2", data.Rapper2Name)

		battle, err := e.CreateBattleWithVerses(c.Request.Context(), data)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, battle)
	}
}

// GenerateCompleteBattle runs a full battle, all rounds AI-judged, in one
// request.
func GenerateCompleteBattle(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var data datatypes.BattleCreate
		if err := c.ShouldBindJSON(&data); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.Info("Received request to generate complete battle",
			"rapper1", data.Rapper1Name, "rapper2", data.Rapper2Name)

		battle, err := e.GenerateCompleteBattle(c.Request.Context(), data)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, battle)
	}
}

// ListBattles returns every battle, newest first.
func ListBattles(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		battles, err := e.ListBattles(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"battles": battles})
	}
}

// GetBattle returns one battle by ID.
func GetBattle(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		battleID, err := uuid.Parse(c.Param("battleId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid battle id"})
			return
		}
		battle, err := e.GetBattle(c.Request.Context(), battleID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, battle)
	}
}

// JudgeRoundAI asks the AI judge to score one round.
func JudgeRoundAI(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		battleID, err := uuid.Parse(c.Param("battleId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid battle id"})
			return
		}
		roundID, err := uuid.Parse(c.Param("roundId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid round id"})
			return
		}
		slog.Info("Received request for AI judgment",
			"battle_id", battleID, "round_id", roundID)

		battle, err := e.JudgeRoundAI(c.Request.Context(), battleID, roundID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, battle)
	}
}

// JudgeRoundUser records the user's own judgment for one round. The round
// comes from the path; a round_id in the body is ignored.
func JudgeRoundUser(e *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		battleID, err := uuid.Parse(c.Param("battleId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid battle id"})
			return
		}
		roundID, err := uuid.Parse(c.Param("roundId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid round id"})
			return
		}
		var judgment datatypes.JudgmentCreate
		if err := c.ShouldBindJSON(&judgment); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		judgment.RoundID = roundID
		slog.Info("Received user judgment",
			"battle_id", battleID, "round_id", roundID, "winner", judgment.Winner)

		battle, err := e.JudgeRoundUser(c.Request.Context(), battleID, judgment)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, battle)
	}
}
