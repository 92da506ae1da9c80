// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/RageRaps/services/battle/engine"
	"github.com/AleutianAI/RageRaps/services/battle/handlers"
	"github.com/AleutianAI/RageRaps/services/battle/retrieval"
)

func SetupRoutes(router *gin.Engine, battleEngine *engine.Engine, lyricWriter retrieval.LyricWriter) {
	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API version 1 group
	v1 := router.Group("/v1")
	{
		battles := v1.Group("/battles")
		{
			battles.POST("/with-verses", handlers.CreateBattle(battleEngine))
			battles.POST("/complete", handlers.GenerateCompleteBattle(battleEngine))
			battles.GET("", handlers.ListBattles(battleEngine))
			battles.GET("/:battleId", handlers.GetBattle(battleEngine))
			battles.POST("/:battleId/rounds/:roundId/judge", handlers.JudgeRoundAI(battleEngine))
			battles.POST("/:battleId/rounds/:roundId/user-judge", handlers.JudgeRoundUser(battleEngine))
		}
		v1.POST("/lyrics", handlers.CreateLyric(lyricWriter))
	}
}
