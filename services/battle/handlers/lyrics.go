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
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/RageRaps/services/battle/datatypes"
	"github.com/AleutianAI/RageRaps/services/battle/retrieval"
)

// CreateLyric seeds one lyric snippet into the style store. Returns 503
// when the service runs without Weaviate.
func CreateLyric(writer retrieval.LyricWriter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if writer == nil {
			c.JSON(http.StatusServiceUnavailable,
				gin.H{"error": "lyric store is not configured"})
			return
		}
		var props datatypes.ArtistLyricProperties
		if err := c.ShouldBindJSON(&props); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		id, err := writer.AddLyric(c.Request.Context(), props)
		if err != nil {
			slog.Error("Failed to store lyric snippet", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store lyric"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": id, "style": props.Style})
	}
}
