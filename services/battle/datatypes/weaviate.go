// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import (
	"encoding/json"
	"fmt"

	"github.com/weaviate/weaviate/entities/models"
)

// ParseGraphQLResponse parses a Weaviate GraphQL response into the target
// type via a JSON round-trip. The target type T must have json tags
// matching the response shape; mismatched fields come back as zero values.
func ParseGraphQLResponse[T any](resp *models.GraphQLResponse) (*T, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil GraphQL response")
	}

	respBytes, err := json.Marshal(resp.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL response data: %w", err)
	}

	var result T
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into target type: %w", err)
	}

	return &result, nil
}

// ArtistLyricQueryResponse represents the response from querying the
// ArtistLyric class.
type ArtistLyricQueryResponse struct {
	Get struct {
		ArtistLyric []ArtistLyricResult `json:"ArtistLyric"`
	} `json:"Get"`
}

// ArtistLyricResult represents a single lyric snippet from a query.
type ArtistLyricResult struct {
	Content    string `json:"content"`
	Artist     string `json:"artist"`
	Style      string `json:"style"`
	Source     string `json:"source"`
	Additional struct {
		ID       string   `json:"id"`
		Distance *float32 `json:"distance"`
	} `json:"_additional"`
}

// ArtistLyricProperties represents the properties for creating an
// ArtistLyric object.
type ArtistLyricProperties struct {
	Content string `json:"content" binding:"required"`
	Artist  string `json:"artist"`
	Style   string `json:"style" binding:"required"`
	Source  string `json:"source"`
}

// ToMap converts ArtistLyricProperties to the map format required by
// Weaviate's WithProperties() method.
func (p *ArtistLyricProperties) ToMap() map[string]interface{} {
	return map[string]interface{}{
		"content": p.Content,
		"artist":  p.Artist,
		"style":   p.Style,
		"source":  p.Source,
	}
}
