// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package retrieval finds lyric snippets in Weaviate that match a requested
// rap style. Snippets are seeded through the lyrics endpoint and pulled into
// verse prompts as stylistic grounding.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"go.opentelemetry.io/otel"

	"github.com/AleutianAI/RageRaps/services/battle/datatypes"
)

var tracer = otel.Tracer("rageraps.retrieval")

// SnippetSearcher retrieves stylistic lyric snippets for verse prompts.
type SnippetSearcher interface {
	SearchStyleSnippets(ctx context.Context, style string, limit int) ([]string, error)
}

// LyricWriter stores a seeded lyric snippet.
type LyricWriter interface {
	AddLyric(ctx context.Context, props datatypes.ArtistLyricProperties) (string, error)
}

// WeaviateArtistSearcher implements SnippetSearcher and LyricWriter against
// the ArtistLyric class. Safe for concurrent use; the underlying Weaviate
// client handles connection pooling.
type WeaviateArtistSearcher struct {
	client *weaviate.Client
}

// NewWeaviateArtistSearcher creates a searcher over the given client.
func NewWeaviateArtistSearcher(client *weaviate.Client) *WeaviateArtistSearcher {
	return &WeaviateArtistSearcher{client: client}
}

// GetArtistLyricSchema returns the schema for the ArtistLyric class.
func GetArtistLyricSchema() *models.Class {
	indexFilterable := new(bool)
	*indexFilterable = true

	return &models.Class{
		Class:       "ArtistLyric",
		Description: "A lyric snippet attributed to an artist and a rap style.",
		Vectorizer:  "none",
		InvertedIndexConfig: &models.InvertedIndexConfig{
			IndexTimestamps: true,
		},
		Properties: []*models.Property{
			{
				Name:         "content",
				DataType:     []string{"text"},
				Description:  "The lyric snippet text.",
				Tokenization: "word",
			},
			{
				Name:            "artist",
				DataType:        []string{"text"},
				Description:     "The artist the snippet is attributed to.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "style",
				DataType:        []string{"text"},
				Description:     "The rap style label (e.g., 'boom bap', 'trap').",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
			{
				Name:            "source",
				DataType:        []string{"text"},
				Description:     "Where the snippet was seeded from.",
				IndexFilterable: indexFilterable,
				Tokenization:    "field",
			},
		},
	}
}

// EnsureSchema creates the ArtistLyric class if it does not exist yet.
func EnsureSchema(ctx context.Context, client *weaviate.Client) error {
	class := GetArtistLyricSchema()
	slog.Info("Checking schema", "class", class.Class)

	// The class getter errors when the class is absent; that is our cue
	// to create it.
	_, err := client.Schema().ClassGetter().WithClassName(class.Class).Do(ctx)
	if err == nil {
		slog.Info("Schema already exists", "class", class.Class)
		return nil
	}

	slog.Info("Schema not found, creating it...", "class", class.Class)
	if err := client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("failed to create schema for class %s: %w", class.Class, err)
	}
	slog.Info("Successfully created schema", "class", class.Class)
	return nil
}

// SearchStyleSnippets returns up to limit snippet contents near the style
// description, restricted to snippets labeled with that style.
func (w *WeaviateArtistSearcher) SearchStyleSnippets(ctx context.Context, style string, limit int) ([]string, error) {
	ctx, span := tracer.Start(ctx, "WeaviateArtistSearcher.SearchStyleSnippets")
	defer span.End()

	if limit <= 0 {
		limit = 3
	}

	nearText := w.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{style + " rap lyrics"})

	where := filters.Where().
		WithPath([]string{"style"}).
		WithOperator(filters.Equal).
		WithValueString(style)

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "artist"},
		{Name: "style"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "id"}, {Name: "distance"}}},
	}

	resp, err := w.client.GraphQL().Get().
		WithClassName("ArtistLyric").
		WithNearText(nearText).
		WithWhere(where).
		WithFields(fields...).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("error querying for style snippets: %w", err)
	}

	parsed, err := datatypes.ParseGraphQLResponse[datatypes.ArtistLyricQueryResponse](resp)
	if err != nil {
		return nil, err
	}

	snippets := make([]string, 0, len(parsed.Get.ArtistLyric))
	for _, lyric := range parsed.Get.ArtistLyric {
		if lyric.Content != "" {
			snippets = append(snippets, lyric.Content)
		}
	}
	slog.Debug("Retrieved style snippets", "style", style, "count", len(snippets))
	return snippets, nil
}

// AddLyric stores one seeded snippet and returns its Weaviate UUID.
func (w *WeaviateArtistSearcher) AddLyric(ctx context.Context, props datatypes.ArtistLyricProperties) (string, error) {
	ctx, span := tracer.Start(ctx, "WeaviateArtistSearcher.AddLyric")
	defer span.End()

	created, err := w.client.Data().Creator().
		WithClassName("ArtistLyric").
		WithProperties(props.ToMap()).
		Do(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to store lyric snippet: %w", err)
	}
	return string(created.Object.ID), nil
}
