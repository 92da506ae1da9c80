// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package enrich fetches background material about a rapper before verse
// generation. A missing article is normal (plenty of battle names are
// fictional) and is not an error.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("rageraps.enrich")

// DefaultWikipediaURL is the REST summary API base used when
// WIKIPEDIA_API_URL is unset.
const DefaultWikipediaURL = "https://en.wikipedia.org/api/rest_v1"

// HTTPClient interface allows injecting mock HTTP clients for testing
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Fetcher returns a short biography for a rapper, or "" when none exists.
type Fetcher interface {
	FetchBio(ctx context.Context, name string) (string, error)
}

// WikipediaFetcher pulls page summaries from the Wikipedia REST API.
type WikipediaFetcher struct {
	HTTPClient HTTPClient
	BaseURL    string
}

// NewWikipediaFetcher builds a fetcher against WIKIPEDIA_API_URL, falling
// back to the public English Wikipedia endpoint.
func NewWikipediaFetcher() *WikipediaFetcher {
	baseURL := os.Getenv("WIKIPEDIA_API_URL")
	if baseURL == "" {
		baseURL = DefaultWikipediaURL
	}
	return &WikipediaFetcher{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

type wikipediaSummary struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
}

// FetchBio fetches the summary extract for the given name. A 404 means
// there is no article; that returns ("", nil) so the caller can fall back
// to an unenriched prompt without treating it as a failure.
func (w *WikipediaFetcher) FetchBio(ctx context.Context, name string) (string, error) {
	ctx, span := tracer.Start(ctx, "WikipediaFetcher.FetchBio")
	defer span.End()
	span.SetAttributes(attribute.String("enrich.rapper", name))

	title := url.PathEscape(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
	endpoint := fmt.Sprintf("%s/page/summary/%s", w.BaseURL, title)

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("failed to create Wikipedia request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := w.HTTPClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Warn("Wikipedia request failed", "rapper", name, "error", err)
		return "", fmt.Errorf("Wikipedia request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		slog.Debug("No Wikipedia article for rapper", "rapper", name)
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("Wikipedia returned status %d", resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("failed to read Wikipedia response: %w", err)
	}

	var summary wikipediaSummary
	if err := json.Unmarshal(body, &summary); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("failed to parse Wikipedia response: %w", err)
	}
	return strings.TrimSpace(summary.Extract), nil
}
