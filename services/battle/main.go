// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"log"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/RageRaps/services/battle/cache"
	"github.com/AleutianAI/RageRaps/services/battle/engine"
	"github.com/AleutianAI/RageRaps/services/battle/enrich"
	"github.com/AleutianAI/RageRaps/services/battle/judge"
	"github.com/AleutianAI/RageRaps/services/battle/prompts"
	"github.com/AleutianAI/RageRaps/services/battle/retrieval"
	"github.com/AleutianAI/RageRaps/services/battle/routes"
	"github.com/AleutianAI/RageRaps/services/battle/store"
	"github.com/AleutianAI/RageRaps/services/battle/verse"
	"github.com/AleutianAI/RageRaps/services/llm"

	// --- OpenTelemetry imports ---
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
)

func initTracer() (func(context.Context), error) {
	ctx := context.Background()

	otelEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otelEndpoint == "" {
		otelEndpoint = "rageraps-otel-collector:4317"
	}
	conn, err := grpc.NewClient(otelEndpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("battle-service")))
	if err != nil {
		return nil, err
	}
	bsp := sdktrace.NewBatchSpanProcessor(traceExporter)
	traceProvider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(bsp))
	otel.SetTracerProvider(traceProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.
		TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, time.Second*5)
		defer cancel()
		if err := traceExporter.Shutdown(ctx); err != nil {
			slog.Error("failed to shutdown OTLP exporter", "error", err)
		}
	}, nil
}

// connectWeaviate returns nil when the service should run without style
// retrieval (lightweight mode).
func connectWeaviate() *weaviate.Client {
	weaviateURL := os.Getenv("WEAVIATE_SERVICE_URL")
	// Sanitize: Trim quotes and whitespace just in case Podman passes them literally
	weaviateURL = strings.Trim(weaviateURL, "\"' ")

	if weaviateURL == "" || !strings.Contains(weaviateURL, "http") {
		slog.Info("WEAVIATE_SERVICE_URL not set or empty. Running in lightweight mode (no style snippets).")
		return nil
	}

	parsedURL, err := url.Parse(weaviateURL)
	if err != nil || parsedURL.Scheme == "" || parsedURL.Host == "" {
		slog.Warn("WEAVIATE_SERVICE_URL is invalid. Running in lightweight mode.",
			"url", weaviateURL, "error", err)
		return nil
	}

	client, err := weaviate.NewClient(weaviate.Config{
		Host:   parsedURL.Host,
		Scheme: parsedURL.Scheme,
	})
	if err != nil {
		slog.Error("Failed to create Weaviate client", "error", err)
		return nil
	}
	if err := retrieval.EnsureSchema(context.Background(), client); err != nil {
		log.Fatalf("Failed to ensure Weaviate schema: %v", err)
	}
	return client
}

func cacheTTL() time.Duration {
	raw := os.Getenv("BATTLE_CACHE_TTL_HOURS")
	if raw == "" {
		return cache.DefaultTTL
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours <= 0 {
		slog.Warn("Invalid BATTLE_CACHE_TTL_HOURS, using default", "value", raw)
		return cache.DefaultTTL
	}
	return time.Duration(hours) * time.Hour
}

func main() {
	port := os.Getenv("BATTLE_PORT")
	if port == "" {
		port = "12305"
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// --- Init the tracer ---
	cleanup, err := initTracer()
	if err != nil {
		log.Fatalf("failed to setup the OTLP tracer: %v", err)
	}
	defer cleanup(context.Background())

	log.Println("Configuring the LLM Client")
	var llmClient llm.LLMClient
	switch os.Getenv("LLM_BACKEND_TYPE") {
	case "openai":
		llmClient, err = llm.NewOpenAIClient()
		slog.Info("Using OpenAI LLM backend")
	case "ollama":
		llmClient, err = llm.NewOllamaClient()
		slog.Info("Using Ollama LLM backend")
	default:
		slog.Warn("LLM_BACKEND_TYPE not set or invalid, defaulting to ollama")
		llmClient, err = llm.NewOllamaClient()
	}
	if err != nil {
		log.Fatalf("Failed to initialize LLM client: %v", err)
	}

	templates, err := prompts.Load()
	if err != nil {
		log.Fatalf("Failed to load prompt templates: %v", err)
	}

	weaviateClient := connectWeaviate()
	var searcher retrieval.SnippetSearcher
	var lyricWriter retrieval.LyricWriter
	if weaviateClient != nil {
		artistSearcher := retrieval.NewWeaviateArtistSearcher(weaviateClient)
		searcher = artistSearcher
		lyricWriter = artistSearcher
	}

	rapperCache := cache.NewRapperCache(cacheTTL(), cache.RealClock())
	generator := verse.NewGenerator(llmClient, enrich.NewWikipediaFetcher(), searcher, rapperCache, templates)
	battleJudge := judge.NewJudge(llmClient, templates)
	battleEngine := engine.NewEngine(store.NewMemoryStore(), generator, battleJudge)

	router := gin.Default()
	router.Use(otelgin.Middleware("battle-service"))

	routes.SetupRoutes(router, battleEngine, lyricWriter)
	log.Println("started up the container")

	log.Println("Starting the battle server on port ", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
