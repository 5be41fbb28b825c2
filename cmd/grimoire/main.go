// Command grimoire is a documentation assistant for a scripting DSL.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/grimoire/internal/adapters/driven/ai"
	"github.com/custodia-labs/grimoire/internal/adapters/driven/config/file"
	"github.com/custodia-labs/grimoire/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/grimoire/internal/adapters/driving/cli"
	"github.com/custodia-labs/grimoire/internal/core/services"
	"github.com/custodia-labs/grimoire/internal/logger"
	"github.com/custodia-labs/grimoire/internal/normalisers/markdown"
	"github.com/custodia-labs/grimoire/internal/postprocessors"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetInitializer(initialise)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// initialise opens the index, connects the configured AI providers and
// builds every service the commands use.
func initialise(ctx context.Context, opts cli.Options) (*cli.Services, func(), error) {
	configStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("loading settings: %w", err)
	}

	store, err := sqlite.NewStore(opts.DataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("opening index: %w", err)
	}
	if version, err := store.SchemaVersion(ctx); err == nil {
		logger.Debug("Index: %s (schema v%d)", store.Path(), version)
	}

	prompts, err := file.NewPromptStore(filepath.Join(opts.ConfigDir, "prompts"))
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("opening prompts: %w", err)
	}

	res := &ai.InitResult{
		VectorIndex: store.VectorIndex(),
		PromptStore: prompts,
	}

	res.EmbeddingService, err = ai.CreateAndValidateEmbeddingService(ctx, &settings.Embedding)
	if err != nil {
		res.Warnings = append(res.Warnings, err.Error())
	}
	res.LLMService, err = ai.CreateAndValidateLLMService(ctx, &settings.LLM)
	if err != nil {
		res.Warnings = append(res.Warnings, err.Error())
	}
	for _, w := range res.Warnings {
		logger.Warn("%s", w)
	}

	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	pipeline, err := registry.BuildPipeline(settingsService.GetPipelineConfig())
	if err != nil {
		res.Close()
		store.Close()
		return nil, nil, fmt.Errorf("building pipeline: %w", err)
	}
	logger.Debug("Pipeline: %s", pipeline)

	retrieval := services.NewRetrievalService(res.VectorIndex, res.EmbeddingService, settings.Retrieval, settings.Validator)

	answer := services.NewAnswerService(retrieval, res.LLMService, settings.Retrieval)
	answer.SetPromptStore(res.PromptStore)

	correction := services.NewCorrectionService(retrieval, res.LLMService, settings.Retrieval)
	correction.SetPromptStore(res.PromptStore)

	ingest := services.NewIngestService(markdown.New(), pipeline, res.VectorIndex, res.EmbeddingService, settings.Ingest)
	ingest.SetIngestLog(store.IngestLog())

	svc := &cli.Services{
		Retrieval:  retrieval,
		Validation: services.NewValidationService(retrieval),
		Correction: correction,
		Function:   services.NewFunctionService(retrieval),
		Answer:     answer,
		Ingest:     ingest,
		Stats:      services.NewStatsService(res.VectorIndex, store.IngestLog()),
		Settings:   settingsService,
	}

	cleanup := func() {
		res.Close()
		if err := store.Close(); err != nil {
			logger.Warn("closing index: %v", err)
		}
	}
	return svc, cleanup, nil
}
