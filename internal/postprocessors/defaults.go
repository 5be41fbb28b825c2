package postprocessors

import (
	"github.com/custodia-labs/grimoire/internal/core/domain"
	"github.com/custodia-labs/grimoire/internal/core/ports/driven"
	"github.com/custodia-labs/grimoire/internal/postprocessors/chunker"
	"github.com/custodia-labs/grimoire/internal/postprocessors/dedupe"
)

// RegisterDefaults registers all built-in processors with the registry.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
	r.Register("dedupe", func(map[string]any) (driven.PostProcessor, error) {
		return dedupe.New(), nil
	})
}

// DefaultPipeline builds the chunker + dedupe pipeline with the given limits.
// Non-positive limits fall back to the chunker defaults.
func DefaultPipeline(minChars, maxChars int) (*Pipeline, error) {
	r := NewRegistry()
	RegisterDefaults(r)

	cfg := domain.DefaultPipelineConfig()
	cfg.Processors = append(cfg.Processors, "dedupe")
	if minChars > 0 {
		cfg.ProcessorConfigs["chunker"]["min_chars"] = minChars
	}
	if maxChars > 0 {
		cfg.ProcessorConfigs["chunker"]["max_chars"] = maxChars
	}
	return r.BuildPipeline(cfg)
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - min_chars (int): Merge threshold (default: 1500)
//   - max_chars (int): Chunk size cap (default: 3500)
func buildChunker(cfg map[string]any) (driven.PostProcessor, error) {
	var opts []chunker.Option

	if cfg != nil {
		if n := getIntFromConfig(cfg, "min_chars"); n > 0 {
			opts = append(opts, chunker.WithMinChars(n))
		}
		if n := getIntFromConfig(cfg, "max_chars"); n > 0 {
			opts = append(opts, chunker.WithMaxChars(n))
		}
	}

	return chunker.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
