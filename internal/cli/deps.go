package cli

import (
	"fmt"
	"os"

	"krakengpt/config"
	"krakengpt/internal/adapter/embedding"
	"krakengpt/internal/adapter/store"
	"krakengpt/internal/port"
)

func buildStore(cfg *config.Config) (*store.BoltStore, error) {
	st, err := store.NewBoltStore(cfg.Storage.Path, cfg.Embedding.Dimension)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", cfg.Storage.Path, err)
	}
	return st, nil
}

func buildEmbedder(cfg *config.Config) (port.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "", "local":
		return embedding.NewLocalEmbedder(cfg.Embedding.Dimension), nil
	case "openai":
		apiKey := os.Getenv(cfg.Embedding.APIKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("embedding api key env %s is not set", cfg.Embedding.APIKeyEnv)
		}
		return embedding.NewOpenAIEmbedder(
			apiKey,
			cfg.Embedding.Model,
			cfg.Embedding.Endpoint,
			cfg.Embedding.Dimension,
			cfg.Embedding.BatchSize,
		), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Embedding.Provider)
	}
}
