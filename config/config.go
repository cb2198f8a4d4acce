package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the gateway.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Providers ProvidersConfig `yaml:"providers"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

// ProvidersConfig describes the three upstream generation providers and the
// default routing target.
type ProvidersConfig struct {
	Default    string           `yaml:"default"` // "cloud", "aggregator" or "local"
	Cloud      CloudConfig      `yaml:"cloud"`
	Aggregator AggregatorConfig `yaml:"aggregator"`
	Local      LocalConfig      `yaml:"local"`
}

// CloudConfig keys a hosted deployment API by endpoint plus credential.
type CloudConfig struct {
	Endpoint   string `yaml:"endpoint"`
	APIKey     string `yaml:"api_key"`
	APIVersion string `yaml:"api_version"`
}

// AggregatorConfig keys a model-aggregator API by credential alone.
type AggregatorConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Referer  string `yaml:"referer"`
	Title    string `yaml:"title"`
}

// LocalConfig points at a self-hosted OpenAI-compatible endpoint. No
// credential.
type LocalConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// EmbeddingConfig selects and parameterizes the embedding model.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // "local" or "openai"
	Model     string `yaml:"model"`
	Endpoint  string `yaml:"endpoint"`
	APIKeyEnv string `yaml:"api_key_env"`
	Dimension int    `yaml:"dimension"`
	BatchSize int    `yaml:"batch_size"`
}

type RetrievalConfig struct {
	ChunkSize int     `yaml:"chunk_size"`
	TopK      int     `yaml:"top_k"`
	MinScore  float64 `yaml:"min_score"`
}

type LoggingConfig struct {
	Mode string `yaml:"mode"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8000,
		},
		Storage: StorageConfig{
			Path: "krakengpt.db",
		},
		Providers: ProvidersConfig{
			Default: "cloud",
			Cloud: CloudConfig{
				APIVersion: "2024-02-15-preview",
			},
			Aggregator: AggregatorConfig{
				Endpoint: "https://openrouter.ai/api",
				Referer:  "http://localhost:8000",
				Title:    "KrakenGPT",
			},
		},
		Embedding: EmbeddingConfig{
			Provider:  "local",
			Model:     "all-MiniLM-L6-v2",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 384,
			BatchSize: 100,
		},
		Retrieval: RetrievalConfig{
			ChunkSize: 500,
			TopK:      5,
			MinScore:  0.05,
		},
		Logging: LoggingConfig{
			Mode: "dev",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults when
// the file does not exist, then applies environment overrides for
// credentials and endpoints.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setFromEnv(&c.Providers.Cloud.APIKey, "AZURE_API_KEY")
	setFromEnv(&c.Providers.Cloud.Endpoint, "AZURE_ENDPOINT")
	setFromEnv(&c.Providers.Cloud.APIVersion, "AZURE_API_VERSION")
	setFromEnv(&c.Providers.Aggregator.APIKey, "OPENROUTER_API_KEY")
	setFromEnv(&c.Providers.Local.Endpoint, "LOCAL_AI_ENDPOINT")
	setFromEnv(&c.Providers.Default, "KRAKENGPT_PROVIDER")
	setFromEnv(&c.Storage.Path, "KRAKENGPT_DB")
}

func setFromEnv(dst *string, name string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}
