// Package config implements the layered configuration loader: hardcoded
// defaults, overridden by a YAML file, overridden by environment variables,
// validated before use. It covers what the retrieval engine needs: signal weights per
// search service, resilience profile knobs, cache sizing, and embedding
// provider selection.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// WeightProfile is the five hybrid-scorer signal weights for one search
// service. Weights must sum to 1.0 within tolerance (see Validate).
type WeightProfile struct {
	Vector  float64 `yaml:"vector" json:"vector"`
	BM25    float64 `yaml:"bm25" json:"bm25"`
	Title   float64 `yaml:"title" json:"title"`
	Concept float64 `yaml:"concept" json:"concept"`
	Lexical float64 `yaml:"lexical" json:"lexical"`
}

func (w WeightProfile) sum() float64 {
	return w.Vector + w.BM25 + w.Title + w.Concept + w.Lexical
}

// WeightsConfig carries one weight profile per search service. Broad chunk
// search, chunk-in-source search, and concept search share the production
// default; catalog search has its own profile reflecting a stronger
// filename/title signal.
type WeightsConfig struct {
	Default WeightProfile `yaml:"default" json:"default"`
	Catalog WeightProfile `yaml:"catalog" json:"catalog"`
}

// DefaultWeights returns the production-validated signal balance.
func DefaultWeights() WeightsConfig {
	return WeightsConfig{
		Default: WeightProfile{Vector: 0.25, BM25: 0.25, Title: 0.20, Concept: 0.20, Lexical: 0.10},
		Catalog: WeightProfile{Vector: 0.25, BM25: 0.20, Title: 0.30, Concept: 0.20, Lexical: 0.05},
	}
}

// ResilienceProfile configures the bulkhead/breaker/timeout/retry envelope
// for one kind of external call.
type ResilienceProfile struct {
	BulkheadMaxConcurrent int           `yaml:"bulkhead_max_concurrent" json:"bulkhead_max_concurrent"`
	BulkheadQueueSize     int           `yaml:"bulkhead_queue_size" json:"bulkhead_queue_size"`
	BreakerFailureThreshold int         `yaml:"breaker_failure_threshold" json:"breaker_failure_threshold"`
	BreakerCooldown       time.Duration `yaml:"breaker_cooldown" json:"breaker_cooldown"`
	BreakerSuccessThreshold int         `yaml:"breaker_success_threshold" json:"breaker_success_threshold"`
	Timeout               time.Duration `yaml:"timeout" json:"timeout"`
	RetryMaxAttempts      int           `yaml:"retry_max_attempts" json:"retry_max_attempts"`
	RetryBaseDelay        time.Duration `yaml:"retry_base_delay" json:"retry_base_delay"`
}

// ResilienceConfig carries one profile per external-collaborator kind.
type ResilienceConfig struct {
	LLM       ResilienceProfile `yaml:"llm" json:"llm"`
	Embedding ResilienceProfile `yaml:"embedding" json:"embedding"`
	DB        ResilienceProfile `yaml:"db" json:"db"`
}

// DefaultResilience returns the per-collaborator resilience profiles.
func DefaultResilience() ResilienceConfig {
	return ResilienceConfig{
		LLM: ResilienceProfile{
			BulkheadMaxConcurrent: 5, BulkheadQueueSize: 10,
			BreakerFailureThreshold: 5, BreakerCooldown: 60 * time.Second, BreakerSuccessThreshold: 2,
			Timeout: 30 * time.Second, RetryMaxAttempts: 3, RetryBaseDelay: 200 * time.Millisecond,
		},
		Embedding: ResilienceProfile{
			BulkheadMaxConcurrent: 8, BulkheadQueueSize: 16,
			BreakerFailureThreshold: 5, BreakerCooldown: 60 * time.Second, BreakerSuccessThreshold: 2,
			Timeout: 10 * time.Second, RetryMaxAttempts: 3, RetryBaseDelay: 100 * time.Millisecond,
		},
		DB: ResilienceProfile{
			BulkheadMaxConcurrent: 16, BulkheadQueueSize: 32,
			BreakerFailureThreshold: 5, BreakerCooldown: 30 * time.Second, BreakerSuccessThreshold: 2,
			Timeout: 3 * time.Second, RetryMaxAttempts: 2, RetryBaseDelay: 50 * time.Millisecond,
		},
	}
}

// CacheConfig sizes and TTLs the two specialized caches.
type CacheConfig struct {
	SearchMaxSize    int           `yaml:"search_max_size" json:"search_max_size"`
	SearchTTL        time.Duration `yaml:"search_ttl" json:"search_ttl"`
	EmbeddingMaxSize int           `yaml:"embedding_max_size" json:"embedding_max_size"`
}

// DefaultCache returns the default cache bounds and TTLs.
func DefaultCache() CacheConfig {
	return CacheConfig{
		SearchMaxSize:    1000,
		SearchTTL:        5 * time.Minute,
		EmbeddingMaxSize: 10000,
	}
}

// EmbeddingsConfig selects and sizes the embedding provider.
type EmbeddingsConfig struct {
	Provider   string `yaml:"provider" json:"provider"` // "static" or "ollama"
	Model      string `yaml:"model" json:"model"`
	Dimensions int    `yaml:"dimensions" json:"dimensions"`
	BatchSize  int    `yaml:"batch_size" json:"batch_size"`
	OllamaHost string `yaml:"ollama_host" json:"ollama_host"`
}

// ServerConfig configures the MCP server's log level and debug mode.
type ServerConfig struct {
	LogLevel string `yaml:"log_level" json:"log_level"`
	Debug    bool   `yaml:"debug" json:"debug"`
}

// IngestConfig configures chunking and the stage cache.
type IngestConfig struct {
	ChunkTargetWords int           `yaml:"chunk_target_words" json:"chunk_target_words"`
	ChunkOverlapWords int          `yaml:"chunk_overlap_words" json:"chunk_overlap_words"`
	StageCacheTTL    time.Duration `yaml:"stage_cache_ttl" json:"stage_cache_ttl"`
}

// DefaultIngest returns the ingestion defaults (100-500 words/chunk,
// 7-day stage cache TTL).
func DefaultIngest() IngestConfig {
	return IngestConfig{ChunkTargetWords: 300, ChunkOverlapWords: 50, StageCacheTTL: 7 * 24 * time.Hour}
}

// Config is the complete, validated configuration for one data root.
type Config struct {
	DataRoot   string            `yaml:"data_root" json:"data_root"`
	Weights    WeightsConfig     `yaml:"weights" json:"weights"`
	Resilience ResilienceConfig  `yaml:"resilience" json:"resilience"`
	Cache      CacheConfig       `yaml:"cache" json:"cache"`
	Embeddings EmbeddingsConfig  `yaml:"embeddings" json:"embeddings"`
	Server     ServerConfig      `yaml:"server" json:"server"`
	Ingest     IngestConfig      `yaml:"ingest" json:"ingest"`
}

// New returns a Config with every default applied and no data root set.
func New() *Config {
	return &Config{
		Weights:    DefaultWeights(),
		Resilience: DefaultResilience(),
		Cache:      DefaultCache(),
		Embeddings: EmbeddingsConfig{Provider: "", Model: "static-v1", Dimensions: 384, BatchSize: 32},
		Server:     ServerConfig{LogLevel: "info"},
		Ingest:     DefaultIngest(),
	}
}

// Load reads defaults, then <dataRoot>/config.yaml if present, then
// EMBEDDING_PROVIDER and CONCEPTRAG_* environment variables, then validates. dataRoot is always
// set on the returned Config regardless of whether a file was found.
func Load(dataRoot string) (*Config, error) {
	cfg := New()
	cfg.DataRoot = dataRoot

	path := filepath.Join(dataRoot, "config.yaml")
	if data, err := os.ReadFile(path); err == nil {
		var parsed Config
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
		cfg.mergeWith(&parsed)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) mergeWith(other *Config) {
	if other.Weights.Default.sum() > 0 {
		c.Weights.Default = other.Weights.Default
	}
	if other.Weights.Catalog.sum() > 0 {
		c.Weights.Catalog = other.Weights.Catalog
	}
	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.Dimensions != 0 {
		c.Embeddings.Dimensions = other.Embeddings.Dimensions
	}
	if other.Embeddings.BatchSize != 0 {
		c.Embeddings.BatchSize = other.Embeddings.BatchSize
	}
	if other.Embeddings.OllamaHost != "" {
		c.Embeddings.OllamaHost = other.Embeddings.OllamaHost
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
	if other.Server.Debug {
		c.Server.Debug = true
	}
	if other.Cache.SearchMaxSize != 0 {
		c.Cache.SearchMaxSize = other.Cache.SearchMaxSize
	}
	if other.Cache.SearchTTL != 0 {
		c.Cache.SearchTTL = other.Cache.SearchTTL
	}
	if other.Cache.EmbeddingMaxSize != 0 {
		c.Cache.EmbeddingMaxSize = other.Cache.EmbeddingMaxSize
	}
	if other.Ingest.ChunkTargetWords != 0 {
		c.Ingest.ChunkTargetWords = other.Ingest.ChunkTargetWords
	}
	if other.Ingest.ChunkOverlapWords != 0 {
		c.Ingest.ChunkOverlapWords = other.Ingest.ChunkOverlapWords
	}
	if other.Ingest.StageCacheTTL != 0 {
		c.Ingest.StageCacheTTL = other.Ingest.StageCacheTTL
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("EMBEDDING_PROVIDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("CONCEPTRAG_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("CONCEPTRAG_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("CONCEPTRAG_DEBUG"); v != "" {
		c.Server.Debug = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("CONCEPTRAG_SEARCH_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Cache.SearchMaxSize = n
		}
	}
}

// Validate checks that every weight profile sums to 1.0 within tolerance
// and that resilience thresholds are positive.
func (c *Config) Validate() error {
	for name, w := range map[string]WeightProfile{"default": c.Weights.Default, "catalog": c.Weights.Catalog} {
		if math.Abs(w.sum()-1.0) > 0.01 {
			return fmt.Errorf("weights.%s must sum to 1.0, got %.3f", name, w.sum())
		}
	}
	for name, p := range map[string]ResilienceProfile{"llm": c.Resilience.LLM, "embedding": c.Resilience.Embedding, "db": c.Resilience.DB} {
		if p.BreakerFailureThreshold <= 0 || p.BulkheadMaxConcurrent <= 0 || p.Timeout <= 0 || p.RetryMaxAttempts <= 0 {
			return fmt.Errorf("resilience.%s has a non-positive threshold", name)
		}
	}
	if c.Embeddings.Dimensions != 384 {
		return fmt.Errorf("embeddings.dimensions must be 384, got %d", c.Embeddings.Dimensions)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be debug/info/warn/error, got %s", c.Server.LogLevel)
	}
	return nil
}

// WriteYAML writes c to path (used by `conceptrag init` style flows).
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
