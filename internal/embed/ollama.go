package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

const (
	DefaultOllamaHost  = "http://localhost:11434"
	DefaultOllamaModel = "nomic-embed-text"

	OllamaConnectTimeout = 5 * time.Second
	OllamaPoolSize       = 4
)

// OllamaConfig configures the Ollama embedder, an optional external
// provider for callers that want a stronger model than the static
// fallback and are willing to run (or point at) an Ollama server.
type OllamaConfig struct {
	Host            string
	Model           string
	BatchSize       int
	Timeout         time.Duration
	ConnectTimeout  time.Duration
	PoolSize        int
	SkipHealthCheck bool
}

func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		Host:           DefaultOllamaHost,
		Model:          DefaultOllamaModel,
		BatchSize:      DefaultBatchSize,
		Timeout:        10 * time.Second,
		ConnectTimeout: OllamaConnectTimeout,
		PoolSize:       OllamaPoolSize,
	}
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// OllamaEmbedder generates embeddings via Ollama's HTTP /api/embed
// endpoint. Vectors are projected down to Dimensions when the model's
// native width differs, per the embedding service's project-down rule.
type OllamaEmbedder struct {
	client    *http.Client
	transport *http.Transport
	config    OllamaConfig

	mu     sync.RWMutex
	closed bool
}

var _ Embedder = (*OllamaEmbedder)(nil)

func NewOllamaEmbedder(ctx context.Context, cfg OllamaConfig) (*OllamaEmbedder, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultOllamaHost
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOllamaModel
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = OllamaPoolSize
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.PoolSize,
		MaxIdleConnsPerHost: cfg.PoolSize,
		MaxConnsPerHost:     cfg.PoolSize * 2,
		IdleConnTimeout:     10 * time.Second,
	}
	e := &OllamaEmbedder{
		client:    &http.Client{Transport: transport},
		transport: transport,
		config:    cfg,
	}

	if !cfg.SkipHealthCheck {
		checkCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
		if _, err := e.embedRequest(checkCtx, []string{"ping"}); err != nil {
			transport.CloseIdleConnections()
			return nil, fmt.Errorf("connect to ollama at %s: %w", cfg.Host, err)
		}
	}

	return e, nil
}

func (e *OllamaEmbedder) embedRequest(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: e.config.Model, Input: texts})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.config.Host+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, string(b))
	}

	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}

	vectors := make([][]float32, len(out.Embeddings))
	for i, emb := range out.Embeddings {
		v := make([]float32, len(emb))
		for j, f := range emb {
			v[j] = float32(f)
		}
		vectors[i] = projectDimensions(v)
	}
	return vectors, nil
}

func (e *OllamaEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *OllamaEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("embedder is closed")
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	results := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.config.BatchSize {
		end := i + e.config.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := e.embedRequest(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		results = append(results, batch...)
	}
	return results, nil
}

func (e *OllamaEmbedder) Dimensions() int { return Dimensions }

func (e *OllamaEmbedder) ModelName() string { return "ollama-" + e.config.Model }

func (e *OllamaEmbedder) Available(ctx context.Context) bool {
	checkCtx, cancel := context.WithTimeout(ctx, e.config.ConnectTimeout)
	defer cancel()
	_, err := e.embedRequest(checkCtx, []string{"ping"})
	return err == nil
}

func (e *OllamaEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.transport.CloseIdleConnections()
	return nil
}
