// Package llm implements adapters for the external LLM extractor
// contract: concept extraction and document summarization. The Ollama
// adapter shares the embed package's HTTP client conventions (same
// server, different endpoint); the heuristic adapter needs no network.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/m2ux/concept-rag-sub002/internal/ingest"
)

const (
	DefaultOllamaHost       = "http://localhost:11434"
	DefaultExtractionModel  = "llama3.2"
	DefaultSummarizeModel   = "llama3.2"
	DefaultOllamaLLMTimeout = 30 * time.Second
)

// OllamaConfig configures the Ollama chat-completion backed extractor.
type OllamaConfig struct {
	Host            string
	ExtractionModel string
	SummarizeModel  string
	Timeout         time.Duration
}

func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		Host:            DefaultOllamaHost,
		ExtractionModel: DefaultExtractionModel,
		SummarizeModel:  DefaultSummarizeModel,
		Timeout:         DefaultOllamaLLMTimeout,
	}
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Format   string              `json:"format,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaChatMessage `json:"message"`
}

// OllamaExtractor implements ingest.LLMExtractor against an Ollama chat
// endpoint, asking the model for a JSON object matching ConceptExtraction's
// fields. Per-chunk extraction uses the heavier model; document summaries
// go to a separate (typically cheaper/faster) one.
type OllamaExtractor struct {
	client *http.Client
	cfg    OllamaConfig
}

var _ ingest.LLMExtractor = (*OllamaExtractor)(nil)

func NewOllamaExtractor(cfg OllamaConfig) *OllamaExtractor {
	if cfg.Host == "" {
		cfg.Host = DefaultOllamaHost
	}
	if cfg.ExtractionModel == "" {
		cfg.ExtractionModel = DefaultExtractionModel
	}
	if cfg.SummarizeModel == "" {
		cfg.SummarizeModel = DefaultSummarizeModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultOllamaLLMTimeout
	}
	return &OllamaExtractor{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
	}
}

func (e *OllamaExtractor) chat(ctx context.Context, model, system, user string) (string, error) {
	req := ollamaChatRequest{
		Model: model,
		Messages: []ollamaChatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Stream: false,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.Host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama chat returned status %d", resp.StatusCode)
	}

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode ollama chat response: %w", err)
	}
	return out.Message.Content, nil
}

const extractionSystemPrompt = `You extract concepts from a passage of text. Respond with ONLY a JSON object of the form {"primary":[...],"technical":[...],"related":[...],"categories":[...]} where each field is a list of short concept names.`

func (e *OllamaExtractor) ExtractConcepts(ctx context.Context, chunkText string) (ingest.ConceptExtraction, error) {
	reply, err := e.chat(ctx, e.cfg.ExtractionModel, extractionSystemPrompt, chunkText)
	if err != nil {
		return ingest.ConceptExtraction{}, err
	}
	var out ingest.ConceptExtraction
	if err := json.Unmarshal([]byte(extractJSONObject(reply)), &out); err != nil {
		return ingest.ConceptExtraction{}, fmt.Errorf("parse concept extraction: %w", err)
	}
	return out, nil
}

const summarizeSystemPrompt = `Summarize the following document in one or two sentences. Respond with only the summary text, no preamble.`

func (e *OllamaExtractor) Summarize(ctx context.Context, documentText string) (string, error) {
	reply, err := e.chat(ctx, e.cfg.SummarizeModel, summarizeSystemPrompt, documentText)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// extractJSONObject trims any leading/trailing prose a chat model adds
// around the JSON object it was asked to return verbatim.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < 0 || end < start {
		return "{}"
	}
	return s[start : end+1]
}
