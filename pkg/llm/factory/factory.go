package factory

import (
	"ai-review-be/pkg/llm"
	"ai-review-be/pkg/llm/huggingface"
	"ai-review-be/pkg/llm/ollama"
	"ai-review-be/pkg/llm/openai"
	"ai-review-be/pkg/llm/resilient"
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Provider    string
	Model       string
	BaseURL     string
	APIKey      string
	Timeout     time.Duration
	MaxAttempts int
}

// NewLLMProvider builds the configured backend wrapped with timeout and retry.
func NewLLMProvider(cfg Config) (llm.LLMProvider, error) {
	var inner llm.LLMProvider
	switch strings.ToLower(cfg.Provider) {
	case "ollama", "":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		inner = ollama.NewOllamaProvider(baseURL, cfg.Model)
	case "huggingface", "hf":
		inner = huggingface.NewHuggingFaceProvider(cfg.APIKey, cfg.BaseURL, cfg.Model)
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an api key")
		}
		inner = openai.NewOpenAIProvider(cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
	return resilient.New(inner, cfg.Timeout, cfg.MaxAttempts), nil
}
