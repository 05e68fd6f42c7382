package llm

import (
	"context"
	"errors"
	"strings"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// ErrEmptyCompletion is returned when the model answered with nothing usable.
var ErrEmptyCompletion = errors.New("llm: empty completion")

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}

// Complete runs one system+user exchange and returns the trimmed text.
// An empty answer is reported as ErrEmptyCompletion so call sites can fall back.
func Complete(ctx context.Context, p LLMProvider, system, user string, temperature float64, maxTokens int) (string, error) {
	history := make([]Message, 0, 2)
	if strings.TrimSpace(system) != "" {
		history = append(history, Message{Role: "system", Content: system})
	}
	history = append(history, Message{Role: "user", Content: user})

	out, err := p.Chat(ctx, history, WithTemperature(temperature), WithMaxTokens(maxTokens))
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", ErrEmptyCompletion
	}
	return out, nil
}

// ExtractJSON cuts the outermost JSON object out of a model answer, dropping
// code fences and chatter around it. Returns "" when no object is present.
func ExtractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return s[start : end+1]
}
