// Package openai adapts the official OpenAI Responses API to llm.LLMProvider.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"ai-review-be/pkg/llm"
)

type OpenAIProvider struct {
	client openai.Client
	model  string
}

var _ llm.LLMProvider = &OpenAIProvider{}

func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIProvider{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (p *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	opts := &llm.Options{
		Model:       p.model,
		MaxTokens:   500,
		Temperature: 0.3,
	}
	for _, o := range options {
		o(opts)
	}

	// System turns become instructions; the rest is flattened into one input.
	var instructions, input strings.Builder
	for _, msg := range history {
		switch msg.Role {
		case "system":
			instructions.WriteString(msg.Content)
			instructions.WriteString("\n")
		case "assistant", "model":
			fmt.Fprintf(&input, "Assistant: %s\n\n", msg.Content)
		default:
			input.WriteString(msg.Content)
			input.WriteString("\n")
		}
	}

	params := responses.ResponseNewParams{
		Model:           opts.Model,
		MaxOutputTokens: openai.Int(int64(opts.MaxTokens)),
		Input:           responses.ResponseNewParamsInputUnion{OfString: openai.String(strings.TrimSpace(input.String()))},
		Temperature:     openai.Float(opts.Temperature),
	}
	if s := strings.TrimSpace(instructions.String()); s != "" {
		params.Instructions = openai.String(s)
	}

	resp, err := p.client.Responses.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai responses api failed: %w", err)
	}
	if resp == nil {
		return "", fmt.Errorf("empty response from openai responses api")
	}
	return resp.OutputText(), nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}
