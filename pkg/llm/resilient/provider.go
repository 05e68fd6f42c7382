// Package resilient bounds every model call with a timeout and a retry budget.
package resilient

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"

	"ai-review-be/pkg/llm"
)

type Provider struct {
	inner       llm.LLMProvider
	callTimeout time.Duration
	retryConfig retry.Config
}

var _ llm.LLMProvider = &Provider{}

// New wraps inner. Each Chat runs under callTimeout in total, retries included.
func New(inner llm.LLMProvider, callTimeout time.Duration, maxAttempts int) *Provider {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if callTimeout <= 0 {
		callTimeout = 20 * time.Second
	}
	return &Provider{
		inner:       inner,
		callTimeout: callTimeout,
		retryConfig: retry.Config{
			MaxAttempts:   maxAttempts,
			InitialDelay:  200 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	r := retry.New[string](p.retryConfig)
	t := timeout.New[string](timeout.Config{DefaultTimeout: p.callTimeout})

	return t.Execute(ctx, p.callTimeout, func(ctx context.Context) (string, error) {
		return r.Do(ctx, func(ctx context.Context) (string, error) {
			return p.inner.Chat(ctx, history, options...)
		})
	})
}

func (p *Provider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}
