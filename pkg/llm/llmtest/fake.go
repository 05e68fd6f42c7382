// Package llmtest provides a scripted llm.LLMProvider for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	"ai-review-be/pkg/llm"
)

// ErrScripted is returned by Fake.Fail.
var ErrScripted = errors.New("llmtest: scripted failure")

// Fake answers from Reply, or from the queued Script entries first. Every call
// is recorded.
type Fake struct {
	mu     sync.Mutex
	Reply  func(history []llm.Message) (string, error)
	Script []Step
	calls  [][]llm.Message
}

type Step struct {
	Text string
	Err  error
}

var _ llm.LLMProvider = &Fake{}

// Returning always answers text.
func Returning(text string) *Fake {
	return &Fake{Reply: func([]llm.Message) (string, error) { return text, nil }}
}

// Failing always errors.
func Failing() *Fake {
	return &Fake{Reply: func([]llm.Message) (string, error) { return "", ErrScripted }}
}

func (f *Fake) Chat(ctx context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, history)
	var step *Step
	if len(f.Script) > 0 {
		s := f.Script[0]
		f.Script = f.Script[1:]
		step = &s
	}
	reply := f.Reply
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if step != nil {
		return step.Text, step.Err
	}
	if reply == nil {
		return "", ErrScripted
	}
	return reply(history)
}

func (f *Fake) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// LastUserPrompt returns the user message of the most recent call.
func (f *Fake) LastUserPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return ""
	}
	last := f.calls[len(f.calls)-1]
	for i := len(last) - 1; i >= 0; i-- {
		if last[i].Role == "user" {
			return last[i].Content
		}
	}
	return ""
}
