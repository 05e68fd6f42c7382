package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProvider struct {
	history []Message
	opts    Options
	reply   string
	err     error
}

func (p *recordingProvider) Chat(_ context.Context, history []Message, options ...Option) (string, error) {
	p.history = history
	for _, o := range options {
		o(&p.opts)
	}
	return p.reply, p.err
}

func (p *recordingProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return p.Chat(ctx, []Message{{Role: "user", Content: prompt}}, options...)
}

func TestComplete(t *testing.T) {
	p := &recordingProvider{reply: "  안녕하세요  "}
	out, err := Complete(context.Background(), p, "sys", "hi", 0.2, 120)
	require.NoError(t, err)
	assert.Equal(t, "안녕하세요", out)
	require.Len(t, p.history, 2)
	assert.Equal(t, "system", p.history[0].Role)
	assert.Equal(t, 0.2, p.opts.Temperature)
	assert.Equal(t, 120, p.opts.MaxTokens)
}

func TestComplete_NoSystemPrompt(t *testing.T) {
	p := &recordingProvider{reply: "ok"}
	_, err := Complete(context.Background(), p, "", "hi", 0, 10)
	require.NoError(t, err)
	assert.Len(t, p.history, 1)
}

func TestComplete_Errors(t *testing.T) {
	_, err := Complete(context.Background(), &recordingProvider{reply: "   "}, "", "hi", 0, 10)
	assert.ErrorIs(t, err, ErrEmptyCompletion)

	boom := errors.New("boom")
	_, err = Complete(context.Background(), &recordingProvider{err: boom}, "", "hi", 0, 10)
	assert.ErrorIs(t, err, boom)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"ok":true}`, `{"ok":true}`},
		{"fenced", "```json\n{\"ok\":false}\n```", `{"ok":false}`},
		{"chatter", `Sure! {"a":{"b":1}} hope it helps`, `{"a":{"b":1}}`},
		{"none", "no json here", ""},
		{"reversed", "} {", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.in))
		})
	}
}
