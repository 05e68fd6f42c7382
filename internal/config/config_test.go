package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("INTERVIEW_REASK_LIMIT", "")
	t.Setenv("LLM_TIMEOUT", "")

	cfg := Load()

	assert.Equal(t, 3, cfg.Interview.ReaskLimit)
	assert.Equal(t, 20*time.Second, cfg.Ai.Timeout)
	assert.Equal(t, 4, cfg.Interview.SufficientSlots)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("INTERVIEW_REASK_LIMIT", "5")
	t.Setenv("LLM_TIMEOUT", "7")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("GO_ENV", "production")

	cfg := Load()

	assert.Equal(t, 5, cfg.Interview.ReaskLimit)
	assert.Equal(t, 7*time.Second, cfg.Ai.Timeout)
	assert.Equal(t, 90*time.Minute, cfg.Interview.SessionTTL)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.True(t, cfg.App.IsProduction())
}

func TestGetEnvAsDurationInvalid(t *testing.T) {
	t.Setenv("SOME_DURATION", "soon")
	assert.Equal(t, time.Minute, getEnvAsDuration("SOME_DURATION", time.Minute))
}
