// Package metrics records interview counters on a private Prometheus registry.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ai-review-be/pkg/llm"
)

// PrometheusRecorder implements engine.Recorder and the service-level hooks.
type PrometheusRecorder struct {
	registry       *prometheus.Registry
	turnsTotal     *prometheus.CounterVec
	gateVerdicts   *prometheus.CounterVec
	forcedAdvances prometheus.Counter
	submissions    *prometheus.CounterVec
	events         *prometheus.CounterVec
	llmDuration    *prometheus.HistogramVec
}

func NewPrometheusRecorder() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		registry: reg,
		turnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "interview_turns_total",
				Help: "Turns handled by operation and resulting stage",
			},
			[]string{"operation", "stage"},
		),
		gateVerdicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "interview_gate_verdicts_total",
				Help: "Answer quality verdicts by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		forcedAdvances: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "interview_forced_advances_total",
				Help: "Sessions moved to drafting after the re-ask limit",
			},
		),
		submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "interview_submissions_total",
				Help: "Review submissions by status",
			},
			[]string{"status"},
		),
		events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "interview_events_total",
				Help: "Domain events consumed in process",
			},
			[]string{"type"},
		),
		llmDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "llm_request_duration_seconds",
				Help:    "Duration of LLM requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "status"},
		),
	}
}

// Handler serves the private registry.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusRecorder) Turn(operation, stage string) {
	p.turnsTotal.WithLabelValues(operation, stage).Inc()
}

func (p *PrometheusRecorder) GateVerdict(source string, ok bool) {
	outcome := "accept"
	if !ok {
		outcome = "reject"
	}
	p.gateVerdicts.WithLabelValues(source, outcome).Inc()
}

func (p *PrometheusRecorder) ForcedAdvance() {
	p.forcedAdvances.Inc()
}

func (p *PrometheusRecorder) Submission(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	p.submissions.WithLabelValues(status).Inc()
}

func (p *PrometheusRecorder) Event(eventType string) {
	p.events.WithLabelValues(eventType).Inc()
}

func (p *PrometheusRecorder) ObserveLLM(provider string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "error"
	}
	p.llmDuration.WithLabelValues(provider, status).Observe(duration.Seconds())
}

// InstrumentLLM times every call made through inner.
func (p *PrometheusRecorder) InstrumentLLM(inner llm.LLMProvider, provider string) llm.LLMProvider {
	return &instrumentedProvider{inner: inner, provider: provider, recorder: p}
}

type instrumentedProvider struct {
	inner    llm.LLMProvider
	provider string
	recorder *PrometheusRecorder
}

func (i *instrumentedProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	start := time.Now()
	out, err := i.inner.Chat(ctx, history, options...)
	i.recorder.ObserveLLM(i.provider, err == nil, time.Since(start))
	return out, err
}

func (i *instrumentedProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return i.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}
