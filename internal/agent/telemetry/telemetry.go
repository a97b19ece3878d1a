package telemetry

import (
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/scoutdig/scout/config"
)

// Telemetry provides run monitoring and token accounting.
type Telemetry struct {
	config   config.TelemetryConfig
	logger   *log.Logger
	metrics  *Metrics
	registry *prometheus.Registry
	mu       sync.RWMutex

	runsTotal        *prometheus.CounterVec
	toolCallsTotal   *prometheus.CounterVec
	llmRequestsTotal prometheus.Counter
	llmTokensTotal   *prometheus.CounterVec
	runLatency       prometheus.Histogram
}

// Metrics holds aggregate counters for the process lifetime.
type Metrics struct {
	TotalRuns      int64
	SuccessfulRuns int64
	FailedRuns     int64
	AverageLatency time.Duration

	ToolInvocations map[string]int64
	ToolFailures    map[string]int64

	LLMRequests  int64
	InputTokens  int64
	OutputTokens int64
}

// RunEvent describes one completed agent run.
type RunEvent struct {
	ID         string
	Query      string
	StartTime  time.Time
	EndTime    time.Time
	Latency    time.Duration
	Success    bool
	Error      string
	TokensUsed int64
	ToolsUsed  []string
	Model      string
}

// ToolEvent describes one tool invocation.
type ToolEvent struct {
	Tool     string
	Duration time.Duration
	Success  bool
	Error    string
}

// LLMEvent describes one model round trip.
type LLMEvent struct {
	Model        string
	Duration     time.Duration
	InputTokens  int64
	OutputTokens int64
	Success      bool
}

// NewTelemetry creates a telemetry instance with its own prometheus registry.
func NewTelemetry(cfg config.TelemetryConfig) *Telemetry {
	registry := prometheus.NewRegistry()

	t := &Telemetry{
		config:   cfg,
		logger:   log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags),
		registry: registry,
		metrics: &Metrics{
			ToolInvocations: make(map[string]int64),
			ToolFailures:    make(map[string]int64),
		},
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scout_runs_total",
			Help: "Completed agent runs by outcome.",
		}, []string{"outcome"}),
		toolCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scout_tool_invocations_total",
			Help: "Tool invocations by tool name and outcome.",
		}, []string{"tool", "outcome"}),
		llmRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scout_llm_requests_total",
			Help: "Model round trips.",
		}),
		llmTokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scout_llm_tokens_total",
			Help: "Tokens consumed by direction.",
		}, []string{"direction"}),
		runLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "scout_run_latency_seconds",
			Help:    "End to end run latency.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
	}

	registry.MustRegister(t.runsTotal, t.toolCallsTotal, t.llmRequestsTotal, t.llmTokensTotal, t.runLatency)
	return t
}

// Registry exposes the prometheus registry for mounting a /metrics handler.
func (t *Telemetry) Registry() *prometheus.Registry { return t.registry }

// RecordRunEvent records one completed run.
func (t *Telemetry) RecordRunEvent(event RunEvent) {
	if !t.config.Enabled {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.metrics.TotalRuns++
	if event.Success {
		t.metrics.SuccessfulRuns++
		t.runsTotal.WithLabelValues("success").Inc()
	} else {
		t.metrics.FailedRuns++
		t.runsTotal.WithLabelValues("failure").Inc()
	}

	if t.metrics.TotalRuns == 1 {
		t.metrics.AverageLatency = event.Latency
	} else {
		total := t.metrics.AverageLatency * time.Duration(t.metrics.TotalRuns-1)
		t.metrics.AverageLatency = (total + event.Latency) / time.Duration(t.metrics.TotalRuns)
	}
	t.runLatency.Observe(event.Latency.Seconds())

	t.logger.Printf("Run Event: ID=%s, Success=%t, Duration=%v, Tokens=%d, Tools=%v",
		event.ID, event.Success, event.Latency, event.TokensUsed, event.ToolsUsed)
}

// RecordToolEvent records one tool invocation.
func (t *Telemetry) RecordToolEvent(event ToolEvent) {
	if !t.config.Enabled {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.metrics.ToolInvocations[event.Tool]++
	outcome := "success"
	if !event.Success {
		outcome = "failure"
		t.metrics.ToolFailures[event.Tool]++
	}
	t.toolCallsTotal.WithLabelValues(event.Tool, outcome).Inc()

	t.logger.Printf("Tool Event: Tool=%s, Success=%t, Duration=%v",
		event.Tool, event.Success, event.Duration)
}

// RecordLLMEvent records one model round trip.
func (t *Telemetry) RecordLLMEvent(event LLMEvent) {
	if !t.config.Enabled {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.metrics.LLMRequests++
	t.metrics.InputTokens += event.InputTokens
	t.metrics.OutputTokens += event.OutputTokens
	t.llmRequestsTotal.Inc()
	t.llmTokensTotal.WithLabelValues("input").Add(float64(event.InputTokens))
	t.llmTokensTotal.WithLabelValues("output").Add(float64(event.OutputTokens))

	t.logger.Printf("LLM Event: Model=%s, Duration=%v, Tokens=%d/%d",
		event.Model, event.Duration, event.InputTokens, event.OutputTokens)
}

// GetMetrics returns a snapshot of the aggregate counters.
func (t *Telemetry) GetMetrics() Metrics {
	t.mu.RLock()
	defer t.mu.RUnlock()

	metrics := *t.metrics
	metrics.ToolInvocations = make(map[string]int64, len(t.metrics.ToolInvocations))
	metrics.ToolFailures = make(map[string]int64, len(t.metrics.ToolFailures))
	for k, v := range t.metrics.ToolInvocations {
		metrics.ToolInvocations[k] = v
	}
	for k, v := range t.metrics.ToolFailures {
		metrics.ToolFailures[k] = v
	}
	return metrics
}

// Shutdown logs a final summary.
func (t *Telemetry) Shutdown() {
	metrics := t.GetMetrics()
	if metrics.TotalRuns == 0 {
		return
	}
	t.logger.Printf("Final Report: Runs=%d/%d, AvgLatency=%v, Tokens=%d/%d",
		metrics.SuccessfulRuns, metrics.TotalRuns, metrics.AverageLatency,
		metrics.InputTokens, metrics.OutputTokens)
}
