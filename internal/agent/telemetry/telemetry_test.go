package telemetry

import (
	"testing"
	"time"

	"github.com/scoutdig/scout/config"
)

func TestRecordRunEvent(t *testing.T) {
	tel := NewTelemetry(config.TelemetryConfig{Enabled: true})

	tel.RecordRunEvent(RunEvent{ID: "a", Success: true, Latency: 2 * time.Second})
	tel.RecordRunEvent(RunEvent{ID: "b", Success: false, Latency: 4 * time.Second, Error: "boom"})

	m := tel.GetMetrics()
	if m.TotalRuns != 2 || m.SuccessfulRuns != 1 || m.FailedRuns != 1 {
		t.Fatalf("unexpected run counts: %+v", m)
	}
	if m.AverageLatency != 3*time.Second {
		t.Fatalf("expected 3s average latency, got %v", m.AverageLatency)
	}
}

func TestRecordToolEvent(t *testing.T) {
	tel := NewTelemetry(config.TelemetryConfig{Enabled: true})

	tel.RecordToolEvent(ToolEvent{Tool: "web_search", Success: true})
	tel.RecordToolEvent(ToolEvent{Tool: "web_search", Success: false, Error: "timeout"})
	tel.RecordToolEvent(ToolEvent{Tool: "search_subreddits", Success: true})

	m := tel.GetMetrics()
	if m.ToolInvocations["web_search"] != 2 {
		t.Fatalf("expected 2 web_search invocations, got %d", m.ToolInvocations["web_search"])
	}
	if m.ToolFailures["web_search"] != 1 {
		t.Fatalf("expected 1 web_search failure, got %d", m.ToolFailures["web_search"])
	}
	if m.ToolInvocations["search_subreddits"] != 1 {
		t.Fatalf("expected 1 search_subreddits invocation, got %d", m.ToolInvocations["search_subreddits"])
	}
}

func TestRecordLLMEvent(t *testing.T) {
	tel := NewTelemetry(config.TelemetryConfig{Enabled: true})

	tel.RecordLLMEvent(LLMEvent{Model: "gpt-4o-mini", InputTokens: 100, OutputTokens: 40, Success: true})
	tel.RecordLLMEvent(LLMEvent{Model: "gpt-4o-mini", InputTokens: 200, OutputTokens: 60, Success: true})

	m := tel.GetMetrics()
	if m.LLMRequests != 2 {
		t.Fatalf("expected 2 llm requests, got %d", m.LLMRequests)
	}
	if m.InputTokens != 300 || m.OutputTokens != 100 {
		t.Fatalf("unexpected token totals: %d/%d", m.InputTokens, m.OutputTokens)
	}
}

func TestDisabledTelemetryRecordsNothing(t *testing.T) {
	tel := NewTelemetry(config.TelemetryConfig{Enabled: false})

	tel.RecordRunEvent(RunEvent{ID: "a", Success: true})
	tel.RecordToolEvent(ToolEvent{Tool: "web_search", Success: true})
	tel.RecordLLMEvent(LLMEvent{Model: "gpt-4o-mini", InputTokens: 10})

	m := tel.GetMetrics()
	if m.TotalRuns != 0 || m.LLMRequests != 0 || len(m.ToolInvocations) != 0 {
		t.Fatalf("expected empty metrics, got %+v", m)
	}
}

func TestGetMetricsReturnsCopy(t *testing.T) {
	tel := NewTelemetry(config.TelemetryConfig{Enabled: true})
	tel.RecordToolEvent(ToolEvent{Tool: "fetch_page", Success: true})

	m := tel.GetMetrics()
	m.ToolInvocations["fetch_page"] = 99

	if got := tel.GetMetrics().ToolInvocations["fetch_page"]; got != 1 {
		t.Fatalf("snapshot mutation leaked into telemetry: %d", got)
	}
}
