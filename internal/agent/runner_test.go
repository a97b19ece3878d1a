package agent

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/scoutdig/scout/config"
	"github.com/scoutdig/scout/internal/agent/telemetry"
	"github.com/scoutdig/scout/internal/runlog"
	"github.com/scoutdig/scout/internal/tools"
	"github.com/scoutdig/scout/models"
)

// scriptedProvider replays canned completions in order.
type scriptedProvider struct {
	completions []models.Completion
	requests    []models.CompletionRequest
	err         error
}

func (p *scriptedProvider) Complete(_ context.Context, req models.CompletionRequest) (models.Completion, error) {
	p.requests = append(p.requests, req)
	if p.err != nil {
		return models.Completion{}, p.err
	}
	if len(p.completions) == 0 {
		return models.Completion{Content: "fallback"}, nil
	}
	next := p.completions[0]
	p.completions = p.completions[1:]
	return next, nil
}

type stubTool struct {
	name   string
	output string
	err    error
	calls  int
}

func (t *stubTool) Name() string            { return t.name }
func (t *stubTool) Description() string     { return "stub" }
func (t *stubTool) Schema() map[string]any  { return map[string]any{"type": "object"} }
func (t *stubTool) Invoke(context.Context, map[string]any) (string, error) {
	t.calls++
	return t.output, t.err
}

func testConfig() *config.Config {
	return &config.Config{
		LLM: config.LLMConfig{Model: "gpt-4o-mini", Timeout: time.Second},
		Agent: config.AgentConfig{
			SystemPrompt:      "You are a research analyst.",
			MaxToolIterations: 8,
		},
		Tools:     config.ToolsConfig{Timeout: time.Second},
		Telemetry: config.TelemetryConfig{Enabled: true},
	}
}

func newTestRunner(t *testing.T, p *scriptedProvider, reg *tools.Registry) (*Runner, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	w, err := runlog.NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	cfg := testConfig()
	return NewRunner(cfg, p, reg, telemetry.NewTelemetry(cfg.Telemetry), w), path
}

func TestRunWithToolRoundTrip(t *testing.T) {
	reg := tools.NewRegistry()
	tool := &stubTool{name: "search_subreddits", output: `[{"name":"r/golang"}]`}
	if err := reg.Register(tool); err != nil {
		t.Fatalf("register: %v", err)
	}

	p := &scriptedProvider{completions: []models.Completion{
		{
			ToolCalls: []models.ToolCall{
				{ID: "call_1", Name: "search_subreddits", Args: map[string]any{"query": "golang"}},
			},
			InputTokens: 50, OutputTokens: 10,
		},
		{Content: "The relevant community is r/golang.", InputTokens: 80, OutputTokens: 20},
	}}

	r, path := newTestRunner(t, p, reg)
	entry, err := r.Run(context.Background(), "where do gophers hang out", nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if !entry.Success || entry.Answer != "The relevant community is r/golang." {
		t.Fatalf("unexpected result: %+v", entry)
	}
	if entry.TokensUsed != 160 {
		t.Fatalf("expected 160 tokens, got %d", entry.TokensUsed)
	}

	roles := make([]models.Role, 0, len(entry.Turns))
	for _, turn := range entry.Turns {
		roles = append(roles, turn.Role)
	}
	want := []models.Role{models.RoleUser, models.RoleAssistant, models.RoleTool, models.RoleAssistant}
	if len(roles) != len(want) {
		t.Fatalf("expected %d turns, got %v", len(want), roles)
	}
	for i := range want {
		if roles[i] != want[i] {
			t.Fatalf("turn %d: expected role %s, got %s", i, want[i], roles[i])
		}
	}

	toolTurn := entry.Turns[2]
	if toolTurn.ToolCallID != "call_1" || toolTurn.ToolName != "search_subreddits" {
		t.Fatalf("tool turn not linked to call: %+v", toolTurn)
	}
	if toolTurn.Content != `[{"name":"r/golang"}]` {
		t.Fatalf("tool output not carried into turn: %q", toolTurn.Content)
	}

	if len(entry.ToolCalls) != 1 || entry.ToolCalls[0].Output == "" {
		t.Fatalf("tool call record missing: %+v", entry.ToolCalls)
	}
	if tool.calls != 1 {
		t.Fatalf("expected one tool invocation, got %d", tool.calls)
	}

	// The second model request must include the tool turn.
	if len(p.requests) != 2 {
		t.Fatalf("expected 2 model requests, got %d", len(p.requests))
	}
	last := p.requests[1].Turns
	if last[len(last)-1].Role != models.RoleTool {
		t.Fatalf("tool turn not fed back to model: %+v", last[len(last)-1])
	}

	entries, err := runlog.ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != entry.ID {
		t.Fatalf("expected exactly one logged run, got %d", len(entries))
	}
}

func TestRunDirectAnswer(t *testing.T) {
	p := &scriptedProvider{completions: []models.Completion{
		{Content: "Paris.", InputTokens: 10, OutputTokens: 2},
	}}

	r, path := newTestRunner(t, p, tools.NewRegistry())
	entry, err := r.Run(context.Background(), "capital of france", nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if entry.Answer != "Paris." || len(entry.ToolCalls) != 0 {
		t.Fatalf("unexpected result: %+v", entry)
	}
	if len(entry.Turns) != 2 {
		t.Fatalf("expected user and assistant turns, got %d", len(entry.Turns))
	}

	entries, _ := runlog.ReadAll(path)
	if len(entries) != 1 {
		t.Fatalf("expected exactly one logged run, got %d", len(entries))
	}
}

func TestRunCarriesSessionHistory(t *testing.T) {
	p := &scriptedProvider{completions: []models.Completion{{Content: "As I said, Paris."}}}
	r, _ := newTestRunner(t, p, tools.NewRegistry())

	history := []models.Turn{
		{Role: models.RoleUser, Content: "capital of france"},
		{Role: models.RoleAssistant, Content: "Paris."},
	}
	_, err := r.Run(context.Background(), "what was that again", history)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	sent := p.requests[0].Turns
	if len(sent) != 3 || sent[0].Content != "capital of france" {
		t.Fatalf("history not prepended: %+v", sent)
	}
	if len(history) != 2 {
		t.Fatal("caller history was mutated")
	}
}

func TestRunIterationLimit(t *testing.T) {
	reg := tools.NewRegistry()
	if err := reg.Register(&stubTool{name: "web_search", output: "{}"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	// The model keeps asking for tools and never answers.
	looping := make([]models.Completion, 10)
	for i := range looping {
		looping[i] = models.Completion{ToolCalls: []models.ToolCall{
			{ID: "call_x", Name: "web_search", Args: map[string]any{"query": "more"}},
		}}
	}
	p := &scriptedProvider{completions: looping}

	r, path := newTestRunner(t, p, reg)
	entry, err := r.Run(context.Background(), "endless", nil)
	if !errors.Is(err, ErrIterationLimit) {
		t.Fatalf("expected ErrIterationLimit, got %v", err)
	}
	if entry.Success || entry.Error == "" {
		t.Fatalf("failed run not recorded as such: %+v", entry)
	}
	if len(p.requests) != 8 {
		t.Fatalf("expected 8 model requests before the cap, got %d", len(p.requests))
	}

	entries, _ := runlog.ReadAll(path)
	if len(entries) != 1 || entries[0].Success {
		t.Fatalf("failed run must still be logged: %+v", entries)
	}
}

func TestRunToolErrorFedBack(t *testing.T) {
	reg := tools.NewRegistry()
	if err := reg.Register(&stubTool{name: "web_search", err: errors.New("upstream 500")}); err != nil {
		t.Fatalf("register: %v", err)
	}

	p := &scriptedProvider{completions: []models.Completion{
		{ToolCalls: []models.ToolCall{{ID: "call_1", Name: "web_search", Args: map[string]any{"query": "x"}}}},
		{Content: "I could not reach the search service."},
	}}

	r, _ := newTestRunner(t, p, reg)
	entry, err := r.Run(context.Background(), "search something", nil)
	if err != nil {
		t.Fatalf("tool failure must not fail the run: %v", err)
	}
	if !entry.Success {
		t.Fatalf("expected successful run, got %+v", entry)
	}

	toolTurn := entry.Turns[2]
	if toolTurn.Role != models.RoleTool {
		t.Fatalf("expected tool turn, got %+v", toolTurn)
	}
	if toolTurn.Content == "" || toolTurn.Content[:11] != "tool error:" {
		t.Fatalf("tool error not fed back to model: %q", toolTurn.Content)
	}
	if entry.ToolCalls[0].Error == "" {
		t.Fatalf("tool call record missing error: %+v", entry.ToolCalls[0])
	}
}

func TestRunUnknownToolFailsRun(t *testing.T) {
	p := &scriptedProvider{completions: []models.Completion{
		{ToolCalls: []models.ToolCall{{ID: "call_1", Name: "no_such_tool"}}},
	}}

	r, _ := newTestRunner(t, p, tools.NewRegistry())
	entry, err := r.Run(context.Background(), "hello", nil)
	if !errors.Is(err, tools.ErrUnknownTool) {
		t.Fatalf("expected ErrUnknownTool, got %v", err)
	}
	if entry.Success {
		t.Fatalf("run must fail on unknown tool: %+v", entry)
	}
}

func TestRunModelError(t *testing.T) {
	p := &scriptedProvider{err: errors.New("rate limited")}
	r, path := newTestRunner(t, p, tools.NewRegistry())

	entry, err := r.Run(context.Background(), "hello", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if entry.Success || entry.Error == "" {
		t.Fatalf("model failure not recorded: %+v", entry)
	}

	entries, _ := runlog.ReadAll(path)
	if len(entries) != 1 {
		t.Fatalf("failed run must still be logged, got %d entries", len(entries))
	}
}
