package openai_provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/scoutdig/scout/models"
)

func TestCompleteParsesToolCalls(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{
			"choices":[{"message":{"content":"","tool_calls":[
				{"id":"call_1","type":"function","function":{"name":"search_subreddits","arguments":"{\"query\":\"golang\",\"limit\":5}"}}
			]}}],
			"usage":{"prompt_tokens":120,"completion_tokens":18}
		}`))
	}))
	defer srv.Close()

	c := NewClient("sk-test", srv.URL, "gpt-4o-mini", 0.4, 2048, 5*time.Second)
	completion, err := c.Complete(context.Background(), models.CompletionRequest{
		System: "be helpful",
		Turns:  []models.Turn{{Role: models.RoleUser, Content: "what do gophers think?"}},
		Tools: []models.ToolSpec{{
			Name:        "search_subreddits",
			Description: "find subreddits",
			Parameters:  map[string]any{"type": "object"},
		}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if completion.Done() {
		t.Fatalf("expected tool calls, got final answer")
	}
	if len(completion.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(completion.ToolCalls))
	}
	tc := completion.ToolCalls[0]
	if tc.Name != "search_subreddits" || tc.ID != "call_1" {
		t.Fatalf("unexpected tool call %+v", tc)
	}
	if tc.Args["query"] != "golang" {
		t.Fatalf("expected query arg, got %v", tc.Args)
	}
	if completion.InputTokens != 120 || completion.OutputTokens != 18 {
		t.Fatalf("unexpected token usage %d/%d", completion.InputTokens, completion.OutputTokens)
	}

	msgs, ok := captured["messages"].([]any)
	if !ok || len(msgs) != 2 {
		t.Fatalf("expected system+user messages, got %v", captured["messages"])
	}
	first := msgs[0].(map[string]any)
	if first["role"] != "system" || first["content"] != "be helpful" {
		t.Fatalf("expected system message first, got %v", first)
	}
	tools, ok := captured["tools"].([]any)
	if !ok || len(tools) != 1 {
		t.Fatalf("expected 1 tool descriptor, got %v", captured["tools"])
	}
}

func TestCompleteFinalAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"content":"all done"}}],"usage":{"prompt_tokens":10,"completion_tokens":3}}`))
	}))
	defer srv.Close()

	c := NewClient("sk-test", srv.URL, "gpt-4o-mini", 0, 0, 5*time.Second)
	completion, err := c.Complete(context.Background(), models.CompletionRequest{
		Turns: []models.Turn{{Role: models.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !completion.Done() {
		t.Fatalf("expected final answer")
	}
	if completion.Content != "all done" {
		t.Fatalf("unexpected content %q", completion.Content)
	}
}

func TestCompleteEncodesToolTurns(t *testing.T) {
	var captured struct {
		Messages []map[string]any `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer srv.Close()

	c := NewClient("sk-test", srv.URL, "gpt-4o-mini", 0, 0, 5*time.Second)
	_, err := c.Complete(context.Background(), models.CompletionRequest{
		Turns: []models.Turn{
			{Role: models.RoleUser, Content: "question"},
			{Role: models.RoleAssistant, ToolCalls: []models.ToolCall{{ID: "call_1", Name: "web_search", Args: map[string]any{"query": "x"}}}},
			{Role: models.RoleTool, ToolCallID: "call_1", ToolName: "web_search", Content: "result text"},
		},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if len(captured.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(captured.Messages))
	}
	assistant := captured.Messages[1]
	calls, ok := assistant["tool_calls"].([]any)
	if !ok || len(calls) != 1 {
		t.Fatalf("expected assistant tool_calls, got %v", assistant)
	}
	fn := calls[0].(map[string]any)["function"].(map[string]any)
	if fn["name"] != "web_search" {
		t.Fatalf("unexpected function %v", fn)
	}
	toolMsg := captured.Messages[2]
	if toolMsg["role"] != "tool" || toolMsg["tool_call_id"] != "call_1" {
		t.Fatalf("unexpected tool message %v", toolMsg)
	}
}

func TestCompleteErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("bad", srv.URL, "gpt-4o-mini", 0, 0, 5*time.Second)
	if _, err := c.Complete(context.Background(), models.CompletionRequest{}); err == nil {
		t.Fatalf("expected error for 401 response")
	}
}
