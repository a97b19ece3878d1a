package models

import "time"

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a model request to invoke a named tool with JSON arguments.
// The name must resolve in the tool registry.
type ToolCall struct {
	ID   string         `json:"id,omitempty"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// Turn is one exchange in the conversation. The sequence of turns within a
// run is strictly append-only.
type Turn struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // assistant turn requesting tools
	ToolCallID string     `json:"tool_call_id,omitempty"` // tool turn: id of the satisfied call
	ToolName   string     `json:"tool_name,omitempty"`    // tool turn: which tool produced it
}

// ToolSpec describes a registered tool in the shape the model expects.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON Schema, type=object
}

// CompletionRequest is one request to the LLM: the conversation so far plus
// the tools the model may call.
type CompletionRequest struct {
	System string
	Turns  []Turn
	Tools  []ToolSpec
}

// Completion is the model's reply: either final content or tool calls,
// with token usage.
type Completion struct {
	Content      string
	ToolCalls    []ToolCall
	InputTokens  int64
	OutputTokens int64
}

// Done reports whether the model produced a final answer rather than tool calls.
func (c Completion) Done() bool { return len(c.ToolCalls) == 0 }

// ToolCallRecord captures one executed tool call for the run log.
type ToolCallRecord struct {
	ToolName   string         `json:"tool_name"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Args       map[string]any `json:"input,omitempty"`
	Output     string         `json:"output,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// RunLog is the persisted record of one complete query-to-answer cycle.
// Immutable once appended.
type RunLog struct {
	ID             string           `json:"id"`
	Timestamp      time.Time        `json:"timestamp"`
	Query          string           `json:"user_message"`
	Turns          []Turn           `json:"turns"`
	ToolCalls      []ToolCallRecord `json:"tool_calls"`
	TokensUsed     int64            `json:"token_usage"`
	LatencySeconds float64          `json:"latency"`
	Answer         string           `json:"agent_response"`
	Error          string           `json:"error,omitempty"`
	Success        bool             `json:"success"`
}
