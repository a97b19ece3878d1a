package tools

import (
	"context"
	"time"
)

// CurrentDateTool reports the current UTC time so the model can anchor
// relative date expressions like "last week".
type CurrentDateTool struct {
	// Now is overridable in tests. Defaults to time.Now.
	Now func() time.Time
}

func (t *CurrentDateTool) Name() string { return "current_date" }

func (t *CurrentDateTool) Description() string {
	return "Return the current date and time in UTC. Use this before interpreting relative dates such as 'today' or 'last month'."
}

func (t *CurrentDateTool) Schema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t *CurrentDateTool) Invoke(_ context.Context, _ map[string]any) (string, error) {
	now := time.Now
	if t.Now != nil {
		now = t.Now
	}
	return now().UTC().Format(time.RFC3339), nil
}
