package tools

import (
	"context"
	"testing"
	"time"
)

func TestCurrentDateTool(t *testing.T) {
	fixed := time.Date(2025, 3, 14, 9, 26, 53, 0, time.FixedZone("PDT", -7*3600))
	tool := &CurrentDateTool{Now: func() time.Time { return fixed }}

	out, err := tool.Invoke(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "2025-03-14T16:26:53Z" {
		t.Fatalf("expected UTC RFC3339 timestamp, got %q", out)
	}
}
