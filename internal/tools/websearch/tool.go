package websearch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/scoutdig/scout/internal/tools"
)

// Tool exposes web search to the agent.
type Tool struct {
	Searcher     Searcher
	DefaultLimit int
}

func (t *Tool) Name() string { return "web_search" }

func (t *Tool) Description() string {
	return "Search the web for current information. Use this for latest news, recent developments, and facts that may postdate your training data. Returns titles, URLs and snippets."
}

func (t *Tool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": "search query, specific and focused"},
			"limit": map[string]any{"type": "integer", "description": "maximum results"},
		},
		"required": []string{"query"},
	}
}

func (t *Tool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	query := tools.StringArg(args, "query")
	if query == "" {
		return "", fmt.Errorf("missing query argument")
	}
	limit := tools.IntArg(args, "limit", t.DefaultLimit)

	results, err := t.Searcher.Discover(ctx, query, limit)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "no results found", nil
	}
	b, err := json.Marshal(results)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
