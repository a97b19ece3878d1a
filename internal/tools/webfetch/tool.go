package webfetch

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/scoutdig/scout/internal/tools"
)

// Tool exposes the page fetcher as "fetch_page".
type Tool struct {
	Fetcher *Fetcher
}

func (t *Tool) Name() string { return "fetch_page" }

func (t *Tool) Description() string {
	return "Fetch a web page and return its readable article text. Use this to read the full content behind a search result URL."
}

func (t *Tool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "Absolute URL of the page to fetch",
			},
		},
		"required": []string{"url"},
	}
}

func (t *Tool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	rawURL := tools.StringArg(args, "url")
	if rawURL == "" {
		return "", errors.New("url argument is required")
	}
	article, err := t.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(article)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
