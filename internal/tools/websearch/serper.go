package websearch

import (
	"context"

	"github.com/scoutdig/scout/internal/httpx"
)

const serperURL = "https://google.serper.dev/search"

// Serper implements Searcher over the serper.dev Google search API.
type Serper struct {
	APIKey  string
	BaseURL string
	http    *httpx.Client
}

func (s *Serper) Discover(ctx context.Context, q string, k int) ([]Result, error) {
	// https://serper.dev/ docs
	payload := map[string]any{"q": q, "num": k}
	endpoint := s.BaseURL
	if endpoint == "" {
		endpoint = serperURL
	}
	headers := map[string]string{"X-API-KEY": s.APIKey}

	var raw struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	if err := s.http.DoJSON(ctx, "POST", endpoint, headers, payload, &raw); err != nil {
		return nil, err
	}

	var out []Result
	for i, item := range raw.Organic {
		if i >= k {
			break
		}
		out = append(out, Result{Title: item.Title, URL: item.Link, Snippet: item.Snippet})
	}
	return out, nil
}
