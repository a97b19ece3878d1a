package websearch

import (
	"context"
	"fmt"
	"net/url"

	"github.com/scoutdig/scout/internal/httpx"
)

const braveURL = "https://api.search.brave.com/res/v1/web/search"

// Brave implements Searcher over the Brave web search API.
type Brave struct {
	APIKey  string
	BaseURL string
	http    *httpx.Client
}

func (b *Brave) Discover(ctx context.Context, q string, k int) ([]Result, error) {
	// https://api.search.brave.com/app/documentation/web-search
	endpoint := b.BaseURL
	if endpoint == "" {
		endpoint = braveURL
	}
	full := fmt.Sprintf("%s?q=%s&count=%d", endpoint, url.QueryEscape(q), k)
	headers := map[string]string{
		"Accept":               "application/json",
		"X-Subscription-Token": b.APIKey,
	}

	var raw struct {
		Web struct {
			Results []struct {
				Title   string `json:"title"`
				URL     string `json:"url"`
				Snippet string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := b.http.DoJSON(ctx, "GET", full, headers, nil, &raw); err != nil {
		return nil, err
	}

	var out []Result
	for i, r := range raw.Web.Results {
		if i >= k {
			break
		}
		out = append(out, Result{Title: r.Title, URL: r.URL, Snippet: r.Snippet})
	}
	return out, nil
}
