package websearch

import (
	"context"
	"errors"
	"time"

	"github.com/scoutdig/scout/config"
	"github.com/scoutdig/scout/internal/httpx"
)

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Searcher is the contract for web search backends.
type Searcher interface {
	Discover(ctx context.Context, q string, k int) ([]Result, error)
}

type Provider string

const (
	SerperProvider Provider = "serper"
	BraveProvider  Provider = "brave"
)

var ErrUnsupportedProvider = errors.New("unsupported web search provider")

// NewSearcher builds a search backend from config, preferring the configured
// provider and falling back to whichever credential is present.
func NewSearcher(cfg config.WebSearchConfig, timeout time.Duration) (Searcher, error) {
	httpc := httpx.NewClient(timeout, 0, 0)
	switch Provider(cfg.Provider) {
	case SerperProvider:
		if cfg.SerperAPIKey != "" {
			return &Serper{APIKey: cfg.SerperAPIKey, http: httpc}, nil
		}
		if cfg.BraveAPIKey != "" {
			return &Brave{APIKey: cfg.BraveAPIKey, http: httpc}, nil
		}
	case BraveProvider:
		if cfg.BraveAPIKey != "" {
			return &Brave{APIKey: cfg.BraveAPIKey, http: httpc}, nil
		}
		if cfg.SerperAPIKey != "" {
			return &Serper{APIKey: cfg.SerperAPIKey, http: httpc}, nil
		}
	default:
		return nil, ErrUnsupportedProvider
	}
	return nil, errors.New("no web search API key configured")
}
