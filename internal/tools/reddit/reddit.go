package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/scoutdig/scout/config"
	"github.com/scoutdig/scout/internal/httpx"
)

const (
	defaultTokenURL = "https://www.reddit.com/api/v1/access_token"
	defaultAPIURL   = "https://oauth.reddit.com"
)

// Client is a thin binding over the Reddit OAuth API using app-only
// (client credentials) authentication.
type Client struct {
	cfg      config.RedditConfig
	http     *httpx.Client
	tokenURL string
	apiURL   string

	mu      sync.Mutex
	token   string
	expires time.Time
}

func NewClient(cfg config.RedditConfig, timeout time.Duration) *Client {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "scout research agent"
	}
	return &Client{
		cfg:      cfg,
		http:     httpx.NewClient(timeout, 0, 0),
		tokenURL: defaultTokenURL,
		apiURL:   defaultAPIURL,
	}
}

// Subreddit is one community returned by discovery search.
type Subreddit struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Post is one submission matched by subreddit content search.
type Post struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Author  string `json:"author"`
	Score   int    `json:"score"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Comment is one recent comment matching the query text.
type Comment struct {
	Type    string `json:"type"`
	Author  string `json:"author"`
	Score   int    `json:"score"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

// listing mirrors Reddit's envelope for both posts and comments.
type listing struct {
	Data struct {
		Children []struct {
			Data struct {
				DisplayName       string  `json:"display_name"`
				Title             string  `json:"title"`
				PublicDescription string  `json:"public_description"`
				Author            string  `json:"author"`
				Score             int     `json:"score"`
				URL               string  `json:"url"`
				Selftext          string  `json:"selftext"`
				Body              string  `json:"body"`
				Permalink         string  `json:"permalink"`
				Created           float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// authToken returns a cached app-only token, refreshing when expired.
func (c *Client) authToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.expires) {
		return c.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, "POST", c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reddit auth: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reddit auth status %d", resp.StatusCode)
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("reddit auth: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("reddit auth: empty token")
	}

	c.token = out.AccessToken
	c.expires = time.Now().Add(time.Duration(out.ExpiresIn)*time.Second - time.Minute)
	return c.token, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	token, err := c.authToken(ctx)
	if err != nil {
		return err
	}
	headers := map[string]string{
		"Authorization": "Bearer " + token,
		"User-Agent":    c.cfg.UserAgent,
	}
	return c.http.DoJSON(ctx, "GET", c.apiURL+path+"?"+params.Encode(), headers, nil, out)
}

// SearchSubreddits finds communities relevant to a query.
func (c *Client) SearchSubreddits(ctx context.Context, query string, limit int) ([]Subreddit, error) {
	params := url.Values{"q": {query}, "limit": {fmt.Sprint(limit)}}
	var raw listing
	if err := c.get(ctx, "/subreddits/search", params, &raw); err != nil {
		return nil, err
	}
	var out []Subreddit
	for _, child := range raw.Data.Children {
		out = append(out, Subreddit{
			Name:        child.Data.DisplayName,
			Title:       child.Data.Title,
			Description: child.Data.PublicDescription,
		})
	}
	return out, nil
}

// SearchContent searches a subreddit for matching posts and scans recent
// comments for the query text. Posts come first, comments ordered by score.
func (c *Client) SearchContent(ctx context.Context, subreddit, query string, limit int, sortBy string) ([]Post, []Comment, error) {
	if sortBy == "" {
		sortBy = "relevance"
	}
	params := url.Values{
		"q":           {query},
		"restrict_sr": {"1"},
		"sort":        {sortBy},
		"limit":       {fmt.Sprint(limit)},
	}
	var rawPosts listing
	if err := c.get(ctx, "/r/"+url.PathEscape(subreddit)+"/search", params, &rawPosts); err != nil {
		return nil, nil, err
	}
	var posts []Post
	for _, child := range rawPosts.Data.Children {
		posts = append(posts, Post{
			Type:    "post",
			Title:   child.Data.Title,
			Author:  child.Data.Author,
			Score:   child.Data.Score,
			URL:     child.Data.URL,
			Snippet: snippet(child.Data.Selftext),
		})
	}

	var rawComments listing
	commentParams := url.Values{"limit": {fmt.Sprint(limit)}}
	if err := c.get(ctx, "/r/"+url.PathEscape(subreddit)+"/comments", commentParams, &rawComments); err != nil {
		return nil, nil, err
	}
	var comments []Comment
	lowered := strings.ToLower(query)
	for _, child := range rawComments.Data.Children {
		if !strings.Contains(strings.ToLower(child.Data.Body), lowered) {
			continue
		}
		comments = append(comments, Comment{
			Type:    "comment",
			Author:  child.Data.Author,
			Score:   child.Data.Score,
			Snippet: snippet(child.Data.Body),
			Link:    "https://reddit.com" + child.Data.Permalink,
		})
	}
	sort.SliceStable(comments, func(i, j int) bool { return comments[i].Score > comments[j].Score })

	return posts, comments, nil
}

const snippetChars = 200

func snippet(s string) string {
	if len(s) > snippetChars {
		return s[:snippetChars]
	}
	return s
}
