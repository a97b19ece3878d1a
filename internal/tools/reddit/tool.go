package reddit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/scoutdig/scout/internal/tools"
)

// SubredditSearchTool exposes subreddit discovery to the agent.
type SubredditSearchTool struct {
	Client       *Client
	DefaultLimit int
}

func (t *SubredditSearchTool) Name() string { return "search_subreddits" }

func (t *SubredditSearchTool) Description() string {
	return "Search for relevant subreddits using a query string. Returns a list of subreddit names and their descriptions."
}

func (t *SubredditSearchTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": "search terms"},
			"limit": map[string]any{"type": "integer", "description": "maximum results"},
		},
		"required": []string{"query"},
	}
}

func (t *SubredditSearchTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	query := tools.StringArg(args, "query")
	if query == "" {
		return "", fmt.Errorf("missing query argument")
	}
	limit := tools.IntArg(args, "limit", t.DefaultLimit)

	subs, err := t.Client.SearchSubreddits(ctx, query, limit)
	if err != nil {
		return "", err
	}
	if len(subs) == 0 {
		return "no matching subreddits found", nil
	}
	b, err := json.Marshal(subs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// SubredditContentTool exposes post and comment search within a subreddit.
type SubredditContentTool struct {
	Client       *Client
	DefaultLimit int
}

func (t *SubredditContentTool) Name() string { return "search_subreddit_content" }

func (t *SubredditContentTool) Description() string {
	return "Search for relevant posts and comments in a subreddit using a query string. Returns matching posts and comments with title, author, score, and snippet. The sort parameter can be new, top, or relevance."
}

func (t *SubredditContentTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"subreddit": map[string]any{"type": "string", "description": "subreddit name without the r/ prefix"},
			"query":     map[string]any{"type": "string", "description": "search terms"},
			"limit":     map[string]any{"type": "integer", "description": "maximum results"},
			"sort":      map[string]any{"type": "string", "enum": []string{"relevance", "new", "top"}},
		},
		"required": []string{"subreddit", "query"},
	}
}

func (t *SubredditContentTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	subreddit := tools.StringArg(args, "subreddit")
	query := tools.StringArg(args, "query")
	if subreddit == "" || query == "" {
		return "", fmt.Errorf("missing subreddit or query argument")
	}
	limit := tools.IntArg(args, "limit", t.DefaultLimit)
	sortBy := tools.StringArg(args, "sort")

	posts, comments, err := t.Client.SearchContent(ctx, subreddit, query, limit, sortBy)
	if err != nil {
		return "", err
	}

	// posts first, then comments ranked by score
	combined := make([]any, 0, len(posts)+len(comments))
	for _, p := range posts {
		combined = append(combined, p)
	}
	for _, c := range comments {
		combined = append(combined, c)
	}
	if len(combined) == 0 {
		return "no matching posts or comments found", nil
	}
	b, err := json.Marshal(combined)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
