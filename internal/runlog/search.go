package runlog

import (
	"fmt"

	"github.com/blevesearch/bleve"

	"github.com/scoutdig/scout/models"
)

// Index is an in-memory full text index over logged runs. It is built
// from the JSONL file on demand, search results reference run IDs.
type Index struct {
	idx     bleve.Index
	entries map[string]models.RunLog
}

type indexedRun struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`
}

// NewIndex builds a memory-only index from the given records.
func NewIndex(entries []models.RunLog) (*Index, error) {
	mapping := bleve.NewIndexMapping()
	idx, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, fmt.Errorf("runlog index: %w", err)
	}

	byID := make(map[string]models.RunLog, len(entries))
	for _, entry := range entries {
		if entry.ID == "" {
			continue
		}
		byID[entry.ID] = entry
		doc := indexedRun{Query: entry.Query, Answer: entry.Answer}
		if err := idx.Index(entry.ID, doc); err != nil {
			return nil, fmt.Errorf("runlog index %s: %w", entry.ID, err)
		}
	}

	return &Index{idx: idx, entries: byID}, nil
}

// OpenIndex reads the JSONL file at path and indexes it.
func OpenIndex(path string) (*Index, error) {
	entries, err := ReadAll(path)
	if err != nil {
		return nil, err
	}
	return NewIndex(entries)
}

// Search runs a query-string search over queries and answers and returns
// matching runs ranked by score.
func (i *Index) Search(query string, limit int) ([]models.RunLog, error) {
	if limit <= 0 {
		limit = 10
	}
	q := bleve.NewQueryStringQuery(query)
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	res, err := i.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("runlog search: %w", err)
	}

	out := make([]models.RunLog, 0, len(res.Hits))
	for _, hit := range res.Hits {
		if entry, ok := i.entries[hit.ID]; ok {
			out = append(out, entry)
		}
	}
	return out, nil
}

// Close releases the underlying index.
func (i *Index) Close() error { return i.idx.Close() }
