package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Params configures a search.
type Params struct {
	Query  string    // User's search text; empty matches nothing
	Types  []DocType // Page types to include (empty = all)
	Tag    string    // Exact tag filter
	Limit  int
	Offset int
}

// Result is one page of hits plus the total match count.
type Result struct {
	Query string
	Total int
	Hits  []Hit
}

// Hit is a single matching page.
type Hit struct {
	PageID      int64
	Type        DocType
	Title       string
	Description string
	URL         string
	Score       float64
	Highlights  map[string]string
}

// Search executes a search. An empty query returns no hits.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	result := &Result{Query: params.Query}
	if strings.TrimSpace(params.Query) == "" {
		return result, nil
	}
	if params.Limit <= 0 {
		params.Limit = 10
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, params.Offset, false)
	req.SortBy([]string{"-_score", "-date"})
	req.Highlight = bleve.NewHighlight()
	req.Highlight.AddField("title")
	req.Highlight.AddField("body")
	req.Fields = []string{"page_id", "type", "title", "description", "url"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result.Total = int(res.Total)
	result.Hits = make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{Score: h.Score}
		if v, ok := h.Fields["page_id"].(float64); ok {
			hit.PageID = int64(v)
		}
		if v, ok := h.Fields["type"].(string); ok {
			hit.Type = DocType(v)
		}
		if v, ok := h.Fields["title"].(string); ok {
			hit.Title = v
		}
		if v, ok := h.Fields["description"].(string); ok {
			hit.Description = v
		}
		if v, ok := h.Fields["url"].(string); ok {
			hit.URL = v
		}
		if len(h.Fragments) > 0 {
			hit.Highlights = make(map[string]string)
			for field, fragments := range h.Fragments {
				if len(fragments) > 0 {
					hit.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, hit)
	}
	return result, nil
}

func buildQuery(params Params) query.Query {
	titleMatch := bleve.NewMatchQuery(params.Query)
	titleMatch.SetField("title")
	titleMatch.SetBoost(3.0)

	descMatch := bleve.NewMatchQuery(params.Query)
	descMatch.SetField("description")
	descMatch.SetBoost(1.5)

	introMatch := bleve.NewMatchQuery(params.Query)
	introMatch.SetField("intro")

	bodyMatch := bleve.NewMatchQuery(params.Query)
	bodyMatch.SetField("body")

	tagMatch := bleve.NewTermQuery(strings.TrimSpace(params.Query))
	tagMatch.SetField("tags")
	tagMatch.SetBoost(2.0)

	text := []query.Query{titleMatch, descMatch, introMatch, bodyMatch, tagMatch}
	if len(params.Query) >= 2 {
		prefix := bleve.NewPrefixQuery(strings.ToLower(strings.TrimSpace(params.Query)))
		prefix.SetField("title")
		prefix.SetBoost(0.5)
		text = append(text, prefix)
	}

	queries := []query.Query{bleve.NewDisjunctionQuery(text...)}

	if len(params.Types) > 0 {
		typeQueries := make([]query.Query, len(params.Types))
		for i, t := range params.Types {
			tq := bleve.NewTermQuery(string(t))
			tq.SetField("type")
			typeQueries[i] = tq
		}
		queries = append(queries, bleve.NewDisjunctionQuery(typeQueries...))
	}
	if params.Tag != "" {
		tq := bleve.NewTermQuery(params.Tag)
		tq.SetField("tags")
		queries = append(queries, tq)
	}

	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}
