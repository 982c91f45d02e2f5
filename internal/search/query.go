package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/listenupapp/shelf/internal/capture"
)

// DefaultLimit is the page size used when SearchParams.Limit is zero.
const DefaultLimit = 20

// SearchParams configures a search query.
type SearchParams struct {
	UserID       string // Required: results never cross users
	Query        string
	CollectionID string // Optional filter

	Limit  int
	Offset int

	Highlight bool
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string      `json:"query"`
	Hits   []SearchHit `json:"hits"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"took_ms"`
}

// SearchHit represents a single search result.
type SearchHit struct {
	Highlights   map[string]string `json:"highlights,omitempty"`
	ID           string            `json:"id"`
	CollectionID string            `json:"collection_id"`
	Title        string            `json:"title"`
	Author       string            `json:"author,omitempty"`
	Score        float64           `json:"score"`
}

// Search executes a search query scoped to params.UserID.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	if params.UserID == "" {
		return nil, fmt.Errorf("search requires a user")
	}
	if params.Limit <= 0 {
		params.Limit = DefaultLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	searchRequest := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)

	if strings.TrimSpace(params.Query) == "" {
		searchRequest.SortBy([]string{"-created_at"})
	} else {
		searchRequest.SortBy([]string{"-_score"})
	}

	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("name")
		searchRequest.Highlight.AddField("author")
	}

	searchRequest.Fields = []string{"id", "collection_id", "name", "author"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		searchHit := SearchHit{Score: hit.Score}

		if id, ok := hit.Fields["id"].(string); ok {
			searchHit.ID = id
		}
		if c, ok := hit.Fields["collection_id"].(string); ok {
			searchHit.CollectionID = c
		}
		if n, ok := hit.Fields["name"].(string); ok {
			searchHit.Title = n
		}
		if a, ok := hit.Fields["author"].(string); ok {
			searchHit.Author = a
		}

		if len(hit.Fragments) > 0 {
			searchHit.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, searchHit)
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
// Text matches are OR'd across fields; user and collection filters are AND'd on top.
func buildSearchQuery(params SearchParams) query.Query {
	userQuery := bleve.NewTermQuery(params.UserID)
	userQuery.SetField("user_id")
	queries := []query.Query{userQuery}

	if params.CollectionID != "" {
		collQuery := bleve.NewTermQuery(params.CollectionID)
		collQuery.SetField("collection_id")
		queries = append(queries, collQuery)
	}

	if q := strings.TrimSpace(params.Query); q != "" {
		var textQueries []query.Query

		nameMatch := bleve.NewMatchQuery(q)
		nameMatch.SetField("name")
		nameMatch.SetBoost(3.0)
		textQueries = append(textQueries, nameMatch)

		authorMatch := bleve.NewMatchQuery(q)
		authorMatch.SetField("author")
		authorMatch.SetBoost(2.0)
		textQueries = append(textQueries, authorMatch)

		publisherMatch := bleve.NewMatchQuery(q)
		publisherMatch.SetField("publisher")
		textQueries = append(textQueries, publisherMatch)

		descMatch := bleve.NewMatchQuery(q)
		descMatch.SetField("description")
		descMatch.SetBoost(0.5)
		textQueries = append(textQueries, descMatch)

		// Typo tolerance on titles
		fuzzyQuery := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("name")
		fuzzyQuery.SetBoost(0.8)
		textQueries = append(textQueries, fuzzyQuery)

		// Prefix query for autocomplete (minimum 2 chars)
		if len(q) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(q))
			prefixQuery.SetField("name")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		if isbn, ok := capture.NormalizeISBN(q); ok {
			isbnQuery := bleve.NewTermQuery(isbn)
			isbnQuery.SetField("isbn")
			isbnQuery.SetBoost(5.0)
			textQueries = append(textQueries, isbnQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	return bleve.NewConjunctionQuery(queries...)
}
