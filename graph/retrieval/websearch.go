package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/kbchat/ragchat-go/graph"
)

// WebHit is a single web search result, already stripped of markup.
type WebHit struct {
	Title   string
	URL     string
	Snippet string
}

// WebSearcher queries an external search API and sanitizes the returned
// snippets, grounded on the pack's Tavily client (same request/response
// shape) with HTML cleanup added via goquery/bluemonday since search APIs
// frequently return raw HTML fragments in content fields.
type WebSearcher struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	sanitizer  *bluemonday.Policy
}

// NewWebSearcher builds a WebSearcher against endpoint (a Tavily-compatible
// search API) authenticated with apiKey.
func NewWebSearcher(apiKey, endpoint string) *WebSearcher {
	if endpoint == "" {
		endpoint = "https://api.tavily.com/search"
	}
	return &WebSearcher{
		apiKey:     apiKey,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		sanitizer:  bluemonday.StrictPolicy(),
	}
}

type searchRequest struct {
	Query       string `json:"query"`
	APIKey      string `json:"api_key"`
	SearchDepth string `json:"search_depth"`
	MaxResults  int    `json:"max_results"`
}

type searchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

type searchResponse struct {
	Results []searchResult `json:"results"`
}

// Search runs a web search for query, returning up to maxResults sanitized
// hits. A nonfatal upstream failure is surfaced as an error; the caller
// decides whether to proceed without web augmentation.
func (s *WebSearcher) Search(ctx context.Context, query string, maxResults int) ([]WebHit, error) {
	body, err := json.Marshal(searchRequest{
		Query:       query,
		APIKey:      s.apiKey,
		SearchDepth: "basic",
		MaxResults:  maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("websearch: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("websearch: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("websearch: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("websearch: upstream status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("websearch: decode response: %w", err)
	}

	hits := make([]WebHit, len(parsed.Results))
	for i, r := range parsed.Results {
		hits[i] = WebHit{
			Title:   s.cleanText(r.Title),
			URL:     r.URL,
			Snippet: s.cleanText(r.Content),
		}
	}
	return hits, nil
}

// cleanText strips HTML markup from a snippet that may be a raw fragment,
// then runs the result through a strict sanitizer as a second defense
// against injected markup before it reaches a prompt or a UI.
func (s *WebSearcher) cleanText(raw string) string {
	if strings.Contains(raw, "<") && strings.Contains(raw, ">") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw)); err == nil {
			raw = doc.Text()
		}
	}
	return strings.TrimSpace(s.sanitizer.Sanitize(raw))
}

// AugmentWithWeb formats hits as the "互联网搜索结果" block and concatenates
// it after localContext, and converts hits into url-typed ChatSource
// entries at the fixed relevance score the retrieve node assigns web
// results.
func AugmentWithWeb(localContext string, hits []WebHit) (context string, sources []graph.ChatSource) {
	if len(hits) == 0 {
		return localContext, nil
	}

	var webBlock strings.Builder
	for i, h := range hits {
		if i > 0 {
			webBlock.WriteString("\n\n")
		}
		fmt.Fprintf(&webBlock, "%s\n%s\n%s", h.Title, h.URL, h.Snippet)
	}

	combined := fmt.Sprintf("[本地知识库]:\n%s\n\n[互联网搜索结果]:\n%s", localContext, webBlock.String())

	sources = make([]graph.ChatSource, len(hits))
	for i, h := range hits {
		sources[i] = graph.ChatSource{
			Content:    h.Snippet,
			URL:        h.URL,
			Score:      0.9,
			SourceType: "url",
			SiteName:   h.Title,
		}
	}
	return combined, sources
}
