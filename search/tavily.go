// Package search provides the web search client used to research reports.
//
// Information Hiding:
// - Tavily endpoint and request body shape
// - Response decoding and status handling
// - Mapping of transport failures to SearchServiceError
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/richinex/omnireport/model"
)

const (
	// DefaultEndpoint is the Tavily search API.
	DefaultEndpoint = "https://api.tavily.com/search"
	// DefaultMaxResults caps the number of results per query.
	DefaultMaxResults = 10
	// DepthAdvanced favours result quality over latency.
	DepthAdvanced = "advanced"
	// DepthBasic is Tavily's low-latency mode.
	DepthBasic = "basic"
)

// Options configures a Client.
type Options struct {
	Endpoint   string
	MaxResults int
	Depth      string
	Topic      string
	HTTPClient *http.Client
}

// DefaultOptions returns the options used for report research.
func DefaultOptions() Options {
	return Options{
		Endpoint:   DefaultEndpoint,
		MaxResults: DefaultMaxResults,
		Depth:      DepthAdvanced,
		Topic:      "general",
	}
}

// Client calls the Tavily search API. It never retries and never caches:
// identical queries hit the network again.
type Client struct {
	endpoint   string
	maxResults int
	depth      string
	topic      string
	http       *http.Client
}

// NewClient creates a search client. Zero option fields fall back to
// DefaultOptions. Timeouts are left to the supplied http.Client.
func NewClient(opts Options) *Client {
	def := DefaultOptions()
	if opts.Endpoint == "" {
		opts.Endpoint = def.Endpoint
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = def.MaxResults
	}
	if opts.Depth == "" {
		opts.Depth = def.Depth
	}
	if opts.Topic == "" {
		opts.Topic = def.Topic
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	return &Client{
		endpoint:   opts.Endpoint,
		maxResults: opts.MaxResults,
		depth:      opts.Depth,
		topic:      opts.Topic,
		http:       opts.HTTPClient,
	}
}

type searchRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
	MaxResults    int    `json:"max_results"`
	Topic         string `json:"topic"`
}

type searchResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search runs query against the upstream and returns results in upstream
// rank order.
func (c *Client) Search(ctx context.Context, query, apiKey string) ([]model.SearchResult, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("tavily api key: %w", model.ErrMissingCredential)
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}

	payload, err := json.Marshal(searchRequest{
		APIKey:        apiKey,
		Query:         query,
		SearchDepth:   c.depth,
		IncludeAnswer: false,
		MaxResults:    c.maxResults,
		Topic:         c.topic,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &model.SearchServiceError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &model.SearchServiceError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Err:        upstreamDetail(body),
		}
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, &model.SearchServiceError{
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Err:        fmt.Errorf("failed to decode response: %w", err),
		}
	}

	results := make([]model.SearchResult, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		results = append(results, model.SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
			Score:   r.Score,
		})
	}
	return results, nil
}

// upstreamDetail pulls Tavily's {"detail": {"error": ...}} message when the
// body carries one.
func upstreamDetail(body []byte) error {
	var payload struct {
		Detail struct {
			Error string `json:"error"`
		} `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail.Error != "" {
		return errors.New(payload.Detail.Error)
	}
	return nil
}
