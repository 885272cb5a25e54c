package ml

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"PhotoCurator/internal/domain"
	"PhotoCurator/internal/intel"
	"PhotoCurator/internal/ports"
)

// Client talks to an intelligence service exposing one REST endpoint per
// capability.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

var _ ports.Intelligence = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		http:     &http.Client{Timeout: timeout},
	}
}

// Analyze sends the image bytes for classification.
func (c *Client) Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	payload := intel.AnalyzeRequest{Name: req.Name, MediaType: req.MediaType, Data: req.Data}

	raw, err := c.post(ctx, "/analyze", payload)
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	return intel.DecodeAnalysis(raw)
}

// Cluster groups completed items into album drafts.
func (c *Client) Cluster(ctx context.Context, items []domain.ClusterInput) ([]domain.AlbumDraft, error) {
	raw, err := c.post(ctx, "/cluster", intel.NewClusterRequest(items))
	if err != nil {
		return nil, err
	}
	return intel.DecodeClusters(raw)
}

// Optimize asks for storage suggestions.
func (c *Client) Optimize(ctx context.Context, items []domain.OptimizeInput) ([]string, error) {
	raw, err := c.post(ctx, "/optimize", intel.NewOptimizeRequest(items))
	if err != nil {
		return nil, err
	}
	return intel.DecodeSuggestions(raw)
}

// Search matches a query against item descriptions.
func (c *Client) Search(ctx context.Context, query string, items []domain.SearchContext) ([]domain.ItemID, error) {
	raw, err := c.post(ctx, "/search", intel.NewSearchRequest(query, items))
	if err != nil {
		return nil, err
	}
	return intel.DecodeMatches(raw)
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if err := intel.CheckResponse(resp); err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response %s: %w", path, err)
	}
	return raw, nil
}
