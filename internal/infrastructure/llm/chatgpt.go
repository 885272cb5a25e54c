package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"PhotoCurator/internal/config"
	"PhotoCurator/internal/domain"
	"PhotoCurator/internal/intel"
	"PhotoCurator/internal/ports"
)

// ChatGPTClient implements ports.Intelligence on top of an
// OpenAI-compatible chat-completions API.
type ChatGPTClient struct {
	endpoint    string
	model       string
	visionModel string
	apiKey      string
	httpClient  *http.Client
}

var _ ports.Intelligence = (*ChatGPTClient)(nil)

// NewChatGPTClient builds a client from configuration.
func NewChatGPTClient(cfg config.IntelligenceConfig) *ChatGPTClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	visionModel := cfg.VisionModel
	if visionModel == "" {
		visionModel = cfg.Model
	}
	return &ChatGPTClient{
		endpoint:    cfg.Endpoint,
		model:       cfg.Model,
		visionModel: visionModel,
		apiKey:      cfg.APIKey,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// Analyze sends the image inline as a data URL.
func (c *ChatGPTClient) Analyze(ctx context.Context, req domain.AnalysisRequest) (domain.AnalysisResult, error) {
	mediaType := req.MediaType
	if mediaType == "" {
		mediaType = "image/jpeg"
	}
	parts := []contentPart{
		{Type: "text", Text: intel.AnalyzePrompt},
		{Type: "image_url", ImageURL: &imageURL{
			URL: "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(req.Data),
		}},
	}

	raw, err := c.complete(ctx, c.visionModel, parts)
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	return intel.DecodeAnalysis(raw)
}

// Cluster groups completed items into album drafts.
func (c *ChatGPTClient) Cluster(ctx context.Context, items []domain.ClusterInput) ([]domain.AlbumDraft, error) {
	prompt, err := intel.ClusterPrompt(intel.NewClusterRequest(items))
	if err != nil {
		return nil, err
	}
	raw, err := c.complete(ctx, c.model, prompt)
	if err != nil {
		return nil, err
	}
	return intel.DecodeClusters(raw)
}

// Optimize asks for storage suggestions.
func (c *ChatGPTClient) Optimize(ctx context.Context, items []domain.OptimizeInput) ([]string, error) {
	prompt, err := intel.OptimizePrompt(intel.NewOptimizeRequest(items))
	if err != nil {
		return nil, err
	}
	raw, err := c.complete(ctx, c.model, prompt)
	if err != nil {
		return nil, err
	}
	return intel.DecodeSuggestions(raw)
}

// Search matches a query against item descriptions.
func (c *ChatGPTClient) Search(ctx context.Context, query string, items []domain.SearchContext) ([]domain.ItemID, error) {
	prompt, err := intel.SearchPrompt(intel.NewSearchRequest(query, items))
	if err != nil {
		return nil, err
	}
	raw, err := c.complete(ctx, c.model, prompt)
	if err != nil {
		return nil, err
	}
	return intel.DecodeMatches(raw)
}

// complete posts a single user message and returns the JSON content of the
// first choice.
func (c *ChatGPTClient) complete(ctx context.Context, model string, content any) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("chatgpt client is nil")
	}
	if c.apiKey == "" || c.endpoint == "" || model == "" {
		return nil, fmt.Errorf("chatgpt client misconfigured")
	}

	body, err := json.Marshal(map[string]any{
		"model":           model,
		"messages":        []chatMessage{{Role: "user", Content: content}},
		"response_format": map[string]string{"type": "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal chatgpt payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chatgpt request: %w", err)
	}
	defer resp.Body.Close()

	if err := intel.CheckResponse(resp); err != nil {
		return nil, err
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("%w: decode completion: %v", intel.ErrMalformedResponse, err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%w: completion has no choices", intel.ErrMalformedResponse)
	}

	out := intel.StripFences(completion.Choices[0].Message.Content)
	if strings.TrimSpace(out) == "" {
		return nil, fmt.Errorf("%w: empty completion", intel.ErrMalformedResponse)
	}
	return []byte(out), nil
}
