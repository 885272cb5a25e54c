// Package intel defines the wire contract of the external intelligence
// service: payload shapes, response schemas and prompts shared by the
// REST and chat-completion adapters.
package intel

import (
	"encoding/json"
	"strings"
	"time"

	"PhotoCurator/internal/domain"
)

// Analysis is the wire form of an analysis result.
type Analysis struct {
	Objects            []string `json:"objects"`
	Faces              []string `json:"faces,omitempty"`
	Scene              string   `json:"scene"`
	Text               string   `json:"text,omitempty"`
	IsSensitive        bool     `json:"isSensitive"`
	RiskClassification string   `json:"riskClassification,omitempty"`
	RiskReason         string   `json:"riskReason,omitempty"`
	DominantEmotion    string   `json:"dominantEmotion"`
	Sentiment          string   `json:"sentiment"`
	LocationEstimate   string   `json:"locationEstimate,omitempty"`
	TemporalContext    string   `json:"temporalContext,omitempty"`
	Timestamp          string   `json:"timestamp,omitempty"`
}

// AnalyzeRequest is sent to the REST /analyze endpoint.
type AnalyzeRequest struct {
	Name      string `json:"name"`
	MediaType string `json:"mediaType"`
	Data      []byte `json:"data"`
}

// ClusterItem is one entry of a clustering request.
type ClusterItem struct {
	ID   string   `json:"id"`
	Meta Analysis `json:"meta"`
}

// ClusterRequest wraps the items offered to clustering.
type ClusterRequest struct {
	Items []ClusterItem `json:"items"`
}

// OptimizeItem is one entry of an optimization request.
type OptimizeItem struct {
	ID      string   `json:"id"`
	Scene   string   `json:"scene"`
	Objects []string `json:"objects"`
}

// OptimizeRequest wraps the items offered to the planner.
type OptimizeRequest struct {
	Items []OptimizeItem `json:"items"`
}

// SearchItem is one searchable description.
type SearchItem struct {
	ID   string `json:"id"`
	Desc string `json:"desc"`
}

// SearchRequest carries the query with the searchable context.
type SearchRequest struct {
	Query   string       `json:"query"`
	Context []SearchItem `json:"context"`
}

type albumWire struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	PhotoIDs    []string `json:"photoIds"`
	Category    string   `json:"category"`
}

// FromResult converts a domain result to its wire form.
func FromResult(r domain.AnalysisResult) Analysis {
	a := Analysis{
		Objects:            nonNil(r.Objects),
		Faces:              r.Faces,
		Scene:              r.Scene,
		Text:               r.Text,
		IsSensitive:        r.IsSensitive,
		RiskClassification: r.RiskClassification,
		RiskReason:         r.RiskReason,
		DominantEmotion:    r.DominantEmotion,
		Sentiment:          string(r.Sentiment),
		LocationEstimate:   r.LocationEstimate,
		TemporalContext:    r.TemporalContext,
	}
	if !r.AnalyzedAt.IsZero() {
		a.Timestamp = r.AnalyzedAt.UTC().Format(time.RFC3339)
	}
	return a
}

// NewClusterRequest builds the clustering payload.
func NewClusterRequest(items []domain.ClusterInput) ClusterRequest {
	req := ClusterRequest{Items: make([]ClusterItem, 0, len(items))}
	for _, it := range items {
		req.Items = append(req.Items, ClusterItem{ID: string(it.ID), Meta: FromResult(it.Result)})
	}
	return req
}

// NewOptimizeRequest builds the planner payload.
func NewOptimizeRequest(items []domain.OptimizeInput) OptimizeRequest {
	req := OptimizeRequest{Items: make([]OptimizeItem, 0, len(items))}
	for _, it := range items {
		req.Items = append(req.Items, OptimizeItem{ID: string(it.ID), Scene: it.Scene, Objects: nonNil(it.Objects)})
	}
	return req
}

// NewSearchRequest builds the search payload.
func NewSearchRequest(query string, items []domain.SearchContext) SearchRequest {
	req := SearchRequest{Query: query, Context: make([]SearchItem, 0, len(items))}
	for _, it := range items {
		req.Context = append(req.Context, SearchItem{ID: string(it.ID), Desc: it.Description})
	}
	return req
}

// DecodeAnalysis validates and converts an analysis payload. A missing
// timestamp is left zero for the caller to fill.
func DecodeAnalysis(raw []byte) (domain.AnalysisResult, error) {
	if err := validate(loadSchemas().analysis, "analysis", raw); err != nil {
		return domain.AnalysisResult{}, err
	}
	var a Analysis
	if err := json.Unmarshal(raw, &a); err != nil {
		return domain.AnalysisResult{}, malformed("analysis: %v", err)
	}

	res := domain.AnalysisResult{
		Scene:              a.Scene,
		Objects:            a.Objects,
		Faces:              a.Faces,
		Text:               a.Text,
		IsSensitive:        a.IsSensitive,
		RiskClassification: a.RiskClassification,
		RiskReason:         a.RiskReason,
		DominantEmotion:    a.DominantEmotion,
		Sentiment:          domain.Sentiment(a.Sentiment),
		LocationEstimate:   a.LocationEstimate,
		TemporalContext:    a.TemporalContext,
	}
	if a.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, a.Timestamp); err == nil {
			res.AnalyzedAt = ts
		}
	}
	return res, nil
}

// DecodeClusters validates and converts a clustering payload.
func DecodeClusters(raw []byte) ([]domain.AlbumDraft, error) {
	if err := validate(loadSchemas().cluster, "cluster", raw); err != nil {
		return nil, err
	}
	var resp struct {
		Albums []albumWire `json:"albums"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, malformed("cluster: %v", err)
	}

	drafts := make([]domain.AlbumDraft, 0, len(resp.Albums))
	for _, a := range resp.Albums {
		members := make([]domain.ItemID, 0, len(a.PhotoIDs))
		for _, id := range a.PhotoIDs {
			members = append(members, domain.ItemID(id))
		}
		drafts = append(drafts, domain.AlbumDraft{
			Title:       a.Title,
			Description: a.Description,
			Members:     members,
			Category:    domain.AlbumCategory(a.Category),
		})
	}
	return drafts, nil
}

// DecodeSuggestions validates a planner payload. Absent suggestions decode
// as an empty list.
func DecodeSuggestions(raw []byte) ([]string, error) {
	if err := validate(loadSchemas().suggestions, "optimize", raw); err != nil {
		return nil, err
	}
	var resp struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, malformed("optimize: %v", err)
	}
	return nonNil(resp.Suggestions), nil
}

// DecodeMatches validates a search payload. Absent ids decode as no match.
func DecodeMatches(raw []byte) ([]domain.ItemID, error) {
	if err := validate(loadSchemas().matches, "search", raw); err != nil {
		return nil, err
	}
	var resp struct {
		MatchingIDs []string `json:"matchingIds"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, malformed("search: %v", err)
	}
	ids := make([]domain.ItemID, 0, len(resp.MatchingIDs))
	for _, id := range resp.MatchingIDs {
		ids = append(ids, domain.ItemID(id))
	}
	return ids, nil
}

// StripFences removes a markdown code fence that chat models sometimes wrap
// around JSON output.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
