package intel

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"PhotoCurator/internal/domain"
)

func TestDecodeAnalysis(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"objects": ["card", "table"],
		"faces": null,
		"scene": "desk",
		"text": "4111 1111",
		"isSensitive": true,
		"riskClassification": "Financial",
		"riskReason": null,
		"dominantEmotion": "neutral",
		"sentiment": "neutral",
		"timestamp": "2024-05-01T10:00:00Z"
	}`)

	res, err := DecodeAnalysis(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.IsSensitive || res.RiskClassification != "Financial" || res.Scene != "desk" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Sentiment != domain.SentimentNeutral {
		t.Fatalf("sentiment = %s", res.Sentiment)
	}
	if !res.AnalyzedAt.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("timestamp = %s", res.AnalyzedAt)
	}
}

func TestDecodeAnalysisRejectsMalformed(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"missing scene":     `{"objects": [], "isSensitive": false, "dominantEmotion": "joy", "sentiment": "positive"}`,
		"bad sentiment":     `{"objects": [], "scene": "x", "isSensitive": false, "dominantEmotion": "joy", "sentiment": "ecstatic"}`,
		"wrong type":        `{"objects": "dog", "scene": "x", "isSensitive": false, "dominantEmotion": "joy", "sentiment": "positive"}`,
		"sensitive as text": `{"objects": [], "scene": "x", "isSensitive": "yes", "dominantEmotion": "joy", "sentiment": "positive"}`,
		"not json":          `scene: beach`,
	}

	for name, raw := range tests {
		if _, err := DecodeAnalysis([]byte(raw)); !errors.Is(err, ErrMalformedResponse) {
			t.Fatalf("%s: expected malformed error, got %v", name, err)
		}
	}
}

func TestDecodeClusters(t *testing.T) {
	t.Parallel()

	drafts, err := DecodeClusters([]byte(`{"albums": [
		{"title": "Summer Joy", "photoIds": ["a", "b"], "category": "event"},
		{"title": "Docs", "description": "papers", "photoIds": [], "category": "privacy"}
	]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(drafts) != 2 || drafts[0].Title != "Summer Joy" || len(drafts[0].Members) != 2 {
		t.Fatalf("unexpected drafts: %+v", drafts)
	}
	if drafts[1].Category != domain.CategoryPrivacy || drafts[1].Description != "papers" {
		t.Fatalf("unexpected second draft: %+v", drafts[1])
	}

	if _, err := DecodeClusters([]byte(`{"albums": [{"title": "x", "photoIds": [], "category": "holiday"}]}`)); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("unknown category accepted: %v", err)
	}
	if _, err := DecodeClusters([]byte(`{}`)); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("missing albums accepted: %v", err)
	}
}

func TestDecodeOptionalLists(t *testing.T) {
	t.Parallel()

	suggestions, err := DecodeSuggestions([]byte(`{}`))
	if err != nil || suggestions == nil || len(suggestions) != 0 {
		t.Fatalf("expected empty suggestions, got %v %v", suggestions, err)
	}
	ids, err := DecodeMatches([]byte(`{"matchingIds": ["x", "y"]}`))
	if err != nil || len(ids) != 2 || ids[1] != "y" {
		t.Fatalf("unexpected matches %v %v", ids, err)
	}
	if _, err := DecodeMatches([]byte(`{"matchingIds": [1, 2]}`)); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("numeric ids accepted: %v", err)
	}
}

func TestStripFences(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}```":       `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
	}
	for in, want := range tests {
		if got := StripFences(in); got != want {
			t.Fatalf("StripFences(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCheckResponse(t *testing.T) {
	t.Parallel()

	resp := &http.Response{
		StatusCode: http.StatusTooManyRequests,
		Status:     "429 Too Many Requests",
		Body:       io.NopCloser(strings.NewReader("RESOURCE_EXHAUSTED")),
	}
	err := CheckResponse(resp)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode() != http.StatusTooManyRequests {
		t.Fatalf("expected APIError, got %v", err)
	}
	if !strings.Contains(err.Error(), "RESOURCE_EXHAUSTED") {
		t.Fatalf("body excerpt missing: %v", err)
	}

	ok := &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(strings.NewReader(""))}
	if err := CheckResponse(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPromptsEmbedContext(t *testing.T) {
	t.Parallel()

	prompt, err := SearchPrompt(NewSearchRequest("beach", []domain.SearchContext{{ID: "p1", Description: "sunny beach"}}))
	if err != nil {
		t.Fatalf("prompt: %v", err)
	}
	if !strings.Contains(prompt, `"beach"`) || !strings.Contains(prompt, `"id":"p1"`) {
		t.Fatalf("prompt missing context: %s", prompt)
	}

	prompt, err = ClusterPrompt(NewClusterRequest([]domain.ClusterInput{{ID: "p2", Result: domain.AnalysisResult{Scene: "park"}}}))
	if err != nil || !strings.Contains(prompt, `"scene":"park"`) {
		t.Fatalf("cluster prompt: %s %v", prompt, err)
	}
}
