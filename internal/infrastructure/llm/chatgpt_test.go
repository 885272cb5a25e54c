package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"PhotoCurator/internal/config"
	"PhotoCurator/internal/domain"
	"PhotoCurator/internal/intel"
	"PhotoCurator/internal/retry"
)

func completionServer(t *testing.T, content string, inspect func(body map[string]any)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if inspect != nil {
			inspect(body)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": content}}},
		})
	}))
}

func newClient(endpoint string) *ChatGPTClient {
	return NewChatGPTClient(config.IntelligenceConfig{
		Endpoint:    endpoint,
		APIKey:      "sk-test",
		Model:       "text-model",
		VisionModel: "vision-model",
		Timeout:     time.Second,
	})
}

func TestAnalyzeSendsDataURL(t *testing.T) {
	t.Parallel()

	content := "```json\n" + `{"objects":["passport"],"scene":"desk","isSensitive":true,"riskClassification":"ID","dominantEmotion":"neutral","sentiment":"neutral"}` + "\n```"
	srv := completionServer(t, content, func(body map[string]any) {
		if body["model"] != "vision-model" {
			t.Errorf("unexpected model %v", body["model"])
		}
		raw, _ := json.Marshal(body["messages"])
		if !strings.Contains(string(raw), "data:image/png;base64,") {
			t.Errorf("image not inlined: %s", raw)
		}
	})
	defer srv.Close()

	res, err := newClient(srv.URL).Analyze(context.Background(), domain.AnalysisRequest{Name: "id.png", MediaType: "image/png", Data: []byte{1, 2, 3}})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !res.IsSensitive || res.RiskClassification != "ID" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestSearchUsesTextModel(t *testing.T) {
	t.Parallel()

	srv := completionServer(t, `{"matchingIds":["p1"]}`, func(body map[string]any) {
		if body["model"] != "text-model" {
			t.Errorf("unexpected model %v", body["model"])
		}
		format, _ := body["response_format"].(map[string]any)
		if format["type"] != "json_object" {
			t.Errorf("json mode not requested: %v", body["response_format"])
		}
	})
	defer srv.Close()

	ids, err := newClient(srv.URL).Search(context.Background(), "docs", []domain.SearchContext{{ID: "p1", Description: "passport"}})
	if err != nil || len(ids) != 1 || ids[0] != "p1" {
		t.Fatalf("search: %v %v", ids, err)
	}
}

func TestMalformedCompletion(t *testing.T) {
	t.Parallel()

	srv := completionServer(t, `{"albums": "none"}`, nil)
	defer srv.Close()

	_, err := newClient(srv.URL).Cluster(context.Background(), nil)
	if !errors.Is(err, intel.ErrMalformedResponse) {
		t.Fatalf("expected malformed error, got %v", err)
	}
}

func TestRateLimitedCompletion(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newClient(srv.URL).Optimize(context.Background(), nil)
	if !retry.IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestMisconfiguredClient(t *testing.T) {
	t.Parallel()

	client := NewChatGPTClient(config.IntelligenceConfig{Endpoint: "http://localhost"})
	if _, err := client.Search(context.Background(), "x", nil); err == nil {
		t.Fatal("expected misconfiguration error")
	}
}
