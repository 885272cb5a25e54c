package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"PhotoCurator/internal/domain"
	"PhotoCurator/internal/usecase"
	"PhotoCurator/internal/view"
)

func TestRenderItemView(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := Render(&buf, Data{
		View: view.Result{Tab: view.TabAll, Items: []domain.Item{{
			Name:   "beach.jpg",
			Size:   2048,
			Status: domain.StatusCompleted,
			Result: &domain.AnalysisResult{Scene: "beach", DominantEmotion: "joy", Sentiment: domain.SentimentPositive},
		}}},
		Query:       "sunny",
		Stats:       usecase.Stats{Total: 1, Analyzed: 1, UsedBytes: 2048, Savings: 1740.8},
		Suggestions: []string{"Remove duplicate sunsets"},
		Activity: []domain.ActivityEntry{
			{Agent: domain.AgentVision, Message: "Indexed beach.jpg: beach", Severity: domain.SeveritySuccess, CreatedAt: time.Now()},
			{Agent: domain.AgentOrchestrator, Message: "Detected 1 items.", Severity: domain.SeverityInfo, CreatedAt: time.Now()},
		},
		ActivityLimit: 1,
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	out := buf.String()
	for _, want := range []string{`Search: "sunny"`, "beach.jpg", "2.0 KiB", "joy (positive)", "Remove duplicate sunsets", "Indexed beach.jpg"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Detected 1 items.") {
		t.Fatalf("activity limit ignored:\n%s", out)
	}
}

func TestRenderAlbumView(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := Render(&buf, Data{
		View:   view.Result{Tab: view.TabMemories, AlbumMode: true},
		Albums: []domain.Album{{Title: "Summer Joy", Category: domain.CategoryEvent, Members: []domain.ItemID{"a", "b"}, CoverURL: "/photos/a.jpg"}},
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Memory Capsules") || !strings.Contains(out, "Summer Joy") || !strings.Contains(out, "Total: 1 albums") {
		t.Fatalf("unexpected album report:\n%s", out)
	}
}
