package activity

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"pgregory.net/rapid"

	"PhotoCurator/internal/domain"
)

func TestAddNewestFirst(t *testing.T) {
	t.Parallel()

	log := NewLog(3, nil)
	log.Info(domain.AgentOrchestrator, "one")
	log.Alert(domain.AgentVision, "two")
	log.Success(domain.AgentMemory, "three")
	log.Info(domain.AgentPlanner, "four")

	entries := log.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected cap of 3, got %d", len(entries))
	}
	want := []string{"four", "three", "two"}
	for i, msg := range want {
		if entries[i].Message != msg {
			t.Fatalf("entry %d: expected %q, got %q", i, msg, entries[i].Message)
		}
	}
	if entries[2].Severity != domain.SeverityAlert || entries[2].Agent != domain.AgentVision {
		t.Fatalf("unexpected entry: %+v", entries[2])
	}
}

func TestDefaultCap(t *testing.T) {
	t.Parallel()

	log := NewLog(0, nil)
	for i := 0; i < DefaultMaxEntries+10; i++ {
		log.Info(domain.AgentOrchestrator, fmt.Sprintf("entry %d", i))
	}
	if log.size() != DefaultMaxEntries {
		t.Fatalf("expected %d entries, got %d", DefaultMaxEntries, log.size())
	}
}

func TestSubscribersSeeEveryEntry(t *testing.T) {
	t.Parallel()

	log := NewLog(2, nil)
	var got []string
	log.Subscribe(func(e domain.ActivityEntry) {
		got = append(got, e.Message)
		// Reading back from inside a subscriber must not deadlock.
		_ = log.Entries()
	})
	log.Info(domain.AgentOrchestrator, "a")
	log.Info(domain.AgentOrchestrator, "b")
	log.Info(domain.AgentOrchestrator, "c")

	if strings.Join(got, ",") != "a,b,c" {
		t.Fatalf("unexpected notifications: %v", got)
	}
}

func TestMirrorsToLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	log := NewLog(5, logger)
	log.Alert(domain.AgentPrivacyGuardian, "AUTO-SECURE")

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "AUTO-SECURE") {
		t.Fatalf("alert not mirrored as warning: %s", out)
	}
}

func TestConcurrentAppendsStayBounded(t *testing.T) {
	t.Parallel()

	log := NewLog(10, nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				log.Info(domain.AgentVision, fmt.Sprintf("%d-%d", i, j))
			}
		}(i)
	}
	wg.Wait()

	entries := log.Entries()
	if len(entries) != 10 {
		t.Fatalf("expected 10 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].CreatedAt.After(entries[i-1].CreatedAt) {
			t.Fatalf("entry %d newer than entry %d", i, i-1)
		}
	}
}

func TestLogBoundAndOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		max := rapid.IntRange(1, 20).Draw(t, "max")
		n := rapid.IntRange(0, 60).Draw(t, "n")

		log := NewLog(max, nil)
		for i := 0; i < n; i++ {
			log.Info(domain.AgentOrchestrator, fmt.Sprint(i))
		}

		entries := log.Entries()
		if len(entries) > max {
			t.Fatalf("log grew to %d past cap %d", len(entries), max)
		}
		for i, e := range entries {
			if want := fmt.Sprint(n - 1 - i); e.Message != want {
				t.Fatalf("position %d: expected %s, got %s", i, want, e.Message)
			}
		}
	})
}
