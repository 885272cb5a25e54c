package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"PhotoCurator/internal/domain"
)

func TestNotifyPostsMessage(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.Form.Get("chat_id") != "42" {
			t.Errorf("unexpected chat id %q", r.Form.Get("chat_id"))
		}
		if got := r.Form.Get("text"); got != "[Privacy Guardian] AUTO-SECURE: Document detected in id.jpg." {
			t.Errorf("unexpected text %q", got)
		}
	}))
	defer srv.Close()

	n := NewNotifier("TOKEN", "42")
	n.baseURL = srv.URL
	err := n.Notify(context.Background(), domain.ActivityEntry{
		Agent:    domain.AgentPrivacyGuardian,
		Message:  "AUTO-SECURE: Document detected in id.jpg.",
		Severity: domain.SeverityAlert,
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
}

func TestNotifyErrors(t *testing.T) {
	t.Parallel()

	if err := NewNotifier("", "").Notify(context.Background(), domain.ActivityEntry{}); err == nil {
		t.Fatal("expected misconfiguration error")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	n := NewNotifier("TOKEN", "42")
	n.baseURL = srv.URL
	if err := n.Notify(context.Background(), domain.ActivityEntry{}); err == nil {
		t.Fatal("expected status error")
	}
}
