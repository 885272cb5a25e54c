// Package activity keeps the bounded, newest-first record of orchestration
// events and fans new entries out to subscribers.
package activity

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"PhotoCurator/internal/domain"
)

// DefaultMaxEntries caps the log when no size is configured.
const DefaultMaxEntries = 50

// Subscriber receives every appended entry.
type Subscriber func(domain.ActivityEntry)

// Log is safe for concurrent appends.
type Log struct {
	mu          sync.Mutex
	entries     []domain.ActivityEntry
	max         int
	subscribers []Subscriber
	logger      *slog.Logger
	now         func() time.Time
}

// NewLog builds a log holding at most max entries. Entries are mirrored to
// logger when it is non-nil.
func NewLog(max int, logger *slog.Logger) *Log {
	if max <= 0 {
		max = DefaultMaxEntries
	}
	return &Log{max: max, logger: logger, now: time.Now}
}

// Subscribe registers fn for entries appended from now on.
func (l *Log) Subscribe(fn Subscriber) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.subscribers = append(l.subscribers, fn)
	l.mu.Unlock()
}

// Add appends an entry and evicts the oldest one past the cap.
func (l *Log) Add(agent, message string, severity domain.Severity) domain.ActivityEntry {
	entry := domain.ActivityEntry{
		ID:       uuid.NewString(),
		Agent:    agent,
		Message:  message,
		Severity: severity,
	}

	l.mu.Lock()
	entry.CreatedAt = l.now()
	l.entries = append([]domain.ActivityEntry{entry}, l.entries...)
	if len(l.entries) > l.max {
		l.entries = l.entries[:l.max]
	}
	subs := append([]Subscriber(nil), l.subscribers...)
	l.mu.Unlock()

	l.mirror(entry)
	for _, fn := range subs {
		fn(entry)
	}
	return entry
}

// Info, Alert and Success are shorthands for Add.
func (l *Log) Info(agent, message string) domain.ActivityEntry {
	return l.Add(agent, message, domain.SeverityInfo)
}

func (l *Log) Alert(agent, message string) domain.ActivityEntry {
	return l.Add(agent, message, domain.SeverityAlert)
}

func (l *Log) Success(agent, message string) domain.ActivityEntry {
	return l.Add(agent, message, domain.SeveritySuccess)
}

// Entries returns a copy, newest first.
func (l *Log) Entries() []domain.ActivityEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.ActivityEntry(nil), l.entries...)
}

func (l *Log) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func (l *Log) mirror(entry domain.ActivityEntry) {
	if l.logger == nil {
		return
	}
	level := slog.LevelInfo
	if entry.Severity == domain.SeverityAlert {
		level = slog.LevelWarn
	}
	l.logger.Log(context.Background(), level, entry.Message,
		"agent", entry.Agent,
		"severity", string(entry.Severity),
	)
}
