// Package view derives what is shown from registry state, the active tab,
// the search filter and the vault state.
package view

import (
	"fmt"
	"strings"

	"PhotoCurator/internal/domain"
)

// Tab selects a presentation of the collection.
type Tab string

const (
	TabAll      Tab = "all"
	TabMemories Tab = "memories"
	TabPrivacy  Tab = "privacy"
	TabEmotion  Tab = "emotion"
)

// ParseTab maps user input to a tab.
func ParseTab(value string) (Tab, error) {
	switch tab := Tab(strings.ToLower(strings.TrimSpace(value))); tab {
	case TabAll, TabMemories, TabPrivacy, TabEmotion:
		return tab, nil
	case "":
		return TabAll, nil
	default:
		return "", fmt.Errorf("unknown tab %q", value)
	}
}

// Filter is a set of item ids returned by search. A nil *Filter means no
// filter is active.
type Filter struct {
	ids map[domain.ItemID]struct{}
}

// NewFilter builds a filter from matching ids.
func NewFilter(ids []domain.ItemID) *Filter {
	f := &Filter{ids: make(map[domain.ItemID]struct{}, len(ids))}
	for _, id := range ids {
		f.ids[id] = struct{}{}
	}
	return f
}

// Contains reports whether id matched.
func (f *Filter) Contains(id domain.ItemID) bool {
	if f == nil {
		return true
	}
	_, ok := f.ids[id]
	return ok
}

// Len returns the number of matching ids.
func (f *Filter) Len() int {
	if f == nil {
		return 0
	}
	return len(f.ids)
}

// Result is the output of Compose. Album mode leaves Items empty.
type Result struct {
	Tab       Tab
	AlbumMode bool
	Items     []domain.Item
}

// Compose returns the visible items in registry order. It does not mutate
// its inputs.
func Compose(items []domain.Item, tab Tab, filter *Filter, unlocked bool) Result {
	res := Result{Tab: tab}
	if tab == TabMemories {
		res.AlbumMode = true
		return res
	}
	if tab == TabPrivacy && !unlocked {
		return res
	}

	for _, item := range items {
		if !filter.Contains(item.ID) {
			continue
		}
		if visible(item, tab) {
			res.Items = append(res.Items, item)
		}
	}
	return res
}

func visible(item domain.Item, tab Tab) bool {
	switch tab {
	case TabAll:
		return !item.Sensitive()
	case TabPrivacy:
		return item.Sensitive()
	case TabEmotion:
		return !item.Sensitive() && item.Result != nil && item.Result.Sentiment == domain.SentimentPositive
	default:
		return false
	}
}
