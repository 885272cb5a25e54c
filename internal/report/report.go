// Package report renders an orchestrator snapshot as plain-text tables.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"PhotoCurator/internal/domain"
	"PhotoCurator/internal/usecase"
	"PhotoCurator/internal/view"
)

// Data is everything a report shows.
type Data struct {
	View        view.Result
	Query       string
	Albums      []domain.Album
	Suggestions []string
	Stats       usecase.Stats
	Activity    []domain.ActivityEntry
	// ActivityLimit caps the activity table; zero shows every entry.
	ActivityLimit int
}

// Snapshot collects report data from a running orchestrator.
func Snapshot(o *usecase.Orchestrator) Data {
	return Data{
		View:        o.View(),
		Query:       o.Query(),
		Albums:      o.Albums(),
		Suggestions: o.Suggestions(),
		Stats:       o.Stats(),
		Activity:    o.Activity(),
	}
}

// Render writes the report to w.
func Render(w io.Writer, d Data) error {
	sections := []string{
		renderStats(d.Stats),
		renderView(d),
	}
	if len(d.Suggestions) > 0 {
		sections = append(sections, renderSuggestions(d.Suggestions))
	}
	if len(d.Activity) > 0 {
		sections = append(sections, renderActivity(d.Activity, d.ActivityLimit))
	}

	_, err := io.WriteString(w, strings.Join(sections, "\n\n")+"\n")
	return err
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Format.Footer = text.FormatDefault
	return tbl
}

func renderStats(st usecase.Stats) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Items", "Analyzed", "Failed", "Sensitive", "Used", "Albums", "Reclaimable"})
	tbl.AppendRow(table.Row{
		st.Total,
		st.Analyzed,
		st.Failed,
		st.Sensitive,
		humanize.IBytes(uint64(st.UsedBytes)),
		st.Albums,
		humanize.IBytes(uint64(st.Savings)),
	})
	return "Collection:\n" + tbl.Render()
}

func renderView(d Data) string {
	title := viewTitle(d)
	if d.View.AlbumMode {
		return title + ":\n" + renderAlbums(d.Albums)
	}

	tbl := newTable()
	tbl.AppendHeader(table.Row{"Name", "Status", "Size", "Scene", "Emotion", "Risk"})
	for _, item := range d.View.Items {
		scene, emotion, risk := "", "", ""
		if item.Result != nil {
			scene = item.Result.Scene
			emotion = strings.TrimSpace(item.Result.DominantEmotion + " (" + string(item.Result.Sentiment) + ")")
			if item.Result.IsSensitive {
				risk = item.Result.RiskClassification
				if risk == "" {
					risk = "sensitive"
				}
			}
		}
		tbl.AppendRow(table.Row{item.Name, string(item.Status), humanize.IBytes(uint64(item.Size)), scene, emotion, risk})
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("%d items in this view", len(d.View.Items))})
	return title + ":\n" + tbl.Render()
}

func renderAlbums(albums []domain.Album) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Album", "Category", "Photos", "Cover"})
	for _, a := range albums {
		tbl.AppendRow(table.Row{a.Title, string(a.Category), len(a.Members), a.CoverURL})
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d albums", len(albums))})
	return tbl.Render()
}

func renderSuggestions(suggestions []string) string {
	var b strings.Builder
	b.WriteString("Planner insights:")
	for _, s := range suggestions {
		b.WriteString("\n  - ")
		b.WriteString(s)
	}
	return b.String()
}

func renderActivity(entries []domain.ActivityEntry, limit int) string {
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	tbl := newTable()
	tbl.AppendHeader(table.Row{"Time", "Agent", "Severity", "Message"})
	for _, e := range entries {
		tbl.AppendRow(table.Row{e.CreatedAt.Format("15:04:05"), e.Agent, string(e.Severity), e.Message})
	}
	return "Activity:\n" + tbl.Render()
}

func viewTitle(d Data) string {
	switch d.View.Tab {
	case view.TabMemories:
		return "Memory Capsules"
	case view.TabPrivacy:
		return "Secure Vault"
	case view.TabEmotion:
		return "Positive Highlights"
	default:
		if d.Query != "" {
			return fmt.Sprintf("Search: %q", d.Query)
		}
		return "Your Collection"
	}
}
