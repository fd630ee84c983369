package noteservice

import (
	"strings"

	"github.com/starford/quicknote/internal/query"
)

const previewRunes = 50

// Preview is the result row shown before a query is submitted.
type Preview struct {
	Title    string       `json:"title"`
	Subtitle string       `json:"subtitle"`
	Query    *query.Query `json:"query,omitempty"`
	Ready    bool         `json:"ready"`
}

// Preview describes what submitting raw would do without contacting Joplin.
func (s *Service) Preview(raw string) Preview {
	return BuildPreview(raw, s.settings())
}

// BuildPreview is Preview for an explicit settings snapshot.
func BuildPreview(raw string, cfg Settings) Preview {
	help := Preview{Title: "Create a note in Joplin", Subtitle: query.Usage}
	if strings.TrimSpace(raw) == "" {
		return help
	}
	if !cfg.HasToken() {
		return Preview{
			Title:    "Joplin API Token not configured",
			Subtitle: "Please configure your Joplin API token in settings",
		}
	}
	q := query.Parse(raw)
	if !q.Valid() {
		return help
	}

	p := Preview{Title: "Create/append note: " + q.Title, Query: &q, Ready: true}
	if q.Content == "" {
		p.Subtitle = "Press Enter to create note or append to existing note with empty content"
	} else {
		p.Subtitle = "Content: " + truncate(q.Content, previewRunes)
	}
	return p
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
