package noteservice

import (
	"fmt"

	"github.com/starford/quicknote/internal/notesync"
	"github.com/starford/quicknote/internal/query"
)

// Message is the user-visible notification for an outcome.
type Message struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Describe renders o for display. port is the configured Web Clipper port.
func Describe(o notesync.Outcome, port int) Message {
	switch o.Kind {
	case notesync.KindCreated:
		text := "Created new note: " + o.Title
		if o.Notebook != "" {
			text += fmt.Sprintf(" in '%s'", o.Notebook)
		}
		return Message{Title: "Note Created", Text: text}
	case notesync.KindAppended:
		return Message{Title: "Note Updated", Text: "Appended content to existing note: " + o.Title}
	case notesync.KindConnectionFailed:
		return Message{
			Title: "Cannot Connect to Joplin",
			Text:  fmt.Sprintf("Make sure Joplin is running and Web Clipper is enabled on port %d", port),
		}
	case notesync.KindNotebookNotFound:
		return Message{
			Title: "Notebook Not Found",
			Text:  fmt.Sprintf("Notebook '%s' does not exist in Joplin", o.Notebook),
		}
	case notesync.KindCreateFailed:
		text := "No note ID returned from Joplin"
		if o.Reason != notesync.ReasonNoID {
			text = o.Reason
		}
		return Message{Title: "Note Creation Failed", Text: text}
	case notesync.KindAppendFailed:
		return Message{Title: "Note Update Failed", Text: fmt.Sprintf("Could not append to '%s': %s", o.Title, o.Reason)}
	case notesync.KindMissingCredentials:
		return Message{
			Title: "Joplin API Token not configured",
			Text:  "Please configure your Joplin API token in settings",
		}
	case notesync.KindInvalidQuery:
		return Message{Title: "Create a note in Joplin", Text: query.Usage}
	default:
		return Message{Title: "Error", Text: string(o.Kind)}
	}
}
