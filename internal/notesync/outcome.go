package notesync

// Kind identifies an Outcome variant.
type Kind string

const (
	KindCreated            Kind = "created"
	KindAppended           Kind = "appended"
	KindNotebookNotFound   Kind = "notebook_not_found"
	KindConnectionFailed   Kind = "connection_failed"
	KindCreateFailed       Kind = "create_failed"
	KindAppendFailed       Kind = "append_failed"
	KindMissingCredentials Kind = "missing_credentials"
	KindInvalidQuery       Kind = "invalid_query"
)

// Outcome is the single terminal result of one synchronization run.
//
//   - created, appended: NoteID and Title are set; Notebook is the notebook
//     name the note was filed under, if any.
//   - notebook_not_found: Notebook names the missing notebook.
//   - create_failed, append_failed: Reason carries the underlying message.
type Outcome struct {
	Kind     Kind   `json:"kind"`
	NoteID   string `json:"note_id,omitempty"`
	Title    string `json:"title,omitempty"`
	Notebook string `json:"notebook,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Succeeded reports whether a note was created or appended to.
func (o Outcome) Succeeded() bool {
	return o.Kind == KindCreated || o.Kind == KindAppended
}

// Created returns a created outcome.
func Created(noteID, title, notebook string) Outcome {
	return Outcome{Kind: KindCreated, NoteID: noteID, Title: title, Notebook: notebook}
}

// Appended returns an appended outcome.
func Appended(noteID, title string) Outcome {
	return Outcome{Kind: KindAppended, NoteID: noteID, Title: title}
}

// NotebookNotFound returns a notebook_not_found outcome.
func NotebookNotFound(name string) Outcome {
	return Outcome{Kind: KindNotebookNotFound, Notebook: name}
}

// ConnectionFailed returns a connection_failed outcome.
func ConnectionFailed() Outcome {
	return Outcome{Kind: KindConnectionFailed}
}

// CreateFailed returns a create_failed outcome.
func CreateFailed(title, reason string) Outcome {
	return Outcome{Kind: KindCreateFailed, Title: title, Reason: reason}
}

// AppendFailed returns an append_failed outcome.
func AppendFailed(noteID, title, reason string) Outcome {
	return Outcome{Kind: KindAppendFailed, NoteID: noteID, Title: title, Reason: reason}
}
