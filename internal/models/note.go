// Package models defines the Joplin data shapes quicknote works with.
package models

// Note is a Joplin note. Titles are not unique; ID is the identity.
type Note struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	ParentID string `json:"parent_id,omitempty"`
}

// Notebook is a Joplin folder.
type Notebook struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// NotePage is one page of a paginated note listing.
type NotePage struct {
	Items   []Note `json:"items"`
	HasMore bool   `json:"has_more"`
}
