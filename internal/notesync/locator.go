package notesync

import (
	"context"

	"github.com/starford/quicknote/internal/models"
	"github.com/starford/quicknote/internal/query"
)

// DefaultMaxPages bounds title lookup. With the transport's default page size
// of 100 this scans at most 1000 notes.
const DefaultMaxPages = 10

// LookupStatus is the result class of a title lookup.
type LookupStatus int

const (
	LookupNotFound LookupStatus = iota
	LookupFound
	// LookupFailed means a page fetch errored. Callers treat it like
	// LookupNotFound and create a new note.
	LookupFailed
)

func (s LookupStatus) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupFailed:
		return "failed"
	default:
		return "not_found"
	}
}

// Lookup is the detailed result of Locator.Find.
type Lookup struct {
	Status LookupStatus
	Note   *models.Note
	Pages  int   // pages fetched
	Err    error // set when Status is LookupFailed
}

// Locator finds a note by case-insensitive exact title over paginated listings.
type Locator struct {
	lister   NoteLister
	maxPages int
}

// NewLocator creates a Locator. maxPages <= 0 selects DefaultMaxPages.
func NewLocator(lister NoteLister, maxPages int) *Locator {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Locator{lister: lister, maxPages: maxPages}
}

// Find scans pages in order and stops at the first note whose trimmed,
// case-folded title equals title.
func (l *Locator) Find(ctx context.Context, title string) Lookup {
	want := query.Normalize(title)
	for page := 1; page <= l.maxPages; page++ {
		res, err := l.lister.ListNotes(ctx, page)
		if err != nil {
			return Lookup{Status: LookupFailed, Pages: page, Err: err}
		}
		if res == nil {
			return Lookup{Status: LookupNotFound, Pages: page}
		}
		for i := range res.Items {
			if query.Normalize(res.Items[i].Title) == want {
				note := res.Items[i]
				return Lookup{Status: LookupFound, Note: &note, Pages: page}
			}
		}
		if !res.HasMore {
			return Lookup{Status: LookupNotFound, Pages: page}
		}
	}
	return Lookup{Status: LookupNotFound, Pages: l.maxPages}
}

// FindByTitle returns the first matching note, or nil when none matched or
// the lookup failed.
func (l *Locator) FindByTitle(ctx context.Context, title string) *models.Note {
	return l.Find(ctx, title).Note
}
