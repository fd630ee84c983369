package notesync

import (
	"context"

	"github.com/starford/quicknote/internal/query"
)

// NotebookStatus is the result class of a notebook resolution.
type NotebookStatus int

const (
	// NotebookNone means neither an explicit nor a default name was given.
	NotebookNone NotebookStatus = iota
	NotebookExplicit
	NotebookDefault
	// NotebookExplicitMissing is a hard failure: the directive names a
	// notebook that does not exist.
	NotebookExplicitMissing
	// NotebookDefaultMissing degrades to top level.
	NotebookDefaultMissing
)

func (s NotebookStatus) String() string {
	switch s {
	case NotebookExplicit:
		return "explicit"
	case NotebookDefault:
		return "default"
	case NotebookExplicitMissing:
		return "explicit_missing"
	case NotebookDefaultMissing:
		return "default_missing"
	default:
		return "none"
	}
}

// Resolution is the outcome of Resolver.Resolve.
type Resolution struct {
	Status NotebookStatus
	ID     string
	Name   string
	Err    error // listing error, if any
}

// OK reports whether note creation may proceed.
func (r Resolution) OK() bool {
	return r.Status != NotebookExplicitMissing
}

// Resolver maps notebook names to ids.
type Resolver struct {
	lister NotebookLister
}

// NewResolver creates a Resolver.
func NewResolver(lister NotebookLister) *Resolver {
	return &Resolver{lister: lister}
}

// Resolve looks up explicit when set, otherwise defaultName. An unmatched
// explicit name fails; an unmatched default yields no notebook.
func (r *Resolver) Resolve(ctx context.Context, explicit, defaultName string) Resolution {
	switch {
	case explicit != "":
		id, err := r.lookup(ctx, explicit)
		if id == "" {
			return Resolution{Status: NotebookExplicitMissing, Name: explicit, Err: err}
		}
		return Resolution{Status: NotebookExplicit, ID: id, Name: explicit}
	case query.Normalize(defaultName) != "":
		id, err := r.lookup(ctx, defaultName)
		if id == "" {
			return Resolution{Status: NotebookDefaultMissing, Name: defaultName, Err: err}
		}
		return Resolution{Status: NotebookDefault, ID: id, Name: defaultName}
	default:
		return Resolution{Status: NotebookNone}
	}
}

func (r *Resolver) lookup(ctx context.Context, name string) (string, error) {
	want := query.Normalize(name)
	if want == "" {
		return "", nil
	}
	notebooks, err := r.lister.ListNotebooks(ctx)
	if err != nil {
		return "", err
	}
	for _, nb := range notebooks {
		if query.Normalize(nb.Title) == want {
			return nb.ID, nil
		}
	}
	return "", nil
}
