package joplin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/starford/quicknote/internal/apperr"
	"github.com/starford/quicknote/internal/testutil"
)

const token = "secret"

func TestPing(t *testing.T) {
	fake := testutil.NewFakeJoplin(t, token)
	require.True(t, NewClient(fake.URL(), token).Ping(context.Background()))
}

func TestPing_WrongService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("nginx"))
	}))
	defer srv.Close()

	require.False(t, NewClient(srv.URL, token).Ping(context.Background()))
}

func TestPing_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	require.False(t, NewClient(url, token, WithTimeout(time.Second)).Ping(context.Background()))
}

func TestCreateNote(t *testing.T) {
	fake := testutil.NewFakeJoplin(t, token)
	c := NewClient(fake.URL(), token)

	note, err := c.CreateNote(context.Background(), "Groceries", "buy milk", "")
	require.NoError(t, err)
	require.NotEmpty(t, note.ID)
	require.Equal(t, "Groceries", note.Title)

	notes := fake.Notes()
	require.Len(t, notes, 1)
	require.Equal(t, "buy milk", notes[0].Body)
	require.Empty(t, notes[0].ParentID)
}

func TestCreateNote_WithNotebook(t *testing.T) {
	fake := testutil.NewFakeJoplin(t, token)
	nb := fake.AddNotebook("Work")

	_, err := NewClient(fake.URL(), token).CreateNote(context.Background(), "Todo", "", nb.ID)
	require.NoError(t, err)
	require.Equal(t, nb.ID, fake.Notes()[0].ParentID)
}

func TestCreateNote_BadToken(t *testing.T) {
	fake := testutil.NewFakeJoplin(t, token)

	_, err := NewClient(fake.URL(), "wrong").CreateNote(context.Background(), "x", "", "")
	var te *apperr.TransportError
	require.True(t, errors.As(err, &te))
	require.Equal(t, "create_note", te.Op)
	require.Equal(t, http.StatusForbidden, te.Status)
	require.Contains(t, te.Error(), "token")
}

func TestUpdateNoteBody(t *testing.T) {
	fake := testutil.NewFakeJoplin(t, token)
	existing := fake.AddNote("Log", "line1", "")

	note, err := NewClient(fake.URL(), token).UpdateNoteBody(context.Background(), existing.ID, "line1\nline2")
	require.NoError(t, err)
	require.Equal(t, existing.ID, note.ID)
	require.Equal(t, "line1\nline2", fake.Notes()[0].Body)
	require.Equal(t, "Log", fake.Notes()[0].Title)
}

func TestUpdateNoteBody_NotFound(t *testing.T) {
	fake := testutil.NewFakeJoplin(t, token)

	_, err := NewClient(fake.URL(), token).UpdateNoteBody(context.Background(), "missing", "x")
	var te *apperr.TransportError
	require.True(t, errors.As(err, &te))
	require.Equal(t, http.StatusNotFound, te.Status)
}

func TestUpdateNoteBody_EmptyID(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:1", token).UpdateNoteBody(context.Background(), "", "x")
	require.Error(t, err)
}

func TestListNotes_Pagination(t *testing.T) {
	fake := testutil.NewFakeJoplin(t, token)
	for i := range 5 {
		fake.AddNote(fmt.Sprintf("n%d", i), "", "")
	}
	c := NewClient(fake.URL(), token, WithPageSize(2))

	page, err := c.ListNotes(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.True(t, page.HasMore)
	require.Equal(t, "n0", page.Items[0].Title)

	page, err = c.ListNotes(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.False(t, page.HasMore)
	require.Equal(t, "n4", page.Items[0].Title)
}

func TestListNotes_ServerError(t *testing.T) {
	fake := testutil.NewFakeJoplin(t, token)
	fake.Fail("GET /notes", http.StatusInternalServerError)

	_, err := NewClient(fake.URL(), token).ListNotes(context.Background(), 1)
	var te *apperr.TransportError
	require.True(t, errors.As(err, &te))
	require.Equal(t, "list_notes", te.Op)
	require.Equal(t, http.StatusInternalServerError, te.Status)
}

func TestListNotebooks_FollowsPages(t *testing.T) {
	fake := testutil.NewFakeJoplin(t, token)
	for i := range 150 {
		fake.AddNotebook(fmt.Sprintf("nb%d", i))
	}

	notebooks, err := NewClient(fake.URL(), token).ListNotebooks(context.Background())
	require.NoError(t, err)
	require.Len(t, notebooks, 150)
	require.Equal(t, 2, fake.Count("GET /folders"))
}

func TestListNotebooks_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, token).ListNotebooks(context.Background())
	require.ErrorContains(t, err, "decode response")
}

func TestRequestsCarryToken(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query().Get("token")
		_, _ = w.Write([]byte(`{"items":[],"has_more":false}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL+"/", token).ListNotes(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, token, got)
}

func TestMissingTokenSkipsRequest(t *testing.T) {
	fake := testutil.NewFakeJoplin(t, token)

	_, err := NewClient(fake.URL(), "  ").CreateNote(context.Background(), "x", "", "")
	require.ErrorIs(t, err, apperr.ErrMissingCredentials)
	var te *apperr.TransportError
	require.True(t, errors.As(err, &te))
	require.Equal(t, "create_note", te.Op)
	require.Empty(t, fake.Requests())
}
