package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/starford/quicknote/internal/history"
	"github.com/starford/quicknote/internal/noteservice"
	"github.com/starford/quicknote/internal/notesync"
	"github.com/starford/quicknote/internal/testutil"
)

const joplinToken = "joplin-token"

// testEnv sets up a fake Joplin, a history DB, the service and the router.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (*testutil.FakeJoplin, *noteservice.Service, http.Handler) {
	t.Helper()
	return testEnvWithSSE(t, authToken, nil)
}

func testEnvWithSSE(t *testing.T, authToken string, sseHandler http.Handler) (*testutil.FakeJoplin, *noteservice.Service, http.Handler) {
	t.Helper()

	fake := testutil.NewFakeJoplin(t, joplinToken)

	db, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	settings := func() noteservice.Settings {
		return noteservice.Settings{
			BaseURL:  fake.URL(),
			Port:     41184,
			Token:    joplinToken,
			Timeout:  time.Second,
			MaxPages: notesync.DefaultMaxPages,
			PageSize: 100,
		}
	}
	svc := noteservice.NewService(settings, noteservice.WithRecorder(db))
	router := NewRouter(svc, authToken != "", authToken, sseHandler)
	return fake, svc, router
}

func postQuery(t *testing.T, router http.Handler, path, query string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(map[string]string{"query": query})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func get(router http.Handler, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestPreview(t *testing.T) {
	fake, _, router := testEnv(t, "")

	w := postQuery(t, router, "/preview", "Groceries buy milk")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var p Preview
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	require.Equal(t, "Create/append note: Groceries", p.Title)
	require.True(t, p.Ready)
	require.Empty(t, fake.Requests(), "preview must not contact Joplin")
}

func TestPreview_Empty(t *testing.T) {
	_, _, router := testEnv(t, "")

	w := postQuery(t, router, "/preview", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Create a note in Joplin")
}

func TestSubmitNote_Create(t *testing.T) {
	fake, _, router := testEnv(t, "")

	w := postQuery(t, router, "/notes", "Groceries buy milk")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var run Run
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	require.Equal(t, notesync.KindCreated, run.Outcome.Kind)

	notes := fake.Notes()
	require.Len(t, notes, 1)
	require.Equal(t, "buy milk", notes[0].Body)
}

func TestSubmitNote_NotebookNotFound(t *testing.T) {
	fake, _, router := testEnv(t, "")

	w := postQuery(t, router, "/notes", "Groceries buy milk !Nowhere")
	require.Equal(t, http.StatusOK, w.Code)
	var run Run
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))
	require.Equal(t, notesync.KindNotebookNotFound, run.Outcome.Kind)
	require.Equal(t, "Nowhere", run.Outcome.Notebook)
	require.Empty(t, fake.Notes())
}

func TestSubmitNote_Async(t *testing.T) {
	fake, svc, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodPost, "/notes?async=true",
		strings.NewReader(`{"query":"Groceries buy milk"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var resp DispatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)

	svc.Wait()
	require.Len(t, fake.Notes(), 1)

	runs, err := svc.History(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, resp.ID, runs[0].ID)
}

func TestSubmitNote_BadRequests(t *testing.T) {
	_, _, router := testEnv(t, "")

	for name, body := range map[string]string{
		"empty body":   "",
		"invalid json": "{",
		"blank query":  `{"query":"   "}`,
		"oversized":    `{"query":"` + strings.Repeat("a", maxBodyBytes) + `"}`,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/notes", strings.NewReader(body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			require.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestHistory(t *testing.T) {
	_, _, router := testEnv(t, "")

	postQuery(t, router, "/notes", "First one")
	postQuery(t, router, "/notes", "Second two")

	w := get(router, "/history?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp HistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Runs, 1)
}

func TestHistory_EmptyIsArray(t *testing.T) {
	_, _, router := testEnv(t, "")

	w := get(router, "/history", "")
	require.Contains(t, w.Body.String(), `"runs":[]`)
}

func TestGetRun(t *testing.T) {
	_, _, router := testEnv(t, "")

	w := postQuery(t, router, "/notes", "Groceries buy milk")
	require.Equal(t, http.StatusOK, w.Code)
	var run Run
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &run))

	w = get(router, "/history/"+run.ID, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rec history.Run
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	require.Equal(t, run.ID, rec.ID)
	require.Equal(t, "created", rec.Outcome)
	require.Equal(t, run.Outcome.NoteID, rec.NoteID)
}

func TestGetRun_AsyncID(t *testing.T) {
	_, svc, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodPost, "/notes?async=true",
		strings.NewReader(`{"query":"Groceries buy milk"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusAccepted, w.Code)
	var resp DispatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	svc.Wait()
	w = get(router, "/history/"+resp.ID, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Contains(t, w.Body.String(), resp.ID)
}

func TestGetRun_NotFound(t *testing.T) {
	_, _, router := testEnv(t, "")

	w := get(router, "/history/01J9Z3QG7T8V5W2X4Y6Z8A0B1C", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "not found")
}

func TestAuthMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		authToken string
		header    string
		want      int
	}{
		{"valid token", "secret123", "Bearer secret123", http.StatusOK},
		{"scheme case-insensitive", "secret123", "bearer secret123", http.StatusOK},
		{"missing token", "secret123", "", http.StatusUnauthorized},
		{"wrong token", "secret123", "Bearer wrong", http.StatusUnauthorized},
		{"wrong scheme", "secret123", "Basic secret123", http.StatusUnauthorized},
		{"disabled", "", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, router := testEnv(t, tt.authToken)
			w := get(router, "/history", tt.header)
			require.Equal(t, tt.want, w.Code)
		})
	}
}

func TestAuthMiddleware_ProtectsSubmit(t *testing.T) {
	fake, _, router := testEnv(t, "secret123")

	w := postQuery(t, router, "/notes", "Auth test")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Empty(t, fake.Requests())
}

// SSE endpoint auth tests.

// blockingSSE writes headers and blocks until the request context is done.
var blockingSSE = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, _, router := testEnvWithSSE(t, "secret", blockingSSE)

	w := get(router, "/events", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, _, router := testEnvWithSSE(t, "tok", blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.NotEqual(t, http.StatusUnauthorized, w.Code)
}

func TestSSEEvents_NotMountedWithoutHandler(t *testing.T) {
	_, _, router := testEnv(t, "")

	w := get(router, "/events", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}
