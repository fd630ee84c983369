package internal

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testApp(t *testing.T, mutate func(*Config)) *App {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")
	if mutate != nil {
		mutate(cfg)
	}
	a, err := Open(WithConfig(cfg), WithLogOutput(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestOpen_RequiresConfig(t *testing.T) {
	_, err := Open()
	require.Error(t, err)
}

func TestOpen_MissingConfigFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	a, err := Open(WithConfigFile(filepath.Join(dir, "absent.yaml")), WithLogOutput(io.Discard))
	require.NoError(t, err)
	defer a.Close()
	require.Equal(t, 41184, a.Settings.Current().Joplin.Port)
}

func TestHandler_Health(t *testing.T) {
	a := testApp(t, nil)
	h := a.Handler()

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, path)
		require.Contains(t, w.Body.String(), `"ok"`, path)
	}
}

func TestHandler_APIMounted(t *testing.T) {
	a := testApp(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/preview", bytes.NewBufferString(`{"query":""}`))
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestHandler_AuthFromConfig(t *testing.T) {
	a := testApp(t, func(c *Config) {
		c.Auth.Mode = AuthModeToken
		c.Auth.Token = "s3cret"
	})

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code, "history without token")

	req = httptest.NewRequest(http.MethodGet, "/health/live", nil)
	w = httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, "health must stay public")
}
