// Package joplin is a client for the Joplin Web Clipper REST API.
package joplin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/starford/quicknote/internal/apperr"
	"github.com/starford/quicknote/internal/models"
	"github.com/starford/quicknote/internal/notesync"
)

const (
	// DefaultPort is the Web Clipper service port.
	DefaultPort = 41184
	// DefaultPageSize is the largest page Joplin serves.
	DefaultPageSize = 100
	// DefaultMaxFolderPages bounds notebook listing.
	DefaultMaxFolderPages = 10
	// DefaultTimeout is applied to every request.
	DefaultTimeout = 5 * time.Second

	pingReply     = "JoplinClipperServer"
	noteFields    = "id,title,body,parent_id"
	folderFields  = "id,title"
	maxBodyBytes  = 10 * 1024 * 1024
	maxErrorBytes = 1024
)

// Client talks to one Joplin instance. It is cheap to construct; callers
// build one per run from the current settings.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	pageSize   int
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithPageSize sets the note listing page size (1..100).
func WithPageSize(n int) ClientOption {
	return func(c *Client) {
		if n > 0 && n <= DefaultPageSize {
			c.pageSize = n
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a client for baseURL (e.g. http://127.0.0.1:41184).
func NewClient(baseURL, token string, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		pageSize:   DefaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Verify *Client satisfies notesync.Backend at compile time.
var _ notesync.Backend = (*Client)(nil)

type listResponse[T any] struct {
	Items   []T  `json:"items"`
	HasMore bool `json:"has_more"`
}

// Ping reports whether the Web Clipper service answers.
func (c *Client) Ping(ctx context.Context) bool {
	req, err := c.newRequest(ctx, http.MethodGet, "ping", nil, nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(body)) == pingReply
}

// CreateNote creates a note, filed under notebookID when it is non-empty.
func (c *Client) CreateNote(ctx context.Context, title, body, notebookID string) (*models.Note, error) {
	payload := map[string]string{"title": title, "body": body}
	if notebookID != "" {
		payload["parent_id"] = notebookID
	}
	var note models.Note
	if err := c.doJSON(ctx, "create_note", http.MethodPost, "notes", nil, payload, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// UpdateNoteBody replaces the body of a note.
func (c *Client) UpdateNoteBody(ctx context.Context, noteID, body string) (*models.Note, error) {
	if noteID == "" {
		return nil, apperr.Transport("update_note", 0, errors.New("note id is required"))
	}
	var note models.Note
	path := "notes/" + url.PathEscape(noteID)
	if err := c.doJSON(ctx, "update_note", http.MethodPut, path, nil, map[string]string{"body": body}, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// ListNotes returns one page of notes, oldest first.
func (c *Client) ListNotes(ctx context.Context, page int) (*models.NotePage, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{
		"fields":    {noteFields},
		"limit":     {strconv.Itoa(c.pageSize)},
		"page":      {strconv.Itoa(page)},
		"order_by":  {"created_time"},
		"order_dir": {"ASC"},
	}
	var res listResponse[models.Note]
	if err := c.doJSON(ctx, "list_notes", http.MethodGet, "notes", params, nil, &res); err != nil {
		return nil, err
	}
	return &models.NotePage{Items: res.Items, HasMore: res.HasMore}, nil
}

// ListNotebooks returns every notebook, following pagination up to
// DefaultMaxFolderPages.
func (c *Client) ListNotebooks(ctx context.Context) ([]models.Notebook, error) {
	var out []models.Notebook
	for page := 1; page <= DefaultMaxFolderPages; page++ {
		params := url.Values{
			"fields": {folderFields},
			"limit":  {strconv.Itoa(DefaultPageSize)},
			"page":   {strconv.Itoa(page)},
		}
		var res listResponse[models.Notebook]
		if err := c.doJSON(ctx, "list_notebooks", http.MethodGet, "folders", params, nil, &res); err != nil {
			return nil, err
		}
		out = append(out, res.Items...)
		if !res.HasMore {
			break
		}
	}
	return out, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, params url.Values, body io.Reader) (*http.Request, error) {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("token", c.token)
	return http.NewRequestWithContext(ctx, method, c.baseURL+"/"+path+"?"+q.Encode(), body)
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, params url.Values, in, out any) error {
	if strings.TrimSpace(c.token) == "" {
		return apperr.Transport(op, 0, apperr.ErrMissingCredentials)
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return apperr.Transport(op, 0, fmt.Errorf("marshal request: %w", err))
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, params, body)
	if err != nil {
		return apperr.Transport(op, 0, fmt.Errorf("create request: %w", err))
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Transport(op, 0, fmt.Errorf("connect to Joplin: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
		msg := strings.TrimSpace(string(snippet))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return apperr.Transport(op, resp.StatusCode, errors.New(msg))
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		return apperr.Transport(op, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
