// Package remote is the HTTP client for the sync server's account and
// document API.
package remote

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sahilbhatiani/net-worth-tracker/internal/auth"
	"github.com/sahilbhatiani/net-worth-tracker/internal/model"
)

const (
	requestTimeout = 10 * time.Second
	maxBodySize    = 8 << 20 // 8 MB
	userAgent      = "networth/1.0"
)

var (
	// ErrUnauthorized indicates the token is expired or invalid, or the
	// credentials were rejected.
	ErrUnauthorized = errors.New("remote: unauthorized")
	// ErrConflict indicates the account already exists.
	ErrConflict = errors.New("remote: account already exists")
)

// Client talks to one sync server.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient validates baseURL and returns a client for it.
func NewClient(baseURL string) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("remote: invalid server url %q", baseURL)
	}
	return &Client{baseURL: baseURL, http: &http.Client{}}, nil
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string { return c.baseURL }

// Update is one document snapshot from the change stream.
type Update struct {
	Version int64
	Exists  bool
	Doc     model.Document
}

type snapshotBody struct {
	UID       string         `json:"uid"`
	Version   int64          `json:"version"`
	Exists    bool           `json:"exists"`
	UpdatedAt time.Time      `json:"updated_at"`
	Fields    map[string]any `json:"fields"`
}

type apiError struct {
	Error string `json:"error"`
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, email, password string) error {
	_, err := c.do(ctx, http.MethodPost, "/v1/auth/register", "", map[string]string{"email": email, "password": password})
	return err
}

// Login exchanges email and password for credentials.
func (c *Client) Login(ctx context.Context, email, password string) (auth.Credentials, error) {
	body, err := c.do(ctx, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": email, "password": password})
	if err != nil {
		return auth.Credentials{}, err
	}
	var lr struct {
		Token     string    `json:"token"`
		UID       string    `json:"uid"`
		Email     string    `json:"email"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := json.Unmarshal(body, &lr); err != nil {
		return auth.Credentials{}, fmt.Errorf("remote: parsing login: %w", err)
	}
	return auth.Credentials{Server: c.baseURL, UID: lr.UID, Email: lr.Email, Token: lr.Token, ExpiresAt: lr.ExpiresAt}, nil
}

// Fields returns the raw stored document. ok is false when the user has
// never written one.
func (c *Client) Fields(ctx context.Context, id auth.Identity) (fields map[string]any, ok bool, err error) {
	body, err := c.do(ctx, http.MethodGet, "/v1/documents/me", id.Token, nil)
	if errors.Is(err, errNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var snap snapshotBody
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, false, fmt.Errorf("remote: parsing document: %w", err)
	}
	return snap.Fields, true, nil
}

// Get loads the user's document. Missing fields default to an empty entry
// list and no target.
func (c *Client) Get(ctx context.Context, id auth.Identity) (model.Document, bool, error) {
	fields, ok, err := c.Fields(ctx, id)
	if err != nil || !ok {
		return model.Document{}, ok, err
	}
	doc, err := DecodeDocument(fields)
	if err != nil {
		return model.Document{}, false, err
	}
	return doc, true, nil
}

// Merge deep-merges fields into the user's document.
func (c *Client) Merge(ctx context.Context, id auth.Identity, fields map[string]any) error {
	_, err := c.do(ctx, http.MethodPatch, "/v1/documents/me", id.Token, fields)
	return err
}

// Watch opens the change stream. The channel receives the current document
// first and every later write after that; it is closed when the stream ends
// or ctx is done.
func (c *Client) Watch(ctx context.Context, id auth.Identity) (<-chan Update, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/documents/me/stream", nil)
	if err != nil {
		return nil, fmt.Errorf("remote: creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+id.Token)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: stream request failed: %w", err)
	}
	if err := statusError(resp); err != nil {
		_ = resp.Body.Close()
		return nil, err
	}

	out := make(chan Update, 1)
	go func() {
		defer close(out)
		defer func() { _ = resp.Body.Close() }()
		readStream(ctx, resp.Body, out)
	}()
	return out, nil
}

// readStream parses "event:"/"data:" frames and forwards snapshot events.
func readStream(ctx context.Context, r io.Reader, out chan<- Update) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxBodySize)

	var event string
	var data strings.Builder
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if event == "snapshot" && data.Len() > 0 {
				if u, err := decodeUpdate([]byte(data.String())); err == nil {
					select {
					case out <- u:
					case <-ctx.Done():
						return
					}
				}
			}
			event = ""
			data.Reset()
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
}

func decodeUpdate(b []byte) (Update, error) {
	var snap snapshotBody
	if err := json.Unmarshal(b, &snap); err != nil {
		return Update{}, err
	}
	u := Update{Version: snap.Version, Exists: snap.Exists}
	if !snap.Exists {
		return u, nil
	}
	doc, err := DecodeDocument(snap.Fields)
	if err != nil {
		return Update{}, err
	}
	u.Doc = doc
	return u, nil
}

// DecodeDocument converts stored fields into a document. A missing entry
// list becomes empty; a missing target stays absent.
func DecodeDocument(fields map[string]any) (model.Document, error) {
	var doc model.Document
	raw, err := json.Marshal(fields)
	if err != nil {
		return doc, err
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("remote: decoding document: %w", err)
	}
	if doc.Entries == nil {
		doc.Entries = []model.Entry{}
	}
	return doc, nil
}

var errNotFound = errors.New("remote: not found")

// do performs a JSON request with a per-request timeout and returns the
// response body.
func (c *Client) do(ctx context.Context, method, path, token string, payload any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("remote: encoding request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("remote: creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := statusError(resp); err != nil {
		return nil, err
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("remote: reading response: %w", err)
	}
	return b, nil
}

func statusError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusConflict:
		return ErrConflict
	case http.StatusNotFound:
		return errNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var ae apiError
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(b, &ae) == nil && ae.Error != "" {
			return fmt.Errorf("remote: %s (status %d)", ae.Error, resp.StatusCode)
		}
		return fmt.Errorf("remote: unexpected status %d", resp.StatusCode)
	}
	return nil
}
