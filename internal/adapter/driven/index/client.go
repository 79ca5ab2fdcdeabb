// Package index implements the IndexClient port: fetching and parsing the
// metadata header of a remote package repository index over HTTPS.
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/pkgpanel/pkgpanel/internal/domain/model"
	"github.com/pkgpanel/pkgpanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.IndexClient = (*Client)(nil)

// maxIndexBytes caps how much of an index document is read. Indexes with
// large package listings are truncated-safe because the metadata fields we
// need appear in the document header.
const maxIndexBytes = 8 << 20

// Client implements the driven.IndexClient port. Requests go through an
// httpcache memory transport so repeated fetches of the same index are
// served by ETag/Last-Modified conditional requests.
type Client struct {
	http *http.Client
}

// NewClient creates an index client with conditional-request caching and
// the given request timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{
			Transport: httpcache.NewMemoryCacheTransport(),
			Timeout:   timeout,
		},
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client,
// intended for tests injecting an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client) *Client {
	return &Client{http: httpClient}
}

// indexDocument is the wire shape of a repository index header. Unknown
// fields (notably the package listing) are ignored.
type indexDocument struct {
	Name   string `json:"name"`
	ID     string `json:"id"`
	Author string `json:"author"`
	URL    string `json:"url"`
}

// FetchIndex retrieves and parses the repository index at rawURL, sending
// headers verbatim. Network errors, non-2xx statuses, and unparseable
// bodies all map to ErrIndexUnreachable so callers can treat them as a
// single "could not reach that repository" failure.
func (c *Client) FetchIndex(ctx context.Context, rawURL string, headers map[string]string) (*model.RemoteIndex, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("fetch index %s: invalid url: %w", rawURL, driven.ErrIndexUnreachable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch index %s: %w", rawURL, err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch index %s: %w: %w", rawURL, driven.ErrIndexUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch index %s: status %d: %w", rawURL, resp.StatusCode, driven.ErrIndexUnreachable)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxIndexBytes))
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", rawURL, err)
	}

	var doc indexDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse index %s: %w: %w", rawURL, driven.ErrIndexUnreachable, err)
	}

	// A display name fallback keeps nameless indexes usable: host is
	// always present after the scheme check above.
	name := doc.Name
	if name == "" {
		name = u.Host
	}

	return &model.RemoteIndex{
		ID:     doc.ID,
		Name:   name,
		Author: doc.Author,
		URL:    doc.URL,
	}, nil
}
