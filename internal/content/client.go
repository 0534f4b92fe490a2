package content

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIKeyHeader carries the server-held key to the content API.
const APIKeyHeader = "X-API-Key"

// ErrNotConfigured is returned when the API URL or key is missing.
var ErrNotConfigured = errors.New("missing API_URL or API_KEY")

// Client talks to the upstream content API on behalf of the browser. The
// API key never leaves the server.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient returns a client for baseURL. A nil httpClient gets a default
// one; streaming responses (audio, PDFs) are not bounded by a total timeout.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ResponseHeaderTimeout: 15 * time.Second,
				IdleConnTimeout:       90 * time.Second,
				MaxIdleConnsPerHost:   8,
			},
		}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
	}
}

// Configured reports whether both the base URL and key are set.
func (c *Client) Configured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// Get issues GET {baseURL}{path}?{query} with the API key attached. The
// caller owns the response body.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*http.Response, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set(APIKeyHeader, c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upstream %s: %w", path, err)
	}
	return resp, nil
}

// SongsPath is the track list of a collection.
func SongsPath(collection string) string {
	return "/songs/" + url.PathEscape(collection)
}

// AudioPath is the audio stream of one track.
func AudioPath(collection, id string) string {
	return SongsPath(collection) + "/" + url.PathEscape(id) + "/audio"
}
