package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

const userAgent = "votedesk/1.0"

// Client is the voting backend API client.
type Client struct {
	http    *http.Client
	baseURL *url.URL

	mu    sync.RWMutex
	token string
}

// NewClient creates a new API client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	return &Client{
		http: &http.Client{
			Jar:     jar,
			Timeout: timeout,
		},
		baseURL: u,
	}, nil
}

// SetAuthToken attaches a bearer credential to future requests.
// An empty token detaches it.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// AuthToken returns the currently attached credential.
func (c *Client) AuthToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Post sends body as JSON to path and decodes the response into dst.
// dst may be nil.
func (c *Client) Post(ctx context.Context, path string, body, dst any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request for %s: %w", path, err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(data), dst)
}

// Get fetches path and decodes the JSON response into dst.
func (c *Client) Get(ctx context.Context, path string, dst any) error {
	return c.do(ctx, http.MethodGet, path, nil, dst)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, dst any) error {
	ref, err := url.Parse(path)
	if err != nil {
		return fmt.Errorf("parsing path %q: %w", path, err)
	}
	target := c.baseURL.ResolveReference(ref).String()

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.AuthToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return &HTTPError{Method: method, URL: target, StatusCode: resp.StatusCode, Body: raw}
	}

	if dst == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", target, err)
	}
	return nil
}
