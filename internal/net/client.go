package net

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"TemplateBoard/internal/state"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

const (
	defaultCSRFCookie = "csrftoken"
	defaultCSRFHeader = "X-CSRFToken"
	maxErrorBody      = 512
	maxBodyBytes      = 32 << 20
)

// ErrResponseTooLarge is returned when the template API answers with more
// than the client accepts.
var ErrResponseTooLarge = errors.New("response body too large")

// ClientConfig describes how to reach the template API.
type ClientConfig struct {
	Endpoint      string
	SessionCookie string
	SessionID     string
	CSRFCookie    string
	CSRFHeader    string
	CSRFToken     string
	// Timeout bounds a whole request. Zero leaves requests unbounded.
	Timeout time.Duration
}

// HTTPError is a non-2xx answer from the template API.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Client loads and saves one template over HTTP. Cookies from the panel,
// including the session and CSRF cookies, live in a jar so every request
// carries them.
type Client struct {
	endpoint   *url.URL
	http       *http.Client
	csrfCookie string
	csrfHeader string
	maxBody    int64
}

var _ state.Store = (*Client)(nil)
var _ state.BackgroundSizer = (*Client)(nil)

// NewClient builds a client for cfg.Endpoint.
func NewClient(cfg ClientConfig) (*Client, error) {
	endpoint, err := url.Parse(strings.TrimSpace(cfg.Endpoint))
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	if endpoint.Scheme != "http" && endpoint.Scheme != "https" {
		return nil, fmt.Errorf("invalid endpoint %q: scheme must be http or https", cfg.Endpoint)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	c := &Client{
		endpoint:   endpoint,
		csrfCookie: cfg.CSRFCookie,
		csrfHeader: cfg.CSRFHeader,
		maxBody:    maxBodyBytes,
	}
	if c.csrfCookie == "" {
		c.csrfCookie = defaultCSRFCookie
	}
	if c.csrfHeader == "" {
		c.csrfHeader = defaultCSRFHeader
	}

	var seed []*http.Cookie
	if cfg.SessionCookie != "" && cfg.SessionID != "" {
		seed = append(seed, &http.Cookie{Name: cfg.SessionCookie, Value: cfg.SessionID, Path: "/"})
	}
	if cfg.CSRFToken != "" {
		seed = append(seed, &http.Cookie{Name: c.csrfCookie, Value: cfg.CSRFToken, Path: "/"})
	}
	if len(seed) > 0 {
		jar.SetCookies(endpoint, seed)
	}

	c.http = &http.Client{Jar: jar}
	if cfg.Timeout > 0 {
		c.http.Timeout = cfg.Timeout
	}
	return c, nil
}

// Endpoint returns the template API URL.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// Load fetches the template document.
func (c *Client) Load(ctx context.Context) (state.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint.String(), nil)
	if err != nil {
		return state.Document{}, err
	}
	req.Header.Set("Accept", "application/json")
	return c.doDocument(req)
}

// Save PUTs the full layer set and returns the server's version of it.
func (c *Client) Save(ctx context.Context, payload state.SavePayload) (state.Document, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return state.Document{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return state.Document{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Referer", c.origin())
	if token := c.csrfToken(); token != "" {
		req.Header.Set(c.csrfHeader, token)
	} else {
		logrus.WithField("cookie", c.csrfCookie).Warn("no csrf cookie available, the panel will likely reject the save")
	}
	return c.doDocument(req)
}

func (c *Client) origin() string {
	return c.endpoint.Scheme + "://" + c.endpoint.Host + "/"
}

func (c *Client) csrfToken() string {
	for _, cookie := range c.http.Jar.Cookies(c.endpoint) {
		if cookie.Name == c.csrfCookie {
			return cookie.Value
		}
	}
	return ""
}

func (c *Client) doDocument(req *http.Request) (state.Document, error) {
	data, err := c.do(req)
	if err != nil {
		return state.Document{}, err
	}
	doc, err := state.DecodeDocument(data)
	if err != nil {
		return state.Document{}, fmt.Errorf("decode template document: %w", err)
	}
	return doc, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err == nil && int64(len(data)) > c.maxBody {
		err = fmt.Errorf("%s %s: %w (limit %d bytes)", req.Method, req.URL, ErrResponseTooLarge, c.maxBody)
	}
	logrus.WithFields(logrus.Fields{
		"method":      req.Method,
		"url":         req.URL.String(),
		"status":      resp.StatusCode,
		"duration_ms": time.Since(started).Milliseconds(),
	}).Debug("template api request")
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt := strings.TrimSpace(string(data))
		if len(excerpt) > maxErrorBody {
			excerpt = excerpt[:maxErrorBody]
		}
		return nil, &HTTPError{
			Method:     req.Method,
			URL:        req.URL.String(),
			StatusCode: resp.StatusCode,
			Body:       excerpt,
		}
	}
	return data, nil
}
