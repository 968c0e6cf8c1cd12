// Package api is the HTTP client for the remote content API that owns blogs,
// projects and logins. The site keeps no copy of that data between requests.
package api

import (
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

	"github.com/sirupsen/logrus"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 4 << 20

// Client calls the content API. The zero value is not usable; use New.
type Client struct {
	baseURL string
	http    *http.Client
	log     logrus.FieldLogger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger used for upstream request logs.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Login exchanges credentials for a user and a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (User, string, error) {
	body := map[string]string{"email": email, "password": password}
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &resp); err != nil {
		if errors.Is(err, errEmptyBody) {
			err = fmt.Errorf("%w: empty login response", ErrInvalidResponse)
		}
		return User{}, "", err
	}
	if err := resp.User.Validate(); err != nil {
		return User{}, "", err
	}
	if strings.TrimSpace(resp.Token) == "" {
		return User{}, "", fmt.Errorf("%w: login response without token", ErrInvalidResponse)
	}
	return resp.User, resp.Token, nil
}

// ListBlogs returns every post. token may be empty for public pages.
func (c *Client) ListBlogs(ctx context.Context, token string) ([]Blog, error) {
	var raw []json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/blogs", token, nil, &raw); err != nil {
		if errors.Is(err, errEmptyBody) {
			return []Blog{}, nil
		}
		return nil, err
	}
	return decodeList[Blog](c.log, raw, "blog"), nil
}

// GetBlog fetches one post by id or slug.
func (c *Client) GetBlog(ctx context.Context, token, idOrSlug string) (Blog, error) {
	var b Blog
	if err := c.do(ctx, http.MethodGet, "/blogs/"+url.PathEscape(idOrSlug), token, nil, &b); err != nil {
		if errors.Is(err, errEmptyBody) {
			return Blog{}, ErrNotFound
		}
		return Blog{}, err
	}
	if err := b.Validate(); err != nil {
		return Blog{}, err
	}
	return b, nil
}

// CreateBlog posts a new blog.
func (c *Client) CreateBlog(ctx context.Context, token string, in BlogInput) error {
	return c.mutate(ctx, http.MethodPost, "/blogs", token, in)
}

// UpdateBlog replaces the blog with the given id.
func (c *Client) UpdateBlog(ctx context.Context, token, id string, in BlogInput) error {
	return c.mutate(ctx, http.MethodPut, "/blogs/"+url.PathEscape(id), token, in)
}

// DeleteBlog removes the blog with the given id.
func (c *Client) DeleteBlog(ctx context.Context, token, id string) error {
	return c.mutate(ctx, http.MethodDelete, "/blogs/"+url.PathEscape(id), token, nil)
}

// ListProjects returns every project. token may be empty for public pages.
func (c *Client) ListProjects(ctx context.Context, token string) ([]Project, error) {
	var raw []json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/projects", token, nil, &raw); err != nil {
		if errors.Is(err, errEmptyBody) {
			return []Project{}, nil
		}
		return nil, err
	}
	return decodeList[Project](c.log, raw, "project"), nil
}

// GetProject fetches one project by id.
func (c *Client) GetProject(ctx context.Context, token, id string) (Project, error) {
	var p Project
	if err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(id), token, nil, &p); err != nil {
		if errors.Is(err, errEmptyBody) {
			return Project{}, ErrNotFound
		}
		return Project{}, err
	}
	if err := p.Validate(); err != nil {
		return Project{}, err
	}
	return p, nil
}

// CreateProject posts a new project.
func (c *Client) CreateProject(ctx context.Context, token string, in ProjectInput) error {
	return c.mutate(ctx, http.MethodPost, "/projects", token, in)
}

// UpdateProject replaces the project with the given id.
func (c *Client) UpdateProject(ctx context.Context, token, id string, in ProjectInput) error {
	return c.mutate(ctx, http.MethodPut, "/projects/"+url.PathEscape(id), token, in)
}

// DeleteProject removes the project with the given id.
func (c *Client) DeleteProject(ctx context.Context, token, id string) error {
	return c.mutate(ctx, http.MethodDelete, "/projects/"+url.PathEscape(id), token, nil)
}

// decodeList decodes and validates each list element on its own, so one
// malformed entry is logged and skipped instead of failing the whole list.
func decodeList[T interface{ Validate() error }](log logrus.FieldLogger, raw []json.RawMessage, kind string) []T {
	out := make([]T, 0, len(raw))
	for i, msg := range raw {
		var v T
		err := json.Unmarshal(msg, &v)
		if err == nil {
			err = v.Validate()
		}
		if err != nil {
			log.WithError(err).WithField("index", i).Warn("dropping " + kind + " from list")
			continue
		}
		out = append(out, v)
	}
	return out
}

// mutate issues a write whose response body is not needed.
func (c *Client) mutate(ctx context.Context, method, path, token string, body any) error {
	return c.do(ctx, method, path, token, body, nil)
}

func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encode %s %s: %w", method, path, err)
		}
		reqBody = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("api: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"method": method,
			"path":   path,
		}).Warn("api request failed")
		return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("%w: read %s %s: %v", ErrUnavailable, method, path, err)
	}
	c.log.WithFields(logrus.Fields{
		"method":  method,
		"path":    path,
		"status":  resp.StatusCode,
		"latency": time.Since(start),
		"auth":    token != "",
	}).Debug("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(method, path, resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return errEmptyBody
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrInvalidResponse, method, path, err)
	}
	return nil
}
