package folio

import (
	"context"
	"sync"
	"time"

	"github.com/eringen/folio/api"
)

// ContentCache optionally keeps the public blog and project lists for a short
// TTL so every page view does not hit the content API. With a zero TTL every
// read goes upstream. The dashboard never reads through it.
type ContentCache struct {
	client *api.Client
	ttl    time.Duration
	now    func() time.Time

	mu       sync.RWMutex
	blogs    []api.Blog
	blogsAt  time.Time
	projects []api.Project
	projAt   time.Time
}

// NewContentCache returns a cache in front of client. A ttl of zero or less
// disables caching.
func NewContentCache(client *api.Client, ttl time.Duration) *ContentCache {
	return &ContentCache{client: client, ttl: ttl, now: time.Now}
}

func (c *ContentCache) fresh(at time.Time) bool {
	return c.ttl > 0 && !at.IsZero() && c.now().Sub(at) < c.ttl
}

// Invalidate drops both lists so the next read refetches them.
func (c *ContentCache) Invalidate() {
	c.mu.Lock()
	c.blogs, c.blogsAt = nil, time.Time{}
	c.projects, c.projAt = nil, time.Time{}
	c.mu.Unlock()
}

// Blogs returns the public post list. Failed fetches are not cached.
func (c *ContentCache) Blogs(ctx context.Context) ([]api.Blog, error) {
	c.mu.RLock()
	if c.fresh(c.blogsAt) {
		blogs := c.blogs
		c.mu.RUnlock()
		return cloneBlogs(blogs), nil
	}
	c.mu.RUnlock()

	blogs, err := c.client.ListBlogs(ctx, "")
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.blogs, c.blogsAt = blogs, c.now()
	c.mu.Unlock()
	return cloneBlogs(blogs), nil
}

// Projects returns the public project list. Failed fetches are not cached.
func (c *ContentCache) Projects(ctx context.Context) ([]api.Project, error) {
	c.mu.RLock()
	if c.fresh(c.projAt) {
		projects := c.projects
		c.mu.RUnlock()
		return append([]api.Project(nil), projects...), nil
	}
	c.mu.RUnlock()

	projects, err := c.client.ListProjects(ctx, "")
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.projects, c.projAt = projects, c.now()
	c.mu.Unlock()
	return append([]api.Project(nil), projects...), nil
}

// cloneBlogs copies the slice so callers may sort it in place.
func cloneBlogs(blogs []api.Blog) []api.Blog {
	if blogs == nil {
		return nil
	}
	return append(make([]api.Blog, 0, len(blogs)), blogs...)
}
