package views

import (
	"encoding/json"
	"html/template"
	"net/url"
	"path"
	"strings"

	"github.com/eringen/folio"
	"github.com/eringen/folio/api"
)

// buildURL joins path segments onto a base URL, ensuring a trailing slash.
func buildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// TagClass returns CSS classes for a tag pill, with active variant.
func TagClass(active bool) string {
	base := "tag"
	if active {
		base += " tag-active"
	}
	return base
}

// NavClass marks the nav link for the current section.
func NavClass(current, href string) string {
	active := current == href || (href != "/" && strings.HasPrefix(current, href))
	if active {
		return "nav-link nav-link-active"
	}
	return "nav-link"
}

// ToastClass maps a flash kind to its toast style.
func ToastClass(kind string) string {
	if kind == folio.FlashError {
		return "toast toast-error"
	}
	return "toast toast-success"
}

// WebsiteJsonLD produces a Schema.org WebSite JSON-LD block for the site.
func WebsiteJsonLD(site folio.Site) template.JS {
	data := map[string]interface{}{
		"@context": "https://schema.org",
		"@type":    "WebSite",
		"name":     site.Name,
		"url":      buildURL(site.URL),
	}
	if site.Description != "" {
		data["description"] = site.Description
	}
	if site.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  site.Author,
		}
	}
	return marshalJS(data)
}

// BlogPostingJsonLD produces a Schema.org BlogPosting JSON-LD block for a post.
func BlogPostingJsonLD(site folio.Site, blog api.Blog) template.JS {
	postURL := buildURL(site.URL, "blogs", blog.Slug)
	data := map[string]interface{}{
		"@context":    "https://schema.org",
		"@type":       "BlogPosting",
		"headline":    blog.Title,
		"description": blog.Excerpt,
		"url":         postURL,
		"publisher": map[string]string{
			"@type": "Organization",
			"name":  site.Name,
		},
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if !blog.PublishedAt.IsZero() {
		data["datePublished"] = blog.PublishedAt.UTC().Format("2006-01-02")
	}
	if site.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  site.Author,
		}
	}
	if len(blog.Tags) > 0 {
		data["keywords"] = strings.Join(blog.Tags, ", ")
	}
	return marshalJS(data)
}

// marshalJS encodes v for a <script> block. json.Marshal escapes <, > and &.
func marshalJS(v any) template.JS {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return template.JS(b)
}
