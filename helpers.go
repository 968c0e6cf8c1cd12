package folio

import (
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/eringen/folio/api"
)

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
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

// FilterEmpty removes empty/whitespace-only strings from a slice.
func FilterEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// SplitList parses a comma separated form field. Duplicates are dropped
// case-insensitively, keeping the first spelling.
func SplitList(s string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, v := range FilterEmpty(strings.Split(s, ",")) {
		k := strings.ToLower(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}

// SortBlogs orders posts newest first. Posts without a date go last.
func SortBlogs(blogs []api.Blog) {
	sort.SliceStable(blogs, func(i, j int) bool {
		return blogs[i].PublishedAt.After(blogs[j].PublishedAt)
	})
}

// FilterByTag returns the posts carrying tag, compared case-insensitively.
// An empty tag returns blogs unchanged.
func FilterByTag(blogs []api.Blog, tag string) []api.Blog {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return blogs
	}
	out := []api.Blog{}
	for _, b := range blogs {
		for _, t := range b.Tags {
			if strings.ToLower(strings.TrimSpace(t)) == tag {
				out = append(out, b)
				break
			}
		}
	}
	return out
}

// CollectTags returns the sorted, lowercased, deduplicated tags of blogs.
func CollectTags(blogs []api.Blog) []string {
	set := make(map[string]struct{})
	for _, b := range blogs {
		for _, t := range b.Tags {
			if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
				set[t] = struct{}{}
			}
		}
	}
	tags := make([]string, 0, len(set))
	for t := range set {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// FeaturedProjects returns up to n featured projects, or the first n
// projects when none is featured.
func FeaturedProjects(projects []api.Project, n int) []api.Project {
	var out []api.Project
	for _, p := range projects {
		if p.Featured {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		out = projects
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// withoutBlog drops the post with the given id.
func withoutBlog(blogs []api.Blog, id string) []api.Blog {
	out := make([]api.Blog, 0, len(blogs))
	for _, b := range blogs {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}

// withoutProject drops the project with the given id.
func withoutProject(projects []api.Project, id string) []api.Project {
	out := make([]api.Project, 0, len(projects))
	for _, p := range projects {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

// isHTTPURL reports whether s is empty or an absolute http(s) URL.
func isHTTPURL(s string) bool {
	if s == "" {
		return true
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// isLocalPath reports whether s is a site-relative path such as an upload.
func isLocalPath(s string) bool {
	return strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//")
}
