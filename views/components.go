package views

import (
	"context"
	"html/template"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/eringen/folio"
	"github.com/eringen/folio/api"
)

var navLinks = []struct{ Href, Label string }{
	{"/", "Home"},
	{"/about/", "About"},
	{"/projects/", "Projects"},
	{"/blogs/", "Blogs"},
}

// Nav renders the site header. Signed-in users get Logout, and admins also
// get the Dashboard link.
func Nav(site folio.Site, current string, id folio.Identity, csrf string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<header class="site-header"><nav class="nav" aria-label="Main">`)
		b.WriteString(`<a class="brand" href="/">` + templ.EscapeString(site.Name) + `</a>`)
		b.WriteString(`<ul class="nav-links">`)
		for _, l := range navLinks {
			writeNavLink(&b, current, l.Href, l.Label)
		}
		if id.Authenticated() {
			if id.IsAdmin() {
				writeNavLink(&b, current, "/dashboard/", "Dashboard")
			}
			b.WriteString(`<li><form method="post" action="/logout/" class="inline">`)
			b.WriteString(`<input type="hidden" name="_csrf" value="` + templ.EscapeString(csrf) + `">`)
			b.WriteString(`<button type="submit" class="nav-link">Logout</button></form></li>`)
		} else {
			writeNavLink(&b, current, "/login/", "Login")
		}
		b.WriteString(`</ul></nav></header>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeNavLink(b *strings.Builder, current, href, label string) {
	b.WriteString(`<li><a class="` + NavClass(current, href) + `" href="` + href + `">` + label + `</a></li>`)
}

// Toasts renders pending flashes. Nothing is written when there are none.
func Toasts(flashes []folio.Flash) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(flashes) == 0 {
			return nil
		}
		var b strings.Builder
		b.WriteString(`<div class="toasts" aria-live="polite">`)
		for _, f := range flashes {
			b.WriteString(`<div class="` + ToastClass(f.Kind) + `" role="status">` + templ.EscapeString(f.Message) + `</div>`)
		}
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ProjectCard renders one project for the home and projects pages.
// Links with an unsafe scheme such as javascript: are replaced by templ.URL.
func ProjectCard(p api.Project) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<article class="card">`)
		if p.Image != "" {
			b.WriteString(`<img src="` + attrURL(p.Image) + `" alt="" loading="lazy">`)
		}
		b.WriteString(`<h3>` + templ.EscapeString(p.Title))
		if p.Featured {
			b.WriteString(` <span class="badge">Featured</span>`)
		}
		b.WriteString(`</h3>`)
		b.WriteString(`<p>` + templ.EscapeString(p.Description) + `</p>`)
		if len(p.Technologies) > 0 {
			b.WriteString(`<ul class="tags">`)
			for _, t := range p.Technologies {
				b.WriteString(`<li class="tag">` + templ.EscapeString(t) + `</li>`)
			}
			b.WriteString(`</ul>`)
		}
		b.WriteString(`<p class="links">`)
		if p.GithubURL != "" {
			b.WriteString(`<a href="` + attrURL(p.GithubURL) + `" target="_blank" rel="noopener noreferrer">GitHub</a>`)
		}
		if p.LiveURL != "" {
			b.WriteString(`<a href="` + attrURL(p.LiveURL) + `" target="_blank" rel="noopener noreferrer">Live demo</a>`)
		}
		b.WriteString(`</p></article>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func attrURL(s string) string {
	return templ.EscapeString(string(templ.URL(s)))
}

// toHTML renders a component for use inside an html/template page.
func toHTML(cmp templ.Component) (template.HTML, error) {
	return templ.ToGoHTML(context.Background(), cmp)
}
