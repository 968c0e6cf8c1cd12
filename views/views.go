// Package views holds the default page templates for folio. Each page is an
// html/template set (the shared layout plus the page) exposed as a
// templ.Component, so handlers render them like any other component.
package views

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/folio"
	"github.com/eringen/folio/api"
	"github.com/eringen/folio/contact"
	"github.com/eringen/folio/markdown"
)

//go:embed templates/*.html
var files embed.FS

var funcs = template.FuncMap{
	"markdown": renderMarkdown,
	"date":     formatDate,
	"datetime": formatDateTime,
	"joinList": JoinList,
	"tagClass": TagClass,
	"statusClass": func(s contact.Status) string {
		return "status status-" + string(s)
	},
	"nav": func(site folio.Site, path string, id folio.Identity, csrf string) (template.HTML, error) {
		return toHTML(Nav(site, path, id, csrf))
	},
	"toasts": func(flashes []folio.Flash) (template.HTML, error) {
		return toHTML(Toasts(flashes))
	},
	"projectCard": func(p api.Project) (template.HTML, error) {
		return toHTML(ProjectCard(p))
	},
}

var pages = map[string]*template.Template{}

func init() {
	for _, name := range []string{
		"home", "about", "projects", "blogs", "blog", "login",
		"dashboard", "blog_form", "project_form", "not_found", "server_error",
	} {
		pages[name] = template.Must(template.New("").Funcs(funcs).ParseFS(files,
			"templates/base.html",
			"templates/"+name+".html",
		))
	}
}

// page executes the named template set as a templ.Component.
func page(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t, ok := pages[name]
		if !ok {
			return fmt.Errorf("views: unknown page %q", name)
		}
		return t.ExecuteTemplate(w, "base", data)
	})
}

type homeData struct {
	folio.Page
	Featured []api.Project
	Latest   []api.Blog
	Form     folio.ContactForm
	JSONLD   template.JS
}

type projectsData struct {
	folio.Page
	Projects []api.Project
}

type blogsData struct {
	folio.Page
	Blogs     []api.Blog
	ActiveTag string
	Tags      []string
}

type blogData struct {
	folio.Page
	Blog   api.Blog
	JSONLD template.JS
}

type loginData struct {
	folio.Page
	Email string
}

type dashboardData struct {
	folio.Page
	folio.DashboardData
}

type blogFormData struct {
	folio.Page
	Blog api.Blog
}

type projectFormData struct {
	folio.Page
	Project api.Project
}

// Default returns the built-in templates.
func Default() folio.ViewFuncs {
	return folio.ViewFuncs{
		Home: func(p folio.Page, featured []api.Project, latest []api.Blog, form folio.ContactForm) templ.Component {
			return page("home", homeData{Page: p, Featured: featured, Latest: latest, Form: form, JSONLD: WebsiteJsonLD(p.Site)})
		},
		About: func(p folio.Page) templ.Component {
			return page("about", p)
		},
		Projects: func(p folio.Page, projects []api.Project) templ.Component {
			return page("projects", projectsData{Page: p, Projects: projects})
		},
		Blogs: func(p folio.Page, blogs []api.Blog, activeTag string, tags []string) templ.Component {
			return page("blogs", blogsData{Page: p, Blogs: blogs, ActiveTag: activeTag, Tags: tags})
		},
		Blog: func(p folio.Page, blog api.Blog) templ.Component {
			d := blogData{Page: p, Blog: blog}
			if blog.ID != "" {
				d.JSONLD = BlogPostingJsonLD(p.Site, blog)
			}
			return page("blog", d)
		},
		Login: func(p folio.Page, email string) templ.Component {
			return page("login", loginData{Page: p, Email: email})
		},
		Dashboard: func(p folio.Page, data folio.DashboardData) templ.Component {
			return page("dashboard", dashboardData{Page: p, DashboardData: data})
		},
		BlogForm: func(p folio.Page, blog api.Blog) templ.Component {
			return page("blog_form", blogFormData{Page: p, Blog: blog})
		},
		ProjectForm: func(p folio.Page, project api.Project) templ.Component {
			return page("project_form", projectFormData{Page: p, Project: project})
		},
		NotFound: func(p folio.Page) templ.Component {
			return page("not_found", p)
		},
		ServerError: func(p folio.Page) templ.Component {
			return page("server_error", p)
		},
	}
}

func renderMarkdown(s string) (template.HTML, error) {
	return templ.ToGoHTML(context.Background(), markdown.Markdown(s))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("January 2, 2006")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

// JoinList formats a slice as a comma-separated string for form fields.
func JoinList(vals []string) string {
	return strings.Join(vals, ", ")
}
