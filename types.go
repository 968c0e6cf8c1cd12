package folio

import (
	"github.com/eringen/folio/api"
	"github.com/eringen/folio/contact"
)

// Site is the public part of SiteConfig that templates may read.
type Site struct {
	Name        string
	URL         string
	Description string
	Author      string
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a transient notification rendered as a toast.
type Flash struct {
	Kind    string
	Message string
}

// Page is passed to every view. It carries the layout's inputs: site
// settings, the signed-in identity for the nav, pending toasts and the
// CSRF token for forms.
type Page struct {
	Site     Site
	Meta     PageMeta
	Identity Identity
	Flashes  []Flash
	CSRF     string
	Path     string
}

// DashboardData is everything the dashboard lists.
type DashboardData struct {
	Blogs          []api.Blog
	Projects       []api.Project
	Messages       []contact.Message
	ContactEnabled bool
}

// ContactForm echoes a rejected submission back into the form.
type ContactForm struct {
	Enabled bool // the contact form is shown
	Name    string
	Email   string
	Message string
	Field   string // name of the invalid field, if any
}
