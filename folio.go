// Package folio is a server-rendered portfolio site built with Go, Echo and
// templ. Blogs, projects and logins live in a remote content API; folio
// renders the public pages and an admin dashboard that edits that content
// with the signed-in user's bearer token.
//
// Users provide their own templ components via the ViewFuncs struct, and
// folio handles the handler logic, sessions, middleware and API calls.
package folio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/eringen/folio/api"
	"github.com/eringen/folio/contact"
)

// ViewFuncs holds the templ components the app calls when rendering pages.
// Every view receives a Page with the site settings, identity and toasts.
type ViewFuncs struct {
	Home        func(p Page, featured []api.Project, latest []api.Blog, form ContactForm) templ.Component
	About       func(p Page) templ.Component
	Projects    func(p Page, projects []api.Project) templ.Component
	Blogs       func(p Page, blogs []api.Blog, activeTag string, tags []string) templ.Component
	Blog        func(p Page, blog api.Blog) templ.Component
	Login       func(p Page, email string) templ.Component
	Dashboard   func(p Page, data DashboardData) templ.Component
	BlogForm    func(p Page, blog api.Blog) templ.Component
	ProjectForm func(p Page, project api.Project) templ.Component
	NotFound    func(p Page) templ.Component
	ServerError func(p Page) templ.Component
}

// App is the central folio application. It wires together the API client,
// sessions, handlers, middleware and user-provided templates.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Views   ViewFuncs
	API     *api.Client
	Cache   *ContentCache
	Tokens  *TokenStore
	Auth    *Authenticator
	Contact *contact.Service
	Log     *logrus.Logger

	loginLimiter   RateLimiter
	contactLimiter RateLimiter
	customRoutes   []func(*App)

	setupOnce sync.Once
	setupErr  error
}

// New creates a folio App with the given configuration and view functions.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	a := &App{
		Config: cfg,
		Echo:   e,
		Views:  views,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.Log == nil {
		a.Log = NewLogger(a.Config.LogLevel, a.Config.LogFormat)
	}
	if a.API == nil {
		a.API = api.New(a.Config.APIURL, a.Config.APITimeout, api.WithLogger(a.Log.WithField("component", "api")))
	}
	if a.loginLimiter == nil {
		a.loginLimiter = NewLoginLimiter(5, time.Minute)
	}
	if a.contactLimiter == nil {
		a.contactLimiter = NewLoginLimiter(3, 10*time.Minute)
	}
	a.Cache = NewContentCache(a.API, a.Config.CacheTTL)
	a.Tokens = NewTokenStore(a.Config.SessionTTL)
	a.Auth = NewAuthenticator(a.API, a.Tokens, a.Log.WithField("component", "auth"))
	return a
}

// Setup validates the configuration and installs middleware and routes.
// Start calls it; tests call it directly and drive a.Echo.
func (a *App) Setup() error {
	a.setupOnce.Do(func() {
		if err := a.Config.Validate(); err != nil {
			a.setupErr = err
			return
		}
		a.setupMiddleware()
		a.setupRoutes()
		for _, fn := range a.customRoutes {
			fn(a)
		}
	})
	return a.setupErr
}

// Start sets the app up and serves until Shutdown is called.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	a.Log.WithFields(logrus.Fields{
		"addr": a.Config.Addr,
		"api":  a.API.BaseURL(),
	}).Info("folio listening")
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("folio: serve: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (a *App) Shutdown(ctx context.Context) error {
	a.Log.Info("folio shutting down")
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.Config.StaticDir)
	e.GET("/favicon.svg", a.handleFavicon)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	// Public pages
	e.GET("/", a.handleHome)
	e.GET("/about/", a.handleAbout)
	e.GET("/projects/", a.handleProjects)
	e.GET("/blogs/", a.handleBlogs)
	e.GET("/blogs/:slug/", a.handleBlog)
	if a.Contact != nil {
		e.POST("/contact/", a.handleContact)
	}

	// Session
	e.GET("/login/", a.handleLoginPage)
	e.POST("/login/", a.handleLogin)
	e.POST("/logout/", a.handleLogout)

	// Dashboard
	d := e.Group("/dashboard", requireAdmin)
	d.GET("/", a.handleDashboard)
	d.GET("/blogs/new/", a.handleBlogNew)
	d.POST("/blogs/", a.handleBlogCreate)
	d.GET("/blogs/:id/edit/", a.handleBlogEdit)
	d.POST("/blogs/:id/", a.handleBlogUpdate)
	d.POST("/blogs/:id/delete/", a.handleBlogDelete)
	d.DELETE("/blogs/:id/", a.handleBlogDelete)
	d.GET("/projects/new/", a.handleProjectNew)
	d.POST("/projects/", a.handleProjectCreate)
	d.GET("/projects/:id/edit/", a.handleProjectEdit)
	d.POST("/projects/:id/", a.handleProjectUpdate)
	d.POST("/projects/:id/delete/", a.handleProjectDelete)
	d.DELETE("/projects/:id/", a.handleProjectDelete)
}

// Close releases the limiters. The contact inbox is owned by the caller.
func (a *App) Close() error {
	var errs []error
	for _, l := range []RateLimiter{a.loginLimiter, a.contactLimiter} {
		if c, ok := l.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
