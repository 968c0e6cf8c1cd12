package folio

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/api"
	"github.com/eringen/folio/contact"
)

const (
	homeProjects = 3
	homeBlogs    = 3
)

func (a *App) handleHome(c echo.Context) error {
	return a.renderHome(c, http.StatusOK, ContactForm{Enabled: a.Contact != nil})
}

func (a *App) renderHome(c echo.Context, code int, form ContactForm, extra ...Flash) error {
	ctx := c.Request().Context()
	var failures []Flash

	projects, err := a.Cache.Projects(ctx)
	if err != nil {
		failures = append(failures, a.errorFlash(c, err, "Failed to load projects."))
	}
	blogs, err := a.Cache.Blogs(ctx)
	if err != nil {
		failures = append(failures, a.errorFlash(c, err, "Failed to load blog posts."))
	}
	SortBlogs(blogs)
	if len(blogs) > homeBlogs {
		blogs = blogs[:homeBlogs]
	}

	p := a.page(c, PageMeta{}, append(extra, failures...)...)
	return RenderStatus(c, code, a.Views.Home(p, FeaturedProjects(projects, homeProjects), blogs, form))
}

func (a *App) handleAbout(c echo.Context) error {
	p := a.page(c, PageMeta{Title: "About | " + a.Config.Name})
	return Render(c, a.Views.About(p))
}

func (a *App) handleProjects(c echo.Context) error {
	projects, err := a.Cache.Projects(c.Request().Context())
	var failures []Flash
	if err != nil {
		failures = append(failures, a.errorFlash(c, err, "Failed to load projects."))
	}
	p := a.page(c, PageMeta{Title: "Projects | " + a.Config.Name}, failures...)
	return Render(c, a.Views.Projects(p, projects))
}

func (a *App) handleBlogs(c echo.Context) error {
	tag := strings.TrimSpace(c.QueryParam("tag"))
	blogs, err := a.Cache.Blogs(c.Request().Context())
	var failures []Flash
	if err != nil {
		failures = append(failures, a.errorFlash(c, err, "Failed to load blog posts."))
	}
	SortBlogs(blogs)
	tags := CollectTags(blogs)
	p := a.page(c, PageMeta{Title: "Blog | " + a.Config.Name}, failures...)
	return Render(c, a.Views.Blogs(p, FilterByTag(blogs, tag), strings.ToLower(tag), tags))
}

func (a *App) handleBlog(c echo.Context) error {
	slug := c.Param("slug")
	blog, err := a.API.GetBlog(c.Request().Context(), "", slug)
	switch {
	case errors.Is(err, api.ErrNotFound):
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.page(c, PageMeta{Title: "Not found"})))
	case err != nil:
		p := a.page(c, PageMeta{}, a.errorFlash(c, err, "Failed to load blog post."))
		return RenderStatus(c, http.StatusBadGateway, a.Views.Blog(p, api.Blog{}))
	}
	p := a.page(c, PageMeta{
		Title:       blog.Title + " | " + a.Config.Name,
		Description: blog.Excerpt,
		URL:         BuildURL(a.Config.URL, "blogs", blog.Slug),
		OGType:      "article",
	})
	return Render(c, a.Views.Blog(p, blog))
}

func (a *App) handleContact(c echo.Context) error {
	ctx := c.Request().Context()
	if !a.contactLimiter.Allow(ctx, c.RealIP()) {
		return redirectWithFlash(c, FlashError, "Too many messages. Please try again later.", "/#contact")
	}
	form := ContactForm{
		Enabled: true,
		Name:    c.FormValue("name"),
		Email:   c.FormValue("email"),
		Message: c.FormValue("message"),
	}
	_, err := a.Contact.Submit(ctx, form.Name, form.Email, form.Message)
	var fe *contact.FieldError
	switch {
	case errors.As(err, &fe):
		form.Field = fe.Field
		return a.renderHome(c, http.StatusUnprocessableEntity, form, Flash{Kind: FlashError, Message: fe.Message})
	case err != nil:
		a.Log.WithError(err).Error("storing contact message")
		return redirectWithFlash(c, FlashError, "Your message could not be sent. Please try again later.", "/#contact")
	}
	return redirectWithFlash(c, FlashSuccess, "Thanks for reaching out! I'll get back to you soon.", "/#contact")
}

func (a *App) handleLoginPage(c echo.Context) error {
	if CurrentIdentity(c).IsAdmin() {
		return c.Redirect(http.StatusSeeOther, "/dashboard/")
	}
	return Render(c, a.Views.Login(a.page(c, PageMeta{Title: "Login | " + a.Config.Name}), ""))
}

func (a *App) handleLogin(c echo.Context) error {
	ctx := c.Request().Context()
	ip := c.RealIP()
	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("password")
	meta := PageMeta{Title: "Login | " + a.Config.Name}

	if !a.loginLimiter.Check(ctx, ip) {
		p := a.page(c, meta, Flash{Kind: FlashError, Message: "Too many login attempts. Try again later."})
		return RenderStatus(c, http.StatusTooManyRequests, a.Views.Login(p, email))
	}
	if email == "" || password == "" {
		p := a.page(c, meta, Flash{Kind: FlashError, Message: "Email and password are required."})
		return RenderStatus(c, http.StatusUnprocessableEntity, a.Views.Login(p, email))
	}

	user, err := a.Auth.Login(c, email, password)
	if err != nil {
		code := http.StatusBadGateway
		fallback := "Login failed. Please try again."
		if errors.Is(err, api.ErrUnauthorized) || errors.Is(err, api.ErrForbidden) {
			a.loginLimiter.Record(ctx, ip)
			code = http.StatusUnauthorized
			fallback = "Invalid email or password."
		}
		p := a.page(c, meta, a.errorFlash(c, err, fallback))
		return RenderStatus(c, code, a.Views.Login(p, email))
	}

	if !user.IsAdmin {
		return redirectWithFlash(c, FlashError, "This account does not have dashboard access.", "/login/")
	}
	name := user.Name
	if name == "" {
		name = user.Email
	}
	return redirectWithFlash(c, FlashSuccess, "Welcome back, "+name+".", "/dashboard/")
}

func (a *App) handleLogout(c echo.Context) error {
	if err := a.Auth.Logout(c); err != nil {
		return err
	}
	return redirectWithFlash(c, FlashSuccess, "You have been logged out.", "/")
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(filepath.Join(a.Config.StaticDir, "favicon.svg"))
}

func (a *App) handleRobots(c echo.Context) error {
	return c.File(filepath.Join(a.Config.StaticDir, "robots.txt"))
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.page(c, PageMeta{Title: "Not found"})))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Log.WithError(err).WithField("uri", c.Request().RequestURI).Error("server error")
		_ = RenderStatus(c, code, a.Views.ServerError(a.page(c, PageMeta{Title: "Server error"})))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
