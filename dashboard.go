package folio

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gosimple/slug"
	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/api"
)

const dashboardMessages = 20

func (a *App) handleDashboard(c echo.Context) error {
	return a.renderDashboard(c, "", "")
}

// renderDashboard fetches both lists and renders them. The given ids are
// left out, so a delete shows up even if the API list lags behind it.
func (a *App) renderDashboard(c echo.Context, deletedBlog, deletedProject string, extra ...Flash) error {
	ctx := c.Request().Context()
	token := CurrentIdentity(c).Token
	data := DashboardData{ContactEnabled: a.Contact != nil}
	flashes := extra

	blogs, err := a.API.ListBlogs(ctx, token)
	if err != nil {
		if handled, herr := a.sessionExpired(c, err); handled {
			return herr
		}
		flashes = append(flashes, a.errorFlash(c, err, "Failed to load blog posts."))
	}
	projects, err := a.API.ListProjects(ctx, token)
	if err != nil {
		if handled, herr := a.sessionExpired(c, err); handled {
			return herr
		}
		flashes = append(flashes, a.errorFlash(c, err, "Failed to load projects."))
	}
	SortBlogs(blogs)
	data.Blogs = withoutBlog(blogs, deletedBlog)
	data.Projects = withoutProject(projects, deletedProject)

	if a.Contact != nil {
		msgs, err := a.Contact.Recent(ctx, dashboardMessages)
		if err != nil {
			a.Log.WithError(err).Error("loading contact messages")
			flashes = append(flashes, Flash{Kind: FlashError, Message: "Failed to load messages."})
		}
		data.Messages = msgs
	}

	p := a.page(c, PageMeta{Title: "Dashboard | " + a.Config.Name}, flashes...)
	return Render(c, a.Views.Dashboard(p, data))
}

// Blogs

func (a *App) handleBlogNew(c echo.Context) error {
	return a.renderBlogForm(c, http.StatusOK, api.Blog{})
}

func (a *App) handleBlogEdit(c echo.Context) error {
	id := c.Param("id")
	blog, err := a.API.GetBlog(c.Request().Context(), CurrentIdentity(c).Token, id)
	if err != nil {
		return a.editLoadFailed(c, err, "Failed to load blog post.")
	}
	return a.renderBlogForm(c, http.StatusOK, blog)
}

func (a *App) handleBlogCreate(c echo.Context) error {
	return a.saveBlog(c, "")
}

func (a *App) handleBlogUpdate(c echo.Context) error {
	return a.saveBlog(c, c.Param("id"))
}

func (a *App) saveBlog(c echo.Context, id string) error {
	blog, problem := blogFromForm(c)
	blog.ID = id
	if problem != "" {
		return a.renderBlogForm(c, http.StatusUnprocessableEntity, blog, Flash{Kind: FlashError, Message: problem})
	}

	ctx := c.Request().Context()
	token := CurrentIdentity(c).Token
	var err error
	if id == "" {
		err = a.API.CreateBlog(ctx, token, blog.Input())
	} else {
		err = a.API.UpdateBlog(ctx, token, id, blog.Input())
	}
	if err != nil {
		if handled, herr := a.sessionExpired(c, err); handled {
			return herr
		}
		return a.renderBlogForm(c, http.StatusBadGateway, blog, a.errorFlash(c, err, "Failed to save blog post."))
	}

	a.Cache.Invalidate()
	msg := "Blog post updated."
	if id == "" {
		msg = "Blog post created."
	}
	return redirectWithFlash(c, FlashSuccess, msg, "/dashboard/")
}

func (a *App) handleBlogDelete(c echo.Context) error {
	id := c.Param("id")
	if err := a.API.DeleteBlog(c.Request().Context(), CurrentIdentity(c).Token, id); err != nil {
		if handled, herr := a.sessionExpired(c, err); handled {
			return herr
		}
		return a.renderDashboard(c, "", "", a.errorFlash(c, err, "Failed to delete blog post."))
	}
	a.Cache.Invalidate()
	a.Log.WithField("blog_id", id).Info("blog deleted")
	return a.renderDashboard(c, id, "", Flash{Kind: FlashSuccess, Message: "Blog post deleted."})
}

func (a *App) renderBlogForm(c echo.Context, code int, blog api.Blog, extra ...Flash) error {
	title := "New blog post"
	if blog.ID != "" {
		title = "Edit blog post"
	}
	p := a.page(c, PageMeta{Title: title + " | " + a.Config.Name}, extra...)
	return RenderStatus(c, code, a.Views.BlogForm(p, blog))
}

// blogFromForm reads the blog form. A blank slug is derived from the title.
func blogFromForm(c echo.Context) (api.Blog, string) {
	b := api.Blog{
		Title:   strings.TrimSpace(c.FormValue("title")),
		Excerpt: strings.TrimSpace(c.FormValue("excerpt")),
		Slug:    strings.TrimSpace(c.FormValue("slug")),
		Content: c.FormValue("content"),
		Tags:    SplitList(c.FormValue("tags")),
	}
	if b.Slug == "" {
		b.Slug = slug.Make(b.Title)
	}
	switch {
	case b.Title == "":
		return b, "Title is required."
	case !slug.IsSlug(b.Slug):
		return b, "Slug may only contain lowercase letters, digits and dashes."
	case strings.TrimSpace(b.Content) == "":
		return b, "Content is required."
	}
	return b, ""
}

// Projects

func (a *App) handleProjectNew(c echo.Context) error {
	return a.renderProjectForm(c, http.StatusOK, api.Project{})
}

func (a *App) handleProjectEdit(c echo.Context) error {
	id := c.Param("id")
	project, err := a.API.GetProject(c.Request().Context(), CurrentIdentity(c).Token, id)
	if err != nil {
		return a.editLoadFailed(c, err, "Failed to load project.")
	}
	return a.renderProjectForm(c, http.StatusOK, project)
}

func (a *App) handleProjectCreate(c echo.Context) error {
	return a.saveProject(c, "")
}

func (a *App) handleProjectUpdate(c echo.Context) error {
	return a.saveProject(c, c.Param("id"))
}

func (a *App) saveProject(c echo.Context, id string) error {
	project, problem := projectFromForm(c)
	project.ID = id
	if problem != "" {
		return a.renderProjectForm(c, http.StatusUnprocessableEntity, project, Flash{Kind: FlashError, Message: problem})
	}

	if file, err := c.FormFile("imageFile"); err == nil {
		url, err := a.saveProjectImage(file)
		if err != nil {
			if errors.Is(err, errInvalidImage) {
				return a.renderProjectForm(c, http.StatusUnprocessableEntity, project, Flash{Kind: FlashError, Message: err.Error()})
			}
			return err
		}
		project.Image = url
	} else if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		return err
	}

	ctx := c.Request().Context()
	token := CurrentIdentity(c).Token
	var err error
	if id == "" {
		err = a.API.CreateProject(ctx, token, project.Input())
	} else {
		err = a.API.UpdateProject(ctx, token, id, project.Input())
	}
	if err != nil {
		if handled, herr := a.sessionExpired(c, err); handled {
			return herr
		}
		return a.renderProjectForm(c, http.StatusBadGateway, project, a.errorFlash(c, err, "Failed to save project."))
	}

	a.Cache.Invalidate()
	msg := "Project updated."
	if id == "" {
		msg = "Project created."
	}
	return redirectWithFlash(c, FlashSuccess, msg, "/dashboard/")
}

func (a *App) handleProjectDelete(c echo.Context) error {
	id := c.Param("id")
	if err := a.API.DeleteProject(c.Request().Context(), CurrentIdentity(c).Token, id); err != nil {
		if handled, herr := a.sessionExpired(c, err); handled {
			return herr
		}
		return a.renderDashboard(c, "", "", a.errorFlash(c, err, "Failed to delete project."))
	}
	a.Cache.Invalidate()
	a.Log.WithField("project_id", id).Info("project deleted")
	return a.renderDashboard(c, "", id, Flash{Kind: FlashSuccess, Message: "Project deleted."})
}

func (a *App) renderProjectForm(c echo.Context, code int, project api.Project, extra ...Flash) error {
	title := "New project"
	if project.ID != "" {
		title = "Edit project"
	}
	p := a.page(c, PageMeta{Title: title + " | " + a.Config.Name}, extra...)
	return RenderStatus(c, code, a.Views.ProjectForm(p, project))
}

func projectFromForm(c echo.Context) (api.Project, string) {
	p := api.Project{
		Title:        strings.TrimSpace(c.FormValue("title")),
		Description:  strings.TrimSpace(c.FormValue("description")),
		Image:        strings.TrimSpace(c.FormValue("image")),
		GithubURL:    strings.TrimSpace(c.FormValue("githubUrl")),
		LiveURL:      strings.TrimSpace(c.FormValue("liveUrl")),
		Technologies: SplitList(c.FormValue("technologies")),
		Featured:     c.FormValue("featured") != "",
	}
	switch {
	case p.Title == "":
		return p, "Title is required."
	case p.Description == "":
		return p, "Description is required."
	case !isHTTPURL(p.GithubURL):
		return p, "GitHub URL must be an http or https link."
	case !isHTTPURL(p.LiveURL):
		return p, "Live URL must be an http or https link."
	case !isLocalPath(p.Image) && !isHTTPURL(p.Image):
		return p, "Image must be a link or an uploaded file."
	}
	return p, ""
}

// editLoadFailed handles a failed fetch for an edit form.
func (a *App) editLoadFailed(c echo.Context, err error, fallback string) error {
	if handled, herr := a.sessionExpired(c, err); handled {
		return herr
	}
	if errors.Is(err, api.ErrNotFound) {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.page(c, PageMeta{Title: "Not found"})))
	}
	f := a.errorFlash(c, err, fallback)
	return redirectWithFlash(c, f.Kind, f.Message, "/dashboard/")
}
