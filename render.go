package folio

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/eringen/folio/api"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// page builds the view input for the current request. Queued flashes are
// consumed here, so call it before anything is written to the response.
func (a *App) page(c echo.Context, meta PageMeta, extra ...Flash) Page {
	if meta.Title == "" {
		meta.Title = a.Config.Name
	}
	if meta.Description == "" {
		meta.Description = a.Config.Description
	}
	if meta.URL == "" {
		meta.URL = BuildURL(a.Config.URL, c.Request().URL.Path)
	}
	if meta.OGType == "" {
		meta.OGType = "website"
	}
	return Page{
		Site:     a.Config.Site(),
		Meta:     meta,
		Identity: CurrentIdentity(c),
		Flashes:  append(takeFlashes(c), extra...),
		CSRF:     CsrfToken(c),
		Path:     c.Request().URL.Path,
	}
}

// errorFlash logs an API failure and turns it into a toast.
func (a *App) errorFlash(c echo.Context, err error, fallback string) Flash {
	a.Log.WithError(err).WithFields(logrus.Fields{
		"path":       c.Request().URL.Path,
		"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
	}).Warn(fallback)
	return Flash{Kind: FlashError, Message: api.Message(err, fallback)}
}
