package folio

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/api"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func (a *App) handleSitemap(c echo.Context) error {
	blogs, err := a.Cache.Blogs(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "content api unavailable").SetInternal(err)
	}
	return a.renderSitemap(c, blogs)
}

func (a *App) renderSitemap(c echo.Context, blogs []api.Blog) error {
	base := a.Config.URL
	urls := []sitemapURL{
		{Loc: BuildURL(base)},
		{Loc: BuildURL(base, "about")},
		{Loc: BuildURL(base, "projects")},
		{Loc: BuildURL(base, "blogs")},
	}
	for _, b := range blogs {
		u := sitemapURL{Loc: BuildURL(base, "blogs", b.Slug)}
		if !b.PublishedAt.IsZero() {
			u.LastMod = b.PublishedAt.UTC().Format("2006-01-02")
		}
		urls = append(urls, u)
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
