package folio

import (
	"encoding/xml"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/api"
)

const feedItems = 20

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	PubDate     string   `xml:"pubDate,omitempty"`
	GUID        string   `xml:"guid"`
	Categories  []string `xml:"category"`
}

func (a *App) handleFeed(c echo.Context) error {
	blogs, err := a.Cache.Blogs(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "content api unavailable").SetInternal(err)
	}
	return a.renderRSS(c, blogs)
}

func (a *App) renderRSS(c echo.Context, blogs []api.Blog) error {
	SortBlogs(blogs)
	if len(blogs) > feedItems {
		blogs = blogs[:feedItems]
	}
	base := a.Config.URL
	items := make([]rssItem, 0, len(blogs))
	for _, b := range blogs {
		pubDate := ""
		if !b.PublishedAt.IsZero() {
			pubDate = b.PublishedAt.UTC().Format(time.RFC1123Z)
		}
		link := BuildURL(base, "blogs", b.Slug)
		items = append(items, rssItem{
			Title:       b.Title,
			Link:        link,
			Description: b.Excerpt,
			PubDate:     pubDate,
			GUID:        link,
			Categories:  b.Tags,
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.Config.Name,
			Link:        BuildURL(base),
			Description: a.Config.Description,
			Items:       items,
		},
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(feed)
}
