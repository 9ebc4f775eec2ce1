package blogs

import (
	"context"
	"encoding/xml"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

// feedSize is the number of newest posts in the RSS feed.
const feedSize = 20

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string        `xml:"title"`
	Link        string        `xml:"link"`
	Description string        `xml:"description"`
	PubDate     string        `xml:"pubDate"`
	GUID        string        `xml:"guid"`
	Categories  []string      `xml:"category"`
	Enclosure   *rssEnclosure `xml:"enclosure"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length string `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

// feedPosts returns the newest live posts of the whole site.
func (a *App) feedPosts(ctx context.Context, n int) ([]BlogPage, error) {
	root, err := a.Store.Root(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := a.Cache.Posts(ctx, root.ID)
	if err != nil {
		return nil, err
	}
	if len(posts) > n {
		posts = posts[:n]
	}
	return posts, nil
}

func (a *App) enclosure(ctx context.Context, ref *ImageRef) *rssEnclosure {
	if ref == nil {
		return nil
	}
	enc := &rssEnclosure{URL: AbsoluteURL(a.Config.URL, ref.URL), Length: "0", Type: "image/jpeg"}
	if img, err := a.Store.GetImage(ctx, ref.ID); err == nil {
		enc.Length = strconv.Itoa(img.Size)
	}
	return enc
}

func (a *App) renderRSS(c echo.Context, posts []BlogPage) error {
	ctx := c.Request().Context()
	base := a.Config.URL
	items := make([]rssItem, 0, len(posts))
	var lastBuild string
	for _, p := range posts {
		postURL := AbsoluteURL(base, p.URL())
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        postURL,
			Description: PostSummary(p),
			PubDate:     p.Date.Format(time.RFC1123Z),
			GUID:        postURL,
			Categories:  p.Tags,
			Enclosure:   a.enclosure(ctx, p.FeedImage),
		})
		if lastBuild == "" {
			lastBuild = p.Date.Format(time.RFC1123Z)
		}
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:         a.Config.Name,
			Link:          BuildURL(base),
			Description:   a.Config.Description,
			LastBuildDate: lastBuild,
			Items:         items,
		},
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(feed)
}
