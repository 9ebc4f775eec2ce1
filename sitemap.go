package blogs

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"
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

// renderSitemap lists every live page, root included, in tree order.
func (a *App) renderSitemap(c echo.Context, pages []Page) error {
	base := a.Config.URL
	urls := make([]sitemapURL, 0, len(pages))
	for _, p := range pages {
		u := sitemapURL{Loc: AbsoluteURL(base, p.URL())}
		if !p.UpdatedAt.IsZero() {
			u.LastMod = p.UpdatedAt.Format(dateLayout)
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
