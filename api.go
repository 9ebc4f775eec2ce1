package blogs

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

const apiPagesPath = "/api/v2/pages/"

func (a *App) apiMeta(p Page) map[string]any {
	return map[string]any{
		"type":               string(p.Type),
		"detail_url":         AbsoluteURL(a.Config.URL, apiPagesPath+strconv.FormatInt(p.ID, 10)+"/"),
		"html_url":           AbsoluteURL(a.Config.URL, p.URL()),
		"slug":               p.Slug,
		"seo_title":          p.SeoTitle,
		"search_description": p.SearchDescription,
		"parent_id":          p.ParentID,
	}
}

func apiImage(img *ImageRef) any {
	if img == nil {
		return nil
	}
	return map[string]any{
		"id":       img.ID,
		"title":    img.Title,
		"url":      img.URL,
		"width":    img.Width,
		"height":   img.Height,
		"blurhash": img.BlurHash,
	}
}

func apiRelatedLinks(links []RelatedLink) []map[string]any {
	out := make([]map[string]any, 0, len(links))
	for _, l := range links {
		out = append(out, map[string]any{
			"id":         l.ID,
			"sort_order": l.SortOrder,
			"title":      l.Title,
			"link":       l.URL(),
		})
	}
	return out
}

func apiCarouselItems(items []CarouselItem) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, c := range items {
		out = append(out, map[string]any{
			"id":         c.ID,
			"sort_order": c.SortOrder,
			"image":      apiImage(c.Image),
			"embed_url":  c.EmbedURL,
			"caption":    c.Caption,
			"link":       c.URL(),
		})
	}
	return out
}

// PageAPIFields returns the public API representation of a live page with
// the fields its type exposes.
func (a *App) PageAPIFields(ctx context.Context, p Page) (map[string]any, error) {
	out := map[string]any{
		"id":    p.ID,
		"meta":  a.apiMeta(p),
		"title": p.Title,
	}
	switch p.Type {
	case PageTypeBlogIndex:
		idx, err := a.Store.GetBlogIndexPage(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		out["intro"] = idx.Intro
		out["related_links"] = apiRelatedLinks(idx.RelatedLinks)
	case PageTypeBlog:
		post, err := a.Store.GetBlogPage(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		tags := post.Tags
		if tags == nil {
			tags = []string{}
		}
		out["body"] = post.Body
		out["tags"] = tags
		out["date"] = post.Date.Format(dateLayout)
		out["feed_image"] = apiImage(post.FeedImage)
		out["carousel_items"] = apiCarouselItems(post.CarouselItems)
		out["related_links"] = apiRelatedLinks(post.RelatedLinks)
	}
	return out, nil
}

func (a *App) handleAPIPage(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "not found"})
	}
	ctx := c.Request().Context()
	page, err := a.Store.GetPage(ctx, id)
	if err != nil || !page.Live || page.Type == PageTypeRoot {
		if err == nil || isNotFound(err) {
			return c.JSON(http.StatusNotFound, map[string]string{"message": "not found"})
		}
		return err
	}
	out, err := a.PageAPIFields(ctx, page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

// handleAPIPages lists live pages, optionally filtered by ?type= and
// ?child_of=<id>.
func (a *App) handleAPIPages(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		pages []Page
		err   error
	)
	if raw := c.QueryParam("child_of"); raw != "" {
		parent, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"message": "child_of must be a page id"})
		}
		pages, err = a.Store.Children(ctx, parent, true)
	} else {
		pages, err = a.Store.ListPages(ctx, true)
	}
	if err != nil {
		return err
	}
	typ := PageType(c.QueryParam("type"))
	items := make([]map[string]any, 0, len(pages))
	for _, p := range pages {
		if typ != "" && p.Type != typ {
			continue
		}
		items = append(items, map[string]any{
			"id":    p.ID,
			"meta":  a.apiMeta(p),
			"title": p.Title,
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"meta":  map[string]any{"total_count": len(items)},
		"items": items,
	})
}
