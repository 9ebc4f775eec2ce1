package blogs

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	a.logger.Warn("failed admin login", "ip", ip)
	return Render(c, a.Views.AdminLogin(true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func adminRedirect(c echo.Context, msg string) error {
	return c.Redirect(http.StatusSeeOther, "/admin/?msg="+url.QueryEscape(msg))
}

// handleAdminPageNew renders an empty form for a page of ?type= under ?parent=.
func (a *App) handleAdminPageNew(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	typ := PageType(c.QueryParam("type"))
	if !typ.Creatable() {
		return c.String(http.StatusBadRequest, "Unknown page type")
	}
	parentID, err := strconv.ParseInt(c.QueryParam("parent"), 10, 64)
	if err != nil {
		return c.String(http.StatusBadRequest, "Invalid parent id")
	}
	if _, err := a.Store.GetPage(c.Request().Context(), parentID); err != nil {
		if isNotFound(err) {
			return c.String(http.StatusBadRequest, ErrInvalidParent.Error())
		}
		return err
	}
	values := map[string]string{"type": string(typ)}
	if typ == PageTypeBlog {
		values["date"] = time.Now().Format(dateLayout)
	}
	return a.renderPageForm(c, typ, parentID, 0, values)
}

func (a *App) handleAdminPageEdit(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.NoContent(http.StatusNotFound)
	}
	ctx := c.Request().Context()
	page, err := a.Store.GetPage(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return c.NoContent(http.StatusNotFound)
		}
		return err
	}
	if page.Type == PageTypeRoot {
		return c.String(http.StatusBadRequest, ErrRootPage.Error())
	}
	values, err := a.pageFormValues(ctx, page)
	if err != nil {
		return err
	}
	return a.renderPageForm(c, page.Type, page.ParentID, page.ID, values)
}

func (a *App) renderPageForm(c echo.Context, typ PageType, parentID, pageID int64, values map[string]string) error {
	ctx := c.Request().Context()
	images, err := a.Store.ListImages(ctx)
	if err != nil {
		return err
	}
	docs, err := a.Store.ListDocuments(ctx)
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminPageForm(AdminPageFormView{
		Type:          typ,
		ParentID:      parentID,
		PageID:        pageID,
		Values:        values,
		ContentPanels: ContentPanels(typ),
		PromotePanels: PromotePanels(typ),
		Images:        images,
		Documents:     docs,
		CSRF:          CsrfToken(c),
	}))
}

// pageFormValues is the inverse of pageForm: the stored page as form values.
func (a *App) pageFormValues(ctx context.Context, p Page) (map[string]string, error) {
	values := map[string]string{
		"id":                 strconv.FormatInt(p.ID, 10),
		"parent_id":          strconv.FormatInt(p.ParentID, 10),
		"type":               string(p.Type),
		"title":              p.Title,
		"slug":               p.Slug,
		"seo_title":          p.SeoTitle,
		"search_description": p.SearchDescription,
	}
	if p.Live {
		values["live"] = "on"
	}
	switch p.Type {
	case PageTypeBlogIndex:
		idx, err := a.Store.GetBlogIndexPage(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		values["intro"] = idx.Intro
		values["related_links"] = encodeRelatedLinks(idx.RelatedLinks)
	case PageTypeBlog:
		post, err := a.Store.GetBlogPage(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		body, err := post.Body.Marshal()
		if err != nil {
			return nil, err
		}
		values["body"] = string(body)
		values["date"] = post.Date.Format(dateLayout)
		values["tags"] = JoinTags(post.Tags)
		if post.FeedImage != nil {
			values["feed_image"] = strconv.FormatInt(post.FeedImage.ID, 10)
		}
		values["related_links"] = encodeRelatedLinks(post.RelatedLinks)
		values["carousel_items"] = encodeCarouselItems(post.CarouselItems)
	}
	return values, nil
}

func encodeRelatedLinks(links []RelatedLink) string {
	in := make([]linkInput, len(links))
	for i, l := range links {
		pageID, docID := linkIDs(l.LinkTarget)
		in[i] = linkInput{Title: l.Title, External: l.External, PageID: pageID, DocumentID: docID}
	}
	b, _ := json.Marshal(in)
	return string(b)
}

func encodeCarouselItems(items []CarouselItem) string {
	in := make([]carouselInput, len(items))
	for i, c := range items {
		pageID, docID := linkIDs(c.LinkTarget)
		in[i] = carouselInput{EmbedURL: c.EmbedURL, Caption: c.Caption, External: c.External, PageID: pageID, DocumentID: docID}
		if c.Image != nil {
			in[i].ImageID = c.Image.ID
		}
	}
	b, _ := json.Marshal(in)
	return string(b)
}

// savePageForm validates the submitted form and writes the page. It returns
// the saved page and its URL path before the write.
func (a *App) savePageForm(ctx context.Context, form pageForm) (Page, string, error) {
	form.normalize()
	if err := a.Validator.Validate(form); err != nil {
		return Page{}, "", err
	}

	var oldURL string
	if form.ID != 0 {
		existing, err := a.Store.GetPage(ctx, form.ID)
		if err != nil {
			return Page{}, "", err
		}
		if existing.Type != PageType(form.Type) {
			return Page{}, "", ErrInvalidPageType
		}
		oldURL = existing.URLPath
		form.ParentID = existing.ParentID
	}

	switch PageType(form.Type) {
	case PageTypeBlogIndex:
		idx, err := form.blogIndexPage(a.Validator)
		if err != nil {
			return Page{}, "", err
		}
		saved, err := a.Store.SaveBlogIndexPage(ctx, form.ParentID, idx)
		return saved.Page, oldURL, err
	case PageTypeBlog:
		post, err := form.blogPage(a.Validator)
		if err != nil {
			return Page{}, "", err
		}
		saved, err := a.Store.SaveBlogPage(ctx, form.ParentID, post)
		return saved.Page, oldURL, err
	default:
		if form.ID == 0 {
			saved, err := a.Store.AddPage(ctx, form.ParentID, form.page())
			return saved, oldURL, err
		}
		saved, err := a.Store.UpdatePage(ctx, form.page())
		return saved, oldURL, err
	}
}

// adminMessage returns the user-facing message of an error the editor can
// fix, or "" for internal errors.
func adminMessage(err error) string {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.Is(err, ErrSlugInUse), errors.Is(err, ErrInvalidSlug),
		errors.Is(err, ErrInvalidParent), errors.Is(err, ErrInvalidPageType),
		errors.Is(err, ErrDateRequired), errors.Is(err, ErrRootPage):
		return err.Error()
	}
	return ""
}

func (a *App) handleAdminSave(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	var form pageForm
	if err := c.Bind(&form); err != nil {
		return adminRedirect(c, "Invalid form submission.")
	}
	ctx := c.Request().Context()
	page, oldURL, err := a.savePageForm(ctx, form)
	if err != nil {
		if msg := adminMessage(err); msg != "" {
			return adminRedirect(c, msg)
		}
		if isNotFound(err) {
			return c.NoContent(http.StatusNotFound)
		}
		return err
	}
	a.Cache.Invalidate()
	if oldURL != "" && oldURL != page.URLPath {
		// Descendant URLs moved with the page.
		if _, err := a.Reindex(ctx); err != nil {
			a.logger.Warn("search reindex failed", "error", err)
		}
	} else {
		a.reindexPage(ctx, page)
	}
	a.logger.Info("page saved", "page_id", page.ID, "type", page.Type, "url", page.URLPath)
	return adminRedirect(c, "saved")
}

func (a *App) handleAdminDelete(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.NoContent(http.StatusNotFound)
	}
	removed, err := a.Store.DeletePage(c.Request().Context(), id)
	if err != nil {
		switch {
		case isNotFound(err):
			return c.NoContent(http.StatusNotFound)
		case errors.Is(err, ErrRootPage):
			return c.String(http.StatusBadRequest, err.Error())
		}
		return err
	}
	a.Cache.Invalidate()
	a.deindex(removed...)
	a.logger.Info("page deleted", "page_id", id, "removed", len(removed))
	return a.renderAdminDashboard(c, "deleted")
}

func (a *App) handleAdminReindex(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	n, err := a.Reindex(c.Request().Context())
	if err != nil {
		return err
	}
	return adminRedirect(c, "reindexed "+strconv.Itoa(n)+" pages")
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	pages, err := a.Store.ListPages(c.Request().Context(), false)
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminDashboard(AdminDashboardView{
		Pages:   pages,
		Message: msg,
		CSRF:    CsrfToken(c),
	}))
}
