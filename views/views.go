// Package views provides the default blogs templates as templ components.
// Sites can replace any of them through blogs.ViewFuncs.
package views

//go:generate templ generate

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/eringen/blogs"
)

// Default returns the built-in ViewFuncs.
func Default() blogs.ViewFuncs {
	return blogs.ViewFuncs{
		Index:          indexPage,
		IndexPartial:   listing,
		Post:           postPage,
		Folder:         folderPage,
		Search:         searchPage,
		AdminLogin:     adminLogin,
		AdminDashboard: adminDashboard,
		AdminPageForm:  adminPageForm,
		AdminImages:    adminImages,
		AdminDocuments: adminDocuments,
		NotFound:       notFoundPage,
		ServerError:    serverErrorPage,
	}
}

// TagClass returns CSS classes for a tag pill, with active variant.
func TagClass(active bool) string {
	if active {
		return "tag active"
	}
	return "tag"
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("January 2, 2006")
}

func isoDate(t time.Time) string { return t.Format("2006-01-02") }

// jsonLD embeds a structured data document. data is produced by
// encoding/json, which escapes '<' so it cannot close the script element.
func jsonLD(data string) templ.Component {
	return templ.Raw(`<script type="application/ld+json">` + data + `</script>`)
}

func folderTitle(v blogs.FolderView) string {
	if v.Folder.Type == blogs.PageTypeRoot {
		return v.Meta.Title
	}
	return v.Meta.Title + " | " + v.Site.Name
}

func searchTitle(v blogs.SearchView) string {
	if v.Query == "" {
		return "Search | " + v.Site.Name
	}
	return "Search: " + v.Query + " | " + v.Site.Name
}

func resultSummary(total int, query string) string {
	noun := "results"
	if total == 1 {
		noun = "result"
	}
	return fmt.Sprintf("%d %s for “%s”", total, noun, query)
}

// searchPageURL links page n of the results for q. Spaces encode as %20 so
// the link reads the same as the address bar.
func searchPageURL(q string, n int) string {
	return "/search/?q=" + strings.ReplaceAll(url.QueryEscape(q), "+", "%20") + "&page=" + strconv.Itoa(n)
}

func pageOf(w blogs.PageWindow) string {
	return fmt.Sprintf("Page %d of %d", w.Number, w.NumPages)
}

func indentStyle(depth int) templ.SafeCSS {
	return templ.SafeCSS(fmt.Sprintf("padding-left: %dpx;", depth*18))
}

func liveStatus(live bool) string {
	if live {
		return "live"
	}
	return "draft"
}

func adminPageURL(id int64) string { return fmt.Sprintf("/admin/pages/%d/", id) }

func newPageURL(t blogs.PageType, parentID int64) string {
	return fmt.Sprintf("/admin/pages/new/?type=%s&parent=%d", t, parentID)
}

func assetURL(kind string, id int64) string { return fmt.Sprintf("/admin/%s/%d/", kind, id) }

func assetID(id int64) string { return "#" + strconv.FormatInt(id, 10) }

func assetLabel(id int64, title string) string { return assetID(id) + " " + title }

func dimensions(w, h int) string { return fmt.Sprintf("%d×%d", w, h) }

func byteSize(n int64) string { return strconv.FormatInt(n, 10) + " bytes" }

// creatableChildren returns the page types an editor may add under p.
func creatableChildren(p blogs.Page) []blogs.PageType {
	if p.Type == blogs.PageTypeBlog {
		return nil
	}
	return []blogs.PageType{blogs.PageTypeFolder, blogs.PageTypeBlogIndex, blogs.PageTypeBlog}
}

func formVerb(v blogs.AdminPageFormView) string {
	if v.PageID != 0 {
		return "Edit"
	}
	return "New"
}

// sortedErrors renders field errors as "field message", ordered by field.
func sortedErrors(errs map[string]string) []string {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	slices.Sort(fields)
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f + " " + errs[f]
	}
	return out
}

func isSelected(f blogs.AdminPageFormView, field string, id int64) bool {
	return f.Values[field] == strconv.FormatInt(id, 10)
}

func inputType(field string) string {
	if field == "date" {
		return "date"
	}
	return "text"
}

// panelHelp describes the JSON a stream or inline textarea expects.
func panelHelp(p blogs.Panel) string {
	if len(p.Children) == 0 {
		return `StreamField JSON: [{"type": "paragraph", "value": "<p>…</p>"}]`
	}
	return "JSON list of objects with keys: " + strings.Join(panelFields(p.Children), ", ")
}

// panelFields flattens nested panels to their form field names.
func panelFields(panels []blogs.Panel) []string {
	var out []string
	for _, p := range panels {
		if len(p.Children) > 0 {
			out = append(out, panelFields(p.Children)...)
			continue
		}
		out = append(out, p.Field)
	}
	return out
}
