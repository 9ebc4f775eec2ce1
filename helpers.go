package blogs

import (
	"encoding/json"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/eringen/blogs/streamfield"
)

// Slugify converts a title to a URL-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// AbsoluteURL joins a site-relative URL ("/blog/post/") onto base.
func AbsoluteURL(base, rel string) string {
	if !strings.HasPrefix(rel, "/") {
		rel = "/" + rel
	}
	return strings.TrimRight(base, "/") + rel
}

// FilterEmpty removes empty/whitespace-only strings from a slice.
func FilterEmpty(vals []string) []string {
	var out []string
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ParseTags splits a comma-separated tag string from a form field.
func ParseTags(s string) []string {
	return NormalizeTags(strings.Split(s, ","))
}

// JoinTags joins tags with ", ".
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}

// PathEscape escapes a string for use in a URL path.
func PathEscape(s string) string {
	return url.PathEscape(s)
}

// TagURL returns the index listing URL filtered by tag.
func TagURL(indexURL, tag string) string {
	return indexURL + "?tag=" + url.QueryEscape(tag)
}

// PageNumberURL returns the listing URL for page n, keeping the tag filter.
func PageNumberURL(indexURL, tag string, n int) string {
	q := url.Values{}
	if tag != "" {
		q.Set("tag", tag)
	}
	if n > 1 {
		q.Set("page", strconv.Itoa(n))
	}
	if len(q) == 0 {
		return indexURL
	}
	return indexURL + "?" + q.Encode()
}

// Breadcrumbs returns the ancestors below the tree root as page refs.
func Breadcrumbs(ancestors []Page) []PageRef {
	var out []PageRef
	for _, p := range ancestors {
		if p.Type == PageTypeRoot {
			continue
		}
		out = append(out, p.Ref())
	}
	return out
}

// PostSummary returns the search description when set, otherwise the first
// text block of the body as plain text.
func PostSummary(p BlogPage) string {
	if p.SearchDescription != "" {
		return p.SearchDescription
	}
	return streamfield.FirstText(p.Body)
}

// MetaTitle returns the SEO title when set, otherwise the page title.
func MetaTitle(p Page) string {
	if p.SeoTitle != "" {
		return p.SeoTitle
	}
	return p.Title
}

// WebsiteJsonLD returns a JSON-LD string for a WebSite schema using SiteConfig.
func WebsiteJsonLD(cfg SiteConfig) string {
	data := map[string]interface{}{
		"@context":    "https://schema.org",
		"@type":       "WebSite",
		"name":        cfg.Name,
		"url":         BuildURL(cfg.URL),
		"description": cfg.Description,
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// BlogPostingJsonLD returns a JSON-LD string for a BlogPosting schema.
func BlogPostingJsonLD(post BlogPage, cfg SiteConfig) string {
	postURL := AbsoluteURL(cfg.URL, post.URL())
	data := map[string]interface{}{
		"@context":      "https://schema.org",
		"@type":         "BlogPosting",
		"headline":      post.Title,
		"description":   PostSummary(post),
		"datePublished": post.Date.Format(dateLayout),
		"dateModified":  post.UpdatedAt.Format(dateLayout),
		"url":           postURL,
		"mainEntityOfPage": map[string]string{
			"@type": "WebPage",
			"@id":   postURL,
		},
	}
	if post.FeedImage != nil {
		data["image"] = AbsoluteURL(cfg.URL, post.FeedImage.URL)
	}
	if cfg.Author != "" {
		data["author"] = map[string]string{
			"@type": "Person",
			"name":  cfg.Author,
		}
	}
	if cfg.Name != "" {
		data["publisher"] = map[string]string{
			"@type": "Organization",
			"name":  cfg.Name,
		}
	}
	if len(post.Tags) > 0 {
		data["keywords"] = strings.Join(post.Tags, ", ")
	}
	b, err := json.Marshal(data)
	if err != nil {
		return "{}"
	}
	return string(b)
}
