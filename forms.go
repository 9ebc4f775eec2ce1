package blogs

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/eringen/blogs/streamfield"
)

// pageForm is the admin edit form shared by every page type. Fields that
// do not apply to the submitted type are ignored.
type pageForm struct {
	ID                int64  `form:"id" validate:"gte=0"`
	ParentID          int64  `form:"parent_id" validate:"gte=0"`
	Type              string `form:"type" validate:"required,oneof=folder blog_index blog"`
	Title             string `form:"title" validate:"required,max=255"`
	Slug              string `form:"slug" validate:"max=255"`
	Live              string `form:"live"`
	SeoTitle          string `form:"seo_title" validate:"max=255"`
	SearchDescription string `form:"search_description"`

	Intro         string `form:"intro"`
	Body          string `form:"body"`
	Date          string `form:"date" validate:"omitempty,datetime=2006-01-02"`
	Tags          string `form:"tags"`
	FeedImageID   int64  `form:"feed_image" validate:"gte=0"`
	RelatedLinks  string `form:"related_links"`
	CarouselItems string `form:"carousel_items"`
}

// linkInput is one related link as submitted in the related_links JSON.
type linkInput struct {
	Title      string `json:"title" validate:"required,max=255"`
	External   string `json:"link_external" validate:"omitempty,url"`
	PageID     int64  `json:"link_page" validate:"gte=0"`
	DocumentID int64  `json:"link_document" validate:"gte=0"`
}

// carouselInput is one carousel item as submitted in the carousel_items JSON.
type carouselInput struct {
	ImageID    int64  `json:"image" validate:"gte=0"`
	EmbedURL   string `json:"embed_url" validate:"omitempty,url"`
	Caption    string `json:"caption" validate:"max=255"`
	External   string `json:"link_external" validate:"omitempty,url"`
	PageID     int64  `json:"link_page" validate:"gte=0"`
	DocumentID int64  `json:"link_document" validate:"gte=0"`
}

type linkInputs struct {
	Items []linkInput `json:"related_links" validate:"dive"`
}

type carouselInputs struct {
	Items []carouselInput `json:"carousel_items" validate:"dive"`
}

func (f *pageForm) normalize() {
	f.Type = strings.TrimSpace(f.Type)
	f.Title = strings.TrimSpace(f.Title)
	f.Slug = strings.TrimSpace(f.Slug)
	f.SeoTitle = strings.TrimSpace(f.SeoTitle)
	f.SearchDescription = strings.TrimSpace(f.SearchDescription)
	f.Date = strings.TrimSpace(f.Date)
}

func (f pageForm) page() Page {
	return Page{
		ID:                f.ID,
		Type:              PageType(f.Type),
		Title:             f.Title,
		Slug:              f.Slug,
		Live:              f.Live != "",
		SeoTitle:          f.SeoTitle,
		SearchDescription: f.SearchDescription,
	}
}

func linkTarget(external string, pageID, documentID int64) LinkTarget {
	t := LinkTarget{External: strings.TrimSpace(external)}
	if pageID > 0 {
		t.Page = &PageRef{ID: pageID}
	}
	if documentID > 0 {
		t.Document = &DocumentRef{ID: documentID}
	}
	return t
}

// relatedLinks decodes and validates the related_links JSON field.
func (f pageForm) relatedLinks(v *Validator) ([]RelatedLink, error) {
	var in linkInputs
	if strings.TrimSpace(f.RelatedLinks) != "" {
		if err := json.Unmarshal([]byte(f.RelatedLinks), &in.Items); err != nil {
			return nil, &ValidationError{Fields: map[string]string{"related_links": "must be a JSON list"}}
		}
	}
	if err := v.Validate(in); err != nil {
		return nil, err
	}
	out := make([]RelatedLink, len(in.Items))
	for i, l := range in.Items {
		out[i] = RelatedLink{
			SortOrder:  i,
			Title:      strings.TrimSpace(l.Title),
			LinkTarget: linkTarget(l.External, l.PageID, l.DocumentID),
		}
	}
	return out, nil
}

// carouselItems decodes and validates the carousel_items JSON field.
func (f pageForm) carouselItems(v *Validator) ([]CarouselItem, error) {
	var in carouselInputs
	if strings.TrimSpace(f.CarouselItems) != "" {
		if err := json.Unmarshal([]byte(f.CarouselItems), &in.Items); err != nil {
			return nil, &ValidationError{Fields: map[string]string{"carousel_items": "must be a JSON list"}}
		}
	}
	if err := v.Validate(in); err != nil {
		return nil, err
	}
	out := make([]CarouselItem, len(in.Items))
	for i, c := range in.Items {
		item := CarouselItem{
			SortOrder:  i,
			EmbedURL:   strings.TrimSpace(c.EmbedURL),
			Caption:    strings.TrimSpace(c.Caption),
			LinkTarget: linkTarget(c.External, c.PageID, c.DocumentID),
		}
		if c.ImageID > 0 {
			item.Image = &ImageRef{ID: c.ImageID}
		}
		out[i] = item
	}
	return out, nil
}

func (f pageForm) blogIndexPage(v *Validator) (BlogIndexPage, error) {
	links, err := f.relatedLinks(v)
	if err != nil {
		return BlogIndexPage{}, err
	}
	return BlogIndexPage{Page: f.page(), Intro: f.Intro, RelatedLinks: links}, nil
}

func (f pageForm) blogPage(v *Validator) (BlogPage, error) {
	if f.Date == "" {
		return BlogPage{}, &ValidationError{Fields: map[string]string{"date": "is required"}}
	}
	date, err := time.Parse(dateLayout, f.Date)
	if err != nil {
		return BlogPage{}, &ValidationError{Fields: map[string]string{"date": "must be a date in YYYY-MM-DD format"}}
	}
	body, err := streamfield.Parse([]byte(f.Body))
	if err != nil {
		return BlogPage{}, &ValidationError{Fields: map[string]string{"body": fmt.Sprintf("is invalid: %v", err)}}
	}
	links, err := f.relatedLinks(v)
	if err != nil {
		return BlogPage{}, err
	}
	items, err := f.carouselItems(v)
	if err != nil {
		return BlogPage{}, err
	}
	post := BlogPage{
		Page:          f.page(),
		Body:          body,
		Date:          date,
		Tags:          ParseTags(f.Tags),
		CarouselItems: items,
		RelatedLinks:  links,
	}
	if f.FeedImageID > 0 {
		post.FeedImage = &ImageRef{ID: f.FeedImageID}
	}
	return post, nil
}
