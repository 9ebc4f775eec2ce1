// Package search maintains a full-text index of the page tree.
package search

import (
	"strconv"
	"strings"
	"time"
)

// DocType mirrors the page type of an indexed page.
type DocType string

const (
	DocTypeFolder    DocType = "folder"
	DocTypeBlogIndex DocType = "blog_index"
	DocTypeBlog      DocType = "blog"
)

// Document is the indexed representation of a live page. Title is indexed
// for every page; Intro for blog indexes; Body and Tags for posts.
type Document struct {
	PageID      int64
	Type        DocType
	Title       string
	Description string
	Intro       string
	Body        string
	Tags        []string
	URL         string
	Date        time.Time
}

// DocID returns the index key of the page with the given id.
func DocID(pageID int64) string {
	return "page-" + strconv.FormatInt(pageID, 10)
}

// ID returns the index key of the document.
func (d *Document) ID() string {
	return DocID(d.PageID)
}

// ToMap converts the document to the field names used by the mapping.
func (d *Document) ToMap() map[string]any {
	m := map[string]any{
		"page_id": float64(d.PageID),
		"type":    string(d.Type),
		"title":   d.Title,
		"url":     d.URL,
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.Intro != "" {
		m["intro"] = d.Intro
	}
	if d.Body != "" {
		m["body"] = d.Body
	}
	if len(d.Tags) > 0 {
		tags := make([]string, 0, len(d.Tags))
		for _, t := range d.Tags {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		m["tags"] = tags
	}
	if !d.Date.IsZero() {
		m["date"] = float64(d.Date.Unix())
	}
	return m
}
