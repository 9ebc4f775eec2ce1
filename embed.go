package blogs

import "embed"

// EmbeddedAssets contains static assets shipped with the engine, served
// under /public/: blogs.css, admin.js
//
//go:embed embedded/*
var EmbeddedAssets embed.FS
