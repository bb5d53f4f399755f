package web

import (
	"embed"
)

// staticFiles holds the embedded index page and its assets.
// The final binary includes all files under static/.
//
//go:embed static/*
var staticFiles embed.FS
