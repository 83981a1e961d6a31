// Package web embeds the built dashboard frontend.
package web

import "embed"

// DistFS holds the production build of the dashboard SPA.
//
//go:embed dist
var DistFS embed.FS
