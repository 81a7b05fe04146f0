// Package web holds the server-rendered HTML templates.
package web

import "embed"

//go:embed templates
var Templates embed.FS
