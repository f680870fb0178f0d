// Package web holds the embedded overlay assets.
package web

import "embed"

// FS contains the HTML templates served by the overlay renderer.
//
//go:embed templates
var FS embed.FS
