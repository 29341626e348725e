//go:build !debug

package dist

import (
	"embed"
	"io/fs"
)

//go:embed index.html app.js style.css
var content embed.FS

// Content is the static web UI.
var Content fs.FS = content
