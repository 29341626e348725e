package main

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"
)

// MaxAge adds Cache-Control headers for static assets by file extension.
func MaxAge(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var age time.Duration
		switch filepath.Ext(r.URL.Path) {
		case ".css", ".js":
			age = time.Hour
		case ".png", ".ico", ".svg":
			age = time.Hour * 24 * 365
		}

		if age > 0 {
			w.Header().Add("Cache-Control", fmt.Sprintf("max-age=%d, public, must-revalidate", int(age/time.Second)))
		}

		h.ServeHTTP(w, r)
	})
}
