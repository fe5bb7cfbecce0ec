// Package static provides the embedded single-page chat UI.
package static

import (
	"embed"
	"net/http"
)

//go:embed index.html
var assetsFS embed.FS

// Handler returns an http.Handler serving the embedded UI.
// Assets are embedded at compile time; index.html is served at /.
func Handler() http.Handler {
	return http.FileServerFS(assetsFS)
}
