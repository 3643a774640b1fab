package main

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"
)

//go:embed static
var staticFiles embed.FS

// addViewerRoutes serves the embedded demo viewer: a browser page that
// captures camera frames and posts them to /process-frame for display.
func addViewerRoutes(r *mux.Router) {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		// The static tree is compiled in; this only fails on a broken build.
		panic(err)
	}
	r.PathPrefix("/").Handler(http.FileServer(http.FS(sub)))
}
