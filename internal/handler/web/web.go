// Package web serves the embedded single-page chat UI.
package web

import (
	"embed"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
)

//go:embed static/*
var staticFS embed.FS

// Handler serves index.html at / and assets under /static/.
type Handler struct {
	files fs.FS
}

// New returns a handler over the embedded assets.
func New() *Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// the embed pattern guarantees the directory exists
		panic(err)
	}
	return &Handler{files: sub}
}

// RegisterRoutes mounts the UI on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(h.files))))
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFileFS(w, r, h.files, "index.html")
}
