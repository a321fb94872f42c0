package api

import (
	"net/http"
	"path/filepath"

	"vidlingo/config"
	"vidlingo/media"
)

// MediaHandler streams video files with byte-range support. Three routes
// share one serving path: the managed store by name, the public directory
// by name, and an explicit path for trusted callers.
type MediaHandler struct {
	config *config.Config
}

func NewMediaHandler(cfg *config.Config) *MediaHandler {
	return &MediaHandler{config: cfg}
}

// HandleStream serves GET /stream/video/{name} from the managed store.
// The name is sanitized to its base component before joining.
func (h *MediaHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		http.Error(w, "invalid video name", http.StatusBadRequest)
		return
	}

	path := filepath.Join(h.config.VideoStoreDir, media.SanitizeName(name))
	media.Serve(w, r, path)
}

// HandleVideoByPath serves GET /video?path=... . Relative paths resolve
// under the public root; absolute paths are used verbatim, the caller is
// trusted.
func (h *MediaHandler) HandleVideoByPath(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(h.config.PublicDir, path)
	}
	media.Serve(w, r, path)
}

// HandlePublic serves GET /videos/{name} from the public directory.
func (h *MediaHandler) HandlePublic(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		http.Error(w, "invalid video name", http.StatusBadRequest)
		return
	}

	path := filepath.Join(h.config.PublicDir, media.SanitizeName(name))
	media.Serve(w, r, path)
}
