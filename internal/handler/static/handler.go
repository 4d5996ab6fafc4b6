package static

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/audiosessions/backend/internal/logging"
	"github.com/audiosessions/backend/pkg/utils"
)

const indexFile = "index.html"

// Handler serves the frontend bundle and falls back to index.html for
// client-side routes.
type Handler struct {
	root string
}

// New serves files below root.
func New(root string) *Handler {
	if root == "" {
		root = "."
	}
	return &Handler{root: root}
}

// RegisterRoutes mounts the handler on the root and every unmatched GET or
// HEAD path.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Head("/", h.handleIndex)
	r.Get("/*", h.handleStatic)
	r.Head("/*", h.handleStatic)
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.serveIndex(w, r)
}

func (h *Handler) handleStatic(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/")

	// Prevent directory traversal attacks
	if strings.Contains(name, "..") || strings.HasPrefix(name, "/") || strings.Contains(name, "\\") {
		logging.Warn().Str("path", r.URL.Path).Str("remote_ip", r.RemoteAddr).Msg("rejected static path")
		utils.RespondErr(w, utils.ValidationError("Invalid file path"))
		return
	}
	if name == "" {
		h.serveIndex(w, r)
		return
	}

	if hidden(name) {
		utils.RespondErr(w, utils.NotFoundError("File not found"))
		return
	}

	if h.serveFile(w, r, name) {
		return
	}

	// Client-side routes never contain a dot anywhere in the path.
	if !strings.HasPrefix(name, "api/") && !strings.Contains(name, ".") {
		h.serveIndex(w, r)
		return
	}
	utils.RespondErr(w, utils.NotFoundError("File not found"))
}

func (h *Handler) serveIndex(w http.ResponseWriter, r *http.Request) {
	if !h.serveFile(w, r, indexFile) {
		utils.RespondErr(w, utils.NotFoundError("File not found"))
	}
}

// serveFile writes name when it is a regular file under the root and reports
// whether it did.
func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, name string) bool {
	full := filepath.Join(h.root, filepath.FromSlash(name))

	f, err := os.Open(full)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.Warn().Err(err).Str("file", name).Msg("failed to open static file")
		}
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		return false
	}

	if cache := cacheControl(name); cache != "" {
		w.Header().Set("Cache-Control", cache)
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return true
}

// hidden reports whether any segment of name is a dotfile, which keeps files
// such as .env out of reach when the static root is the working directory.
func hidden(name string) bool {
	for _, segment := range strings.Split(name, "/") {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}
	return false
}

func cacheControl(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".js", ".css":
		return "public, max-age=86400"
	case ".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".ico":
		return "public, max-age=604800"
	case ".html":
		return "public, max-age=300"
	default:
		return ""
	}
}
