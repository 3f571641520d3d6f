package webserver

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/gorilla/websocket"
)

//go:embed static
var staticFS embed.FS

func staticFiles() fs.FS {
	sub, _ := fs.Sub(staticFS, "static")
	return sub
}

var contentTypes = map[string]string{
	".html": "text/html",
	".js":   "application/javascript",
	".css":  "text/css",
	".json": "application/json",
	".png":  "image/png",
	".svg":  "image/svg+xml",
}

func contentType(name string) string {
	if ct, ok := contentTypes[path.Ext(name)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// handleStatic serves files from the asset root. A WebSocket handshake on
// any path is handed to handleWS.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		s.handleWS(w, r)
		return
	}

	name := r.URL.Path
	if name == "/" || name == "" {
		name = "/index.html"
	}
	// Cleaning a rooted path drops any ".." that would climb above the root.
	name = strings.TrimPrefix(path.Clean(name), "/")

	data, err := fs.ReadFile(s.assets, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrInvalid) {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		s.logger.Error("read asset", "path", name, "err", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType(name))
	w.Write(data)
}
