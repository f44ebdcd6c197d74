package handlers

import (
	"io/fs"
	"net/http"
)

func (h *Handler) Manifest(w http.ResponseWriter, r *http.Request) {
	h.serveAsset(w, "manifest.json", "application/manifest+json")
}

func (h *Handler) ServiceWorker(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Service-Worker-Allowed", "/")
	h.serveAsset(w, "service-worker.js", "application/javascript")
}

func (h *Handler) serveAsset(w http.ResponseWriter, name, contentType string) {
	data, err := fs.ReadFile(h.static, name)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}

type pingResponse struct {
	OK bool `json:"ok"`
	DB bool `json:"db"`
}

// Ping reports liveness and whether the database currently answers.
func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, pingResponse{OK: true, DB: h.svc.Ping(r.Context())})
}
