package handlers

import (
	"net/http"
)

type scoreResponse struct {
	OK     bool `json:"ok"`
	Saved  bool `json:"saved"`
	Points int  `json:"points"`
}

type progressResponse struct {
	OK    bool `json:"ok"`
	Saved bool `json:"saved"`
}

// SubmitScore handles POST /api/score with body {"points": n}.
//
// Response payload:
//
//	{"ok": true, "saved": false, "points": 100}
func (h *Handler) SubmitScore(w http.ResponseWriter, r *http.Request) {
	id, err := h.identity(r)
	if err != nil {
		h.apiError(w, r, err)
		return
	}

	body := decodeObject(r)
	res, err := h.svc.RecordIfBest(r.Context(), id.Subject, intField(body, "points", 0))
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scoreResponse{OK: true, Saved: res.Saved, Points: res.Points})
}

// SaveProgress handles POST /api/progress with body {"score": n, "level": n}.
func (h *Handler) SaveProgress(w http.ResponseWriter, r *http.Request) {
	id, err := h.identity(r)
	if err != nil {
		h.apiError(w, r, err)
		return
	}

	body := decodeObject(r)
	saved, err := h.svc.SaveProgress(r.Context(), id.Subject, intField(body, "score", 0), intField(body, "level", 1))
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progressResponse{OK: true, Saved: saved})
}
