package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/jason-s-yu/bubugame/internal/common"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, errorResponse{OK: false, Error: code})
}

// apiError maps service errors onto the JSON API's status codes.
func (h *Handler) apiError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrNotAuthenticated):
		writeError(w, http.StatusUnauthorized, "not_authenticated")
	case errors.Is(err, common.ErrInvalidIdentity):
		writeError(w, http.StatusBadRequest, "invalid_user")
	default:
		h.logger.WithError(err).WithField("path", r.URL.Path).Error("api request failed")
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}

// decodeObject reads a JSON object body. Anything undecodable yields an empty object.
func decodeObject(r *http.Request) map[string]interface{} {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.UseNumber()
	var body map[string]interface{}
	if err := dec.Decode(&body); err != nil || body == nil {
		return map[string]interface{}{}
	}
	return body
}

// intField reads key as an integer. Numbers are truncated toward zero and
// numeric strings are accepted; missing or unusable values yield def.
func intField(body map[string]interface{}, key string, def int) int {
	switch v := body[key].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return clampInt(float64(n))
		}
		if f, err := v.Float64(); err == nil {
			return clampInt(f)
		}
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return clampInt(float64(n))
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return clampInt(f)
		}
	case bool:
		if v {
			return 1
		}
		return 0
	}
	return def
}

func clampInt(f float64) int {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int(f)
}
