package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/jason-s-yu/bubugame/internal/middleware"
	"github.com/jason-s-yu/bubugame/internal/models"
	"github.com/jason-s-yu/bubugame/internal/service"
)

type leaderboardResponse struct {
	OK   bool                      `json:"ok"`
	Rows []models.LeaderboardEntry `json:"rows"`
}

type leaderboardMessage struct {
	Type string                    `json:"type"`
	Rows []models.LeaderboardEntry `json:"rows"`
}

// limitParam reads ?limit=, falling back to the configured default.
func (h *Handler) limitParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return h.cfg.LeaderboardLimit
	}
	if n < 1 {
		n = 1
	}
	return service.ClampLimit(n)
}

func (h *Handler) LeaderboardPage(w http.ResponseWriter, r *http.Request) {
	_, err := h.identity(r)
	h.render(w, http.StatusOK, "leaderboard.html", struct {
		Rows     []models.LeaderboardEntry
		LoggedIn bool
	}{
		Rows:     h.svc.TopScores(r.Context(), h.cfg.LeaderboardLimit),
		LoggedIn: err == nil,
	})
}

func (h *Handler) LeaderboardJSON(w http.ResponseWriter, r *http.Request) {
	rows := h.svc.TopScores(r.Context(), h.limitParam(r))
	writeJSON(w, http.StatusOK, leaderboardResponse{OK: true, Rows: rows})
}

// LeaderboardWS streams leaderboard snapshots over the "leaderboard" subprotocol.
func (h *Handler) LeaderboardWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{"leaderboard"},
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Warnf("websocket accept error: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	if c.Subprotocol() != "leaderboard" {
		c.Close(BadSubprotocolError, "client must speak the leaderboard subprotocol")
		return
	}

	remote, path := r.RemoteAddr, r.URL.Path
	middleware.LogWebSocketConnect(h.logger, remote, path)

	// the client never sends; CloseRead cancels ctx once it goes away
	ctx := c.CloseRead(r.Context())
	err = h.pushLeaderboard(ctx, c, h.limitParam(r))
	middleware.LogWebSocketDisconnect(h.logger, remote, path, err)

	if err == nil {
		c.Close(websocket.StatusNormalClosure, "")
	}
}

func (h *Handler) pushLeaderboard(ctx context.Context, c *websocket.Conn, limit int) error {
	for rows := range h.svc.LeaderboardFeed(ctx, limit, h.cfg.PushInterval) {
		writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := wsjson.Write(writeCtx, c, leaderboardMessage{Type: "leaderboard", Rows: rows})
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
	}
	return nil
}
