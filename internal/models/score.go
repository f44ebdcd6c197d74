package models

import "github.com/google/uuid"

// ScoreResult is returned to the client after a score submission.
type ScoreResult struct {
	Saved  bool `json:"saved"`
	Points int  `json:"points"`
}

// LeaderboardEntry is one row of the top-N aggregation.
type LeaderboardEntry struct {
	Rank      int       `json:"rank"`
	UserID    uuid.UUID `json:"-"`
	Username  string    `json:"username"`
	BestScore int       `json:"best_score"`
}

// UnknownUsername stands in for ledger rows whose user no longer exists.
const UnknownUsername = "???"

// ScoreEvent is published after a new best score is stored.
type ScoreEvent struct {
	UserID uuid.UUID `json:"user_id"`
	Points int       `json:"points"`
	At     int64     `json:"at"` // epoch millis
}
