package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email,omitempty"`
	Password string    `json:"-"` // argon2id encoded hash once persisted

	CreatedAt time.Time `json:"created_at"`

	// progress snapshot, overwritten wholesale by SaveProgress
	CurrentScore      int        `json:"current_score"`
	CurrentLevel      int        `json:"current_level"`
	ProgressUpdatedAt *time.Time `json:"progress_updated_at,omitempty"`
}

// Profile is what the index page shows for the signed-in player.
type Profile struct {
	Username     string `json:"username"`
	CurrentScore int    `json:"current_score"`
	CurrentLevel int    `json:"current_level"`
	BestScore    int    `json:"best_score"`
}
