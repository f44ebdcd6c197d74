package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bubugame/internal/models"
)

// UserRepository is the credential store and progress tracker.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SaveProgress(ctx context.Context, id uuid.UUID, score, level int) error
}

// ScoreRepository is the score ledger and leaderboard aggregation.
type ScoreRepository interface {
	RecordIfBest(ctx context.Context, userID uuid.UUID, points int) (bool, error)
	BestScore(ctx context.Context, userID uuid.UUID) (int, error)
	TopScores(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

// Pinger reports database reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
