package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/bubugame/internal/common"
	"github.com/jason-s-yu/bubugame/internal/models"
)

// ScoreStore is the append-only score ledger and the leaderboard aggregation over it.
type ScoreStore struct {
	db *DB
}

func NewScoreStore(db *DB) *ScoreStore {
	return &ScoreStore{db: db}
}

// beatsBest reports whether points should be recorded given the current best
// (nil when the user has no observations). Ties are not recorded.
func beatsBest(best *int, points int) bool {
	return best == nil || points > *best
}

// RecordIfBest appends an observation only when points is strictly greater
// than the user's current maximum.
//
// The user row is locked for the duration of the transaction, which both
// resolves the identity and serializes concurrent submissions for one user.
func (s *ScoreStore) RecordIfBest(ctx context.Context, userID uuid.UUID, points int) (bool, error) {
	saved := false
	err := pgx.BeginTxFunc(ctx, s.db.Pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var id uuid.UUID
		err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			return common.ErrInvalidIdentity
		}
		if err != nil {
			return err
		}

		var best *int
		if err := tx.QueryRow(ctx, `SELECT MAX(points) FROM scores WHERE user_id = $1`, userID).Scan(&best); err != nil {
			return err
		}
		if !beatsBest(best, points) {
			return nil
		}

		if _, err := tx.Exec(ctx, `INSERT INTO scores (user_id, points) VALUES ($1, $2)`, userID, points); err != nil {
			return err
		}
		saved = true
		return nil
	})
	if errors.Is(err, common.ErrInvalidIdentity) {
		return false, err
	}
	if err != nil {
		return false, fmt.Errorf("failed to record score for user %v: %w", userID, err)
	}
	return saved, nil
}

// BestScore returns the user's maximum points, 0 when nothing was recorded.
func (s *ScoreStore) BestScore(ctx context.Context, userID uuid.UUID) (int, error) {
	var best int
	err := s.db.QueryRow(ctx, `SELECT COALESCE(MAX(points), 0) FROM scores WHERE user_id = $1`, userID).Scan(&best)
	if err != nil {
		return 0, fmt.Errorf("failed to get best score for user %v: %w", userID, err)
	}
	return best, nil
}

// TopScores groups the ledger by user, keeps each user's maximum and returns
// the first limit rows ordered by best score desc, then user id asc.
// Users that no longer exist are reported as models.UnknownUsername.
func (s *ScoreStore) TopScores(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	q := `
		SELECT b.user_id, u.username, b.best_score
		FROM (
			SELECT user_id, MAX(points) AS best_score
			FROM scores
			GROUP BY user_id
		) b
		LEFT JOIN users u ON u.id = b.user_id
		ORDER BY b.best_score DESC, b.user_id ASC
		LIMIT $1
	`
	rows, err := s.db.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]models.LeaderboardEntry, 0, limit)
	for rows.Next() {
		var e models.LeaderboardEntry
		var username *string
		if err := rows.Scan(&e.UserID, &username, &e.BestScore); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		e.Username = models.UnknownUsername
		if username != nil && *username != "" {
			e.Username = *username
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leaderboard rows: %w", err)
	}
	return entries, nil
}
