package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jason-s-yu/bubugame/internal/common"
	"github.com/jason-s-yu/bubugame/internal/models"
)

// uniqueViolation is the Postgres SQLSTATE for a unique index conflict.
const uniqueViolation = "23505"

// UserStore is the credential store and progress tracker over the users table.
type UserStore struct {
	q Queryable
}

func NewUserStore(db *DB) *UserStore {
	return &UserStore{q: db.Pool}
}

// CreateUser inserts a user whose Password already holds the encoded hash.
// Uniqueness is left to users_username_key; a conflict comes back as
// common.ErrUsernameTaken.
func (s *UserStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		id, err := uuid.NewRandom()
		if err != nil {
			return fmt.Errorf("failed to generate user id: %w", err)
		}
		user.ID = id
	}

	q := `
		INSERT INTO users (id, username, email, password)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, current_score, current_level
	`
	err := s.q.QueryRow(ctx, q, user.ID, user.Username, user.Email, user.Password).
		Scan(&user.CreatedAt, &user.CurrentScore, &user.CurrentLevel)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrUsernameTaken
		}
		return fmt.Errorf("failed to insert user %q: %w", user.Username, err)
	}
	return nil
}

const selectUser = `
	SELECT id, username, email, password, created_at,
	       current_score, current_level, progress_updated_at
	FROM users
`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.Password, &u.CreatedAt,
		&u.CurrentScore, &u.CurrentLevel, &u.ProgressUpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByUsername returns common.ErrNotFound when no user has that name.
func (s *UserStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(s.q.QueryRow(ctx, selectUser+` WHERE username = $1`, username))
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return u, err
}

// GetUserByID returns common.ErrNotFound when the id does not exist.
func (s *UserStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(s.q.QueryRow(ctx, selectUser+` WHERE id = $1`, id))
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to get user %v: %w", id, err)
	}
	return u, err
}

// SaveProgress overwrites the progress snapshot. Values are stored as given;
// coercion happens in the service.
func (s *UserStore) SaveProgress(ctx context.Context, id uuid.UUID, score, level int) error {
	q := `
		UPDATE users
		SET current_score = $1, current_level = $2, progress_updated_at = NOW()
		WHERE id = $3
	`
	ct, err := s.q.Exec(ctx, q, score, level, id)
	if err != nil {
		return fmt.Errorf("failed to save progress for user %v: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return common.ErrInvalidIdentity
	}
	return nil
}

// PurgeMalformedUsers deletes users without a usable username.
func (s *UserStore) PurgeMalformedUsers(ctx context.Context) (int64, error) {
	ct, err := s.q.Exec(ctx, `DELETE FROM users WHERE username IS NULL OR btrim(username) = ''`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge malformed users: %w", err)
	}
	return ct.RowsAffected(), nil
}
