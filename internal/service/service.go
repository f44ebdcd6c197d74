// Package service holds the game's domain operations over the stores and cache.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bubugame/internal/auth"
	"github.com/jason-s-yu/bubugame/internal/cache"
	"github.com/jason-s-yu/bubugame/internal/common"
	"github.com/jason-s-yu/bubugame/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultLeaderboardLimit = 20
	MaxLeaderboardLimit     = 100
)

// Options configures a Service. Users and Scores left nil put the service in
// degraded mode: writes are not persisted and reads return defaults.
type Options struct {
	Users          UserRepository
	Scores         ScoreRepository
	DB             Pinger
	Cache          *cache.Cache
	Logger         *logrus.Logger
	HashParams     *auth.HashParams
	LeaderboardTTL time.Duration
}

// Service is the explicit application context shared by all handlers.
type Service struct {
	users          UserRepository
	scores         ScoreRepository
	db             Pinger
	cache          *cache.Cache
	logger         *logrus.Logger
	hashParams     *auth.HashParams
	leaderboardTTL time.Duration
	group          singleflight.Group
	now            func() time.Time
}

func New(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
	}
	return &Service{
		users:          opts.Users,
		scores:         opts.Scores,
		db:             opts.DB,
		cache:          opts.Cache,
		logger:         logger,
		hashParams:     opts.HashParams,
		leaderboardTTL: opts.LeaderboardTTL,
		now:            time.Now,
	}
}

// Available reports whether persistence is wired.
func (s *Service) Available() bool {
	return s.users != nil && s.scores != nil
}

// Ping reports whether the database answers right now.
func (s *Service) Ping(ctx context.Context) bool {
	if !s.Available() || s.db == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		s.logger.WithError(err).Warn("database ping failed")
		return false
	}
	return true
}

// ParseIdentity turns a session subject into a user id.
func ParseIdentity(identity string) (uuid.UUID, error) {
	id, err := uuid.Parse(identity)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, common.ErrInvalidIdentity
	}
	return id, nil
}

// Register creates a user with a hashed password. The username is stored trimmed.
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return nil, common.ErrInvalidInput
	}
	if !s.Available() {
		return nil, common.ErrStoreUnavailable
	}

	hash, err := auth.CreateHash(password, s.hashParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: username,
		Email:    strings.TrimSpace(email),
		Password: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("user registered")
	return user, nil
}

// Authenticate checks credentials. Unknown users and wrong passwords both
// yield common.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	if !s.Available() {
		return nil, common.ErrStoreUnavailable
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, common.ErrInvalidCredentials
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := auth.ComparePasswordAndHash(password, user.Password)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("stored password hash is unreadable")
		return nil, common.ErrInvalidCredentials
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}
	return user, nil
}

// RecordIfBest appends points to the identity's ledger when they beat the
// current best. Negative points are treated as 0.
func (s *Service) RecordIfBest(ctx context.Context, identity string, points int) (models.ScoreResult, error) {
	if points < 0 {
		points = 0
	}
	result := models.ScoreResult{Points: points}

	userID, err := ParseIdentity(identity)
	if err != nil {
		return result, err
	}
	if !s.Available() {
		return result, nil
	}

	saved, err := s.scores.RecordIfBest(ctx, userID, points)
	if err != nil {
		return result, err
	}
	result.Saved = saved
	if saved {
		s.afterScoreSaved(ctx, userID, points)
	}
	return result, nil
}

func (s *Service) afterScoreSaved(ctx context.Context, userID uuid.UUID, points int) {
	log := s.logger.WithFields(logrus.Fields{"user_id": userID, "points": points})
	if err := s.cache.InvalidateLeaderboard(ctx); err != nil {
		log.WithError(err).Warn("failed to invalidate leaderboard cache")
	}
	ev := models.ScoreEvent{UserID: userID, Points: points, At: s.now().UnixMilli()}
	if err := s.cache.PublishScore(ctx, ev); err != nil {
		log.WithError(err).Warn("failed to publish score event")
	}
	log.Debug("new best score recorded")
}

// SaveProgress overwrites the identity's current score and level. Score is
// clamped to >= 0 and level to >= 1.
func (s *Service) SaveProgress(ctx context.Context, identity string, score, level int) (bool, error) {
	if score < 0 {
		score = 0
	}
	if level < 1 {
		level = 1
	}

	userID, err := ParseIdentity(identity)
	if err != nil {
		return false, err
	}
	if !s.Available() {
		return false, nil
	}

	if err := s.users.SaveProgress(ctx, userID, score, level); err != nil {
		return false, err
	}
	return true, nil
}

// Profile gathers what the index page shows. Store trouble other than a
// missing user degrades to defaults.
func (s *Service) Profile(ctx context.Context, identity auth.Identity) (models.Profile, error) {
	profile := models.Profile{Username: identity.Username, CurrentLevel: 1}

	userID, err := ParseIdentity(identity.Subject)
	if err != nil {
		return profile, err
	}
	if !s.Available() {
		return profile, nil
	}

	log := s.logger.WithField("user_id", userID)
	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, common.ErrNotFound) {
		return profile, common.ErrInvalidIdentity
	}
	if err != nil {
		log.WithError(err).Warn("failed to load user for profile")
		return profile, nil
	}
	profile.Username = user.Username
	profile.CurrentScore = user.CurrentScore
	profile.CurrentLevel = user.CurrentLevel

	best, err := s.scores.BestScore(ctx, userID)
	if err != nil {
		log.WithError(err).Warn("failed to load best score for profile")
		return profile, nil
	}
	profile.BestScore = best
	return profile, nil
}
