package service

import (
	"context"
	"strconv"
	"time"

	"github.com/jason-s-yu/bubugame/internal/models"
)

const leaderboardQueryTimeout = 10 * time.Second

// ClampLimit maps a requested row count into [1, MaxLeaderboardLimit];
// non-positive values fall back to DefaultLeaderboardLimit.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLeaderboardLimit
	case limit > MaxLeaderboardLimit:
		return MaxLeaderboardLimit
	}
	return limit
}

// TopScores returns the leaderboard. It never fails: aggregation errors are
// logged and yield an empty board. Concurrent cache misses share one query.
func (s *Service) TopScores(ctx context.Context, limit int) []models.LeaderboardEntry {
	limit = ClampLimit(limit)
	if !s.Available() {
		return []models.LeaderboardEntry{}
	}

	rows, ok, err := s.cache.GetLeaderboard(ctx, limit)
	if err != nil {
		s.logger.WithError(err).Warn("leaderboard cache read failed")
	}
	if ok {
		return rows
	}

	// detached from the caller so waiters survive its cancellation
	ch := s.group.DoChan(strconv.Itoa(limit), func() (interface{}, error) {
		qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), leaderboardQueryTimeout)
		defer cancel()

		rows, err := s.scores.TopScores(qctx, limit)
		if err != nil {
			return nil, err
		}
		if s.leaderboardTTL > 0 {
			if err := s.cache.SetLeaderboard(qctx, limit, rows, s.leaderboardTTL); err != nil {
				s.logger.WithError(err).Warn("leaderboard cache write failed")
			}
		}
		return rows, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			s.logger.WithError(res.Err).WithField("limit", limit).Warn("leaderboard aggregation failed")
			return []models.LeaderboardEntry{}
		}
		return res.Val.([]models.LeaderboardEntry)
	case <-ctx.Done():
		return []models.LeaderboardEntry{}
	}
}

// LeaderboardFeed sends a snapshot immediately, then again after every
// published score event and on every tick of interval. The channel is closed
// when ctx is done. Snapshots are dropped while the reader is busy.
func (s *Service) LeaderboardFeed(ctx context.Context, limit int, interval time.Duration) <-chan []models.LeaderboardEntry {
	out := make(chan []models.LeaderboardEntry, 1)

	events, err := s.cache.SubscribeScores(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("live leaderboard falling back to polling")
		events = nil
	}

	go func() {
		defer close(out)

		var tick <-chan time.Time
		if interval > 0 {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		push := func() {
			rows := s.TopScores(ctx, limit)
			select {
			case out <- rows:
			default:
			}
		}

		push()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				push()
			case <-tick:
				push()
			}
		}
	}()
	return out
}
