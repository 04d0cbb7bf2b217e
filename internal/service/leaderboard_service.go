package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/classquest-api/internal/models"
)

const (
	leaderboardCacheKey      = "leaderboard:top"
	leaderboardGenerationKey = "leaderboard:gen"
)

// Snapshots live under a generation-scoped key. Invalidate bumps the
// generation, so a snapshot read from the database before the bump is
// written under a key nobody reads anymore.
func leaderboardKey(gen int64) string {
	return fmt.Sprintf("%s:%d", leaderboardCacheKey, gen)
}

type leaderboardRepository interface {
	TopStudents(ctx context.Context, limit int) ([]models.User, error)
}

// LeaderboardService serves the top students by credits.
type LeaderboardService struct {
	repo    leaderboardRepository
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	ttl     time.Duration
}

// NewLeaderboardService constructs the service. A nil cache reads straight from the database.
func NewLeaderboardService(repo leaderboardRepository, cache *CacheService, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *LeaderboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaderboardService{repo: repo, cache: cache, metrics: metrics, logger: logger, ttl: ttl}
}

// Top returns at most LeaderboardSize entries ordered by credits.
func (s *LeaderboardService) Top(ctx context.Context) ([]models.LeaderboardEntry, error) {
	entries, _, err := s.Snapshot(ctx)
	return entries, err
}

// Snapshot is Top plus whether the entries came from the cache.
func (s *LeaderboardService) Snapshot(ctx context.Context) ([]models.LeaderboardEntry, bool, error) {
	gen, cacheable := s.generation(ctx)
	key := leaderboardKey(gen)
	if cacheable {
		var cached []models.LeaderboardEntry
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, true, nil
		}
	}

	start := time.Now()
	users, err := s.repo.TopStudents(ctx, models.LeaderboardSize)
	s.metrics.ObserveDBQuery("leaderboard_top", time.Since(start))
	if err != nil {
		return nil, false, internalError(err, "failed to load leaderboard")
	}

	entries := BuildLeaderboard(users)
	if cacheable {
		_ = s.cache.Set(ctx, key, entries, s.ttl)
	}
	return entries, false, nil
}

// generation reports the current snapshot generation. A failed read disables
// caching for the call.
func (s *LeaderboardService) generation(ctx context.Context) (int64, bool) {
	var gen int64
	if _, err := s.cache.Get(ctx, leaderboardGenerationKey, &gen); err != nil {
		return 0, false
	}
	return gen, true
}

// Invalidate drops the cached snapshot. Failures are logged and otherwise ignored.
func (s *LeaderboardService) Invalidate(ctx context.Context) {
	if s == nil {
		return
	}
	gen, err := s.cache.Bump(ctx, leaderboardGenerationKey)
	if err != nil {
		s.logger.Warn("leaderboard cache invalidation failed", zap.Error(err))
		return
	}
	if gen > 0 {
		_ = s.cache.Invalidate(ctx, leaderboardKey(gen-1))
	}
}

// BuildLeaderboard converts ranked users into entries with display fallbacks applied.
func BuildLeaderboard(users []models.User) []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0, len(users))
	for i, user := range users {
		if i >= models.LeaderboardSize {
			break
		}
		entry := models.LeaderboardEntry{
			Position:       i + 1,
			StudentID:      user.ID,
			Name:           user.Name,
			Credits:        user.Credits,
			TestsCompleted: user.TotalTestsCompleted,
			Badge:          user.Rank,
		}
		if entry.Name == "" {
			entry.Name = "Anonymous"
		}
		if entry.Credits < 0 {
			entry.Credits = 0
		}
		if entry.Badge == "" {
			entry.Badge = RankBananaSprout
		}
		entries = append(entries, entry)
	}
	return entries
}
