// Package query contains the rating API's read operations.
// Both payloads are served cache-aside when a cache is configured.
package query

import (
	"context"
	"fmt"

	"github.com/mathclass/rating-hub/internal/domain/achievement"
	"github.com/mathclass/rating-hub/internal/domain/student"
	"github.com/mathclass/rating-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST STUDENTS
// ══════════════════════════════════════════════════════════════════════════════

// ListStudentsHandler returns the roster ordered by total rating.
type ListStudentsHandler struct {
	repo   student.Repository
	cache  student.Cache
	logger *logger.Logger
}

// NewListStudentsHandler creates a handler. cache may be nil.
func NewListStudentsHandler(repo student.Repository, cache student.Cache, log *logger.Logger) *ListStudentsHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ListStudentsHandler{repo: repo, cache: cache, logger: log.With(logger.Component("list_students"))}
}

// Handle executes the query.
func (h *ListStudentsHandler) Handle(ctx context.Context) ([]student.Student, error) {
	if h.cache != nil {
		if cached, err := h.cache.GetStudents(ctx); err == nil {
			h.logger.Debug("students listed", logger.Bool("cache_hit", true), logger.Int("count", len(cached)))
			return cached, nil
		}
	}

	students, err := h.repo.ListByRating(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_students: %w", err)
	}

	// A score update committed after the read above can be overwritten here
	// with the older roster; the entry then lives until its TTL.
	if h.cache != nil {
		if err := h.cache.SetStudents(ctx, students); err != nil {
			h.logger.Warn("failed to cache students", logger.Operation("cache_set"), logger.Err(err))
		}
	}
	h.logger.Debug("students listed", logger.Bool("cache_hit", false), logger.Int("count", len(students)))
	return students, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIST ACHIEVEMENTS
// ══════════════════════════════════════════════════════════════════════════════

// ListAchievementsHandler returns the catalog ordered by points.
type ListAchievementsHandler struct {
	repo   achievement.Repository
	cache  achievement.Cache
	logger *logger.Logger
}

// NewListAchievementsHandler creates a handler. cache may be nil.
func NewListAchievementsHandler(repo achievement.Repository, cache achievement.Cache, log *logger.Logger) *ListAchievementsHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &ListAchievementsHandler{repo: repo, cache: cache, logger: log.With(logger.Component("list_achievements"))}
}

// Handle executes the query.
func (h *ListAchievementsHandler) Handle(ctx context.Context) ([]achievement.Achievement, error) {
	if h.cache != nil {
		if cached, err := h.cache.GetAchievements(ctx); err == nil {
			h.logger.Debug("achievements listed", logger.Bool("cache_hit", true), logger.Int("count", len(cached)))
			return cached, nil
		}
	}

	items, err := h.repo.ListByPoints(ctx)
	if err != nil {
		return nil, fmt.Errorf("list_achievements: %w", err)
	}

	if h.cache != nil {
		if err := h.cache.SetAchievements(ctx, items); err != nil {
			h.logger.Warn("failed to cache achievements", logger.Operation("cache_set"), logger.Err(err))
		}
	}
	h.logger.Debug("achievements listed", logger.Bool("cache_hit", false), logger.Int("count", len(items)))
	return items, nil
}
