// Package command contains the rating API's write operations.
package command

import (
	"context"
	"fmt"

	"github.com/mathclass/rating-hub/internal/domain/achievement"
	"github.com/mathclass/rating-hub/internal/domain/rating"
	"github.com/mathclass/rating-hub/internal/domain/shared"
	"github.com/mathclass/rating-hub/internal/domain/student"
	"github.com/mathclass/rating-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE SCORES COMMAND
// Overwrites a student's score triple and awards the badges it qualifies for.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateScoresCommand carries the full triple; partial updates do not exist.
type UpdateScoresCommand struct {
	StudentID int
	Scores    rating.Scores
}

// Validate validates the command.
func (c UpdateScoresCommand) Validate() error {
	return student.Student{ID: c.StudentID, Scores: c.Scores}.Validate()
}

// UpdateScoresResult reports the badges granted by this update.
type UpdateScoresResult struct {
	StudentID int
	Awarded   []string
}

// UpdateScoresHandler handles the UpdateScoresCommand.
type UpdateScoresHandler struct {
	repo   student.Repository
	cache  student.Cache
	bus    shared.EventPublisher
	logger *logger.Logger
}

// NewUpdateScoresHandler creates a handler. cache and bus may be nil.
func NewUpdateScoresHandler(
	repo student.Repository,
	cache student.Cache,
	bus shared.EventPublisher,
	log *logger.Logger,
) *UpdateScoresHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &UpdateScoresHandler{
		repo:   repo,
		cache:  cache,
		bus:    bus,
		logger: log.With(logger.Component("update_scores")),
	}
}

// Handle writes the scores, awards achievements and drops the cached roster.
func (h *UpdateScoresHandler) Handle(ctx context.Context, cmd UpdateScoresCommand) (*UpdateScoresResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	awarded, err := h.repo.UpdateScores(ctx, cmd.StudentID, cmd.Scores, awardByRules)
	if err != nil {
		return nil, fmt.Errorf("update_scores: %w", err)
	}

	if h.cache != nil {
		if err := h.cache.Invalidate(ctx); err != nil {
			h.logger.Warn("failed to invalidate cache", logger.Operation("cache_invalidate"), logger.Err(err))
		}
	}

	log := h.logger.With(logger.StudentID(cmd.StudentID))
	log.Info("scores updated",
		logger.Int("homework", cmd.Scores.Homework.Int()),
		logger.Int("activity", cmd.Scores.Activity.Int()),
		logger.Int("answers", cmd.Scores.Answers.Int()),
	)

	if len(awarded) > 0 {
		log.Info("achievements awarded", logger.Any("achievements", awarded))
		if h.bus != nil {
			if err := h.bus.Publish(shared.NewAchievementAwardedEvent(cmd.StudentID, awarded)); err != nil {
				log.Warn("failed to publish event", logger.Err(err))
			}
		}
	}

	return &UpdateScoresResult{StudentID: cmd.StudentID, Awarded: awarded}, nil
}

func awardByRules(s student.Student, isLeader bool) []string {
	return achievement.Evaluate(s.Scores, isLeader)
}
