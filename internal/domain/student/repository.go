package student

import (
	"context"

	"github.com/mathclass/rating-hub/internal/domain/rating"
)

// AwardFunc решает, какие достижения выдать ученику после изменения оценок.
// isLeader=true, если ни у кого в классе нет более высокого рейтинга.
type AwardFunc func(s Student, isLeader bool) []string

// Repository - хранилище учеников на стороне rating API.
// Реализация: infrastructure/persistence/postgres.
type Repository interface {
	// ListByRating возвращает всех учеников, по убыванию total_rating.
	ListByRating(ctx context.Context) ([]Student, error)

	// GetByID возвращает ученика или shared.ErrStudentNotFound.
	GetByID(ctx context.Context, id int) (Student, error)

	// UpdateScores атомарно записывает тройку оценок и выдаёт достижения,
	// которые вернул award. Возвращает id реально выданных (новых) достижений.
	UpdateScores(ctx context.Context, id int, scores rating.Scores, award AwardFunc) ([]string, error)
}

// Cache - кеш готовых ответов rating API.
// Реализация: infrastructure/persistence/redis.
type Cache interface {
	GetStudents(ctx context.Context) ([]Student, error)
	SetStudents(ctx context.Context, students []Student) error
	Invalidate(ctx context.Context) error
}

// ScoreUpdate - полная тройка оценок, отправляемая на удалённый endpoint.
// Сервер перезаписывает все три значения, поэтому частичных обновлений нет.
type ScoreUpdate struct {
	StudentID int
	Scores    rating.Scores
}
