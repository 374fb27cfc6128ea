package postgres

import (
	"context"
	"fmt"

	"github.com/mathclass/rating-hub/internal/domain/achievement"
)

// AchievementRepository implements achievement.Repository for PostgreSQL.
type AchievementRepository struct {
	conn *Connection
}

// NewAchievementRepository creates a new AchievementRepository.
func NewAchievementRepository(conn *Connection) *AchievementRepository {
	return &AchievementRepository{conn: conn}
}

var _ achievement.Repository = (*AchievementRepository)(nil)

// ListByPoints returns the catalog, most valuable first.
func (r *AchievementRepository) ListByPoints(ctx context.Context) ([]achievement.Achievement, error) {
	query := `
		SELECT id, title, icon, description, points, color
		FROM achievements
		ORDER BY points DESC, id ASC
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	defer rows.Close()

	var out []achievement.Achievement
	for rows.Next() {
		var a achievement.Achievement
		if err := rows.Scan(&a.ID, &a.Title, &a.Icon, &a.Description, &a.Points, &a.Color); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		out = append(out, a)
	}

	return out, rows.Err()
}
