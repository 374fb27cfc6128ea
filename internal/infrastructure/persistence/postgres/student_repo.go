package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mathclass/rating-hub/internal/domain/rating"
	"github.com/mathclass/rating-hub/internal/domain/shared"
	"github.com/mathclass/rating-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StudentRepository implements student.Repository for PostgreSQL.
type StudentRepository struct {
	conn *Connection
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(conn *Connection) *StudentRepository {
	return &StudentRepository{conn: conn}
}

var _ student.Repository = (*StudentRepository)(nil)

// selectStudents returns students with their awarded achievement ids,
// strongest badge first.
const selectStudents = `
	SELECT
		s.id, s.name, s.avatar,
		s.homework_score, s.activity_score, s.answers_score,
		s.total_rating, s.level,
		COALESCE(
			ARRAY_AGG(a.id ORDER BY a.points DESC, a.id) FILTER (WHERE a.id IS NOT NULL),
			'{}'
		) AS achievements
	FROM students s
	LEFT JOIN student_achievements sa ON sa.student_id = s.id
	LEFT JOIN achievements a ON a.id = sa.achievement_id
`

// ListByRating returns all students, highest total rating first.
func (r *StudentRepository) ListByRating(ctx context.Context) ([]student.Student, error) {
	query := selectStudents + `
		GROUP BY s.id
		ORDER BY s.total_rating DESC, s.id ASC
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	var out []student.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}

	return out, rows.Err()
}

// GetByID returns a student or shared.ErrStudentNotFound.
func (r *StudentRepository) GetByID(ctx context.Context, id int) (student.Student, error) {
	query := selectStudents + `
		WHERE s.id = $1
		GROUP BY s.id
	`

	s, err := scanStudent(r.conn.QueryRow(ctx, query, id))
	if IsNoRows(err) {
		return student.Student{}, shared.ErrStudentNotFound
	}
	return s, err
}

// UpdateScores writes the score triple and awards achievements in one transaction.
// award receives the updated student and whether nobody now has a higher total rating.
// Returns the ids that were newly awarded.
func (r *StudentRepository) UpdateScores(
	ctx context.Context,
	id int,
	scores rating.Scores,
	award student.AwardFunc,
) ([]string, error) {
	if err := (student.Student{ID: id, Scores: scores}).Validate(); err != nil {
		return nil, err
	}

	var awarded []string
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE students
			SET homework_score = $1, activity_score = $2, answers_score = $3, updated_at = NOW()
			WHERE id = $4
		`, scores.Homework.Int(), scores.Activity.Int(), scores.Answers.Int(), id)
		if err != nil {
			return fmt.Errorf("failed to update scores: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrStudentNotFound
		}

		if award == nil {
			return nil
		}

		s, err := scanStudent(tx.QueryRow(ctx, selectStudents+`
			WHERE s.id = $1
			GROUP BY s.id
		`, id))
		if err != nil {
			return fmt.Errorf("failed to reload student: %w", err)
		}

		var higher int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM students WHERE total_rating > $1`, s.TotalRating(),
		).Scan(&higher); err != nil {
			return fmt.Errorf("failed to check leadership: %w", err)
		}

		for _, achievementID := range award(s, higher == 0) {
			tag, err := tx.Exec(ctx, `
				INSERT INTO student_achievements (student_id, achievement_id)
				VALUES ($1, $2)
				ON CONFLICT (student_id, achievement_id) DO NOTHING
			`, id, achievementID)
			if err != nil {
				if IsForeignKeyViolation(err) {
					return shared.WrapError("achievement", "Award", shared.ErrNotFound,
						"unknown achievement "+achievementID, err)
				}
				return fmt.Errorf("failed to award %s: %w", achievementID, err)
			}
			if tag.RowsAffected() > 0 {
				awarded = append(awarded, achievementID)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return awarded, nil
}

// scanStudent reads one row of selectStudents.
func scanStudent(row pgx.Row) (student.Student, error) {
	var (
		s                           student.Student
		homework, activity, answers int
		total                       int
	)
	err := row.Scan(
		&s.ID, &s.Name, &s.Avatar,
		&homework, &activity, &answers,
		&total, &s.Level,
		&s.Achievements,
	)
	if err != nil {
		if IsNoRows(err) {
			return student.Student{}, err
		}
		return student.Student{}, fmt.Errorf("failed to scan student: %w", err)
	}

	s.Scores = rating.Scores{
		Homework: rating.Score(homework),
		Activity: rating.Score(activity),
		Answers:  rating.Score(answers),
	}
	s.ReportedRating = &total
	return s, nil
}
