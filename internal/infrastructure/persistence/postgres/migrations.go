package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATOR
// ══════════════════════════════════════════════════════════════════════════════

// Migration represents a database migration.
type Migration struct {
	Version   int
	Name      string
	UpSQL     string
	DownSQL   string
	AppliedAt time.Time
	IsApplied bool
}

// Migrator applies the embedded migrations and records them in schema_migrations.
type Migrator struct {
	conn       *Connection
	migrations []Migration
	tableName  string
}

// NewMigrator creates a migrator with the embedded migrations.
func NewMigrator(conn *Connection) *Migrator {
	return &Migrator{
		conn:       conn,
		migrations: GetMigrations(),
		tableName:  "schema_migrations",
	}
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)
	`, m.tableName)

	if _, err := m.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

func (m *Migrator) applied(ctx context.Context) (map[int]time.Time, error) {
	query := fmt.Sprintf("SELECT version, applied_at FROM %s ORDER BY version", m.tableName)

	rows, err := m.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var appliedAt time.Time
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[version] = appliedAt
	}

	return applied, rows.Err()
}

// Migrate applies all pending migrations, each in its own transaction.
func (m *Migrator) Migrate(ctx context.Context) (int, error) {
	if err := m.ensureTable(ctx); err != nil {
		return 0, err
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, mig := range m.migrations {
		if _, ok := applied[mig.Version]; ok {
			continue
		}

		err := m.conn.WithTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
				return fmt.Errorf("failed to execute migration %d: %w", mig.Version, err)
			}
			insert := fmt.Sprintf("INSERT INTO %s (version, name) VALUES ($1, $2)", m.tableName)
			_, err := tx.Exec(ctx, insert, mig.Version, mig.Name)
			return err
		})
		if err != nil {
			return count, fmt.Errorf("%w: version %d: %v", ErrMigrationFailed, mig.Version, err)
		}
		count++
	}

	return count, nil
}

// Rollback reverts the last applied migration.
func (m *Migrator) Rollback(ctx context.Context) error {
	if err := m.ensureTable(ctx); err != nil {
		return err
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}

	var last int
	for v := range applied {
		if v > last {
			last = v
		}
	}
	if last == 0 {
		return nil
	}

	var mig *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == last {
			mig = &m.migrations[i]
			break
		}
	}
	if mig == nil || mig.DownSQL == "" {
		return fmt.Errorf("%w: missing down SQL for migration %d", ErrMigrationFailed, last)
	}

	return m.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, mig.DownSQL); err != nil {
			return fmt.Errorf("failed to rollback migration %d: %w", last, err)
		}
		_, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE version = $1", m.tableName), last)
		return err
	})
}

// Status lists every embedded migration with its applied state.
func (m *Migrator) Status(ctx context.Context) ([]Migration, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]Migration, len(m.migrations))
	copy(result, m.migrations)
	for i := range result {
		if at, ok := applied[result[i].Version]; ok {
			result[i].IsApplied = true
			result[i].AppliedAt = at
		}
	}
	return result, nil
}

// GetMigrations returns all embedded migrations in version order.
func GetMigrations() []Migration {
	return []Migration{
		{Version: 1, Name: "create_rating_schema", UpSQL: migration001Up, DownSQL: migration001Down},
		{Version: 2, Name: "seed_achievements", UpSQL: migration002Up, DownSQL: migration002Down},
		{Version: 3, Name: "seed_students", UpSQL: migration003Up, DownSQL: migration003Down},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: SCHEMA
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
CREATE TABLE IF NOT EXISTS students (
    id SERIAL PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    avatar VARCHAR(16) NOT NULL DEFAULT '',
    homework_score INTEGER NOT NULL DEFAULT 0,
    activity_score INTEGER NOT NULL DEFAULT 0,
    answers_score INTEGER NOT NULL DEFAULT 0,
    total_rating INTEGER GENERATED ALWAYS AS (
        ROUND((homework_score + activity_score + answers_score) / 3.0)::INTEGER
    ) STORED,
    level INTEGER NOT NULL DEFAULT 1,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_homework CHECK (homework_score BETWEEN 0 AND 100),
    CONSTRAINT valid_activity CHECK (activity_score BETWEEN 0 AND 100),
    CONSTRAINT valid_answers CHECK (answers_score BETWEEN 0 AND 100)
);

CREATE INDEX IF NOT EXISTS idx_students_total_rating ON students(total_rating DESC);

CREATE TABLE IF NOT EXISTS achievements (
    id VARCHAR(50) PRIMARY KEY,
    title VARCHAR(100) NOT NULL,
    icon VARCHAR(16) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    points INTEGER NOT NULL DEFAULT 0,
    color VARCHAR(50) NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS student_achievements (
    student_id INTEGER NOT NULL REFERENCES students(id) ON DELETE CASCADE,
    achievement_id VARCHAR(50) NOT NULL REFERENCES achievements(id) ON DELETE CASCADE,
    awarded_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    PRIMARY KEY (student_id, achievement_id)
);
`

const migration001Down = `
DROP TABLE IF EXISTS student_achievements;
DROP TABLE IF EXISTS achievements;
DROP TABLE IF EXISTS students;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: ACHIEVEMENT CATALOG
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
INSERT INTO achievements (id, title, icon, description, points, color) VALUES
    ('first-place', 'Первое место', '🏆', 'Лучший результат в группе', 100, 'bg-game-orange'),
    ('homework-master', 'Мастер ДЗ', '📚', 'Выполнил 10 домашних заданий подряд', 50, 'bg-game-turquoise'),
    ('active-student', 'Активист', '🙋‍♀️', 'Самый активный на уроках', 75, 'bg-game-purple'),
    ('rising-star', 'Восходящая звезда', '⭐', 'Лучший прогресс за месяц', 60, 'bg-game-yellow'),
    ('math-genius', 'Гений математики', '🧠', 'Ответы на уроке на 95 и выше', 80, 'bg-game-purple'),
    ('perfect-homework', 'Идеальное ДЗ', '💯', 'Домашние задания на 100', 90, 'bg-game-turquoise')
ON CONFLICT (id) DO NOTHING;
`

const migration002Down = `
DELETE FROM achievements WHERE id IN (
    'first-place', 'homework-master', 'active-student',
    'rising-star', 'math-genius', 'perfect-homework'
);
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: DEMO CLASS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
INSERT INTO students (id, name, avatar, homework_score, activity_score, answers_score, level) VALUES
    (1, 'Илья', '👨‍🎓', 85, 78, 92, 5),
    (2, 'Даша', '👩‍🎓', 92, 88, 85, 6),
    (3, 'Вика', '👧', 76, 95, 80, 4),
    (4, 'Настя', '👩', 88, 82, 90, 5)
ON CONFLICT (id) DO NOTHING;

SELECT setval(pg_get_serial_sequence('students', 'id'), GREATEST((SELECT MAX(id) FROM students), 1));

INSERT INTO student_achievements (student_id, achievement_id) VALUES
    (1, 'first-place'),
    (1, 'homework-master'),
    (2, 'homework-master'),
    (2, 'active-student'),
    (3, 'active-student'),
    (4, 'rising-star')
ON CONFLICT DO NOTHING;
`

const migration003Down = `
DELETE FROM student_achievements WHERE student_id IN (1, 2, 3, 4);
DELETE FROM students WHERE id IN (1, 2, 3, 4);
`
