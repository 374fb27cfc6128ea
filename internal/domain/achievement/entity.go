// Package achievement holds badge definitions and the rules that award them.
package achievement

import (
	"context"

	"github.com/mathclass/rating-hub/internal/domain/rating"
)

// Well-known achievement ids.
const (
	FirstPlace      = "first-place"
	HomeworkMaster  = "homework-master"
	ActiveStudent   = "active-student"
	RisingStar      = "rising-star"
	MathGenius      = "math-genius"
	PerfectHomework = "perfect-homework"
)

// Achievement is an immutable badge definition.
type Achievement struct {
	ID          string
	Title       string
	Icon        string
	Description string
	Points      int
	Color       string
}

// Catalog is read-only reference data, looked up by id.
// The zero value is an empty catalog.
type Catalog struct {
	items []Achievement
	byID  map[string]int
}

// NewCatalog builds a catalog preserving load order. Later duplicates of an id are dropped.
func NewCatalog(items []Achievement) *Catalog {
	c := &Catalog{
		items: make([]Achievement, 0, len(items)),
		byID:  make(map[string]int, len(items)),
	}
	for _, a := range items {
		if _, dup := c.byID[a.ID]; dup {
			continue
		}
		c.byID[a.ID] = len(c.items)
		c.items = append(c.items, a)
	}
	return c
}

// ByID returns the achievement with the given id.
func (c *Catalog) ByID(id string) (Achievement, bool) {
	if c == nil {
		return Achievement{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return Achievement{}, false
	}
	return c.items[i], true
}

// Resolve maps ids to achievements in order. Unknown ids are skipped.
func (c *Catalog) Resolve(ids []string) []Achievement {
	out := make([]Achievement, 0, len(ids))
	for _, id := range ids {
		if a, ok := c.ByID(id); ok {
			out = append(out, a)
		}
	}
	return out
}

// All returns a copy of every achievement in load order.
func (c *Catalog) All() []Achievement {
	if c == nil {
		return nil
	}
	out := make([]Achievement, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of achievements.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// DefaultCatalog returns the built-in badge set.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Achievement{
		{ID: FirstPlace, Title: "Первое место", Icon: "🏆", Description: "Лучший результат в группе", Points: 100, Color: "bg-game-orange"},
		{ID: HomeworkMaster, Title: "Мастер ДЗ", Icon: "📚", Description: "Выполнил 10 домашних заданий подряд", Points: 50, Color: "bg-game-turquoise"},
		{ID: ActiveStudent, Title: "Активист", Icon: "🙋‍♀️", Description: "Самый активный на уроках", Points: 75, Color: "bg-game-purple"},
		{ID: RisingStar, Title: "Восходящая звезда", Icon: "⭐", Description: "Лучший прогресс за месяц", Points: 60, Color: "bg-game-yellow"},
		{ID: MathGenius, Title: "Гений математики", Icon: "🧠", Description: "Ответы на уроке на 95 и выше", Points: 80, Color: "bg-game-purple"},
		{ID: PerfectHomework, Title: "Идеальное ДЗ", Icon: "💯", Description: "Домашние задания на 100", Points: 90, Color: "bg-game-turquoise"},
	})
}

// Repository is the rating API's read side for badge definitions.
type Repository interface {
	// ListByPoints returns every achievement, highest points first.
	ListByPoints(ctx context.Context) ([]Achievement, error)
}

// Cache caches the achievements payload.
type Cache interface {
	GetAchievements(ctx context.Context) ([]Achievement, error)
	SetAchievements(ctx context.Context, items []Achievement) error
}

// Evaluate returns the badge ids a student qualifies for, in a fixed order.
// isLeader reports that no other student has a strictly higher total rating.
func Evaluate(s rating.Scores, isLeader bool) []string {
	var ids []string
	if s.Homework >= 90 {
		ids = append(ids, HomeworkMaster)
	}
	if s.Activity >= 90 {
		ids = append(ids, ActiveStudent)
	}
	if s.Answers >= 95 {
		ids = append(ids, MathGenius)
	}
	if s.Homework == rating.MaxScore {
		ids = append(ids, PerfectHomework)
	}
	if isLeader {
		ids = append(ids, FirstPlace)
	}
	if s.Homework >= 85 && s.Activity >= 85 && s.Answers >= 85 {
		ids = append(ids, RisingStar)
	}
	return ids
}
