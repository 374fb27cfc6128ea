// Package rating holds the score value type and the rating arithmetic.
// Everything here is pure: no I/O, no clocks, no shared state.
package rating

import (
	"math"
	"strings"

	"github.com/mathclass/rating-hub/internal/domain/shared"
)

// Score is one of the three student performance dimensions.
type Score int

const (
	MinScore Score = 0
	MaxScore Score = 100

	// DefaultStep is the delta the +/- controls send.
	DefaultStep = 5
)

// IsValid reports whether s is within [MinScore, MaxScore].
func (s Score) IsValid() bool {
	return s >= MinScore && s <= MaxScore
}

// Int returns the underlying int value.
func (s Score) Int() int {
	return int(s)
}

// Clamp applies a signed delta and pins the result to [0, 100].
func Clamp(current Score, delta int) Score {
	v := int(current) + delta
	if v < int(MinScore) {
		return MinScore
	}
	if v > int(MaxScore) {
		return MaxScore
	}
	return Score(v)
}

// Category names a score dimension.
type Category string

const (
	CategoryHomework Category = "homework"
	CategoryActivity Category = "activity"
	CategoryAnswers  Category = "answers"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryHomework, CategoryActivity, CategoryAnswers}

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	switch c {
	case CategoryHomework, CategoryActivity, CategoryAnswers:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (c Category) String() string {
	return string(c)
}

// ParseCategory accepts both the short names and the *_score wire names.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "_score"))
	if !c.IsValid() {
		return "", shared.ErrInvalidCategory
	}
	return c, nil
}

// Scores is the full triple a student is rated on.
type Scores struct {
	Homework Score
	Activity Score
	Answers  Score
}

// Get returns the score for a category. Unknown categories yield zero.
func (s Scores) Get(c Category) Score {
	switch c {
	case CategoryHomework:
		return s.Homework
	case CategoryActivity:
		return s.Activity
	case CategoryAnswers:
		return s.Answers
	default:
		return 0
	}
}

// With returns a copy of s with one category replaced.
func (s Scores) With(c Category, v Score) Scores {
	switch c {
	case CategoryHomework:
		s.Homework = v
	case CategoryActivity:
		s.Activity = v
	case CategoryAnswers:
		s.Answers = v
	}
	return s
}

// Apply returns a copy of s with delta clamped into one category.
func (s Scores) Apply(c Category, delta int) Scores {
	return s.With(c, Clamp(s.Get(c), delta))
}

// IsValid reports whether every component is within range.
func (s Scores) IsValid() bool {
	return s.Homework.IsValid() && s.Activity.IsValid() && s.Answers.IsValid()
}

// TotalRating is the rounded mean of the three scores.
func TotalRating(s Scores) int {
	sum := int(s.Homework) + int(s.Activity) + int(s.Answers)
	return int(math.Round(float64(sum) / 3))
}

// Medal returns the badge shown next to a 1-based leaderboard position.
func Medal(position int) string {
	switch position {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	default:
		return "🎯"
	}
}
