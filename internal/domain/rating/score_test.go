package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathclass/rating-hub/internal/domain/shared"
)

func TestClamp_StaysInRange(t *testing.T) {
	deltas := []int{-1000, -101, -100, -5, -1, 0, 1, 5, 100, 101, 1000}
	for current := MinScore; current <= MaxScore; current++ {
		for _, delta := range deltas {
			got := Clamp(current, delta)
			assert.True(t, got.IsValid(), "Clamp(%d, %d) = %d", current, delta, got)

			if sum := int(current) + delta; sum >= 0 && sum <= 100 {
				assert.Equal(t, Score(sum), got)
			}
		}
	}
}

func TestClamp_Edges(t *testing.T) {
	assert.Equal(t, Score(100), Clamp(98, 5))
	assert.Equal(t, Score(0), Clamp(3, -5))
	assert.Equal(t, Score(90), Clamp(85, DefaultStep))
}

func TestTotalRating(t *testing.T) {
	tests := []struct {
		name   string
		scores Scores
		want   int
	}{
		{"rounds down", Scores{Homework: 85, Activity: 78, Answers: 92}, 85},
		{"rounds up", Scores{Homework: 88, Activity: 82, Answers: 90}, 87},
		{"exact", Scores{Homework: 90, Activity: 90, Answers: 90}, 90},
		{"zero", Scores{}, 0},
		{"max", Scores{Homework: 100, Activity: 100, Answers: 100}, 100},
		{"two thirds up", Scores{Homework: 1, Activity: 1, Answers: 0}, 1},
		{"one third down", Scores{Homework: 1, Activity: 0, Answers: 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TotalRating(tt.scores))
		})
	}
}

func TestScores_Apply(t *testing.T) {
	s := Scores{Homework: 85, Activity: 78, Answers: 92}

	got := s.Apply(CategoryAnswers, 20)
	assert.Equal(t, Score(100), got.Answers)
	assert.Equal(t, Score(85), got.Homework)
	assert.Equal(t, Score(78), got.Activity)
	assert.Equal(t, Score(92), s.Answers, "receiver must not change")

	got = s.Apply(CategoryActivity, -5)
	assert.Equal(t, Score(73), got.Activity)
}

func TestParseCategory(t *testing.T) {
	for in, want := range map[string]Category{
		"homework":        CategoryHomework,
		"Activity":        CategoryActivity,
		"answers_score":   CategoryAnswers,
		" homework_score": CategoryHomework,
	} {
		got, err := ParseCategory(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseCategory("attendance")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestMedal(t *testing.T) {
	assert.Equal(t, "🥇", Medal(1))
	assert.Equal(t, "🥈", Medal(2))
	assert.Equal(t, "🥉", Medal(3))
	assert.Equal(t, "🎯", Medal(4))
	assert.Equal(t, "🎯", Medal(0))
}
