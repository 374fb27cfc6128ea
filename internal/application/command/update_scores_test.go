package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathclass/rating-hub/internal/domain/achievement"
	"github.com/mathclass/rating-hub/internal/domain/rating"
	"github.com/mathclass/rating-hub/internal/domain/shared"
	"github.com/mathclass/rating-hub/internal/domain/student"
)

// fakeRepo keeps students in memory and mimics the ON CONFLICT insert.
type fakeRepo struct {
	students map[int]*student.Student
	err      error
}

func newFakeRepo(students ...student.Student) *fakeRepo {
	r := &fakeRepo{students: make(map[int]*student.Student)}
	for i := range students {
		s := students[i]
		r.students[s.ID] = &s
	}
	return r
}

func (r *fakeRepo) ListByRating(context.Context) ([]student.Student, error) { return nil, nil }

func (r *fakeRepo) GetByID(_ context.Context, id int) (student.Student, error) {
	s, ok := r.students[id]
	if !ok {
		return student.Student{}, shared.ErrStudentNotFound
	}
	return *s, nil
}

func (r *fakeRepo) UpdateScores(_ context.Context, id int, scores rating.Scores, award student.AwardFunc) ([]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	s, ok := r.students[id]
	if !ok {
		return nil, shared.ErrStudentNotFound
	}
	s.Scores = scores

	isLeader := true
	for _, other := range r.students {
		if other.TotalRating() > s.TotalRating() {
			isLeader = false
		}
	}

	var awarded []string
	for _, a := range award(*s, isLeader) {
		if !s.HasAchievement(a) {
			s.Achievements = append(s.Achievements, a)
			awarded = append(awarded, a)
		}
	}
	return awarded, nil
}

type fakeCache struct {
	invalidated int
}

func (c *fakeCache) GetStudents(context.Context) ([]student.Student, error) { return nil, errors.New("miss") }
func (c *fakeCache) SetStudents(context.Context, []student.Student) error  { return nil }
func (c *fakeCache) Invalidate(context.Context) error {
	c.invalidated++
	return nil
}

type recordingBus struct {
	events []shared.Event
}

func (b *recordingBus) Publish(e shared.Event) error {
	b.events = append(b.events, e)
	return nil
}

func class() []student.Student {
	return []student.Student{
		{ID: 1, Name: "Илья", Scores: rating.Scores{Homework: 85, Activity: 78, Answers: 92}, Achievements: []string{achievement.FirstPlace}},
		{ID: 2, Name: "Даша", Scores: rating.Scores{Homework: 92, Activity: 88, Answers: 85}, Achievements: []string{achievement.HomeworkMaster}},
	}
}

func TestUpdateScores_AwardsAndInvalidates(t *testing.T) {
	repo := newFakeRepo(class()...)
	cache := &fakeCache{}
	bus := &recordingBus{}
	h := NewUpdateScoresHandler(repo, cache, bus, nil)

	res, err := h.Handle(context.Background(), UpdateScoresCommand{
		StudentID: 1,
		Scores:    rating.Scores{Homework: 100, Activity: 90, Answers: 96},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		achievement.HomeworkMaster,
		achievement.ActiveStudent,
		achievement.MathGenius,
		achievement.PerfectHomework,
		achievement.RisingStar,
	}, res.Awarded)
	assert.Equal(t, 1, cache.invalidated)

	require.Len(t, bus.events, 1)
	assert.Equal(t, shared.EventAchievementAwarded, bus.events[0].EventType())
}

func TestUpdateScores_NothingNew(t *testing.T) {
	repo := newFakeRepo(class()...)
	bus := &recordingBus{}
	h := NewUpdateScoresHandler(repo, nil, bus, nil)

	res, err := h.Handle(context.Background(), UpdateScoresCommand{
		StudentID: 2,
		Scores:    rating.Scores{Homework: 50, Activity: 50, Answers: 50},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Awarded)
	assert.Empty(t, bus.events)
}

func TestUpdateScores_Validation(t *testing.T) {
	h := NewUpdateScoresHandler(newFakeRepo(class()...), nil, nil, nil)

	_, err := h.Handle(context.Background(), UpdateScoresCommand{StudentID: 0})
	assert.ErrorIs(t, err, shared.ErrInvalidID)

	_, err = h.Handle(context.Background(), UpdateScoresCommand{StudentID: 1, Scores: rating.Scores{Answers: 101}})
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
}

func TestUpdateScores_NotFound(t *testing.T) {
	cache := &fakeCache{}
	h := NewUpdateScoresHandler(newFakeRepo(class()...), cache, nil, nil)

	_, err := h.Handle(context.Background(), UpdateScoresCommand{StudentID: 9, Scores: rating.Scores{Homework: 1}})
	assert.True(t, shared.IsNotFound(err))
	assert.Zero(t, cache.invalidated)
}
