package query

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathclass/rating-hub/internal/domain/achievement"
	"github.com/mathclass/rating-hub/internal/domain/rating"
	"github.com/mathclass/rating-hub/internal/domain/student"
	"github.com/mathclass/rating-hub/pkg/logger"
)

var errMiss = errors.New("miss")

type fakeStudents struct {
	list  []student.Student
	calls int
}

func (f *fakeStudents) ListByRating(context.Context) ([]student.Student, error) {
	f.calls++
	return f.list, nil
}
func (f *fakeStudents) GetByID(context.Context, int) (student.Student, error) {
	return student.Student{}, nil
}
func (f *fakeStudents) UpdateScores(context.Context, int, rating.Scores, student.AwardFunc) ([]string, error) {
	return nil, nil
}

type fakeAchievements struct {
	list  []achievement.Achievement
	err   error
	calls int
}

func (f *fakeAchievements) ListByPoints(context.Context) ([]achievement.Achievement, error) {
	f.calls++
	return f.list, f.err
}

// memCache implements both cache interfaces.
type memCache struct {
	students     []student.Student
	achievements []achievement.Achievement
}

func (m *memCache) GetStudents(context.Context) ([]student.Student, error) {
	if m.students == nil {
		return nil, errMiss
	}
	return m.students, nil
}
func (m *memCache) SetStudents(_ context.Context, s []student.Student) error {
	m.students = s
	return nil
}
func (m *memCache) Invalidate(context.Context) error {
	m.students = nil
	return nil
}
func (m *memCache) GetAchievements(context.Context) ([]achievement.Achievement, error) {
	if m.achievements == nil {
		return nil, errMiss
	}
	return m.achievements, nil
}
func (m *memCache) SetAchievements(_ context.Context, a []achievement.Achievement) error {
	m.achievements = a
	return nil
}

func TestListStudents_CacheAside(t *testing.T) {
	repo := &fakeStudents{list: []student.Student{{ID: 2}, {ID: 1}}}
	cache := &memCache{}
	h := NewListStudentsHandler(repo, cache, nil)

	first, err := h.Handle(context.Background())
	require.NoError(t, err)
	second, err := h.Handle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.calls)

	require.NoError(t, cache.Invalidate(context.Background()))
	_, err = h.Handle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestListStudents_LogsCacheHit(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Options{Output: &buf, Level: logger.LevelDebug})
	h := NewListStudentsHandler(&fakeStudents{list: []student.Student{{ID: 1}}}, &memCache{}, log)

	_, err := h.Handle(context.Background())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"cache_hit":false`)
	assert.NotContains(t, buf.String(), `"cache_hit":true`)

	buf.Reset()
	_, err = h.Handle(context.Background())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"cache_hit":true`)
}

func TestListStudents_NoCache(t *testing.T) {
	repo := &fakeStudents{list: []student.Student{{ID: 1}}}
	h := NewListStudentsHandler(repo, nil, nil)

	for i := 0; i < 3; i++ {
		_, err := h.Handle(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 3, repo.calls)
}

func TestListAchievements(t *testing.T) {
	repo := &fakeAchievements{list: achievement.DefaultCatalog().All()}
	cache := &memCache{}
	h := NewListAchievementsHandler(repo, cache, nil)

	items, err := h.Handle(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 6)

	_, err = h.Handle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)
}

func TestListAchievements_RepoError(t *testing.T) {
	repo := &fakeAchievements{err: errors.New("db down")}
	cache := &memCache{}
	h := NewListAchievementsHandler(repo, cache, nil)

	_, err := h.Handle(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
	assert.Nil(t, cache.achievements)
}
