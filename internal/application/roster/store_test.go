package roster

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathclass/rating-hub/internal/domain/rating"
	"github.com/mathclass/rating-hub/internal/domain/shared"
	"github.com/mathclass/rating-hub/internal/domain/student"
)

func classroom() []student.Student {
	return []student.Student{
		{ID: 1, Name: "Илья", Scores: rating.Scores{Homework: 85, Activity: 78, Answers: 92}, Achievements: []string{"first-place", "homework-master"}, Level: 5},
		{ID: 2, Name: "Даша", Scores: rating.Scores{Homework: 92, Activity: 88, Answers: 85}, Achievements: []string{"homework-master", "active-student"}, Level: 6},
		{ID: 3, Name: "Вика", Scores: rating.Scores{Homework: 76, Activity: 95, Answers: 80}, Achievements: []string{"active-student"}, Level: 4},
		{ID: 4, Name: "Настя", Scores: rating.Scores{Homework: 88, Activity: 82, Answers: 90}, Achievements: []string{"rising-star"}, Level: 5},
	}
}

type fakePersister struct {
	calls []student.ScoreUpdate
	err   error
}

func (f *fakePersister) UpdateScores(_ context.Context, u student.ScoreUpdate) error {
	f.calls = append(f.calls, u)
	return f.err
}

type recordingBus struct {
	events []shared.Event
}

func (b *recordingBus) Publish(e shared.Event) error {
	b.events = append(b.events, e)
	return nil
}

func ids(students []student.Student) []int {
	out := make([]int, len(students))
	for i, s := range students {
		out[i] = s.ID
	}
	return out
}

func TestStore_UpdatePointsWithoutPersister(t *testing.T) {
	s := NewStore(Options{})
	s.Load(classroom())

	s.UpdatePoints(context.Background(), 1, rating.CategoryHomework, 5)

	got, ok := s.Get(1)
	require.True(t, ok)
	assert.Equal(t, rating.Score(90), got.Scores.Homework)
	assert.Equal(t, 87, got.TotalRating())
}

func TestStore_UpdatePointsClamps(t *testing.T) {
	s := NewStore(Options{})
	s.Load(classroom())

	s.UpdatePoints(context.Background(), 3, rating.CategoryActivity, 10)
	s.UpdatePoints(context.Background(), 4, rating.CategoryAnswers, -500)

	vika, _ := s.Get(3)
	nastya, _ := s.Get(4)
	assert.Equal(t, rating.MaxScore, vika.Scores.Activity)
	assert.Equal(t, rating.MinScore, nastya.Scores.Answers)
}

func TestStore_UpdatePointsSendsFullTriple(t *testing.T) {
	p := &fakePersister{}
	s := NewStore(Options{Persister: p})
	s.Load(classroom())

	s.UpdatePoints(context.Background(), 2, rating.CategoryAnswers, -5)

	require.Len(t, p.calls, 1)
	assert.Equal(t, student.ScoreUpdate{
		StudentID: 2,
		Scores:    rating.Scores{Homework: 92, Activity: 88, Answers: 80},
	}, p.calls[0])

	dasha, _ := s.Get(2)
	assert.Equal(t, rating.Score(80), dasha.Scores.Answers)
}

func TestStore_UpdatePointsRemoteFailureLeavesStateUnchanged(t *testing.T) {
	p := &fakePersister{err: errors.New("status 500")}
	bus := &recordingBus{}
	s := NewStore(Options{Persister: p, Bus: bus})
	s.Load(classroom())
	before := s.Students()

	s.UpdatePoints(context.Background(), 1, rating.CategoryHomework, 5)

	assert.Len(t, p.calls, 1)
	assert.Equal(t, before, s.Students())
	require.Len(t, bus.events, 1)
	assert.Equal(t, shared.EventRosterLoaded, bus.events[0].EventType())
}

func TestStore_UpdatePointsIgnoresUnknown(t *testing.T) {
	p := &fakePersister{}
	s := NewStore(Options{Persister: p})
	s.Load(classroom())
	before := s.Students()

	s.UpdatePoints(context.Background(), 99, rating.CategoryHomework, 5)
	s.UpdatePoints(context.Background(), 1, rating.Category("attendance"), 5)

	assert.Empty(t, p.calls)
	assert.Equal(t, before, s.Students())
}

func TestStore_UpdatePointsPublishesEvent(t *testing.T) {
	bus := &recordingBus{}
	s := NewStore(Options{Bus: bus})
	s.Load(classroom())

	s.UpdatePoints(context.Background(), 4, rating.CategoryActivity, 5)

	require.Len(t, bus.events, 2)
	ev, ok := bus.events[1].(*shared.ScoreUpdatedEvent)
	require.True(t, ok)
	assert.Equal(t, 4, ev.StudentID)
	assert.Equal(t, "activity", ev.Category)
	assert.Equal(t, 82, ev.OldValue)
	assert.Equal(t, 87, ev.NewValue)
}

func TestStore_SortedByRating(t *testing.T) {
	s := NewStore(Options{})
	s.Load(classroom())

	// Даша 88, Настя 87, Илья 85, Вика 84
	assert.Equal(t, []int{2, 4, 1, 3}, ids(s.SortedByRating()))

	// sorting never touches the roster itself
	assert.Equal(t, []int{1, 2, 3, 4}, ids(s.Students()))
}

func TestStore_SortedByRatingIsStableAndIdempotent(t *testing.T) {
	s := NewStore(Options{})
	s.Load([]student.Student{
		{ID: 10, Scores: rating.Scores{Homework: 80, Activity: 80, Answers: 80}},
		{ID: 11, Scores: rating.Scores{Homework: 90, Activity: 90, Answers: 90}},
		{ID: 12, Scores: rating.Scores{Homework: 81, Activity: 80, Answers: 79}},
		{ID: 13, Scores: rating.Scores{Homework: 79, Activity: 81, Answers: 80}},
	})

	first := s.SortedByRating()
	assert.Equal(t, []int{11, 10, 12, 13}, ids(first))
	assert.Equal(t, first, s.SortedByRating())

	for i := 1; i < len(first); i++ {
		assert.GreaterOrEqual(t, first[i-1].TotalRating(), first[i].TotalRating())
	}
}

func TestStore_SortedByRatingEmpty(t *testing.T) {
	s := NewStore(Options{})
	assert.Empty(t, s.SortedByRating())
	assert.Empty(t, s.Standings())
}

func TestStore_Standings(t *testing.T) {
	s := NewStore(Options{})
	s.Load(classroom())

	st := s.Standings()
	require.Len(t, st, 4)
	assert.Equal(t, 1, st[0].Position)
	assert.Equal(t, "Даша", st[0].Student.Name)
	assert.Equal(t, 88, st[0].Rating)
	assert.Equal(t, "🥇", st[0].Medal)
	assert.Equal(t, "🎯", st[3].Medal)
}

func TestStore_LoadCopiesInput(t *testing.T) {
	input := classroom()
	s := NewStore(Options{})
	s.Load(input)

	input[0].Name = "changed"
	input[0].Achievements[0] = "changed"

	got, _ := s.Get(1)
	assert.Equal(t, "Илья", got.Name)
	assert.Equal(t, "first-place", got.Achievements[0])
	assert.Equal(t, 4, s.Len())
}

// blockingPersister holds UpdateScores until release is closed.
type blockingPersister struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingPersister) UpdateScores(context.Context, student.ScoreUpdate) error {
	close(b.started)
	<-b.release
	return nil
}

func TestStore_ReadsDoNotWaitForPendingUpdate(t *testing.T) {
	p := &blockingPersister{started: make(chan struct{}), release: make(chan struct{})}
	s := NewStore(Options{Persister: p})
	s.Load(classroom())

	done := make(chan struct{})
	go func() {
		s.UpdatePoints(context.Background(), 3, rating.CategoryActivity, -10)
		close(done)
	}()
	<-p.started

	read := make(chan []int, 1)
	go func() { read <- ids(s.SortedByRating()) }()

	select {
	case got := <-read:
		assert.Equal(t, []int{2, 4, 1, 3}, got)
	case <-time.After(time.Second):
		t.Fatal("SortedByRating waited for the remote update")
	}

	got, _ := s.Get(3)
	assert.Equal(t, rating.Score(95), got.Scores.Activity, "not applied before the remote confirms")

	close(p.release)
	<-done
	got, _ = s.Get(3)
	assert.Equal(t, rating.Score(85), got.Scores.Activity)
}

func TestStore_UpdateDroppedWhenStudentRemovedMeanwhile(t *testing.T) {
	p := &blockingPersister{started: make(chan struct{}), release: make(chan struct{})}
	s := NewStore(Options{Persister: p})
	s.Load(classroom())

	done := make(chan struct{})
	go func() {
		s.UpdatePoints(context.Background(), 1, rating.CategoryHomework, 5)
		close(done)
	}()
	<-p.started

	s.Load(classroom()[1:])
	close(p.release)
	<-done

	_, ok := s.Get(1)
	assert.False(t, ok)
	assert.Equal(t, 3, s.Len())
}
