// Package roster owns the in-memory class roster: the single source of truth
// for students and their scores on the dashboard side.
package roster

import (
	"context"
	"sort"
	"sync"

	"github.com/mathclass/rating-hub/internal/domain/rating"
	"github.com/mathclass/rating-hub/internal/domain/shared"
	"github.com/mathclass/rating-hub/internal/domain/student"
	"github.com/mathclass/rating-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES (Interfaces)
// ══════════════════════════════════════════════════════════════════════════════

// Persister pushes a score change to the remote rating endpoint.
// The full triple is always sent.
type Persister interface {
	UpdateScores(ctx context.Context, update student.ScoreUpdate) error
}

// Options configures a Store. Every field is optional.
type Options struct {
	// Persister, when set, must succeed before a change is applied locally.
	Persister Persister

	Bus shared.EventPublisher

	Logger *logger.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// STORE
// ══════════════════════════════════════════════════════════════════════════════

// Store holds the roster in load order.
type Store struct {
	mu        sync.RWMutex
	students  []student.Student
	persister Persister
	bus       shared.EventPublisher
	logger    *logger.Logger
}

// NewStore creates an empty roster.
func NewStore(opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Store{
		persister: opts.Persister,
		bus:       opts.Bus,
		logger:    opts.Logger.With(logger.Component("roster")),
	}
}

// Load replaces the roster wholesale.
func (s *Store) Load(students []student.Student) {
	cp := make([]student.Student, len(students))
	for i, st := range students {
		cp[i] = st.Clone()
	}

	s.mu.Lock()
	s.students = cp
	s.mu.Unlock()

	s.logger.Info("roster loaded", logger.Int("count", len(cp)))
	s.publish(shared.NewRosterLoadedEvent(len(cp)))
}

// UpdatePoints adds delta to one category of one student, clamped to [0, 100].
//
// Unknown students and categories are ignored. When a Persister is configured the
// change is sent first and applied only on success; a failure is logged and the
// roster stays as it was. Nothing is returned to the caller either way.
func (s *Store) UpdatePoints(ctx context.Context, studentID int, category rating.Category, delta int) {
	log := s.logger.With(
		logger.StudentID(studentID),
		logger.Category(category.String()),
		logger.Delta(delta),
	)

	if !category.IsValid() {
		log.Debug("update ignored: unknown category")
		return
	}

	s.mu.RLock()
	idx := s.indexOf(studentID)
	var current rating.Scores
	if idx >= 0 {
		current = s.students[idx].Scores
	}
	s.mu.RUnlock()

	if idx < 0 {
		log.Debug("update ignored: unknown student")
		return
	}

	next := current.Apply(category, delta)

	// The lock is not held across the remote call. Concurrent updates of the
	// same student are last-write-wins.
	if s.persister != nil {
		update := student.ScoreUpdate{StudentID: studentID, Scores: next}
		if err := s.persister.UpdateScores(ctx, update); err != nil {
			log.Warn("failed to persist score update", logger.Err(err))
			return
		}
	}

	s.mu.Lock()
	idx = s.indexOf(studentID)
	if idx < 0 {
		s.mu.Unlock()
		log.Debug("update dropped: student left the roster")
		return
	}
	s.students[idx].Scores = next
	s.mu.Unlock()

	log.Debug("score updated", logger.Int("value", next.Get(category).Int()))
	s.publish(shared.NewScoreUpdatedEvent(
		studentID,
		category.String(),
		current.Get(category).Int(),
		next.Get(category).Int(),
	))
}

// SortedByRating returns a new slice ordered by total rating, highest first.
// Ties keep load order.
func (s *Store) SortedByRating() []student.Student {
	out := s.Students()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalRating() > out[j].TotalRating()
	})
	return out
}

// Standing is one leaderboard row.
type Standing struct {
	Position int
	Student  student.Student
	Rating   int
	Medal    string
}

// Standings returns the leaderboard with 1-based positions.
func (s *Store) Standings() []Standing {
	sorted := s.SortedByRating()
	out := make([]Standing, len(sorted))
	for i, st := range sorted {
		out[i] = Standing{
			Position: i + 1,
			Student:  st,
			Rating:   st.TotalRating(),
			Medal:    rating.Medal(i + 1),
		}
	}
	return out
}

// Get returns a copy of one student.
func (s *Store) Get(id int) (student.Student, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return student.Student{}, false
	}
	return s.students[idx].Clone(), true
}

// Students returns a copy of the roster in load order.
func (s *Store) Students() []student.Student {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]student.Student, len(s.students))
	for i, st := range s.students {
		out[i] = st.Clone()
	}
	return out
}

// Len returns the roster size.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.students)
}

func (s *Store) indexOf(id int) int {
	for i := range s.students {
		if s.students[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) publish(e shared.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(e); err != nil {
		s.logger.Warn("failed to publish event",
			logger.String("event_type", string(e.EventType())),
			logger.Err(err),
		)
	}
}
