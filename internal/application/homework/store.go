// Package homework owns assignments and their submissions on the dashboard side.
// Grading feeds back into the roster as a homework score bump.
package homework

import (
	"context"
	"errors"
	"sync"

	"github.com/mathclass/rating-hub/internal/domain/homework"
	"github.com/mathclass/rating-hub/internal/domain/rating"
	"github.com/mathclass/rating-hub/internal/domain/shared"
	"github.com/mathclass/rating-hub/pkg/logger"
	"github.com/mathclass/rating-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES (Interfaces)
// ══════════════════════════════════════════════════════════════════════════════

// Roster is the part of the roster store grading needs.
type Roster interface {
	UpdatePoints(ctx context.Context, studentID int, category rating.Category, delta int)
	Len() int
}

// Options configures a Store.
type Options struct {
	// Roster is required.
	Roster Roster

	Bus    shared.EventPublisher
	Logger *logger.Logger

	// Clock defaults to the wall clock.
	Clock timeutil.Clock
}

// ══════════════════════════════════════════════════════════════════════════════
// STORE
// ══════════════════════════════════════════════════════════════════════════════

// Store holds assignments in creation order.
type Store struct {
	mu        sync.RWMutex
	homeworks []homework.Homework
	draft     homework.Draft
	lastID    int

	roster Roster
	bus    shared.EventPublisher
	logger *logger.Logger
	clock  timeutil.Clock
}

// NewStore creates an empty homework store.
func NewStore(opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.SystemClock()
	}
	return &Store{
		draft:  homework.DefaultDraft(),
		roster: opts.Roster,
		bus:    opts.Bus,
		logger: opts.Logger.With(logger.Component("homework")),
		clock:  opts.Clock,
	}
}

// Seed loads pre-existing assignments. IDs issued afterwards never collide with seeded ones.
func (s *Store) Seed(hws []homework.Homework) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, hw := range hws {
		s.homeworks = append(s.homeworks, hw.Clone())
		if hw.ID > s.lastID {
			s.lastID = hw.ID
		}
	}
}

// Draft returns the draft being edited.
func (s *Store) Draft() homework.Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft
}

// SetDraft replaces the draft being edited.
func (s *Store) SetDraft(d homework.Draft) {
	s.mu.Lock()
	s.draft = d
	s.mu.Unlock()
}

// Create turns d into a new assignment due a week from now.
// A blank title is a silent no-op; any other invalid draft is logged and rejected.
// On success the held draft resets to defaults.
func (s *Store) Create(ctx context.Context, d homework.Draft) (homework.Homework, bool) {
	if err := d.Validate(); err != nil {
		if !errors.Is(err, shared.ErrBlankTitle) {
			s.logger.Warn("homework draft rejected", logger.Err(err))
		}
		return homework.Homework{}, false
	}

	s.mu.Lock()
	s.lastID++
	hw := d.Build(s.lastID, s.clock.Now())
	s.homeworks = append(s.homeworks, hw)
	s.draft = homework.DefaultDraft()
	s.mu.Unlock()

	s.logger.Info("homework created",
		logger.HomeworkID(hw.ID),
		logger.String("title", hw.Title),
	)
	s.publish(shared.NewHomeworkCreatedEvent(hw.ID, hw.Title, hw.DueDate))

	return hw.Clone(), true
}

// Grade records a grade for one submission and bumps the student's homework score by it.
// Unknown homework or submission is a silent no-op.
func (s *Store) Grade(ctx context.Context, studentID, homeworkID, grade int, feedback string) {
	s.mu.Lock()
	hw := s.find(homeworkID)
	if hw == nil {
		s.mu.Unlock()
		return
	}
	sub := hw.Submission(studentID)
	if sub == nil {
		s.mu.Unlock()
		return
	}
	sub.SetGrade(grade, feedback)
	s.mu.Unlock()

	s.logger.Info("submission graded",
		logger.HomeworkID(homeworkID),
		logger.StudentID(studentID),
		logger.Int("grade", grade),
	)
	s.publish(shared.NewSubmissionGradedEvent(homeworkID, studentID, grade, feedback))

	if s.roster != nil {
		s.roster.UpdatePoints(ctx, studentID, rating.CategoryHomework, grade)
	}
}

// Stats reports progress on one assignment against the current roster size.
func (s *Store) Stats(homeworkID int) homework.Stats {
	size := 0
	if s.roster != nil {
		size = s.roster.Len()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hw := s.find(homeworkID)
	if hw == nil {
		return homework.Stats{Total: size}
	}
	return hw.Stats(size)
}

// Get returns a copy of one assignment.
func (s *Store) Get(id int) (homework.Homework, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hw := s.find(id)
	if hw == nil {
		return homework.Homework{}, false
	}
	return hw.Clone(), true
}

// List returns a copy of every assignment in creation order.
func (s *Store) List() []homework.Homework {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]homework.Homework, len(s.homeworks))
	for i, hw := range s.homeworks {
		out[i] = hw.Clone()
	}
	return out
}

// SubmissionFor returns the student's submission for an assignment.
func (s *Store) SubmissionFor(studentID, homeworkID int) (homework.Submission, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hw := s.find(homeworkID)
	if hw == nil {
		return homework.Submission{}, false
	}
	for _, sub := range hw.Clone().Submissions {
		if sub.StudentID == studentID {
			return sub, true
		}
	}
	return homework.Submission{}, false
}

// find must be called with s.mu held.
func (s *Store) find(id int) *homework.Homework {
	for i := range s.homeworks {
		if s.homeworks[i].ID == id {
			return &s.homeworks[i]
		}
	}
	return nil
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
