// Package homework models assignments, student submissions and grading.
package homework

import (
	"strings"
	"time"

	"github.com/mathclass/rating-hub/internal/domain/shared"
	"github.com/mathclass/rating-hub/pkg/validate"
)

// DefaultDueIn is how far past creation a new assignment is due.
const DefaultDueIn = 7 * 24 * time.Hour

// DefaultPoints is the draft's initial point value.
const DefaultPoints = 10

// Difficulty of an assignment.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// IsValid reports whether d is a known difficulty.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// Status of a submission.
type Status string

const (
	StatusPending Status = "pending"
	StatusGraded  Status = "graded"
	StatusLate    Status = "late"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMISSION
// ══════════════════════════════════════════════════════════════════════════════

// Submission is one student's answer to one assignment.
type Submission struct {
	StudentID   int
	HomeworkID  int
	Answer      string
	SubmittedAt time.Time
	Grade       *int
	Feedback    *string
	Status      Status
}

// SetGrade records a grade and feedback. Re-grading overwrites.
func (s *Submission) SetGrade(grade int, feedback string) {
	s.Grade = &grade
	s.Feedback = &feedback
	s.Status = StatusGraded
}

// IsGraded reports whether a grade has been recorded.
func (s Submission) IsGraded() bool {
	return s.Status == StatusGraded
}

func (s Submission) clone() Submission {
	out := s
	if s.Grade != nil {
		g := *s.Grade
		out.Grade = &g
	}
	if s.Feedback != nil {
		f := *s.Feedback
		out.Feedback = &f
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// HOMEWORK
// ══════════════════════════════════════════════════════════════════════════════

// Homework is an assignment with the submissions collected so far.
type Homework struct {
	ID          int
	Title       string
	Description string
	DueDate     time.Time
	Difficulty  Difficulty
	Points      int
	Submissions []Submission
}

// Submission returns a pointer into h.Submissions for the student, or nil.
func (h *Homework) Submission(studentID int) *Submission {
	for i := range h.Submissions {
		if h.Submissions[i].StudentID == studentID {
			return &h.Submissions[i]
		}
	}
	return nil
}

// IsOverdue reports whether the deadline has passed at now.
func (h Homework) IsOverdue(now time.Time) bool {
	return now.After(h.DueDate)
}

// Submit records an answer. Answers after the deadline are marked late.
// A second submission from the same student replaces the first.
func (h *Homework) Submit(studentID int, answer string, at time.Time) Submission {
	sub := Submission{
		StudentID:   studentID,
		HomeworkID:  h.ID,
		Answer:      answer,
		SubmittedAt: at,
		Status:      StatusPending,
	}
	if at.After(h.DueDate) {
		sub.Status = StatusLate
	}

	if existing := h.Submission(studentID); existing != nil {
		*existing = sub
		return sub
	}
	h.Submissions = append(h.Submissions, sub)
	return sub
}

// Stats counts submissions for the given roster size.
func (h Homework) Stats(rosterSize int) Stats {
	st := Stats{Submitted: len(h.Submissions), Total: rosterSize}
	for _, s := range h.Submissions {
		if s.IsGraded() {
			st.Graded++
		}
	}
	return st
}

// Clone returns a deep copy.
func (h Homework) Clone() Homework {
	out := h
	if h.Submissions != nil {
		out.Submissions = make([]Submission, len(h.Submissions))
		for i, s := range h.Submissions {
			out.Submissions[i] = s.clone()
		}
	}
	return out
}

// Stats summarises a homework's progress.
type Stats struct {
	Submitted int
	Total     int
	Graded    int
}

// ══════════════════════════════════════════════════════════════════════════════
// DRAFT
// ══════════════════════════════════════════════════════════════════════════════

// Draft holds the fields of a not yet created assignment.
type Draft struct {
	Title       string     `json:"title" validate:"notblank"`
	Description string     `json:"description"`
	Difficulty  Difficulty `json:"difficulty" validate:"oneof=easy medium hard"`
	Points      int        `json:"points"`
}

// DefaultDraft is the empty form.
func DefaultDraft() Draft {
	return Draft{Difficulty: DifficultyMedium, Points: DefaultPoints}
}

// IsBlank reports whether the title is empty after trimming.
func (d Draft) IsBlank() bool {
	return strings.TrimSpace(d.Title) == ""
}

// Validate checks the draft before it becomes an assignment.
func (d Draft) Validate() error {
	if d.IsBlank() {
		return shared.ErrBlankTitle
	}
	if !d.Difficulty.IsValid() {
		return shared.ErrInvalidDifficulty
	}
	if err := validate.Struct(d); err != nil {
		return shared.WrapError("homework", "Validate", shared.ErrValidation, "invalid draft", err)
	}
	return nil
}

// Build turns the draft into a new assignment.
func (d Draft) Build(id int, createdAt time.Time) Homework {
	return Homework{
		ID:          id,
		Title:       d.Title,
		Description: d.Description,
		DueDate:     createdAt.Add(DefaultDueIn),
		Difficulty:  d.Difficulty,
		Points:      d.Points,
		Submissions: []Submission{},
	}
}
