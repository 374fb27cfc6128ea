package ratingapi

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mathclass/rating-hub/internal/domain/achievement"
	"github.com/mathclass/rating-hub/internal/domain/rating"
	"github.com/mathclass/rating-hub/internal/domain/student"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE DTOs
// ══════════════════════════════════════════════════════════════════════════════

// StudentsResponse is the payload of GET ?endpoint=students.
type StudentsResponse struct {
	Students []StudentDTO `json:"students"`
}

// AchievementsResponse is the payload of GET ?endpoint=achievements.
type AchievementsResponse struct {
	Achievements []AchievementDTO `json:"achievements"`
}

// StudentDTO is one roster row on the wire.
type StudentDTO struct {
	ID            int              `json:"id"`
	Name          string           `json:"name"`
	Avatar        string           `json:"avatar"`
	HomeworkScore int              `json:"homework_score"`
	ActivityScore int              `json:"activity_score"`
	AnswersScore  int              `json:"answers_score"`
	TotalRating   *int             `json:"total_rating,omitempty"`
	Level         int              `json:"level"`
	Achievements  []AchievementRef `json:"achievements"`
}

// AchievementDTO is one catalog entry on the wire.
type AchievementDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	Points      int    `json:"points"`
	Color       string `json:"color"`
}

// AchievementRef is a student's achievement reference. The endpoint sends either
// a bare id string or a full achievement object; only the id is kept.
type AchievementRef string

// UnmarshalJSON accepts "id", 7 or {"id": "..."}.
func (r *AchievementRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = AchievementRef(s)
		return nil
	case '{':
		var obj struct {
			ID json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		if len(obj.ID) == 0 {
			// Unresolvable; ToDomain drops empty refs.
			*r = ""
			return nil
		}
		return r.UnmarshalJSON(obj.ID)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("unsupported achievement reference %s", string(data))
		}
		*r = AchievementRef(n.String())
		return nil
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST DTOs
// ══════════════════════════════════════════════════════════════════════════════

// UpdateScoresRequest is the POST body. All three scores are always sent.
type UpdateScoresRequest struct {
	StudentID     int `json:"student_id"`
	HomeworkScore int `json:"homework_score"`
	ActivityScore int `json:"activity_score"`
	AnswersScore  int `json:"answers_score"`
}

// UpdateScoresResponse is the POST acknowledgement.
type UpdateScoresResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the body of a rejected request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ══════════════════════════════════════════════════════════════════════════════
// MAPPING
// ══════════════════════════════════════════════════════════════════════════════

// ToDomain converts the DTO. Scores are taken as sent; out-of-range values
// are clamped so the roster invariant holds.
func (d StudentDTO) ToDomain() student.Student {
	ids := make([]string, 0, len(d.Achievements))
	for _, ref := range d.Achievements {
		if ref != "" {
			ids = append(ids, string(ref))
		}
	}

	var reported *int
	if d.TotalRating != nil {
		v := *d.TotalRating
		reported = &v
	}

	return student.Student{
		ID:     d.ID,
		Name:   d.Name,
		Avatar: d.Avatar,
		Scores: rating.Scores{
			Homework: rating.Clamp(0, d.HomeworkScore),
			Activity: rating.Clamp(0, d.ActivityScore),
			Answers:  rating.Clamp(0, d.AnswersScore),
		},
		Achievements:   ids,
		Level:          d.Level,
		ReportedRating: reported,
	}
}

// ToDomain converts the DTO.
func (d AchievementDTO) ToDomain() achievement.Achievement {
	return achievement.Achievement{
		ID:          d.ID,
		Title:       d.Title,
		Icon:        d.Icon,
		Description: d.Description,
		Points:      d.Points,
		Color:       d.Color,
	}
}

// NewUpdateScoresRequest builds the POST body from a score update.
func NewUpdateScoresRequest(u student.ScoreUpdate) UpdateScoresRequest {
	return UpdateScoresRequest{
		StudentID:     u.StudentID,
		HomeworkScore: u.Scores.Homework.Int(),
		ActivityScore: u.Scores.Activity.Int(),
		AnswersScore:  u.Scores.Answers.Int(),
	}
}

// StudentPayload is what the rating API server emits for one student:
// achievements are embedded as full objects.
type StudentPayload struct {
	ID            int              `json:"id"`
	Name          string           `json:"name"`
	Avatar        string           `json:"avatar"`
	HomeworkScore int              `json:"homework_score"`
	ActivityScore int              `json:"activity_score"`
	AnswersScore  int              `json:"answers_score"`
	TotalRating   int              `json:"total_rating"`
	Level         int              `json:"level"`
	Achievements  []AchievementDTO `json:"achievements"`
}

// StudentsPayload wraps StudentPayload rows.
type StudentsPayload struct {
	Students []StudentPayload `json:"students"`
}

// FromStudent builds the server payload, resolving achievement ids against catalog.
// Unknown ids are dropped.
func FromStudent(s student.Student, catalog *achievement.Catalog) StudentPayload {
	resolved := catalog.Resolve(s.Achievements)
	achievements := make([]AchievementDTO, len(resolved))
	for i, a := range resolved {
		achievements[i] = FromAchievement(a)
	}
	return StudentPayload{
		ID:            s.ID,
		Name:          s.Name,
		Avatar:        s.Avatar,
		HomeworkScore: s.Scores.Homework.Int(),
		ActivityScore: s.Scores.Activity.Int(),
		AnswersScore:  s.Scores.Answers.Int(),
		TotalRating:   s.TotalRating(),
		Level:         s.Level,
		Achievements:  achievements,
	}
}

// FromAchievement converts a domain achievement.
func FromAchievement(a achievement.Achievement) AchievementDTO {
	return AchievementDTO{
		ID:          a.ID,
		Title:       a.Title,
		Icon:        a.Icon,
		Description: a.Description,
		Points:      a.Points,
		Color:       a.Color,
	}
}
