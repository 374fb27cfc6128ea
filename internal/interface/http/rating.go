package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mathclass/rating-hub/internal/application/command"
	"github.com/mathclass/rating-hub/internal/domain/achievement"
	"github.com/mathclass/rating-hub/internal/domain/rating"
	"github.com/mathclass/rating-hub/internal/domain/shared"
	"github.com/mathclass/rating-hub/internal/infrastructure/external/ratingapi"
	"github.com/mathclass/rating-hub/pkg/logger"
	"github.com/mathclass/rating-hub/pkg/validate"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATING ENDPOINT
// GET ?endpoint=students|achievements, POST score triple.
// ══════════════════════════════════════════════════════════════════════════════

// updateScoresBody is the POST payload. Pointers tell a missing field from a zero score.
type updateScoresBody struct {
	StudentID     *int `json:"student_id" validate:"required,gt=0"`
	HomeworkScore *int `json:"homework_score" validate:"required,min=0,max=100"`
	ActivityScore *int `json:"activity_score" validate:"required,min=0,max=100"`
	AnswersScore  *int `json:"answers_score" validate:"required,min=0,max=100"`
}

func (b updateScoresBody) command() command.UpdateScoresCommand {
	return command.UpdateScoresCommand{
		StudentID: *b.StudentID,
		Scores: rating.Scores{
			Homework: rating.Score(*b.HomeworkScore),
			Activity: rating.Score(*b.ActivityScore),
			Answers:  rating.Score(*b.AnswersScore),
		},
	}
}

func (s *Server) handleRating(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleRatingGet(w, r)
	case http.MethodPost:
		s.handleRatingPost(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, OPTIONS")
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) handleRatingGet(w http.ResponseWriter, r *http.Request) {
	endpoint := r.URL.Query().Get("endpoint")
	if endpoint == "" {
		endpoint = ratingapi.EndpointStudents
	}

	switch endpoint {
	case ratingapi.EndpointStudents:
		s.getStudents(w, r)
	case ratingapi.EndpointAchievements:
		s.getAchievements(w, r)
	default:
		writeError(w, http.StatusBadRequest, "Unknown endpoint")
	}
}

func (s *Server) getStudents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	students, err := s.deps.Students.Handle(ctx)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	items, err := s.deps.Achievements.Handle(ctx)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	catalog := achievement.NewCatalog(items)
	out := ratingapi.StudentsPayload{Students: make([]ratingapi.StudentPayload, len(students))}
	for i, st := range students {
		out.Students[i] = ratingapi.FromStudent(st, catalog)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getAchievements(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Achievements.Handle(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	out := ratingapi.AchievementsResponse{Achievements: make([]ratingapi.AchievementDTO, len(items))}
	for i, a := range items {
		out.Achievements[i] = ratingapi.FromAchievement(a)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRatingPost(w http.ResponseWriter, r *http.Request) {
	if s.config.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	}

	var body updateScoresBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := validate.Struct(body); err != nil {
		var fields validate.FieldErrors
		if errors.As(err, &fields) {
			if _, missing := fields["student_id"]; missing && body.StudentID == nil {
				writeError(w, http.StatusBadRequest, "student_id is required")
				return
			}
			writeError(w, http.StatusBadRequest, fields.Error())
			return
		}
		s.writeDomainError(w, r, err)
		return
	}

	res, err := s.deps.UpdateScores.Handle(r.Context(), body.command())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	logger.FromContext(r.Context()).Debug("rating updated",
		logger.StudentID(res.StudentID),
		logger.Int("awarded", len(res.Awarded)),
	)
	writeJSON(w, http.StatusOK, ratingapi.UpdateScoresResponse{Success: true, Message: "Rating updated"})
}

// writeDomainError maps domain error kinds onto status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case shared.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case shared.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.FromContext(r.Context()).Error("request failed",
			logger.String("path", r.URL.Path),
			logger.Err(err),
		)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
