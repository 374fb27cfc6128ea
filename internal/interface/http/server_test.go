package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathclass/rating-hub/internal/application/command"
	"github.com/mathclass/rating-hub/internal/domain/achievement"
	"github.com/mathclass/rating-hub/internal/domain/rating"
	"github.com/mathclass/rating-hub/internal/domain/shared"
	"github.com/mathclass/rating-hub/internal/domain/student"
	"github.com/mathclass/rating-hub/internal/infrastructure/external/ratingapi"
	"github.com/mathclass/rating-hub/internal/interface/http/handlers"
	"github.com/mathclass/rating-hub/pkg/logger"
)

type fakeStudents struct {
	list []student.Student
	err  error
}

func (f fakeStudents) Handle(context.Context) ([]student.Student, error) { return f.list, f.err }

type fakeAchievements struct {
	list []achievement.Achievement
}

func (f fakeAchievements) Handle(context.Context) ([]achievement.Achievement, error) {
	return f.list, nil
}

type fakeUpdater struct {
	got []command.UpdateScoresCommand
	err error
}

func (f *fakeUpdater) Handle(_ context.Context, cmd command.UpdateScoresCommand) (*command.UpdateScoresResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.got = append(f.got, cmd)
	return &command.UpdateScoresResult{StudentID: cmd.StudentID}, nil
}

func newTestServer(t *testing.T, updater *fakeUpdater) http.Handler {
	t.Helper()
	students := []student.Student{
		{ID: 2, Name: "Даша", Avatar: "👩‍🎓", Scores: rating.Scores{Homework: 92, Activity: 88, Answers: 85}, Level: 6,
			Achievements: []string{achievement.HomeworkMaster, "retired"}},
		{ID: 1, Name: "Илья", Scores: rating.Scores{Homework: 85, Activity: 78, Answers: 92}, Level: 5},
	}
	srv := NewServer(DefaultConfig(), Dependencies{
		Students:     fakeStudents{list: students},
		Achievements: fakeAchievements{list: achievement.DefaultCatalog().All()},
		UpdateScores: updater,
		Logger:       logger.Nop(),
	})
	return srv.Handler()
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body ratingapi.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func TestGetStudents(t *testing.T) {
	h := newTestServer(t, &fakeUpdater{})

	for _, target := range []string{"/api/rating?endpoint=students", "/api/rating"} {
		rec := do(h, http.MethodGet, target, "")
		require.Equal(t, http.StatusOK, rec.Code, target)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

		var body ratingapi.StudentsPayload
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		require.Len(t, body.Students, 2)

		first := body.Students[0]
		assert.Equal(t, 2, first.ID)
		assert.Equal(t, 88, first.TotalRating)
		require.Len(t, first.Achievements, 1)
		assert.Equal(t, "Мастер ДЗ", first.Achievements[0].Title)
		assert.NotNil(t, body.Students[1].Achievements)
	}
}

// The dashboard's client must be able to read what the server writes.
func TestGetStudents_RoundTripsThroughClientDTO(t *testing.T) {
	h := newTestServer(t, &fakeUpdater{})
	rec := do(h, http.MethodGet, "/api/rating?endpoint=students", "")

	var resp ratingapi.StudentsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	s := resp.Students[0].ToDomain()
	assert.Equal(t, []string{achievement.HomeworkMaster}, s.Achievements)
	drift, ok := s.RatingDrift()
	assert.True(t, ok)
	assert.Zero(t, drift)
}

func TestGetAchievements(t *testing.T) {
	h := newTestServer(t, &fakeUpdater{})
	rec := do(h, http.MethodGet, "/api/rating?endpoint=achievements", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body ratingapi.AchievementsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body.Achievements, 6)
}

func TestGetUnknownEndpoint(t *testing.T) {
	h := newTestServer(t, &fakeUpdater{})
	rec := do(h, http.MethodGet, "/api/rating?endpoint=teachers", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Unknown endpoint", decodeError(t, rec))
}

func TestPostScores(t *testing.T) {
	updater := &fakeUpdater{}
	h := newTestServer(t, updater)

	rec := do(h, http.MethodPost, "/api/rating",
		`{"student_id":1,"homework_score":90,"activity_score":0,"answers_score":100}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body ratingapi.UpdateScoresResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "Rating updated", body.Message)

	require.Len(t, updater.got, 1)
	assert.Equal(t, rating.Scores{Homework: 90, Activity: 0, Answers: 100}, updater.got[0].Scores)
}

func TestPostScores_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"missing student", `{"homework_score":1,"activity_score":1,"answers_score":1}`, "student_id is required"},
		{"missing score", `{"student_id":1,"homework_score":1,"activity_score":1}`, "answers_score"},
		{"out of range", `{"student_id":1,"homework_score":101,"activity_score":1,"answers_score":1}`, "homework_score"},
		{"negative id", `{"student_id":-3,"homework_score":1,"activity_score":1,"answers_score":1}`, "student_id"},
		{"not json", `{`, "Invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updater := &fakeUpdater{}
			rec := do(newTestServer(t, updater), http.MethodPost, "/api/rating", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decodeError(t, rec), tt.wantMsg)
			assert.Empty(t, updater.got)
		})
	}
}

func TestPostScores_StudentNotFound(t *testing.T) {
	h := newTestServer(t, &fakeUpdater{err: shared.ErrStudentNotFound})
	rec := do(h, http.MethodPost, "/api/rating",
		`{"student_id":42,"homework_score":1,"activity_score":1,"answers_score":1}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStorageFailureIs500(t *testing.T) {
	srv := NewServer(DefaultConfig(), Dependencies{
		Students:     fakeStudents{err: errors.New("connection refused")},
		Achievements: fakeAchievements{},
		Logger:       logger.Nop(),
	})
	rec := do(srv.Handler(), http.MethodGet, "/api/rating", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decodeError(t, rec))
}

func TestMethodNotAllowed(t *testing.T) {
	rec := do(newTestServer(t, &fakeUpdater{}), http.MethodDelete, "/api/rating", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	req := httptest.NewRequest(http.MethodOptions, "/api/rating", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	newTestServer(t, &fakeUpdater{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AllowedOrigins = []string{"https://class.example"}
	h := NewServer(cfg, Dependencies{Logger: logger.Nop()}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "https://class.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://class.example", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDPropagated(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	newTestServer(t, &fakeUpdater{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestReady(t *testing.T) {
	checker := handlers.NewCompositeHealthChecker("test")
	checker.AddCheck("postgres", func(context.Context) error { return errors.New("down") })

	h := NewServer(DefaultConfig(), Dependencies{HealthChecker: checker, Logger: logger.Nop()}).Handler()
	rec := do(h, http.MethodGet, "/ready", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	srv := NewServer(DefaultConfig(), Dependencies{Logger: logger.Nop()})
	h := srv.recoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := do(h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
