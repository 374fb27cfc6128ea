package shared

import (
	"strconv"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Observers subscribe to these to follow store mutations.
const (
	EventRosterLoaded       EventType = "roster.loaded"
	EventScoreUpdated       EventType = "student.score_updated"
	EventCatalogLoaded      EventType = "achievement.catalog_loaded"
	EventHomeworkCreated    EventType = "homework.created"
	EventSubmissionGraded   EventType = "homework.submission_graded"
	EventAchievementAwarded EventType = "achievement.awarded"
)

// Event is the base interface for all domain events.
type Event interface {
	EventType() EventType
	OccurredAt() time.Time
	AggregateID() string
	Payload() map[string]interface{}
}

// EventHandler handles a published event.
type EventHandler func(event Event) error

// EventPublisher is the write side of the event bus.
type EventPublisher interface {
	Publish(event Event) error
}

// EventBus routes published events to subscribers.
type EventBus interface {
	EventPublisher
	Subscribe(eventType EventType, handler EventHandler) error
	SubscribeAll(handler EventHandler) error
	Close() error
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType { return e.Type }

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string { return e.AggregateId }

// NewBaseEvent creates a new base event stamped with the current time.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
	}
}

// RosterLoadedEvent is emitted when the roster is replaced wholesale.
type RosterLoadedEvent struct {
	BaseEvent
	Count int `json:"count"`
}

// NewRosterLoadedEvent creates a RosterLoadedEvent.
func NewRosterLoadedEvent(count int) *RosterLoadedEvent {
	return &RosterLoadedEvent{
		BaseEvent: NewBaseEvent(EventRosterLoaded, "roster"),
		Count:     count,
	}
}

// Payload implements Event interface.
func (e *RosterLoadedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"count": e.Count}
}

// ScoreUpdatedEvent is emitted after a score change has been applied locally.
type ScoreUpdatedEvent struct {
	BaseEvent
	StudentID int    `json:"student_id"`
	Category  string `json:"category"`
	OldValue  int    `json:"old_value"`
	NewValue  int    `json:"new_value"`
}

// NewScoreUpdatedEvent creates a ScoreUpdatedEvent.
func NewScoreUpdatedEvent(studentID int, category string, oldValue, newValue int) *ScoreUpdatedEvent {
	return &ScoreUpdatedEvent{
		BaseEvent: NewBaseEvent(EventScoreUpdated, strconv.Itoa(studentID)),
		StudentID: studentID,
		Category:  category,
		OldValue:  oldValue,
		NewValue:  newValue,
	}
}

// Payload implements Event interface.
func (e *ScoreUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id": e.StudentID,
		"category":   e.Category,
		"old_value":  e.OldValue,
		"new_value":  e.NewValue,
	}
}

// CatalogLoadedEvent is emitted once the achievement catalog is available.
type CatalogLoadedEvent struct {
	BaseEvent
	Count int `json:"count"`
}

// NewCatalogLoadedEvent creates a CatalogLoadedEvent.
func NewCatalogLoadedEvent(count int) *CatalogLoadedEvent {
	return &CatalogLoadedEvent{
		BaseEvent: NewBaseEvent(EventCatalogLoaded, "catalog"),
		Count:     count,
	}
}

// Payload implements Event interface.
func (e *CatalogLoadedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{"count": e.Count}
}

// HomeworkCreatedEvent is emitted when a new assignment is appended.
type HomeworkCreatedEvent struct {
	BaseEvent
	HomeworkID int       `json:"homework_id"`
	Title      string    `json:"title"`
	DueDate    time.Time `json:"due_date"`
}

// NewHomeworkCreatedEvent creates a HomeworkCreatedEvent.
func NewHomeworkCreatedEvent(homeworkID int, title string, dueDate time.Time) *HomeworkCreatedEvent {
	return &HomeworkCreatedEvent{
		BaseEvent:  NewBaseEvent(EventHomeworkCreated, strconv.Itoa(homeworkID)),
		HomeworkID: homeworkID,
		Title:      title,
		DueDate:    dueDate,
	}
}

// Payload implements Event interface.
func (e *HomeworkCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"homework_id": e.HomeworkID,
		"title":       e.Title,
		"due_date":    e.DueDate,
	}
}

// SubmissionGradedEvent is emitted when a submission is graded or re-graded.
type SubmissionGradedEvent struct {
	BaseEvent
	HomeworkID int    `json:"homework_id"`
	StudentID  int    `json:"student_id"`
	Grade      int    `json:"grade"`
	Feedback   string `json:"feedback"`
}

// NewSubmissionGradedEvent creates a SubmissionGradedEvent.
func NewSubmissionGradedEvent(homeworkID, studentID, grade int, feedback string) *SubmissionGradedEvent {
	return &SubmissionGradedEvent{
		BaseEvent:  NewBaseEvent(EventSubmissionGraded, strconv.Itoa(homeworkID)),
		HomeworkID: homeworkID,
		StudentID:  studentID,
		Grade:      grade,
		Feedback:   feedback,
	}
}

// Payload implements Event interface.
func (e *SubmissionGradedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"homework_id": e.HomeworkID,
		"student_id":  e.StudentID,
		"grade":       e.Grade,
		"feedback":    e.Feedback,
	}
}

// AchievementAwardedEvent is emitted by the rating API when a score update
// earns a student new badges.
type AchievementAwardedEvent struct {
	BaseEvent
	StudentID      int      `json:"student_id"`
	AchievementIDs []string `json:"achievement_ids"`
}

// NewAchievementAwardedEvent creates an AchievementAwardedEvent.
func NewAchievementAwardedEvent(studentID int, ids []string) *AchievementAwardedEvent {
	return &AchievementAwardedEvent{
		BaseEvent:      NewBaseEvent(EventAchievementAwarded, strconv.Itoa(studentID)),
		StudentID:      studentID,
		AchievementIDs: ids,
	}
}

// Payload implements Event interface.
func (e *AchievementAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"student_id":      e.StudentID,
		"achievement_ids": e.AchievementIDs,
	}
}
