package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MessageKind discriminates message subtypes for sink dispatch.
type MessageKind string

// MessageKindGoalConflict identifies goal conflict notifications.
const MessageKindGoalConflict MessageKind = "goal_conflict"

// Message is a notification that can be appended to a message destination.
type Message interface {
	Kind() MessageKind
	MessageID() uuid.UUID
}

// GoalConflictMessage notifies that observed activity violated a goal. One
// message represents one conflict episode; closely spaced follow-up activity
// extends the episode instead of creating a new message.
type GoalConflictMessage struct {
	ID                      uuid.UUID `json:"id"`
	RelatedUserAnonymizedID uuid.UUID `json:"related_user_anonymized_id"`
	GoalID                  uuid.UUID `json:"goal_id"`
	URL                     string    `json:"url,omitempty"`
	Application             string    `json:"application,omitempty"`
	ActivityStartTime       time.Time `json:"activity_start_time"`
	ActivityEndTime         time.Time `json:"activity_end_time"`
	CreatedAt               time.Time `json:"created_at"`
}

// NewGoalConflictMessage constructs a conflict message for a violated goal.
func NewGoalConflictMessage(userAnonymizedID, goalID uuid.UUID, url, application string, start, end, createdAt time.Time) GoalConflictMessage {
	return GoalConflictMessage{
		ID:                      uuid.New(),
		RelatedUserAnonymizedID: userAnonymizedID,
		GoalID:                  goalID,
		URL:                     url,
		Application:             application,
		ActivityStartTime:       start,
		ActivityEndTime:         end,
		CreatedAt:               createdAt,
	}
}

// Kind implements Message.
func (GoalConflictMessage) Kind() MessageKind { return MessageKindGoalConflict }

// MessageID implements Message.
func (m GoalConflictMessage) MessageID() uuid.UUID { return m.ID }

// MessageSink appends messages to the addressed destination. Delivery and
// read semantics are the sink's concern.
type MessageSink interface {
	SendAndFlush(ctx context.Context, msg Message, destination uuid.UUID) error
}
