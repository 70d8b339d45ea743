// Package events defines the wire payloads exchanged with event sources and
// the message sink.
package events

import "time"

// Event types carried in the `event_type` Kafka header and HTTP payloads.
const (
	TypeNetworkActivityObserved = "activity.network.observed"
	TypeAppActivityReported     = "activity.app.reported"
	TypeGoalConflictRaised      = "analysis.goal_conflict.raised"
)

// NetworkActivityObserved reports one URL access with content-filter tags.
type NetworkActivityObserved struct {
	CategoryTags []string   `json:"category_tags"`
	URL          string     `json:"url"`
	EventTime    *time.Time `json:"event_time,omitempty"`
}

// AppActivityEntry is one application usage interval.
type AppActivityEntry struct {
	Application string    `json:"application"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

// AppActivityReported carries a batch of app usage intervals with the
// device's clock reading for skew correction.
type AppActivityReported struct {
	DeviceDateTime time.Time          `json:"device_date_time"`
	Activities     []AppActivityEntry `json:"activities"`
}

// GoalConflictRaised is the outbound conflict notification payload.
type GoalConflictRaised struct {
	MessageID               string    `json:"message_id"`
	RelatedUserAnonymizedID string    `json:"related_user_anonymized_id"`
	GoalID                  string    `json:"goal_id"`
	URL                     string    `json:"url,omitempty"`
	Application             string    `json:"application,omitempty"`
	ActivityStartTime       time.Time `json:"activity_start_time"`
	ActivityEndTime         time.Time `json:"activity_end_time"`
	CreatedAt               time.Time `json:"created_at"`
}
