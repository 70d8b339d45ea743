package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// GoalKind discriminates the goal variants. Violation logic is dispatched by
// kind through Goal.Evaluate rather than through subtypes.
type GoalKind string

const (
	// GoalKindNoGo is a hard restriction: any activity is a violation.
	GoalKindNoGo GoalKind = "no_go"
	// GoalKindBudget allows up to MaxDurationMinutes of activity per day.
	GoalKindBudget GoalKind = "time_budget"
	// GoalKindTimeZone restricts activity to configured local-time windows.
	GoalKindTimeZone GoalKind = "time_zone"
)

// TimeWindow is an allowed daily window expressed in minutes from local midnight.
type TimeWindow struct {
	FromMinute int `json:"from_minute"`
	ToMinute   int `json:"to_minute"`
}

// ParseTimeWindow parses the "HH:MM-HH:MM" notation used in goal configuration.
func ParseTimeWindow(s string) (TimeWindow, error) {
	var fromHour, fromMin, toHour, toMin int
	if _, err := fmt.Sscanf(s, "%d:%d-%d:%d", &fromHour, &fromMin, &toHour, &toMin); err != nil {
		return TimeWindow{}, fmt.Errorf("invalid time window %q: %v", s, err)
	}
	window := TimeWindow{FromMinute: fromHour*60 + fromMin, ToMinute: toHour*60 + toMin}
	if window.FromMinute < 0 || window.ToMinute > 24*60 || window.ToMinute < window.FromMinute {
		return TimeWindow{}, fmt.Errorf("invalid time window %q", s)
	}
	return window, nil
}

// contains reports whether both local-time offsets fall inside the window.
func (w TimeWindow) contains(fromMinute, toMinute int) bool {
	return fromMinute >= w.FromMinute && toMinute <= w.ToMinute
}

// Goal is a configured behavioral restriction owned by one anonymized user
// and tied to exactly one activity category. Identity is immutable; policy
// fields may change over the goal's life.
type Goal struct {
	ID                 uuid.UUID
	ActivityCategoryID uuid.UUID
	Kind               GoalKind
	// CreatedAt bounds evaluation: activity before goal creation is never
	// evaluated against it.
	CreatedAt          time.Time
	MaxDurationMinutes int
	AllowedWindows     []TimeWindow
}

// Evaluation is the outcome of matching an activity interval against a goal.
type Evaluation struct {
	Violation       bool
	Accomplished    bool
	RemainingBudget time.Duration
}

// AppliesAt reports whether the goal existed at the given instant.
func (g Goal) AppliesAt(t time.Time) bool {
	return !t.Before(g.CreatedAt)
}

// Evaluate determines whether the interval [start, end], with dayTotal being
// the day's accumulated duration including this interval, violates the goal.
func (g Goal) Evaluate(dayTotal time.Duration, start, end time.Time) Evaluation {
	switch g.Kind {
	case GoalKindNoGo:
		return Evaluation{Violation: true, Accomplished: dayTotal == 0}
	case GoalKindBudget:
		budget := time.Duration(g.MaxDurationMinutes) * time.Minute
		over := dayTotal > budget
		return Evaluation{Violation: over, Accomplished: !over, RemainingBudget: budget - dayTotal}
	case GoalKindTimeZone:
		// A time-zone goal with no configured windows imposes no restriction.
		if len(g.AllowedWindows) == 0 {
			return Evaluation{Accomplished: true}
		}
		fromMinute := start.Hour()*60 + start.Minute()
		toMinute := end.Hour()*60 + end.Minute()
		for _, window := range g.AllowedWindows {
			if window.contains(fromMinute, toMinute) {
				return Evaluation{Accomplished: true}
			}
		}
		return Evaluation{Violation: true}
	default:
		return Evaluation{Accomplished: true}
	}
}

// MarshalWindows encodes the allowed windows for storage.
func (g Goal) MarshalWindows() ([]byte, error) {
	if g.AllowedWindows == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(g.AllowedWindows)
}
