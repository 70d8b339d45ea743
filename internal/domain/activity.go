package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SpreadBuckets is the number of 15-minute buckets in a day's activity spread.
const SpreadBuckets = 96

// Activity is one contiguous time interval attributed to one goal of one
// anonymized user. An Activity never spans a local-day boundary; crossing
// midnight forces a split into two records.
type Activity struct {
	ID          uuid.UUID `json:"id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	URL         string    `json:"url,omitempty"`
	Application string    `json:"application,omitempty"`
}

// NewActivity constructs an Activity for [start, end].
func NewActivity(start, end time.Time, url, application string) Activity {
	return Activity{
		ID:          uuid.New(),
		StartTime:   start,
		EndTime:     end,
		URL:         url,
		Application: application,
	}
}

// Duration returns the interval length.
func (a Activity) Duration() time.Duration {
	return a.EndTime.Sub(a.StartTime)
}

// DayActivity aggregates all Activities of one (user, goal, local day, zone).
// It is created lazily on the first activity of the day and mutated in place
// afterwards; the analysis engine never deletes it.
type DayActivity struct {
	UserAnonymizedID uuid.UUID
	GoalID           uuid.UUID
	// Date is local midnight of the day in Zone.
	Date       time.Time
	Zone       *time.Location
	Activities []Activity

	GoalAccomplished  bool
	OverBudgetMinutes int
}

// NewDayActivity constructs an empty DayActivity for the given local day.
func NewDayActivity(userAnonymizedID, goalID uuid.UUID, zone *time.Location, date time.Time) *DayActivity {
	return &DayActivity{
		UserAnonymizedID: userAnonymizedID,
		GoalID:           goalID,
		Date:             date,
		Zone:             zone,
		GoalAccomplished: true,
	}
}

// AddActivity appends an activity to the day.
func (d *DayActivity) AddActivity(a Activity) {
	d.Activities = append(d.Activities, a)
}

// LastActivity returns the most recently added activity, or nil for an empty day.
func (d *DayActivity) LastActivity() *Activity {
	if len(d.Activities) == 0 {
		return nil
	}
	return &d.Activities[len(d.Activities)-1]
}

// TotalDuration sums the durations of all activities of the day.
func (d *DayActivity) TotalDuration() time.Duration {
	var total time.Duration
	for _, a := range d.Activities {
		total += a.Duration()
	}
	return total
}

// Spread distributes the day's activity over 96 fifteen-minute buckets,
// each holding the covered minutes within that bucket. Coverage accumulates
// in seconds and rounds up per bucket, so sub-minute activity still shows;
// a zero-length interval marks the bucket it falls in.
func (d *DayActivity) Spread() []int {
	covered := make([]time.Duration, SpreadBuckets)
	for _, a := range d.Activities {
		start := a.StartTime.Sub(d.Date)
		end := a.EndTime.Sub(d.Date)
		if end == start {
			end = start + time.Second
		}
		if start < 0 {
			start = 0
		}
		if end > 24*time.Hour {
			end = 24 * time.Hour
		}
		for bucket := 0; bucket < SpreadBuckets; bucket++ {
			bucketStart := time.Duration(bucket) * 15 * time.Minute
			bucketEnd := bucketStart + 15*time.Minute
			overlapStart := maxDuration(start, bucketStart)
			overlapEnd := minDuration(end, bucketEnd)
			if overlapEnd > overlapStart {
				covered[bucket] += overlapEnd - overlapStart
			}
		}
	}

	spread := make([]int, SpreadBuckets)
	for bucket, c := range covered {
		minutes := int((c + time.Minute - 1) / time.Minute)
		if minutes > 15 {
			minutes = 15
		}
		spread[bucket] = minutes
	}
	return spread
}

// Recompute refreshes the derived accomplishment fields against the goal.
func (d *DayActivity) Recompute(goal Goal) {
	total := d.TotalDuration()
	switch goal.Kind {
	case GoalKindNoGo:
		d.GoalAccomplished = total == 0
		d.OverBudgetMinutes = int(total.Minutes())
	case GoalKindBudget:
		budget := time.Duration(goal.MaxDurationMinutes) * time.Minute
		d.GoalAccomplished = total <= budget
		if total > budget {
			d.OverBudgetMinutes = int((total - budget).Minutes())
		} else {
			d.OverBudgetMinutes = 0
		}
	case GoalKindTimeZone:
		accomplished := true
		for _, a := range d.Activities {
			if goal.Evaluate(0, a.StartTime, a.EndTime).Violation {
				accomplished = false
				break
			}
		}
		d.GoalAccomplished = accomplished
		d.OverBudgetMinutes = 0
	}
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

// WeekActivity is the weekly roll-up for one (user, goal, ISO week, zone).
// It is refreshed whenever one of its underlying days changes.
type WeekActivity struct {
	UserAnonymizedID uuid.UUID
	GoalID           uuid.UUID
	// WeekStart is local Monday midnight of the ISO week in Zone.
	WeekStart time.Time
	Zone      *time.Location
	// DayTotals maps ISO weekday index (0=Monday) to that day's total.
	DayTotals map[int]time.Duration
}

// NewWeekActivity constructs an empty WeekActivity.
func NewWeekActivity(userAnonymizedID, goalID uuid.UUID, zone *time.Location, weekStart time.Time) *WeekActivity {
	return &WeekActivity{
		UserAnonymizedID: userAnonymizedID,
		GoalID:           goalID,
		WeekStart:        weekStart,
		Zone:             zone,
		DayTotals:        make(map[int]time.Duration),
	}
}

// ApplyDay records the day's current total into the week.
func (w *WeekActivity) ApplyDay(day *DayActivity) {
	if w.DayTotals == nil {
		w.DayTotals = make(map[int]time.Duration)
	}
	w.DayTotals[isoWeekdayIndex(day.Date)] = day.TotalDuration()
}

// TotalDuration sums the totals of all recorded days of the week.
func (w *WeekActivity) TotalDuration() time.Duration {
	var total time.Duration
	for _, d := range w.DayTotals {
		total += d
	}
	return total
}

func isoWeekdayIndex(t time.Time) int {
	// time.Weekday numbers Sunday as 0; ISO weeks start on Monday.
	return (int(t.Weekday()) + 6) % 7
}

// DayActivityRepository is the backing store for per-day aggregates. The
// store is authoritative; the activity cache is only an optimization.
type DayActivityRepository interface {
	// FindOne returns the DayActivity for (user, local day, goal), or nil when absent.
	FindOne(ctx context.Context, userAnonymizedID uuid.UUID, date time.Time, goalID uuid.UUID) (*DayActivity, error)
	Save(ctx context.Context, day *DayActivity) error
}

// WeekActivityRepository is the backing store for weekly roll-ups.
type WeekActivityRepository interface {
	FindOne(ctx context.Context, userAnonymizedID uuid.UUID, weekStart time.Time, goalID uuid.UUID) (*WeekActivity, error)
	Save(ctx context.Context, week *WeekActivity) error
}
