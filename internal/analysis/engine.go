// Package analysis implements the goal-conflict analysis engine. It
// classifies inbound activity events against a user's goals, maintains the
// per-day and per-week activity aggregates, and raises conflict messages.
package analysis

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"example.com/analysisengine/internal/cache"
	"example.com/analysisengine/internal/classify"
	"example.com/analysisengine/internal/domain"
	"example.com/analysisengine/internal/lockpool"
	"example.com/analysisengine/internal/observability"
	"example.com/analysisengine/internal/timeutil"
)

// Config carries the analysis tunables.
type Config struct {
	// UpdateSkipWindow is the gap below which a conflict event that adds no
	// new interval is folded into the prior one without a store write.
	UpdateSkipWindow time.Duration
	// ConflictInterval is the silence threshold after which a new conflict
	// episode (and message) is started instead of extending the last one.
	ConflictInterval time.Duration
	// DeviceClockSkewMargin bounds the device clock offset considered noise.
	DeviceClockSkewMargin time.Duration
}

// Engine orchestrates classification, interval merging, day/week store
// updates, cache maintenance, and conflict-message emission.
type Engine struct {
	users      domain.UserAnonymizedProvider
	goals      domain.GoalProvider
	classifier *classify.Classifier
	days       domain.DayActivityRepository
	weeks      domain.WeekActivityRepository
	cache      cache.LastActivityCache
	locks      *lockpool.Pool
	sink       domain.MessageSink
	cfg        Config
	now        func() time.Time
	logger     *log.Logger
}

// Option configures optional engine behaviour.
type Option func(*Engine)

// WithClock overrides the engine clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger overrides the engine logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine constructs an Engine. All collaborators are injected; the engine
// owns no global state.
func NewEngine(
	users domain.UserAnonymizedProvider,
	goals domain.GoalProvider,
	classifier *classify.Classifier,
	days domain.DayActivityRepository,
	weeks domain.WeekActivityRepository,
	lastActivity cache.LastActivityCache,
	locks *lockpool.Pool,
	sink domain.MessageSink,
	cfg Config,
	opts ...Option,
) *Engine {
	e := &Engine{
		users:      users,
		goals:      goals,
		classifier: classifier,
		days:       days,
		weeks:      weeks,
		cache:      lastActivity,
		locks:      locks,
		sink:       sink,
		cfg:        cfg,
		now:        time.Now,
		logger:     log.New(log.Writer(), "[analysis] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// payload is one normalized activity interval in the user's zone.
type payload struct {
	startTime   time.Time
	endTime     time.Time
	url         string
	application string
}

// Analyze evaluates one activity event for the anonymized user. Results are
// observed through store writes, cache updates, and emitted messages.
func (e *Engine) Analyze(ctx context.Context, userAnonymizedID uuid.UUID, event domain.ActivityEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	switch ev := event.(type) {
	case domain.NetworkActivity:
		return e.analyzeNetworkActivity(ctx, userAnonymizedID, ev)
	case domain.AppActivityBatch:
		return e.analyzeAppActivity(ctx, userAnonymizedID, ev)
	default:
		return fmt.Errorf("%w: unsupported event type %T", domain.ErrInvalidEvent, event)
	}
}

// RelevantCategoryTags returns the union of all tags across all known
// categories, for external event-source filters.
func (e *Engine) RelevantCategoryTags(ctx context.Context) ([]string, error) {
	return e.classifier.RelevantTags(ctx)
}

func (e *Engine) analyzeNetworkActivity(ctx context.Context, userAnonymizedID uuid.UUID, ev domain.NetworkActivity) error {
	user, err := e.users.GetUserAnonymized(ctx, userAnonymizedID)
	if err != nil {
		return err
	}

	categories, err := e.classifier.MatchingCategoriesForTags(ctx, ev.CategoryTags)
	if err != nil {
		return err
	}

	eventTime := e.now()
	if ev.EventTime != nil {
		eventTime = *ev.EventTime
	}
	eventTime = eventTime.In(user.Zone)

	recordNetworkEvent()
	return e.analyze(ctx, user, payload{
		startTime: eventTime,
		endTime:   eventTime,
		url:       ev.URL,
	}, categories)
}

func (e *Engine) analyzeAppActivity(ctx context.Context, userAnonymizedID uuid.UUID, batch domain.AppActivityBatch) error {
	user, err := e.users.GetUserAnonymized(ctx, userAnonymizedID)
	if err != nil {
		return err
	}

	offset := e.deviceTimeOffset(batch.DeviceDateTime)
	for _, record := range batch.Activities {
		categories, err := e.classifier.MatchingCategoriesForApp(ctx, record.Application)
		if err != nil {
			return err
		}

		recordAppEvent()
		err = e.analyze(ctx, user, payload{
			startTime:   record.StartTime.Add(offset).In(user.Zone),
			endTime:     record.EndTime.Add(offset).In(user.Zone),
			application: record.Application,
		}, categories)
		if err != nil {
			return err
		}
	}
	return nil
}

// deviceTimeOffset compensates for device clock skew. Offsets within the
// configured margin are treated as transmission latency, not skew.
func (e *Engine) deviceTimeOffset(deviceDateTime time.Time) time.Duration {
	offset := e.now().Sub(deviceDateTime)
	abs := offset
	if abs < 0 {
		abs = -abs
	}
	if abs <= e.cfg.DeviceClockSkewMargin {
		return 0
	}
	return offset
}

// analyze processes one normalized interval under the user's lock. Events
// matching no goal never touch cache, store, or messaging.
func (e *Engine) analyze(ctx context.Context, user *domain.UserAnonymized, p payload, categories []domain.ActivityCategory) error {
	goalInfos := classify.GoalsForCategories(user, categories)
	if len(goalInfos) == 0 {
		return nil
	}

	unlock := e.locks.Lock(user.ID)
	defer unlock()

	for _, info := range goalInfos {
		goal, err := e.goals.GetGoal(ctx, user.ID, info.ID)
		if err != nil {
			return err
		}
		if goal == nil {
			return fmt.Errorf("%w: goal %s for user %s matched category %s but does not exist",
				domain.ErrGoalConfiguration, info.ID, user.ID, info.ActivityCategoryID)
		}
		if !goal.AppliesAt(p.endTime) {
			// Activity predating goal creation is never evaluated.
			continue
		}
		if err := e.processGoalActivity(ctx, user, *goal, p); err != nil {
			return err
		}
	}
	return nil
}

// processGoalActivity applies the interval to a single goal: either extending
// the cached tail (ongoing episode, no new message) or recording a fresh
// activity (new episode, message on violation).
func (e *Engine) processGoalActivity(ctx context.Context, user *domain.UserAnonymized, goal domain.Goal, p payload) error {
	last, cached := e.cache.Fetch(user.ID, goal.ID)
	if cached {
		recordCacheHit()
	} else {
		recordCacheMiss()
	}

	if cached && e.canCombine(user, p, last) {
		if e.withinSkipWindow(p, last) && !p.endTime.After(last.EndTime) {
			// Duplicate inside the skip window adds no interval; fold it.
			recordDuplicateFolded()
			return nil
		}
		return e.extendLastActivity(ctx, user, goal, p, last)
	}
	return e.addActivity(ctx, user, goal, p, last, cached)
}

// canCombine decides whether the interval is forward-contiguous growth of the
// cached tail. Out-of-order intervals are never combined: coalescing
// overlapping but disjoint intervals has not been implemented.
func (e *Engine) canCombine(user *domain.UserAnonymized, p payload, last cache.Entry) bool {
	if p.startTime.Before(last.StartTime) {
		return false
	}
	if !timeutil.SameLocalDay(p.startTime, last.EndTime, user.Zone) {
		return false
	}
	return p.startTime.Sub(last.EndTime) <= e.cfg.ConflictInterval
}

func (e *Engine) withinSkipWindow(p payload, last cache.Entry) bool {
	return p.startTime.Sub(last.EndTime) < e.cfg.UpdateSkipWindow
}

// extendLastActivity moves the end of the day's last activity forward and
// refreshes the cache. The episode is still ongoing, so no message is sent
// for the extension itself. An end past local midnight is capped at the day
// boundary; the remainder is recorded as a fresh activity on the new day,
// which starts its own episode.
func (e *Engine) extendLastActivity(ctx context.Context, user *domain.UserAnonymized, goal domain.Goal, p payload, last cache.Entry) error {
	day, err := e.days.FindOne(ctx, user.ID, timeutil.StartOfDay(last.EndTime.In(user.Zone)), goal.ID)
	if err != nil {
		return err
	}
	if day == nil || day.LastActivity() == nil {
		// Cache ran ahead of the store; fall back to recording fresh.
		e.logger.Printf("cached activity without stored day (user=%s, goal=%s)", user.ID, goal.ID)
		return e.addActivity(ctx, user, goal, p, last, true)
	}

	activity := day.LastActivity()
	end := p.endTime.In(user.Zone)
	boundary := timeutil.NextDayStart(activity.StartTime)
	overflows := end.After(boundary)
	if overflows {
		end = boundary.Add(-time.Second)
	}
	if end.After(activity.EndTime) {
		activity.EndTime = end
	}
	day.Recompute(goal)

	if err := e.days.Save(ctx, day); err != nil {
		return err
	}
	if err := e.updateWeekActivity(ctx, user, day); err != nil {
		return err
	}

	tail := cache.Entry{
		StartTime: activity.StartTime,
		EndTime:   activity.EndTime,
		Zone:      user.Zone,
	}
	e.cache.Update(user.ID, goal.ID, tail)
	observability.RecordActivityRecorded(activity.EndTime)

	if overflows {
		rest := payload{
			startTime:   boundary,
			endTime:     p.endTime.In(user.Zone),
			url:         p.url,
			application: p.application,
		}
		return e.addActivity(ctx, user, goal, rest, tail, true)
	}
	return nil
}

// addActivity records a new activity, splitting at local midnight so that no
// stored interval spans more than one calendar day, and starts a new conflict
// episode when the goal is violated.
func (e *Engine) addActivity(ctx context.Context, user *domain.UserAnonymized, goal domain.Goal, p payload, last cache.Entry, cached bool) error {
	var lastDay *domain.DayActivity
	for _, slice := range splitPerDay(p, user.Zone) {
		date := timeutil.StartOfDay(slice.startTime)

		day, err := e.days.FindOne(ctx, user.ID, date, goal.ID)
		if err != nil {
			return err
		}
		if day == nil {
			day = domain.NewDayActivity(user.ID, goal.ID, user.Zone, date)
			// A newly started day is observed as a create followed by an update.
			if err := e.days.Save(ctx, day); err != nil {
				return err
			}
		}

		activity := domain.NewActivity(slice.startTime, slice.endTime, p.url, p.application)
		day.AddActivity(activity)
		day.Recompute(goal)
		if err := e.days.Save(ctx, day); err != nil {
			return err
		}
		if err := e.updateWeekActivity(ctx, user, day); err != nil {
			return err
		}

		// Never move the cached tail backward: a backfilled earlier interval
		// stays out of the cache.
		if !cached || !slice.endTime.Before(last.EndTime) {
			e.cache.Update(user.ID, goal.ID, cache.Entry{
				StartTime: activity.StartTime,
				EndTime:   activity.EndTime,
				Zone:      user.Zone,
			})
		}
		observability.RecordActivityRecorded(slice.endTime)
		lastDay = day
	}

	// The conflict decision is made once against the whole interval.
	evaluation := goal.Evaluate(lastDay.TotalDuration(), p.startTime, p.endTime)
	if !evaluation.Violation {
		return nil
	}

	message := domain.NewGoalConflictMessage(user.ID, goal.ID, p.url, p.application, p.startTime, p.endTime, e.now())
	if err := e.sink.SendAndFlush(ctx, message, user.AnonymousDestination); err != nil {
		return err
	}
	recordConflictRaised()
	observability.RecordConflictRaised(message.CreatedAt)
	return nil
}

func (e *Engine) updateWeekActivity(ctx context.Context, user *domain.UserAnonymized, day *domain.DayActivity) error {
	weekStart := timeutil.StartOfWeek(day.Date)
	week, err := e.weeks.FindOne(ctx, user.ID, weekStart, day.GoalID)
	if err != nil {
		return err
	}
	if week == nil {
		week = domain.NewWeekActivity(user.ID, day.GoalID, user.Zone, weekStart)
	}
	week.ApplyDay(day)
	return e.weeks.Save(ctx, week)
}

// splitPerDay cuts the interval at local-midnight boundaries. The earlier
// slice ends one second before midnight; the continuation starts at midnight.
// An end time exactly at midnight belongs to the day that is ending.
func splitPerDay(p payload, loc *time.Location) []payload {
	start := p.startTime.In(loc)
	end := p.endTime.In(loc)

	var slices []payload
	for {
		next := timeutil.NextDayStart(start)
		if !end.After(next) {
			break
		}
		slices = append(slices, payload{
			startTime:   start,
			endTime:     next.Add(-time.Second),
			url:         p.url,
			application: p.application,
		})
		start = next
	}
	return append(slices, payload{
		startTime:   start,
		endTime:     end,
		url:         p.url,
		application: p.application,
	})
}
