// Package postgres provides the Postgres-backed activity store and the
// user/goal/category providers.
package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/analysisengine/internal/domain"
)

//go:embed schema.sql
var schema string

// Migrate applies the schema. Statements are idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}

// Repository provides Postgres-backed persistence for day/week activity
// aggregates and read access to user, goal, and category configuration.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const dateLayout = "2006-01-02"

type activityRecord struct {
	ID          string    `json:"id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	URL         string    `json:"url,omitempty"`
	Application string    `json:"application,omitempty"`
}

// FindOne implements domain.DayActivityRepository.
func (r *Repository) FindOne(ctx context.Context, userAnonymizedID uuid.UUID, date time.Time, goalID uuid.UUID) (*domain.DayActivity, error) {
	const query = `SELECT time_zone, activities, goal_accomplished, over_budget_minutes
        FROM day_activities WHERE user_anonymized_id=$1 AND goal_id=$2 AND activity_date=$3`

	var (
		zoneName     string
		activitiesJS []byte
		accomplished bool
		overBudget   int
	)
	row := r.pool.QueryRow(ctx, query, userAnonymizedID, goalID, date.Format(dateLayout))
	if err := row.Scan(&zoneName, &activitiesJS, &accomplished, &overBudget); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	zone, err := time.LoadLocation(zoneName)
	if err != nil {
		return nil, fmt.Errorf("load zone %q: %w", zoneName, err)
	}

	var records []activityRecord
	if err := json.Unmarshal(activitiesJS, &records); err != nil {
		return nil, fmt.Errorf("decode activities: %w", err)
	}

	day := &domain.DayActivity{
		UserAnonymizedID:  userAnonymizedID,
		GoalID:            goalID,
		Date:              localMidnight(date, zone),
		Zone:              zone,
		GoalAccomplished:  accomplished,
		OverBudgetMinutes: overBudget,
	}
	for _, rec := range records {
		id, err := uuid.Parse(rec.ID)
		if err != nil {
			return nil, fmt.Errorf("decode activity id: %w", err)
		}
		day.Activities = append(day.Activities, domain.Activity{
			ID:          id,
			StartTime:   rec.StartTime.In(zone),
			EndTime:     rec.EndTime.In(zone),
			URL:         rec.URL,
			Application: rec.Application,
		})
	}
	return day, nil
}

// Save implements domain.DayActivityRepository as an upsert.
func (r *Repository) Save(ctx context.Context, day *domain.DayActivity) error {
	records := make([]activityRecord, 0, len(day.Activities))
	for _, a := range day.Activities {
		records = append(records, activityRecord{
			ID:          a.ID.String(),
			StartTime:   a.StartTime,
			EndTime:     a.EndTime,
			URL:         a.URL,
			Application: a.Application,
		})
	}
	activitiesJS, err := json.Marshal(records)
	if err != nil {
		return err
	}
	spreadJS, err := json.Marshal(day.Spread())
	if err != nil {
		return err
	}

	const stmt = `INSERT INTO day_activities
        (user_anonymized_id, goal_id, activity_date, time_zone, activities, total_seconds, goal_accomplished, over_budget_minutes, spread)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (user_anonymized_id, goal_id, activity_date) DO UPDATE SET
            activities=EXCLUDED.activities,
            total_seconds=EXCLUDED.total_seconds,
            goal_accomplished=EXCLUDED.goal_accomplished,
            over_budget_minutes=EXCLUDED.over_budget_minutes,
            spread=EXCLUDED.spread,
            updated_at=now()`

	_, err = r.pool.Exec(ctx, stmt,
		day.UserAnonymizedID,
		day.GoalID,
		day.Date.Format(dateLayout),
		day.Zone.String(),
		activitiesJS,
		int64(day.TotalDuration().Seconds()),
		day.GoalAccomplished,
		day.OverBudgetMinutes,
		spreadJS,
	)
	return err
}

// FindOneWeek returns the WeekActivity for (user, week start, goal), or nil.
func (r *Repository) FindOneWeek(ctx context.Context, userAnonymizedID uuid.UUID, weekStart time.Time, goalID uuid.UUID) (*domain.WeekActivity, error) {
	const query = `SELECT time_zone, day_totals
        FROM week_activities WHERE user_anonymized_id=$1 AND goal_id=$2 AND week_start=$3`

	var (
		zoneName    string
		dayTotalsJS []byte
	)
	row := r.pool.QueryRow(ctx, query, userAnonymizedID, goalID, weekStart.Format(dateLayout))
	if err := row.Scan(&zoneName, &dayTotalsJS); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	zone, err := time.LoadLocation(zoneName)
	if err != nil {
		return nil, fmt.Errorf("load zone %q: %w", zoneName, err)
	}

	var seconds map[string]int64
	if err := json.Unmarshal(dayTotalsJS, &seconds); err != nil {
		return nil, fmt.Errorf("decode day totals: %w", err)
	}
	week := domain.NewWeekActivity(userAnonymizedID, goalID, zone, localMidnight(weekStart, zone))
	for dayIndex, secs := range seconds {
		idx, err := strconv.Atoi(dayIndex)
		if err != nil {
			return nil, fmt.Errorf("decode day index %q: %w", dayIndex, err)
		}
		week.DayTotals[idx] = time.Duration(secs) * time.Second
	}
	return week, nil
}

// SaveWeek upserts the WeekActivity row.
func (r *Repository) SaveWeek(ctx context.Context, week *domain.WeekActivity) error {
	seconds := make(map[string]int64, len(week.DayTotals))
	for idx, total := range week.DayTotals {
		seconds[strconv.Itoa(idx)] = int64(total.Seconds())
	}
	dayTotalsJS, err := json.Marshal(seconds)
	if err != nil {
		return err
	}

	const stmt = `INSERT INTO week_activities
        (user_anonymized_id, goal_id, week_start, time_zone, day_totals, total_seconds)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (user_anonymized_id, goal_id, week_start) DO UPDATE SET
            day_totals=EXCLUDED.day_totals,
            total_seconds=EXCLUDED.total_seconds,
            updated_at=now()`

	_, err = r.pool.Exec(ctx, stmt,
		week.UserAnonymizedID,
		week.GoalID,
		week.WeekStart.Format(dateLayout),
		week.Zone.String(),
		dayTotalsJS,
		int64(week.TotalDuration().Seconds()),
	)
	return err
}

// GetUserAnonymized implements domain.UserAnonymizedProvider.
func (r *Repository) GetUserAnonymized(ctx context.Context, id uuid.UUID) (*domain.UserAnonymized, error) {
	const userQuery = `SELECT time_zone, anonymous_destination_id FROM user_anonymized WHERE user_anonymized_id=$1`

	var (
		zoneName    string
		destination uuid.UUID
	)
	if err := r.pool.QueryRow(ctx, userQuery, id).Scan(&zoneName, &destination); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUserAnonymizedNotFound, id)
		}
		return nil, err
	}

	zone, err := time.LoadLocation(zoneName)
	if err != nil {
		return nil, fmt.Errorf("load zone %q: %w", zoneName, err)
	}

	const goalQuery = `SELECT goal_id, category_id FROM goals WHERE user_anonymized_id=$1`
	rows, err := r.pool.Query(ctx, goalQuery, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	user := &domain.UserAnonymized{ID: id, Zone: zone, AnonymousDestination: destination}
	for rows.Next() {
		var info domain.GoalInfo
		if err := rows.Scan(&info.ID, &info.ActivityCategoryID); err != nil {
			return nil, err
		}
		user.Goals = append(user.Goals, info)
	}
	return user, rows.Err()
}

// GetGoal implements domain.GoalProvider.
func (r *Repository) GetGoal(ctx context.Context, userAnonymizedID, goalID uuid.UUID) (*domain.Goal, error) {
	const query = `SELECT category_id, kind, created_at, max_duration_minutes, allowed_windows
        FROM goals WHERE user_anonymized_id=$1 AND goal_id=$2`

	var (
		goal      domain.Goal
		kind      string
		windowsJS []byte
	)
	row := r.pool.QueryRow(ctx, query, userAnonymizedID, goalID)
	if err := row.Scan(&goal.ActivityCategoryID, &kind, &goal.CreatedAt, &goal.MaxDurationMinutes, &windowsJS); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(windowsJS, &goal.AllowedWindows); err != nil {
		return nil, fmt.Errorf("decode allowed windows: %w", err)
	}
	goal.ID = goalID
	goal.Kind = domain.GoalKind(kind)
	return &goal, nil
}

// GetAllActivityCategories implements domain.ActivityCategoryProvider.
func (r *Repository) GetAllActivityCategories(ctx context.Context) ([]domain.ActivityCategory, error) {
	const query = `SELECT category_id, name, tags, applications FROM activity_categories`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []domain.ActivityCategory
	for rows.Next() {
		var category domain.ActivityCategory
		if err := rows.Scan(&category.ID, &category.Name, &category.Tags, &category.Applications); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func localMidnight(t time.Time, zone *time.Location) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, zone)
}

// weekStore adapts Repository to domain.WeekActivityRepository.
type weekStore struct{ repo *Repository }

// WeekStore returns the week-activity view of the repository.
func (r *Repository) WeekStore() domain.WeekActivityRepository {
	return weekStore{repo: r}
}

// FindOne implements domain.WeekActivityRepository.
func (w weekStore) FindOne(ctx context.Context, userAnonymizedID uuid.UUID, weekStart time.Time, goalID uuid.UUID) (*domain.WeekActivity, error) {
	return w.repo.FindOneWeek(ctx, userAnonymizedID, weekStart, goalID)
}

// Save implements domain.WeekActivityRepository.
func (w weekStore) Save(ctx context.Context, week *domain.WeekActivity) error {
	return w.repo.SaveWeek(ctx, week)
}
