//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/analysisengine/internal/domain"
	"example.com/analysisengine/internal/timeutil"
)

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("analysis"),
		postgrescontainer.WithUsername("analysis"),
		postgrescontainer.WithPassword("analysis"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	require.NoError(t, Migrate(ctx, pool))

	repo := NewRepository(pool)

	zone, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)

	userID := uuid.New()
	categoryID := uuid.New()
	goalID := uuid.New()
	destination := uuid.New()

	_, err = pool.Exec(ctx,
		`INSERT INTO user_anonymized (user_anonymized_id, time_zone, anonymous_destination_id) VALUES ($1,$2,$3)`,
		userID, zone.String(), destination)
	require.NoError(t, err)

	_, err = pool.Exec(ctx,
		`INSERT INTO activity_categories (category_id, name, tags, applications) VALUES ($1,$2,$3,$4)`,
		categoryID, "gambling", []string{"poker", "lotto"}, []string{"Lotto App"})
	require.NoError(t, err)

	_, err = pool.Exec(ctx,
		`INSERT INTO goals (goal_id, user_anonymized_id, category_id, kind, created_at, max_duration_minutes, allowed_windows)
         VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		goalID, userID, categoryID, string(domain.GoalKindNoGo), time.Now().Add(-24*time.Hour), 0, "[]")
	require.NoError(t, err)

	user, err := repo.GetUserAnonymized(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, zone.String(), user.Zone.String())
	require.Equal(t, destination, user.AnonymousDestination)
	require.Len(t, user.Goals, 1)
	require.Equal(t, goalID, user.Goals[0].ID)

	goal, err := repo.GetGoal(ctx, userID, goalID)
	require.NoError(t, err)
	require.NotNil(t, goal)
	require.Equal(t, domain.GoalKindNoGo, goal.Kind)

	missing, err := repo.GetGoal(ctx, userID, uuid.New())
	require.NoError(t, err)
	require.Nil(t, missing)

	categories, err := repo.GetAllActivityCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	require.ElementsMatch(t, []string{"poker", "lotto"}, categories[0].Tags)

	start := time.Date(2026, 8, 29, 20, 15, 0, 0, zone)
	date := timeutil.StartOfDay(start)

	day := domain.NewDayActivity(userID, goalID, zone, date)
	day.AddActivity(domain.NewActivity(start, start.Add(10*time.Minute), "http://poker.example", ""))
	require.NoError(t, repo.Save(ctx, day))

	stored, err := repo.FindOne(ctx, userID, date, goalID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Len(t, stored.Activities, 1)
	require.Equal(t, 10*time.Minute, stored.TotalDuration())
	require.True(t, stored.Date.Equal(date))

	absent, err := repo.FindOne(ctx, userID, date.AddDate(0, 0, 1), goalID)
	require.NoError(t, err)
	require.Nil(t, absent)

	// Save is an upsert: extending the day replaces the row in place.
	stored.LastActivity().EndTime = start.Add(25 * time.Minute)
	require.NoError(t, repo.Save(ctx, stored))

	extended, err := repo.FindOne(ctx, userID, date, goalID)
	require.NoError(t, err)
	require.Equal(t, 25*time.Minute, extended.TotalDuration())

	weekStart := timeutil.StartOfWeek(date)
	week := domain.NewWeekActivity(userID, goalID, zone, weekStart)
	week.ApplyDay(extended)
	require.NoError(t, repo.SaveWeek(ctx, week))

	storedWeek, err := repo.FindOneWeek(ctx, userID, weekStart, goalID)
	require.NoError(t, err)
	require.NotNil(t, storedWeek)
	require.Equal(t, 25*time.Minute, storedWeek.TotalDuration())
}

func TestRepositoryUnknownUser(t *testing.T) {
	ctx := context.Background()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("analysis"),
		postgrescontainer.WithUsername("analysis"),
		postgrescontainer.WithPassword("analysis"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	require.NoError(t, Migrate(ctx, pool))

	_, err = NewRepository(pool).GetUserAnonymized(ctx, uuid.New())
	require.ErrorIs(t, err, domain.ErrUserAnonymizedNotFound)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
