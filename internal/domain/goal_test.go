package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseTimeWindow(t *testing.T) {
	tests := []struct {
		input   string
		want    TimeWindow
		wantErr bool
	}{
		{input: "09:00-17:00", want: TimeWindow{FromMinute: 540, ToMinute: 1020}},
		{input: "00:00-24:00", want: TimeWindow{FromMinute: 0, ToMinute: 1440}},
		{input: "17:00-09:00", wantErr: true},
		{input: "09:00-25:00", wantErr: true},
		{input: "garbage", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			window, err := ParseTimeWindow(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, window)
		})
	}
}

func TestGoalAppliesAt(t *testing.T) {
	createdAt := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	goal := Goal{Kind: GoalKindNoGo, CreatedAt: createdAt}

	require.True(t, goal.AppliesAt(createdAt))
	require.True(t, goal.AppliesAt(createdAt.Add(time.Hour)))
	require.False(t, goal.AppliesAt(createdAt.Add(-time.Second)))
}

func TestEvaluateNoGo(t *testing.T) {
	goal := Goal{Kind: GoalKindNoGo}
	now := time.Now()

	eval := goal.Evaluate(10*time.Minute, now, now.Add(10*time.Minute))
	require.True(t, eval.Violation)
	require.False(t, eval.Accomplished)
}

func TestEvaluateBudget(t *testing.T) {
	goal := Goal{Kind: GoalKindBudget, MaxDurationMinutes: 60}
	now := time.Now()

	within := goal.Evaluate(30*time.Minute, now, now)
	require.False(t, within.Violation)
	require.True(t, within.Accomplished)
	require.Equal(t, 30*time.Minute, within.RemainingBudget)

	over := goal.Evaluate(90*time.Minute, now, now)
	require.True(t, over.Violation)
	require.Equal(t, -30*time.Minute, over.RemainingBudget)
}

func TestEvaluateTimeZone(t *testing.T) {
	window, err := ParseTimeWindow("09:00-17:00")
	require.NoError(t, err)
	goal := Goal{Kind: GoalKindTimeZone, AllowedWindows: []TimeWindow{window}}

	inside := goal.Evaluate(0,
		time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 25, 11, 0, 0, 0, time.UTC))
	require.False(t, inside.Violation)

	outside := goal.Evaluate(0,
		time.Date(2026, 8, 25, 18, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 25, 19, 0, 0, 0, time.UTC))
	require.True(t, outside.Violation)

	straddling := goal.Evaluate(0,
		time.Date(2026, 8, 25, 16, 30, 0, 0, time.UTC),
		time.Date(2026, 8, 25, 17, 30, 0, 0, time.UTC))
	require.True(t, straddling.Violation)
}

func TestEvaluateTimeZoneWithoutWindows(t *testing.T) {
	goal := Goal{Kind: GoalKindTimeZone}
	now := time.Now()

	eval := goal.Evaluate(time.Hour, now, now.Add(time.Hour))
	require.False(t, eval.Violation)
	require.True(t, eval.Accomplished)
}
