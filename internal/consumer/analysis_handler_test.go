package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"example.com/analysisengine/internal/domain"
	"example.com/analysisengine/internal/events"
)

type stubAnalyzer struct {
	calls  int
	lastID uuid.UUID
	last   domain.ActivityEvent
	err    error
}

func (a *stubAnalyzer) Analyze(_ context.Context, userAnonymizedID uuid.UUID, event domain.ActivityEvent) error {
	a.calls++
	a.lastID = userAnonymizedID
	a.last = event
	return a.err
}

func networkMessage(t *testing.T, userAnonymizedID uuid.UUID) Message {
	t.Helper()
	payload, err := json.Marshal(events.NetworkActivityObserved{
		CategoryTags: []string{"poker"},
		URL:          "http://poker.example",
	})
	require.NoError(t, err)
	return Message{
		Topic:            "network_activity_events",
		EventType:        events.TypeNetworkActivityObserved,
		UserAnonymizedID: userAnonymizedID.String(),
		Payload:          payload,
	}
}

func TestHandlerFeedsNetworkActivityToEngine(t *testing.T) {
	analyzer := &stubAnalyzer{}
	handler := NewAnalysisHandler(analyzer)

	userAnonymizedID := uuid.New()
	require.NoError(t, handler.Handle(context.Background(), networkMessage(t, userAnonymizedID)))

	require.Equal(t, 1, analyzer.calls)
	require.Equal(t, userAnonymizedID, analyzer.lastID)

	event, ok := analyzer.last.(domain.NetworkActivity)
	require.True(t, ok)
	require.Equal(t, []string{"poker"}, event.CategoryTags)
	require.Equal(t, "http://poker.example", event.URL)
}

func TestHandlerFeedsAppActivityToEngine(t *testing.T) {
	analyzer := &stubAnalyzer{}
	handler := NewAnalysisHandler(analyzer)

	now := time.Now().UTC().Truncate(time.Second)
	payload, err := json.Marshal(events.AppActivityReported{
		DeviceDateTime: now,
		Activities: []events.AppActivityEntry{
			{Application: "Lotto App", StartTime: now.Add(-10 * time.Minute), EndTime: now},
		},
	})
	require.NoError(t, err)

	userAnonymizedID := uuid.New()
	msg := Message{
		Topic:            "app_activity_events",
		EventType:        events.TypeAppActivityReported,
		UserAnonymizedID: userAnonymizedID.String(),
		Payload:          payload,
	}
	require.NoError(t, handler.Handle(context.Background(), msg))

	batch, ok := analyzer.last.(domain.AppActivityBatch)
	require.True(t, ok)
	require.True(t, batch.DeviceDateTime.Equal(now))
	require.Len(t, batch.Activities, 1)
	require.Equal(t, "Lotto App", batch.Activities[0].Application)
}

func TestHandlerDropsPermanentFailures(t *testing.T) {
	userAnonymizedID := uuid.New()

	tests := []struct {
		name       string
		msg        Message
		engineErr  error
		wantCalled bool
	}{
		{
			name: "unknown event type",
			msg: Message{
				EventType:        "activity.unknown",
				UserAnonymizedID: userAnonymizedID.String(),
				Payload:          json.RawMessage(`{}`),
			},
		},
		{
			name: "invalid user id",
			msg: Message{
				EventType:        events.TypeNetworkActivityObserved,
				UserAnonymizedID: "not-a-uuid",
				Payload:          json.RawMessage(`{}`),
			},
		},
		{
			name: "malformed payload",
			msg: Message{
				EventType:        events.TypeNetworkActivityObserved,
				UserAnonymizedID: userAnonymizedID.String(),
				Payload:          json.RawMessage(`{"category_tags":1}`),
			},
		},
		{
			name:       "unknown user",
			msg:        networkMessage(t, userAnonymizedID),
			engineErr:  fmt.Errorf("%w: %s", domain.ErrUserAnonymizedNotFound, userAnonymizedID),
			wantCalled: true,
		},
		{
			name:       "invalid event",
			msg:        networkMessage(t, userAnonymizedID),
			engineErr:  fmt.Errorf("%w: bad interval", domain.ErrInvalidEvent),
			wantCalled: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			analyzer := &stubAnalyzer{err: tc.engineErr}
			handler := NewAnalysisHandler(analyzer)

			require.NoError(t, handler.Handle(context.Background(), tc.msg))
			if tc.wantCalled {
				require.Equal(t, 1, analyzer.calls)
			} else {
				require.Zero(t, analyzer.calls)
			}
		})
	}
}

func TestHandlerPropagatesTransientErrors(t *testing.T) {
	analyzer := &stubAnalyzer{err: errors.New("store unavailable")}
	handler := NewAnalysisHandler(analyzer)

	err := handler.Handle(context.Background(), networkMessage(t, uuid.New()))
	require.Error(t, err)
}
