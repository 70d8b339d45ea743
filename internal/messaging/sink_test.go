package messaging

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"example.com/analysisengine/internal/domain"
	"example.com/analysisengine/internal/events"
)

type stubWriter struct {
	messages []kafka.Message
	err      error
}

func (w *stubWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *stubWriter) Close() error { return nil }

func TestSendAndFlushEncodesGoalConflict(t *testing.T) {
	writer := &stubWriter{}
	sink := newKafkaSink(writer)

	user := uuid.New()
	goal := uuid.New()
	destination := uuid.New()
	start := time.Date(2025, time.April, 10, 21, 0, 0, 0, time.UTC)
	end := start.Add(10 * time.Minute)

	msg := domain.NewGoalConflictMessage(user, goal, "http://example.org/slots", "", start, end, end)
	require.NoError(t, sink.SendAndFlush(context.Background(), msg, destination))

	require.Len(t, writer.messages, 1)
	written := writer.messages[0]
	require.Equal(t, destination.String(), string(written.Key))

	require.GreaterOrEqual(t, len(written.Value), 5)
	require.Equal(t, uint32(1), binary.BigEndian.Uint32(written.Value[1:5]))

	var payload events.GoalConflictRaised
	require.NoError(t, json.Unmarshal(written.Value[5:], &payload))
	require.Equal(t, msg.ID.String(), payload.MessageID)
	require.Equal(t, user.String(), payload.RelatedUserAnonymizedID)
	require.Equal(t, goal.String(), payload.GoalID)
	require.Equal(t, "http://example.org/slots", payload.URL)

	headers := map[string]string{}
	for _, h := range written.Headers {
		headers[h.Key] = string(h.Value)
	}
	require.Equal(t, events.TypeGoalConflictRaised, headers["event_type"])
	require.Equal(t, destination.String(), headers["destination_id"])
	require.Equal(t, msg.ID.String(), headers["message_id"])
}

type unknownMessage struct{}

func (unknownMessage) Kind() domain.MessageKind { return "mystery" }
func (unknownMessage) MessageID() uuid.UUID     { return uuid.Nil }

func TestSendAndFlushRejectsUnknownKind(t *testing.T) {
	sink := newKafkaSink(&stubWriter{})

	err := sink.SendAndFlush(context.Background(), unknownMessage{}, uuid.New())
	require.Error(t, err)
	require.Contains(t, err.Error(), "no encoding registered")
}
