// Package messaging delivers analysis messages to their destinations.
package messaging

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"example.com/analysisengine/internal/domain"
	"example.com/analysisengine/internal/events"
)

// messageWriter is the minimal kafka.Writer surface used by the sink.
type messageWriter interface {
	WriteMessages(context.Context, ...kafka.Message) error
	Close() error
}

// encoding binds one message kind to its wire representation.
type encoding struct {
	eventType string
	schemaID  int
	encode    func(domain.Message) ([]byte, error)
}

// KafkaSink appends messages to the destination topic. Message subtypes are
// dispatched through an explicit table built at construction time.
type KafkaSink struct {
	writer    messageWriter
	encodings map[domain.MessageKind]encoding
	closeOnce sync.Once
}

// NewKafkaSink constructs a sink writing to the given topic.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
		Async:        false,
	}
	return newKafkaSink(writer)
}

func newKafkaSink(writer messageWriter) *KafkaSink {
	return &KafkaSink{
		writer: writer,
		encodings: map[domain.MessageKind]encoding{
			domain.MessageKindGoalConflict: {
				eventType: events.TypeGoalConflictRaised,
				schemaID:  1,
				encode:    encodeGoalConflict,
			},
		},
	}
}

// SendAndFlush implements domain.MessageSink. The write is synchronous and
// acknowledged by all replicas before returning.
func (s *KafkaSink) SendAndFlush(ctx context.Context, msg domain.Message, destination uuid.UUID) error {
	enc, ok := s.encodings[msg.Kind()]
	if !ok {
		return fmt.Errorf("no encoding registered for message kind %q", msg.Kind())
	}

	payload, err := enc.encode(msg)
	if err != nil {
		return err
	}

	value := make([]byte, 5+len(payload))
	binary.BigEndian.PutUint32(value[1:5], uint32(enc.schemaID))
	copy(value[5:], payload)

	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(destination.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(enc.eventType)},
			{Key: "destination_id", Value: []byte(destination.String())},
			{Key: "message_id", Value: []byte(msg.MessageID().String())},
		},
	})
}

// Close releases the underlying writer.
func (s *KafkaSink) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.writer.Close()
	})
	return err
}

func encodeGoalConflict(msg domain.Message) ([]byte, error) {
	conflict, ok := msg.(domain.GoalConflictMessage)
	if !ok {
		return nil, fmt.Errorf("unexpected message type %T for goal conflict encoding", msg)
	}
	return json.Marshal(events.GoalConflictRaised{
		MessageID:               conflict.ID.String(),
		RelatedUserAnonymizedID: conflict.RelatedUserAnonymizedID.String(),
		GoalID:                  conflict.GoalID.String(),
		URL:                     conflict.URL,
		Application:             conflict.Application,
		ActivityStartTime:       conflict.ActivityStartTime,
		ActivityEndTime:         conflict.ActivityEndTime,
		CreatedAt:               conflict.CreatedAt,
	})
}
