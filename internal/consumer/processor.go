// Package consumer pulls activity events from Kafka and feeds them to the
// analysis engine.
package consumer

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// Reader exposes the minimal kafka.Reader interface needed by the processor.
type Reader interface {
	FetchMessage(context.Context) (kafka.Message, error)
	CommitMessages(context.Context, ...kafka.Message) error
	Close() error
}

// Handler receives decoded activity records.
type Handler interface {
	Handle(context.Context, Message) error
}

// Message is the decoded representation of an inbound activity record.
type Message struct {
	Topic            string
	Partition        int
	Offset           int64
	Timestamp        time.Time
	EventType        string
	UserAnonymizedID string
	SchemaID         int
	Payload          json.RawMessage
}

// Option configures optional behaviour for the Processor.
type Option func(*Processor)

// WithLogger overrides the logger used to report errors.
func WithLogger(logger *log.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// Processor pulls activity records from Kafka and dispatches them to a
// Handler. Offsets advance only for records that were handled or are
// permanently unreadable; a handler failure leaves the record for redelivery.
type Processor struct {
	reader  Reader
	handler Handler
	logger  *log.Logger
}

// NewProcessor constructs a Processor with the provided reader and handler.
func NewProcessor(reader Reader, handler Handler, opts ...Option) *Processor {
	p := &Processor{
		reader:  reader,
		handler: handler,
		logger:  log.New(log.Writer(), "[consumer] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run blocks until the context is cancelled, processing one record at a time.
func (p *Processor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := p.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			p.logger.Printf("fetch error: %v", err)
			continue
		}

		p.process(ctx, msg)
	}
}

func (p *Processor) process(ctx context.Context, msg kafka.Message) {
	record, err := decodeEnvelope(msg)
	if err != nil {
		// Unreadable records can never succeed; commit so the partition keeps moving.
		p.logger.Printf("unreadable activity record (topic=%s, partition=%d, offset=%d): %v",
			msg.Topic, msg.Partition, msg.Offset, err)
		recordDecodeError(msg.Topic)
		p.commit(ctx, msg, "after decode failure")
		return
	}

	if err := p.handler.Handle(ctx, record); err != nil {
		p.logger.Printf("analysis failed, leaving record for redelivery (event_type=%s, user=%s, offset=%d): %v",
			record.EventType, record.UserAnonymizedID, record.Offset, err)
		recordHandlerError(record)
		return
	}

	if p.commit(ctx, msg, "") == nil {
		recordProcessed(record)
	}
}

func (p *Processor) commit(ctx context.Context, msg kafka.Message, when string) error {
	err := p.reader.CommitMessages(ctx, msg)
	if err != nil {
		p.logger.Printf("commit error %s (topic=%s, offset=%d): %v", when, msg.Topic, msg.Offset, err)
	}
	return err
}

// decodeEnvelope unpacks the schema envelope (magic byte, big-endian schema
// id, JSON payload) and the routing headers every activity record carries.
func decodeEnvelope(msg kafka.Message) (Message, error) {
	if len(msg.Value) < 5 {
		return Message{}, fmt.Errorf("envelope too short: %d bytes", len(msg.Value))
	}

	eventType, ok := header(msg, "event_type")
	if !ok {
		return Message{}, errors.New("missing event_type header")
	}
	userAnonymizedID, ok := header(msg, "user_anonymized_id")
	if !ok {
		return Message{}, errors.New("missing user_anonymized_id header")
	}

	return Message{
		Topic:            msg.Topic,
		Partition:        msg.Partition,
		Offset:           msg.Offset,
		Timestamp:        msg.Time,
		EventType:        string(eventType),
		UserAnonymizedID: string(userAnonymizedID),
		SchemaID:         int(binary.BigEndian.Uint32(msg.Value[1:5])),
		Payload:          json.RawMessage(append([]byte(nil), msg.Value[5:]...)),
	}, nil
}

func header(msg kafka.Message, key string) ([]byte, bool) {
	for _, h := range msg.Headers {
		if h.Key == key {
			return h.Value, true
		}
	}
	return nil, false
}
