package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"example.com/analysisengine/internal/domain"
	"example.com/analysisengine/internal/events"
)

// Analyzer is the engine surface consumed by the handler.
type Analyzer interface {
	Analyze(ctx context.Context, userAnonymizedID uuid.UUID, event domain.ActivityEvent) error
}

// eventDecoder turns a wire payload into a domain activity event.
type eventDecoder func(json.RawMessage) (domain.ActivityEvent, error)

// AnalysisHandler decodes inbound activity records and feeds them to the
// analysis engine. Event subtypes are dispatched through an explicit decoder
// table built at construction time.
type AnalysisHandler struct {
	engine   Analyzer
	decoders map[string]eventDecoder
	logger   *log.Logger
}

// NewAnalysisHandler constructs the handler with its decoder table.
func NewAnalysisHandler(engine Analyzer) *AnalysisHandler {
	return &AnalysisHandler{
		engine: engine,
		decoders: map[string]eventDecoder{
			events.TypeNetworkActivityObserved: decodeNetworkActivity,
			events.TypeAppActivityReported:     decodeAppActivity,
		},
		logger: log.New(log.Writer(), "[analysis-handler] ", log.LstdFlags),
	}
}

// Handle implements Handler. Permanently unprocessable records (unknown
// event type, malformed payload, unknown user, invalid interval) are dropped
// with a log line so the offset commits; store failures propagate to leave
// the message for redelivery.
func (h *AnalysisHandler) Handle(ctx context.Context, msg Message) error {
	decode, ok := h.decoders[msg.EventType]
	if !ok {
		h.logger.Printf("dropping record with unknown event type %q (topic=%s, offset=%d)", msg.EventType, msg.Topic, msg.Offset)
		recordDropped(msg.EventType, "unknown_event_type")
		return nil
	}

	userAnonymizedID, err := uuid.Parse(msg.UserAnonymizedID)
	if err != nil {
		h.logger.Printf("dropping record with invalid user id %q: %v", msg.UserAnonymizedID, err)
		recordDropped(msg.EventType, "invalid_user_id")
		return nil
	}

	event, err := decode(msg.Payload)
	if err != nil {
		h.logger.Printf("dropping malformed %s payload (offset=%d): %v", msg.EventType, msg.Offset, err)
		recordDropped(msg.EventType, "malformed_payload")
		return nil
	}

	if err := h.engine.Analyze(ctx, userAnonymizedID, event); err != nil {
		switch {
		case errors.Is(err, domain.ErrUserAnonymizedNotFound):
			h.logger.Printf("dropping record for unknown user %s", userAnonymizedID)
			recordDropped(msg.EventType, "user_not_found")
			return nil
		case errors.Is(err, domain.ErrInvalidEvent):
			h.logger.Printf("dropping invalid event for user %s: %v", userAnonymizedID, err)
			recordDropped(msg.EventType, "invalid_event")
			return nil
		default:
			return err
		}
	}
	return nil
}

func decodeNetworkActivity(payload json.RawMessage) (domain.ActivityEvent, error) {
	var wire events.NetworkActivityObserved
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, fmt.Errorf("decode network activity: %w", err)
	}
	return domain.NetworkActivity{
		CategoryTags: wire.CategoryTags,
		URL:          wire.URL,
		EventTime:    wire.EventTime,
	}, nil
}

func decodeAppActivity(payload json.RawMessage) (domain.ActivityEvent, error) {
	var wire events.AppActivityReported
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, fmt.Errorf("decode app activity: %w", err)
	}
	records := make([]domain.AppActivityRecord, 0, len(wire.Activities))
	for _, entry := range wire.Activities {
		records = append(records, domain.AppActivityRecord{
			Application: entry.Application,
			StartTime:   entry.StartTime,
			EndTime:     entry.EndTime,
		})
	}
	return domain.AppActivityBatch{
		DeviceDateTime: wire.DeviceDateTime,
		Activities:     records,
	}, nil
}
