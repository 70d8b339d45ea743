package domain

import (
	"fmt"
	"strings"
	"time"
)

// ActivityEvent is the inbound activity signal analyzed against a user's goals.
// It is a closed union: NetworkActivity or AppActivityBatch.
type ActivityEvent interface {
	activityEvent()
	// Validate rejects malformed events before any cache or store mutation.
	Validate() error
}

// NetworkActivity reports a single URL access with the category tags the
// upstream content filter attached to it.
type NetworkActivity struct {
	CategoryTags []string
	URL          string
	// EventTime is optional; the analysis time is used when absent.
	EventTime *time.Time
}

func (NetworkActivity) activityEvent() {}

// Validate implements ActivityEvent. An empty tag set is not an error; it
// simply matches no category.
func (n NetworkActivity) Validate() error {
	return nil
}

// AppActivityRecord is one `{application, start, end}` tuple reported by a device.
type AppActivityRecord struct {
	Application string
	StartTime   time.Time
	EndTime     time.Time
}

// AppActivityBatch carries app usage intervals plus the device's notion of
// the current time, used to correct for device clock skew.
type AppActivityBatch struct {
	DeviceDateTime time.Time
	Activities     []AppActivityRecord
}

func (AppActivityBatch) activityEvent() {}

// Validate implements ActivityEvent.
func (b AppActivityBatch) Validate() error {
	if b.DeviceDateTime.IsZero() {
		return fmt.Errorf("%w: app activity batch without device date time", ErrInvalidEvent)
	}
	for _, record := range b.Activities {
		if strings.TrimSpace(record.Application) == "" {
			return fmt.Errorf("%w: app activity without application name", ErrInvalidEvent)
		}
		if record.EndTime.Before(record.StartTime) {
			return fmt.Errorf("%w: app activity for %q ends before it starts", ErrInvalidEvent, record.Application)
		}
	}
	return nil
}
