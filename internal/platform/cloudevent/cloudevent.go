// Package cloudevent implements the CloudEvents 1.0 JSON envelope shared by
// every broker driver.
package cloudevent

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const SpecVersion = "1.0"

// Event is a CloudEvents 1.0 structured-mode envelope.
type Event struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Source          string          `json:"source"`
	Type            string          `json:"type"`
	Subject         string          `json:"subject,omitempty"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	Data            json.RawMessage `json:"data"`
}

// New wraps data in an envelope. Subject is used as the partition key.
func New(source, eventType, subject string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s data: %w", eventType, err)
	}
	return Event{
		SpecVersion:     SpecVersion,
		ID:              uuid.NewString(),
		Source:          source,
		Type:            eventType,
		Subject:         subject,
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            raw,
	}, nil
}

// Parse decodes an envelope from a message body.
func Parse(body []byte) (Event, error) {
	var evt Event
	if err := json.Unmarshal(body, &evt); err != nil {
		return Event{}, fmt.Errorf("failed to parse cloud event: %w", err)
	}
	if evt.Type == "" {
		return Event{}, fmt.Errorf("cloud event has no type")
	}
	return evt, nil
}

// ParseData decodes the event payload into v.
func (e Event) ParseData(v any) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("failed to parse %s data: %w", e.Type, err)
	}
	return nil
}
