package amqp

import (
	"encoding/json"
	"time"
)

// RunRecordedMessage is a lightweight notification that a run was persisted.
// It carries only the ID and digest; the worker fetches the full row from the
// database before exporting.
type RunRecordedMessage struct {
	ID        int64     `json:"id"`
	Digest    string    `json:"digest"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRunRecordedMessage creates a notification for the given run.
func NewRunRecordedMessage(id int64, digest string) *RunRecordedMessage {
	return &RunRecordedMessage{
		ID:        id,
		Digest:    digest,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *RunRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RunRecordedMessageFromJSON creates a message from JSON bytes.
func RunRecordedMessageFromJSON(data []byte) (*RunRecordedMessage, error) {
	var msg RunRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
