package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"shopledger/internal/core"
)

// PeriodSyncMessage asks the worker to push one period's snapshot to Google
// Sheets. It carries only the key and version; the worker reads the rows from
// SQLite.
type PeriodSyncMessage struct {
	PeriodKey string    `json:"period_key"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewPeriodSyncMessage creates a sync message stamped with the current time.
func NewPeriodSyncMessage(periodKey string, version int64) *PeriodSyncMessage {
	return &PeriodSyncMessage{
		PeriodKey: periodKey,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *PeriodSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PeriodSyncMessageFromJSON decodes and checks a message body.
func PeriodSyncMessageFromJSON(data []byte) (*PeriodSyncMessage, error) {
	var msg PeriodSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if _, err := core.ParsePeriodKey(msg.PeriodKey); err != nil {
		return nil, err
	}
	if msg.Version < 1 {
		return nil, fmt.Errorf("invalid version %d", msg.Version)
	}
	return &msg, nil
}
