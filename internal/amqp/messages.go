package amqp

import (
	"encoding/json"
	"time"
)

// RecordChangeMessage announces that a stored record changed. It carries
// only identifiers; the worker fetches the full record from the database.
type RecordChangeMessage struct {
	RecordType string    `json:"record_type"`
	RecordID   string    `json:"record_id"`
	Operation  string    `json:"operation"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewRecordChangeMessage(recordType, recordID, operation string) *RecordChangeMessage {
	return &RecordChangeMessage{
		RecordType: recordType,
		RecordID:   recordID,
		Operation:  operation,
		Timestamp:  time.Now(),
	}
}

func (m *RecordChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RecordChangeMessageFromJSON(data []byte) (*RecordChangeMessage, error) {
	var msg RecordChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
