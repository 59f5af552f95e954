package amqp

import (
	"encoding/json"
	"time"
)

// LedgerAppendedMessage announces that data rows were committed to one day
// ledger file. Consumers (the report export worker) use it to regenerate the
// affected month's snapshot.
type LedgerAppendedMessage struct {
	Bucket    string    `json:"bucket"`
	File      string    `json:"file"`
	Rows      int       `json:"rows"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerAppendedMessage creates an append announcement for a bucket.
func NewLedgerAppendedMessage(bucket, file string, rows int) *LedgerAppendedMessage {
	return &LedgerAppendedMessage{
		Bucket:    bucket,
		File:      file,
		Rows:      rows,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *LedgerAppendedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerAppendedMessageFromJSON creates a message from JSON bytes.
func LedgerAppendedMessageFromJSON(data []byte) (*LedgerAppendedMessage, error) {
	var msg LedgerAppendedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
