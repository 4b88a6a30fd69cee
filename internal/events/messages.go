package events

import (
	"encoding/json"
	"time"
)

// EntriesPostedMessage announces committed ledger entries. It carries
// only identifiers; consumers fetch current state from the database.
type EntriesPostedMessage struct {
	MonthID   string    `json:"month_id"`
	EntryIDs  []int64   `json:"entry_ids"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntriesPostedMessage(monthID string, entryIDs []int64) *EntriesPostedMessage {
	return &EntriesPostedMessage{
		MonthID:   monthID,
		EntryIDs:  entryIDs,
		Timestamp: time.Now(),
	}
}

func (m *EntriesPostedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EntriesPostedMessageFromJSON(data []byte) (*EntriesPostedMessage, error) {
	var msg EntriesPostedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// MonthClosedMessage announces a month close; the audit worker reacts
// by recomputing every balance from the entry history.
type MonthClosedMessage struct {
	MonthID   string    `json:"month_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewMonthClosedMessage(monthID string) *MonthClosedMessage {
	return &MonthClosedMessage{MonthID: monthID, Timestamp: time.Now()}
}

func (m *MonthClosedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MonthClosedMessageFromJSON(data []byte) (*MonthClosedMessage, error) {
	var msg MonthClosedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
