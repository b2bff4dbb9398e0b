package realtime

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Action mirrors the write that triggered the notification.
type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ChangeEvent tells a connected client that a record changed and which
// surface should reload. Payloads are deliberately thin; clients refetch
// rather than patch local state.
type ChangeEvent struct {
	Table      string    `json:"table"`
	Action     Action    `json:"action"`
	RecordID   string    `json:"record_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewChangeEvent(table string, action Action, recordID string, ownerID uuid.UUID) ChangeEvent {
	return ChangeEvent{
		Table:      table,
		Action:     action,
		RecordID:   recordID,
		OwnerID:    ownerID,
		OccurredAt: time.Now().UTC(),
	}
}

func (e ChangeEvent) JSON() ([]byte, error) {
	return json.Marshal(e)
}
