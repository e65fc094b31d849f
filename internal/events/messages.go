package events

import (
	"encoding/json"
	"time"
)

// Action names the write that produced an event.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// ExpenseEvent is the lightweight change message published after every
// successful write. Consumers fetch the full record by id; deleted records
// are gone, so the event is all a consumer gets for those.
type ExpenseEvent struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Action    Action    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseEvent builds an event stamped with the current time.
func NewExpenseEvent(id, ownerID string, action Action) *ExpenseEvent {
	return &ExpenseEvent{
		ID:        id,
		OwnerID:   ownerID,
		Action:    action,
		Timestamp: time.Now(),
	}
}

// ToJSON serializes the event for publishing.
func (e *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ExpenseEventFromJSON parses a consumed event body.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var e ExpenseEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
