package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Identity event actions recorded on the audit trail.
const (
	ActionAccountCreated  = "account.created"
	ActionAccountUpdated  = "account.updated"
	ActionAccountDeleted  = "account.deleted"
	ActionRoleGranted     = "role.granted"
	ActionRoleRevoked     = "role.revoked"
	ActionPasswordChanged = "password.changed"
)

// Event is a single audit trail entry.
type Event struct {
	ID     string    `json:"id"`
	Action string    `json:"action"`
	Entity string    `json:"entity"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

// NewEvent builds an event with a fresh ID and timestamp.
func NewEvent(action, entity, detail string) Event {
	return Event{
		ID:     uuid.NewString(),
		Action: action,
		Entity: entity,
		Detail: detail,
		At:     time.Now().UTC(),
	}
}

// Sink accepts events for asynchronous recording. Publishing must never fail
// a domain operation; callers log and continue on error.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}
