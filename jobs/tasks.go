package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/lims-platform/identity/internal/audit"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeAuditRecord persists an identity audit event.
	TaskTypeAuditRecord = "audit:record"
	// TaskTypeWelcomeEmail sends a welcome mail to a new account.
	TaskTypeWelcomeEmail = "mail:welcome"
)

// WelcomeEmailPayload describes the welcome mail for a freshly registered
// account.
type WelcomeEmailPayload struct {
	To       string `json:"to"`
	Username string `json:"username"`
}

// NewAuditRecordTask constructs an Asynq task carrying an audit event.
func NewAuditRecordTask(event audit.Event) (*asynq.Task, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAuditRecord, data), nil
}

// NewWelcomeEmailTask constructs an Asynq task for a welcome mail.
func NewWelcomeEmailTask(payload WelcomeEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeWelcomeEmail, data), nil
}
