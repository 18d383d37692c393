package jobs

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/lims-platform/identity/internal/audit"
)

// Enqueuer is the slice of asynq.Client the publisher needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AuditPublisher pushes audit events onto the queue. It implements
// audit.Sink.
type AuditPublisher struct {
	client Enqueuer
}

// NewAuditPublisher constructs an AuditPublisher.
func NewAuditPublisher(client Enqueuer) *AuditPublisher {
	return &AuditPublisher{client: client}
}

// Publish enqueues an audit:record task.
func (p *AuditPublisher) Publish(ctx context.Context, event audit.Event) error {
	task, err := NewAuditRecordTask(event)
	if err != nil {
		return err
	}
	_, err = p.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// MailPublisher queues outbound mail. It implements accounts.Mailer.
type MailPublisher struct {
	client Enqueuer
}

// NewMailPublisher constructs a MailPublisher.
func NewMailPublisher(client Enqueuer) *MailPublisher {
	return &MailPublisher{client: client}
}

// SendWelcome enqueues a mail:welcome task for a new account.
func (p *MailPublisher) SendWelcome(ctx context.Context, email, username string) error {
	task, err := NewWelcomeEmailTask(WelcomeEmailPayload{To: email, Username: username})
	if err != nil {
		return err
	}
	_, err = p.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}
