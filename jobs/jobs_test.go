package jobs

import (
	"context"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lims-platform/identity/internal/audit"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{}, nil
}

type memAuditRepo struct {
	events []audit.Event
}

func (m *memAuditRepo) Insert(ctx context.Context, event audit.Event) error {
	m.events = append(m.events, event)
	return nil
}

func (m *memAuditRepo) List(ctx context.Context, limit int) ([]audit.Event, error) {
	return m.events, nil
}

func TestAuditPublisherEnqueuesTask(t *testing.T) {
	enq := &fakeEnqueuer{}
	publisher := NewAuditPublisher(enq)

	event := audit.NewEvent(audit.ActionRoleGranted, "admin", "VIEWER")
	require.NoError(t, publisher.Publish(context.Background(), event))

	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TaskTypeAuditRecord, enq.tasks[0].Type())
}

func TestAuditPublisherPropagatesEnqueueError(t *testing.T) {
	enq := &fakeEnqueuer{err: assert.AnError}
	publisher := NewAuditPublisher(enq)

	err := publisher.Publish(context.Background(), audit.NewEvent(audit.ActionAccountDeleted, "ana", ""))
	assert.Error(t, err)
}

func TestMailPublisherEnqueuesWelcomeTask(t *testing.T) {
	enq := &fakeEnqueuer{}
	publisher := NewMailPublisher(enq)

	require.NoError(t, publisher.SendWelcome(context.Background(), "ana@laboratorio.com", "ana"))

	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TaskTypeWelcomeEmail, enq.tasks[0].Type())
	assert.Contains(t, string(enq.tasks[0].Payload()), "ana@laboratorio.com")
}

func TestAuditRecordHandlerPersistsEvent(t *testing.T) {
	repo := &memAuditRepo{}
	handler := auditRecordHandler(slog.Default(), audit.NewService(repo))

	event := audit.NewEvent(audit.ActionAccountCreated, "ana", "USER")
	task, err := NewAuditRecordTask(event)
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), task))
	require.Len(t, repo.events, 1)
	assert.Equal(t, event.ID, repo.events[0].ID)
	assert.Equal(t, audit.ActionAccountCreated, repo.events[0].Action)
}

func TestAuditRecordHandlerSkipsMalformedPayload(t *testing.T) {
	repo := &memAuditRepo{}
	handler := auditRecordHandler(slog.Default(), audit.NewService(repo))

	err := handler(context.Background(), asynq.NewTask(TaskTypeAuditRecord, []byte("{not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, repo.events)
}

func TestWelcomeEmailHandler(t *testing.T) {
	handler := welcomeEmailHandler(slog.Default())

	task, err := NewWelcomeEmailTask(WelcomeEmailPayload{To: "ana@laboratorio.com", Username: "ana"})
	require.NoError(t, err)
	assert.NoError(t, handler(context.Background(), task))
}
