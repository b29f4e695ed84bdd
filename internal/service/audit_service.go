package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-portal-api/internal/models"
	"github.com/noah-isme/uni-portal-api/pkg/jobs"
)

// AsyncAuditor persists audit logs through a background worker queue so
// request latency never waits on the audit table. Entries are retried by
// the queue on failure; the worst case is a dropped log line, never a
// failed user request.
type AsyncAuditor struct {
	queue *jobs.Queue
	repo  auditLogger
}

// NewAsyncAuditor builds the auditor. Start must be called before use.
func NewAsyncAuditor(repo auditLogger, logger *zap.Logger) *AsyncAuditor {
	a := &AsyncAuditor{repo: repo}
	a.queue = jobs.NewQueue("audit", a.handle, jobs.QueueConfig{
		Workers:    1,
		BufferSize: 64,
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
		Logger:     logger,
	})
	return a
}

// Start launches the background worker.
func (a *AsyncAuditor) Start(ctx context.Context) {
	a.queue.Start(ctx)
}

// Stop drains the worker.
func (a *AsyncAuditor) Stop() {
	a.queue.Stop()
}

// CreateAuditLog enqueues the entry for background persistence.
func (a *AsyncAuditor) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	entry := *log
	return a.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    entry.Action,
		Payload: &entry,
	})
}

func (a *AsyncAuditor) handle(ctx context.Context, job jobs.Job) error {
	entry, ok := job.Payload.(*models.AuditLog)
	if !ok {
		return nil
	}
	return a.repo.CreateAuditLog(ctx, entry)
}
