package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-portal-api/internal/models"
)

type blockingAuditSink struct {
	mu   sync.Mutex
	logs []models.AuditLog
}

func (m *blockingAuditSink) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, *log)
	return nil
}

func (m *blockingAuditSink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.logs)
}

func TestAsyncAuditorPersistsInBackground(t *testing.T) {
	sink := &blockingAuditSink{}
	auditor := NewAsyncAuditor(sink, nil)
	auditor.Start(context.Background())
	defer auditor.Stop()

	userID := "staff-1"
	err := auditor.CreateAuditLog(context.Background(), &models.AuditLog{
		UserID:   &userID,
		Action:   models.AuditActionTranscriptReview,
		Resource: "transcript_request",
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return sink.count() == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, models.AuditActionTranscriptReview, sink.logs[0].Action)
}

func TestAsyncAuditorRejectsBeforeStart(t *testing.T) {
	auditor := NewAsyncAuditor(&blockingAuditSink{}, nil)
	err := auditor.CreateAuditLog(context.Background(), &models.AuditLog{Action: models.AuditActionLogin})
	assert.Error(t, err)
}
