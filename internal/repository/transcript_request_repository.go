package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-portal-api/internal/models"
)

// TranscriptRequestRepository persists transcript request workflow data.
type TranscriptRequestRepository struct {
	db *sqlx.DB
}

// NewTranscriptRequestRepository constructs the repository.
func NewTranscriptRequestRepository(db *sqlx.DB) *TranscriptRequestRepository {
	return &TranscriptRequestRepository{db: db}
}

// Create inserts a new pending request.
func (r *TranscriptRequestRepository) Create(ctx context.Context, request *models.TranscriptRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.TranscriptStatusPendingReview
	}
	if request.RequestedAt.IsZero() {
		request.RequestedAt = time.Now().UTC()
	}
	const query = `INSERT INTO transcript_requests
        (id, student_id, status, requested_at, reviewed_at, reviewed_by, rejection_reason, snapshot)
        VALUES (:id, :student_id, :status, :requested_at, :reviewed_at, :reviewed_by, :rejection_reason, :snapshot)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create transcript request: %w", err)
	}
	return nil
}

// GetByID fetches a request including its frozen snapshot.
func (r *TranscriptRequestRepository) GetByID(ctx context.Context, id string) (*models.TranscriptRequest, error) {
	const query = `SELECT id, student_id, status, requested_at, reviewed_at, reviewed_by, rejection_reason, snapshot
        FROM transcript_requests WHERE id = $1`
	var request models.TranscriptRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns requests matching the filter, newest first, without
// snapshot bodies.
func (r *TranscriptRequestRepository) List(ctx context.Context, filter models.TranscriptFilter) ([]models.TranscriptRequest, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 2)
	builder.WriteString(`SELECT id, student_id, status, requested_at, reviewed_at, reviewed_by, rejection_reason
        FROM transcript_requests`)

	conditions := make([]string, 0, 2)
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY requested_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var requests []models.TranscriptRequest
	if err := r.db.SelectContext(ctx, &requests, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list transcript requests: %w", err)
	}
	return requests, nil
}

// ExistsPending reports whether the student already has an open request.
func (r *TranscriptRequestRepository) ExistsPending(ctx context.Context, studentID string) (bool, error) {
	const query = `SELECT 1 FROM transcript_requests WHERE student_id = $1 AND status = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, models.TranscriptStatusPendingReview); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check pending transcript request: %w", err)
	}
	return true, nil
}

// DecideParams groups the columns written by a review decision.
type DecideParams struct {
	ID              string
	Status          models.TranscriptStatus
	ReviewedBy      string
	ReviewedAt      time.Time
	RejectionReason *string
	Snapshot        []byte
}

// Decide persists a review outcome with a compare-and-swap on the pending
// status. The WHERE clause guarantees two concurrent decisions on the same
// request produce exactly one write; the loser sees sql.ErrNoRows.
func (r *TranscriptRequestRepository) Decide(ctx context.Context, params DecideParams) error {
	setParts := []string{
		"status = :status",
		"reviewed_at = :reviewed_at",
		"reviewed_by = :reviewed_by",
	}
	if params.RejectionReason != nil {
		setParts = append(setParts, "rejection_reason = :rejection_reason")
	}
	if len(params.Snapshot) > 0 {
		setParts = append(setParts, "snapshot = :snapshot")
	}
	query := fmt.Sprintf("UPDATE transcript_requests SET %s WHERE id = :id AND status = '%s'",
		strings.Join(setParts, ", "),
		models.TranscriptStatusPendingReview,
	)
	result, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":               params.ID,
		"status":           params.Status,
		"reviewed_at":      params.ReviewedAt,
		"reviewed_by":      params.ReviewedBy,
		"rejection_reason": params.RejectionReason,
		"snapshot":         params.Snapshot,
	})
	if err != nil {
		return fmt.Errorf("decide transcript request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check transcript decision rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
