package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uni-portal-api/internal/dto"
	"github.com/noah-isme/uni-portal-api/internal/models"
	"github.com/noah-isme/uni-portal-api/internal/repository"
	appErrors "github.com/noah-isme/uni-portal-api/pkg/errors"
)

type transcriptStore interface {
	Create(ctx context.Context, request *models.TranscriptRequest) error
	GetByID(ctx context.Context, id string) (*models.TranscriptRequest, error)
	List(ctx context.Context, filter models.TranscriptFilter) ([]models.TranscriptRequest, error)
	ExistsPending(ctx context.Context, studentID string) (bool, error)
	Decide(ctx context.Context, params repository.DecideParams) error
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// TranscriptService owns the transcript request lifecycle:
// pending_review to approved or rejected, both terminal. Approval freezes
// a snapshot in the same write that flips the status; the conditional
// update in the repository makes two racing decisions resolve into one
// winner and one InvalidTransition.
type TranscriptService struct {
	repo                  transcriptStore
	snapshots             *SnapshotService
	audit                 auditLogger
	allowDuplicatePending bool
	logger                *zap.Logger
}

// NewTranscriptService constructs the workflow service. audit may be nil.
func NewTranscriptService(repo transcriptStore, snapshots *SnapshotService, audit auditLogger, allowDuplicatePending bool, logger *zap.Logger) *TranscriptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptService{
		repo:                  repo,
		snapshots:             snapshots,
		audit:                 audit,
		allowDuplicatePending: allowDuplicatePending,
		logger:                logger,
	}
}

// Create opens a new pending request. Authorization happens upstream, but
// the student id is re-checked against the authenticated principal here:
// students only ever request their own transcript.
func (s *TranscriptService) Create(ctx context.Context, studentID string, actor *models.JWTClaims) (*models.TranscriptRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if actor.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students request transcripts")
	}
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student id is required")
	}
	if actor.UserID != studentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "transcript requests can only be created for yourself")
	}

	if !s.allowDuplicatePending {
		pending, err := s.repo.ExistsPending(ctx, studentID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check pending requests")
		}
		if pending {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a pending transcript request already exists")
		}
	}

	request := &models.TranscriptRequest{StudentID: studentID}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create transcript request")
	}

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionTranscriptCreate,
		Resource:   "transcript_request",
		ResourceID: &request.ID,
		NewValues:  []byte(`{"status":"PENDING_REVIEW"}`),
	})
	return request, nil
}

// List returns requests without snapshot bodies, scoped by actor role:
// students see only their own.
func (s *TranscriptService) List(ctx context.Context, query dto.TranscriptQuery, actor *models.JWTClaims) ([]models.TranscriptRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.TranscriptFilter{
		StudentID: query.StudentID,
		Status:    query.Status,
		Limit:     query.Limit,
		Offset:    query.Offset,
	}
	switch actor.Role {
	case models.RoleStaff, models.RoleProfessor:
		// full access
	case models.RoleStudent:
		filter.StudentID = actor.UserID
	default:
		return nil, appErrors.ErrForbidden
	}
	requests, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list transcript requests")
	}
	return requests, nil
}

// Get returns a request. Approved requests carry the frozen snapshot,
// never a recomputed one. The owning student sees only status metadata
// until the request is approved.
func (s *TranscriptService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*dto.TranscriptRequestResponse, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case models.RoleStaff, models.RoleProfessor:
	case models.RoleStudent:
		if request.StudentID != actor.UserID {
			return nil, appErrors.ErrForbidden
		}
	default:
		return nil, appErrors.ErrForbidden
	}

	response := &dto.TranscriptRequestResponse{TranscriptRequest: *request}
	if request.Status == models.TranscriptStatusApproved && len(request.Snapshot) > 0 {
		response.Snapshot = request.Snapshot
	}
	return response, nil
}

// Approve transitions a pending request to approved, freezing the
// transcript snapshot in the same write. Any failure while building the
// snapshot leaves the request pending.
func (s *TranscriptService) Approve(ctx context.Context, id, staffID string) (*dto.TranscriptRequestResponse, error) {
	request, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "transcript request already reviewed")
	}

	snapshot, err := s.snapshots.Build(ctx, request.StudentID)
	if err != nil {
		return nil, err
	}
	payload, err := s.snapshots.Marshal(snapshot)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	err = s.repo.Decide(ctx, repository.DecideParams{
		ID:         request.ID,
		Status:     models.TranscriptStatusApproved,
		ReviewedBy: staffID,
		ReviewedAt: now,
		Snapshot:   payload,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Lost the race: another reviewer decided first. The snapshot
			// built above is discarded unused.
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "transcript request already reviewed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve transcript request")
	}

	request.Status = models.TranscriptStatusApproved
	request.ReviewedAt = &now
	request.ReviewedBy = &staffID
	request.Snapshot = payload

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &staffID,
		Action:     models.AuditActionTranscriptReview,
		Resource:   "transcript_request",
		ResourceID: &request.ID,
		NewValues:  []byte(`{"status":"APPROVED"}`),
	})
	return &dto.TranscriptRequestResponse{TranscriptRequest: *request, Snapshot: payload}, nil
}

// Reject transitions a pending request to rejected. A non-empty reason is
// mandatory and no snapshot is built.
func (s *TranscriptService) Reject(ctx context.Context, id, staffID, reason string) (*dto.TranscriptRequestResponse, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, appErrors.ErrMissingReason
	}

	request, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "transcript request already reviewed")
	}

	now := time.Now().UTC()
	err = s.repo.Decide(ctx, repository.DecideParams{
		ID:              request.ID,
		Status:          models.TranscriptStatusRejected,
		ReviewedBy:      staffID,
		ReviewedAt:      now,
		RejectionReason: &reason,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "transcript request already reviewed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject transcript request")
	}

	request.Status = models.TranscriptStatusRejected
	request.ReviewedAt = &now
	request.ReviewedBy = &staffID
	request.RejectionReason = &reason

	s.emitAudit(ctx, &models.AuditLog{
		UserID:     &staffID,
		Action:     models.AuditActionTranscriptReview,
		Resource:   "transcript_request",
		ResourceID: &request.ID,
		NewValues:  []byte(`{"status":"REJECTED"}`),
	})
	return &dto.TranscriptRequestResponse{TranscriptRequest: *request}, nil
}

// FrozenSnapshot returns the decoded snapshot of an approved request for
// export rendering.
func (s *TranscriptService) FrozenSnapshot(ctx context.Context, id string, actor *models.JWTClaims) (*models.TranscriptSnapshot, error) {
	response, err := s.Get(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if response.Status != models.TranscriptStatusApproved || len(response.Snapshot) == 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "transcript request has no released snapshot")
	}
	snapshot, err := decodeSnapshot(response.Snapshot)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to decode frozen snapshot")
	}
	return snapshot, nil
}

func (s *TranscriptService) loadRequest(ctx context.Context, id string) (*models.TranscriptRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "transcript request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transcript request")
	}
	return request, nil
}

func (s *TranscriptService) emitAudit(ctx context.Context, log *models.AuditLog) {
	if s.audit == nil || log == nil {
		return
	}
	log.IPAddress = "system"
	log.UserAgent = "transcript-service"
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
