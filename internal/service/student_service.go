package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/uni-portal-api/internal/models"
	appErrors "github.com/noah-isme/uni-portal-api/pkg/errors"
)

type enrollmentLister interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error)
}

// StudentService fronts the read endpoints that expose a student's record:
// the academic summary and the enrollment listing. It owns the access
// scoping; the computation lives in SummaryService.
type StudentService struct {
	students    snapshotStudentReader
	enrollments enrollmentLister
	summaries   *SummaryService
	logger      *zap.Logger
}

// NewStudentService constructs the service.
func NewStudentService(students snapshotStudentReader, enrollments enrollmentLister, summaries *SummaryService, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{students: students, enrollments: enrollments, summaries: summaries, logger: logger}
}

// Summary returns the student's academic summary. Staff and professors can
// read any student; students only their own record.
func (s *StudentService) Summary(ctx context.Context, studentID string, actor *models.JWTClaims) (*models.AcademicSummary, error) {
	if err := s.authorize(studentID, actor); err != nil {
		return nil, err
	}
	if _, err := s.loadStudent(ctx, studentID); err != nil {
		return nil, err
	}
	return s.summaries.Get(ctx, studentID)
}

// Enrollments lists the student's enrollments, optionally filtered by
// semester and status.
func (s *StudentService) Enrollments(ctx context.Context, studentID string, filter models.EnrollmentFilter, actor *models.JWTClaims) ([]models.EnrollmentDetail, error) {
	if err := s.authorize(studentID, actor); err != nil {
		return nil, err
	}
	if _, err := s.loadStudent(ctx, studentID); err != nil {
		return nil, err
	}
	filter.StudentID = studentID
	enrollments, err := s.enrollments.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	return enrollments, nil
}

func (s *StudentService) authorize(studentID string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	switch actor.Role {
	case models.RoleStaff, models.RoleProfessor:
		return nil
	case models.RoleStudent:
		if actor.UserID != studentID {
			return appErrors.Clone(appErrors.ErrForbidden, "students can only read their own record")
		}
		return nil
	default:
		return appErrors.ErrForbidden
	}
}

func (s *StudentService) loadStudent(ctx context.Context, studentID string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}
