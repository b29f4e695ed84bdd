package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uni-portal-api/internal/models"
	appErrors "github.com/noah-isme/uni-portal-api/pkg/errors"
)

type snapshotStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type snapshotMetrics interface {
	ObserveSnapshotBuild(duration time.Duration)
}

// SnapshotService freezes a student's academic record into a
// self-contained transcript value. The result carries no live references,
// which is what makes it safe to persist verbatim at approval time.
// Building twice against unchanged data yields byte-identical JSON: the
// summary and score reads come back in stable order and the value contains
// no clock or random fields.
type SnapshotService struct {
	students  snapshotStudentReader
	summaries *SummaryService
	scores    scoreReader
	metrics   snapshotMetrics
	logger    *zap.Logger
}

// NewSnapshotService constructs the snapshot builder. metrics may be nil.
func NewSnapshotService(students snapshotStudentReader, summaries *SummaryService, scores scoreReader, metrics snapshotMetrics, logger *zap.Logger) *SnapshotService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotService{students: students, summaries: summaries, scores: scores, metrics: metrics, logger: logger}
}

// Build assembles the frozen transcript for a student. It always
// recomputes from the store, bypassing the summary cache.
func (s *SnapshotService) Build(ctx context.Context, studentID string) (*models.TranscriptSnapshot, error) {
	start := time.Now()

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	summary, err := s.summaries.Build(ctx, studentID)
	if err != nil {
		return nil, err
	}

	snapshot := &models.TranscriptSnapshot{
		StudentID:        student.ID,
		StudentNumber:    student.StudentNumber,
		StudentName:      student.FullName,
		Program:          student.Program,
		GPA:              summary.GPA,
		TotalCredits:     summary.TotalCredits,
		CompletedCourses: summary.CompletedCourses,
		Courses:          make([]models.TranscriptCourse, 0, summary.CompletedCourses),
	}

	for _, group := range summary.Semesters {
		for _, entry := range group.Courses {
			rows, err := s.scores.ListByEnrollment(ctx, entry.EnrollmentID)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assessment detail")
			}
			assessments := make([]models.TranscriptAssessment, 0, len(rows))
			for _, row := range rows {
				assessment := models.TranscriptAssessment{
					Title:      row.Title,
					Type:       row.Type,
					Score:      row.Score,
					TotalMarks: row.TotalMarks,
				}
				if p := row.Percentage(); p != nil {
					rounded := roundTo(*p, 1)
					assessment.Percentage = &rounded
				}
				assessments = append(assessments, assessment)
			}
			snapshot.Courses = append(snapshot.Courses, models.TranscriptCourse{
				CourseCode:  entry.CourseCode,
				CourseTitle: entry.CourseTitle,
				Credits:     entry.Credits,
				Semester:    entry.Semester,
				GradeStatus: entry.Grade.Status,
				Percentage:  entry.Grade.Percentage,
				LetterGrade: entry.Grade.LetterGrade,
				GradePoint:  entry.Grade.GradePoint,
				EnrolledAt:  entry.EnrolledAt,
				CompletedAt: entry.CompletedAt,
				Assessments: assessments,
			})
		}
	}

	if s.metrics != nil {
		s.metrics.ObserveSnapshotBuild(time.Since(start))
	}
	return snapshot, nil
}

// Marshal encodes a snapshot for persistence.
func (s *SnapshotService) Marshal(snapshot *models.TranscriptSnapshot) ([]byte, error) {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode transcript snapshot")
	}
	return payload, nil
}

func decodeSnapshot(payload []byte) (*models.TranscriptSnapshot, error) {
	var snapshot models.TranscriptSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
