package service

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/noah-isme/uni-portal-api/internal/models"
	appErrors "github.com/noah-isme/uni-portal-api/pkg/errors"
)

type scoreReader interface {
	ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.ScoreRow, error)
}

// CourseGradeService derives one course grade from an enrollment's live
// score data. Pure read and compute, no side effects, nothing cached.
type CourseGradeService struct {
	scores scoreReader
	scale  *GradeScale
	logger *zap.Logger
}

// NewCourseGradeService constructs the aggregator.
func NewCourseGradeService(scores scoreReader, scale *GradeScale, logger *zap.Logger) *CourseGradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseGradeService{scores: scores, scale: scale, logger: logger}
}

// Aggregate computes the enrollment's course grade. A course with zero
// assessments, or none graded yet, resolves to an incomplete grade with
// nil percentage/letter/points; that is a valid outcome, not an error.
func (s *CourseGradeService) Aggregate(ctx context.Context, enrollmentID string) (*models.CourseGrade, error) {
	rows, err := s.scores.ListByEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scores")
	}
	return s.aggregateRows(enrollmentID, rows)
}

// AggregateRows computes the grade from already-loaded score rows. The
// snapshot builder uses this to grade and freeze the same rows it read.
func (s *CourseGradeService) AggregateRows(enrollmentID string, rows []models.ScoreRow) (*models.CourseGrade, error) {
	return s.aggregateRows(enrollmentID, rows)
}

func (s *CourseGradeService) aggregateRows(enrollmentID string, rows []models.ScoreRow) (*models.CourseGrade, error) {
	var scored, total float64
	graded := 0
	for _, row := range rows {
		if !row.Graded() {
			continue
		}
		scored += *row.Score
		total += row.TotalMarks
		graded++
	}
	if graded == 0 || total == 0 {
		return &models.CourseGrade{EnrollmentID: enrollmentID, Status: models.GradeStatusIncomplete}, nil
	}

	// Marks-weighted average: ungraded assessments stay out of both the
	// numerator and the denominator, never counted as zero.
	percentage := scored / total * 100
	letter, points, err := s.scale.Resolve(percentage)
	if err != nil {
		return nil, err
	}

	display := roundTo(percentage, 1)
	return &models.CourseGrade{
		EnrollmentID: enrollmentID,
		Status:       models.GradeStatusGraded,
		Percentage:   &display,
		LetterGrade:  &letter,
		GradePoint:   &points,
	}, nil
}

func roundTo(v float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}
