package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-portal-api/internal/models"
)

func ptrFloat(v float64) *float64 {
	return &v
}

type mockScoreReader struct {
	rows map[string][]models.ScoreRow
	err  error
}

func (m *mockScoreReader) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.ScoreRow, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rows[enrollmentID], nil
}

func newTestScale(t *testing.T) *GradeScale {
	t.Helper()
	scale, err := NewGradeScale(defaultBands())
	require.NoError(t, err)
	return scale
}

func TestCourseGradeAggregateMarksWeighted(t *testing.T) {
	// 45/50 + 40/50 + 17/20 = 102/120 = 85% -> B, not the unweighted
	// mean of the three percentages.
	reader := &mockScoreReader{rows: map[string][]models.ScoreRow{
		"enr-1": {
			{AssessmentID: "a1", Title: "Assignment 1", Type: models.AssessmentTypeAssignment, TotalMarks: 50, Score: ptrFloat(45)},
			{AssessmentID: "a2", Title: "Midterm", Type: models.AssessmentTypeMidterm, TotalMarks: 50, Score: ptrFloat(40)},
			{AssessmentID: "a3", Title: "Quiz", Type: models.AssessmentTypeQuiz, TotalMarks: 20, Score: ptrFloat(17)},
		},
	}}
	svc := NewCourseGradeService(reader, newTestScale(t), nil)

	grade, err := svc.Aggregate(context.Background(), "enr-1")
	require.NoError(t, err)
	assert.Equal(t, models.GradeStatusGraded, grade.Status)
	require.NotNil(t, grade.Percentage)
	assert.InDelta(t, 85.0, *grade.Percentage, 0.001)
	assert.Equal(t, "B", *grade.LetterGrade)
	assert.Equal(t, 3.0, *grade.GradePoint)
}

func TestCourseGradeAggregateSkipsUngraded(t *testing.T) {
	// The ungraded final stays out of both numerator and denominator;
	// counting it as zero would drag 88/100 down to a C.
	reader := &mockScoreReader{rows: map[string][]models.ScoreRow{
		"enr-1": {
			{AssessmentID: "a1", Title: "Assignment 1", Type: models.AssessmentTypeAssignment, TotalMarks: 100, Score: ptrFloat(88)},
			{AssessmentID: "a2", Title: "Final", Type: models.AssessmentTypeFinal, TotalMarks: 100, Score: nil},
		},
	}}
	svc := NewCourseGradeService(reader, newTestScale(t), nil)

	grade, err := svc.Aggregate(context.Background(), "enr-1")
	require.NoError(t, err)
	assert.Equal(t, models.GradeStatusGraded, grade.Status)
	assert.InDelta(t, 88.0, *grade.Percentage, 0.001)
	assert.Equal(t, "B", *grade.LetterGrade)
}

func TestCourseGradeAggregateOrderInvariant(t *testing.T) {
	rows := []models.ScoreRow{
		{AssessmentID: "a1", Title: "Quiz 1", Type: models.AssessmentTypeQuiz, TotalMarks: 30, Score: ptrFloat(21)},
		{AssessmentID: "a2", Title: "Project", Type: models.AssessmentTypeProject, TotalMarks: 70, Score: ptrFloat(63)},
		{AssessmentID: "a3", Title: "Final", Type: models.AssessmentTypeFinal, TotalMarks: 100, Score: ptrFloat(81)},
	}
	reversed := []models.ScoreRow{rows[2], rows[1], rows[0]}

	svc := NewCourseGradeService(&mockScoreReader{}, newTestScale(t), nil)

	forward, err := svc.AggregateRows("enr-1", rows)
	require.NoError(t, err)
	backward, err := svc.AggregateRows("enr-1", reversed)
	require.NoError(t, err)

	assert.Equal(t, *forward.Percentage, *backward.Percentage)
	assert.Equal(t, *forward.LetterGrade, *backward.LetterGrade)
	assert.Equal(t, *forward.GradePoint, *backward.GradePoint)
}

func TestCourseGradeAggregateIncomplete(t *testing.T) {
	t.Run("no assessments", func(t *testing.T) {
		svc := NewCourseGradeService(&mockScoreReader{}, newTestScale(t), nil)
		grade, err := svc.Aggregate(context.Background(), "enr-empty")
		require.NoError(t, err)
		assert.Equal(t, models.GradeStatusIncomplete, grade.Status)
		assert.Nil(t, grade.Percentage)
		assert.Nil(t, grade.LetterGrade)
		assert.Nil(t, grade.GradePoint)
	})

	t.Run("nothing graded yet", func(t *testing.T) {
		reader := &mockScoreReader{rows: map[string][]models.ScoreRow{
			"enr-1": {
				{AssessmentID: "a1", Title: "Assignment 1", Type: models.AssessmentTypeAssignment, TotalMarks: 100, Score: nil},
				{AssessmentID: "a2", Title: "Final", Type: models.AssessmentTypeFinal, TotalMarks: 100, Score: nil},
			},
		}}
		svc := NewCourseGradeService(reader, newTestScale(t), nil)
		grade, err := svc.Aggregate(context.Background(), "enr-1")
		require.NoError(t, err)
		assert.Equal(t, models.GradeStatusIncomplete, grade.Status)
		assert.False(t, grade.Complete())
	})
}

func TestCourseGradeDisplayRounding(t *testing.T) {
	// 53/60 = 88.333...%: the letter resolves on full precision, the
	// displayed percentage rounds to one decimal.
	reader := &mockScoreReader{rows: map[string][]models.ScoreRow{
		"enr-1": {
			{AssessmentID: "a1", Title: "Midterm", Type: models.AssessmentTypeMidterm, TotalMarks: 60, Score: ptrFloat(53)},
		},
	}}
	svc := NewCourseGradeService(reader, newTestScale(t), nil)

	grade, err := svc.Aggregate(context.Background(), "enr-1")
	require.NoError(t, err)
	assert.Equal(t, 88.3, *grade.Percentage)
	assert.Equal(t, "B", *grade.LetterGrade)
}
