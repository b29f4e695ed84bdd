package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-portal-api/internal/models"
	appErrors "github.com/noah-isme/uni-portal-api/pkg/errors"
)

type mockEnrollmentReader struct {
	completed map[string][]models.Enrollment
}

func (m *mockEnrollmentReader) ListCompleted(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	return m.completed[studentID], nil
}

type mockCourseReader struct {
	courses map[string]models.Course
}

func (m *mockCourseReader) FindByIDs(ctx context.Context, ids []string) (map[string]models.Course, error) {
	found := make(map[string]models.Course)
	for _, id := range ids {
		if course, ok := m.courses[id]; ok {
			found[id] = course
		}
	}
	return found, nil
}

type mockSummaryCache struct {
	entries map[string][]byte
	sets    int
}

func (m *mockSummaryCache) Get(ctx context.Context, key string, dest interface{}) error {
	payload, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (m *mockSummaryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	m.entries[key] = payload
	m.sets++
	return nil
}

func completedAt(day int) *time.Time {
	ts := time.Date(2026, 5, day, 0, 0, 0, 0, time.UTC)
	return &ts
}

func newSummaryFixture(t *testing.T) (*SummaryService, *mockScoreReader) {
	t.Helper()
	enrollments := &mockEnrollmentReader{completed: map[string][]models.Enrollment{
		"stu-1": {
			{ID: "enr-1", StudentID: "stu-1", CourseID: "crs-1", Semester: "2025-FALL", Status: models.EnrollmentStatusCompleted, CompletedAt: completedAt(1)},
			{ID: "enr-2", StudentID: "stu-1", CourseID: "crs-2", Semester: "2025-FALL", Status: models.EnrollmentStatusCompleted, CompletedAt: completedAt(2)},
			{ID: "enr-3", StudentID: "stu-1", CourseID: "crs-3", Semester: "2026-SPRING", Status: models.EnrollmentStatusCompleted, CompletedAt: completedAt(3)},
		},
	}}
	courses := &mockCourseReader{courses: map[string]models.Course{
		"crs-1": {ID: "crs-1", Code: "CS101", Title: "Intro to Computing", Credits: 3},
		"crs-2": {ID: "crs-2", Code: "MA201", Title: "Linear Algebra", Credits: 4},
		"crs-3": {ID: "crs-3", Code: "CS301", Title: "Operating Systems", Credits: 3},
	}}
	scores := &mockScoreReader{rows: map[string][]models.ScoreRow{
		// 95/100 -> A (4.0)
		"enr-1": {{AssessmentID: "a1", Title: "Final", Type: models.AssessmentTypeFinal, TotalMarks: 100, Score: ptrFloat(95)}},
		// 82/100 -> B (3.0)
		"enr-2": {{AssessmentID: "a2", Title: "Final", Type: models.AssessmentTypeFinal, TotalMarks: 100, Score: ptrFloat(82)}},
		// nothing graded -> incomplete
		"enr-3": {{AssessmentID: "a3", Title: "Final", Type: models.AssessmentTypeFinal, TotalMarks: 100, Score: nil}},
	}}
	grades := NewCourseGradeService(scores, newTestScale(t), nil)
	return NewSummaryService(enrollments, courses, grades, nil, 0, nil, nil), scores
}

func TestSummaryBuildCreditWeightedGPA(t *testing.T) {
	svc, _ := newSummaryFixture(t)

	summary, err := svc.Build(context.Background(), "stu-1")
	require.NoError(t, err)

	// GPA over gradable courses only: (4.0*3 + 3.0*4) / 7 = 3.43. Total
	// credits still count the incomplete course.
	require.NotNil(t, summary.GPA)
	assert.Equal(t, 3.43, *summary.GPA)
	assert.Equal(t, 10, summary.TotalCredits)
	assert.Equal(t, 3, summary.CompletedCourses)

	require.Len(t, summary.Semesters, 2)
	assert.Equal(t, "2025-FALL", summary.Semesters[0].Semester)
	assert.Len(t, summary.Semesters[0].Courses, 2)
	assert.Equal(t, "2026-SPRING", summary.Semesters[1].Semester)
	require.Len(t, summary.Semesters[1].Courses, 1)
	assert.Equal(t, models.GradeStatusIncomplete, summary.Semesters[1].Courses[0].Grade.Status)
}

func TestSummaryBuildNilGPAWhenNothingGradable(t *testing.T) {
	enrollments := &mockEnrollmentReader{completed: map[string][]models.Enrollment{
		"stu-1": {
			{ID: "enr-1", StudentID: "stu-1", CourseID: "crs-1", Semester: "2025-FALL", Status: models.EnrollmentStatusCompleted},
		},
	}}
	courses := &mockCourseReader{courses: map[string]models.Course{
		"crs-1": {ID: "crs-1", Code: "CS101", Title: "Intro to Computing", Credits: 3},
	}}
	scores := &mockScoreReader{}
	grades := NewCourseGradeService(scores, newTestScale(t), nil)
	svc := NewSummaryService(enrollments, courses, grades, nil, 0, nil, nil)

	summary, err := svc.Build(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Nil(t, summary.GPA)
	assert.Equal(t, 3, summary.TotalCredits)
	assert.Equal(t, 1, summary.CompletedCourses)
}

func TestSummaryBuildEmptyHistory(t *testing.T) {
	svc, _ := newSummaryFixture(t)

	summary, err := svc.Build(context.Background(), "stu-unknown")
	require.NoError(t, err)
	assert.Nil(t, summary.GPA)
	assert.Zero(t, summary.TotalCredits)
	assert.Zero(t, summary.CompletedCourses)
	assert.Empty(t, summary.Semesters)
}

func TestSummaryBuildDanglingEnrollmentAborts(t *testing.T) {
	enrollments := &mockEnrollmentReader{completed: map[string][]models.Enrollment{
		"stu-1": {
			{ID: "enr-1", StudentID: "stu-1", CourseID: "crs-gone", Semester: "2025-FALL", Status: models.EnrollmentStatusCompleted},
		},
	}}
	courses := &mockCourseReader{courses: map[string]models.Course{}}
	grades := NewCourseGradeService(&mockScoreReader{}, newTestScale(t), nil)
	svc := NewSummaryService(enrollments, courses, grades, nil, 0, nil, nil)

	summary, err := svc.Build(context.Background(), "stu-1")
	require.Error(t, err)
	assert.Nil(t, summary)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrDanglingEnrollment.Code, appErr.Code)
}

func TestSummaryGetUsesCache(t *testing.T) {
	enrollments := &mockEnrollmentReader{completed: map[string][]models.Enrollment{
		"stu-1": {
			{ID: "enr-1", StudentID: "stu-1", CourseID: "crs-1", Semester: "2025-FALL", Status: models.EnrollmentStatusCompleted},
		},
	}}
	courses := &mockCourseReader{courses: map[string]models.Course{
		"crs-1": {ID: "crs-1", Code: "CS101", Title: "Intro to Computing", Credits: 3},
	}}
	scores := &mockScoreReader{rows: map[string][]models.ScoreRow{
		"enr-1": {{AssessmentID: "a1", Title: "Final", Type: models.AssessmentTypeFinal, TotalMarks: 100, Score: ptrFloat(91)}},
	}}
	grades := NewCourseGradeService(scores, newTestScale(t), nil)
	cache := &mockSummaryCache{}
	svc := NewSummaryService(enrollments, courses, grades, cache, time.Minute, nil, nil)

	first, err := svc.Get(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	// A score change does not show through until the cached entry expires.
	scores.rows["enr-1"][0].Score = ptrFloat(50)
	second, err := svc.Get(context.Background(), "stu-1")
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, *first.GPA, *second.GPA)
}

func TestSummaryCacheKey(t *testing.T) {
	assert.Equal(t, fmt.Sprintf("summary:student:%s", "stu-1"), summaryCacheKey("stu-1"))
}
