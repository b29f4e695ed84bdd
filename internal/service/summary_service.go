package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/uni-portal-api/internal/models"
	appErrors "github.com/noah-isme/uni-portal-api/pkg/errors"
)

type summaryEnrollmentReader interface {
	ListCompleted(ctx context.Context, studentID string) ([]models.Enrollment, error)
}

type summaryCourseReader interface {
	FindByIDs(ctx context.Context, ids []string) (map[string]models.Course, error)
}

type summaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type summaryMetrics interface {
	CacheHit()
	CacheMiss()
}

// SummaryService aggregates a student's completed enrollments into the
// academic summary: cumulative GPA, credits, counts and a
// semester-grouped course history. The computation is stateless; the
// optional cache only shortens repeated reads and is bypassed by the
// snapshot builder.
type SummaryService struct {
	enrollments summaryEnrollmentReader
	courses     summaryCourseReader
	grades      *CourseGradeService
	cache       summaryCache
	cacheTTL    time.Duration
	metrics     summaryMetrics
	logger      *zap.Logger
}

// NewSummaryService constructs the summary builder. cache and metrics may
// be nil.
func NewSummaryService(enrollments summaryEnrollmentReader, courses summaryCourseReader, grades *CourseGradeService, cache summaryCache, cacheTTL time.Duration, metrics summaryMetrics, logger *zap.Logger) *SummaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryService{
		enrollments: enrollments,
		courses:     courses,
		grades:      grades,
		cache:       cache,
		cacheTTL:    cacheTTL,
		metrics:     metrics,
		logger:      logger,
	}
}

func summaryCacheKey(studentID string) string {
	return fmt.Sprintf("summary:student:%s", studentID)
}

// Get returns the academic summary, serving a recent cached copy when one
// exists. Score edits land within the cache TTL.
func (s *SummaryService) Get(ctx context.Context, studentID string) (*models.AcademicSummary, error) {
	if s.cache != nil {
		var cached models.AcademicSummary
		if err := s.cache.Get(ctx, summaryCacheKey(studentID), &cached); err == nil {
			if s.metrics != nil {
				s.metrics.CacheHit()
			}
			return &cached, nil
		}
		if s.metrics != nil {
			s.metrics.CacheMiss()
		}
	}

	summary, err := s.Build(ctx, studentID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, summaryCacheKey(studentID), summary, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache academic summary", zap.String("student_id", studentID), zap.Error(err))
		}
	}
	return summary, nil
}

// Build recomputes the summary from live data, never touching the cache.
func (s *SummaryService) Build(ctx context.Context, studentID string) (*models.AcademicSummary, error) {
	completed, err := s.enrollments.ListCompleted(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list completed enrollments")
	}

	courseIDs := make([]string, 0, len(completed))
	seen := make(map[string]bool, len(completed))
	for _, enrollment := range completed {
		if !seen[enrollment.CourseID] {
			courseIDs = append(courseIDs, enrollment.CourseID)
			seen[enrollment.CourseID] = true
		}
	}
	courses, err := s.courses.FindByIDs(ctx, courseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}

	summary := &models.AcademicSummary{StudentID: studentID, CompletedCourses: len(completed)}

	var qualityPoints, gpaCredits float64
	groupIndex := make(map[string]int)

	for _, enrollment := range completed {
		course, ok := courses[enrollment.CourseID]
		if !ok {
			// A partial GPA is worse than a visible failure: abort instead
			// of silently skipping the broken enrollment.
			s.logger.Error("completed enrollment references missing course",
				zap.String("enrollment_id", enrollment.ID),
				zap.String("course_id", enrollment.CourseID))
			return nil, appErrors.Clone(appErrors.ErrDanglingEnrollment, fmt.Sprintf("enrollment %s references missing course %s", enrollment.ID, enrollment.CourseID))
		}

		grade, err := s.grades.Aggregate(ctx, enrollment.ID)
		if err != nil {
			return nil, err
		}

		summary.TotalCredits += course.Credits
		if grade.Complete() {
			qualityPoints += *grade.GradePoint * float64(course.Credits)
			gpaCredits += float64(course.Credits)
		}

		entry := models.CourseHistoryEntry{
			EnrollmentID: enrollment.ID,
			CourseID:     course.ID,
			CourseCode:   course.Code,
			CourseTitle:  course.Title,
			Credits:      course.Credits,
			Semester:     enrollment.Semester,
			EnrolledAt:   enrollment.EnrolledAt,
			CompletedAt:  enrollment.CompletedAt,
			Grade:        *grade,
		}

		idx, ok := groupIndex[enrollment.Semester]
		if !ok {
			idx = len(summary.Semesters)
			groupIndex[enrollment.Semester] = idx
			summary.Semesters = append(summary.Semesters, models.SemesterGroup{Semester: enrollment.Semester})
		}
		summary.Semesters[idx].Courses = append(summary.Semesters[idx].Courses, entry)
	}

	// GPA stays nil when no completed course is gradable; 0.0 would read
	// as a real grade point average.
	if gpaCredits > 0 {
		gpa := roundTo(qualityPoints/gpaCredits, 2)
		summary.GPA = &gpa
	}
	return summary, nil
}
