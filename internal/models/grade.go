package models

import "time"

// GradeStatus marks whether a completed course resolved to a grade.
type GradeStatus string

const (
	// GradeStatusGraded means at least one assessment was scored.
	GradeStatusGraded GradeStatus = "GRADED"
	// GradeStatusIncomplete means no assessment has a score yet. The course
	// still appears in history but never contributes to the GPA.
	GradeStatusIncomplete GradeStatus = "INCOMPLETE"
)

// CourseGrade is the derived grade for one enrollment. It is recomputed on
// demand from live score data and never persisted outside a frozen
// transcript snapshot. All grade fields are nil while the course is
// incomplete.
type CourseGrade struct {
	EnrollmentID string      `json:"enrollment_id"`
	Status       GradeStatus `json:"status"`
	Percentage   *float64    `json:"percentage,omitempty"`
	LetterGrade  *string     `json:"letter_grade,omitempty"`
	GradePoint   *float64    `json:"grade_point,omitempty"`
}

// Complete reports whether the enrollment resolved to a grade.
func (g CourseGrade) Complete() bool {
	return g.Status == GradeStatusGraded
}

// CourseHistoryEntry is one completed course in a student's history.
type CourseHistoryEntry struct {
	EnrollmentID string      `json:"enrollment_id"`
	CourseID     string      `json:"course_id"`
	CourseCode   string      `json:"course_code"`
	CourseTitle  string      `json:"course_title"`
	Credits      int         `json:"credits"`
	Semester     string      `json:"semester"`
	EnrolledAt   time.Time   `json:"enrolled_at"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
	Grade        CourseGrade `json:"grade"`
}

// SemesterGroup groups course history entries under one semester label.
type SemesterGroup struct {
	Semester string               `json:"semester"`
	Courses  []CourseHistoryEntry `json:"courses"`
}

// AcademicSummary aggregates a student's completed enrollments. GPA is nil
// when no completed course is gradable; callers must treat nil as "no GPA
// yet", never as 0.0. TotalCredits covers all completed enrollments,
// gradable or not.
type AcademicSummary struct {
	StudentID        string          `json:"student_id"`
	GPA              *float64        `json:"gpa"`
	TotalCredits     int             `json:"total_credits"`
	CompletedCourses int             `json:"completed_courses"`
	Semesters        []SemesterGroup `json:"semesters"`
}
