package models

import "time"

// TranscriptStatus captures the transcript request lifecycle. APPROVED and
// REJECTED are terminal; no transition leaves them.
type TranscriptStatus string

const (
	TranscriptStatusPendingReview TranscriptStatus = "PENDING_REVIEW"
	TranscriptStatusApproved      TranscriptStatus = "APPROVED"
	TranscriptStatusRejected      TranscriptStatus = "REJECTED"
)

// TranscriptRequest is a student's request for an official transcript.
// Snapshot holds the frozen payload captured at approval time and is never
// recomputed, even when later score corrections change the live summary.
type TranscriptRequest struct {
	ID              string           `db:"id" json:"id"`
	StudentID       string           `db:"student_id" json:"student_id"`
	Status          TranscriptStatus `db:"status" json:"status"`
	RequestedAt     time.Time        `db:"requested_at" json:"requested_at"`
	ReviewedAt      *time.Time       `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewedBy      *string          `db:"reviewed_by" json:"reviewed_by,omitempty"`
	RejectionReason *string          `db:"rejection_reason" json:"rejection_reason,omitempty"`
	Snapshot        []byte           `db:"snapshot" json:"-"`
}

// Terminal reports whether the request can still be decided.
func (r TranscriptRequest) Terminal() bool {
	return r.Status == TranscriptStatusApproved || r.Status == TranscriptStatusRejected
}

// TranscriptFilter constrains request listings.
type TranscriptFilter struct {
	StudentID string
	Status    TranscriptStatus
	Limit     int
	Offset    int
}

// TranscriptSnapshot is the self-contained transcript value captured at
// approval time. It carries no references the engine dereferences later,
// and its field and slice ordering is stable so that building it twice
// against unchanged data marshals byte-identically.
type TranscriptSnapshot struct {
	StudentID        string             `json:"student_id"`
	StudentNumber    string             `json:"student_number"`
	StudentName      string             `json:"student_name"`
	Program          string             `json:"program"`
	GPA              *float64           `json:"gpa"`
	TotalCredits     int                `json:"total_credits"`
	CompletedCourses int                `json:"completed_courses"`
	Courses          []TranscriptCourse `json:"courses"`
}

// TranscriptCourse is one completed course inside a snapshot.
type TranscriptCourse struct {
	CourseCode  string                 `json:"course_code"`
	CourseTitle string                 `json:"course_title"`
	Credits     int                    `json:"credits"`
	Semester    string                 `json:"semester"`
	GradeStatus GradeStatus            `json:"grade_status"`
	Percentage  *float64               `json:"percentage,omitempty"`
	LetterGrade *string                `json:"letter_grade,omitempty"`
	GradePoint  *float64               `json:"grade_point,omitempty"`
	EnrolledAt  time.Time              `json:"enrolled_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
	Assessments []TranscriptAssessment `json:"assessments"`
}

// TranscriptAssessment is one assessment score row as it existed at
// approval time.
type TranscriptAssessment struct {
	Title      string         `json:"title"`
	Type       AssessmentType `json:"type"`
	Score      *float64       `json:"score,omitempty"`
	TotalMarks float64        `json:"total_marks"`
	Percentage *float64       `json:"percentage,omitempty"`
}
