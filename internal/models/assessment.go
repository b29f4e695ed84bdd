package models

import "time"

// AssessmentType enumerates gradable units of work within a course.
type AssessmentType string

const (
	AssessmentTypeAssignment AssessmentType = "ASSIGNMENT"
	AssessmentTypeQuiz       AssessmentType = "QUIZ"
	AssessmentTypeMidterm    AssessmentType = "MIDTERM"
	AssessmentTypeFinal      AssessmentType = "FINAL"
	AssessmentTypeProject    AssessmentType = "PROJECT"
)

// Assessment belongs to exactly one course and carries a positive total
// marks value.
type Assessment struct {
	ID         string         `db:"id" json:"id"`
	CourseID   string         `db:"course_id" json:"course_id"`
	Title      string         `db:"title" json:"title"`
	Type       AssessmentType `db:"type" json:"type"`
	TotalMarks float64        `db:"total_marks" json:"total_marks"`
	DueDate    *time.Time     `db:"due_date" json:"due_date,omitempty"`
}

// ScoreRow pairs an assessment with the score recorded for one enrollment.
// Score is nil while the assessment is ungraded; the percentage is
// undefined until a score exists.
type ScoreRow struct {
	AssessmentID string         `db:"assessment_id" json:"assessment_id"`
	Title        string         `db:"title" json:"title"`
	Type         AssessmentType `db:"type" json:"type"`
	TotalMarks   float64        `db:"total_marks" json:"total_marks"`
	Score        *float64       `db:"score" json:"score,omitempty"`
}

// Graded reports whether a score has been recorded.
func (r ScoreRow) Graded() bool {
	return r.Score != nil
}

// Percentage returns score/totalMarks*100, or nil while ungraded.
func (r ScoreRow) Percentage() *float64 {
	if r.Score == nil || r.TotalMarks <= 0 {
		return nil
	}
	p := *r.Score / r.TotalMarks * 100
	return &p
}
