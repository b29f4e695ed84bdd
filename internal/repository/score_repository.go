package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-portal-api/internal/models"
)

// ScoreRepository reads assessment scores. Score writes belong to course
// staff tooling outside this service.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository constructs the repository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

// ListByEnrollment returns every assessment of the enrollment's course
// paired with the recorded score, nil score when ungraded. Rows are
// ordered by title then assessment id so repeated reads of unchanged data
// come back in the same order.
func (r *ScoreRepository) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.ScoreRow, error) {
	const query = `SELECT a.id AS assessment_id, a.title, a.type, a.total_marks, s.score
        FROM assessments a
        JOIN enrollments e ON e.course_id = a.course_id
        LEFT JOIN scores s ON s.assessment_id = a.id AND s.enrollment_id = e.id
        WHERE e.id = $1
        ORDER BY a.title ASC, a.id ASC`
	var rows []models.ScoreRow
	if err := r.db.SelectContext(ctx, &rows, query, enrollmentID); err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return rows, nil
}
