package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-portal-api/internal/dto"
	"github.com/noah-isme/uni-portal-api/internal/middleware"
	"github.com/noah-isme/uni-portal-api/internal/models"
	"github.com/noah-isme/uni-portal-api/internal/repository"
	"github.com/noah-isme/uni-portal-api/internal/service"
	"github.com/noah-isme/uni-portal-api/pkg/config"
)

func floatPtr(v float64) *float64 {
	return &v
}

type transcriptStoreMock struct {
	requests map[string]*models.TranscriptRequest
}

func newTranscriptStoreMock() *transcriptStoreMock {
	return &transcriptStoreMock{requests: make(map[string]*models.TranscriptRequest)}
}

func (m *transcriptStoreMock) Create(ctx context.Context, request *models.TranscriptRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	request.Status = models.TranscriptStatusPendingReview
	request.RequestedAt = time.Now().UTC()
	stored := *request
	m.requests[request.ID] = &stored
	return nil
}

func (m *transcriptStoreMock) GetByID(ctx context.Context, id string) (*models.TranscriptRequest, error) {
	request, ok := m.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *request
	return &copied, nil
}

func (m *transcriptStoreMock) List(ctx context.Context, filter models.TranscriptFilter) ([]models.TranscriptRequest, error) {
	var result []models.TranscriptRequest
	for _, request := range m.requests {
		if filter.StudentID != "" && request.StudentID != filter.StudentID {
			continue
		}
		result = append(result, *request)
	}
	return result, nil
}

func (m *transcriptStoreMock) ExistsPending(ctx context.Context, studentID string) (bool, error) {
	return false, nil
}

func (m *transcriptStoreMock) Decide(ctx context.Context, params repository.DecideParams) error {
	request, ok := m.requests[params.ID]
	if !ok || request.Status != models.TranscriptStatusPendingReview {
		return sql.ErrNoRows
	}
	request.Status = params.Status
	reviewedAt := params.ReviewedAt
	request.ReviewedAt = &reviewedAt
	reviewedBy := params.ReviewedBy
	request.ReviewedBy = &reviewedBy
	request.RejectionReason = params.RejectionReason
	request.Snapshot = params.Snapshot
	return nil
}

type studentReaderMock struct {
	students map[string]*models.Student
}

func (m *studentReaderMock) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if student, ok := m.students[id]; ok {
		return student, nil
	}
	return nil, sql.ErrNoRows
}

type enrollmentReaderMock struct {
	completed map[string][]models.Enrollment
	details   []models.EnrollmentDetail
}

func (m *enrollmentReaderMock) ListCompleted(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	return m.completed[studentID], nil
}

func (m *enrollmentReaderMock) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, error) {
	var result []models.EnrollmentDetail
	for _, detail := range m.details {
		if filter.StudentID != "" && detail.StudentID != filter.StudentID {
			continue
		}
		result = append(result, detail)
	}
	return result, nil
}

type courseReaderMock struct {
	courses map[string]models.Course
}

func (m *courseReaderMock) FindByIDs(ctx context.Context, ids []string) (map[string]models.Course, error) {
	found := make(map[string]models.Course)
	for _, id := range ids {
		if course, ok := m.courses[id]; ok {
			found[id] = course
		}
	}
	return found, nil
}

type scoreReaderMock struct {
	rows map[string][]models.ScoreRow
}

func (m *scoreReaderMock) ListByEnrollment(ctx context.Context, enrollmentID string) ([]models.ScoreRow, error) {
	return m.rows[enrollmentID], nil
}

type recordFixture struct {
	transcripts *service.TranscriptService
	students    *service.StudentService
	exports     *service.ExportService
	store       *transcriptStoreMock
}

func newRecordFixture(t *testing.T) *recordFixture {
	t.Helper()
	scale, err := service.NewGradeScale([]config.GradeBand{
		{MinPercent: 90, Letter: "A", GradePoint: 4.0},
		{MinPercent: 80, Letter: "B", GradePoint: 3.0},
		{MinPercent: 0, Letter: "F", GradePoint: 0.0},
	})
	require.NoError(t, err)

	completed := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	enrollments := &enrollmentReaderMock{
		completed: map[string][]models.Enrollment{
			"stu-1": {{ID: "enr-1", StudentID: "stu-1", CourseID: "crs-1", Semester: "2025-FALL", Status: models.EnrollmentStatusCompleted, CompletedAt: &completed}},
		},
		details: []models.EnrollmentDetail{
			{Enrollment: models.Enrollment{ID: "enr-1", StudentID: "stu-1", Semester: "2025-FALL", Status: models.EnrollmentStatusCompleted}, CourseCode: "CS101", CourseTitle: "Intro to Computing", CourseCredits: 3},
		},
	}
	courses := &courseReaderMock{courses: map[string]models.Course{
		"crs-1": {ID: "crs-1", Code: "CS101", Title: "Intro to Computing", Credits: 3},
	}}
	scores := &scoreReaderMock{rows: map[string][]models.ScoreRow{
		"enr-1": {{AssessmentID: "a1", Title: "Final", Type: models.AssessmentTypeFinal, TotalMarks: 100, Score: floatPtr(92)}},
	}}
	studentsRepo := &studentReaderMock{students: map[string]*models.Student{
		"stu-1": {ID: "stu-1", StudentNumber: "2023-0415", FullName: "Jordan Reyes", Program: "BS Computer Science"},
	}}

	grades := service.NewCourseGradeService(scores, scale, nil)
	summaries := service.NewSummaryService(enrollments, courses, grades, nil, 0, nil, nil)
	snapshots := service.NewSnapshotService(studentsRepo, summaries, scores, nil, nil)
	store := newTranscriptStoreMock()
	transcripts := service.NewTranscriptService(store, snapshots, nil, true, nil)
	students := service.NewStudentService(studentsRepo, enrollments, summaries, nil)
	exports := service.NewExportService(transcripts, nil, nil, nil)

	return &recordFixture{transcripts: transcripts, students: students, exports: exports, store: store}
}

func testContext(t *testing.T, method, target string, body []byte, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, target, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, w
}

func TestTranscriptHandlerCreate(t *testing.T) {
	fixture := newRecordFixture(t)
	handler := NewTranscriptHandler(fixture.transcripts, fixture.exports)

	body, _ := json.Marshal(dto.CreateTranscriptRequest{StudentID: "stu-1"})
	c, w := testContext(t, http.MethodPost, "/transcript-requests", body, &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data models.TranscriptRequest `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, models.TranscriptStatusPendingReview, envelope.Data.Status)
}

func TestTranscriptHandlerCreateInvalidBody(t *testing.T) {
	fixture := newRecordFixture(t)
	handler := NewTranscriptHandler(fixture.transcripts, fixture.exports)

	c, w := testContext(t, http.MethodPost, "/transcript-requests", []byte(`invalid`), &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})

	handler.Create(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTranscriptHandlerApproveAndGet(t *testing.T) {
	fixture := newRecordFixture(t)
	handler := NewTranscriptHandler(fixture.transcripts, fixture.exports)

	request, err := fixture.transcripts.Create(context.Background(), "stu-1", &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})
	require.NoError(t, err)

	c, w := testContext(t, http.MethodPut, "/transcript-requests/"+request.ID+"/approve", nil, &models.JWTClaims{UserID: "staff-1", Role: models.RoleStaff})
	c.Params = gin.Params{{Key: "id", Value: request.ID}}

	handler.Approve(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data dto.TranscriptRequestResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, models.TranscriptStatusApproved, envelope.Data.Status)
	assert.NotEmpty(t, envelope.Data.Snapshot)

	// Approving again conflicts.
	c2, w2 := testContext(t, http.MethodPut, "/transcript-requests/"+request.ID+"/approve", nil, &models.JWTClaims{UserID: "staff-2", Role: models.RoleStaff})
	c2.Params = gin.Params{{Key: "id", Value: request.ID}}
	handler.Approve(c2)
	assert.Equal(t, http.StatusConflict, w2.Code)
}

func TestTranscriptHandlerRejectWithoutReason(t *testing.T) {
	fixture := newRecordFixture(t)
	handler := NewTranscriptHandler(fixture.transcripts, fixture.exports)

	request, err := fixture.transcripts.Create(context.Background(), "stu-1", &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})
	require.NoError(t, err)

	body, _ := json.Marshal(dto.RejectTranscriptRequest{Reason: ""})
	c, w := testContext(t, http.MethodPut, "/transcript-requests/"+request.ID+"/reject", body, &models.JWTClaims{UserID: "staff-1", Role: models.RoleStaff})
	c.Params = gin.Params{{Key: "id", Value: request.ID}}

	handler.Reject(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTranscriptHandlerGetForbiddenForOtherStudent(t *testing.T) {
	fixture := newRecordFixture(t)
	handler := NewTranscriptHandler(fixture.transcripts, fixture.exports)

	request, err := fixture.transcripts.Create(context.Background(), "stu-1", &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})
	require.NoError(t, err)

	c, w := testContext(t, http.MethodGet, "/transcript-requests/"+request.ID, nil, &models.JWTClaims{UserID: "stu-2", Role: models.RoleStudent})
	c.Params = gin.Params{{Key: "id", Value: request.ID}}

	handler.Get(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestTranscriptHandlerExportPDF(t *testing.T) {
	fixture := newRecordFixture(t)
	handler := NewTranscriptHandler(fixture.transcripts, fixture.exports)

	request, err := fixture.transcripts.Create(context.Background(), "stu-1", &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})
	require.NoError(t, err)
	_, err = fixture.transcripts.Approve(context.Background(), request.ID, "staff-1")
	require.NoError(t, err)

	c, w := testContext(t, http.MethodGet, "/transcript-requests/"+request.ID+"/pdf", nil, &models.JWTClaims{UserID: "staff-1", Role: models.RoleStaff})
	c.Params = gin.Params{{Key: "id", Value: request.ID}}

	handler.ExportPDF(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestTranscriptHandlerExportBeforeApproval(t *testing.T) {
	fixture := newRecordFixture(t)
	handler := NewTranscriptHandler(fixture.transcripts, fixture.exports)

	request, err := fixture.transcripts.Create(context.Background(), "stu-1", &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})
	require.NoError(t, err)

	c, w := testContext(t, http.MethodGet, "/transcript-requests/"+request.ID+"/csv", nil, &models.JWTClaims{UserID: "staff-1", Role: models.RoleStaff})
	c.Params = gin.Params{{Key: "id", Value: request.ID}}

	handler.ExportCSV(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}
