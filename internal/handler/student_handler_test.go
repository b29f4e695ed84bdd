package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-portal-api/internal/models"
)

func TestStudentHandlerAcademicSummary(t *testing.T) {
	fixture := newRecordFixture(t)
	handler := NewStudentHandler(fixture.students)

	c, w := testContext(t, http.MethodGet, "/students/stu-1/academic-summary", nil, &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}

	handler.AcademicSummary(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.AcademicSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "stu-1", envelope.Data.StudentID)
	require.NotNil(t, envelope.Data.GPA)
	assert.Equal(t, 4.0, *envelope.Data.GPA)
	assert.Equal(t, 3, envelope.Data.TotalCredits)
}

func TestStudentHandlerAcademicSummaryForbidden(t *testing.T) {
	fixture := newRecordFixture(t)
	handler := NewStudentHandler(fixture.students)

	c, w := testContext(t, http.MethodGet, "/students/stu-1/academic-summary", nil, &models.JWTClaims{UserID: "stu-2", Role: models.RoleStudent})
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}

	handler.AcademicSummary(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestStudentHandlerEnrollments(t *testing.T) {
	fixture := newRecordFixture(t)
	handler := NewStudentHandler(fixture.students)

	c, w := testContext(t, http.MethodGet, "/students/stu-1/enrollments", nil, &models.JWTClaims{UserID: "staff-1", Role: models.RoleStaff})
	c.Params = gin.Params{{Key: "id", Value: "stu-1"}}

	handler.Enrollments(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []models.EnrollmentDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "CS101", envelope.Data[0].CourseCode)
}

func TestStudentHandlerUnknownStudent(t *testing.T) {
	fixture := newRecordFixture(t)
	handler := NewStudentHandler(fixture.students)

	c, w := testContext(t, http.MethodGet, "/students/stu-missing/academic-summary", nil, &models.JWTClaims{UserID: "staff-1", Role: models.RoleStaff})
	c.Params = gin.Params{{Key: "id", Value: "stu-missing"}}

	handler.AcademicSummary(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
