package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-portal-api/internal/models"
	"github.com/noah-isme/uni-portal-api/internal/service"
	"github.com/noah-isme/uni-portal-api/pkg/response"
)

// StudentHandler exposes a student's academic record endpoints.
type StudentHandler struct {
	service *service.StudentService
}

// NewStudentHandler creates a new handler.
func NewStudentHandler(svc *service.StudentService) *StudentHandler {
	return &StudentHandler{service: svc}
}

// AcademicSummary godoc
// @Summary Get academic summary
// @Description Returns GPA, credits and semester-grouped course history for a student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/academic-summary [get]
func (h *StudentHandler) AcademicSummary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Enrollments godoc
// @Summary List enrollments
// @Description Lists a student's enrollments, optionally filtered by semester and status
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Param semester query string false "Semester label"
// @Param status query string false "Enrollment status"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/{id}/enrollments [get]
func (h *StudentHandler) Enrollments(c *gin.Context) {
	filter := models.EnrollmentFilter{
		Semester: c.Query("semester"),
		Status:   models.EnrollmentStatus(c.Query("status")),
	}
	enrollments, err := h.service.Enrollments(c.Request.Context(), c.Param("id"), filter, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollments, nil)
}
