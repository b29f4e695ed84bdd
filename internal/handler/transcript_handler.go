package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-portal-api/internal/dto"
	"github.com/noah-isme/uni-portal-api/internal/models"
	"github.com/noah-isme/uni-portal-api/internal/service"
	appErrors "github.com/noah-isme/uni-portal-api/pkg/errors"
	"github.com/noah-isme/uni-portal-api/pkg/response"
)

// TranscriptHandler wires HTTP endpoints to the transcript request workflow.
type TranscriptHandler struct {
	service *service.TranscriptService
	exports *service.ExportService
}

// NewTranscriptHandler creates a new handler.
func NewTranscriptHandler(svc *service.TranscriptService, exports *service.ExportService) *TranscriptHandler {
	return &TranscriptHandler{service: svc, exports: exports}
}

// Create godoc
// @Summary Request a transcript
// @Description Opens a pending transcript request for the authenticated student
// @Tags Transcripts
// @Accept json
// @Produce json
// @Param payload body dto.CreateTranscriptRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /transcript-requests [post]
func (h *TranscriptHandler) Create(c *gin.Context) {
	var req dto.CreateTranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid request payload"))
		return
	}

	request, err := h.service.Create(c.Request.Context(), req.StudentID, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// List godoc
// @Summary List transcript requests
// @Description Lists transcript requests; students only see their own
// @Tags Transcripts
// @Produce json
// @Param student_id query string false "Student ID"
// @Param status query string false "Request status"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} response.Envelope
// @Router /transcript-requests [get]
func (h *TranscriptHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	query := dto.TranscriptQuery{
		StudentID: c.Query("student_id"),
		Status:    models.TranscriptStatus(c.Query("status")),
		Limit:     limit,
		Offset:    offset,
	}

	requests, err := h.service.List(c.Request.Context(), query, claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Get godoc
// @Summary Get a transcript request
// @Description Returns a request; the frozen snapshot is included once approved
// @Tags Transcripts
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /transcript-requests/{id} [get]
func (h *TranscriptHandler) Get(c *gin.Context) {
	request, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Approve godoc
// @Summary Approve a transcript request
// @Description Approves a pending request and freezes the transcript snapshot
// @Tags Transcripts
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /transcript-requests/{id}/approve [put]
func (h *TranscriptHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	request, err := h.service.Approve(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Reject godoc
// @Summary Reject a transcript request
// @Description Rejects a pending request; a reason is mandatory
// @Tags Transcripts
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.RejectTranscriptRequest true "Rejection payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /transcript-requests/{id}/reject [put]
func (h *TranscriptHandler) Reject(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.RejectTranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rejection payload"))
		return
	}

	request, err := h.service.Reject(c.Request.Context(), c.Param("id"), claims.UserID, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// ExportPDF godoc
// @Summary Download transcript PDF
// @Description Renders the frozen snapshot of an approved request as a PDF
// @Tags Transcripts
// @Produce application/pdf
// @Param id path string true "Request ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /transcript-requests/{id}/pdf [get]
func (h *TranscriptHandler) ExportPDF(c *gin.Context) {
	payload, filename, err := h.exports.RenderPDF(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/pdf", payload)
}

// ExportCSV godoc
// @Summary Download transcript CSV
// @Description Renders the frozen snapshot of an approved request as CSV
// @Tags Transcripts
// @Produce text/csv
// @Param id path string true "Request ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /transcript-requests/{id}/csv [get]
func (h *TranscriptHandler) ExportCSV(c *gin.Context) {
	payload, filename, err := h.exports.RenderCSV(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", payload)
}
