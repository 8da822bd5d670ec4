package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/youthlaunch/microintern-api/internal/models"
	"github.com/youthlaunch/microintern-api/internal/service"
	appErrors "github.com/youthlaunch/microintern-api/pkg/errors"
	"github.com/youthlaunch/microintern-api/pkg/response"
)

// ApplicationHandler exposes the application lifecycle endpoints.
type ApplicationHandler struct {
	service *service.ApplicationService
	exports *service.ExportService
}

// NewApplicationHandler creates a new handler.
func NewApplicationHandler(svc *service.ApplicationService, exports *service.ExportService) *ApplicationHandler {
	return &ApplicationHandler{service: svc, exports: exports}
}

// Submit godoc
// @Summary Submit application
// @Description Apply for a published internship
// @Tags Applications
// @Accept json
// @Produce json
// @Param payload body service.SubmitApplicationRequest true "Application payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /applications [post]
func (h *ApplicationHandler) Submit(c *gin.Context) {
	var req service.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid application payload"))
		return
	}

	app, err := h.service.Submit(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, app)
}

// ListOwn godoc
// @Summary List own applications
// @Description Returns the authenticated student's applications
// @Tags Applications
// @Produce json
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /applications/me [get]
func (h *ApplicationHandler) ListOwn(c *gin.Context) {
	items, pagination, err := h.service.ListOwn(c.Request.Context(), claimsFromContext(c), queryInt(c, "page", 1), queryInt(c, "page_size", 20))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items, pagination)
}

// List godoc
// @Summary List applications
// @Description Admin listing with status, internship and student filters
// @Tags Admin
// @Produce json
// @Param status query string false "Status filter"
// @Param micro_internship_id query string false "Internship filter"
// @Param student_id query string false "Student filter"
// @Param sort_by query string false "Sort column"
// @Param sort_order query string false "asc or desc"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/applications [get]
func (h *ApplicationHandler) List(c *gin.Context) {
	filter := applicationFilterFromQuery(c)
	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get application detail
// @Description Returns the application with student, internship and mentor context
// @Tags Admin
// @Produce json
// @Param id path string true "Application ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/applications/{id} [get]
func (h *ApplicationHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, detail, nil)
}

// Transition godoc
// @Summary Transition application
// @Description Apply a status transition with optional mentor assignment
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Application ID"
// @Param payload body service.TransitionApplicationRequest true "Transition payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/applications/{id} [patch]
func (h *ApplicationHandler) Transition(c *gin.Context) {
	var req service.TransitionApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid transition payload"))
		return
	}

	detail, err := h.service.Transition(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, detail, nil)
}

// Export godoc
// @Summary Export applications
// @Description Download the application roster as CSV or PDF
// @Tags Admin
// @Produce text/csv
// @Produce application/pdf
// @Param format query string true "csv or pdf"
// @Param status query string false "Status filter"
// @Param micro_internship_id query string false "Internship filter"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/applications/export [get]
func (h *ApplicationHandler) Export(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	filter := applicationFilterFromQuery(c)

	result, err := h.exports.GenerateApplications(c.Request.Context(), claimsFromContext(c), filter, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}

func applicationFilterFromQuery(c *gin.Context) models.ApplicationFilter {
	return models.ApplicationFilter{
		Status:            models.ApplicationStatus(c.Query("status")),
		MicroInternshipID: c.Query("micro_internship_id"),
		StudentID:         c.Query("student_id"),
		SortBy:            c.Query("sort_by"),
		SortOrder:         c.Query("sort_order"),
		Page:              queryInt(c, "page", 1),
		PageSize:          queryInt(c, "page_size", 20),
	}
}
