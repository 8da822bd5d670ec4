package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/youthlaunch/microintern-api/internal/service"
	appErrors "github.com/youthlaunch/microintern-api/pkg/errors"
	"github.com/youthlaunch/microintern-api/pkg/response"
)

// TaskHandler exposes task progress endpoints for students and mentors.
type TaskHandler struct {
	service *service.ProgressService
}

// NewTaskHandler creates a new handler.
func NewTaskHandler(svc *service.ProgressService) *TaskHandler {
	return &TaskHandler{service: svc}
}

// GetTask godoc
// @Summary Get task detail
// @Description Returns the task with its artifact template and the caller's progress
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetTask(c *gin.Context) {
	view, err := h.service.GetTaskForStudent(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, view, nil)
}

// SubmitTask godoc
// @Summary Submit task artifact
// @Description Submit or resubmit the artifact URL for a task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body service.SubmitTaskRequest true "Submission payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tasks/{id}/submit [post]
func (h *TaskHandler) SubmitTask(c *gin.Context) {
	var req service.SubmitTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid submission payload"))
		return
	}

	result, err := h.service.Submit(c.Request.Context(), c.Param("id"), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// GetProgress godoc
// @Summary Get submission detail
// @Description Returns a submission with its feedback history for the assigned mentor
// @Tags Mentor
// @Produce json
// @Param id path string true "Task progress ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /mentor/task-progresses/{id} [get]
func (h *TaskHandler) GetProgress(c *gin.Context) {
	detail, err := h.service.GetProgressForMentor(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, detail, nil)
}

// Review godoc
// @Summary Review submission
// @Description Approve a submission or request changes, with optional feedback
// @Tags Mentor
// @Accept json
// @Produce json
// @Param id path string true "Task progress ID"
// @Param payload body service.ReviewTaskRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /mentor/task-progresses/{id}/review [post]
func (h *TaskHandler) Review(c *gin.Context) {
	var req service.ReviewTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}

	progress, err := h.service.Review(c.Request.Context(), c.Param("id"), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, progress, nil)
}
