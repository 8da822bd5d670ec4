package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/youthlaunch/microintern-api/internal/models"
	"github.com/youthlaunch/microintern-api/internal/service"
	appErrors "github.com/youthlaunch/microintern-api/pkg/errors"
	"github.com/youthlaunch/microintern-api/pkg/response"
)

// InternshipHandler exposes the catalog and its admin lifecycle endpoints.
type InternshipHandler struct {
	service *service.InternshipService
}

// NewInternshipHandler creates a new handler.
func NewInternshipHandler(svc *service.InternshipService) *InternshipHandler {
	return &InternshipHandler{service: svc}
}

// List godoc
// @Summary List internships
// @Description Browse the internship catalog
// @Tags Internships
// @Produce json
// @Param status query string false "Status filter (admin only)"
// @Param tag query string false "Tag filter"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /internships [get]
func (h *InternshipHandler) List(c *gin.Context) {
	filter := models.InternshipFilter{
		Status:   models.InternshipStatus(c.Query("status")),
		Tag:      c.Query("tag"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "page_size", 20),
	}

	result, err := h.service.List(c.Request.Context(), claimsFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result.Items, &result.Pagination)
}

// Get godoc
// @Summary Get internship detail
// @Description Returns the internship with its weekly plans and tasks
// @Tags Internships
// @Produce json
// @Param id path string true "Internship ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /internships/{id} [get]
func (h *InternshipHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Create internship
// @Description Create a draft internship with weekly plans and tasks
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body service.CreateInternshipRequest true "Internship payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/internships [post]
func (h *InternshipHandler) Create(c *gin.Context) {
	var req service.CreateInternshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid internship payload"))
		return
	}

	detail, err := h.service.Create(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, detail)
}

// Update godoc
// @Summary Update internship
// @Description Edit top-level internship fields
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Internship ID"
// @Param payload body service.UpdateInternshipRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /admin/internships/{id} [put]
func (h *InternshipHandler) Update(c *gin.Context) {
	var req service.UpdateInternshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid internship payload"))
		return
	}

	internship, err := h.service.Update(c.Request.Context(), c.Param("id"), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, internship, nil)
}

// Publish godoc
// @Summary Publish internship
// @Description Move a draft internship into the public catalog
// @Tags Admin
// @Produce json
// @Param id path string true "Internship ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/internships/{id}/publish [post]
func (h *InternshipHandler) Publish(c *gin.Context) {
	internship, err := h.service.Publish(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, internship, nil)
}

// Close godoc
// @Summary Close internship
// @Description Retire a published internship from the catalog
// @Tags Admin
// @Produce json
// @Param id path string true "Internship ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /admin/internships/{id}/close [post]
func (h *InternshipHandler) Close(c *gin.Context) {
	internship, err := h.service.Close(c.Request.Context(), c.Param("id"), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, internship, nil)
}

// Mentors godoc
// @Summary List mentors
// @Description Active mentor accounts for assignment pickers
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/mentors [get]
func (h *InternshipHandler) Mentors(c *gin.Context) {
	mentors, err := h.service.ListMentors(c.Request.Context(), claimsFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, mentors, nil)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
