package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/markaz-dev/markaz-api/internal/models"
	"github.com/markaz-dev/markaz-api/internal/service"
	appErrors "github.com/markaz-dev/markaz-api/pkg/errors"
	"github.com/markaz-dev/markaz-api/pkg/response"
)

// LearnerHandler exposes learner endpoints.
type LearnerHandler struct {
	learners *service.LearnerService
	points   *service.PointsService
}

// NewLearnerHandler constructs LearnerHandler.
func NewLearnerHandler(learners *service.LearnerService, points *service.PointsService) *LearnerHandler {
	return &LearnerHandler{learners: learners, points: points}
}

// List godoc
// @Summary List learners
// @Tags Learners
// @Produce json
// @Param groupId query string false "Filter by group"
// @Param active query bool false "Filter by active flag"
// @Param search query string false "Search by name or phone"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /learners [get]
func (h *LearnerHandler) List(c *gin.Context) {
	var filter models.LearnerFilter
	filter.GroupID = c.Query("groupId")
	filter.Search = c.Query("search")
	if raw := c.Query("active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.Active = &active
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	learners, pagination, err := h.learners.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, learners, pagination)
}

// Get godoc
// @Summary Get learner
// @Tags Learners
// @Produce json
// @Param id path string true "Learner ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /learners/{id} [get]
func (h *LearnerHandler) Get(c *gin.Context) {
	learner, err := h.learners.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, learner, nil)
}

// Create godoc
// @Summary Register learner
// @Tags Learners
// @Accept json
// @Produce json
// @Param payload body service.CreateLearnerRequest true "Learner payload"
// @Success 201 {object} response.Envelope
// @Router /learners [post]
func (h *LearnerHandler) Create(c *gin.Context) {
	var req service.CreateLearnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	learner, err := h.learners.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, learner)
}

// Update godoc
// @Summary Update learner
// @Tags Learners
// @Accept json
// @Produce json
// @Param id path string true "Learner ID"
// @Param payload body service.UpdateLearnerRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /learners/{id} [patch]
func (h *LearnerHandler) Update(c *gin.Context) {
	var req service.UpdateLearnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	learner, err := h.learners.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, learner, nil)
}

// AdjustPoints godoc
// @Summary Adjust learner points
// @Description Credit or debit a learner's point balance. Debits floor at zero.
// @Tags Learners
// @Accept json
// @Produce json
// @Param id path string true "Learner ID"
// @Param payload body service.AdjustPointsRequest true "Adjustment payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /learners/{id}/points [post]
func (h *LearnerHandler) AdjustPoints(c *gin.Context) {
	var req service.AdjustPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.LearnerID = c.Param("id")
	adjustment, err := h.points.Adjust(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, adjustment, nil)
}
