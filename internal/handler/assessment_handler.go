package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/markaz-dev/markaz-api/internal/service"
	appErrors "github.com/markaz-dev/markaz-api/pkg/errors"
	"github.com/markaz-dev/markaz-api/pkg/response"
)

// AssessmentHandler exposes test, written-assessment and assignment endpoints.
type AssessmentHandler struct {
	assessments *service.AssessmentService
}

// NewAssessmentHandler constructs AssessmentHandler.
func NewAssessmentHandler(assessments *service.AssessmentService) *AssessmentHandler {
	return &AssessmentHandler{assessments: assessments}
}

// CreateTest godoc
// @Summary Create test
// @Tags Assessments
// @Accept json
// @Produce json
// @Param payload body service.CreateTestRequest true "Test payload"
// @Success 201 {object} response.Envelope
// @Router /tests [post]
func (h *AssessmentHandler) CreateTest(c *gin.Context) {
	var req service.CreateTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	def, err := h.assessments.CreateTest(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, def)
}

// SubmitTestResult godoc
// @Summary Submit test result
// @Description Score and store one learner's answers. Re-submission overwrites.
// @Tags Assessments
// @Accept json
// @Produce json
// @Param id path string true "Test ID"
// @Param payload body service.SubmitTestResultRequest true "Result payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tests/{id}/results [post]
func (h *AssessmentHandler) SubmitTestResult(c *gin.Context) {
	var req service.SubmitTestResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.TestID = c.Param("id")
	result, err := h.assessments.SubmitTestResult(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// CreateWrittenAssessment godoc
// @Summary Create written assessment
// @Tags Assessments
// @Accept json
// @Produce json
// @Param payload body service.CreateWrittenAssessmentRequest true "Assessment payload"
// @Success 201 {object} response.Envelope
// @Router /written-assessments [post]
func (h *AssessmentHandler) CreateWrittenAssessment(c *gin.Context) {
	var req service.CreateWrittenAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	def, err := h.assessments.CreateWrittenAssessment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, def)
}

// SubmitWrittenResult godoc
// @Summary Submit written assessment result
// @Description Score a timed submission from correct answers and remaining minutes
// @Tags Assessments
// @Accept json
// @Produce json
// @Param id path string true "Assessment ID"
// @Param payload body service.SubmitWrittenResultRequest true "Result payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /written-assessments/{id}/results [post]
func (h *AssessmentHandler) SubmitWrittenResult(c *gin.Context) {
	var req service.SubmitWrittenResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.AssessmentID = c.Param("id")
	result, err := h.assessments.SubmitWrittenResult(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// CreateAssignment godoc
// @Summary Create assignment
// @Tags Assessments
// @Accept json
// @Produce json
// @Param payload body service.CreateAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Router /assignments [post]
func (h *AssessmentHandler) CreateAssignment(c *gin.Context) {
	var req service.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assignment, err := h.assessments.CreateAssignment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// GradeAssignment godoc
// @Summary Grade assignment
// @Tags Assessments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body service.GradeAssignmentRequest true "Grading payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /assignments/{id}/grade [post]
func (h *AssessmentHandler) GradeAssignment(c *gin.Context) {
	var req service.GradeAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.AssignmentID = c.Param("id")
	assignment, err := h.assessments.GradeAssignment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}
