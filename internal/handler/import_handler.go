package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/markaz-dev/markaz-api/internal/models"
	"github.com/markaz-dev/markaz-api/internal/service"
	appErrors "github.com/markaz-dev/markaz-api/pkg/errors"
	"github.com/markaz-dev/markaz-api/pkg/response"
)

// ImportHandler exposes the bulk import endpoints.
type ImportHandler struct {
	imports *service.ImportService
}

// NewImportHandler constructs ImportHandler.
func NewImportHandler(imports *service.ImportService) *ImportHandler {
	return &ImportHandler{imports: imports}
}

type importRequest struct {
	Rows []models.ImportRow `json:"rows"`
}

// ImportLearners godoc
// @Summary Bulk import learners
// @Description Process rows sequentially; failed rows are reported, not rolled back
// @Tags Imports
// @Accept json
// @Produce json
// @Param payload body importRequest true "Import rows"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /imports/learners [post]
func (h *ImportHandler) ImportLearners(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	summary, err := h.imports.ImportLearners(c.Request.Context(), req.Rows)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// ImportTestResults godoc
// @Summary Bulk import test results
// @Description Rows are test id, learner id, correct; processed sequentially
// @Tags Imports
// @Accept json
// @Produce json
// @Param payload body importRequest true "Import rows"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /imports/test-results [post]
func (h *ImportHandler) ImportTestResults(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	summary, err := h.imports.ImportTestResults(c.Request.Context(), req.Rows)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// ImportWrittenResults godoc
// @Summary Bulk import written assessment results
// @Description Rows are assessment id, learner id, correct, remaining minutes
// @Tags Imports
// @Accept json
// @Produce json
// @Param payload body importRequest true "Import rows"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /imports/written-results [post]
func (h *ImportHandler) ImportWrittenResults(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	summary, err := h.imports.ImportWrittenResults(c.Request.Context(), req.Rows)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
