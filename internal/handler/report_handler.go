package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/markaz-dev/markaz-api/internal/service"
	appErrors "github.com/markaz-dev/markaz-api/pkg/errors"
	"github.com/markaz-dev/markaz-api/pkg/response"
)

// ReportHandler exposes aggregation and export endpoints.
type ReportHandler struct {
	reports *service.ReportService
	exports *service.ExportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService, exports *service.ExportService) *ReportHandler {
	return &ReportHandler{reports: reports, exports: exports}
}

// Matrix godoc
// @Summary Group matrix report
// @Description Per-date, per-learner matrix of attendance, tests, homework and written work
// @Tags Reports
// @Produce json
// @Param groupId path string true "Group ID"
// @Param from query string true "From date (YYYY-MM-DD)"
// @Param to query string true "To date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/groups/{groupId}/matrix [get]
func (h *ReportHandler) Matrix(c *gin.Context) {
	from := c.Query("from")
	to := c.Query("to")
	if from == "" || to == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from and to dates are required"))
		return
	}
	report, err := h.reports.BuildMatrix(c.Request.Context(), c.Param("groupId"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Roster godoc
// @Summary Daily roster report
// @Description Per-session rosters and day-level attendance for one date
// @Tags Reports
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /reports/roster/{date} [get]
func (h *ReportHandler) Roster(c *gin.Context) {
	report, err := h.reports.BuildRoster(c.Request.Context(), c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ExportMatrix godoc
// @Summary Export group matrix report
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param groupId path string true "Group ID"
// @Param from query string true "From date (YYYY-MM-DD)"
// @Param to query string true "To date (YYYY-MM-DD)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} byte
// @Router /reports/groups/{groupId}/matrix/export [get]
func (h *ReportHandler) ExportMatrix(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	file, err := h.exports.ExportMatrix(c.Request.Context(), c.Param("groupId"), c.Query("from"), c.Query("to"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+file.Filename)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// ExportRoster godoc
// @Summary Export daily roster report
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} byte
// @Router /reports/roster/{date}/export [get]
func (h *ReportHandler) ExportRoster(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	file, err := h.exports.ExportRoster(c.Request.Context(), c.Param("date"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+file.Filename)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
