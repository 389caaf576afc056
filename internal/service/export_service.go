package service

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/markaz-dev/markaz-api/internal/dto"
	"github.com/markaz-dev/markaz-api/pkg/export"
	appErrors "github.com/markaz-dev/markaz-api/pkg/errors"
)

type matrixBuilder interface {
	BuildMatrix(ctx context.Context, groupID, fromDate, toDate string) (*dto.MatrixReport, error)
	BuildRoster(ctx context.Context, date string) (*dto.RosterReport, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFormat selects the rendered representation.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportFile is a rendered report ready to be sent to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders reports into downloadable CSV or PDF files.
// Rendering is synchronous: reports are small enough to build within one
// request.
type ExportService struct {
	reports matrixBuilder
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
}

// NewExportService constructs ExportService.
func NewExportService(reports matrixBuilder, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{reports: reports, csv: csv, pdf: pdf, logger: logger}
}

// ExportMatrix renders the group matrix report.
func (s *ExportService) ExportMatrix(ctx context.Context, groupID, fromDate, toDate string, format ExportFormat) (*ExportFile, error) {
	report, err := s.reports.BuildMatrix(ctx, groupID, fromDate, toDate)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Headers: []string{"Learner"}}
	for _, date := range report.Dates {
		dataset.Headers = append(dataset.Headers,
			date+" davomat",
			date+" test",
			date+" vazifa",
			date+" yozma ish",
		)
	}
	for _, row := range report.Rows {
		record := map[string]string{"Learner": row.LearnerName}
		for _, date := range report.Dates {
			cell := row.Cells[date]
			record[date+" davomat"] = cell.Attendance
			record[date+" test"] = cell.DailyTest
			record[date+" vazifa"] = cell.Homework
			record[date+" yozma ish"] = cell.Written
		}
		dataset.Rows = append(dataset.Rows, record)
	}

	title := fmt.Sprintf("%s %s - %s", report.GroupName, fromDate, toDate)
	filename := fmt.Sprintf("matrix-%s-%s-%s", report.GroupID, fromDate, toDate)
	return s.render(dataset, title, filename, format)
}

// ExportRoster renders the daily roster report.
func (s *ExportService) ExportRoster(ctx context.Context, date string, format ExportFormat) (*ExportFile, error) {
	report, err := s.reports.BuildRoster(ctx, date)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Headers: []string{"Group", "Session", "Present", "Absent"}}
	for i, session := range report.Sessions {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Group":   session.GroupName,
			"Session": strconv.Itoa(i + 1),
			"Present": strconv.Itoa(session.PresentCount),
			"Absent":  strconv.Itoa(session.AbsentCount),
		})
	}

	title := "Davomat " + date
	return s.render(dataset, title, "roster-"+date, format)
}

func (s *ExportService) render(dataset export.Dataset, title, filename string, format ExportFormat) (*ExportFile, error) {
	switch format {
	case FormatCSV:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{Filename: filename + ".csv", ContentType: "text/csv", Data: data}, nil
	case FormatPDF:
		data, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{Filename: filename + ".pdf", ContentType: "application/pdf", Data: data}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}
