package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markaz-dev/markaz-api/internal/dto"
)

type stubMatrixBuilder struct {
	matrix *dto.MatrixReport
	roster *dto.RosterReport
}

func (s stubMatrixBuilder) BuildMatrix(_ context.Context, _, _, _ string) (*dto.MatrixReport, error) {
	return s.matrix, nil
}

func (s stubMatrixBuilder) BuildRoster(_ context.Context, _ string) (*dto.RosterReport, error) {
	return s.roster, nil
}

func TestExportService_ExportMatrix_CSV(t *testing.T) {
	builder := stubMatrixBuilder{matrix: &dto.MatrixReport{
		GroupID:   "g1",
		GroupName: "Math A",
		Dates:     []string{"2026-03-10"},
		Rows: []dto.MatrixRow{{
			LearnerID:   "l1",
			LearnerName: "Aziza Karimova",
			Cells: map[string]dto.MatrixCell{
				"2026-03-10": {Attendance: "present", DailyTest: "3/5", Written: "4/5 (77%)"},
			},
		}},
	}}
	svc := NewExportService(builder, nil, nil, nil)

	file, err := svc.ExportMatrix(context.Background(), "g1", "2026-03-10", "2026-03-10", FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "matrix-g1-2026-03-10-2026-03-10.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)

	content := string(file.Data)
	assert.True(t, strings.Contains(content, "Aziza Karimova"))
	assert.True(t, strings.Contains(content, "present"))
	assert.True(t, strings.Contains(content, "4/5 (77%)"))
}

func TestExportService_ExportRoster_PDF(t *testing.T) {
	builder := stubMatrixBuilder{roster: &dto.RosterReport{
		Date: "2026-03-10",
		Sessions: []dto.SessionRoster{{
			SessionID: "s1", GroupID: "g1", GroupName: "Math A", PresentCount: 12, AbsentCount: 3,
		}},
	}}
	svc := NewExportService(builder, nil, nil, nil)

	file, err := svc.ExportRoster(context.Background(), "2026-03-10", FormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "roster-2026-03-10.pdf", file.Filename)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.NotEmpty(t, file.Data)
}

func TestExportService_UnsupportedFormat(t *testing.T) {
	svc := NewExportService(stubMatrixBuilder{matrix: &dto.MatrixReport{}}, nil, nil, nil)

	_, err := svc.ExportMatrix(context.Background(), "g1", "2026-03-10", "2026-03-10", ExportFormat("xlsx"))
	require.Error(t, err)
}
