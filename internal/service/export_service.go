package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/youthlaunch/microintern-api/internal/models"
	"github.com/youthlaunch/microintern-api/pkg/export"
	appErrors "github.com/youthlaunch/microintern-api/pkg/errors"
)

type applicationLister interface {
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFormat enumerates supported download formats.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	Enabled bool
	MaxRows int
}

// ExportResult is a rendered document ready to stream to the client.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders the admin application roster as CSV or PDF.
type ExportService struct {
	applications applicationLister
	csv          csvRenderer
	pdf          pdfRenderer
	logger       *zap.Logger
	cfg          ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(applications applicationLister, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRows <= 0 {
		cfg.MaxRows = 5000
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{applications: applications, csv: csv, pdf: pdf, logger: logger, cfg: cfg}
}

// GenerateApplications renders the application roster matching the filter.
func (s *ExportService) GenerateApplications(ctx context.Context, claims *models.JWTClaims, filter models.ApplicationFilter, format ExportFormat) (*ExportResult, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins may export applications")
	}
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "exports are disabled")
	}
	if format != ExportFormatCSV && format != ExportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %q", format))
	}

	filter.Page = 1
	filter.PageSize = s.cfg.MaxRows
	rows, total, err := s.applications.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load applications")
	}
	if total > s.cfg.MaxRows {
		s.logger.Warn("export truncated", zap.Int("total", total), zap.Int("max_rows", s.cfg.MaxRows))
	}

	dataset := buildApplicationDataset(rows)
	title := "Applications Report"

	var payload []byte
	var contentType string
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
		contentType = "application/pdf"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := fmt.Sprintf("applications_%s.%s", time.Now().UTC().Format("20060102_150405"), format)
	return &ExportResult{Filename: filename, ContentType: contentType, Payload: payload}, nil
}

func buildApplicationDataset(rows []models.ApplicationDetail) export.Dataset {
	headers := []string{"Application ID", "Student", "Email", "Internship", "Status", "Mentor", "Submitted At", "Completed At"}
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Application ID": row.ID,
			"Student":        row.StudentName,
			"Email":          row.StudentEmail,
			"Internship":     row.InternshipTitle,
			"Status":         string(row.Status),
			"Mentor":         deref(row.MentorName),
			"Submitted At":   row.SubmittedAt.UTC().Format(time.RFC3339),
			"Completed At":   formatReportTime(row.CompletedAt),
		})
	}
	return export.Dataset{Headers: headers, Rows: dataRows}
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func formatReportTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
