package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youthlaunch/microintern-api/internal/models"
	appErrors "github.com/youthlaunch/microintern-api/pkg/errors"
)

type mockApplicationLister struct {
	rows  []models.ApplicationDetail
	total int
}

func (m *mockApplicationLister) List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error) {
	return m.rows, m.total, nil
}

func TestExportGenerateApplicationsCSV(t *testing.T) {
	mentor := "Mentor One"
	lister := &mockApplicationLister{
		rows: []models.ApplicationDetail{
			{
				Application: models.Application{
					ID:          "app-1",
					Status:      models.ApplicationStatusCompleted,
					SubmittedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
				},
				StudentName:     "Student One",
				StudentEmail:    "student@example.com",
				InternshipTitle: "UX Research Sprint",
				MentorName:      &mentor,
			},
		},
		total: 1,
	}
	svc := NewExportService(lister, ExportConfig{Enabled: true}, nil, nil, nil)

	result, err := svc.GenerateApplications(context.Background(), adminClaims("a1"), models.ApplicationFilter{}, ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.True(t, strings.HasPrefix(result.Filename, "applications_"))
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"))

	body := string(result.Payload)
	assert.Contains(t, body, "Application ID,Student,Email,Internship,Status,Mentor,Submitted At,Completed At")
	assert.Contains(t, body, "app-1,Student One,student@example.com,UX Research Sprint,COMPLETED,Mentor One")
}

func TestExportGenerateApplicationsRequiresAdmin(t *testing.T) {
	svc := NewExportService(&mockApplicationLister{}, ExportConfig{Enabled: true}, nil, nil, nil)

	_, err := svc.GenerateApplications(context.Background(), studentClaims("s1"), models.ApplicationFilter{}, ExportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.GenerateApplications(context.Background(), nil, models.ApplicationFilter{}, ExportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestExportGenerateApplicationsDisabled(t *testing.T) {
	svc := NewExportService(&mockApplicationLister{}, ExportConfig{Enabled: false}, nil, nil, nil)

	_, err := svc.GenerateApplications(context.Background(), adminClaims("a1"), models.ApplicationFilter{}, ExportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportGenerateApplicationsUnknownFormat(t *testing.T) {
	svc := NewExportService(&mockApplicationLister{}, ExportConfig{Enabled: true}, nil, nil, nil)

	_, err := svc.GenerateApplications(context.Background(), adminClaims("a1"), models.ApplicationFilter{}, ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
