package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youthlaunch/microintern-api/internal/models"
	"github.com/youthlaunch/microintern-api/internal/service"
)

type applicationRepoSpy struct {
	transitions int
	creates     int
}

func (s *applicationRepoSpy) Create(ctx context.Context, app *models.Application) error {
	s.creates++
	return nil
}

func (s *applicationRepoSpy) FindByID(ctx context.Context, id string) (*models.Application, error) {
	return &models.Application{ID: id, Status: models.ApplicationStatusSubmitted}, nil
}

func (s *applicationRepoSpy) FindDetailByID(ctx context.Context, id string) (*models.ApplicationDetail, error) {
	return &models.ApplicationDetail{Application: models.Application{ID: id}}, nil
}

func (s *applicationRepoSpy) List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error) {
	return nil, 0, nil
}

func (s *applicationRepoSpy) ExistsForStudentAndInternship(ctx context.Context, studentID, internshipID string) (bool, error) {
	return false, nil
}

func (s *applicationRepoSpy) ApplyTransition(ctx context.Context, id string, tr models.ApplicationTransition) error {
	s.transitions++
	return nil
}

func (s *applicationRepoSpy) FindAssignmentByApplication(ctx context.Context, applicationID string) (*models.MentorAssignment, error) {
	return nil, nil
}

func buildTestRouter(repo *applicationRepoSpy) *gin.Engine {
	gin.SetMode(gin.TestMode)

	authService := service.NewAuthService(nil, nil, nil, service.AuthConfig{
		AccessTokenSecret:  "router-test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "microintern-api",
	})
	applicationService := service.NewApplicationService(repo, nil, nil, nil, nil, nil, nil)

	router := NewRouter(
		RouterConfig{},
		authService,
		NewAuthHandler(authService),
		NewInternshipHandler(service.NewInternshipService(nil, nil, nil, nil, nil)),
		NewApplicationHandler(applicationService, nil),
		NewTaskHandler(service.NewProgressService(nil, nil, nil, nil, nil, nil, nil)),
		NewNotificationHandler(service.NewNotificationService(nil, nil, nil, nil)),
		NewMetricsHandler(nil, nil),
	)

	engine := gin.New()
	router.Register(engine)
	return engine
}

func performRequest(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRouterUnauthenticatedTransitionRejected(t *testing.T) {
	repo := &applicationRepoSpy{}
	engine := buildTestRouter(repo)

	body := bytes.NewBufferString(`{"status":"REVIEWED"}`)
	req, _ := http.NewRequest(http.MethodPatch, "/api/v1/admin/applications/app-1", body)
	req.Header.Set("Content-Type", "application/json")

	resp := performRequest(engine, req)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Zero(t, repo.transitions)
}

func TestRouterMalformedBearerRejected(t *testing.T) {
	repo := &applicationRepoSpy{}
	engine := buildTestRouter(repo)

	req, _ := http.NewRequest(http.MethodPatch, "/api/v1/admin/applications/app-1", bytes.NewBufferString(`{"status":"REVIEWED"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer not-a-token")

	resp := performRequest(engine, req)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Zero(t, repo.transitions)
}

func TestRouterUnauthenticatedSubmitRejected(t *testing.T) {
	repo := &applicationRepoSpy{}
	engine := buildTestRouter(repo)

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/applications", bytes.NewBufferString(`{"micro_internship_id":"i1","motivation":"keen"}`))
	req.Header.Set("Content-Type", "application/json")

	resp := performRequest(engine, req)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Zero(t, repo.creates)
}

func TestRouterHealth(t *testing.T) {
	engine := buildTestRouter(&applicationRepoSpy{})

	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	resp := performRequest(engine, req)
	require.Equal(t, http.StatusOK, resp.Code)
}
