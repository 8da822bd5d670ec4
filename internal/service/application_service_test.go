package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/youthlaunch/microintern-api/internal/models"
	appErrors "github.com/youthlaunch/microintern-api/pkg/errors"
)

type mockApplicationRepo struct {
	applications map[string]models.Application
	assignments  map[string]models.MentorAssignment
	existing     map[string]bool
	created      *models.Application
	transitions  []models.ApplicationTransition
}

func (m *mockApplicationRepo) Create(ctx context.Context, app *models.Application) error {
	if app.ID == "" {
		app.ID = "new-app"
	}
	if m.applications == nil {
		m.applications = make(map[string]models.Application)
	}
	m.applications[app.ID] = *app
	m.created = app
	return nil
}

func (m *mockApplicationRepo) FindByID(ctx context.Context, id string) (*models.Application, error) {
	if app, ok := m.applications[id]; ok {
		return &app, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockApplicationRepo) FindDetailByID(ctx context.Context, id string) (*models.ApplicationDetail, error) {
	if app, ok := m.applications[id]; ok {
		return &models.ApplicationDetail{Application: app}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockApplicationRepo) List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error) {
	var list []models.ApplicationDetail
	for _, app := range m.applications {
		if filter.StudentID != "" && app.StudentID != filter.StudentID {
			continue
		}
		list = append(list, models.ApplicationDetail{Application: app})
	}
	return list, len(list), nil
}

func (m *mockApplicationRepo) ExistsForStudentAndInternship(ctx context.Context, studentID, internshipID string) (bool, error) {
	return m.existing[studentID+internshipID], nil
}

func (m *mockApplicationRepo) ApplyTransition(ctx context.Context, id string, tr models.ApplicationTransition) error {
	app, ok := m.applications[id]
	if !ok {
		return sql.ErrNoRows
	}
	app.Status = tr.Status
	m.applications[id] = app
	m.transitions = append(m.transitions, tr)
	return nil
}

func (m *mockApplicationRepo) FindAssignmentByApplication(ctx context.Context, applicationID string) (*models.MentorAssignment, error) {
	if a, ok := m.assignments[applicationID]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

type mockInternshipReader struct {
	internships map[string]*models.MicroInternship
}

func (m *mockInternshipReader) FindByID(ctx context.Context, id string) (*models.MicroInternship, error) {
	if i, ok := m.internships[id]; ok {
		return i, nil
	}
	return nil, sql.ErrNoRows
}

type mockUserReader struct {
	users map[string]*models.User
}

func (m *mockUserReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

type mockEmitter struct {
	emitted []models.NotificationType
	users   []string
}

func (m *mockEmitter) Emit(ctx context.Context, userID string, notificationType models.NotificationType, payload map[string]interface{}) error {
	m.emitted = append(m.emitted, notificationType)
	m.users = append(m.users, userID)
	return nil
}

func studentClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleStudent, Name: "Test Student"}
}

func newApplicationService(repo *mockApplicationRepo, internships *mockInternshipReader, users *mockUserReader, emitter *mockEmitter) *ApplicationService {
	return NewApplicationService(repo, internships, users, emitter, nil, validator.New(), zap.NewNop())
}

func TestApplicationSubmit(t *testing.T) {
	repo := &mockApplicationRepo{}
	internships := &mockInternshipReader{internships: map[string]*models.MicroInternship{
		"i1": {ID: "i1", Status: models.InternshipStatusPublished},
	}}
	emitter := &mockEmitter{}
	svc := newApplicationService(repo, internships, &mockUserReader{}, emitter)

	app, err := svc.Submit(context.Background(), studentClaims("s1"), SubmitApplicationRequest{
		MicroInternshipID: "i1",
		Motivation:        "I want to learn",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusSubmitted, app.Status)
	assert.Equal(t, "s1", app.StudentID)
	assert.False(t, app.SubmittedAt.IsZero())
	require.Len(t, emitter.emitted, 1)
	assert.Equal(t, models.NotificationApplicationStatusChanged, emitter.emitted[0])
}

func TestApplicationSubmitRequiresPublishedInternship(t *testing.T) {
	repo := &mockApplicationRepo{}
	internships := &mockInternshipReader{internships: map[string]*models.MicroInternship{
		"draft": {ID: "draft", Status: models.InternshipStatusDraft},
	}}
	svc := newApplicationService(repo, internships, &mockUserReader{}, &mockEmitter{})

	_, err := svc.Submit(context.Background(), studentClaims("s1"), SubmitApplicationRequest{MicroInternshipID: "draft", Motivation: "x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Submit(context.Background(), studentClaims("s1"), SubmitApplicationRequest{MicroInternshipID: "missing", Motivation: "x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestApplicationSubmitDuplicateConflicts(t *testing.T) {
	repo := &mockApplicationRepo{existing: map[string]bool{"s1i1": true}}
	internships := &mockInternshipReader{internships: map[string]*models.MicroInternship{
		"i1": {ID: "i1", Status: models.InternshipStatusPublished},
	}}
	svc := newApplicationService(repo, internships, &mockUserReader{}, &mockEmitter{})

	_, err := svc.Submit(context.Background(), studentClaims("s1"), SubmitApplicationRequest{MicroInternshipID: "i1", Motivation: "x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestApplicationSubmitRejectsNonStudents(t *testing.T) {
	svc := newApplicationService(&mockApplicationRepo{}, &mockInternshipReader{}, &mockUserReader{}, &mockEmitter{})

	_, err := svc.Submit(context.Background(), nil, SubmitApplicationRequest{MicroInternshipID: "i1", Motivation: "x"})
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	_, err = svc.Submit(context.Background(), &models.JWTClaims{UserID: "a1", Role: models.RoleAdmin}, SubmitApplicationRequest{MicroInternshipID: "i1", Motivation: "x"})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestApplicationTransition(t *testing.T) {
	repo := &mockApplicationRepo{applications: map[string]models.Application{
		"a1": {ID: "a1", StudentID: "s1", Status: models.ApplicationStatusSubmitted},
	}}
	emitter := &mockEmitter{}
	svc := newApplicationService(repo, &mockInternshipReader{}, &mockUserReader{}, emitter)

	detail, err := svc.Transition(context.Background(), "a1", TransitionApplicationRequest{Status: "REVIEWED"})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusReviewed, detail.Status)
	require.Len(t, repo.transitions, 1)
	assert.False(t, repo.transitions[0].Now.IsZero())
	require.Len(t, emitter.users, 1)
	assert.Equal(t, "s1", emitter.users[0])
}

func TestApplicationTransitionBlocksInvalidMoves(t *testing.T) {
	repo := &mockApplicationRepo{applications: map[string]models.Application{
		"done": {ID: "done", StudentID: "s1", Status: models.ApplicationStatusCompleted},
		"new":  {ID: "new", StudentID: "s1", Status: models.ApplicationStatusSubmitted},
	}}
	svc := newApplicationService(repo, &mockInternshipReader{}, &mockUserReader{}, &mockEmitter{})

	_, err := svc.Transition(context.Background(), "done", TransitionApplicationRequest{Status: "IN_PROGRESS"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	_, err = svc.Transition(context.Background(), "new", TransitionApplicationRequest{Status: "COMPLETED"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	_, err = svc.Transition(context.Background(), "new", TransitionApplicationRequest{Status: "PENDING"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestApplicationTransitionAssignsMentor(t *testing.T) {
	repo := &mockApplicationRepo{applications: map[string]models.Application{
		"a1": {ID: "a1", StudentID: "s1", Status: models.ApplicationStatusReviewed},
	}}
	users := &mockUserReader{users: map[string]*models.User{
		"m1": {ID: "m1", Name: "Mentor One", Role: models.RoleMentor},
		"s2": {ID: "s2", Name: "Not A Mentor", Role: models.RoleStudent},
	}}
	svc := newApplicationService(repo, &mockInternshipReader{}, users, &mockEmitter{})

	mentorID := "m1"
	_, err := svc.Transition(context.Background(), "a1", TransitionApplicationRequest{Status: "MENTOR_ASSIGNED", MentorID: &mentorID})
	require.NoError(t, err)
	require.Len(t, repo.transitions, 1)
	assert.Equal(t, "m1", repo.transitions[0].AssignMentorID)

	badID := "s2"
	_, err = svc.Transition(context.Background(), "a1", TransitionApplicationRequest{Status: "IN_PROGRESS", MentorID: &badID})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	missing := "ghost"
	_, err = svc.Transition(context.Background(), "a1", TransitionApplicationRequest{Status: "IN_PROGRESS", MentorID: &missing})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestApplicationTransitionRejectsSameStatus(t *testing.T) {
	reason := "missing portfolio"
	repo := &mockApplicationRepo{applications: map[string]models.Application{
		"rej": {ID: "rej", StudentID: "s1", Status: models.ApplicationStatusRejected, RejectionReason: &reason},
		"sub": {ID: "sub", StudentID: "s2", Status: models.ApplicationStatusSubmitted},
	}}
	emitter := &mockEmitter{}
	svc := newApplicationService(repo, &mockInternshipReader{}, &mockUserReader{}, emitter)

	_, err := svc.Transition(context.Background(), "rej", TransitionApplicationRequest{Status: "REJECTED", Notes: "rewritten reason"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	_, err = svc.Transition(context.Background(), "sub", TransitionApplicationRequest{Status: "SUBMITTED"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	assert.Empty(t, repo.transitions)
	assert.Empty(t, emitter.emitted)
	require.NotNil(t, repo.applications["rej"].RejectionReason)
	assert.Equal(t, "missing portfolio", *repo.applications["rej"].RejectionReason)
}

func TestApplicationTransitionRejectWithNotes(t *testing.T) {
	repo := &mockApplicationRepo{applications: map[string]models.Application{
		"a1": {ID: "a1", StudentID: "s1", Status: models.ApplicationStatusSubmitted},
	}}
	svc := newApplicationService(repo, &mockInternshipReader{}, &mockUserReader{}, &mockEmitter{})

	_, err := svc.Transition(context.Background(), "a1", TransitionApplicationRequest{Status: "REJECTED", Notes: "incomplete profile"})
	require.NoError(t, err)
	require.Len(t, repo.transitions, 1)
	require.NotNil(t, repo.transitions[0].RejectionReason)
	assert.Equal(t, "incomplete profile", *repo.transitions[0].RejectionReason)
}

func TestApplicationListOwn(t *testing.T) {
	repo := &mockApplicationRepo{applications: map[string]models.Application{
		"a1": {ID: "a1", StudentID: "s1", Status: models.ApplicationStatusSubmitted},
		"a2": {ID: "a2", StudentID: "other", Status: models.ApplicationStatusSubmitted},
	}}
	svc := newApplicationService(repo, &mockInternshipReader{}, &mockUserReader{}, &mockEmitter{})

	list, pagination, err := svc.ListOwn(context.Background(), studentClaims("s1"), 1, 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a1", list[0].ID)
	assert.Equal(t, 1, pagination.TotalCount)

	_, _, err = svc.ListOwn(context.Background(), nil, 1, 20)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
