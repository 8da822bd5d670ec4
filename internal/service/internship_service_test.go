package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youthlaunch/microintern-api/internal/models"
	appErrors "github.com/youthlaunch/microintern-api/pkg/errors"
)

type mockInternshipRepo struct {
	internships map[string]*models.MicroInternship
	details     map[string]*models.InternshipDetail
	listFilters []models.InternshipFilter
	created     []*models.InternshipDetail
	statuses    map[string]models.InternshipStatus
}

func newMockInternshipRepo() *mockInternshipRepo {
	return &mockInternshipRepo{
		internships: make(map[string]*models.MicroInternship),
		details:     make(map[string]*models.InternshipDetail),
		statuses:    make(map[string]models.InternshipStatus),
	}
}

func (m *mockInternshipRepo) List(ctx context.Context, filter models.InternshipFilter) ([]models.MicroInternship, int, error) {
	m.listFilters = append(m.listFilters, filter)
	var items []models.MicroInternship
	for _, internship := range m.internships {
		if filter.Status != "" && internship.Status != filter.Status {
			continue
		}
		items = append(items, *internship)
	}
	return items, len(items), nil
}

func (m *mockInternshipRepo) FindByID(ctx context.Context, id string) (*models.MicroInternship, error) {
	internship, ok := m.internships[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *internship
	return &clone, nil
}

func (m *mockInternshipRepo) FindDetailByID(ctx context.Context, id string) (*models.InternshipDetail, error) {
	detail, ok := m.details[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return detail, nil
}

func (m *mockInternshipRepo) Create(ctx context.Context, detail *models.InternshipDetail) error {
	detail.ID = "new-internship"
	m.created = append(m.created, detail)
	return nil
}

func (m *mockInternshipRepo) Update(ctx context.Context, internship *models.MicroInternship) error {
	m.internships[internship.ID] = internship
	return nil
}

func (m *mockInternshipRepo) UpdateStatus(ctx context.Context, id string, status models.InternshipStatus) error {
	m.statuses[id] = status
	if internship, ok := m.internships[id]; ok {
		internship.Status = status
	}
	return nil
}

type mockMentorLister struct {
	mentors []models.MentorSummary
}

func (m *mockMentorLister) ListMentors(ctx context.Context) ([]models.MentorSummary, error) {
	return m.mentors, nil
}

type mockCacheRepo struct {
	deletedPatterns []string
}

func (m *mockCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (m *mockCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}

func (m *mockCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deletedPatterns = append(m.deletedPatterns, pattern)
	return nil
}

func adminClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleAdmin}
}

func newInternshipService(repo *mockInternshipRepo, users *mockMentorLister) *InternshipService {
	return NewInternshipService(repo, users, nil, nil, nil)
}

func TestInternshipListForcesPublishedForNonAdmins(t *testing.T) {
	repo := newMockInternshipRepo()
	repo.internships["i1"] = &models.MicroInternship{ID: "i1", Status: models.InternshipStatusPublished}
	repo.internships["i2"] = &models.MicroInternship{ID: "i2", Status: models.InternshipStatusDraft}
	svc := newInternshipService(repo, &mockMentorLister{})

	result, err := svc.List(context.Background(), nil, models.InternshipFilter{Status: models.InternshipStatusDraft})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "i1", result.Items[0].ID)
	assert.Equal(t, models.InternshipStatusPublished, repo.listFilters[0].Status)
	assert.Equal(t, 1, result.Pagination.Page)
	assert.Equal(t, 20, result.Pagination.PageSize)

	result, err = svc.List(context.Background(), adminClaims("a1"), models.InternshipFilter{Status: models.InternshipStatusDraft})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "i2", result.Items[0].ID)
}

func TestInternshipGetHidesDrafts(t *testing.T) {
	repo := newMockInternshipRepo()
	repo.details["i1"] = &models.InternshipDetail{
		MicroInternship: models.MicroInternship{ID: "i1", Status: models.InternshipStatusDraft},
	}
	svc := newInternshipService(repo, &mockMentorLister{})

	_, err := svc.Get(context.Background(), "i1", studentClaims("s1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	detail, err := svc.Get(context.Background(), "i1", adminClaims("a1"))
	require.NoError(t, err)
	assert.Equal(t, "i1", detail.ID)
}

func TestInternshipCreate(t *testing.T) {
	repo := newMockInternshipRepo()
	svc := newInternshipService(repo, &mockMentorLister{})

	req := CreateInternshipRequest{
		Title:           "UX Research Sprint",
		Description:     "Four weeks of user research basics.",
		DurationInWeeks: 4,
		Tags:            "design,research",
		WeeklyPlans: []CreateWeeklyPlanRequest{
			{
				WeekNumber: 1,
				Title:      "Foundations",
				DeadlineAt: time.Now().Add(7 * 24 * time.Hour),
				Tasks: []CreateTaskRequest{
					{Title: "Read the intro module", Type: "LEARNING"},
					{Title: "Interview one user", Type: "PRACTICAL"},
				},
			},
		},
	}

	detail, err := svc.Create(context.Background(), adminClaims("a1"), req)
	require.NoError(t, err)
	assert.Equal(t, models.InternshipStatusDraft, detail.Status)
	assert.Equal(t, "a1", detail.OwnerID)
	require.Len(t, detail.WeeklyPlans, 1)
	assert.Len(t, detail.WeeklyPlans[0].Tasks, 2)
	assert.Equal(t, models.TaskTypeLearning, detail.WeeklyPlans[0].Tasks[0].Type)

	_, err = svc.Create(context.Background(), studentClaims("s1"), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestInternshipCreateInvalidatesCatalog(t *testing.T) {
	repo := newMockInternshipRepo()
	cacheRepo := &mockCacheRepo{}
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := NewInternshipService(repo, &mockMentorLister{}, cache, nil, nil)

	_, err := svc.Create(context.Background(), adminClaims("a1"), CreateInternshipRequest{
		Title:           "Data Cleanup Sprint",
		Description:     "Two weeks of spreadsheet hygiene.",
		DurationInWeeks: 2,
		WeeklyPlans: []CreateWeeklyPlanRequest{
			{
				WeekNumber: 1,
				Title:      "Week 1",
				DeadlineAt: time.Now().Add(7 * 24 * time.Hour),
				Tasks:      []CreateTaskRequest{{Title: "Dedupe the roster", Type: "PRACTICAL"}},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"catalog:*"}, cacheRepo.deletedPatterns)
}

func TestInternshipCreateRejectsInvalidTaskType(t *testing.T) {
	svc := newInternshipService(newMockInternshipRepo(), &mockMentorLister{})

	_, err := svc.Create(context.Background(), adminClaims("a1"), CreateInternshipRequest{
		Title:           "Broken",
		Description:     "Bad task type",
		DurationInWeeks: 1,
		WeeklyPlans: []CreateWeeklyPlanRequest{
			{
				WeekNumber: 1,
				Title:      "Week 1",
				DeadlineAt: time.Now(),
				Tasks:      []CreateTaskRequest{{Title: "Task", Type: "HOMEWORK"}},
			},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestInternshipUpdate(t *testing.T) {
	repo := newMockInternshipRepo()
	repo.internships["i1"] = &models.MicroInternship{ID: "i1", Title: "Old", Status: models.InternshipStatusDraft}
	svc := newInternshipService(repo, &mockMentorLister{})

	title := "New Title"
	updated, err := svc.Update(context.Background(), "i1", adminClaims("a1"), UpdateInternshipRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "New Title", updated.Title)
	assert.Equal(t, "New Title", repo.internships["i1"].Title)
}

func TestInternshipPublish(t *testing.T) {
	repo := newMockInternshipRepo()
	repo.internships["i1"] = &models.MicroInternship{ID: "i1", Status: models.InternshipStatusDraft}
	svc := newInternshipService(repo, &mockMentorLister{})

	internship, err := svc.Publish(context.Background(), "i1", adminClaims("a1"))
	require.NoError(t, err)
	assert.Equal(t, models.InternshipStatusPublished, internship.Status)
	assert.Equal(t, models.InternshipStatusPublished, repo.statuses["i1"])

	_, err = svc.Publish(context.Background(), "i1", adminClaims("a1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
}

func TestInternshipClose(t *testing.T) {
	repo := newMockInternshipRepo()
	repo.internships["i1"] = &models.MicroInternship{ID: "i1", Status: models.InternshipStatusPublished}
	repo.internships["i2"] = &models.MicroInternship{ID: "i2", Status: models.InternshipStatusDraft}
	svc := newInternshipService(repo, &mockMentorLister{})

	internship, err := svc.Close(context.Background(), "i1", adminClaims("a1"))
	require.NoError(t, err)
	assert.Equal(t, models.InternshipStatusClosed, internship.Status)

	_, err = svc.Close(context.Background(), "i2", adminClaims("a1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	_, err = svc.Close(context.Background(), "ghost", adminClaims("a1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestInternshipListMentors(t *testing.T) {
	lister := &mockMentorLister{mentors: []models.MentorSummary{{ID: "m1", Name: "Mentor One", Email: "m1@example.com"}}}
	svc := newInternshipService(newMockInternshipRepo(), lister)

	mentors, err := svc.ListMentors(context.Background(), adminClaims("a1"))
	require.NoError(t, err)
	require.Len(t, mentors, 1)
	assert.Equal(t, "m1", mentors[0].ID)

	_, err = svc.ListMentors(context.Background(), mentorClaims("m1"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
