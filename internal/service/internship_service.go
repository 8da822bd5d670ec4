package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/youthlaunch/microintern-api/internal/models"
	appErrors "github.com/youthlaunch/microintern-api/pkg/errors"
)

type internshipRepository interface {
	List(ctx context.Context, filter models.InternshipFilter) ([]models.MicroInternship, int, error)
	FindByID(ctx context.Context, id string) (*models.MicroInternship, error)
	FindDetailByID(ctx context.Context, id string) (*models.InternshipDetail, error)
	Create(ctx context.Context, detail *models.InternshipDetail) error
	Update(ctx context.Context, internship *models.MicroInternship) error
	UpdateStatus(ctx context.Context, id string, status models.InternshipStatus) error
}

type mentorLister interface {
	ListMentors(ctx context.Context) ([]models.MentorSummary, error)
}

// CreateTaskRequest describes one task inside a weekly plan payload.
type CreateTaskRequest struct {
	Title              string  `json:"title" validate:"required"`
	Description        string  `json:"description"`
	Type               string  `json:"type" validate:"required,oneof=LEARNING PRACTICAL REFLECTION"`
	ArtifactTemplateID *string `json:"artifact_template_id"`
}

// CreateWeeklyPlanRequest describes one week of an internship payload.
type CreateWeeklyPlanRequest struct {
	WeekNumber  int                 `json:"week_number" validate:"required,min=1"`
	Title       string              `json:"title" validate:"required"`
	Description string              `json:"description"`
	DeadlineAt  time.Time           `json:"deadline_at" validate:"required"`
	Tasks       []CreateTaskRequest `json:"tasks" validate:"required,min=1,dive"`
}

// CreateInternshipRequest is the admin payload for a new internship.
type CreateInternshipRequest struct {
	Title           string                    `json:"title" validate:"required"`
	Description     string                    `json:"description" validate:"required"`
	DurationInWeeks int                       `json:"duration_in_weeks" validate:"required,min=1"`
	Tags            string                    `json:"tags"`
	WeeklyPlans     []CreateWeeklyPlanRequest `json:"weekly_plans" validate:"required,min=1,dive"`
}

// UpdateInternshipRequest carries editable internship fields.
type UpdateInternshipRequest struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	DurationInWeeks *int    `json:"duration_in_weeks" validate:"omitempty,min=1"`
	Tags            *string `json:"tags"`
}

// InternshipListResult pairs a catalog page with its pagination metadata.
type InternshipListResult struct {
	Items      []models.MicroInternship `json:"items"`
	Pagination models.Pagination        `json:"pagination"`
}

// InternshipService manages the internship catalog and its publication
// lifecycle.
type InternshipService struct {
	repo      internshipRepository
	users     mentorLister
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInternshipService constructs InternshipService.
func NewInternshipService(repo internshipRepository, users mentorLister, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *InternshipService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InternshipService{repo: repo, users: users, cache: cache, validator: validate, logger: logger}
}

const catalogCachePattern = "catalog:*"

// List returns a page of the public catalog. Non-admin callers only see
// published internships; admins may filter by any status.
func (s *InternshipService) List(ctx context.Context, claims *models.JWTClaims, filter models.InternshipFilter) (*InternshipListResult, error) {
	if claims == nil || claims.Role != models.RoleAdmin {
		filter.Status = models.InternshipStatusPublished
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	cacheKey := fmt.Sprintf("catalog:list:%s:%s:%d:%d", filter.Status, filter.Tag, filter.Page, filter.PageSize)
	if s.cache.Enabled() {
		var cached InternshipListResult
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list internships")
	}

	result := &InternshipListResult{
		Items:      items,
		Pagination: models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total},
	}
	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, result, 0); err != nil {
			s.logger.Warn("failed to cache catalog page", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return result, nil
}

// Get returns an internship with its weekly breakdown. Drafts are only
// visible to admins.
func (s *InternshipService) Get(ctx context.Context, id string, claims *models.JWTClaims) (*models.InternshipDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "internship not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load internship")
	}

	if detail.Status == models.InternshipStatusDraft {
		if claims == nil || claims.Role != models.RoleAdmin {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "internship not found")
		}
	}

	return detail, nil
}

// Create persists a new draft internship with its weekly plans and tasks.
func (s *InternshipService) Create(ctx context.Context, claims *models.JWTClaims, req CreateInternshipRequest) (*models.InternshipDetail, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins may create internships")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid internship payload")
	}

	detail := &models.InternshipDetail{
		MicroInternship: models.MicroInternship{
			Title:           req.Title,
			Description:     req.Description,
			DurationInWeeks: req.DurationInWeeks,
			Tags:            req.Tags,
			Status:          models.InternshipStatusDraft,
			OwnerID:         claims.UserID,
		},
	}
	for _, plan := range req.WeeklyPlans {
		planDetail := models.WeeklyPlanDetail{
			WeeklyPlan: models.WeeklyPlan{
				WeekNumber:  plan.WeekNumber,
				Title:       plan.Title,
				Description: plan.Description,
				DeadlineAt:  plan.DeadlineAt,
			},
		}
		for _, task := range plan.Tasks {
			planDetail.Tasks = append(planDetail.Tasks, models.Task{
				Title:              task.Title,
				Description:        task.Description,
				Type:               models.TaskType(task.Type),
				ArtifactTemplateID: task.ArtifactTemplateID,
			})
		}
		detail.WeeklyPlans = append(detail.WeeklyPlans, planDetail)
	}

	if err := s.repo.Create(ctx, detail); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create internship")
	}
	s.invalidateCatalog(ctx)

	s.logger.Info("internship created", zap.String("internship_id", detail.ID), zap.String("owner_id", claims.UserID))
	return detail, nil
}

// Update edits the internship's top-level fields.
func (s *InternshipService) Update(ctx context.Context, id string, claims *models.JWTClaims, req UpdateInternshipRequest) (*models.MicroInternship, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins may update internships")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid internship payload")
	}

	internship, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "internship not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load internship")
	}

	if req.Title != nil {
		internship.Title = *req.Title
	}
	if req.Description != nil {
		internship.Description = *req.Description
	}
	if req.DurationInWeeks != nil {
		internship.DurationInWeeks = *req.DurationInWeeks
	}
	if req.Tags != nil {
		internship.Tags = *req.Tags
	}

	if err := s.repo.Update(ctx, internship); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update internship")
	}
	s.invalidateCatalog(ctx)

	return internship, nil
}

// Publish moves a draft internship into the public catalog.
func (s *InternshipService) Publish(ctx context.Context, id string, claims *models.JWTClaims) (*models.MicroInternship, error) {
	return s.setStatus(ctx, id, claims, models.InternshipStatusDraft, models.InternshipStatusPublished)
}

// Close retires a published internship from the catalog.
func (s *InternshipService) Close(ctx context.Context, id string, claims *models.JWTClaims) (*models.MicroInternship, error) {
	return s.setStatus(ctx, id, claims, models.InternshipStatusPublished, models.InternshipStatusClosed)
}

func (s *InternshipService) setStatus(ctx context.Context, id string, claims *models.JWTClaims, from, to models.InternshipStatus) (*models.MicroInternship, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins may change internship status")
	}

	internship, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "internship not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load internship")
	}

	if internship.Status != from {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("cannot move internship from %s to %s", internship.Status, to))
	}

	if err := s.repo.UpdateStatus(ctx, id, to); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update internship status")
	}
	s.invalidateCatalog(ctx)

	internship.Status = to
	s.logger.Info("internship status changed", zap.String("internship_id", id), zap.String("status", string(to)))
	return internship, nil
}

// ListMentors returns active mentor accounts for assignment pickers.
func (s *InternshipService) ListMentors(ctx context.Context, claims *models.JWTClaims) ([]models.MentorSummary, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins may list mentors")
	}
	mentors, err := s.users.ListMentors(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list mentors")
	}
	return mentors, nil
}

func (s *InternshipService) invalidateCatalog(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, catalogCachePattern); err != nil {
		s.logger.Warn("failed to invalidate catalog cache", zap.Error(err))
	}
}
