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

type applicationRepository interface {
	Create(ctx context.Context, app *models.Application) error
	FindByID(ctx context.Context, id string) (*models.Application, error)
	FindDetailByID(ctx context.Context, id string) (*models.ApplicationDetail, error)
	List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error)
	ExistsForStudentAndInternship(ctx context.Context, studentID, internshipID string) (bool, error)
	ApplyTransition(ctx context.Context, id string, tr models.ApplicationTransition) error
	FindAssignmentByApplication(ctx context.Context, applicationID string) (*models.MentorAssignment, error)
}

type internshipReader interface {
	FindByID(ctx context.Context, id string) (*models.MicroInternship, error)
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type notificationEmitter interface {
	Emit(ctx context.Context, userID string, notificationType models.NotificationType, payload map[string]interface{}) error
}

// SubmitApplicationRequest describes a student's application payload.
type SubmitApplicationRequest struct {
	MicroInternshipID string `json:"micro_internship_id" validate:"required"`
	Motivation        string `json:"motivation" validate:"required"`
	Interests         string `json:"interests"`
	City              string `json:"city"`
	LinkedinURL       string `json:"linkedin_url" validate:"omitempty,url"`
	PortfolioURL      string `json:"portfolio_url" validate:"omitempty,url"`
}

// TransitionApplicationRequest describes an admin transition payload.
// MentorID distinguishes three intents: absent leaves the assignment alone,
// empty string removes it, a value assigns or replaces the mentor.
type TransitionApplicationRequest struct {
	Status   string  `json:"status" validate:"required"`
	MentorID *string `json:"mentor_id"`
	Notes    string  `json:"notes"`
}

// ApplicationService is the application lifecycle engine: it validates and
// applies status transitions, manages the mentor assignment, and emits the
// resulting student notifications.
type ApplicationService struct {
	repo          applicationRepository
	internships   internshipReader
	users         userReader
	notifications notificationEmitter
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewApplicationService constructs ApplicationService.
func NewApplicationService(repo applicationRepository, internships internshipReader, users userReader, notifications notificationEmitter, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ApplicationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApplicationService{repo: repo, internships: internships, users: users, notifications: notifications, metrics: metrics, validator: validate, logger: logger}
}

// Submit creates an application for the calling student.
func (s *ApplicationService) Submit(ctx context.Context, claims *models.JWTClaims, req SubmitApplicationRequest) (*models.Application, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students may apply")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid application payload")
	}

	internship, err := s.internships.FindByID(ctx, req.MicroInternshipID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "internship not found or not available")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load internship")
	}
	if internship.Status != models.InternshipStatusPublished {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "internship not found or not available")
	}

	exists, err := s.repo.ExistsForStudentAndInternship(ctx, claims.UserID, req.MicroInternshipID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate application")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "you have already applied for this internship")
	}

	app := &models.Application{
		StudentID:         claims.UserID,
		MicroInternshipID: req.MicroInternshipID,
		Status:            models.ApplicationStatusSubmitted,
		Motivation:        req.Motivation,
		Interests:         optionalString(req.Interests),
		City:              optionalString(req.City),
		LinkedinURL:       optionalString(req.LinkedinURL),
		PortfolioURL:      optionalString(req.PortfolioURL),
		SubmittedAt:       time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, app); err != nil {
		// The unique pair constraint is the race arbiter: a concurrent
		// duplicate loses here even after the pre-check passed.
		return nil, err
	}
	s.metrics.RecordApplicationSubmitted()

	if err := s.notifications.Emit(ctx, claims.UserID, models.NotificationApplicationStatusChanged, map[string]interface{}{
		"application_id": app.ID,
		"new_status":     string(models.ApplicationStatusSubmitted),
		"message":        "Your application has been submitted successfully!",
	}); err != nil {
		s.logger.Warn("failed to emit submission notification", zap.String("application_id", app.ID), zap.Error(err))
	}

	return app, nil
}

// Transition applies an admin status change, optionally assigning, replacing
// or removing the mentor. Mentor assignment is deliberately decoupled from
// the chosen status: an admin may attach a mentor on any non-terminal move.
func (s *ApplicationService) Transition(ctx context.Context, id string, req TransitionApplicationRequest) (*models.ApplicationDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transition payload")
	}
	newStatus := models.ApplicationStatus(req.Status)
	if !models.ValidApplicationStatus(newStatus) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", req.Status))
	}

	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}

	if !models.CanTransition(app.Status, newStatus) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot move application from %s to %s", app.Status, newStatus))
	}

	transition := models.ApplicationTransition{Status: newStatus, Now: time.Now().UTC()}
	if newStatus == models.ApplicationStatusRejected && req.Notes != "" {
		transition.RejectionReason = &req.Notes
	}

	var mentor *models.User
	if req.MentorID != nil {
		if *req.MentorID == "" {
			transition.ClearMentor = true
		} else {
			mentor, err = s.users.FindByID(ctx, *req.MentorID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return nil, appErrors.Clone(appErrors.ErrNotFound, "mentor not found")
				}
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load mentor")
			}
			if mentor.Role != models.RoleMentor {
				return nil, appErrors.Clone(appErrors.ErrValidation, "assignee is not a mentor")
			}
			transition.AssignMentorID = mentor.ID
		}
	}

	if err := s.repo.ApplyTransition(ctx, id, transition); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply transition")
	}
	s.metrics.RecordTransition(string(newStatus))

	message := fmt.Sprintf("Your application status has been updated to %s", newStatus)
	if mentor != nil {
		message += fmt.Sprintf(". Mentor %s has been assigned to you.", mentor.Name)
	}
	if err := s.notifications.Emit(ctx, app.StudentID, models.NotificationApplicationStatusChanged, map[string]interface{}{
		"application_id": id,
		"new_status":     string(newStatus),
		"message":        message,
	}); err != nil {
		s.logger.Warn("failed to emit transition notification", zap.String("application_id", id), zap.Error(err))
	}

	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application detail")
	}
	return detail, nil
}

// Get returns the full application detail for admins.
func (s *ApplicationService) Get(ctx context.Context, id string) (*models.ApplicationDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "application not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load application")
	}
	return detail, nil
}

// List returns application details with pagination metadata.
func (s *ApplicationService) List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, *models.Pagination, error) {
	details, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list applications")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return details, pagination, nil
}

// ListOwn returns the calling student's applications.
func (s *ApplicationService) ListOwn(ctx context.Context, claims *models.JWTClaims, page, pageSize int) ([]models.ApplicationDetail, *models.Pagination, error) {
	if claims == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	filter := models.ApplicationFilter{StudentID: claims.UserID, Page: page, PageSize: pageSize}
	return s.List(ctx, filter)
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
