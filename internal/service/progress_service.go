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

type progressRepository interface {
	Upsert(ctx context.Context, progress *models.TaskProgress) error
	FindByID(ctx context.Context, id string) (*models.TaskProgress, error)
	FindByTaskAndStudent(ctx context.Context, taskID, studentID string) (*models.TaskProgress, error)
	FindDetailByID(ctx context.Context, id string) (*models.TaskProgressDetail, error)
	ListFeedback(ctx context.Context, taskProgressID string) ([]models.Feedback, error)
	ApplyReview(ctx context.Context, id string, update models.ReviewUpdate) error
}

type taskReader interface {
	FindTaskByID(ctx context.Context, id string) (*models.TaskContext, error)
	FindArtifactTemplateByID(ctx context.Context, id string) (*models.ArtifactTemplate, error)
}

type applicationAccess interface {
	FindActiveByStudentAndInternship(ctx context.Context, studentID, internshipID string) (*models.Application, error)
	FindAssignmentByApplication(ctx context.Context, applicationID string) (*models.MentorAssignment, error)
	FindAssignmentByMentorAndStudent(ctx context.Context, mentorID, studentID string) (*models.MentorAssignment, error)
}

// SubmitTaskRequest describes a student's artifact submission.
type SubmitTaskRequest struct {
	ArtifactURL string `json:"artifact_url" validate:"required,url"`
}

// SubmitTaskResponse returns the stored progress and the owning internship.
type SubmitTaskResponse struct {
	TaskProgress *models.TaskProgress `json:"task_progress"`
	InternshipID string               `json:"internship_id"`
}

// ReviewTaskRequest describes a mentor's verdict on a submission.
type ReviewTaskRequest struct {
	Action   string `json:"action" validate:"required"`
	Feedback string `json:"feedback"`
}

// StudentTaskView is the task detail a student sees, including their own
// progress and the artifact template when one is referenced.
type StudentTaskView struct {
	models.TaskContext
	ArtifactTemplate *models.ArtifactTemplate `json:"artifact_template,omitempty"`
	TaskProgress     *models.TaskProgress     `json:"task_progress,omitempty"`
}

// ProgressService is the task progress engine: it validates student
// submissions and mentor reviews and applies them with their side effects.
type ProgressService struct {
	repo          progressRepository
	tasks         taskReader
	applications  applicationAccess
	notifications notificationEmitter
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewProgressService constructs ProgressService.
func NewProgressService(repo progressRepository, tasks taskReader, applications applicationAccess, notifications notificationEmitter, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *ProgressService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressService{repo: repo, tasks: tasks, applications: applications, notifications: notifications, metrics: metrics, validator: validate, logger: logger}
}

// Submit upserts the student's progress for a task. Resubmission overwrites
// the artifact URL and submission time in place.
func (s *ProgressService) Submit(ctx context.Context, taskID string, claims *models.JWTClaims, req SubmitTaskRequest) (*SubmitTaskResponse, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students may submit tasks")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "artifact url is required")
	}

	task, err := s.tasks.FindTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}

	app, err := s.applications.FindActiveByStudentAndInternship(ctx, claims.UserID, task.MicroInternshipID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "no active application for this internship")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify application")
	}

	progress := &models.TaskProgress{
		TaskID:      taskID,
		StudentID:   claims.UserID,
		Status:      models.TaskProgressStatusSubmitted,
		ArtifactURL: req.ArtifactURL,
		SubmittedAt: time.Now().UTC(),
	}
	if err := s.repo.Upsert(ctx, progress); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store submission")
	}
	s.metrics.RecordTaskSubmission()

	assignment, err := s.applications.FindAssignmentByApplication(ctx, app.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logger.Warn("failed to resolve mentor for notification", zap.String("application_id", app.ID), zap.Error(err))
	}
	if assignment != nil {
		if err := s.notifications.Emit(ctx, assignment.MentorID, models.NotificationTaskSubmitted, map[string]interface{}{
			"task_id":          taskID,
			"task_progress_id": progress.ID,
			"student_name":     claims.Name,
			"message":          fmt.Sprintf("%s submitted a task for review", claims.Name),
		}); err != nil {
			s.logger.Warn("failed to emit submission notification", zap.String("task_progress_id", progress.ID), zap.Error(err))
		}
	}

	return &SubmitTaskResponse{TaskProgress: progress, InternshipID: task.MicroInternshipID}, nil
}

// Review applies a mentor verdict: approve finalizes the submission,
// request_changes reopens it and clears any prior approval.
func (s *ProgressService) Review(ctx context.Context, taskProgressID string, claims *models.JWTClaims, req ReviewTaskRequest) (*models.TaskProgress, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleMentor {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only mentors may review tasks")
	}
	action := models.ReviewAction(req.Action)
	if !models.ValidReviewAction(action) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid action")
	}

	progress, err := s.repo.FindByID(ctx, taskProgressID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task progress not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task progress")
	}

	assignment, err := s.applications.FindAssignmentByMentorAndStudent(ctx, claims.UserID, progress.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "not assigned to this student")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify assignment")
	}

	update := models.ReviewUpdate{AssignmentID: assignment.ID}
	if action == models.ReviewActionApprove {
		now := time.Now().UTC()
		update.Status = models.TaskProgressStatusApproved
		update.ApprovedAt = &now
	} else {
		update.Status = models.TaskProgressStatusInProgress
		update.ApprovedAt = nil
	}
	if req.Feedback != "" {
		update.Feedback = &models.Feedback{AuthorID: claims.UserID, Text: req.Feedback}
	}

	if err := s.repo.ApplyReview(ctx, taskProgressID, update); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply review")
	}
	s.metrics.RecordReview(string(action))

	message := "Your mentor requested changes."
	if action == models.ReviewActionApprove {
		message = "Your task has been approved!"
	}
	if err := s.notifications.Emit(ctx, progress.StudentID, models.NotificationFeedbackReceived, map[string]interface{}{
		"task_progress_id": taskProgressID,
		"status":           string(update.Status),
		"message":          message,
	}); err != nil {
		s.logger.Warn("failed to emit review notification", zap.String("task_progress_id", taskProgressID), zap.Error(err))
	}

	progress.Status = update.Status
	progress.ApprovedAt = update.ApprovedAt
	return progress, nil
}

// GetTaskForStudent returns the task detail including the caller's progress.
func (s *ProgressService) GetTaskForStudent(ctx context.Context, taskID string, claims *models.JWTClaims) (*StudentTaskView, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students may view their tasks")
	}

	task, err := s.tasks.FindTaskByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}

	if _, err := s.applications.FindActiveByStudentAndInternship(ctx, claims.UserID, task.MicroInternshipID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "no active application for this internship")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify application")
	}

	view := &StudentTaskView{TaskContext: *task}
	if task.ArtifactTemplateID != nil {
		template, err := s.tasks.FindArtifactTemplateByID(ctx, *task.ArtifactTemplateID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load artifact template")
		}
		view.ArtifactTemplate = template
	}

	progress, err := s.repo.FindByTaskAndStudent(ctx, taskID, claims.UserID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task progress")
	}
	view.TaskProgress = progress

	return view, nil
}

// GetProgressForMentor returns the progress detail with feedback history.
func (s *ProgressService) GetProgressForMentor(ctx context.Context, taskProgressID string, claims *models.JWTClaims) (*models.TaskProgressDetail, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleMentor {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only mentors may view submissions")
	}

	detail, err := s.repo.FindDetailByID(ctx, taskProgressID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task progress not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task progress")
	}

	if _, err := s.applications.FindAssignmentByMentorAndStudent(ctx, claims.UserID, detail.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "not assigned to this student")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify assignment")
	}

	feedbacks, err := s.repo.ListFeedback(ctx, taskProgressID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load feedback")
	}
	detail.Feedbacks = feedbacks

	return detail, nil
}
