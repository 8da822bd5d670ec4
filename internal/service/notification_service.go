package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/youthlaunch/microintern-api/internal/models"
	appErrors "github.com/youthlaunch/microintern-api/pkg/errors"
	"github.com/youthlaunch/microintern-api/pkg/jobs"
)

type notificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error)
	MarkRead(ctx context.Context, id, userID string) (int64, error)
	MarkAllRead(ctx context.Context, userID string) error
	CountUnread(ctx context.Context, userID string) (int, error)
}

type deliveryQueue interface {
	Enqueue(job jobs.Job) error
}

// NotificationService records structured events for users and hands them to
// the background delivery queue. The row is the durable record; delivery is
// best-effort and never blocks the emitting operation.
type NotificationService struct {
	repo    notificationRepository
	queue   deliveryQueue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService constructs NotificationService.
func NewNotificationService(repo notificationRepository, queue deliveryQueue, metrics *MetricsService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, queue: queue, metrics: metrics, logger: logger}
}

// Emit records a notification and enqueues its delivery. Callers treat a
// returned error as non-fatal: the primary state change already committed.
func (s *NotificationService) Emit(ctx context.Context, userID string, notificationType models.NotificationType, payload map[string]interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}

	notification := &models.Notification{
		UserID:  userID,
		Type:    notificationType,
		Payload: raw,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return fmt.Errorf("record notification: %w", err)
	}
	s.metrics.RecordNotification(string(notificationType))

	if s.queue != nil {
		job := jobs.Job{ID: notification.ID, Type: string(notificationType), Payload: notification}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("failed to enqueue notification delivery",
				zap.String("notification_id", notification.ID), zap.Error(err))
		}
	}
	return nil
}

// List returns the caller's notifications with pagination metadata.
func (s *NotificationService) List(ctx context.Context, claims *models.JWTClaims, unreadOnly bool, page, pageSize int) ([]models.Notification, *models.Pagination, error) {
	if claims == nil {
		return nil, nil, appErrors.ErrUnauthorized
	}
	filter := models.NotificationFilter{UserID: claims.UserID, UnreadOnly: unreadOnly, Page: page, PageSize: pageSize}
	notifications, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return notifications, pagination, nil
}

// MarkRead flags one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id string, claims *models.JWTClaims) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	affected, err := s.repo.MarkRead(ctx, id, claims.UserID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	if affected == 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
	}
	return nil
}

// MarkAllRead flags every unread notification of the caller as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, claims *models.JWTClaims) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if err := s.repo.MarkAllRead(ctx, claims.UserID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return nil
}

// UnreadCount returns the caller's number of unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, claims *models.JWTClaims) (int, error) {
	if claims == nil {
		return 0, appErrors.ErrUnauthorized
	}
	count, err := s.repo.CountUnread(ctx, claims.UserID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}
	return count, nil
}

// NewDeliveryHandler returns the queue handler that hands notifications to the
// delivery transport. Transport integration lives outside this service; the
// handler records the handoff.
func NewDeliveryHandler(logger *zap.Logger) jobs.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context, job jobs.Job) error {
		notification, ok := job.Payload.(*models.Notification)
		if !ok {
			return fmt.Errorf("unexpected payload for job %s", job.ID)
		}
		logger.Info("notification dispatched",
			zap.String("notification_id", notification.ID),
			zap.String("user_id", notification.UserID),
			zap.String("type", string(notification.Type)))
		return nil
	}
}
