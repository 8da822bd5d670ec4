package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youthlaunch/microintern-api/internal/models"
	appErrors "github.com/youthlaunch/microintern-api/pkg/errors"
	"github.com/youthlaunch/microintern-api/pkg/jobs"
)

type mockNotificationRepo struct {
	notifications []*models.Notification
	readIDs       []string
	allReadFor    []string
	unread        int
}

func (m *mockNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	notification.ID = fmt.Sprintf("n%d", len(m.notifications)+1)
	m.notifications = append(m.notifications, notification)
	return nil
}

func (m *mockNotificationRepo) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error) {
	var items []models.Notification
	for _, n := range m.notifications {
		if n.UserID != filter.UserID {
			continue
		}
		if filter.UnreadOnly && n.Read {
			continue
		}
		items = append(items, *n)
	}
	return items, len(items), nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id, userID string) (int64, error) {
	for _, n := range m.notifications {
		if n.ID == id && n.UserID == userID {
			n.Read = true
			m.readIDs = append(m.readIDs, id)
			return 1, nil
		}
	}
	return 0, nil
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, userID string) error {
	m.allReadFor = append(m.allReadFor, userID)
	return nil
}

func (m *mockNotificationRepo) CountUnread(ctx context.Context, userID string) (int, error) {
	return m.unread, nil
}

type mockDeliveryQueue struct {
	jobs []jobs.Job
}

func (m *mockDeliveryQueue) Enqueue(job jobs.Job) error {
	m.jobs = append(m.jobs, job)
	return nil
}

func TestNotificationEmit(t *testing.T) {
	repo := &mockNotificationRepo{}
	queue := &mockDeliveryQueue{}
	svc := NewNotificationService(repo, queue, nil, nil)

	err := svc.Emit(context.Background(), "u1", models.NotificationTaskSubmitted, map[string]interface{}{
		"task_progress_id": "tp-1",
	})
	require.NoError(t, err)
	require.Len(t, repo.notifications, 1)
	assert.Equal(t, "u1", repo.notifications[0].UserID)
	assert.Equal(t, models.NotificationTaskSubmitted, repo.notifications[0].Type)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(repo.notifications[0].Payload, &payload))
	assert.Equal(t, "tp-1", payload["task_progress_id"])

	require.Len(t, queue.jobs, 1)
	assert.Equal(t, string(models.NotificationTaskSubmitted), queue.jobs[0].Type)
}

func TestNotificationEmitWithoutQueue(t *testing.T) {
	repo := &mockNotificationRepo{}
	svc := NewNotificationService(repo, nil, nil, nil)

	err := svc.Emit(context.Background(), "u1", models.NotificationFeedbackReceived, nil)
	require.NoError(t, err)
	require.Len(t, repo.notifications, 1)
}

func TestNotificationListScopedToCaller(t *testing.T) {
	repo := &mockNotificationRepo{}
	svc := NewNotificationService(repo, nil, nil, nil)
	require.NoError(t, svc.Emit(context.Background(), "u1", models.NotificationTaskSubmitted, nil))
	require.NoError(t, svc.Emit(context.Background(), "u2", models.NotificationTaskSubmitted, nil))

	items, pagination, err := svc.List(context.Background(), studentClaims("u1"), false, 1, 20)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "u1", items[0].UserID)
	assert.Equal(t, 1, pagination.TotalCount)

	_, _, err = svc.List(context.Background(), nil, false, 1, 20)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestNotificationMarkRead(t *testing.T) {
	repo := &mockNotificationRepo{}
	svc := NewNotificationService(repo, nil, nil, nil)
	require.NoError(t, svc.Emit(context.Background(), "u1", models.NotificationTaskSubmitted, nil))

	require.NoError(t, svc.MarkRead(context.Background(), "n1", studentClaims("u1")))
	assert.True(t, repo.notifications[0].Read)

	err := svc.MarkRead(context.Background(), "n1", studentClaims("u2"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestNotificationMarkAllReadAndUnreadCount(t *testing.T) {
	repo := &mockNotificationRepo{unread: 3}
	svc := NewNotificationService(repo, nil, nil, nil)

	require.NoError(t, svc.MarkAllRead(context.Background(), studentClaims("u1")))
	assert.Equal(t, []string{"u1"}, repo.allReadFor)

	count, err := svc.UnreadCount(context.Background(), studentClaims("u1"))
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
