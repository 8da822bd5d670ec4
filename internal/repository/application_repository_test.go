package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/youthlaunch/microintern-api/internal/models"
	appErrors "github.com/youthlaunch/microintern-api/pkg/errors"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestApplicationRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec("INSERT INTO applications").
		WillReturnResult(sqlmock.NewResult(0, 1))

	app := &models.Application{StudentID: "stu-1", MicroInternshipID: "mi-1", Motivation: "I want in"}
	require.NoError(t, repo.Create(context.Background(), app))
	require.NotEmpty(t, app.ID)
	require.Equal(t, models.ApplicationStatusSubmitted, app.Status)
	require.False(t, app.SubmittedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectExec("INSERT INTO applications").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Application{StudentID: "stu-1", MicroInternshipID: "mi-1"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "student_id", "micro_internship_id", "status", "motivation", "interests", "city",
		"linkedin_url", "portfolio_url", "rejection_reason", "submitted_at", "reviewed_at",
		"mentor_assigned_at", "started_at", "completed_at",
	}).AddRow("app-1", "stu-1", "mi-1", models.ApplicationStatusSubmitted, "motivation", nil, nil,
		nil, nil, nil, time.Now(), nil, nil, nil, nil)
	mock.ExpectQuery("SELECT (.+) FROM applications WHERE id").
		WithArgs("app-1").
		WillReturnRows(rows)

	app, err := repo.FindByID(context.Background(), "app-1")
	require.NoError(t, err)
	require.Equal(t, "app-1", app.ID)
	require.Equal(t, models.ApplicationStatusSubmitted, app.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryExistsForStudentAndInternship(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM applications WHERE student_id = $1 AND micro_internship_id = $2 LIMIT 1")).
		WithArgs("stu-1", "mi-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsForStudentAndInternship(context.Background(), "stu-1", "mi-1")
	require.NoError(t, err)
	require.True(t, exists)

	mock.ExpectQuery("SELECT 1 FROM applications").
		WithArgs("stu-1", "mi-2").
		WillReturnError(sql.ErrNoRows)

	exists, err = repo.ExistsForStudentAndInternship(context.Background(), "stu-1", "mi-2")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryApplyTransitionStampsTimestamp(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE applications SET status = $2, reviewed_at = COALESCE(reviewed_at, $3) WHERE id = $1")).
		WithArgs("app-1", models.ApplicationStatusReviewed, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ApplyTransition(context.Background(), "app-1", models.ApplicationTransition{
		Status: models.ApplicationStatusReviewed,
		Now:    now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryApplyTransitionAssignsMentor(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE applications SET status = $2 WHERE id = $1")).
		WithArgs("app-1", models.ApplicationStatusMentorAssigned).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO mentor_assignments").
		WithArgs(sqlmock.AnyArg(), "app-1", "mentor-1", models.SLAModeLight, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE applications SET mentor_assigned_at = COALESCE(mentor_assigned_at, $2) WHERE id = $1")).
		WithArgs("app-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ApplyTransition(context.Background(), "app-1", models.ApplicationTransition{
		Status:         models.ApplicationStatusMentorAssigned,
		AssignMentorID: "mentor-1",
		Now:            now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationRepositoryApplyTransitionMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewApplicationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE applications SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.ApplyTransition(context.Background(), "ghost", models.ApplicationTransition{
		Status: models.ApplicationStatusRejected,
		Now:    time.Now().UTC(),
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}
