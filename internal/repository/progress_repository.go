package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/youthlaunch/microintern-api/internal/models"
)

// ProgressRepository handles persistence of task progress and its feedback.
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository constructs the repository.
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

const progressColumns = `id, task_id, student_id, status, artifact_url, submitted_at, approved_at`

// Upsert creates or overwrites the progress row for (task, student).
// Resubmission replaces artifact_url and submitted_at in place; the unique
// pair constraint guarantees a single row per student per task.
func (r *ProgressRepository) Upsert(ctx context.Context, progress *models.TaskProgress) error {
	if progress.ID == "" {
		progress.ID = uuid.NewString()
	}
	if progress.SubmittedAt.IsZero() {
		progress.SubmittedAt = time.Now().UTC()
	}
	if progress.Status == "" {
		progress.Status = models.TaskProgressStatusSubmitted
	}
	const query = `INSERT INTO task_progresses (id, task_id, student_id, status, artifact_url, submitted_at)
        VALUES (:id, :task_id, :student_id, :status, :artifact_url, :submitted_at)
        ON CONFLICT (task_id, student_id)
        DO UPDATE SET artifact_url = EXCLUDED.artifact_url, status = EXCLUDED.status, submitted_at = EXCLUDED.submitted_at`
	if _, err := r.db.NamedExecContext(ctx, query, progress); err != nil {
		return fmt.Errorf("upsert task progress: %w", err)
	}
	return nil
}

// FindByID returns a progress record by its ID.
func (r *ProgressRepository) FindByID(ctx context.Context, id string) (*models.TaskProgress, error) {
	query := fmt.Sprintf(`SELECT %s FROM task_progresses WHERE id = $1`, progressColumns)
	var progress models.TaskProgress
	if err := r.db.GetContext(ctx, &progress, query, id); err != nil {
		return nil, err
	}
	return &progress, nil
}

// FindByTaskAndStudent returns the progress row for a (task, student) pair.
func (r *ProgressRepository) FindByTaskAndStudent(ctx context.Context, taskID, studentID string) (*models.TaskProgress, error) {
	query := fmt.Sprintf(`SELECT %s FROM task_progresses WHERE task_id = $1 AND student_id = $2`, progressColumns)
	var progress models.TaskProgress
	if err := r.db.GetContext(ctx, &progress, query, taskID, studentID); err != nil {
		return nil, err
	}
	return &progress, nil
}

// FindDetailByID returns a progress record with task and student context.
func (r *ProgressRepository) FindDetailByID(ctx context.Context, id string) (*models.TaskProgressDetail, error) {
	const query = `SELECT tp.id, tp.task_id, tp.student_id, tp.status, tp.artifact_url, tp.submitted_at, tp.approved_at,
        t.title AS task_title, t.type AS task_type, wp.week_number, wp.deadline_at,
        s.name AS student_name, s.email AS student_email, wp.micro_internship_id
        FROM task_progresses tp
        JOIN tasks t ON t.id = tp.task_id
        JOIN weekly_plans wp ON wp.id = t.weekly_plan_id
        JOIN users s ON s.id = tp.student_id
        WHERE tp.id = $1`
	var detail models.TaskProgressDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListFeedback returns feedback for a progress record, newest first.
func (r *ProgressRepository) ListFeedback(ctx context.Context, taskProgressID string) ([]models.Feedback, error) {
	const query = `SELECT id, task_progress_id, author_id, text, created_at
        FROM feedbacks WHERE task_progress_id = $1 ORDER BY created_at DESC`
	var feedbacks []models.Feedback
	if err := r.db.SelectContext(ctx, &feedbacks, query, taskProgressID); err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return feedbacks, nil
}

// ApplyReview updates the progress row, appends feedback and increments the
// mentor's reply counters in a single transaction.
func (r *ProgressRepository) ApplyReview(ctx context.Context, id string, update models.ReviewUpdate) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	const updateProgress = `UPDATE task_progresses SET status = $2, approved_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, updateProgress, id, update.Status, update.ApprovedAt); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update task progress: %w", err)
	}

	if update.Feedback != nil {
		feedback := update.Feedback
		if feedback.ID == "" {
			feedback.ID = uuid.NewString()
		}
		if feedback.CreatedAt.IsZero() {
			feedback.CreatedAt = time.Now().UTC()
		}
		feedback.TaskProgressID = id
		const insertFeedback = `INSERT INTO feedbacks (id, task_progress_id, author_id, text, created_at)
            VALUES (:id, :task_progress_id, :author_id, :text, :created_at)`
		if _, err := tx.NamedExecContext(ctx, insertFeedback, feedback); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("append feedback: %w", err)
		}
	}

	if update.AssignmentID != "" {
		const bumpCounters = `UPDATE mentor_assignments SET total_replies = total_replies + 1, on_time_replies = on_time_replies + 1 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, bumpCounters, update.AssignmentID); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("increment reply counters: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit review: %w", err)
	}
	return nil
}
