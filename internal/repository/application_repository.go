package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/youthlaunch/microintern-api/internal/models"
	appErrors "github.com/youthlaunch/microintern-api/pkg/errors"
)

// pqUniqueViolation is the PostgreSQL error code for unique constraint breaches.
const pqUniqueViolation = "23505"

// IsUniqueViolation reports whether the error is a unique constraint breach.
// Unique constraints are the only concurrency arbiter in this design: a racing
// duplicate write loses with this error instead of corrupting state.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation
}

// ApplicationRepository handles persistence of applications and their mentor
// assignments. The assignment rows belong to the application aggregate, so
// they are managed here rather than in a repository of their own.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository constructs the repository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

const applicationColumns = `id, student_id, micro_internship_id, status, motivation, interests, city, linkedin_url, portfolio_url,
        rejection_reason, submitted_at, reviewed_at, mentor_assigned_at, started_at, completed_at`

// Create persists a new application. A duplicate (student, internship) pair
// surfaces as a unique violation.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.Application) error {
	if app.ID == "" {
		app.ID = uuid.NewString()
	}
	if app.SubmittedAt.IsZero() {
		app.SubmittedAt = time.Now().UTC()
	}
	if app.Status == "" {
		app.Status = models.ApplicationStatusSubmitted
	}
	const query = `INSERT INTO applications (id, student_id, micro_internship_id, status, motivation, interests, city, linkedin_url, portfolio_url, submitted_at)
        VALUES (:id, :student_id, :micro_internship_id, :status, :motivation, :interests, :city, :linkedin_url, :portfolio_url, :submitted_at)`
	if _, err := r.db.NamedExecContext(ctx, query, app); err != nil {
		if IsUniqueViolation(err) {
			return appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status, "application already exists for internship")
		}
		return fmt.Errorf("create application: %w", err)
	}
	return nil
}

// FindByID returns an application by its ID.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE id = $1`, applicationColumns)
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		return nil, err
	}
	return &app, nil
}

const applicationDetailSelect = `SELECT a.id, a.student_id, a.micro_internship_id, a.status, a.motivation, a.interests, a.city,
        a.linkedin_url, a.portfolio_url, a.rejection_reason, a.submitted_at, a.reviewed_at, a.mentor_assigned_at, a.started_at, a.completed_at,
        s.name AS student_name, s.email AS student_email, mi.title AS internship_title,
        ma.mentor_id AS mentor_id, m.name AS mentor_name, ma.sla_mode AS sla_mode
        FROM applications a
        JOIN users s ON s.id = a.student_id
        JOIN micro_internships mi ON mi.id = a.micro_internship_id
        LEFT JOIN mentor_assignments ma ON ma.application_id = a.id
        LEFT JOIN users m ON m.id = ma.mentor_id`

// FindDetailByID returns an application with student, internship and mentor context.
func (r *ApplicationRepository) FindDetailByID(ctx context.Context, id string) (*models.ApplicationDetail, error) {
	query := applicationDetailSelect + ` WHERE a.id = $1`
	var detail models.ApplicationDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns application details filtered by the provided criteria.
func (r *ApplicationRepository) List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.MicroInternshipID != "" {
		conditions = append(conditions, fmt.Sprintf("a.micro_internship_id = $%d", len(args)+1))
		args = append(args, filter.MicroInternshipID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"submitted_at": "a.submitted_at",
		"status":       "a.status",
		"student_name": "s.name",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "a.submitted_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`%s%s ORDER BY %s %s LIMIT %d OFFSET %d`, applicationDetailSelect, clause, orderBy, order, size, offset)

	var details []models.ApplicationDetail
	if err := r.db.SelectContext(ctx, &details, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM applications a JOIN users s ON s.id = a.student_id%s`, clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}
	return details, total, nil
}

// FindActiveByStudentAndInternship returns the student's application for the
// internship when its status still admits task work.
func (r *ApplicationRepository) FindActiveByStudentAndInternship(ctx context.Context, studentID, internshipID string) (*models.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications
        WHERE student_id = $1 AND micro_internship_id = $2 AND status IN ($3, $4) LIMIT 1`, applicationColumns)
	var app models.Application
	if err := r.db.GetContext(ctx, &app, query, studentID, internshipID,
		models.ApplicationStatusInProgress, models.ApplicationStatusMentorAssigned); err != nil {
		return nil, err
	}
	return &app, nil
}

// ExistsForStudentAndInternship checks whether the student already applied.
func (r *ApplicationRepository) ExistsForStudentAndInternship(ctx context.Context, studentID, internshipID string) (bool, error) {
	const query = `SELECT 1 FROM applications WHERE student_id = $1 AND micro_internship_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, internshipID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check application: %w", err)
	}
	return true, nil
}

// ApplyTransition updates the application status, its first-occurrence
// timestamps, and the mentor assignment in a single transaction, so readers
// never observe a partially applied transition. Lifecycle timestamps use
// COALESCE so only the first occurrence of a status sets them.
func (r *ApplicationRepository) ApplyTransition(ctx context.Context, id string, tr models.ApplicationTransition) error {
	if tr.Now.IsZero() {
		tr.Now = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	setClauses := []string{"status = $2"}
	args := []interface{}{id, tr.Status}

	timestampColumns := map[models.ApplicationStatus]string{
		models.ApplicationStatusReviewed:   "reviewed_at",
		models.ApplicationStatusInProgress: "started_at",
		models.ApplicationStatusCompleted:  "completed_at",
	}
	if column, ok := timestampColumns[tr.Status]; ok {
		setClauses = append(setClauses, fmt.Sprintf("%s = COALESCE(%s, $%d)", column, column, len(args)+1))
		args = append(args, tr.Now)
	}
	if tr.Status == models.ApplicationStatusRejected && tr.RejectionReason != nil {
		setClauses = append(setClauses, fmt.Sprintf("rejection_reason = $%d", len(args)+1))
		args = append(args, *tr.RejectionReason)
	}

	query := fmt.Sprintf(`UPDATE applications SET %s WHERE id = $1`, strings.Join(setClauses, ", "))
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update application status: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		tx.Rollback() //nolint:errcheck
		return sql.ErrNoRows
	}

	if tr.AssignMentorID != "" {
		const upsert = `INSERT INTO mentor_assignments (id, application_id, mentor_id, sla_mode, total_replies, on_time_replies, created_at)
            VALUES ($1, $2, $3, $4, 0, 0, $5)
            ON CONFLICT (application_id) DO UPDATE SET mentor_id = EXCLUDED.mentor_id`
		if _, err := tx.ExecContext(ctx, upsert, uuid.NewString(), id, tr.AssignMentorID, models.SLAModeLight, tr.Now); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("upsert mentor assignment: %w", err)
		}
		const stamp = `UPDATE applications SET mentor_assigned_at = COALESCE(mentor_assigned_at, $2) WHERE id = $1`
		if _, err := tx.ExecContext(ctx, stamp, id, tr.Now); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("stamp mentor assignment: %w", err)
		}
	} else if tr.ClearMentor {
		const remove = `DELETE FROM mentor_assignments WHERE application_id = $1`
		if _, err := tx.ExecContext(ctx, remove, id); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("delete mentor assignment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transition: %w", err)
	}
	return nil
}

const assignmentColumns = `id, application_id, mentor_id, sla_mode, total_replies, on_time_replies, created_at`

// FindAssignmentByApplication returns the assignment owned by an application.
func (r *ApplicationRepository) FindAssignmentByApplication(ctx context.Context, applicationID string) (*models.MentorAssignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM mentor_assignments WHERE application_id = $1`, assignmentColumns)
	var assignment models.MentorAssignment
	if err := r.db.GetContext(ctx, &assignment, query, applicationID); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// FindAssignmentByMentorAndStudent returns the assignment binding a mentor to
// any application of the given student. Review authorization hangs off this.
func (r *ApplicationRepository) FindAssignmentByMentorAndStudent(ctx context.Context, mentorID, studentID string) (*models.MentorAssignment, error) {
	query := fmt.Sprintf(`SELECT ma.%s FROM mentor_assignments ma
        JOIN applications a ON a.id = ma.application_id
        WHERE ma.mentor_id = $1 AND a.student_id = $2 LIMIT 1`,
		strings.ReplaceAll(assignmentColumns, ", ", ", ma."))
	var assignment models.MentorAssignment
	if err := r.db.GetContext(ctx, &assignment, query, mentorID, studentID); err != nil {
		return nil, err
	}
	return &assignment, nil
}
