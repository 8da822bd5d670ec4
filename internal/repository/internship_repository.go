package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/youthlaunch/microintern-api/internal/models"
)

// InternshipRepository handles persistence of the internship catalog.
type InternshipRepository struct {
	db *sqlx.DB
}

// NewInternshipRepository constructs the repository.
func NewInternshipRepository(db *sqlx.DB) *InternshipRepository {
	return &InternshipRepository{db: db}
}

const internshipColumns = `id, title, description, duration_in_weeks, tags, status, owner_id, created_at, updated_at`

// List returns internships filtered by the provided criteria.
func (r *InternshipRepository) List(ctx context.Context, filter models.InternshipFilter) ([]models.MicroInternship, int, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Tag != "" {
		conditions = append(conditions, fmt.Sprintf("tags ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Tag+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
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

	query := fmt.Sprintf(`SELECT %s FROM micro_internships%s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		internshipColumns, clause, size, offset)

	var internships []models.MicroInternship
	if err := r.db.SelectContext(ctx, &internships, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list internships: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM micro_internships" + clause
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count internships: %w", err)
	}
	return internships, total, nil
}

// FindByID returns an internship by its ID.
func (r *InternshipRepository) FindByID(ctx context.Context, id string) (*models.MicroInternship, error) {
	query := fmt.Sprintf(`SELECT %s FROM micro_internships WHERE id = $1`, internshipColumns)
	var internship models.MicroInternship
	if err := r.db.GetContext(ctx, &internship, query, id); err != nil {
		return nil, err
	}
	return &internship, nil
}

// FindDetailByID returns an internship with its weekly plans and tasks.
func (r *InternshipRepository) FindDetailByID(ctx context.Context, id string) (*models.InternshipDetail, error) {
	internship, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	const planQuery = `SELECT id, micro_internship_id, week_number, title, description, deadline_at
        FROM weekly_plans WHERE micro_internship_id = $1 ORDER BY week_number ASC`
	var plans []models.WeeklyPlan
	if err := r.db.SelectContext(ctx, &plans, planQuery, id); err != nil {
		return nil, fmt.Errorf("list weekly plans: %w", err)
	}

	detail := &models.InternshipDetail{MicroInternship: *internship}
	if len(plans) == 0 {
		return detail, nil
	}

	planIDs := make([]string, len(plans))
	for i, p := range plans {
		planIDs[i] = p.ID
	}
	taskQuery, taskArgs, err := sqlx.In(`SELECT id, weekly_plan_id, title, description, type, artifact_template_id
        FROM tasks WHERE weekly_plan_id IN (?) ORDER BY id ASC`, planIDs)
	if err != nil {
		return nil, fmt.Errorf("build task query: %w", err)
	}
	taskQuery = r.db.Rebind(taskQuery)
	var tasks []models.Task
	if err := r.db.SelectContext(ctx, &tasks, taskQuery, taskArgs...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	tasksByPlan := make(map[string][]models.Task, len(plans))
	for _, t := range tasks {
		tasksByPlan[t.WeeklyPlanID] = append(tasksByPlan[t.WeeklyPlanID], t)
	}
	for _, p := range plans {
		detail.WeeklyPlans = append(detail.WeeklyPlans, models.WeeklyPlanDetail{WeeklyPlan: p, Tasks: tasksByPlan[p.ID]})
	}
	return detail, nil
}

// Create persists an internship together with its weekly plans and tasks.
func (r *InternshipRepository) Create(ctx context.Context, detail *models.InternshipDetail) error {
	if detail.ID == "" {
		detail.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if detail.CreatedAt.IsZero() {
		detail.CreatedAt = now
	}
	detail.UpdatedAt = now
	if detail.Status == "" {
		detail.Status = models.InternshipStatusDraft
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	const insertInternship = `INSERT INTO micro_internships (id, title, description, duration_in_weeks, tags, status, owner_id, created_at, updated_at)
        VALUES (:id, :title, :description, :duration_in_weeks, :tags, :status, :owner_id, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertInternship, detail.MicroInternship); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("create internship: %w", err)
	}

	for i := range detail.WeeklyPlans {
		plan := &detail.WeeklyPlans[i]
		if plan.ID == "" {
			plan.ID = uuid.NewString()
		}
		plan.MicroInternshipID = detail.ID
		const insertPlan = `INSERT INTO weekly_plans (id, micro_internship_id, week_number, title, description, deadline_at)
            VALUES (:id, :micro_internship_id, :week_number, :title, :description, :deadline_at)`
		if _, err := tx.NamedExecContext(ctx, insertPlan, plan.WeeklyPlan); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("create weekly plan: %w", err)
		}
		for j := range plan.Tasks {
			task := &plan.Tasks[j]
			if task.ID == "" {
				task.ID = uuid.NewString()
			}
			task.WeeklyPlanID = plan.ID
			const insertTask = `INSERT INTO tasks (id, weekly_plan_id, title, description, type, artifact_template_id)
                VALUES (:id, :weekly_plan_id, :title, :description, :type, :artifact_template_id)`
			if _, err := tx.NamedExecContext(ctx, insertTask, task); err != nil {
				tx.Rollback() //nolint:errcheck
				return fmt.Errorf("create task: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit internship: %w", err)
	}
	return nil
}

// Update edits the mutable fields of an internship.
func (r *InternshipRepository) Update(ctx context.Context, internship *models.MicroInternship) error {
	internship.UpdatedAt = time.Now().UTC()
	const query = `UPDATE micro_internships SET title = :title, description = :description,
        duration_in_weeks = :duration_in_weeks, tags = :tags, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, internship); err != nil {
		return fmt.Errorf("update internship: %w", err)
	}
	return nil
}

// UpdateStatus moves an internship to a new publication status.
func (r *InternshipRepository) UpdateStatus(ctx context.Context, id string, status models.InternshipStatus) error {
	const query = `UPDATE micro_internships SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update internship status: %w", err)
	}
	return nil
}

// FindTaskByID resolves a task together with its owning internship.
func (r *InternshipRepository) FindTaskByID(ctx context.Context, id string) (*models.TaskContext, error) {
	const query = `SELECT t.id, t.weekly_plan_id, t.title, t.description, t.type, t.artifact_template_id,
        wp.micro_internship_id, wp.week_number, wp.deadline_at
        FROM tasks t
        JOIN weekly_plans wp ON wp.id = t.weekly_plan_id
        WHERE t.id = $1`
	var task models.TaskContext
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		return nil, err
	}
	return &task, nil
}

// FindArtifactTemplateByID returns a template by its ID.
func (r *InternshipRepository) FindArtifactTemplateByID(ctx context.Context, id string) (*models.ArtifactTemplate, error) {
	const query = `SELECT id, name, description, body FROM artifact_templates WHERE id = $1`
	var template models.ArtifactTemplate
	if err := r.db.GetContext(ctx, &template, query, id); err != nil {
		return nil, err
	}
	return &template, nil
}
