package models

import "time"

// InternshipStatus enumerates catalog publication states.
type InternshipStatus string

const (
	InternshipStatusDraft     InternshipStatus = "DRAFT"
	InternshipStatusPublished InternshipStatus = "PUBLISHED"
	InternshipStatusClosed    InternshipStatus = "CLOSED"
)

// MicroInternship represents a mentored program offering.
type MicroInternship struct {
	ID              string           `db:"id" json:"id"`
	Title           string           `db:"title" json:"title"`
	Description     string           `db:"description" json:"description"`
	DurationInWeeks int              `db:"duration_in_weeks" json:"duration_in_weeks"`
	Tags            string           `db:"tags" json:"tags"`
	Status          InternshipStatus `db:"status" json:"status"`
	OwnerID         string           `db:"owner_id" json:"owner_id"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
}

// WeeklyPlan groups tasks under a week of an internship.
type WeeklyPlan struct {
	ID                string    `db:"id" json:"id"`
	MicroInternshipID string    `db:"micro_internship_id" json:"micro_internship_id"`
	WeekNumber        int       `db:"week_number" json:"week_number"`
	Title             string    `db:"title" json:"title"`
	Description       string    `db:"description" json:"description"`
	DeadlineAt        time.Time `db:"deadline_at" json:"deadline_at"`
}

// TaskType classifies the expected work for a task.
type TaskType string

const (
	TaskTypeLearning   TaskType = "LEARNING"
	TaskTypePractical  TaskType = "PRACTICAL"
	TaskTypeReflection TaskType = "REFLECTION"
)

// Task is a single unit of work inside a weekly plan.
type Task struct {
	ID                 string   `db:"id" json:"id"`
	WeeklyPlanID       string   `db:"weekly_plan_id" json:"weekly_plan_id"`
	Title              string   `db:"title" json:"title"`
	Description        string   `db:"description" json:"description"`
	Type               TaskType `db:"type" json:"type"`
	ArtifactTemplateID *string  `db:"artifact_template_id" json:"artifact_template_id,omitempty"`
}

// ArtifactTemplate is a reusable scaffold for student work products.
type ArtifactTemplate struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
	Body        string `db:"body" json:"body"`
}

// TaskContext resolves a task back to its owning internship.
type TaskContext struct {
	Task
	MicroInternshipID string     `db:"micro_internship_id" json:"micro_internship_id"`
	WeekNumber        int        `db:"week_number" json:"week_number"`
	DeadlineAt        *time.Time `db:"deadline_at" json:"deadline_at,omitempty"`
}

// WeeklyPlanDetail carries a plan with its ordered tasks.
type WeeklyPlanDetail struct {
	WeeklyPlan
	Tasks []Task `json:"tasks"`
}

// InternshipDetail carries an internship with its full weekly breakdown.
type InternshipDetail struct {
	MicroInternship
	WeeklyPlans []WeeklyPlanDetail `json:"weekly_plans"`
}

// InternshipFilter captures catalog listing criteria.
type InternshipFilter struct {
	Status   InternshipStatus
	Tag      string
	Page     int
	PageSize int
}
