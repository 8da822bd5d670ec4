package models

import "time"

// TaskProgressStatus tracks a student's work on a single task.
// PENDING is implicit: no row exists until the first submission.
type TaskProgressStatus string

const (
	TaskProgressStatusPending    TaskProgressStatus = "PENDING"
	TaskProgressStatusSubmitted  TaskProgressStatus = "SUBMITTED"
	TaskProgressStatusInProgress TaskProgressStatus = "IN_PROGRESS"
	TaskProgressStatusApproved   TaskProgressStatus = "APPROVED"
)

// TaskProgress is the per-(task, student) submission record.
// submittedAt is overwritten on every resubmission, unlike application
// lifecycle timestamps which are set once.
type TaskProgress struct {
	ID          string             `db:"id" json:"id"`
	TaskID      string             `db:"task_id" json:"task_id"`
	StudentID   string             `db:"student_id" json:"student_id"`
	Status      TaskProgressStatus `db:"status" json:"status"`
	ArtifactURL string             `db:"artifact_url" json:"artifact_url"`
	SubmittedAt time.Time          `db:"submitted_at" json:"submitted_at"`
	ApprovedAt  *time.Time         `db:"approved_at" json:"approved_at,omitempty"`
}

// Feedback is an immutable mentor note attached to a task progress record.
type Feedback struct {
	ID             string    `db:"id" json:"id"`
	TaskProgressID string    `db:"task_progress_id" json:"task_progress_id"`
	AuthorID       string    `db:"author_id" json:"author_id"`
	Text           string    `db:"text" json:"text"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// TaskProgressDetail joins progress with its task and student context.
type TaskProgressDetail struct {
	TaskProgress
	TaskTitle         string     `db:"task_title" json:"task_title"`
	TaskType          TaskType   `db:"task_type" json:"task_type"`
	WeekNumber        int        `db:"week_number" json:"week_number"`
	DeadlineAt        *time.Time `db:"deadline_at" json:"deadline_at,omitempty"`
	StudentName       string     `db:"student_name" json:"student_name"`
	StudentEmail      string     `db:"student_email" json:"student_email"`
	MicroInternshipID string     `db:"micro_internship_id" json:"micro_internship_id"`
	Feedbacks         []Feedback `json:"feedbacks,omitempty"`
}

// ReviewUpdate carries the persistence effects of one mentor review: the new
// progress status, the approval timestamp (nil clears it on reopen), an
// optional appended feedback note, and the assignment whose reply counters
// must advance.
type ReviewUpdate struct {
	Status       TaskProgressStatus
	ApprovedAt   *time.Time
	Feedback     *Feedback
	AssignmentID string
}

// ReviewAction enumerates the mentor's verdicts on a submission.
type ReviewAction string

const (
	ReviewActionApprove        ReviewAction = "approve"
	ReviewActionRequestChanges ReviewAction = "request_changes"
)

// ValidReviewAction reports whether the action belongs to the enum.
func ValidReviewAction(a ReviewAction) bool {
	return a == ReviewActionApprove || a == ReviewActionRequestChanges
}
