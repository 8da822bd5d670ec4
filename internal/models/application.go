package models

import "time"

// ApplicationStatus is the lifecycle state of a student application.
type ApplicationStatus string

const (
	ApplicationStatusSubmitted      ApplicationStatus = "SUBMITTED"
	ApplicationStatusReviewed       ApplicationStatus = "REVIEWED"
	ApplicationStatusMentorAssigned ApplicationStatus = "MENTOR_ASSIGNED"
	ApplicationStatusInProgress     ApplicationStatus = "IN_PROGRESS"
	ApplicationStatusCompleted      ApplicationStatus = "COMPLETED"
	ApplicationStatusRejected       ApplicationStatus = "REJECTED"
)

// applicationTransitions is the closed set of allowed forward moves.
// COMPLETED and REJECTED are terminal and have no outgoing edges.
var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationStatusSubmitted:      {ApplicationStatusReviewed, ApplicationStatusMentorAssigned, ApplicationStatusRejected},
	ApplicationStatusReviewed:       {ApplicationStatusMentorAssigned, ApplicationStatusInProgress, ApplicationStatusRejected},
	ApplicationStatusMentorAssigned: {ApplicationStatusInProgress, ApplicationStatusRejected},
	ApplicationStatusInProgress:     {ApplicationStatusCompleted, ApplicationStatusRejected},
	ApplicationStatusCompleted:      {},
	ApplicationStatusRejected:       {},
}

// ValidApplicationStatus reports whether the value belongs to the enum.
func ValidApplicationStatus(s ApplicationStatus) bool {
	_, ok := applicationTransitions[s]
	return ok
}

// CanTransition reports whether moving from one status to another is allowed.
func CanTransition(from, to ApplicationStatus) bool {
	for _, next := range applicationTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a status has no outgoing transitions.
func (s ApplicationStatus) Terminal() bool {
	next, ok := applicationTransitions[s]
	return ok && len(next) == 0
}

// Application is a student's request to join a micro-internship.
// Lifecycle timestamps are set once on first occurrence and never cleared.
type Application struct {
	ID                string            `db:"id" json:"id"`
	StudentID         string            `db:"student_id" json:"student_id"`
	MicroInternshipID string            `db:"micro_internship_id" json:"micro_internship_id"`
	Status            ApplicationStatus `db:"status" json:"status"`
	Motivation        string            `db:"motivation" json:"motivation"`
	Interests         *string           `db:"interests" json:"interests,omitempty"`
	City              *string           `db:"city" json:"city,omitempty"`
	LinkedinURL       *string           `db:"linkedin_url" json:"linkedin_url,omitempty"`
	PortfolioURL      *string           `db:"portfolio_url" json:"portfolio_url,omitempty"`
	RejectionReason   *string           `db:"rejection_reason" json:"rejection_reason,omitempty"`
	SubmittedAt       time.Time         `db:"submitted_at" json:"submitted_at"`
	ReviewedAt        *time.Time        `db:"reviewed_at" json:"reviewed_at,omitempty"`
	MentorAssignedAt  *time.Time        `db:"mentor_assigned_at" json:"mentor_assigned_at,omitempty"`
	StartedAt         *time.Time        `db:"started_at" json:"started_at,omitempty"`
	CompletedAt       *time.Time        `db:"completed_at" json:"completed_at,omitempty"`
}

// ApplicationDetail joins the application with student, internship and mentor context.
type ApplicationDetail struct {
	Application
	StudentName     string  `db:"student_name" json:"student_name"`
	StudentEmail    string  `db:"student_email" json:"student_email"`
	InternshipTitle string  `db:"internship_title" json:"internship_title"`
	MentorID        *string `db:"mentor_id" json:"mentor_id,omitempty"`
	MentorName      *string `db:"mentor_name" json:"mentor_name,omitempty"`
	SLAMode         *string `db:"sla_mode" json:"sla_mode,omitempty"`
}

// ApplicationTransition carries the persistence effects of one admin
// transition call: the new status, the optional rejection reason, and the
// mentor assignment action decided by the lifecycle engine.
type ApplicationTransition struct {
	Status          ApplicationStatus
	RejectionReason *string
	AssignMentorID  string
	ClearMentor     bool
	Now             time.Time
}

// ApplicationFilter captures admin listing criteria.
type ApplicationFilter struct {
	Status            ApplicationStatus
	MicroInternshipID string
	StudentID         string
	Page              int
	PageSize          int
	SortBy            string
	SortOrder         string
}
