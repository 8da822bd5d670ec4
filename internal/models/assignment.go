package models

import "time"

// SLAMode is a mentor's committed response cadence.
type SLAMode string

const (
	SLAModeLight     SLAMode = "LIGHT"
	SLAModeStandard  SLAMode = "STANDARD"
	SLAModeIntensive SLAMode = "INTENSIVE"
)

// MentorAssignment binds exactly one mentor to one application.
// The applicationId column carries a unique constraint, so concurrent
// assignment attempts resolve to a single winner.
type MentorAssignment struct {
	ID            string    `db:"id" json:"id"`
	ApplicationID string    `db:"application_id" json:"application_id"`
	MentorID      string    `db:"mentor_id" json:"mentor_id"`
	SLAMode       SLAMode   `db:"sla_mode" json:"sla_mode"`
	TotalReplies  int       `db:"total_replies" json:"total_replies"`
	OnTimeReplies int       `db:"on_time_replies" json:"on_time_replies"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
