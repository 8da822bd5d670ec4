package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		name    string
		from    ApplicationStatus
		to      ApplicationStatus
		allowed bool
	}{
		{"submitted to reviewed", ApplicationStatusSubmitted, ApplicationStatusReviewed, true},
		{"submitted straight to mentor assigned", ApplicationStatusSubmitted, ApplicationStatusMentorAssigned, true},
		{"submitted to rejected", ApplicationStatusSubmitted, ApplicationStatusRejected, true},
		{"submitted cannot skip to in progress", ApplicationStatusSubmitted, ApplicationStatusInProgress, false},
		{"submitted cannot skip to completed", ApplicationStatusSubmitted, ApplicationStatusCompleted, false},
		{"reviewed to in progress", ApplicationStatusReviewed, ApplicationStatusInProgress, true},
		{"mentor assigned to in progress", ApplicationStatusMentorAssigned, ApplicationStatusInProgress, true},
		{"in progress to completed", ApplicationStatusInProgress, ApplicationStatusCompleted, true},
		{"in progress to rejected", ApplicationStatusInProgress, ApplicationStatusRejected, true},
		{"no backward move", ApplicationStatusInProgress, ApplicationStatusSubmitted, false},
		{"completed is terminal", ApplicationStatusCompleted, ApplicationStatusInProgress, false},
		{"rejected is terminal", ApplicationStatusRejected, ApplicationStatusSubmitted, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, CanTransition(tc.from, tc.to))
		})
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, ApplicationStatusCompleted.Terminal())
	assert.True(t, ApplicationStatusRejected.Terminal())
	assert.False(t, ApplicationStatusSubmitted.Terminal())
	assert.False(t, ApplicationStatusInProgress.Terminal())
}

func TestValidApplicationStatus(t *testing.T) {
	assert.True(t, ValidApplicationStatus(ApplicationStatusReviewed))
	assert.False(t, ValidApplicationStatus("PENDING"))
	assert.False(t, ValidApplicationStatus(""))
}

func TestValidReviewAction(t *testing.T) {
	assert.True(t, ValidReviewAction(ReviewActionApprove))
	assert.True(t, ValidReviewAction(ReviewActionRequestChanges))
	assert.False(t, ValidReviewAction("reject"))
}
