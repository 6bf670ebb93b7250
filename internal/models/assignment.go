// internal/models/assignment.go
package models

import "time"

// LeadAssignment is an offer of one lead to one contractor. Unique per
// (LeadID, ContractorID); Response is written at most once.
type LeadAssignment struct {
	ID            string              `json:"id"`
	LeadID        string              `json:"leadId"`
	ContractorID  string              `json:"contractorId"`
	AssignedAt    time.Time           `json:"assignedAt"`
	Response      *AssignmentResponse `json:"response,omitempty"`
	DeclineReason *string             `json:"declineReason,omitempty"`
	RespondedAt   *time.Time          `json:"respondedAt,omitempty"`
}

func (a *LeadAssignment) HasResponded() bool {
	return a.Response != nil
}

func (a *LeadAssignment) IsDeclined() bool {
	return a.Response != nil && *a.Response == ResponseDeclined
}

// AllDeclined is true for a non-empty set where every offer was declined.
func AllDeclined(assignments []LeadAssignment) bool {
	if len(assignments) == 0 {
		return false
	}
	for i := range assignments {
		if !assignments[i].IsDeclined() {
			return false
		}
	}
	return true
}

// AssignmentResult is returned by override and direct assignment.
type AssignmentResult struct {
	Lead           Lead             `json:"lead"`
	Assignments    []LeadAssignment `json:"assignments"`
	OverrideReason string           `json:"overrideReason,omitempty"`
}

type CascadeOutcome string

const (
	CascadeNotTriggered  CascadeOutcome = "NOT_TRIGGERED"
	CascadeReassigned    CascadeOutcome = "REASSIGNED"
	CascadeExhausted     CascadeOutcome = "EXHAUSTED"
	CascadeSkippedLocked CascadeOutcome = "SKIPPED_LOCKED"
	// CascadeFailed leaves the lead in the coordinator queue; the recorded
	// response stands and the cascade can be rerun for the lead.
	CascadeFailed CascadeOutcome = "FAILED"
)

type CascadeResult struct {
	Outcome             CascadeOutcome   `json:"outcome"`
	ExcludedContractors []string         `json:"excludedContractors,omitempty"`
	NewAssignments      []LeadAssignment `json:"newAssignments,omitempty"`
	LeadStatus          LeadStatus       `json:"leadStatus,omitempty"`
	Error               string           `json:"error,omitempty"`
}

type ResponseResult struct {
	Assignment LeadAssignment `json:"assignment"`
	// Cascade is nil for ACCEPTED responses.
	Cascade *CascadeResult `json:"cascade,omitempty"`
}
