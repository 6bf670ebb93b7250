// internal/workers/matching/contractor-response/models.go
package contractorresponse

import "matching-workers/internal/models"

type Input struct {
	AssignmentID  string                    `json:"assignmentId"`
	Response      models.AssignmentResponse `json:"response"`
	DeclineReason *string                   `json:"declineReason"`
}

// Output.Cascade is null unless the response was a decline.
type Output struct {
	Assignment models.LeadAssignment `json:"assignment"`
	Cascade    *models.CascadeResult `json:"cascade"`
}
