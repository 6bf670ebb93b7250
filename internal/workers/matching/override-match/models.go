// internal/workers/matching/override-match/models.go
package overridematch

import "matching-workers/internal/models"

type Input struct {
	LeadID        string   `json:"leadId"`
	ContractorIDs []string `json:"contractorIds"`
	Reason        string   `json:"reason"`
}

type Output struct {
	Lead           models.Lead             `json:"lead"`
	Assignments    []models.LeadAssignment `json:"assignments"`
	OverrideReason string                  `json:"overrideReason"`
}
