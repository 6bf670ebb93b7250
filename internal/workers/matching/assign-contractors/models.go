// internal/workers/matching/assign-contractors/models.go
package assigncontractors

import "matching-workers/internal/models"

type Input struct {
	LeadID        string   `json:"leadId"`
	ContractorIDs []string `json:"contractorIds"`
}

type Output struct {
	Lead        models.Lead             `json:"lead"`
	Assignments []models.LeadAssignment `json:"assignments"`
}
