// internal/workers/matching/get-contractor-leads/models.go
package getcontractorleads

import "matching-workers/internal/models"

type Input struct {
	ContractorID string `json:"contractorId"`
}

type Output struct {
	Leads []models.ContractorLead `json:"leads"`
	Total int                     `json:"total"`
}
