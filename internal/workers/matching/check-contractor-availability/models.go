// internal/workers/matching/check-contractor-availability/models.go
package checkavailability

import "matching-workers/internal/models"

type Input struct {
	ContractorID string `json:"contractorId"`
}

type Output struct {
	Availability *models.AvailabilitySnapshot `json:"availability"`
}
