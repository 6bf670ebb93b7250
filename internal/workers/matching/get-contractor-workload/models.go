// internal/workers/matching/get-contractor-workload/models.go
package getworkload

import "matching-workers/internal/models"

type Input struct {
	ContractorID string `json:"contractorId"`
}

type Output struct {
	Workload *models.WorkloadSnapshot `json:"workload"`
}
