// internal/workers/matching/get-lead-queue/models.go
package getleadqueue

import "matching-workers/internal/models"

type Input struct {
	Limit int `json:"limit"`
}

type Output struct {
	Queue []models.LeadQueueItem `json:"queue"`
	Total int                    `json:"total"`
}
