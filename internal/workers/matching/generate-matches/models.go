// internal/workers/matching/generate-matches/models.go
package generatematches

import "matching-workers/internal/models"

type Input struct {
	LeadID               string   `json:"leadId"`
	MaxMatches           int      `json:"maxMatches"`
	ExcludeContractorIDs []string `json:"excludeContractorIds"`
}

type Output struct {
	MatchResult *models.MatchResult `json:"matchResult"`
}
