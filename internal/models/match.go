// internal/models/match.go
package models

import "time"

// ContractorSnapshot is the public view of a contractor carried in match results.
type ContractorSnapshot struct {
	ID            string        `json:"id"`
	BusinessName  string        `json:"businessName"`
	AverageRating float64       `json:"averageRating"`
	TotalReviews  int           `json:"totalReviews"`
	SuccessRate   float64       `json:"successRate"`
	ResponseTime  int           `json:"responseTime"`
	Experience    int           `json:"experience"`
	Services      []ServiceType `json:"services"`
	ServiceAreas  []Province    `json:"serviceAreas"`
}

type ContractorMatch struct {
	ContractorID string             `json:"contractorId"`
	Score        float64            `json:"score"`
	Reasoning    []string           `json:"reasoning"`
	Contractor   ContractorSnapshot `json:"contractor"`
}

// MatchResult is ephemeral and never persisted.
type MatchResult struct {
	LeadID          string            `json:"leadId"`
	Matches         []ContractorMatch `json:"matches"`
	TotalCandidates int               `json:"totalCandidates"`
	Confidence      int               `json:"confidence"`
	GeneratedAt     time.Time         `json:"generatedAt"`
}

func (r *MatchResult) ContractorIDs() []string {
	ids := make([]string, 0, len(r.Matches))
	for _, m := range r.Matches {
		ids = append(ids, m.ContractorID)
	}
	return ids
}
