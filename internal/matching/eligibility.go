// internal/matching/eligibility.go
package matching

import "matching-workers/internal/models"

// Eligible is the gate a contractor must pass before it is scored for a lead.
func Eligible(c *models.Contractor, criteria models.MatchCriteria) bool {
	for _, id := range criteria.ExcludeContractorIDs {
		if id == c.ID {
			return false
		}
	}
	return c.IsActive && c.IsApproved && c.IsAvailable &&
		c.Offers(criteria.ServiceType) &&
		c.Serves(criteria.Province) &&
		c.HasCapacity()
}

// FilterEligible keeps the contractors passing Eligible, preserving order.
// An empty result is a valid outcome.
func FilterEligible(contractors []models.Contractor, criteria models.MatchCriteria) []models.Contractor {
	out := make([]models.Contractor, 0, len(contractors))
	for i := range contractors {
		if Eligible(&contractors[i], criteria) {
			out = append(out, contractors[i])
		}
	}
	return out
}
