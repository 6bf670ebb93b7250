// internal/models/lead.go
package models

import "time"

type Location struct {
	Address  string   `json:"address"`
	City     string   `json:"city"`
	Province Province `json:"province"`
}

type Lead struct {
	ID          string       `json:"id"`
	CustomerID  string       `json:"customerId"`
	ServiceType ServiceType  `json:"serviceType"`
	Description string       `json:"description"`
	Urgency     UrgencyLevel `json:"urgency"`
	Status      LeadStatus   `json:"status"`
	Location    Location     `json:"location"`
	BudgetMin   *float64     `json:"budgetMin,omitempty"`
	BudgetMax   *float64     `json:"budgetMax,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// MatchCriteria is what the eligibility filter and scorer see of a lead.
type MatchCriteria struct {
	ServiceType          ServiceType  `json:"serviceType"`
	Province             Province     `json:"province"`
	Urgency              UrgencyLevel `json:"urgency"`
	BudgetMin            *float64     `json:"budgetMin,omitempty"`
	BudgetMax            *float64     `json:"budgetMax,omitempty"`
	ExcludeContractorIDs []string     `json:"excludeContractorIds,omitempty"`
}

func (l *Lead) Criteria(exclude []string) MatchCriteria {
	return MatchCriteria{
		ServiceType:          l.ServiceType,
		Province:             l.Location.Province,
		Urgency:              l.Urgency,
		BudgetMin:            l.BudgetMin,
		BudgetMax:            l.BudgetMax,
		ExcludeContractorIDs: exclude,
	}
}

// LeadQueueItem is a lead awaiting coordinator attention.
type LeadQueueItem struct {
	Lead          Lead             `json:"lead"`
	Assignments   []LeadAssignment `json:"assignments"`
	DeclinedCount int              `json:"declinedCount"`
	// NeedsManualAssignment marks PENDING leads with no open offer: either no
	// contractor was ever eligible or a cascade ran out of candidates.
	NeedsManualAssignment bool `json:"needsManualAssignment"`
}

// ContractorLead is one lead offered to a contractor with that offer's state.
type ContractorLead struct {
	Lead       Lead           `json:"lead"`
	Assignment LeadAssignment `json:"assignment"`
}
