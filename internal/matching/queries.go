// internal/matching/queries.go
package matching

import (
	"context"

	"matching-workers/internal/models"
)

// CheckContractorAvailability is a read-only capacity projection.
func (e *Engine) CheckContractorAvailability(ctx context.Context, contractorID string) (*models.AvailabilitySnapshot, error) {
	c, err := e.contractors.FindContractor(ctx, contractorID)
	if err != nil {
		return nil, err
	}
	slots, err := e.contractors.FindAvailabilitySlots(ctx, contractorID)
	if err != nil {
		return nil, err
	}
	if slots == nil {
		slots = []models.AvailabilitySlot{}
	}

	return &models.AvailabilitySnapshot{
		ContractorID:       c.ID,
		IsAvailable:        c.IsAvailable && c.HasCapacity(),
		CurrentJobs:        c.CurrentJobs,
		MaxJobs:            c.MaxConcurrentJobs,
		UtilizationRate:    c.Utilization() * 100,
		WeeklyAvailability: slots,
	}, nil
}

func (e *Engine) GetContractorWorkload(ctx context.Context, contractorID string) (*models.WorkloadSnapshot, error) {
	c, err := e.contractors.FindContractor(ctx, contractorID)
	if err != nil {
		return nil, err
	}
	pending, err := e.contractors.CountPendingMilestones(ctx, contractorID)
	if err != nil {
		return nil, err
	}

	return &models.WorkloadSnapshot{
		ContractorID:      c.ID,
		ActiveJobs:        c.CurrentJobs,
		MaxJobs:           c.MaxConcurrentJobs,
		UtilizationRate:   c.Utilization() * 100,
		PendingMilestones: pending,
		IsAvailable:       c.IsAvailable && c.HasCapacity(),
	}, nil
}

// GetLeadQueue lists leads awaiting coordinator attention, most urgent and
// oldest first. NeedsManualAssignment separates leads with no open offer from
// leads whose offers are still being answered.
func (e *Engine) GetLeadQueue(ctx context.Context, limit int) ([]models.LeadQueueItem, error) {
	leads, err := e.leads.FindQueuedLeads(ctx, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(leads))
	for _, l := range leads {
		ids = append(ids, l.ID)
	}
	byLead, err := e.ledger.FindAssignmentsForLeads(ctx, ids)
	if err != nil {
		return nil, err
	}

	queue := make([]models.LeadQueueItem, 0, len(leads))
	for _, l := range leads {
		assignments := byLead[l.ID]
		if assignments == nil {
			assignments = []models.LeadAssignment{}
		}
		item := models.LeadQueueItem{Lead: l, Assignments: assignments}

		open := 0
		for i := range assignments {
			if assignments[i].IsDeclined() {
				item.DeclinedCount++
			}
			if !assignments[i].HasResponded() {
				open++
			}
		}
		item.NeedsManualAssignment = l.Status == models.LeadPending && open == 0
		queue = append(queue, item)
	}
	return queue, nil
}

// GetLeadsByContractor lists the leads offered to a contractor, newest offer first.
func (e *Engine) GetLeadsByContractor(ctx context.Context, contractorID string) ([]models.ContractorLead, error) {
	if _, err := e.contractors.FindContractor(ctx, contractorID); err != nil {
		return nil, err
	}
	leads, err := e.ledger.FindLeadsForContractor(ctx, contractorID)
	if err != nil {
		return nil, err
	}
	if leads == nil {
		leads = []models.ContractorLead{}
	}
	return leads, nil
}
