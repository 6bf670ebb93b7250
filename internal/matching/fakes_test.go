package matching

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	apperrors "matching-workers/internal/common/errors"
	"matching-workers/internal/models"
)

// memStore is an in-memory LeadStore, ContractorDirectory and AssignmentLedger.
type memStore struct {
	mu          sync.Mutex
	leads       map[string]*models.Lead
	contractors map[string]*models.Contractor
	slots       map[string][]models.AvailabilitySlot
	milestones  map[string]int
	assignments []*models.LeadAssignment
	seq         int

	failCriteria error
	// honorCtx makes reads fail on a finished context, as database/sql does.
	honorCtx bool
}

func (s *memStore) ctxErr(ctx context.Context, op string) error {
	if s.honorCtx && ctx.Err() != nil {
		return apperrors.NewDatabaseQueryFailedError(op, ctx.Err())
	}
	return nil
}

func newMemStore() *memStore {
	return &memStore{
		leads:       make(map[string]*models.Lead),
		contractors: make(map[string]*models.Contractor),
		slots:       make(map[string][]models.AvailabilitySlot),
		milestones:  make(map[string]int),
	}
}

func (s *memStore) addLead(l models.Lead) {
	s.leads[l.ID] = &l
}

func (s *memStore) addContractor(c models.Contractor) {
	s.contractors[c.ID] = &c
}

func (s *memStore) FindLead(ctx context.Context, id string) (*models.Lead, error) {
	if err := s.ctxErr(ctx, "find lead"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[id]
	if !ok {
		return nil, apperrors.NewLeadNotFoundError(id)
	}
	cp := *l
	return &cp, nil
}

func (s *memStore) UpdateLeadStatus(_ context.Context, id string, status models.LeadStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[id]
	if !ok {
		return apperrors.NewLeadNotFoundError(id)
	}
	l.Status = status
	return nil
}

func (s *memStore) CompareAndSetLeadStatus(_ context.Context, id string, expected, next models.LeadStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.leads[id]
	if !ok || l.Status != expected {
		return false, nil
	}
	l.Status = next
	return true, nil
}

func (s *memStore) FindQueuedLeads(_ context.Context, limit int) ([]models.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Lead
	for _, l := range s.leads {
		declined := false
		for _, a := range s.assignments {
			if a.LeadID == l.ID && a.IsDeclined() {
				declined = true
			}
		}
		if l.Status == models.LeadPending || (l.Status == models.LeadAssigned && declined) {
			out = append(out, *l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Urgency.Rank() != out[j].Urgency.Rank() {
			return out[i].Urgency.Rank() > out[j].Urgency.Rank()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) sortedContractors() []models.Contractor {
	ids := make([]string, 0, len(s.contractors))
	for id := range s.contractors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]models.Contractor, 0, len(ids))
	for _, id := range ids {
		out = append(out, *s.contractors[id])
	}
	return out
}

// FindContractorsByCriteria returns everything so the engine's own filter is exercised.
func (s *memStore) FindContractorsByCriteria(_ context.Context, _ models.MatchCriteria) ([]models.Contractor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCriteria != nil {
		return nil, s.failCriteria
	}
	return s.sortedContractors(), nil
}

func (s *memStore) FindContractor(_ context.Context, id string) (*models.Contractor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contractors[id]
	if !ok {
		return nil, apperrors.NewContractorNotFoundError(id)
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) FindContractors(_ context.Context, ids []string) ([]models.Contractor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Contractor
	for _, id := range ids {
		if c, ok := s.contractors[id]; ok {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *memStore) FindAvailabilitySlots(_ context.Context, id string) ([]models.AvailabilitySlot, error) {
	return s.slots[id], nil
}

func (s *memStore) CountPendingMilestones(_ context.Context, id string) (int, error) {
	return s.milestones[id], nil
}

func (s *memStore) UpsertAssignment(_ context.Context, leadID, contractorID string) (*models.LeadAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assignments {
		if a.LeadID == leadID && a.ContractorID == contractorID {
			cp := *a
			return &cp, nil
		}
	}
	s.seq++
	a := &models.LeadAssignment{
		ID:           fmt.Sprintf("a-%d", s.seq),
		LeadID:       leadID,
		ContractorID: contractorID,
		AssignedAt:   time.Date(2026, 1, 1, 0, 0, s.seq, 0, time.UTC),
	}
	s.assignments = append(s.assignments, a)
	cp := *a
	return &cp, nil
}

func (s *memStore) FindAssignment(_ context.Context, id string) (*models.LeadAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assignments {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperrors.NewAssignmentNotFoundError(id)
}

func (s *memStore) FindAssignmentsForLead(ctx context.Context, leadID string) ([]models.LeadAssignment, error) {
	if err := s.ctxErr(ctx, "find assignments"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.LeadAssignment
	for _, a := range s.assignments {
		if a.LeadID == leadID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *memStore) FindAssignmentsForLeads(ctx context.Context, leadIDs []string) (map[string][]models.LeadAssignment, error) {
	out := make(map[string][]models.LeadAssignment)
	for _, id := range leadIDs {
		list, _ := s.FindAssignmentsForLead(ctx, id)
		if len(list) > 0 {
			out[id] = list
		}
	}
	return out, nil
}

func (s *memStore) RecordResponse(_ context.Context, id string, response models.AssignmentResponse, reason *string, at time.Time) (*models.LeadAssignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.assignments {
		if a.ID != id {
			continue
		}
		if a.Response != nil {
			return nil, apperrors.NewAlreadyRespondedError(id, string(*a.Response))
		}
		r := response
		a.Response = &r
		a.DeclineReason = reason
		a.RespondedAt = &at
		cp := *a
		return &cp, nil
	}
	return nil, apperrors.NewAssignmentNotFoundError(id)
}

func (s *memStore) FindLeadsForContractor(_ context.Context, contractorID string) ([]models.ContractorLead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ContractorLead
	for i := len(s.assignments) - 1; i >= 0; i-- {
		a := s.assignments[i]
		if a.ContractorID == contractorID {
			out = append(out, models.ContractorLead{Lead: *s.leads[a.LeadID], Assignment: *a})
		}
	}
	return out, nil
}

func (s *memStore) assignmentsFor(leadID, contractorID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.assignments {
		if a.LeadID == leadID && a.ContractorID == contractorID {
			n++
		}
	}
	return n
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, note models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, note)
	return n.err
}

func (n *recordingNotifier) events() []models.NotificationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]models.NotificationEvent, 0, len(n.sent))
	for _, s := range n.sent {
		out = append(out, s.Event)
	}
	return out
}

// stallingNotifier blocks every send until its context ends.
type stallingNotifier struct {
	mu    sync.Mutex
	calls int
}

func (n *stallingNotifier) Notify(ctx context.Context, _ models.Notification) error {
	<-ctx.Done()
	n.mu.Lock()
	n.calls++
	n.mu.Unlock()
	return ctx.Err()
}

// heldLocker reports the lock as held by someone else.
type heldLocker struct{}

func (heldLocker) TryLock(context.Context, string) (func(context.Context) error, bool, error) {
	return nil, false, nil
}

type brokenLocker struct{ err error }

func (b brokenLocker) TryLock(context.Context, string) (func(context.Context) error, bool, error) {
	return nil, false, b.err
}
