package matching

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "matching-workers/internal/common/errors"
	"matching-workers/internal/common/logger"
	"matching-workers/internal/models"
)

var testNow = time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)

func strongContractor(id string) models.Contractor {
	return models.Contractor{
		ID:                id,
		UserID:            "user-" + id,
		BusinessName:      "Siam Renovations " + id,
		Services:          []models.ServiceType{models.ServiceRenovation, models.ServiceRepairs},
		ServiceAreas:      []models.Province{models.ProvinceBangkok, models.ProvinceNonthaburi},
		Experience:        8,
		AverageRating:     4.8,
		TotalReviews:      30,
		SuccessRate:       95,
		ResponseTime:      45,
		IsActive:          true,
		IsApproved:        true,
		IsAvailable:       true,
		MaxConcurrentJobs: 5,
		CurrentJobs:       2,
	}
}

func weakContractor(id string) models.Contractor {
	c := strongContractor(id)
	c.BusinessName = "Newcomer " + id
	c.Experience = 2
	c.AverageRating = 3.0
	c.TotalReviews = 2
	c.SuccessRate = 60
	c.ResponseTime = 0
	c.CurrentJobs = 0
	return c
}

func renovationLead(id string) models.Lead {
	return models.Lead{
		ID:          id,
		CustomerID:  "cust-" + id,
		ServiceType: models.ServiceRenovation,
		Description: "Kitchen renovation",
		Urgency:     models.UrgencyMedium,
		Status:      models.LeadPending,
		Location:    models.Location{City: "Bangkok", Province: models.ProvinceBangkok},
		CreatedAt:   testNow.Add(-time.Hour),
	}
}

type harness struct {
	store    *memStore
	notifier *recordingNotifier
	engine   *Engine
}

func newHarness(t *testing.T, locker CascadeLocker) *harness {
	t.Helper()
	store := newMemStore()
	notifier := &recordingNotifier{}
	engine := NewEngine(store, store, store, notifier, locker, logger.NewTestLogger(t), Options{
		ScoringConcurrency: 4,
		Now:                func() time.Time { return testNow },
	})
	return &harness{store: store, notifier: notifier, engine: engine}
}

func (h *harness) assign(t *testing.T, leadID string, contractorIDs ...string) []models.LeadAssignment {
	t.Helper()
	res, err := h.engine.AssignContractors(context.Background(), leadID, contractorIDs)
	require.NoError(t, err)
	return res.Assignments
}

func TestGenerateMatches_NoEligibleContractors(t *testing.T) {
	h := newHarness(t, nil)
	lead := renovationLead("lead-a")
	lead.ServiceType = models.ServiceSolarInstallation
	lead.Location.Province = models.ProvinceChonburi
	h.store.addLead(lead)

	c := strongContractor("c-1")
	c.Services = []models.ServiceType{models.ServiceConstruction}
	c.ServiceAreas = []models.Province{models.ProvinceChonburi}
	h.store.addContractor(c)

	res, err := h.engine.GenerateMatches(context.Background(), "lead-a", 0, nil)
	require.NoError(t, err)
	assert.NotNil(t, res.Matches)
	assert.Empty(t, res.Matches)
	assert.Equal(t, 0, res.TotalCandidates)
	assert.Equal(t, 0, res.Confidence)
	assert.Equal(t, testNow, res.GeneratedAt)
}

func TestGenerateMatches_RanksStrongerContractorFirst(t *testing.T) {
	h := newHarness(t, nil)
	h.store.addLead(renovationLead("lead-b"))
	h.store.addContractor(weakContractor("c-1"))
	h.store.addContractor(strongContractor("c-2"))

	res, err := h.engine.GenerateMatches(context.Background(), "lead-b", 3, nil)
	require.NoError(t, err)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, "c-2", res.Matches[0].ContractorID)
	assert.Greater(t, res.Matches[0].Score, res.Matches[1].Score)
	assert.Contains(t, res.Matches[0].Reasoning, "Highly rated (4.8/5.0 from 30 reviews)")
	assert.Equal(t, 2, res.TotalCandidates)
	assert.Equal(t, 70, res.Confidence)
}

func TestGenerateMatches_FullContractorExcluded(t *testing.T) {
	h := newHarness(t, nil)
	h.store.addLead(renovationLead("lead-c"))

	full := strongContractor("c-full")
	full.AverageRating = 5
	full.TotalReviews = 200
	full.CurrentJobs = full.MaxConcurrentJobs
	h.store.addContractor(full)
	h.store.addContractor(weakContractor("c-open"))

	res, err := h.engine.GenerateMatches(context.Background(), "lead-c", 0, nil)
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, "c-open", res.Matches[0].ContractorID)
}

func TestGenerateMatches_MaxMatchesAndOrdering(t *testing.T) {
	h := newHarness(t, nil)
	h.store.addLead(renovationLead("lead-1"))
	for i := 0; i < 7; i++ {
		c := strongContractor(fmt.Sprintf("c-%d", i))
		c.Experience = i * 2
		c.SuccessRate = float64(60 + i*5)
		h.store.addContractor(c)
	}

	for _, n := range []int{1, 2, 5} {
		res, err := h.engine.GenerateMatches(context.Background(), "lead-1", n, nil)
		require.NoError(t, err)
		assert.Len(t, res.Matches, n)
		assert.Equal(t, 7, res.TotalCandidates)
		for i := 1; i < len(res.Matches); i++ {
			assert.GreaterOrEqual(t, res.Matches[i-1].Score, res.Matches[i].Score)
		}
	}

	res, err := h.engine.GenerateMatches(context.Background(), "lead-1", 0, nil)
	require.NoError(t, err)
	assert.Len(t, res.Matches, 3)
}

func TestGenerateMatches_InvalidMaxMatches(t *testing.T) {
	h := newHarness(t, nil)
	h.store.addLead(renovationLead("lead-1"))

	for _, n := range []int{-1, 6} {
		_, err := h.engine.GenerateMatches(context.Background(), "lead-1", n, nil)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput), "maxMatches=%d", n)
	}
}

func TestGenerateMatches_TiesKeepDirectoryOrder(t *testing.T) {
	h := newHarness(t, nil)
	h.store.addLead(renovationLead("lead-1"))
	h.store.addContractor(strongContractor("c-b"))
	h.store.addContractor(strongContractor("c-a"))
	h.store.addContractor(strongContractor("c-c"))

	res, err := h.engine.GenerateMatches(context.Background(), "lead-1", 3, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"c-a", "c-b", "c-c"}, res.ContractorIDs())
}

func TestGenerateMatches_ExclusionsAndErrors(t *testing.T) {
	h := newHarness(t, nil)
	h.store.addLead(renovationLead("lead-1"))
	h.store.addContractor(strongContractor("c-1"))
	h.store.addContractor(weakContractor("c-2"))

	res, err := h.engine.GenerateMatches(context.Background(), "lead-1", 3, []string{"c-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c-2"}, res.ContractorIDs())

	_, err = h.engine.GenerateMatches(context.Background(), "missing", 3, nil)
	assert.True(t, apperrors.IsNotFound(err))

	h.store.failCriteria = apperrors.NewDatabaseQueryFailedError("find contractors", errors.New("timeout"))
	_, err = h.engine.GenerateMatches(context.Background(), "lead-1", 3, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeDatabaseQueryFailed))
}

func TestOverrideMatch_IdempotentUpsert(t *testing.T) {
	h := newHarness(t, nil)
	h.store.addLead(renovationLead("lead-1"))
	h.store.addContractor(strongContractor("c-1"))
	h.store.addContractor(weakContractor("c-2"))

	ids := []string{"c-1", "c-2", "c-1"}
	first, err := h.engine.OverrideMatch(context.Background(), "lead-1", ids, "customer asked for c-1")
	require.NoError(t, err)
	second, err := h.engine.OverrideMatch(context.Background(), "lead-1", ids, "customer asked for c-1")
	require.NoError(t, err)

	assert.Len(t, first.Assignments, 2)
	assert.Equal(t, first.Assignments[0].ID, second.Assignments[0].ID)
	assert.Equal(t, 1, h.store.assignmentsFor("lead-1", "c-1"))
	assert.Equal(t, 1, h.store.assignmentsFor("lead-1", "c-2"))

	assert.Equal(t, models.LeadAssigned, second.Lead.Status)
	assert.Equal(t, "customer asked for c-1", second.OverrideReason)
	lead, _ := h.store.FindLead(context.Background(), "lead-1")
	assert.Equal(t, models.LeadAssigned, lead.Status)

	assert.Len(t, h.notifier.sent, 4)
	assert.Equal(t, models.EventLeadAssigned, h.notifier.sent[0].Event)
	assert.Equal(t, "c-1", h.notifier.sent[0].RecipientID)
}

func TestOverrideMatch_OverridesCapacityButNotStatus(t *testing.T) {
	h := newHarness(t, nil)
	h.store.addLead(renovationLead("lead-1"))

	busy := strongContractor("c-busy")
	busy.CurrentJobs = busy.MaxConcurrentJobs
	busy.ServiceAreas = []models.Province{models.ProvinceRayong}
	h.store.addContractor(busy)

	unapproved := strongContractor("c-new")
	unapproved.IsApproved = false
	h.store.addContractor(unapproved)

	_, err := h.engine.OverrideMatch(context.Background(), "lead-1", []string{"c-busy"}, "")
	require.NoError(t, err)

	_, err = h.engine.OverrideMatch(context.Background(), "lead-1", []string{"c-busy", "c-new", "c-ghost"}, "")
	require.True(t, apperrors.IsBadRequest(err))
	std, _ := apperrors.AsStandardError(err)
	assert.Equal(t, apperrors.ErrCodeContractorsUnavailable, std.Code)
	assert.Contains(t, std.Details, "c-new")
	assert.Contains(t, std.Details, "c-ghost")
	assert.Equal(t, 0, h.store.assignmentsFor("lead-1", "c-new"))
}

func TestOverrideMatch_Validation(t *testing.T) {
	h := newHarness(t, nil)
	h.store.addContractor(strongContractor("c-1"))

	_, err := h.engine.OverrideMatch(context.Background(), "lead-1", nil, "")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))

	_, err = h.engine.OverrideMatch(context.Background(), "missing", []string{"c-1"}, "")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeLeadNotFound))
}

func TestHandleContractorResponse_AtMostOnce(t *testing.T) {
	h := newHarness(t, nil)
	h.store.addLead(renovationLead("lead-1"))
	h.store.addContractor(strongContractor("c-1"))
	h.store.addContractor(strongContractor("c-2"))
	assignments := h.assign(t, "lead-1", "c-1", "c-2")

	reason := "too far"
	first, err := h.engine.HandleContractorResponse(context.Background(), assignments[0].ID, models.ResponseDeclined, &reason)
	require.NoError(t, err)

	_, err = h.engine.HandleContractorResponse(context.Background(), assignments[0].ID, models.ResponseAccepted, nil)
	require.True(t, apperrors.IsBadRequest(err))
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAlreadyResponded))

	stored, err := h.store.FindAssignment(context.Background(), assignments[0].ID)
	require.NoError(t, err)
	assert.Equal(t, *first.Assignment.Response, *stored.Response)
	assert.Equal(t, reason, *stored.DeclineReason)
	assert.Equal(t, *first.Assignment.RespondedAt, *stored.RespondedAt)
}

func TestHandleContractorResponse_Validation(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.engine.HandleContractorResponse(context.Background(), "a-1", models.ResponseNoResponse, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeInvalidInput))

	_, err = h.engine.HandleContractorResponse(context.Background(), "a-404", models.ResponseAccepted, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAssignmentNotFound))
}

func TestHandleContractorResponse_AcceptNotifiesCustomer(t *testing.T) {
	h := newHarness(t, nil)
	h.store.addLead(renovationLead("lead-1"))
	h.store.addContractor(strongContractor("c-1"))
	h.store.addContractor(strongContractor("c-2"))
	assignments := h.assign(t, "lead-1", "c-1", "c-2")
	h.notifier.sent = nil

	reason := "ignored on accept"
	res, err := h.engine.HandleContractorResponse(context.Background(), assignments[0].ID, models.ResponseAccepted, &reason)
	require.NoError(t, err)
	assert.Nil(t, res.Cascade)
	assert.Nil(t, res.Assignment.DeclineReason)
	assert.Equal(t, testNow, *res.Assignment.RespondedAt)

	require.Len(t, h.notifier.sent, 1)
	assert.Equal(t, models.EventLeadAccepted, h.notifier.sent[0].Event)
	assert.Equal(t, "cust-lead-1", h.notifier.sent[0].RecipientID)

	// Sibling offers stay open after an acceptance.
	sibling, _ := h.store.FindAssignment(context.Background(), assignments[1].ID)
	assert.Nil(t, sibling.Response)
}

func TestCascade_PendingSiblingBlocksReassignment(t *testing.T) {
	h := newHarness(t, nil)
	h.store.addLead(renovationLead("lead-d"))
	h.store.addContractor(strongContractor("c-1"))
	h.store.addContractor(strongContractor("c-2"))
	h.store.addContractor(strongContractor("c-3"))
	assignments := h.assign(t, "lead-d", "c-1", "c-2")

	res, err := h.engine.HandleContractorResponse(context.Background(), assignments[0].ID, models.ResponseDeclined, nil)
	require.NoError(t, err)
	require.NotNil(t, res.Cascade)
	assert.Equal(t, models.CascadeNotTriggered, res.Cascade.Outcome)

	lead, _ := h.store.FindLead(context.Background(), "lead-d")
	assert.Equal(t, models.LeadAssigned, lead.Status)
	assert.Equal(t, 0, h.store.assignmentsFor("lead-d", "c-3"))
}

func TestCascade_ReassignsToFreshContractors(t *testing.T) {
	h := newHarness(t, nil)
	h.store.addLead(renovationLead("lead-1"))
	for _, id := range []string{"c-1", "c-2", "c-3", "c-4", "c-5", "c-6"} {
		h.store.addContractor(strongContractor(id))
	}
	assignments := h.assign(t, "lead-1", "c-1", "c-2")

	_, err := h.engine.HandleContractorResponse(context.Background(), assignments[0].ID, models.ResponseDeclined, nil)
	require.NoError(t, err)
	res, err := h.engine.HandleContractorResponse(context.Background(), assignments[1].ID, models.ResponseDeclined, nil)
	require.NoError(t, err)

	cascade := res.Cascade
	require.NotNil(t, cascade)
	assert.Equal(t, models.CascadeReassigned, cascade.Outcome)
	assert.ElementsMatch(t, []string{"c-1", "c-2"}, cascade.ExcludedContractors)
	require.Len(t, cascade.NewAssignments, 3)
	for _, a := range cascade.NewAssignments {
		assert.NotContains(t, []string{"c-1", "c-2"}, a.ContractorID)
		assert.Nil(t, a.Response)
	}
	assert.Equal(t, models.LeadAssigned, cascade.LeadStatus)
	assert.Contains(t, h.notifier.events(), models.EventLeadReassigned)
}

func TestCascade_ExhaustedRevertsToPending(t *testing.T) {
	h := newHarness(t, nil)
	h.store.addLead(renovationLead("lead-e"))
	h.store.addContractor(strongContractor("c-1"))
	assignments := h.assign(t, "lead-e", "c-1")

	res, err := h.engine.HandleContractorResponse(context.Background(), assignments[0].ID, models.ResponseDeclined, nil)
	require.NoError(t, err)
	require.NotNil(t, res.Cascade)
	assert.Equal(t, models.CascadeExhausted, res.Cascade.Outcome)
	assert.Equal(t, models.LeadPending, res.Cascade.LeadStatus)

	lead, _ := h.store.FindLead(context.Background(), "lead-e")
	assert.Equal(t, models.LeadPending, lead.Status)
	assert.Contains(t, h.notifier.events(), models.EventManualAssignmentNeeded)

	queue, err := h.engine.GetLeadQueue(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.True(t, queue[0].NeedsManualAssignment)
	assert.Equal(t, 1, queue[0].DeclinedCount)
}

func TestCascade_RerunAfterExhaustionDoesNotRenotify(t *testing.T) {
	h := newHarness(t, nil)
	h.store.addLead(renovationLead("lead-1"))
	h.store.addContractor(strongContractor("c-1"))
	assignments := h.assign(t, "lead-1", "c-1")
	_, err := h.engine.HandleContractorResponse(context.Background(), assignments[0].ID, models.ResponseDeclined, nil)
	require.NoError(t, err)

	before := len(h.notifier.sent)
	res, err := h.engine.ReassignLead(context.Background(), "lead-1")
	require.NoError(t, err)
	assert.Equal(t, models.CascadeExhausted, res.Outcome)
	assert.Equal(t, models.LeadPending, res.LeadStatus)
	assert.Len(t, h.notifier.sent, before)

	_, err = h.engine.ReassignLead(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCascade_RerunWithNewContractorReassignsLead(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	h.store.addLead(renovationLead("lead-1"))
	h.store.addContractor(strongContractor("c-1"))
	first := h.assign(t, "lead-1", "c-1")

	res, err := h.engine.HandleContractorResponse(ctx, first[0].ID, models.ResponseDeclined, nil)
	require.NoError(t, err)
	require.Equal(t, models.CascadeExhausted, res.Cascade.Outcome)

	h.store.addContractor(strongContractor("c-2"))
	rerun, err := h.engine.ReassignLead(ctx, "lead-1")
	require.NoError(t, err)
	require.Equal(t, models.CascadeReassigned, rerun.Outcome)
	assert.Equal(t, models.LeadAssigned, rerun.LeadStatus)
	require.Len(t, rerun.NewAssignments, 1)
	assert.Equal(t, "c-2", rerun.NewAssignments[0].ContractorID)

	lead, err := h.store.FindLead(ctx, "lead-1")
	require.NoError(t, err)
	assert.Equal(t, models.LeadAssigned, lead.Status)

	countManual := func() int {
		n := 0
		for _, ev := range h.notifier.events() {
			if ev == models.EventManualAssignmentNeeded {
				n++
			}
		}
		return n
	}
	before := countManual()

	res, err = h.engine.HandleContractorResponse(ctx, rerun.NewAssignments[0].ID, models.ResponseDeclined, nil)
	require.NoError(t, err)
	assert.Equal(t, models.CascadeExhausted, res.Cascade.Outcome)
	assert.Equal(t, models.LeadPending, res.Cascade.LeadStatus)
	assert.Equal(t, before+1, countManual())
}

func TestCascade_LockHeldSkips(t *testing.T) {
	h := newHarness(t, heldLocker{})
	h.store.addLead(renovationLead("lead-1"))
	h.store.addContractor(strongContractor("c-1"))
	h.store.addContractor(strongContractor("c-2"))
	assignments := h.assign(t, "lead-1", "c-1")

	res, err := h.engine.HandleContractorResponse(context.Background(), assignments[0].ID, models.ResponseDeclined, nil)
	require.NoError(t, err)
	assert.Equal(t, models.CascadeSkippedLocked, res.Cascade.Outcome)
	assert.Equal(t, 0, h.store.assignmentsFor("lead-1", "c-2"))
}

func TestCascade_LockFailureKeepsResponse(t *testing.T) {
	h := newHarness(t, brokenLocker{err: apperrors.NewCascadeLockFailedError("lead-1", errors.New("redis down"))})
	h.store.addLead(renovationLead("lead-1"))
	h.store.addContractor(strongContractor("c-1"))
	assignments := h.assign(t, "lead-1", "c-1")

	res, err := h.engine.HandleContractorResponse(context.Background(), assignments[0].ID, models.ResponseDeclined, nil)
	require.NoError(t, err)
	assert.True(t, res.Assignment.IsDeclined())
	assert.Equal(t, models.CascadeFailed, res.Cascade.Outcome)
	assert.Contains(t, res.Cascade.Error, "redis down")

	lead, _ := h.store.FindLead(context.Background(), "lead-1")
	assert.Equal(t, models.LeadAssigned, lead.Status)
}

func TestCascade_ConcurrentDeclinesReassignOnce(t *testing.T) {
	h := newHarness(t, NewLocalCascadeLocker())
	h.store.addLead(renovationLead("lead-1"))
	for _, id := range []string{"c-1", "c-2", "c-3", "c-4"} {
		h.store.addContractor(strongContractor(id))
	}
	assignments := h.assign(t, "lead-1", "c-1", "c-2")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		outcomes []models.CascadeOutcome
	)
	for _, a := range assignments {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			res, err := h.engine.HandleContractorResponse(context.Background(), id, models.ResponseDeclined, nil)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			outcomes = append(outcomes, res.Cascade.Outcome)
			mu.Unlock()
		}(a.ID)
	}
	wg.Wait()

	reassigned := 0
	for _, o := range outcomes {
		if o == models.CascadeReassigned {
			reassigned++
		}
	}
	assert.Equal(t, 1, reassigned, "outcomes: %v", outcomes)
	assert.Equal(t, 1, h.store.assignmentsFor("lead-1", "c-3"))
	assert.Equal(t, 1, h.store.assignmentsFor("lead-1", "c-4"))

	count := 0
	for _, e := range h.notifier.events() {
		if e == models.EventLeadReassigned {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestNotifierFailureDoesNotFailOperation(t *testing.T) {
	h := newHarness(t, nil)
	h.notifier.err = errors.New("ses throttled")
	h.store.addLead(renovationLead("lead-1"))
	h.store.addContractor(strongContractor("c-1"))

	res, err := h.engine.OverrideMatch(context.Background(), "lead-1", []string{"c-1"}, "vip")
	require.NoError(t, err)
	assert.Len(t, res.Assignments, 1)
	assert.NotEmpty(t, h.notifier.sent[0].ID)
}

func TestStalledNotifierDoesNotConsumeJobDeadline(t *testing.T) {
	store := newMemStore()
	store.honorCtx = true
	store.addLead(renovationLead("lead-1"))
	store.addContractor(strongContractor("c-1"))
	store.addContractor(weakContractor("c-2"))
	notifier := &stallingNotifier{}
	engine := NewEngine(store, store, store, notifier, nil, logger.NewTestLogger(t), Options{
		NotifyTimeout: 20 * time.Millisecond,
		Now:           func() time.Time { return testNow },
	})

	assigned, err := engine.AssignContractors(context.Background(), "lead-1", []string{"c-1"})
	require.NoError(t, err)

	jobCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := engine.HandleContractorResponse(jobCtx, assigned.Assignments[0].ID, models.ResponseDeclined, nil)
	require.NoError(t, err)
	require.NotNil(t, res.Cascade)
	assert.Equal(t, models.CascadeReassigned, res.Cascade.Outcome, res.Cascade.Error)
	assert.NoError(t, jobCtx.Err())

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	// assign, decline, then the new offer and the coordinator summary
	assert.Equal(t, 4, notifier.calls)
}

func TestCheckContractorAvailability(t *testing.T) {
	h := newHarness(t, nil)
	c := strongContractor("c-1")
	c.CurrentJobs = 2
	c.MaxConcurrentJobs = 4
	h.store.addContractor(c)
	h.store.slots["c-1"] = []models.AvailabilitySlot{{DayOfWeek: 1, StartTime: "08:00", EndTime: "17:00", IsActive: true}}

	snap, err := h.engine.CheckContractorAvailability(context.Background(), "c-1")
	require.NoError(t, err)
	assert.True(t, snap.IsAvailable)
	assert.Equal(t, 2, snap.CurrentJobs)
	assert.Equal(t, 4, snap.MaxJobs)
	assert.Equal(t, 50.0, snap.UtilizationRate)
	assert.Len(t, snap.WeeklyAvailability, 1)

	flagged := strongContractor("c-off")
	flagged.IsAvailable = false
	h.store.addContractor(flagged)
	snap, err = h.engine.CheckContractorAvailability(context.Background(), "c-off")
	require.NoError(t, err)
	assert.False(t, snap.IsAvailable)
	assert.NotNil(t, snap.WeeklyAvailability)

	_, err = h.engine.CheckContractorAvailability(context.Background(), "ghost")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeContractorNotFound))
}

func TestGetContractorWorkload(t *testing.T) {
	h := newHarness(t, nil)
	full := strongContractor("c-1")
	full.CurrentJobs = 5
	h.store.addContractor(full)
	h.store.milestones["c-1"] = 7

	zero := strongContractor("c-zero")
	zero.MaxConcurrentJobs = 0
	zero.CurrentJobs = 0
	h.store.addContractor(zero)

	w, err := h.engine.GetContractorWorkload(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, 5, w.ActiveJobs)
	assert.Equal(t, 100.0, w.UtilizationRate)
	assert.Equal(t, 7, w.PendingMilestones)
	assert.False(t, w.IsAvailable)

	w, err = h.engine.GetContractorWorkload(context.Background(), "c-zero")
	require.NoError(t, err)
	assert.Equal(t, 100.0, w.UtilizationRate)
	assert.False(t, w.IsAvailable)

	_, err = h.engine.GetContractorWorkload(context.Background(), "ghost")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGetLeadQueue(t *testing.T) {
	h := newHarness(t, nil)

	untouched := renovationLead("lead-new")
	untouched.Urgency = models.UrgencyLow
	untouched.CreatedAt = testNow.Add(-3 * time.Hour)
	h.store.addLead(untouched)

	urgent := renovationLead("lead-urgent")
	urgent.Urgency = models.UrgencyHigh
	h.store.addLead(urgent)

	accepted := renovationLead("lead-done")
	h.store.addLead(accepted)

	h.store.addContractor(strongContractor("c-1"))
	h.store.addContractor(strongContractor("c-2"))
	urgentOffers := h.assign(t, "lead-urgent", "c-1", "c-2")
	doneOffers := h.assign(t, "lead-done", "c-1")

	_, err := h.engine.HandleContractorResponse(context.Background(), urgentOffers[0].ID, models.ResponseDeclined, nil)
	require.NoError(t, err)
	_, err = h.engine.HandleContractorResponse(context.Background(), doneOffers[0].ID, models.ResponseAccepted, nil)
	require.NoError(t, err)

	queue, err := h.engine.GetLeadQueue(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, queue, 2)

	assert.Equal(t, "lead-urgent", queue[0].Lead.ID)
	assert.Equal(t, 1, queue[0].DeclinedCount)
	assert.False(t, queue[0].NeedsManualAssignment)
	assert.Len(t, queue[0].Assignments, 2)

	assert.Equal(t, "lead-new", queue[1].Lead.ID)
	assert.True(t, queue[1].NeedsManualAssignment)
	assert.NotNil(t, queue[1].Assignments)
}

func TestGetLeadsByContractor(t *testing.T) {
	h := newHarness(t, nil)
	h.store.addLead(renovationLead("lead-1"))
	h.store.addLead(renovationLead("lead-2"))
	h.store.addContractor(strongContractor("c-1"))
	h.store.addContractor(strongContractor("c-2"))
	h.assign(t, "lead-1", "c-1")
	h.assign(t, "lead-2", "c-1")

	leads, err := h.engine.GetLeadsByContractor(context.Background(), "c-1")
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "lead-2", leads[0].Lead.ID)

	none, err := h.engine.GetLeadsByContractor(context.Background(), "c-2")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	_, err = h.engine.GetLeadsByContractor(context.Background(), "ghost")
	assert.True(t, apperrors.IsNotFound(err))
}
