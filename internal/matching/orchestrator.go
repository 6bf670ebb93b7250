// internal/matching/orchestrator.go
package matching

import (
	"context"
	"fmt"
	"math"
	"sort"

	apperrors "matching-workers/internal/common/errors"
	"matching-workers/internal/common/metrics"
	"matching-workers/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	sourceOverride = "override"
	sourceAssign   = "assign"
	sourceCascade  = "cascade"
)

// ResolveMaxMatches maps 0 to the default and rejects values outside 1..limit.
func (e *Engine) ResolveMaxMatches(n int) (int, error) {
	if n == 0 {
		return e.defaultMaxMatches, nil
	}
	if n < 1 || n > e.maxMatchesLimit {
		return 0, apperrors.NewInvalidInputError(fmt.Sprintf("maxMatches must be between 1 and %d", e.maxMatchesLimit))
	}
	return n, nil
}

// GenerateMatches ranks eligible contractors for a lead. It persists nothing.
// Zero eligible contractors yields an empty result with confidence 0.
func (e *Engine) GenerateMatches(ctx context.Context, leadID string, maxMatches int, exclude []string) (result *models.MatchResult, err error) {
	ctx, span := e.tracer.Start(ctx, "matching.GenerateMatches", trace.WithAttributes(
		attribute.String("lead.id", leadID),
		attribute.Int("match.max", maxMatches),
		attribute.Int("match.excluded", len(exclude)),
	))
	defer func() { endSpan(span, err) }()

	limit, err := e.ResolveMaxMatches(maxMatches)
	if err != nil {
		return nil, err
	}

	lead, err := e.leads.FindLead(ctx, leadID)
	if err != nil {
		return nil, err
	}

	result, err = e.matchLead(ctx, lead, limit, exclude)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("match.candidates", result.TotalCandidates),
		attribute.Int("match.confidence", result.Confidence),
	)
	return result, nil
}

func (e *Engine) matchLead(ctx context.Context, lead *models.Lead, limit int, exclude []string) (*models.MatchResult, error) {
	criteria := lead.Criteria(exclude)

	candidates, err := e.contractors.FindContractorsByCriteria(ctx, criteria)
	if err != nil {
		return nil, err
	}
	eligible := FilterEligible(candidates, criteria)

	result := &models.MatchResult{
		LeadID:          lead.ID,
		Matches:         []models.ContractorMatch{},
		TotalCandidates: len(eligible),
		GeneratedAt:     e.now(),
	}

	if len(eligible) > 0 {
		matches, err := e.scorer.ScoreAll(ctx, eligible, criteria)
		if err != nil {
			return nil, err
		}
		// Equal scores keep directory order.
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].Score > matches[j].Score
		})
		if len(matches) > limit {
			matches = matches[:limit]
		}
		result.Matches = matches
	}
	result.Confidence = Confidence(result.Matches, result.TotalCandidates)

	outcome := "matched"
	if len(result.Matches) == 0 {
		outcome = "empty"
	}
	metrics.MatchesGenerated.WithLabelValues(outcome).Inc()
	metrics.MatchConfidence.Observe(float64(result.Confidence))

	e.logger.Info("matches generated", map[string]interface{}{
		"leadId":          lead.ID,
		"totalCandidates": result.TotalCandidates,
		"returned":        len(result.Matches),
		"confidence":      result.Confidence,
		"excluded":        len(exclude),
	})
	return result, nil
}

// Confidence blends the top score with the size of the eligible pool, which
// counts fully from 10 candidates.
func Confidence(matches []models.ContractorMatch, totalCandidates int) int {
	if len(matches) == 0 {
		return 0
	}
	pool := math.Min(float64(totalCandidates)/10, 1)
	return int(math.Round((matches[0].Score*0.7 + pool*0.3) * 100))
}

// OverrideMatch assigns the coordinator's chosen contractors, bypassing scoring.
func (e *Engine) OverrideMatch(ctx context.Context, leadID string, contractorIDs []string, reason string) (*models.AssignmentResult, error) {
	return e.assign(ctx, sourceOverride, leadID, contractorIDs, reason)
}

// AssignContractors is OverrideMatch without an audit reason.
func (e *Engine) AssignContractors(ctx context.Context, leadID string, contractorIDs []string) (*models.AssignmentResult, error) {
	return e.assign(ctx, sourceAssign, leadID, contractorIDs, "")
}

func (e *Engine) assign(ctx context.Context, source, leadID string, contractorIDs []string, reason string) (result *models.AssignmentResult, err error) {
	ctx, span := e.tracer.Start(ctx, "matching.Assign", trace.WithAttributes(
		attribute.String("lead.id", leadID),
		attribute.String("assign.source", source),
		attribute.Int("assign.contractors", len(contractorIDs)),
	))
	defer func() { endSpan(span, err) }()

	ids := dedupe(contractorIDs)
	if len(ids) == 0 {
		return nil, apperrors.NewInvalidInputError("contractorIds must not be empty")
	}

	lead, err := e.leads.FindLead(ctx, leadID)
	if err != nil {
		return nil, err
	}

	found, err := e.contractors.FindContractors(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Contractor, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}
	var unavailable []string
	for _, id := range ids {
		c, ok := byID[id]
		if !ok || !c.Assignable() {
			unavailable = append(unavailable, id)
		}
	}
	if len(unavailable) > 0 {
		return nil, apperrors.NewContractorsUnavailableError(unavailable)
	}

	assignments, err := e.upsertAll(ctx, source, lead.ID, ids)
	if err != nil {
		return nil, err
	}

	if err := e.leads.UpdateLeadStatus(ctx, lead.ID, models.LeadAssigned); err != nil {
		return nil, err
	}
	lead.Status = models.LeadAssigned
	lead.UpdatedAt = e.now()

	for _, id := range ids {
		e.notify(ctx, models.Notification{
			Event:         models.EventLeadAssigned,
			RecipientID:   id,
			RecipientType: models.RecipientContractor,
			LeadID:        lead.ID,
			Urgency:       lead.Urgency,
			Payload: map[string]interface{}{
				"serviceType": string(lead.ServiceType),
				"province":    string(lead.Location.Province),
				"source":      source,
			},
		})
	}

	fields := map[string]interface{}{
		"leadId":      lead.ID,
		"source":      source,
		"contractors": ids,
	}
	if reason != "" {
		fields["overrideReason"] = reason
	}
	e.logger.Info("contractors assigned", fields)

	return &models.AssignmentResult{
		Lead:           *lead,
		Assignments:    assignments,
		OverrideReason: reason,
	}, nil
}

func (e *Engine) upsertAll(ctx context.Context, source, leadID string, contractorIDs []string) ([]models.LeadAssignment, error) {
	out := make([]models.LeadAssignment, 0, len(contractorIDs))
	for _, id := range contractorIDs {
		a, err := e.ledger.UpsertAssignment(ctx, leadID, id)
		if err != nil {
			return nil, err
		}
		metrics.AssignmentsCreated.WithLabelValues(source).Inc()
		out = append(out, *a)
	}
	return out, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
