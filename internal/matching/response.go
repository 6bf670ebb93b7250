// internal/matching/response.go
package matching

import (
	"context"
	"fmt"

	apperrors "matching-workers/internal/common/errors"
	"matching-workers/internal/common/metrics"
	"matching-workers/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// HandleContractorResponse records a contractor's answer to an assignment.
// A response is accepted at most once per assignment. Accepting does not
// touch sibling assignments for the same lead. Declining runs the
// reassignment cascade; a cascade failure is reported in the result and does
// not undo the recorded response.
func (e *Engine) HandleContractorResponse(ctx context.Context, assignmentID string, response models.AssignmentResponse, declineReason *string) (result *models.ResponseResult, err error) {
	ctx, span := e.tracer.Start(ctx, "matching.HandleContractorResponse", trace.WithAttributes(
		attribute.String("assignment.id", assignmentID),
		attribute.String("assignment.response", string(response)),
	))
	defer func() { endSpan(span, err) }()

	if !response.Submittable() {
		return nil, apperrors.NewInvalidInputError(fmt.Sprintf("response must be %s or %s", models.ResponseAccepted, models.ResponseDeclined))
	}
	if response != models.ResponseDeclined {
		declineReason = nil
	}

	assignment, err := e.ledger.RecordResponse(ctx, assignmentID, response, declineReason, e.now())
	if err != nil {
		if apperrors.HasCode(err, apperrors.ErrCodeAlreadyResponded) {
			metrics.ContractorResponses.WithLabelValues("REJECTED").Inc()
		}
		return nil, err
	}
	metrics.ContractorResponses.WithLabelValues(string(response)).Inc()
	span.SetAttributes(attribute.String("lead.id", assignment.LeadID))

	log := e.logger.WithFields(map[string]interface{}{
		"assignmentId": assignment.ID,
		"leadId":       assignment.LeadID,
		"contractorId": assignment.ContractorID,
	})
	log.Info("contractor responded", map[string]interface{}{"response": string(response)})

	result = &models.ResponseResult{Assignment: *assignment}

	if response == models.ResponseAccepted {
		e.notifyAccepted(ctx, assignment)
		return result, nil
	}

	payload := map[string]interface{}{"contractorId": assignment.ContractorID}
	if declineReason != nil {
		payload["declineReason"] = *declineReason
	}
	e.notify(ctx, models.Notification{
		Event:         models.EventLeadDeclined,
		RecipientType: models.RecipientCoordinator,
		LeadID:        assignment.LeadID,
		Payload:       payload,
	})

	cascade, cerr := e.runCascade(ctx, assignment.LeadID)
	if cerr != nil {
		log.Error("reassignment cascade failed", map[string]interface{}{"error": cerr.Error()})
		metrics.Cascades.WithLabelValues("failed").Inc()
		cascade = &models.CascadeResult{Outcome: models.CascadeFailed, Error: describe(cerr)}
	}
	result.Cascade = cascade
	return result, nil
}

func (e *Engine) notifyAccepted(ctx context.Context, assignment *models.LeadAssignment) {
	lead, err := e.leads.FindLead(ctx, assignment.LeadID)
	if err != nil {
		e.logger.Warn("customer not notified of acceptance", map[string]interface{}{
			"leadId": assignment.LeadID,
			"error":  err.Error(),
		})
		return
	}
	e.notify(ctx, models.Notification{
		Event:         models.EventLeadAccepted,
		RecipientID:   lead.CustomerID,
		RecipientType: models.RecipientCustomer,
		LeadID:        lead.ID,
		Urgency:       lead.Urgency,
		Payload:       map[string]interface{}{"contractorId": assignment.ContractorID},
	})
}

// ReassignLead runs the reassignment cascade for a lead on demand. It does
// nothing unless every assignment of the lead is declined.
func (e *Engine) ReassignLead(ctx context.Context, leadID string) (result *models.CascadeResult, err error) {
	ctx, span := e.tracer.Start(ctx, "matching.ReassignLead", trace.WithAttributes(attribute.String("lead.id", leadID)))
	defer func() { endSpan(span, err) }()

	if _, err := e.leads.FindLead(ctx, leadID); err != nil {
		return nil, err
	}
	return e.runCascade(ctx, leadID)
}

func (e *Engine) runCascade(ctx context.Context, leadID string) (result *models.CascadeResult, err error) {
	ctx, span := e.tracer.Start(ctx, "matching.Cascade", trace.WithAttributes(attribute.String("lead.id", leadID)))
	defer func() {
		if result != nil {
			span.SetAttributes(attribute.String("cascade.outcome", string(result.Outcome)))
			metrics.Cascades.WithLabelValues(outcomeLabel(result.Outcome)).Inc()
		}
		endSpan(span, err)
	}()

	assignments, err := e.ledger.FindAssignmentsForLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if !models.AllDeclined(assignments) {
		return &models.CascadeResult{Outcome: models.CascadeNotTriggered}, nil
	}

	release, acquired, err := e.locker.TryLock(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if !acquired {
		e.logger.Info("cascade already running for lead", map[string]interface{}{"leadId": leadID})
		return &models.CascadeResult{Outcome: models.CascadeSkippedLocked}, nil
	}
	defer func() {
		if rerr := release(context.WithoutCancel(ctx)); rerr != nil {
			e.logger.Warn("cascade lock release failed", map[string]interface{}{
				"leadId": leadID,
				"error":  rerr.Error(),
			})
		}
	}()

	// Another cascade may have finished between the first read and the lock.
	assignments, err = e.ledger.FindAssignmentsForLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if !models.AllDeclined(assignments) {
		return &models.CascadeResult{Outcome: models.CascadeNotTriggered}, nil
	}

	exclude := make([]string, 0, len(assignments))
	for _, a := range assignments {
		exclude = append(exclude, a.ContractorID)
	}

	lead, err := e.leads.FindLead(ctx, leadID)
	if err != nil {
		return nil, err
	}
	matches, err := e.matchLead(ctx, lead, e.defaultMaxMatches, exclude)
	if err != nil {
		return nil, err
	}

	if len(matches.Matches) > 0 {
		return e.reassign(ctx, lead, matches, exclude)
	}
	return e.exhaust(ctx, lead, exclude)
}

func (e *Engine) reassign(ctx context.Context, lead *models.Lead, matches *models.MatchResult, exclude []string) (*models.CascadeResult, error) {
	ids := matches.ContractorIDs()
	assignments, err := e.upsertAll(ctx, sourceCascade, lead.ID, ids)
	if err != nil {
		return nil, err
	}

	// A rerun after exhaustion finds the lead PENDING; new offers make it
	// ASSIGNED again so a later exhaustion can swap it back.
	status := lead.Status
	if status == models.LeadPending {
		swapped, err := e.leads.CompareAndSetLeadStatus(ctx, lead.ID, models.LeadPending, models.LeadAssigned)
		if err != nil {
			return nil, err
		}
		if swapped {
			status = models.LeadAssigned
		} else {
			current, err := e.leads.FindLead(ctx, lead.ID)
			if err != nil {
				return nil, err
			}
			status = current.Status
		}
	}

	for _, m := range matches.Matches {
		e.notify(ctx, models.Notification{
			Event:         models.EventLeadAssigned,
			RecipientID:   m.ContractorID,
			RecipientType: models.RecipientContractor,
			LeadID:        lead.ID,
			Urgency:       lead.Urgency,
			Payload: map[string]interface{}{
				"serviceType": string(lead.ServiceType),
				"province":    string(lead.Location.Province),
				"score":       m.Score,
				"source":      sourceCascade,
			},
		})
	}
	e.notify(ctx, models.Notification{
		Event:         models.EventLeadReassigned,
		RecipientType: models.RecipientCoordinator,
		LeadID:        lead.ID,
		Urgency:       lead.Urgency,
		Payload: map[string]interface{}{
			"contractors": ids,
			"excluded":    exclude,
			"confidence":  matches.Confidence,
		},
	})

	e.logger.Info("lead reassigned after declines", map[string]interface{}{
		"leadId":      lead.ID,
		"excluded":    exclude,
		"contractors": ids,
		"leadStatus":  string(status),
	})

	return &models.CascadeResult{
		Outcome:             models.CascadeReassigned,
		ExcludedContractors: exclude,
		NewAssignments:      assignments,
		LeadStatus:          status,
	}, nil
}

func (e *Engine) exhaust(ctx context.Context, lead *models.Lead, exclude []string) (*models.CascadeResult, error) {
	swapped, err := e.leads.CompareAndSetLeadStatus(ctx, lead.ID, models.LeadAssigned, models.LeadPending)
	if err != nil {
		return nil, err
	}

	status := lead.Status
	if swapped {
		status = models.LeadPending
		e.notify(ctx, models.Notification{
			Event:         models.EventManualAssignmentNeeded,
			RecipientType: models.RecipientCoordinator,
			LeadID:        lead.ID,
			Urgency:       lead.Urgency,
			Payload: map[string]interface{}{
				"excluded":    exclude,
				"serviceType": string(lead.ServiceType),
				"province":    string(lead.Location.Province),
			},
		})
	}

	e.logger.Warn("no contractors left for lead", map[string]interface{}{
		"leadId":     lead.ID,
		"excluded":   exclude,
		"leadStatus": string(status),
		"reverted":   swapped,
	})

	return &models.CascadeResult{
		Outcome:             models.CascadeExhausted,
		ExcludedContractors: exclude,
		LeadStatus:          status,
	}, nil
}

func describe(err error) string {
	if std, ok := apperrors.AsStandardError(err); ok && std.Details != "" {
		return std.Message + ": " + std.Details
	}
	return err.Error()
}

func outcomeLabel(o models.CascadeOutcome) string {
	switch o {
	case models.CascadeReassigned:
		return "reassigned"
	case models.CascadeExhausted:
		return "exhausted"
	case models.CascadeSkippedLocked:
		return "skipped_locked"
	case models.CascadeFailed:
		return "failed"
	default:
		return "not_triggered"
	}
}
