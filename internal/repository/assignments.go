// internal/repository/assignments.go
package repository

import (
	"context"
	"database/sql"
	"time"

	apperrors "matching-workers/internal/common/errors"
	"matching-workers/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// AssignmentLedger persists lead assignments. Uniqueness of (lead_id,
// contractor_id) and the single-response rule are enforced in SQL.
type AssignmentLedger struct {
	db *sql.DB
}

func NewAssignmentLedger(db *sql.DB) *AssignmentLedger {
	return &AssignmentLedger{db: db}
}

// UpsertAssignment creates the offer or returns the existing row untouched.
func (l *AssignmentLedger) UpsertAssignment(ctx context.Context, leadID, contractorID string) (*models.LeadAssignment, error) {
	row := l.db.QueryRowContext(ctx, `
		INSERT INTO lead_assignments AS a (id, lead_id, contractor_id, assigned_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (lead_id, contractor_id) DO UPDATE SET lead_id = EXCLUDED.lead_id
		RETURNING `+assignmentColumns,
		uuid.New().String(), leadID, contractorID, nowUTC())

	a, err := scanAssignment(row)
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("upsert assignment", err)
	}
	return a, nil
}

func (l *AssignmentLedger) FindAssignment(ctx context.Context, id string) (*models.LeadAssignment, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT `+assignmentColumns+`
		FROM lead_assignments a
		WHERE a.id = $1`, id)

	a, err := scanAssignment(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NewAssignmentNotFoundError(id)
		}
		return nil, apperrors.NewDatabaseQueryFailedError("find assignment", err)
	}
	return a, nil
}

func (l *AssignmentLedger) FindAssignmentsForLead(ctx context.Context, leadID string) ([]models.LeadAssignment, error) {
	return l.queryAssignments(ctx, "find assignments for lead", `
		SELECT `+assignmentColumns+`
		FROM lead_assignments a
		WHERE a.lead_id = $1
		ORDER BY a.assigned_at ASC`, leadID)
}

// FindAssignmentsForLeads batches the lookup for the coordinator queue.
func (l *AssignmentLedger) FindAssignmentsForLeads(ctx context.Context, leadIDs []string) (map[string][]models.LeadAssignment, error) {
	out := make(map[string][]models.LeadAssignment, len(leadIDs))
	if len(leadIDs) == 0 {
		return out, nil
	}

	list, err := l.queryAssignments(ctx, "find assignments for leads", `
		SELECT `+assignmentColumns+`
		FROM lead_assignments a
		WHERE a.lead_id = ANY($1)
		ORDER BY a.assigned_at ASC`, pq.Array(leadIDs))
	if err != nil {
		return nil, err
	}
	for _, a := range list {
		out[a.LeadID] = append(out[a.LeadID], a)
	}
	return out, nil
}

// RecordResponse writes the contractor's answer only if none is recorded yet.
// The losing side of a concurrent double response gets ALREADY_RESPONDED.
func (l *AssignmentLedger) RecordResponse(ctx context.Context, id string, response models.AssignmentResponse, declineReason *string, at time.Time) (*models.LeadAssignment, error) {
	row := l.db.QueryRowContext(ctx, `
		UPDATE lead_assignments AS a
		SET response = $2, decline_reason = $3, responded_at = $4
		WHERE a.id = $1 AND a.response IS NULL
		RETURNING `+assignmentColumns,
		id, response, nullableString(declineReason), at)

	a, err := scanAssignment(row)
	if err == nil {
		return a, nil
	}
	if err != sql.ErrNoRows {
		return nil, apperrors.NewDatabaseQueryFailedError("record response", err)
	}

	existing, findErr := l.FindAssignment(ctx, id)
	if findErr != nil {
		return nil, findErr
	}
	current := "UNKNOWN"
	if existing.Response != nil {
		current = string(*existing.Response)
	}
	return nil, apperrors.NewAlreadyRespondedError(id, current)
}

// FindLeadsForContractor lists every lead offered to the contractor, newest offer first.
func (l *AssignmentLedger) FindLeadsForContractor(ctx context.Context, contractorID string) ([]models.ContractorLead, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT `+leadColumns+`, `+assignmentColumns+`
		FROM lead_assignments a
		JOIN leads l ON l.id = a.lead_id
		WHERE a.contractor_id = $1
		ORDER BY a.assigned_at DESC`, contractorID)
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("find leads for contractor", err)
	}
	defer rows.Close()

	var out []models.ContractorLead
	for rows.Next() {
		var (
			item                 models.ContractorLead
			budgetMin, budgetMax sql.NullFloat64
			nulls                assignmentNulls
		)
		dest := append(leadDest(&item.Lead, &budgetMin, &budgetMax), assignmentDest(&item.Assignment, &nulls)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, apperrors.NewDatabaseQueryFailedError("scan contractor lead", err)
		}
		finishLead(&item.Lead, budgetMin, budgetMax)
		finishAssignment(&item.Assignment, nulls)
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("iterate contractor leads", err)
	}
	return out, nil
}

func (l *AssignmentLedger) queryAssignments(ctx context.Context, op, query string, args ...interface{}) ([]models.LeadAssignment, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError(op, err)
	}
	defer rows.Close()

	var out []models.LeadAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, apperrors.NewDatabaseQueryFailedError(op, err)
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError(op, err)
	}
	return out, nil
}
