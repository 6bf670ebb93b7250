// internal/repository/leads.go
package repository

import (
	"context"
	"database/sql"
	"fmt"

	apperrors "matching-workers/internal/common/errors"
	"matching-workers/internal/models"
)

// LeadStore reads leads and moves them through status transitions.
type LeadStore struct {
	db *sql.DB
}

func NewLeadStore(db *sql.DB) *LeadStore {
	return &LeadStore{db: db}
}

func (s *LeadStore) FindLead(ctx context.Context, id string) (*models.Lead, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+leadColumns+`
		FROM leads l
		WHERE l.id = $1`, id)

	lead, err := scanLead(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NewLeadNotFoundError(id)
		}
		return nil, apperrors.NewDatabaseQueryFailedError("find lead", err)
	}
	return lead, nil
}

func (s *LeadStore) UpdateLeadStatus(ctx context.Context, id string, status models.LeadStatus) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE leads SET status = $2, updated_at = $3
		WHERE id = $1`, id, status, nowUTC())
	if err != nil {
		return apperrors.NewDatabaseQueryFailedError("update lead status", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return apperrors.NewLeadNotFoundError(id)
	}
	return nil
}

// CompareAndSetLeadStatus moves the lead to next only if it is still in
// expected. It reports whether the transition happened.
func (s *LeadStore) CompareAndSetLeadStatus(ctx context.Context, id string, expected, next models.LeadStatus) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE leads SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2`, id, expected, next, nowUTC())
	if err != nil {
		return false, apperrors.NewDatabaseQueryFailedError("compare-and-set lead status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperrors.NewDatabaseQueryFailedError("compare-and-set lead status", err)
	}
	return n == 1, nil
}

// FindQueuedLeads returns leads needing coordinator attention: PENDING, or
// ASSIGNED with at least one declined offer. Most urgent first, then oldest.
func (s *LeadStore) FindQueuedLeads(ctx context.Context, limit int) ([]models.Lead, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+leadColumns+`
		FROM leads l
		WHERE l.status = 'PENDING'
		   OR (l.status = 'ASSIGNED' AND EXISTS (
				SELECT 1 FROM lead_assignments a
				WHERE a.lead_id = l.id AND a.response = 'DECLINED'))
		ORDER BY CASE l.urgency WHEN 'HIGH' THEN 3 WHEN 'MEDIUM' THEN 2 ELSE 1 END DESC,
		         l.created_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("find queued leads", err)
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, apperrors.NewDatabaseQueryFailedError("scan queued lead", err)
		}
		leads = append(leads, *lead)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("iterate queued leads", fmt.Errorf("rows: %w", err))
	}
	return leads, nil
}
