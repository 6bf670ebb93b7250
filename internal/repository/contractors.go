// internal/repository/contractors.go
package repository

import (
	"context"
	"database/sql"

	apperrors "matching-workers/internal/common/errors"
	"matching-workers/internal/models"

	"github.com/lib/pq"
)

// ContractorDirectory reads contractor profiles with their derived active job count.
type ContractorDirectory struct {
	db *sql.DB
}

func NewContractorDirectory(db *sql.DB) *ContractorDirectory {
	return &ContractorDirectory{db: db}
}

// FindContractorsByCriteria narrows by status flags, service, province and
// exclusions in SQL. Capacity is left to the caller's eligibility check.
func (d *ContractorDirectory) FindContractorsByCriteria(ctx context.Context, criteria models.MatchCriteria) ([]models.Contractor, error) {
	exclude := criteria.ExcludeContractorIDs
	if exclude == nil {
		exclude = []string{}
	}

	return d.query(ctx, "find contractors by criteria", `
		SELECT `+contractorColumns+`
		FROM contractors c
		WHERE c.is_active AND c.is_approved AND c.is_available
		  AND $1 = ANY(c.services)
		  AND $2 = ANY(c.service_areas)
		  AND NOT (c.id = ANY($3))
		ORDER BY c.id`,
		string(criteria.ServiceType), string(criteria.Province), pq.Array(exclude))
}

func (d *ContractorDirectory) FindContractor(ctx context.Context, id string) (*models.Contractor, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT `+contractorColumns+`
		FROM contractors c
		WHERE c.id = $1`, id)

	c, err := scanContractor(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NewContractorNotFoundError(id)
		}
		return nil, apperrors.NewDatabaseQueryFailedError("find contractor", err)
	}
	return c, nil
}

// FindContractors loads the given ids; missing ids are simply absent from the result.
func (d *ContractorDirectory) FindContractors(ctx context.Context, ids []string) ([]models.Contractor, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return d.query(ctx, "find contractors", `
		SELECT `+contractorColumns+`
		FROM contractors c
		WHERE c.id = ANY($1)
		ORDER BY c.id`, pq.Array(ids))
}

func (d *ContractorDirectory) FindAvailabilitySlots(ctx context.Context, contractorID string) ([]models.AvailabilitySlot, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT day_of_week, start_time, end_time, is_active
		FROM contractor_availability
		WHERE contractor_id = $1 AND is_active
		ORDER BY day_of_week, start_time`, contractorID)
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("find availability", err)
	}
	defer rows.Close()

	slots := []models.AvailabilitySlot{}
	for rows.Next() {
		var s models.AvailabilitySlot
		if err := rows.Scan(&s.DayOfWeek, &s.StartTime, &s.EndTime, &s.IsActive); err != nil {
			return nil, apperrors.NewDatabaseQueryFailedError("scan availability", err)
		}
		slots = append(slots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError("iterate availability", err)
	}
	return slots, nil
}

// CountPendingMilestones counts PENDING milestones across the contractor's active jobs.
func (d *ContractorDirectory) CountPendingMilestones(ctx context.Context, contractorID string) (int, error) {
	var n int
	err := d.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM milestones m
		JOIN contractor_jobs j ON j.id = m.job_id
		WHERE j.contractor_id = $1
		  AND j.status IN ('PENDING', 'IN_PROGRESS')
		  AND m.status = 'PENDING'`, contractorID).Scan(&n)
	if err != nil {
		return 0, apperrors.NewDatabaseQueryFailedError("count pending milestones", err)
	}
	return n, nil
}

func (d *ContractorDirectory) query(ctx context.Context, op, query string, args ...interface{}) ([]models.Contractor, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError(op, err)
	}
	defer rows.Close()

	var out []models.Contractor
	for rows.Next() {
		c, err := scanContractor(rows)
		if err != nil {
			return nil, apperrors.NewDatabaseQueryFailedError(op, err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewDatabaseQueryFailedError(op, err)
	}
	return out, nil
}
