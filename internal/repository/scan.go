// internal/repository/scan.go
package repository

import (
	"database/sql"
	"time"

	"matching-workers/internal/models"

	"github.com/lib/pq"
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

const leadColumns = `l.id, l.customer_id, l.service_type, l.description, l.urgency, l.status,
	l.address, l.city, l.province, l.budget_min, l.budget_max, l.created_at, l.updated_at`

const assignmentColumns = `a.id, a.lead_id, a.contractor_id, a.assigned_at, a.response, a.decline_reason, a.responded_at`

const contractorColumns = `c.id, c.user_id, c.business_name, c.services, c.service_areas, c.experience,
	c.average_rating, c.total_reviews, c.success_rate, c.response_time,
	c.is_active, c.is_approved, c.is_available, c.max_concurrent_jobs,
	(SELECT COUNT(*) FROM contractor_jobs j
	  WHERE j.contractor_id = c.id AND j.status IN ('PENDING', 'IN_PROGRESS')) AS current_jobs`

func leadDest(l *models.Lead, budgetMin, budgetMax *sql.NullFloat64) []interface{} {
	return []interface{}{
		&l.ID, &l.CustomerID, &l.ServiceType, &l.Description, &l.Urgency, &l.Status,
		&l.Location.Address, &l.Location.City, &l.Location.Province,
		budgetMin, budgetMax, &l.CreatedAt, &l.UpdatedAt,
	}
}

func finishLead(l *models.Lead, budgetMin, budgetMax sql.NullFloat64) {
	if budgetMin.Valid {
		v := budgetMin.Float64
		l.BudgetMin = &v
	}
	if budgetMax.Valid {
		v := budgetMax.Float64
		l.BudgetMax = &v
	}
}

func scanLead(row rowScanner) (*models.Lead, error) {
	var (
		l                    models.Lead
		budgetMin, budgetMax sql.NullFloat64
	)
	if err := row.Scan(leadDest(&l, &budgetMin, &budgetMax)...); err != nil {
		return nil, err
	}
	finishLead(&l, budgetMin, budgetMax)
	return &l, nil
}

type assignmentNulls struct {
	response    sql.NullString
	reason      sql.NullString
	respondedAt sql.NullTime
}

func assignmentDest(a *models.LeadAssignment, n *assignmentNulls) []interface{} {
	return []interface{}{
		&a.ID, &a.LeadID, &a.ContractorID, &a.AssignedAt,
		&n.response, &n.reason, &n.respondedAt,
	}
}

func finishAssignment(a *models.LeadAssignment, n assignmentNulls) {
	if n.response.Valid {
		r := models.AssignmentResponse(n.response.String)
		a.Response = &r
	}
	if n.reason.Valid {
		reason := n.reason.String
		a.DeclineReason = &reason
	}
	if n.respondedAt.Valid {
		at := n.respondedAt.Time
		a.RespondedAt = &at
	}
}

func scanAssignment(row rowScanner) (*models.LeadAssignment, error) {
	var (
		a models.LeadAssignment
		n assignmentNulls
	)
	if err := row.Scan(assignmentDest(&a, &n)...); err != nil {
		return nil, err
	}
	finishAssignment(&a, n)
	return &a, nil
}

func scanContractor(row rowScanner) (*models.Contractor, error) {
	var (
		c            models.Contractor
		services     []string
		serviceAreas []string
		userID       sql.NullString
	)
	err := row.Scan(
		&c.ID, &userID, &c.BusinessName, pq.Array(&services), pq.Array(&serviceAreas), &c.Experience,
		&c.AverageRating, &c.TotalReviews, &c.SuccessRate, &c.ResponseTime,
		&c.IsActive, &c.IsApproved, &c.IsAvailable, &c.MaxConcurrentJobs,
		&c.CurrentJobs,
	)
	if err != nil {
		return nil, err
	}

	c.UserID = userID.String
	c.Services = make([]models.ServiceType, 0, len(services))
	for _, s := range services {
		c.Services = append(c.Services, models.ServiceType(s))
	}
	c.ServiceAreas = make([]models.Province, 0, len(serviceAreas))
	for _, p := range serviceAreas {
		c.ServiceAreas = append(c.ServiceAreas, models.Province(p))
	}
	return &c, nil
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nowUTC() time.Time {
	return time.Now().UTC()
}
