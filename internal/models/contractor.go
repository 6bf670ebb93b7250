// internal/models/contractor.go
package models

type Contractor struct {
	ID                string        `json:"id"`
	UserID            string        `json:"userId"`
	BusinessName      string        `json:"businessName"`
	Services          []ServiceType `json:"services"`
	ServiceAreas      []Province    `json:"serviceAreas"`
	Experience        int           `json:"experience"` // years
	AverageRating     float64       `json:"averageRating"`
	TotalReviews      int           `json:"totalReviews"`
	SuccessRate       float64       `json:"successRate"`  // 0-100
	ResponseTime      int           `json:"responseTime"` // minutes, 0 when unknown
	IsActive          bool          `json:"isActive"`
	IsApproved        bool          `json:"isApproved"`
	IsAvailable       bool          `json:"isAvailable"`
	MaxConcurrentJobs int           `json:"maxConcurrentJobs"`
	// CurrentJobs is derived: jobs in PENDING or IN_PROGRESS.
	CurrentJobs int `json:"currentJobs"`
}

func (c *Contractor) Offers(s ServiceType) bool {
	for _, v := range c.Services {
		if v == s {
			return true
		}
	}
	return false
}

func (c *Contractor) Serves(p Province) bool {
	for _, v := range c.ServiceAreas {
		if v == p {
			return true
		}
	}
	return false
}

func (c *Contractor) HasCapacity() bool {
	return c.CurrentJobs < c.MaxConcurrentJobs
}

// Assignable is the override gate: active and approved, capacity not considered.
func (c *Contractor) Assignable() bool {
	return c.IsActive && c.IsApproved
}

// Utilization is CurrentJobs/MaxConcurrentJobs; zero capacity counts as saturated.
func (c *Contractor) Utilization() float64 {
	if c.MaxConcurrentJobs <= 0 {
		return 1
	}
	return float64(c.CurrentJobs) / float64(c.MaxConcurrentJobs)
}

func (c *Contractor) Snapshot() ContractorSnapshot {
	return ContractorSnapshot{
		ID:            c.ID,
		BusinessName:  c.BusinessName,
		AverageRating: c.AverageRating,
		TotalReviews:  c.TotalReviews,
		SuccessRate:   c.SuccessRate,
		ResponseTime:  c.ResponseTime,
		Experience:    c.Experience,
		Services:      c.Services,
		ServiceAreas:  c.ServiceAreas,
	}
}

// AvailabilitySlot is one weekly window; DayOfWeek 0 is Sunday.
type AvailabilitySlot struct {
	DayOfWeek int    `json:"dayOfWeek"`
	StartTime string `json:"startTime"` // HH:MM
	EndTime   string `json:"endTime"`
	IsActive  bool   `json:"isActive"`
}

type AvailabilitySnapshot struct {
	ContractorID       string             `json:"contractorId"`
	IsAvailable        bool               `json:"isAvailable"`
	CurrentJobs        int                `json:"currentJobs"`
	MaxJobs            int                `json:"maxJobs"`
	UtilizationRate    float64            `json:"utilizationRate"`
	WeeklyAvailability []AvailabilitySlot `json:"weeklyAvailability"`
}

type WorkloadSnapshot struct {
	ContractorID      string  `json:"contractorId"`
	ActiveJobs        int     `json:"activeJobs"`
	MaxJobs           int     `json:"maxJobs"`
	UtilizationRate   float64 `json:"utilizationRate"`
	PendingMilestones int     `json:"pendingMilestones"`
	IsAvailable       bool    `json:"isAvailable"`
}
