// internal/matching/scoring.go
package matching

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"matching-workers/internal/models"

	"golang.org/x/sync/errgroup"
)

// Weights is the contribution of each factor to the final score. The
// factors of DefaultWeights sum to 1.
type Weights struct {
	Rating       float64
	Experience   float64
	SuccessRate  float64
	ResponseTime float64
	Workload     float64
	Budget       float64
}

var DefaultWeights = Weights{
	Rating:       0.30,
	Experience:   0.15,
	SuccessRate:  0.25,
	ResponseTime: 0.10,
	Workload:     0.15,
	Budget:       0.05,
}

// Breakdown holds the normalized [0,1] factor scores for one contractor.
type Breakdown struct {
	Rating       float64
	Experience   float64
	SuccessRate  float64
	ResponseTime float64
	Workload     float64
	Budget       float64
}

func (w Weights) apply(b Breakdown) float64 {
	return b.Rating*w.Rating +
		b.Experience*w.Experience +
		b.SuccessRate*w.SuccessRate +
		b.ResponseTime*w.ResponseTime +
		b.Workload*w.Workload +
		b.Budget*w.Budget
}

// reviewVolumeCap is the review count at which a rating is fully trusted.
const reviewVolumeCap = 20

func ratingScore(avg float64, reviews int) float64 {
	if reviews == 0 {
		return 0.5
	}
	volume := math.Min(float64(reviews)/reviewVolumeCap, 1)
	return (avg / 5) * (0.7 + 0.3*volume)
}

func experienceScore(years int) float64 {
	return math.Min(float64(years)/10, 1)
}

func successRateScore(rate float64) float64 {
	return rate / 100
}

// responseTimeScore bands the average response in minutes; 0 means no data.
func responseTimeScore(minutes int) float64 {
	switch {
	case minutes == 0:
		return 0.5
	case minutes < 60:
		return 1.0
	case minutes < 180:
		return 0.8
	case minutes < 360:
		return 0.6
	default:
		return 0.4
	}
}

// workloadScore prefers contractors that are busy but not saturated.
func workloadScore(utilization float64) float64 {
	switch {
	case utilization < 0.3:
		return 0.8
	case utilization < 0.7:
		return 1.0
	default:
		return 0.6
	}
}

// budgetAlignmentScore is a fixed neutral value; lead budgets are not scored yet.
func budgetAlignmentScore(_ *models.Contractor, _ models.MatchCriteria) float64 {
	return 0.5
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Scorer turns eligible contractors into ranked-ready matches.
type Scorer struct {
	weights     Weights
	concurrency int
}

// NewScorer builds a Scorer; concurrency below 2 scores inline.
func NewScorer(weights Weights, concurrency int) *Scorer {
	return &Scorer{weights: weights, concurrency: concurrency}
}

func (s *Scorer) Breakdown(c *models.Contractor, criteria models.MatchCriteria) Breakdown {
	return Breakdown{
		Rating:       ratingScore(c.AverageRating, c.TotalReviews),
		Experience:   experienceScore(c.Experience),
		SuccessRate:  successRateScore(c.SuccessRate),
		ResponseTime: responseTimeScore(c.ResponseTime),
		Workload:     workloadScore(c.Utilization()),
		Budget:       budgetAlignmentScore(c, criteria),
	}
}

func (s *Scorer) Score(c *models.Contractor, criteria models.MatchCriteria) models.ContractorMatch {
	b := s.Breakdown(c, criteria)
	return models.ContractorMatch{
		ContractorID: c.ID,
		Score:        round2(s.weights.apply(b)),
		Reasoning:    reasoning(c, b),
		Contractor:   c.Snapshot(),
	}
}

// ScoreAll scores every contractor. The result is index-aligned with the input.
func (s *Scorer) ScoreAll(ctx context.Context, contractors []models.Contractor, criteria models.MatchCriteria) ([]models.ContractorMatch, error) {
	out := make([]models.ContractorMatch, len(contractors))
	if s.concurrency < 2 || len(contractors) < 2 {
		for i := range contractors {
			out[i] = s.Score(&contractors[i], criteria)
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range contractors {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = s.Score(&contractors[i], criteria)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func reasoning(c *models.Contractor, b Breakdown) []string {
	var reasons []string

	if b.Rating > 0.8 {
		reasons = append(reasons, fmt.Sprintf("Highly rated (%.1f/5.0 from %d reviews)", c.AverageRating, c.TotalReviews))
	} else if b.Rating > 0.6 {
		reasons = append(reasons, fmt.Sprintf("Good rating (%.1f/5.0)", c.AverageRating))
	}
	if b.Experience > 0.7 {
		reasons = append(reasons, fmt.Sprintf("%d+ years of experience", c.Experience))
	}
	if b.SuccessRate > 0.8 {
		reasons = append(reasons, strconv.FormatFloat(c.SuccessRate, 'f', -1, 64)+"% success rate")
	}
	if b.ResponseTime > 0.8 {
		reasons = append(reasons, "Fast response time")
	}
	if b.Workload > 0.9 {
		reasons = append(reasons, "Optimal availability")
	} else if b.Workload < 0.7 {
		reasons = append(reasons, "Limited availability")
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "Meets basic requirements")
	}
	return reasons
}
