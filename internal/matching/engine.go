// internal/matching/engine.go
package matching

import (
	"context"
	"time"

	"matching-workers/internal/common/logger"
	"matching-workers/internal/models"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type LeadStore interface {
	FindLead(ctx context.Context, id string) (*models.Lead, error)
	UpdateLeadStatus(ctx context.Context, id string, status models.LeadStatus) error
	CompareAndSetLeadStatus(ctx context.Context, id string, expected, next models.LeadStatus) (bool, error)
	FindQueuedLeads(ctx context.Context, limit int) ([]models.Lead, error)
}

// ContractorDirectory may prefilter by criteria; the engine always applies
// the full eligibility check to what it returns.
type ContractorDirectory interface {
	FindContractorsByCriteria(ctx context.Context, criteria models.MatchCriteria) ([]models.Contractor, error)
	FindContractor(ctx context.Context, id string) (*models.Contractor, error)
	FindContractors(ctx context.Context, ids []string) ([]models.Contractor, error)
	FindAvailabilitySlots(ctx context.Context, contractorID string) ([]models.AvailabilitySlot, error)
	CountPendingMilestones(ctx context.Context, contractorID string) (int, error)
}

// AssignmentLedger must enforce (lead, contractor) uniqueness on upsert and
// the single-response rule on RecordResponse.
type AssignmentLedger interface {
	UpsertAssignment(ctx context.Context, leadID, contractorID string) (*models.LeadAssignment, error)
	FindAssignment(ctx context.Context, id string) (*models.LeadAssignment, error)
	FindAssignmentsForLead(ctx context.Context, leadID string) ([]models.LeadAssignment, error)
	FindAssignmentsForLeads(ctx context.Context, leadIDs []string) (map[string][]models.LeadAssignment, error)
	RecordResponse(ctx context.Context, id string, response models.AssignmentResponse, declineReason *string, at time.Time) (*models.LeadAssignment, error)
	FindLeadsForContractor(ctx context.Context, contractorID string) ([]models.ContractorLead, error)
}

// Notifier delivers engine events. Errors are logged by the engine and never
// fail the operation that raised the event.
type Notifier interface {
	Notify(ctx context.Context, n models.Notification) error
}

type Options struct {
	Weights            Weights
	ScoringConcurrency int
	DefaultMaxMatches  int
	MaxMatchesLimit    int
	// NotifyTimeout bounds each notification; defaults to 5s.
	NotifyTimeout time.Duration
	Tracer        trace.Tracer
	Now           func() time.Time
}

// Engine is the match orchestrator: it ranks contractors for leads, records
// assignments and responses, and runs the reassignment cascade.
type Engine struct {
	leads       LeadStore
	contractors ContractorDirectory
	ledger      AssignmentLedger
	notifier    Notifier
	locker      CascadeLocker
	scorer      *Scorer
	tracer      trace.Tracer
	logger      logger.Logger
	now         func() time.Time

	defaultMaxMatches int
	maxMatchesLimit   int
	notifyTimeout     time.Duration
}

func NewEngine(
	leads LeadStore,
	contractors ContractorDirectory,
	ledger AssignmentLedger,
	notifier Notifier,
	locker CascadeLocker,
	log logger.Logger,
	opts Options,
) *Engine {
	if opts.Weights == (Weights{}) {
		opts.Weights = DefaultWeights
	}
	if opts.DefaultMaxMatches == 0 {
		opts.DefaultMaxMatches = 3
	}
	if opts.MaxMatchesLimit == 0 {
		opts.MaxMatchesLimit = 5
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = 5 * time.Second
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("matching-workers/internal/matching")
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if locker == nil {
		locker = NewLocalCascadeLocker()
	}

	return &Engine{
		leads:             leads,
		contractors:       contractors,
		ledger:            ledger,
		notifier:          notifier,
		locker:            locker,
		scorer:            NewScorer(opts.Weights, opts.ScoringConcurrency),
		tracer:            opts.Tracer,
		logger:            log.WithFields(map[string]interface{}{"component": "matching-engine"}),
		now:               opts.Now,
		defaultMaxMatches: opts.DefaultMaxMatches,
		maxMatchesLimit:   opts.MaxMatchesLimit,
		notifyTimeout:     opts.NotifyTimeout,
	}
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, models.Notification) error { return nil }

func (e *Engine) notify(ctx context.Context, n models.Notification) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	// Delivery runs on its own deadline so a slow channel cannot use up the
	// job's time, and a finished job does not cut a send short.
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.notifyTimeout)
	defer cancel()
	if err := e.notifier.Notify(nctx, n); err != nil {
		e.logger.Warn("notification not delivered", map[string]interface{}{
			"event":         string(n.Event),
			"leadId":        n.LeadID,
			"recipientType": string(n.RecipientType),
			"recipientId":   n.RecipientID,
			"error":         err.Error(),
		})
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
