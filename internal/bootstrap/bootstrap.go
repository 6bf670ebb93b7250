// internal/bootstrap/bootstrap.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	awsclients "matching-workers/internal/common/aws"
	"matching-workers/internal/common/config"
	"matching-workers/internal/common/database"
	"matching-workers/internal/common/logger"
	"matching-workers/internal/matching"
	"matching-workers/internal/notify"
	"matching-workers/internal/repository"

	"go.opentelemetry.io/otel/trace"
)

// Services are the long-lived clients and the matching engine shared by the
// worker manager and matchctl.
type Services struct {
	Postgres      *database.PostgresClient
	Redis         *database.RedisClient
	Elasticsearch *database.ElasticsearchClient
	// Search is set when contractor candidates come from Elasticsearch.
	Search *repository.ContractorSearch
	Engine *matching.Engine

	logger logger.Logger
}

type RetryPolicy struct {
	Attempts     int
	InitialDelay time.Duration
}

var DefaultRetry = RetryPolicy{Attempts: 10, InitialDelay: 2 * time.Second}

// Build connects every backing store, retrying each with backoff, and wires
// the engine. On error everything opened so far is closed.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger, tracer trace.Tracer, retry RetryPolicy) (_ *Services, err error) {
	svc := &Services{logger: log}
	defer func() {
		if err != nil {
			svc.Close()
		}
	}()

	err = retryWithBackoff(ctx, retry, log, "postgres connection", func() error {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := pg.Ping(ctx); err != nil {
			pg.Close()
			return err
		}
		svc.Postgres = pg
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = retryWithBackoff(ctx, retry, log, "redis connection", func() error {
		rc, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		if err := rc.Ping(ctx); err != nil {
			rc.Close()
			return err
		}
		svc.Redis = rc
		return nil
	})
	if err != nil {
		return nil, err
	}

	directory := repository.NewContractorDirectory(svc.Postgres.DB)
	var contractors matching.ContractorDirectory = directory

	if cfg.Matching.ContractorSearch == config.ContractorSearchElasticsearch {
		err = retryWithBackoff(ctx, retry, log, "elasticsearch connection", func() error {
			es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			if err := es.Ping(ctx); err != nil {
				return err
			}
			svc.Elasticsearch = es
			return nil
		})
		if err != nil {
			return nil, err
		}
		svc.Search = repository.NewContractorSearch(svc.Elasticsearch.Client, cfg.Matching.ContractorIndex, directory)
		contractors = svc.Search
	}

	notifier, err := newNotifier(ctx, cfg, svc.Postgres, log)
	if err != nil {
		return nil, err
	}

	svc.Engine = matching.NewEngine(
		repository.NewLeadStore(svc.Postgres.DB),
		contractors,
		repository.NewAssignmentLedger(svc.Postgres.DB),
		notifier,
		matching.NewRedisCascadeLocker(svc.Redis.Client, cfg.Matching.CascadeLockTTL),
		log,
		matching.Options{
			ScoringConcurrency: cfg.Matching.ScoringConcurrency,
			DefaultMaxMatches:  cfg.Matching.DefaultMaxMatches,
			MaxMatchesLimit:    cfg.Matching.MaxMatchesLimit,
			NotifyTimeout:      cfg.Notifications.Timeout,
			Tracer:             tracer,
		},
	)

	log.Info("matching engine ready", map[string]interface{}{
		"contractorSearch": cfg.Matching.ContractorSearch,
		"notifications":    cfg.Notifications.Enabled(),
	})
	return svc, nil
}

func newNotifier(ctx context.Context, cfg *config.Config, pg *database.PostgresClient, log logger.Logger) (matching.Notifier, error) {
	if !cfg.Notifications.Enabled() {
		log.Info("notifications disabled, events are logged only", nil)
		return notify.NewLogNotifier(log), nil
	}

	region := cfg.Notifications.AWS.Region
	sesClient, err := awsclients.NewSESClient(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("create SES client: %w", err)
	}
	snsClient, err := awsclients.NewSNSClient(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("create SNS client: %w", err)
	}

	return notify.NewAWSNotifier(
		notify.SettingsFromConfig(cfg.Notifications),
		sesClient,
		snsClient,
		notify.NewSQLContactDirectory(pg.DB),
		log,
	), nil
}

// Ping checks every backing store; it backs the readiness probe.
func (s *Services) Ping(ctx context.Context) error {
	if err := s.Postgres.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	if err := s.Redis.Ping(ctx); err != nil {
		return err
	}
	if s.Elasticsearch != nil {
		if err := s.Elasticsearch.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Services) Close() {
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			s.logger.Warn("closing redis", map[string]interface{}{"error": err.Error()})
		}
	}
	if s.Postgres != nil {
		if err := s.Postgres.Close(); err != nil {
			s.logger.Warn("closing postgres", map[string]interface{}{"error": err.Error()})
		}
	}
}

// retryWithBackoff runs operation until it succeeds, doubling the delay
// between attempts.
func retryWithBackoff(ctx context.Context, policy RetryPolicy, log logger.Logger, name string, operation func() error) error {
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := policy.InitialDelay

	var err error
	for i := 0; i < attempts; i++ {
		if err = operation(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}

		log.Warn(name+" failed, retrying", map[string]interface{}{
			"error":       err.Error(),
			"attempt":     i + 1,
			"maxRetries":  attempts,
			"nextRetryIn": delay.String(),
		})
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", name, ctx.Err())
		}
		delay *= 2
	}
	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, err)
}
