// internal/workers/matching/get-lead-queue/config.go
package getleadqueue

import (
	"time"

	"matching-workers/internal/common/config"
)

type Config struct {
	Timeout      time.Duration
	DefaultLimit int
}

func NewConfig(wcfg config.WorkerConfig) *Config {
	return &Config{Timeout: config.GetDuration(wcfg.Timeout), DefaultLimit: 100}
}
