package app

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/marianozunino/ofu/internal/config"
	"github.com/marianozunino/ofu/internal/journal"
	"github.com/marianozunino/ofu/internal/metrics"
	"github.com/marianozunino/ofu/internal/purge"
	"github.com/marianozunino/ofu/internal/retention"
	"github.com/marianozunino/ofu/internal/storage"
)

// Services are the components shared by the HTTP server and the CLI.
type Services struct {
	Config   *config.Config
	Policy   retention.Policy
	Root     *storage.Root
	Journals journal.Journals
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Purger   *purge.Purger
	Log      *zap.SugaredLogger
}

// NewServices validates cfg and opens the storage root.
func NewServices(cfg *config.Config, log *zap.SugaredLogger) (*Services, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	policy, err := retention.New(cfg)
	if err != nil {
		return nil, err
	}

	root, err := storage.Open(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	journals := journal.FromConfig(cfg)

	return &Services{
		Config:   cfg,
		Policy:   policy,
		Root:     root,
		Journals: journals,
		Registry: reg,
		Metrics:  m,
		Purger:   purge.New(root, policy, policy.MinAge, journals.Purge, m, log),
		Log:      log,
	}, nil
}

// CheckInterval is how often the scheduler runs a purge pass.
func (s *Services) CheckInterval() time.Duration {
	return time.Duration(s.Config.CheckInterval) * time.Minute
}
