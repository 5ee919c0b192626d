package health

import (
	"context"
	"sync"

	"inventory-sync/core/config"
	"inventory-sync/core/connector"
	"inventory-sync/feature/health/checks"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Target is one store and the connectors it syncs through. Err is set when the
// store is listed but cannot be built from its configuration.
type Target struct {
	Store      string
	Connectors []*connector.Connector
	Err        error
}

// Pinger verifies the snapshot archive is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreHealth is the health of one store's integrations.
type StoreHealth struct {
	Store      string             `json:"store"`
	Status     connector.Status   `json:"status"`
	Connectors []connector.Health `json:"connectors"`
	Error      string             `json:"error,omitempty"`
}

// Report is the health of every configured store.
type Report struct {
	Status connector.Status `json:"status"`
	Stores []StoreHealth    `json:"stores"`
}

// RunLogReport combines the run-log schema check with archive reachability.
type RunLogReport struct {
	Schema  *checks.SchemaReport `json:"schema,omitempty"`
	Archive string               `json:"archive"`
	Errors  []string             `json:"errors"`
}

// Service probes connectors and inspects the run log.
type Service struct {
	targets []Target
	db      *gorm.DB
	archive Pinger
	logger  *zap.Logger
}

// NewService creates a health service. db and archive may be nil.
func NewService(targets []Target, db *gorm.DB, archive Pinger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{targets: targets, db: db, archive: archive, logger: logger}
}

// CheckAll probes every store concurrently.
func (s *Service) CheckAll(ctx context.Context) *Report {
	report := &Report{Stores: make([]StoreHealth, len(s.targets))}

	g, ctx := errgroup.WithContext(ctx)
	for i, t := range s.targets {
		g.Go(func() error {
			report.Stores[i] = s.checkTarget(ctx, t)
			return nil
		})
	}
	_ = g.Wait()

	statuses := make([]connector.Status, 0, len(report.Stores))
	for _, sh := range report.Stores {
		statuses = append(statuses, sh.Status)
	}
	report.Status = worst(statuses)
	return report
}

// CheckStore probes the connectors of one store.
func (s *Service) CheckStore(ctx context.Context, store string) (*StoreHealth, error) {
	for _, t := range s.targets {
		if t.Store == store {
			sh := s.checkTarget(ctx, t)
			return &sh, nil
		}
	}
	return nil, &config.ConfigurationError{Store: store, Err: config.ErrUnknownStore}
}

// CheckRunLog inspects the run-log table and pings the archive when one is configured.
func (s *Service) CheckRunLog(ctx context.Context) *RunLogReport {
	report := &RunLogReport{Archive: "disabled", Errors: []string{}}

	if s.db == nil {
		report.Errors = append(report.Errors, "run log database is not connected")
	} else if schema, err := checks.CheckRunLogSchema(s.db.WithContext(ctx)); err != nil {
		report.Errors = append(report.Errors, err.Error())
	} else {
		report.Schema = schema
	}

	if s.archive != nil {
		if err := s.archive.Ping(ctx); err != nil {
			report.Archive = "unreachable"
			report.Errors = append(report.Errors, err.Error())
		} else {
			report.Archive = "ok"
		}
	}

	return report
}

// Healthy reports whether the run log is usable as configured.
func (r *RunLogReport) Healthy() bool {
	return len(r.Errors) == 0 && r.Schema != nil && r.Schema.Matched
}

func (s *Service) checkTarget(ctx context.Context, t Target) StoreHealth {
	sh := StoreHealth{Store: t.Store, Connectors: []connector.Health{}}
	if t.Err != nil {
		sh.Status = connector.StatusDown
		sh.Error = t.Err.Error()
		return sh
	}

	var wg sync.WaitGroup
	results := make([]connector.Health, len(t.Connectors))
	for i, c := range t.Connectors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = c.HealthCheck(ctx)
		}()
	}
	wg.Wait()

	statuses := make([]connector.Status, 0, len(results))
	for _, h := range results {
		if h.Status == connector.StatusDown {
			s.logger.Warn("Connector is down", zap.String("store", t.Store), zap.String("connector", h.Name), zap.String("error", h.Error))
		}
		statuses = append(statuses, h.Status)
	}
	sh.Connectors = results
	sh.Status = worst(statuses)
	return sh
}

var severity = map[connector.Status]int{
	connector.StatusHealthy:  0,
	connector.StatusUnknown:  1,
	connector.StatusDegraded: 2,
	connector.StatusDown:     3,
}

// worst returns the most severe status, healthy for none.
func worst(statuses []connector.Status) connector.Status {
	out := connector.StatusHealthy
	for _, s := range statuses {
		if severity[s] > severity[out] {
			out = s
		}
	}
	return out
}
