package inventory

import (
	"context"

	"inventory-sync/core/config"
	"inventory-sync/core/connector"
	"inventory-sync/core/erp"
	"inventory-sync/core/reconcile"
	"inventory-sync/core/storefront"

	"go.uber.org/zap"
)

// Runner executes one reconciliation run.
type Runner interface {
	Run(ctx context.Context, opts reconcile.Options) (*reconcile.RunState, error)
}

// Pipeline wires one store's ERP and storefront clients into an engine.
type Pipeline struct {
	Store      string
	ERP        *erp.Client
	Storefront *storefront.Client
	Engine     *reconcile.Engine
}

// NewPipeline validates cfg and builds the store's clients. It performs no network call.
func NewPipeline(store string, cfg config.StoreConfig, clock connector.Clock, logger *zap.Logger) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &config.ConfigurationError{Store: store, Err: err}
	}

	erpClient := erp.NewClient(store, cfg.ERP, clock)
	storefrontClient := storefront.NewClient(store, cfg.Storefront, clock)

	return &Pipeline{
		Store:      store,
		ERP:        erpClient,
		Storefront: storefrontClient,
		Engine:     reconcile.NewEngine(erpClient, storefrontClient, logger),
	}, nil
}

// Connectors returns every connector of the pipeline.
func (p *Pipeline) Connectors() []*connector.Connector {
	return append([]*connector.Connector{p.ERP.Connector()}, p.Storefront.Connectors()...)
}

// Registry holds the pipelines of every configured store. A store whose
// configuration is invalid keeps its error, reported when it is used.
type Registry struct {
	order     []string
	pipelines map[string]*Pipeline
	errs      map[string]error
}

// NewRegistry builds a pipeline for each store in cfg.Sync.
func NewRegistry(cfg *config.Config, clock connector.Clock, logger *zap.Logger) *Registry {
	r := &Registry{
		pipelines: make(map[string]*Pipeline),
		errs:      make(map[string]error),
	}

	for _, name := range cfg.Sync.StoreNames() {
		r.order = append(r.order, name)

		storeCfg, err := cfg.Store(name)
		if err != nil {
			r.errs[name] = err
			continue
		}

		p, err := NewPipeline(name, storeCfg, clock, logger.With(zap.String("store", name)))
		if err != nil {
			logger.Warn("Store is not configured", zap.String("store", name), zap.Error(err))
			r.errs[name] = err
			continue
		}
		r.pipelines[name] = p
	}

	return r
}

// Stores returns the configured store names in order.
func (r *Registry) Stores() []string {
	return r.order
}

// Pipeline returns the pipeline of a store.
func (r *Registry) Pipeline(store string) (*Pipeline, error) {
	if p, ok := r.pipelines[store]; ok {
		return p, nil
	}
	if err, ok := r.errs[store]; ok {
		return nil, err
	}
	return nil, &config.ConfigurationError{Store: store, Err: config.ErrUnknownStore}
}

// Runner implements RunnerSource.
func (r *Registry) Runner(store string) (Runner, error) {
	p, err := r.Pipeline(store)
	if err != nil {
		return nil, err
	}
	return p.Engine, nil
}

// Pipelines returns the valid pipelines in store order.
func (r *Registry) Pipelines() []*Pipeline {
	out := make([]*Pipeline, 0, len(r.pipelines))
	for _, name := range r.order {
		if p, ok := r.pipelines[name]; ok {
			out = append(out, p)
		}
	}
	return out
}
