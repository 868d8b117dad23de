package services

import (
	"fmt"

	"github.com/vvka-141/dwhetl/internal/catalog"
	"github.com/vvka-141/dwhetl/internal/config"
	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

// Planner resolves the configuration and renders the catalog without
// touching the warehouse.
type Planner struct {
	logger       dwhetl.Logger
	catalog      *catalog.Catalog
	resolverOpts []config.ResolverOption
}

// NewPlanner creates a Planner. resolverOpts are passed to the configuration
// resolver of every call. Panics on nil dependencies.
func NewPlanner(logger dwhetl.Logger, cat *catalog.Catalog, resolverOpts ...config.ResolverOption) *Planner {
	if logger == nil {
		panic("logger cannot be nil")
	}
	if cat == nil {
		panic("catalog cannot be nil")
	}
	return &Planner{
		logger:       logger,
		catalog:      cat,
		resolverOpts: resolverOpts,
	}
}

// Resolve returns the validated configuration for rc.
func (p *Planner) Resolve(rc dwhetl.RunConfig) (dwhetl.Configuration, error) {
	return config.NewResolver(rc.ConfigPath, rc.Overrides, p.resolverOpts...).Resolve()
}

// Plan resolves the configuration and renders the selected stages.
func (p *Planner) Plan(rc dwhetl.RunConfig) (dwhetl.Configuration, []catalog.RenderedStage, error) {
	cfg, err := p.Resolve(rc)
	if err != nil {
		return dwhetl.Configuration{}, nil, err
	}
	stages, err := NewSequencer(p.logger, WithStages(rc.Stages...)).Plan(p.catalog, cfg)
	if err != nil {
		return dwhetl.Configuration{}, nil, fmt.Errorf("failed to render statements: %w", err)
	}
	return cfg, stages, nil
}
