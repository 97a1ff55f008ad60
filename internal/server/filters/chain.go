package filters

import (
	"context"
	"net/http"
)

// Filter inspects a request and either passes it on, possibly with an
// enriched context, or stops it with a Failure.
type Filter interface {
	Name() string
	Apply(ctx context.Context, r *http.Request) (context.Context, *Failure)
}

// Chain is an ordered list of filters applied to one endpoint class.
// Chains are assembled once at startup and are safe for concurrent use.
type Chain struct {
	name    string
	filters []Filter
}

// NewChain returns a named chain running the given filters in order.
func NewChain(name string, filters ...Filter) *Chain {
	return &Chain{name: name, filters: filters}
}

// Name returns the chain's name.
func (c *Chain) Name() string { return c.name }

// Run applies the chain's filters in order. The first failure wins; a fully
// passed request returns the final context and a nil failure. A chain with no
// filters is a wiring error and denies every request rather than admitting it.
func (c *Chain) Run(ctx context.Context, r *http.Request) (context.Context, *Failure) {
	if len(c.filters) == 0 {
		return ctx, NewFailure(FailurePipelineMisconfigured, "PIPELINE_MISCONFIGURED", "no filters registered for chain")
	}
	for _, f := range c.filters {
		next, failure := f.Apply(ctx, r)
		if failure != nil {
			return ctx, failure
		}
		ctx = next
	}
	return ctx, nil
}
