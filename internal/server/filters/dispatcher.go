package filters

import (
	"errors"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	endpointdomain "dinehub/backend/internal/endpoint/domain"
	"dinehub/backend/internal/endpoint/registry"
)

// Dispatcher classifies each request against the endpoint registry and runs
// the chain for its security class. Unclassified requests run the strictest
// chain: an endpoint nobody registered must not slip through open.
type Dispatcher struct {
	registry *registry.Registry
	chains   map[endpointdomain.Security]*Chain
	fallback *Chain
	log      *zap.Logger

	requests metric.Int64Counter
	latency  metric.Float64Histogram
}

// NewDispatcher returns a Dispatcher routing each security class to its
// chain. fallback handles unclassified requests and classes with no chain.
func NewDispatcher(reg *registry.Registry, chains map[endpointdomain.Security]*Chain, fallback *Chain, log *zap.Logger) *Dispatcher {
	meter := otel.Meter("dinehub/backend/internal/server/filters")
	requests, err := meter.Int64Counter("auth_requests_total",
		metric.WithDescription("Requests through the security pipeline, by chain and outcome."))
	if err != nil {
		log.Warn("metric registration failed", zap.Error(err))
	}
	latency, err := meter.Float64Histogram("auth_pipeline_duration_seconds",
		metric.WithDescription("Filter chain latency in seconds."),
		metric.WithUnit("s"))
	if err != nil {
		log.Warn("metric registration failed", zap.Error(err))
	}
	return &Dispatcher{
		registry: reg,
		chains:   chains,
		fallback: fallback,
		log:      log,
		requests: requests,
		latency:  latency,
	}
}

// Middleware wires the dispatcher into an HTTP router. It runs before any
// route handler.
func (d *Dispatcher) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()

		desc, err := d.registry.Classify(ctx, r.Method, r.URL.Path)
		switch {
		case err == nil:
			ctx = WithDescriptor(ctx, desc)
		case errors.Is(err, registry.ErrNotFound):
			// Unclassified: fall through to the strictest chain.
		default:
			d.log.Error("endpoint classification failed",
				zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		}

		chain := d.fallback
		if desc != nil {
			if c, ok := d.chains[desc.Security]; ok {
				chain = c
			} else {
				f := NewFailure(FailurePipelineMisconfigured, "PIPELINE_MISCONFIGURED", "no filter chain for endpoint")
				d.finish(w, r, chain, f, start)
				return
			}
		}
		if chain == nil {
			f := NewFailure(FailurePipelineMisconfigured, "PIPELINE_MISCONFIGURED", "no filter chain for endpoint")
			d.finish(w, r, nil, f, start)
			return
		}

		ctx, failure := chain.Run(ctx, r)
		if failure != nil {
			d.finish(w, r.WithContext(ctx), chain, failure, start)
			return
		}
		d.record(r, chain, "ok", start)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (d *Dispatcher) finish(w http.ResponseWriter, r *http.Request, chain *Chain, f *Failure, start time.Time) {
	reqID := ""
	if sc, ok := SecurityContextFromContext(r.Context()); ok {
		reqID = sc.RequestID
	}
	d.log.Info("request denied",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("code", f.Code),
		zap.String("outcome", f.Outcome()),
		zap.String("request_id", reqID))
	d.record(r, chain, f.Outcome(), start)
	WriteFailure(w, f, reqID)
}

func (d *Dispatcher) record(r *http.Request, chain *Chain, outcome string, start time.Time) {
	chainName := "none"
	if chain != nil {
		chainName = chain.Name()
	}
	attrs := metric.WithAttributes(
		attribute.String("chain", chainName),
		attribute.String("outcome", outcome),
	)
	if d.requests != nil {
		d.requests.Add(r.Context(), 1, attrs)
	}
	if d.latency != nil {
		d.latency.Record(r.Context(), time.Since(start).Seconds(), attrs)
	}
}
