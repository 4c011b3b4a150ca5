// Package engine drives resolved test plans: wave-by-wave dispatch with a
// bounded worker pool, per-iteration Setup→Stages→Cleanup execution,
// variable scoping and response validation.
package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/abdul-hamid-achik/flowspec/packages/core/config"
	"github.com/abdul-hamid-achik/flowspec/packages/core/resolve"
	"github.com/abdul-hamid-achik/flowspec/packages/core/vars"
	"github.com/abdul-hamid-achik/flowspec/packages/http"
	"github.com/abdul-hamid-achik/flowspec/packages/session"
)

type Engine struct {
	cfg       *config.Config
	transport http.Transport
	clock     vars.Clock
	sink      session.Sink
	limiter   *rate.Limiter
	seed      int64

	mu        sync.Mutex
	extracted map[string]string // cross-test values from dependency extraction
	outcomes  map[string]session.Status
}

type Option func(*Engine)

// WithTransport substitutes the HTTP transport; tests install fakes here.
func WithTransport(t http.Transport) Option {
	return func(e *Engine) { e.transport = t }
}

// WithClock pins the date built-ins to an injected clock.
func WithClock(c vars.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithSink installs a telemetry sink.
func WithSink(s session.Sink) Option {
	return func(e *Engine) { e.sink = s }
}

func New(cfg *config.Config, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	e := &Engine{
		cfg:       cfg,
		clock:     vars.SystemClock(),
		sink:      session.NopSink{},
		extracted: make(map[string]string),
		outcomes:  make(map[string]session.Status),
	}

	if cfg.Seed != nil {
		e.seed = *cfg.Seed
	} else {
		e.seed = rand.Int63()
	}
	if cfg.RateLimit > 0 {
		e.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.transport == nil {
		clientOpts := []http.ClientOption{
			http.WithFollowRedirects(cfg.GetFollowRedirects()),
			http.WithValidateSSL(cfg.GetValidateSSL()),
		}
		if cfg.Timeout > 0 {
			clientOpts = append(clientOpts, http.WithTimeout(time.Duration(cfg.Timeout)*time.Millisecond))
		}
		if cfg.MaxRedirects > 0 {
			clientOpts = append(clientOpts, http.WithMaxRedirects(cfg.MaxRedirects))
		}
		if cfg.Proxy != "" {
			clientOpts = append(clientOpts, http.WithProxy(cfg.Proxy))
		}
		for k, v := range cfg.Headers {
			clientOpts = append(clientOpts, http.WithDefaultHeader(k, v))
		}
		e.transport = http.NewClient(clientOpts...)
	}

	return e
}

// Seed returns the generation seed in effect for this run.
func (e *Engine) Seed() int64 { return e.seed }

// Run executes the plan wave by wave. Tests inside one wave run
// concurrently up to the configured worker count; a wave never starts
// before the previous one finished. The returned aggregator holds every
// iteration outcome.
func (e *Engine) Run(ctx context.Context, plan *resolve.Plan) *session.Aggregator {
	agg := session.NewAggregator()
	session.Publish(func() { e.sink.SessionStarted(agg.ID(), len(plan.Order)) })

	workers := e.cfg.Concurrency
	if workers < 1 {
		workers = 1
	}

	stopped := false
	for _, wave := range plan.Waves {
		if stopped || ctx.Err() != nil {
			for _, td := range wave {
				e.recordSkip(agg, td, "not dispatched")
			}
			continue
		}

		sem := make(chan struct{}, workers)
		var wg sync.WaitGroup
		for _, td := range wave {
			td := td
			wg.Add(1)
			sem <- struct{}{}
			go func() {
				defer wg.Done()
				defer func() { <-sem }()
				e.runTest(ctx, agg, td)
			}()
		}
		wg.Wait()

		if !e.cfg.GetContinueOnFailure() && agg.Totals().Failed > 0 {
			stopped = true
		}
	}

	totals := agg.Totals()
	session.Publish(func() { e.sink.SessionCompleted(agg.ID(), totals) })
	return agg
}

// setExtracted publishes values captured by one test to its dependents.
// The resolver has already rejected name collisions between unrelated
// tests, so concurrent writers never race on the same key.
func (e *Engine) setExtracted(values map[string]string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for k, v := range values {
		e.extracted[k] = v
	}
}

func (e *Engine) snapshotExtracted() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string]string, len(e.extracted))
	for k, v := range e.extracted {
		out[k] = v
	}
	return out
}

func (e *Engine) setOutcome(id string, s session.Status) {
	e.mu.Lock()
	defer e.mu.Unlock()
	// A test with a failed iteration counts as failed overall.
	if prev, ok := e.outcomes[id]; ok && prev == session.StatusFailed {
		return
	}
	e.outcomes[id] = s
}

func (e *Engine) outcomeOf(id string) (session.Status, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.outcomes[id]
	return s, ok
}
