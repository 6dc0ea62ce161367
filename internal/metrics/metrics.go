// Package metrics exposes Prometheus counters for turns, dispatched actions
// and oracle calls.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ShayCichocki/tasktalk/pkg/models"
)

// Provider records assistant metrics into a registry. A nil *Provider is a
// valid no-op.
type Provider struct {
	registry *prometheus.Registry

	turns        *prometheus.CounterVec
	turnDuration *prometheus.HistogramVec
	dispatches   *prometheus.CounterVec
	oracleCalls  *prometheus.CounterVec
	oracleTime   *prometheus.HistogramVec
	tokens       *prometheus.CounterVec
}

// New registers the assistant metrics with registry. A nil registry returns
// nil.
func New(registry *prometheus.Registry) *Provider {
	if registry == nil {
		return nil
	}

	p := &Provider{
		registry: registry,
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasktalk_turns_total",
				Help: "Total number of turns by intent and outcome",
			},
			[]string{"intent", "outcome"},
		),
		turnDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tasktalk_turn_duration_seconds",
				Help:    "Wall time of a turn by intent",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
			},
			[]string{"intent"},
		),
		dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasktalk_actions_dispatched_total",
				Help: "Total number of dispatched actions by action and result",
			},
			[]string{"action", "result"},
		),
		oracleCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasktalk_oracle_calls_total",
				Help: "Total number of oracle calls by operation and result",
			},
			[]string{"op", "result"},
		),
		oracleTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tasktalk_oracle_call_duration_seconds",
				Help:    "Latency of oracle calls by operation",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tasktalk_oracle_tokens_total",
				Help: "Tokens consumed by provider and direction",
			},
			[]string{"provider", "direction"},
		),
	}

	registry.MustRegister(
		p.turns,
		p.turnDuration,
		p.dispatches,
		p.oracleCalls,
		p.oracleTime,
		p.tokens,
	)

	return p
}

// ObserveTurn counts a finished turn.
func (p *Provider) ObserveTurn(intent models.Intent, outcome string, d time.Duration) {
	if p == nil {
		return
	}
	label := string(intent)
	if label == "" {
		label = "none"
	}
	p.turns.WithLabelValues(label, outcome).Inc()
	p.turnDuration.WithLabelValues(label).Observe(d.Seconds())
}

// ObserveDispatch counts an action attempt.
func (p *Provider) ObserveDispatch(action models.ActionName, err error) {
	if p == nil {
		return
	}
	p.dispatches.WithLabelValues(string(action), dispatchResult(err)).Inc()
}

// ObserveOracleCall counts a model call.
func (p *Provider) ObserveOracleCall(op string, d time.Duration, err error) {
	if p == nil {
		return
	}
	result := "ok"
	var terr *models.OracleTimeoutError
	switch {
	case errors.As(err, &terr):
		result = "timeout"
	case err != nil:
		result = "error"
	}
	p.oracleCalls.WithLabelValues(op, result).Inc()
	p.oracleTime.WithLabelValues(op).Observe(d.Seconds())
}

// ObserveTokens adds token usage.
func (p *Provider) ObserveTokens(provider string, input, output int64) {
	if p == nil {
		return
	}
	p.tokens.WithLabelValues(provider, "input").Add(float64(input))
	p.tokens.WithLabelValues(provider, "output").Add(float64(output))
}

// Handler serves the registry in the Prometheus text format.
func (p *Provider) Handler() http.Handler {
	if p == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (p *Provider) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", p.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func dispatchResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrInvalidID):
		return "invalid_id"
	default:
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			return "invalid"
		}
		return "error"
	}
}
