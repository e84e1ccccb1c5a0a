package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/recoverlens/recovery-engine/pkg/interfaces"
	"github.com/recoverlens/recovery-engine/pkg/logger"
	"github.com/recoverlens/recovery-engine/pkg/monitoring"
	"github.com/recoverlens/recovery-engine/pkg/types"
)

// Orchestrator fans one analysis request out to every capable adapter and
// collects the successes. Individual provider failures are logged and
// excluded from the batch; only a batch with zero successes fails.
type Orchestrator struct {
	adapters    []interfaces.ProviderAdapter
	callTimeout time.Duration
	logger      *logger.Logger
	metrics     *monitoring.MetricsCollector
}

// New creates an orchestrator over the given adapter set. callTimeout bounds
// each provider invocation; zero disables the per-call deadline.
func New(adapters []interfaces.ProviderAdapter, callTimeout time.Duration, log *logger.Logger, metrics *monitoring.MetricsCollector) *Orchestrator {
	return &Orchestrator{
		adapters:    adapters,
		callTimeout: callTimeout,
		logger:      log,
		metrics:     metrics,
	}
}

// Collect runs the fan-out/fan-in batch for one request. subset optionally
// restricts the batch to the named providers; an empty subset means every
// adapter capable of the request's modality. Cancelling ctx cancels all
// in-flight calls and discards partial results.
func (o *Orchestrator) Collect(ctx context.Context, req *types.AnalysisRequest, subset []string) ([]types.ProviderResult, error) {
	eligible := o.eligible(req.Modality, subset)
	if len(eligible) == 0 {
		return nil, types.NewNoProviderAvailableError(map[string]interface{}{
			"modality": string(req.Modality),
			"reason":   "no configured provider supports this modality",
		})
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	results := make([]types.ProviderResult, 0, len(eligible))
	failures := make(map[string]string)

	for _, adapter := range eligible {
		adapter := adapter
		wg.Add(1)
		go func() {
			defer wg.Done()

			callCtx := ctx
			if o.callTimeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, o.callTimeout)
				defer cancel()
			}

			name := adapter.Provider().Name

			callCtx, span := monitoring.StartProviderSpan(callCtx, name)
			start := time.Now()
			result, err := adapter.Invoke(callCtx, req)
			duration := time.Since(start)
			span.End()

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				failures[name] = err.Error()
				if o.metrics != nil {
					o.metrics.RecordProviderCall(name, "failure", duration)
				}
				o.logger.ProviderCall(req.ID, name, false, false, duration.Milliseconds(), map[string]interface{}{
					"error": err.Error(),
				})
				return
			}

			if o.metrics != nil {
				o.metrics.RecordProviderCall(name, "success", duration)
				if result.UsedFallback {
					o.metrics.RecordFallbackExtraction(name)
				}
			}
			o.logger.ProviderCall(req.ID, name, true, result.UsedFallback, result.LatencyMS, nil)
			results = append(results, *result)
		}()
	}

	wg.Wait()

	// A batch with zero successes is a hard failure
	if len(results) == 0 {
		details := map[string]interface{}{
			"modality":  string(req.Modality),
			"attempted": len(eligible),
		}
		for name, msg := range failures {
			details["failure_"+name] = msg
		}
		return nil, types.NewNoProviderAvailableError(details)
	}

	if len(failures) > 0 {
		o.logger.WithRequestID(req.ID).Warnf("Continuing with %d/%d providers", len(results), len(eligible))
	}

	return results, nil
}

// Providers returns the identities of every configured adapter
func (o *Orchestrator) Providers() []types.Provider {
	providers := make([]types.Provider, 0, len(o.adapters))
	for _, adapter := range o.adapters {
		providers = append(providers, adapter.Provider())
	}
	return providers
}

// eligible filters the adapter set by modality capability and the optional
// caller-supplied subset, preserving configuration order
func (o *Orchestrator) eligible(modality types.Modality, subset []string) []interfaces.ProviderAdapter {
	wanted := make(map[string]bool, len(subset))
	for _, name := range subset {
		wanted[name] = true
	}

	eligible := make([]interfaces.ProviderAdapter, 0, len(o.adapters))
	for _, adapter := range o.adapters {
		p := adapter.Provider()
		if !p.Supports(modality) {
			continue
		}
		if len(subset) > 0 && !wanted[p.Name] {
			continue
		}
		eligible = append(eligible, adapter)
	}
	return eligible
}
