package strata

// Option configures a LayerMap at construction time.
type Option func(*options)

type options struct {
	logger               *Logger
	metrics              MetricsCollector
	autoRebuildThreshold int
}

// WithLogger configures the structured logger. If nil is passed, logging
// is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetrics configures the metrics collector. If nil is passed, metrics
// collection is disabled.
func WithMetrics(m MetricsCollector) Option {
	return func(o *options) {
		if m == nil {
			m = NoopMetricsCollector{}
		}
		o.metrics = m
	}
}

// WithAutoRebuildThreshold makes the LayerMap rebuild its compiled index
// automatically once the pending batch reaches n operations. Queries stay
// correct below the threshold; the option merely bounds how much linear
// pending-batch scanning a query can accumulate when the writer batches
// aggressively.
//
// n <= 0 (the default) disables automatic rebuilds; the writer calls
// RebuildIndex explicitly.
func WithAutoRebuildThreshold(n int) Option {
	return func(o *options) {
		o.autoRebuildThreshold = n
	}
}
