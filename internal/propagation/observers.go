package propagation

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// ValidityEvent reports that the perturbative coupling term exceeded the
// perturbation-theory bound at some point along the path. One event is
// emitted per contiguous violating region, not per sample.
type ValidityEvent struct {
	// Kernel names the affected polarization kernel, "t" or "u".
	Kernel string
	// DistanceKpc is the path position where the region begins.
	DistanceKpc float64
	// Coupling is the offending coupling term in kpc^-1.
	Coupling float64
}

// ValidityObserver receives perturbation-validity diagnostics from the
// continuous integrator. Violations are side-channel information, never
// errors: the integral still completes and its result is returned.
type ValidityObserver interface {
	// Violation is called once per contiguous violating region.
	Violation(event ValidityEvent)
}

// ─────────────────────────────────────────────────────────────────────────────
// Channel Observer
// ─────────────────────────────────────────────────────────────────────────────

// ChannelObserver forwards validity events to a channel, for callers
// that collect diagnostics asynchronously. Sends are non-blocking; when
// the channel is full the event is dropped rather than stalling the
// integration.
type ChannelObserver struct {
	channel chan<- ValidityEvent
}

// NewChannelObserver creates an observer that sends events to ch. A nil
// channel discards all events.
func NewChannelObserver(ch chan<- ValidityEvent) *ChannelObserver {
	return &ChannelObserver{channel: ch}
}

// Violation implements ValidityObserver by a non-blocking channel send.
func (o *ChannelObserver) Violation(event ValidityEvent) {
	if o.channel == nil {
		return
	}
	select {
	case o.channel <- event:
	default:
		// Channel full, drop the event (the caller will still see the
		// aggregate count on the Result).
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Logging Observer
// ─────────────────────────────────────────────────────────────────────────────

// LoggingObserver logs validity events using zerolog.
type LoggingObserver struct {
	logger zerolog.Logger
	mu     sync.Mutex
	count  int
}

// NewLoggingObserver creates an observer that logs each violating region
// as a warning.
func NewLoggingObserver(logger zerolog.Logger) *LoggingObserver {
	return &LoggingObserver{logger: logger}
}

// Violation implements ValidityObserver by emitting a warning log.
func (o *LoggingObserver) Violation(event ValidityEvent) {
	o.mu.Lock()
	o.count++
	n := o.count
	o.mu.Unlock()

	o.logger.Warn().
		Str("kernel", event.Kernel).
		Float64("distance_kpc", event.DistanceKpc).
		Float64("coupling", event.Coupling).
		Int("region", n).
		Msg("perturbation bound exceeded, result unreliable")
}

// ─────────────────────────────────────────────────────────────────────────────
// Metrics Observer (Prometheus)
// ─────────────────────────────────────────────────────────────────────────────

var (
	// validityViolations counts violating regions per kernel.
	// Registered once globally to avoid duplicate registration errors.
	validityViolations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alpflux_validity_violations_total",
			Help: "Contiguous path regions where the perturbation bound was exceeded",
		},
		[]string{"kernel"},
	)
)

// MetricsObserver exports validity violations to Prometheus.
type MetricsObserver struct {
	counter *prometheus.CounterVec
}

// NewMetricsObserver creates an observer that updates the Prometheus
// violation counter.
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{counter: validityViolations}
}

// Violation implements ValidityObserver by incrementing the counter.
func (o *MetricsObserver) Violation(event ValidityEvent) {
	o.counter.WithLabelValues(event.Kernel).Inc()
}

// ─────────────────────────────────────────────────────────────────────────────
// No-Op and Composite Observers
// ─────────────────────────────────────────────────────────────────────────────

// NoOpObserver discards all validity events. Null object for callers
// that only read the aggregate count off the Result.
type NoOpObserver struct{}

// NewNoOpObserver creates a no-op observer.
func NewNoOpObserver() *NoOpObserver { return &NoOpObserver{} }

// Violation implements ValidityObserver by doing nothing.
func (o *NoOpObserver) Violation(ValidityEvent) {
	// Intentionally empty - Null Object pattern
}

// MultiObserver fans one event out to several observers in order.
type MultiObserver struct {
	observers []ValidityObserver
}

// NewMultiObserver creates an observer broadcasting to all given
// observers; nil entries are skipped.
func NewMultiObserver(observers ...ValidityObserver) *MultiObserver {
	kept := make([]ValidityObserver, 0, len(observers))
	for _, obs := range observers {
		if obs != nil {
			kept = append(kept, obs)
		}
	}
	return &MultiObserver{observers: kept}
}

// Violation implements ValidityObserver by forwarding to every observer.
func (o *MultiObserver) Violation(event ValidityEvent) {
	for _, obs := range o.observers {
		obs.Violation(event)
	}
}
