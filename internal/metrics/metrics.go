package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Mutation operation labels
const (
	OpApply  = "apply"
	OpRevert = "revert"
)

// Import row result labels
const (
	RowImported = "imported"
	RowFailed   = "failed"
)

// Metrics holds the Prometheus collectors for wallet balance bookkeeping.
type Metrics struct {
	// Registry owns the collectors below and backs the /metrics endpoint.
	Registry *prometheus.Registry

	balanceMutations  *prometheus.CounterVec
	danglingReverts   prometheus.Counter
	importRows        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	walletResets      prometheus.Counter
}

// NewMetrics creates a private registry so repeated construction in tests
// does not hit duplicate registration panics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		balanceMutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletwise_balance_mutations_total",
				Help: "Wallet balance mutations by operation.",
			},
			[]string{"op"},
		),
		danglingReverts: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "walletwise_dangling_reverts_total",
				Help: "Reverts skipped because the referenced wallet no longer exists.",
			},
		),
		importRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "walletwise_import_rows_total",
				Help: "Bulk import rows by result.",
			},
			[]string{"result"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "walletwise_operation_duration_seconds",
				Help:    "Duration of transaction lifecycle operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		walletResets: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "walletwise_wallet_resets_total",
				Help: "Wallets forced to a zero balance by reset-all.",
			},
		),
	}
}

// IncrMutation counts an applied or reverted balance effect.
func (m *Metrics) IncrMutation(op string) {
	if m == nil {
		return
	}
	m.balanceMutations.WithLabelValues(op).Inc()
}

// IncrDanglingRevert counts a revert skipped for a missing wallet.
func (m *Metrics) IncrDanglingRevert() {
	if m == nil {
		return
	}
	m.danglingReverts.Inc()
}

// IncrImportRow counts a processed bulk import row.
func (m *Metrics) IncrImportRow(result string) {
	if m == nil {
		return
	}
	m.importRows.WithLabelValues(result).Inc()
}

// AddWalletResets counts wallets zeroed by a full reset.
func (m *Metrics) AddWalletResets(n int64) {
	if m == nil {
		return
	}
	m.walletResets.Add(float64(n))
}

// ObserveOperation records how long a lifecycle operation took.
func (m *Metrics) ObserveOperation(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// MutationCount returns the cumulative number of mutations for op.
func (m *Metrics) MutationCount(op string) float64 {
	return counterValue(m.balanceMutations.WithLabelValues(op))
}

// DanglingRevertCount returns the cumulative number of skipped reverts.
func (m *Metrics) DanglingRevertCount() float64 {
	return counterValue(m.danglingReverts)
}

// ImportRowCount returns the cumulative number of import rows with result.
func (m *Metrics) ImportRowCount(result string) float64 {
	return counterValue(m.importRows.WithLabelValues(result))
}

// counterValue extracts the current value of a counter.
func counterValue(c prometheus.Counter) float64 {
	metric := &dto.Metric{}
	if err := c.Write(metric); err != nil {
		return 0
	}
	if metric.Counter != nil && metric.Counter.Value != nil {
		return *metric.Counter.Value
	}
	return 0
}
