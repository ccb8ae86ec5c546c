package infra

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the Prometheus collectors exported by the API and worker.
type Metrics struct {
	registry       *prometheus.Registry
	ContractCalls  *prometheus.CounterVec
	Donations      *prometheus.CounterVec
	LedgerWrites   *prometheus.CounterVec
	RelayerLatency prometheus.Histogram
}

// NewMetrics registers collectors on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		ContractCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climatefund",
			Name:      "contract_calls_total",
			Help:      "Contract calls grouped by method and outcome.",
		}, []string{"method", "outcome"}),
		Donations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climatefund",
			Name:      "donation_submissions_total",
			Help:      "Donation submissions grouped by final status.",
		}, []string{"status"}),
		LedgerWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climatefund",
			Name:      "nft_ledger_writes_total",
			Help:      "Virtual NFT ledger writes grouped by outcome.",
		}, []string{"outcome"}),
		RelayerLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "climatefund",
			Name:      "relayer_request_seconds",
			Help:      "Latency of FHE relayer requests.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.ContractCalls,
		m.Donations,
		m.LedgerWrites,
		m.RelayerLatency,
	)
	return m
}

// ObserveContractCall records the outcome of a single contract call. Safe on a nil receiver.
func (m *Metrics) ObserveContractCall(method string, err error) {
	if m == nil {
		return
	}
	m.ContractCalls.WithLabelValues(method, outcome(err)).Inc()
}

// ObserveLedgerWrite records a ledger write. Safe on a nil receiver.
func (m *Metrics) ObserveLedgerWrite(err error) {
	if m == nil {
		return
	}
	m.LedgerWrites.WithLabelValues(outcome(err)).Inc()
}

// ObserveDonation records a donation submission status. Safe on a nil receiver.
func (m *Metrics) ObserveDonation(status string) {
	if m == nil {
		return
	}
	m.Donations.WithLabelValues(status).Inc()
}

// ObserveRelayer records the latency of one relayer round trip. Safe on a nil receiver.
func (m *Metrics) ObserveRelayer(d time.Duration) {
	if m == nil {
		return
	}
	m.RelayerLatency.Observe(d.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
