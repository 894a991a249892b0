package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"galax.network/internal/persistence/indexdb"
	"galax.network/internal/sim/world"
)

// serverMetrics exports world block stats. It is the world's BlockObserver.
type serverMetrics struct {
	registry *prometheus.Registry

	height     prometheus.Gauge
	inboxDepth prometheus.Gauge
	blockTxs   prometheus.Histogram
	stepSecs   prometheus.Histogram
	txs        *prometheus.CounterVec
}

func newMetrics(worldID string, idx *indexdb.SQLiteIndex) *serverMetrics {
	labels := prometheus.Labels{"world": worldID}
	m := &serverMetrics{
		registry: prometheus.NewRegistry(),
		height: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "galax", Subsystem: "world", Name: "height",
			Help: "Last applied block height.", ConstLabels: labels,
		}),
		inboxDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "galax", Subsystem: "world", Name: "inbox_depth",
			Help: "Transactions waiting for the next block.", ConstLabels: labels,
		}),
		blockTxs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "galax", Subsystem: "world", Name: "block_txs",
			Help: "Transactions per applied block.", ConstLabels: labels,
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		stepSecs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "galax", Subsystem: "world", Name: "block_step_seconds",
			Help: "Time spent applying one block.", ConstLabels: labels,
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		}),
		txs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "galax", Subsystem: "world", Name: "txs_total",
			Help: "Applied transactions by result code (OK when accepted).", ConstLabels: labels,
		}, []string{"code"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.height, m.inboxDepth, m.blockTxs, m.stepSecs, m.txs,
	)
	if idx != nil {
		m.registry.MustRegister(
			prometheus.NewGaugeFunc(prometheus.GaugeOpts{
				Namespace: "galax", Subsystem: "index", Name: "queue_depth",
				Help: "Pending read-model index writes.", ConstLabels: labels,
			}, func() float64 { return float64(idx.Stats().QueueDepth) }),
			prometheus.NewCounterFunc(prometheus.CounterOpts{
				Namespace: "galax", Subsystem: "index", Name: "dropped_total",
				Help: "Index writes dropped because the queue was full.", ConstLabels: labels,
			}, func() float64 {
				s := idx.Stats()
				return float64(s.DropBlockTotal + s.DropEventTotal + s.DropSnapshotTotal)
			}),
		)
	}
	return m
}

func (m *serverMetrics) ObserveBlock(s world.BlockStats) {
	m.height.Set(float64(s.Height))
	m.inboxDepth.Set(float64(s.InboxDepth))
	m.blockTxs.Observe(float64(s.TxCount))
	m.stepSecs.Observe(s.Step.Seconds())
	for _, code := range s.Codes {
		if code == "" {
			code = "OK"
		}
		m.txs.WithLabelValues(code).Inc()
	}
}

func (m *serverMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
