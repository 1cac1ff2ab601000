package lstore

import (
	"fmt"
	"time"

	"github.com/VictoriaMetrics/metrics"
	gometrics "github.com/rcrowley/go-metrics"

	"github.com/ValentinKolb/dPref/lib/store"
)

// storeMetrics records the edits of one store instance.
//
// Exported counters and histograms (VictoriaMetrics, shared by all instances
// with the same store name) are exposed in Prometheus format by
// metrics.WritePrometheus. The per instance statistics (go-metrics) back
// store.Info.
type storeMetrics struct {
	// exported
	commits      *metrics.Counter
	noops        *metrics.Counter
	aborts       *metrics.Counter
	failures     *metrics.Counter
	loadFailures *metrics.Counter
	duration     *metrics.Histogram

	// per instance
	instCommits  gometrics.Counter
	instAborts   gometrics.Counter
	instFailures gometrics.Counter
	instDuration gometrics.Histogram
}

func newStoreMetrics(name string) *storeMetrics {
	label := func(metric string) string {
		return fmt.Sprintf(`%s{store=%q}`, metric, name)
	}

	return &storeMetrics{
		commits:      metrics.GetOrCreateCounter(label("dpref_store_commits_total")),
		noops:        metrics.GetOrCreateCounter(label("dpref_store_noop_edits_total")),
		aborts:       metrics.GetOrCreateCounter(label("dpref_store_aborted_edits_total")),
		failures:     metrics.GetOrCreateCounter(label("dpref_store_failed_saves_total")),
		loadFailures: metrics.GetOrCreateCounter(label("dpref_store_failed_loads_total")),
		duration:     metrics.GetOrCreateHistogram(label("dpref_store_edit_duration_seconds")),

		instCommits:  gometrics.NewCounter(),
		instAborts:   gometrics.NewCounter(),
		instFailures: gometrics.NewCounter(),
		instDuration: gometrics.NewHistogram(gometrics.NewUniformSample(1028)),
	}
}

// commit records a successful edit, written is false for edits that changed nothing
func (m *storeMetrics) commit(d time.Duration, written bool) {
	if written {
		m.commits.Inc()
	} else {
		m.noops.Inc()
	}
	m.duration.Update(d.Seconds())

	m.instCommits.Inc(1)
	m.instDuration.Update(d.Microseconds())
}

func (m *storeMetrics) abort() {
	m.aborts.Inc()
	m.instAborts.Inc(1)
}

func (m *storeMetrics) fail() {
	m.failures.Inc()
	m.instFailures.Inc(1)
}

func (m *storeMetrics) snapshot() store.EditStats {
	h := m.instDuration.Snapshot()
	toMs := func(us float64) float64 { return us / 1000 }

	return store.EditStats{
		Commits:  m.instCommits.Count(),
		Aborts:   m.instAborts.Count(),
		Failures: m.instFailures.Count(),
		MeanMs:   toMs(h.Mean()),
		P50Ms:    toMs(h.Percentile(0.5)),
		P99Ms:    toMs(h.Percentile(0.99)),
		MaxMs:    toMs(float64(h.Max())),
	}
}
