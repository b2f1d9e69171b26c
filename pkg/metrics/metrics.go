// Package metrics records the outcome of a lexicon build in a private
// Prometheus registry that can be exported as a node-exporter textfile.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/japaniel/namelex/pkg/emit"
	"github.com/japaniel/namelex/pkg/lexicon"
)

const namespace = "namelex"

// Recorder holds the gauges of a single run.
type Recorder struct {
	reg *prometheus.Registry

	candidates    *prometheus.GaugeVec
	entries       *prometheus.GaugeVec
	ambiguous     prometheus.Gauge
	rejected      prometheus.Gauge
	artifactBytes *prometheus.GaugeVec
	artifactFail  *prometheus.GaugeVec
	stageSeconds  *prometheus.GaugeVec
	lastRun       prometheus.Gauge
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		candidates: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "candidates",
			Help:      "Distinct normalized candidate names by kind.",
		}, []string{"kind"}),
		entries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "lexicon_entries",
			Help:      "Lexicon entries by tag.",
		}, []string{"tag"}),
		ambiguous: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ambiguous_names",
			Help:      "Names found as both first and last names.",
		}),
		rejected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rejected_countries",
			Help:      "Requested country codes the dataset does not recognize.",
		}),
		artifactBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "artifact_bytes",
			Help:      "Size of each written artifact.",
		}, []string{"format"}),
		artifactFail: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "artifact_failed",
			Help:      "1 when the artifact could not be written.",
		}, []string{"format"}),
		stageSeconds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time spent in each pipeline stage.",
		}, []string{"stage"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the run finished.",
		}),
	}
	r.reg.MustRegister(
		r.candidates, r.entries, r.ambiguous, r.rejected,
		r.artifactBytes, r.artifactFail, r.stageSeconds, r.lastRun,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

func (r *Recorder) ObserveStats(s lexicon.Stats) {
	r.candidates.WithLabelValues("first").Set(float64(s.FirstCandidates))
	r.candidates.WithLabelValues("last").Set(float64(s.LastCandidates))
	r.entries.WithLabelValues(lexicon.FirstName.String()).Set(float64(s.TaggedFirst))
	r.entries.WithLabelValues(lexicon.LastName.String()).Set(float64(s.TaggedLast))
	r.ambiguous.Set(float64(s.Ambiguous))
}

func (r *Recorder) ObserveRejected(n int) {
	r.rejected.Set(float64(n))
}

func (r *Recorder) ObserveArtifact(res emit.Result) {
	format := string(res.Format)
	if res.Err != nil {
		r.artifactFail.WithLabelValues(format).Set(1)
		r.artifactBytes.WithLabelValues(format).Set(0)
		return
	}
	r.artifactFail.WithLabelValues(format).Set(0)
	r.artifactBytes.WithLabelValues(format).Set(float64(res.Bytes))
}

func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	r.stageSeconds.WithLabelValues(stage).Set(d.Seconds())
}

// WriteTextfile stamps the run time and writes every metric to path.
func (r *Recorder) WriteTextfile(path string, finished time.Time) error {
	r.lastRun.Set(float64(finished.Unix()))
	return prometheus.WriteToTextfile(path, r.reg)
}
