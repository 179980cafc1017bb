// Package metrics exposes Prometheus metrics for assessment and matching.
package metrics

import (
	"time"

	"github.com/labfleet/labfleet/fleet"
	"github.com/labfleet/labfleet/match"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/context"
)

func init() {
	prometheus.MustRegister(LabsAssessed)
	prometheus.MustRegister(ReportsGenerated)
	prometheus.MustRegister(matchResults)
	prometheus.MustRegister(matchDuration)
}

// LabsAssessed counts lab pools scored by the diagnostic path.
var LabsAssessed = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "labfleet",
	Subsystem: "assess",
	Name:      "labs_total",
	Help:      "Number of lab pools assessed.",
})

// ReportsGenerated counts diagnostic reports produced.
var ReportsGenerated = prometheus.NewCounter(prometheus.CounterOpts{
	Namespace: "labfleet",
	Subsystem: "assess",
	Name:      "reports_total",
	Help:      "Number of diagnostic reports generated.",
})

var matchResults = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "labfleet",
		Subsystem: "match",
		Name:      "results_total",
		Help:      "Number of match calls by result.",
	},
	[]string{"result"},
)

var matchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
	Namespace: "labfleet",
	Subsystem: "match",
	Name:      "duration_seconds",
	Help:      "Time spent computing one device assignment.",
	Buckets:   prometheus.ExponentialBuckets(0.0001, 10, 7),
})

func init() {
	for _, r := range []string{"matched", "infeasible", "error"} {
		matchResults.WithLabelValues(r).Add(0)
	}
}

// InstrumentMatcher wraps a matcher so every call records its duration
// and result.
func InstrumentMatcher(m match.Matcher) match.Matcher {
	return &instrumentedMatcher{next: m}
}

type instrumentedMatcher struct {
	next match.Matcher
}

func (im *instrumentedMatcher) Match(ctx context.Context, pool []*fleet.Device, job *fleet.Job) ([]*fleet.Device, error) {
	start := time.Now()
	result, err := im.next.Match(ctx, pool, job)
	matchDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		matchResults.WithLabelValues("error").Inc()
	case result == nil:
		matchResults.WithLabelValues("infeasible").Inc()
	default:
		matchResults.WithLabelValues("matched").Inc()
	}
	return result, err
}
