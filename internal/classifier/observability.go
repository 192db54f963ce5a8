// Prometheus instrumentation for classification outcomes.
//
// Resolve itself stays pure; callers that persist a classification record the
// outcome here. Labels are bounded: six categories by two sources.
package classifier

import "github.com/prometheus/client_golang/prometheus"

var classifications = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "complaint_classifications_total",
		Help: "Total classified complaints by category and prediction source.",
	},
	[]string{"category", "source"},
)

func init() {
	prometheus.MustRegister(classifications)
}

// RecordClassification counts one classification outcome.
func RecordClassification(category string, source Provenance) {
	classifications.WithLabelValues(category, source).Inc()
}
