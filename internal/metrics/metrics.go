package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every iamsync collector. It is separate from the default
// registry so textfile dumps contain only reconcile metrics.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// ReconcileTotal counts finished reconcile operations by outcome.
	ReconcileTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "iamsync_reconcile_total",
		Help: "Total number of reconcile operations",
	}, []string{"operation", "result"})

	// ReconcileRetriesTotal counts attempts that were retried.
	ReconcileRetriesTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "iamsync_reconcile_retries_total",
		Help: "Total number of retried reconcile attempts",
	}, []string{"operation"})

	// APIRequestsTotal counts IAM API calls issued by the adapter.
	APIRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "iamsync_api_requests_total",
		Help: "Total number of IAM API requests",
	}, []string{"action"})

	// APIErrorsTotal counts failed IAM API calls by error kind.
	APIErrorsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "iamsync_api_errors_total",
		Help: "Total number of IAM API errors",
	}, []string{"action", "kind"})
)

// WriteTextfile writes the registry in Prometheus text format to path,
// suitable for the node-exporter textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
