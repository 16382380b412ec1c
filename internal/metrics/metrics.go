package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Domain holds the business counters exported at /metrics.
// A nil *Domain is valid and records nothing.
type Domain struct {
	DocumentsIngested  prometheus.Counter
	IngestFailures     *prometheus.CounterVec
	OrdersCreated      prometheus.Counter
	OrdersDispatched   prometheus.Counter
	PrintJobs          *prometheus.CounterVec
	SweeperDeleted     prometheus.Counter
	SweeperFailures    *prometheus.CounterVec
	SweeperRunDuration prometheus.Histogram
}

// New creates the domain metrics and registers them on reg.
func New(reg prometheus.Registerer) (*Domain, error) {
	d := &Domain{
		DocumentsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "printdesk_documents_ingested_total",
			Help: "Documents stored with a page count and printable artifact.",
		}),
		IngestFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "printdesk_ingest_failures_total",
			Help: "Rejected or rolled back uploads by reason.",
		}, []string{"reason"}),
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "printdesk_orders_created_total",
			Help: "Orders priced and persisted.",
		}),
		OrdersDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "printdesk_orders_dispatched_total",
			Help: "Orders fully printed and closed.",
		}),
		PrintJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "printdesk_print_jobs_total",
			Help: "Print jobs sent to the printer by result.",
		}, []string{"result"}),
		SweeperDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "printdesk_sweeper_deleted_total",
			Help: "Expired documents removed by the retention sweeper.",
		}),
		SweeperFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "printdesk_sweeper_failures_total",
			Help: "Retention sweeper failures by stage.",
		}, []string{"stage"}),
		SweeperRunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "printdesk_sweeper_run_duration_seconds",
			Help:    "Duration of one retention sweep.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{
		d.DocumentsIngested,
		d.IngestFailures,
		d.OrdersCreated,
		d.OrdersDispatched,
		d.PrintJobs,
		d.SweeperDeleted,
		d.SweeperFailures,
		d.SweeperRunDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Domain) DocumentIngested() {
	if d != nil {
		d.DocumentsIngested.Inc()
	}
}

func (d *Domain) IngestFailed(reason string) {
	if d != nil {
		d.IngestFailures.WithLabelValues(reason).Inc()
	}
}

func (d *Domain) OrderCreated() {
	if d != nil {
		d.OrdersCreated.Inc()
	}
}

func (d *Domain) OrderDispatched() {
	if d != nil {
		d.OrdersDispatched.Inc()
	}
}

func (d *Domain) PrintJob(result string) {
	if d != nil {
		d.PrintJobs.WithLabelValues(result).Inc()
	}
}

func (d *Domain) SweptDocument() {
	if d != nil {
		d.SweeperDeleted.Inc()
	}
}

func (d *Domain) SweepFailed(stage string) {
	if d != nil {
		d.SweeperFailures.WithLabelValues(stage).Inc()
	}
}

func (d *Domain) SweepDuration(seconds float64) {
	if d != nil {
		d.SweeperRunDuration.Observe(seconds)
	}
}
