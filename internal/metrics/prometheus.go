package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus implements Collector backed by Prometheus.
type Prometheus struct {
	completions  prometheus.Counter
	reassigned   prometheus.Counter
	projections  prometheus.Histogram
	overdue      prometheus.Counter
	httpRequests *prometheus.CounterVec
}

// Compile-time assertion that Prometheus implements Collector.
var _ Collector = (*Prometheus)(nil)

// NewPrometheus creates and registers the collectors.
//
// Parameters:
//   - reg: Prometheus registerer (uses prometheus.DefaultRegisterer if nil)
//   - namespace: metrics namespace (defaults to "chorewheel" if empty)
func NewPrometheus(reg prometheus.Registerer, namespace string) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "chorewheel"
	}

	p := &Prometheus{
		completions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "completions_total",
			Help:      "Total chore turns marked complete.",
		}),
		reassigned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "assignee_changes_total",
			Help:      "Total recomputations that changed a chore's next assignee.",
		}),
		projections: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "calendar_entries",
			Help:      "Entries produced per calendar projection.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100, 250},
		}),
		overdue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rollover",
			Name:      "overdue_carried_total",
			Help:      "Total overdue chores moved forward to the current day.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by method and status code.",
		}, []string{"method", "status"}),
	}

	for _, c := range []prometheus.Collector{p.completions, p.reassigned, p.projections, p.overdue, p.httpRequests} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) ChoreCompleted()  { p.completions.Inc() }
func (p *Prometheus) AssigneeChanged() { p.reassigned.Inc() }

func (p *Prometheus) CalendarProjected(entries int) {
	p.projections.Observe(float64(entries))
}

func (p *Prometheus) OverdueCarried(n int) {
	p.overdue.Add(float64(n))
}

func (p *Prometheus) HTTPRequest(method string, status int) {
	p.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}
