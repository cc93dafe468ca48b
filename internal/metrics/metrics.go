// Package metrics exposes Prometheus counters for session synchronization.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is what the session client components report to.
type Recorder interface {
	RecordTransition(kind string)
	RecordAuthCheckFailure()
	RecordActivityQueryFailure()
	RecordSignOutFailure()
	RecordRedirect(path string)
}

// Nop discards everything.
type Nop struct{}

var _ Recorder = Nop{}

func (Nop) RecordTransition(string) {}
func (Nop) RecordAuthCheckFailure() {}
func (Nop) RecordActivityQueryFailure() {}
func (Nop) RecordSignOutFailure() {}
func (Nop) RecordRedirect(string) {}

// Collector is the Prometheus backed Recorder.
type Collector struct {
	transitions  *prometheus.CounterVec
	authFail     prometheus.Counter
	activityFail prometheus.Counter
	signOutFail  prometheus.Counter
	redirects    *prometheus.CounterVec
}

var _ Recorder = (*Collector)(nil)

// NewCollector creates a Collector and registers it on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postureiq_session_transitions_total",
			Help: "Session transitions applied to the session store, by kind",
		}, []string{"kind"}),
		authFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postureiq_auth_check_failures_total",
			Help: "Session or user fetches that failed and were treated as signed out",
		}),
		activityFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postureiq_activity_query_failures_total",
			Help: "Activity queries that failed and fell back to an empty heatmap",
		}),
		signOutFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "postureiq_sign_out_failures_total",
			Help: "Provider sign out calls that failed",
		}),
		redirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "postureiq_navigation_redirects_total",
			Help: "Redirects issued by the navigation guard, by target path",
		}, []string{"path"}),
	}

	reg.MustRegister(
		c.transitions,
		c.authFail,
		c.activityFail,
		c.signOutFail,
		c.redirects,
	)
	return c
}

func (c *Collector) RecordTransition(kind string) {
	c.transitions.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordAuthCheckFailure() {
	c.authFail.Inc()
}

func (c *Collector) RecordActivityQueryFailure() {
	c.activityFail.Inc()
}

func (c *Collector) RecordSignOutFailure() {
	c.signOutFail.Inc()
}

func (c *Collector) RecordRedirect(path string) {
	c.redirects.WithLabelValues(path).Inc()
}
