// Package metrics holds the prometheus collectors shared by the workflow, the executor and
// the HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"strconv"
	"time"
)

const namespace = "toolrouter"

// UnknownTool labels calls to tools that are not in the catalog.
const UnknownTool = "unknown"

type Metrics struct {
	WorkflowRuns     *prometheus.CounterVec
	NodeDuration     *prometheus.HistogramVec
	ToolRequests     *prometheus.CounterVec
	ToolDuration     *prometheus.HistogramVec
	DecisionFailOpen prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		WorkflowRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_runs_total",
			Help:      "Workflow runs by domain and final node.",
		}, []string{"domain", "final_node"}),
		NodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_node_duration_seconds",
			Help:      "Time spent in each workflow node.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"node"}),
		ToolRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_requests_total",
			Help:      "Outbound tool calls by tool and status code.",
		}, []string{"tool", "status"}),
		ToolDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tool_request_duration_seconds",
			Help:      "Outbound tool call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
		DecisionFailOpen: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decision_fail_open_total",
			Help:      "Decisions that could not be parsed and were passed through as direct answers.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.WorkflowRuns, m.NodeDuration, m.ToolRequests, m.ToolDuration, m.DecisionFailOpen)
	}
	return m
}

func (m *Metrics) ObserveNode(node string, start time.Time) {
	if m == nil {
		return
	}
	m.NodeDuration.WithLabelValues(node).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveRun(domain, finalNode string) {
	if m == nil {
		return
	}
	m.WorkflowRuns.WithLabelValues(domain, finalNode).Inc()
}

// ObserveTool records one outbound call. tool must be a catalog id; an empty id is
// recorded as UnknownTool.
func (m *Metrics) ObserveTool(tool string, status int, start time.Time) {
	if m == nil {
		return
	}
	if tool == "" {
		tool = UnknownTool
	}
	m.ToolRequests.WithLabelValues(tool, strconv.Itoa(status)).Inc()
	m.ToolDuration.WithLabelValues(tool).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveFailOpen() {
	if m == nil {
		return
	}
	m.DecisionFailOpen.Inc()
}
