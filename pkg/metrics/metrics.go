package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder exposes counters for the cluster menu
type Recorder struct {
	registry *prometheus.Registry
	commands *prometheus.CounterVec
	visible  *prometheus.GaugeVec
}

// New creates a recorder with its own registry
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cluster_menu_commands_total",
			Help: "Commands issued from the cluster menu",
		}, []string{"command"}),
		visible: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cluster_menu_visible_clusters",
			Help: "Number of clusters shown in the menu per workspace",
		}, []string{"workspace"}),
	}
	r.registry.MustRegister(
		r.commands,
		r.visible,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// CommandIssued counts a menu command
func (r *Recorder) CommandIssued(command string) {
	if r == nil {
		return
	}
	r.commands.WithLabelValues(command).Inc()
}

// VisibleClusters records how many icons a workspace shows
func (r *Recorder) VisibleClusters(workspaceID string, n int) {
	if r == nil {
		return
	}
	r.visible.WithLabelValues(workspaceID).Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
