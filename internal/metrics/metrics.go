// Package metrics counts what gcff does to remote storage and exports it
// for the Prometheus textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/torfstack/gcff/internal/deploy"
)

const namespace = "gcff"

// Collector holds all Prometheus metrics of one gcff run.
type Collector struct {
	registry *prometheus.Registry

	ObjectsWritten prometheus.Counter
	ObjectsDeleted prometheus.Counter
	DeletesFailed  prometheus.Counter

	// PruneFiles is the size of each classification of the last prune scan.
	PruneFiles *prometheus.GaugeVec

	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
}

var _ deploy.Observer = (*Collector)(nil)

func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Collector{
		registry: reg,
		ObjectsWritten: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "objects_written_total",
				Help:      "Objects uploaded to storage",
			},
		),
		ObjectsDeleted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "objects_deleted_total",
				Help:      "Objects removed from storage",
			},
		),
		DeletesFailed: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "delete_failures_total",
				Help:      "Deletes that failed and were skipped",
			},
		),
		PruneFiles: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "prune_files",
				Help:      "Files per classification found by the last prune scan",
			},
			[]string{"class"},
		),
		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Commands run by result",
			},
			[]string{"command", "result"},
		),
		CommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "command_duration_seconds",
				Help:      "Command duration in seconds",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"command"},
		),
	}
}

func (c *Collector) ObjectWritten() {
	c.ObjectsWritten.Inc()
}

func (c *Collector) ObjectDeleted() {
	c.ObjectsDeleted.Inc()
}

func (c *Collector) DeleteFailed() {
	c.DeletesFailed.Inc()
}

func (c *Collector) PruneClassified(class string, count int) {
	c.PruneFiles.WithLabelValues(class).Set(float64(count))
}

// CommandFinished records the outcome of one command.
func (c *Collector) CommandFinished(command string, err error, took time.Duration) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	c.CommandsTotal.WithLabelValues(command, result).Inc()
	c.CommandDuration.WithLabelValues(command).Observe(took.Seconds())
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile atomically replaces path with the current metrics.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("could not write metrics to '%s': %w", path, err)
	}
	return nil
}
