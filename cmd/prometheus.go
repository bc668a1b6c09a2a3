package cmd

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	log "github.com/sirupsen/logrus"
)

// PrometheusConfig holds configuration for Prometheus metrics reporting
type PrometheusConfig struct {
	Enabled bool
	PushURL string
	JobName string
}

// SplitMetrics holds the Prometheus metrics describing one split run
type SplitMetrics struct {
	PartitionRows  *prometheus.GaugeVec
	FeatureColumns prometheus.Gauge
	LabelColumns   prometheus.Gauge
	TestFraction   prometheus.Gauge
	Duration       prometheus.Gauge
	LastRun        prometheus.Gauge
}

// NewSplitMetrics creates and registers the split metrics
func NewSplitMetrics(registry *prometheus.Registry, labels prometheus.Labels) *SplitMetrics {
	metrics := &SplitMetrics{
		PartitionRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "irisprep_partition_rows",
			Help:        "Number of rows written per partition",
			ConstLabels: labels,
		}, []string{"partition"}),
		FeatureColumns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "irisprep_feature_columns",
			Help:        "Number of feature columns",
			ConstLabels: labels,
		}),
		LabelColumns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "irisprep_label_columns",
			Help:        "Width of the encoded label rows",
			ConstLabels: labels,
		}),
		TestFraction: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "irisprep_test_fraction",
			Help:        "Requested test fraction",
			ConstLabels: labels,
		}),
		Duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "irisprep_duration_seconds",
			Help:        "Wall time of the split run in seconds",
			ConstLabels: labels,
		}),
		LastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "irisprep_last_run_timestamp_seconds",
			Help:        "Unix time the split run finished",
			ConstLabels: labels,
		}),
	}

	registry.MustRegister(
		metrics.PartitionRows,
		metrics.FeatureColumns,
		metrics.LabelColumns,
		metrics.TestFraction,
		metrics.Duration,
		metrics.LastRun,
	)

	return metrics
}

// newRunRegistry builds a registry holding the metrics of a finished run
func newRunRegistry(cfg *Config, result *SplitResult) *prometheus.Registry {
	registry := prometheus.NewRegistry()

	labels := prometheus.Labels{
		"dataset": result.Dataset,
		"run_id":  result.RunID,
	}

	// Add custom labels from config
	for key, value := range cfg.LabelMap {
		labels[key] = value
	}

	metrics := NewSplitMetrics(registry, labels)

	metrics.PartitionRows.WithLabelValues("train").Set(float64(result.TrainRows))
	metrics.PartitionRows.WithLabelValues("test").Set(float64(result.TestRows))
	metrics.FeatureColumns.Set(float64(result.FeatureColumns))
	metrics.LabelColumns.Set(float64(result.LabelColumns))
	metrics.TestFraction.Set(result.TestSize)
	metrics.Duration.Set(result.Duration)
	metrics.LastRun.Set(float64(time.Now().Unix()))

	return registry
}

// PushMetricsToPrometheus pushes the run metrics to a Prometheus pushgateway
func PushMetricsToPrometheus(cfg *Config, registry prometheus.Gatherer, result *SplitResult) error {
	if !cfg.PrometheusConfig.Enabled || cfg.PrometheusConfig.PushURL == "" {
		return nil
	}

	pusher := push.New(cfg.PrometheusConfig.PushURL, cfg.PrometheusConfig.JobName).
		Gatherer(registry)

	if err := pusher.Push(); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"url":     cfg.PrometheusConfig.PushURL,
		"job":     cfg.PrometheusConfig.JobName,
		"run_id":  result.RunID,
		"dataset": result.Dataset,
	}).Info("Successfully pushed metrics to Prometheus")

	return nil
}
