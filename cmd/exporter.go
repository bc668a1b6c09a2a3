package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	namespace = "irisprep"
)

var (
	exporterDir  string
	exporterPort int
)

// Exporter publishes the latest manifest of every dataset as gauges.
type Exporter struct {
	metrics map[string]*prometheus.GaugeVec
}

func NewExporter(registerer prometheus.Registerer) *Exporter {
	e := &Exporter{
		metrics: make(map[string]*prometheus.GaugeVec),
	}
	e.initializeMetrics(registerer)
	return e
}

func (e *Exporter) initializeMetrics(registerer prometheus.Registerer) {
	labels := []string{"dataset"}

	metricNames := []struct {
		name string
		help string
	}{
		{"manifest_rows", "Rows in the dataset of the latest split"},
		{"manifest_train_rows", "Train rows of the latest split"},
		{"manifest_test_rows", "Test rows of the latest split"},
		{"manifest_feature_columns", "Feature columns of the latest split"},
		{"manifest_label_columns", "Label columns of the latest split"},
		{"manifest_duration_seconds", "Duration of the latest split"},
		{"manifest_timestamp_seconds", "Start time of the latest split"},
	}

	factory := promauto.With(registerer)
	for _, metric := range metricNames {
		e.metrics[metric.name] = factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      metric.name,
				Help:      metric.help,
			},
			labels,
		)
	}
}

func (e *Exporter) processManifestFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read manifest %s", path)
	}

	var manifest SplitResult
	if err := json.Unmarshal(content, &manifest); err != nil {
		return errors.Wrapf(err, "parse manifest %s", path)
	}
	if manifest.Dataset == "" {
		return errors.Errorf("manifest %s names no dataset", path)
	}

	labels := prometheus.Labels{"dataset": manifest.Dataset}
	values := map[string]float64{
		"manifest_rows":             float64(manifest.Rows),
		"manifest_train_rows":       float64(manifest.TrainRows),
		"manifest_test_rows":        float64(manifest.TestRows),
		"manifest_feature_columns":  float64(manifest.FeatureColumns),
		"manifest_label_columns":    float64(manifest.LabelColumns),
		"manifest_duration_seconds": manifest.Duration,
	}
	if ts, err := time.Parse(time.RFC3339, manifest.Timestamp); err == nil {
		values["manifest_timestamp_seconds"] = float64(ts.Unix())
	}

	for name, value := range values {
		if metric := e.metrics[name]; metric != nil {
			metric.With(labels).Set(value)
		}
	}

	log.WithFields(log.Fields{"file": path, "run_id": manifest.RunID}).Debug("Processed manifest")
	return nil
}

// watchDirectory processes the manifests already in dirPath and then every
// manifest written there until ctx is cancelled.
func watchDirectory(ctx context.Context, dirPath string, exporter *Exporter) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating watcher: %w", err)
	}

	files, err := os.ReadDir(dirPath)
	if err != nil {
		watcher.Close()
		return fmt.Errorf("error reading directory: %w", err)
	}

	for _, file := range files {
		if filepath.Ext(file.Name()) == ".json" {
			fullPath := filepath.Join(dirPath, file.Name())
			if err := exporter.processManifestFile(fullPath); err != nil {
				log.WithError(err).Warn("Skipping existing file")
			}
		}
	}

	if err := watcher.Add(dirPath); err != nil {
		watcher.Close()
		return fmt.Errorf("error adding directory to watcher: %w", err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					if filepath.Ext(event.Name) == ".json" {
						if err := exporter.processManifestFile(event.Name); err != nil {
							log.WithError(err).Warn("Error processing file")
						}
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Error("Error watching directory")
			}
		}
	}()

	return nil
}

func exporterHandler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>
			<head><title>irisprep Manifest Exporter</title></head>
			<body>
				<h1>irisprep Manifest Exporter</h1>
				<p><a href="/metrics">Metrics</a></p>
			</body>
			</html>`))
	})
	return mux
}

var exporterCmd = &cobra.Command{
	Use:   "exporter",
	Short: "Serve split manifests as Prometheus metrics",
	Long:  `Watches a directory of split manifests (.json) and exports the latest values per dataset over HTTP`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if exporterDir == "" {
			return errors.Errorf("directory path is required")
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		registry := prometheus.NewRegistry()
		exporter := NewExporter(registry)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if err := watchDirectory(ctx, exporterDir, exporter); err != nil {
			fatal(err)
		}

		serverAddr := fmt.Sprintf(":%d", exporterPort)
		log.WithFields(log.Fields{"addr": serverAddr, "dir": exporterDir}).Info("Starting metrics server")
		if err := http.ListenAndServe(serverAddr, exporterHandler(registry)); err != nil {
			fatal(err)
		}
	},
}

func initExporter() {
	rootCmd.AddCommand(exporterCmd)
	exporterCmd.Flags().StringVar(&exporterDir, "dir", "", "Manifest directory to watch (required)")
	exporterCmd.MarkFlagRequired("dir")
	exporterCmd.Flags().IntVarP(&exporterPort, "port", "p", 2120, "Port to serve metrics on")
}
