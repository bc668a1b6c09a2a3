package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// writeMetrics encodes the gathered metrics in the Prometheus text format
// so a node_exporter textfile collector can pick them up.
func writeMetrics(w io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encode metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// readMetricsFile parses a metrics file written by writeMetrics.
func readMetricsFile(path string) (map[string]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	parser := expfmt.TextParser{}
	families, err := parser.TextToMetricFamilies(f)
	if err != nil {
		return nil, err
	}

	values := make(map[string]float64)
	for name, mf := range families {
		for _, m := range mf.GetMetric() {
			key := name
			for _, lbl := range m.GetLabel() {
				if lbl.GetName() == "partition" {
					key = fmt.Sprintf("%s{partition=%q}", name, lbl.GetValue())
				}
			}
			values[key] = m.GetGauge().GetValue()
		}
	}
	return values, nil
}
