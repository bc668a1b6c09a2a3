package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/common/model"
)

// Output partitions, in the order they are written.
var partitions = []string{"x_train", "x_test", "y_train", "y_test"}

type Config struct {
	Mode             string
	Dataset          string
	OutputDir        string
	Prefix           string
	TestSize         float64
	Seed             uint64
	SeedSet          bool
	ManifestFile     string
	MetricsFile      string
	Labels           string
	LabelMap         map[string]string
	PrometheusConfig PrometheusConfig
}

func (c *Config) Validate() error {
	if err := c.validateCommon(); err != nil {
		return err
	}

	switch c.Mode {
	case "split":
		return c.validateSplit()
	case "verify":
		return nil
	default:
		return errors.Errorf("unrecognized mode %q", c.Mode)
	}
}

func (c *Config) validateCommon() error {
	if c.OutputDir == "" {
		return errors.Errorf("output directory must be set")
	}

	if c.Prefix == "" {
		return errors.Errorf("file prefix must be set")
	}

	if strings.ContainsRune(c.Prefix, filepath.Separator) {
		return errors.Errorf("file prefix %q must not contain a path separator", c.Prefix)
	}

	return nil
}

func (c *Config) validateSplit() error {
	if _, ok := providers[c.Dataset]; !ok {
		return errors.Errorf("unsupported dataset %q, must be one of %v", c.Dataset, providerNames())
	}

	if !(c.TestSize > 0 && c.TestSize < 1) {
		return errors.Errorf("test size must be in (0, 1), got %v", c.TestSize)
	}

	if pushURL, ok := os.LookupEnv("PUSHGATEWAY_URL"); ok && c.PrometheusConfig.PushURL == "" {
		c.PrometheusConfig.PushURL = pushURL
	}

	if c.PrometheusConfig.PushURL != "" {
		c.PrometheusConfig.Enabled = true
		if c.PrometheusConfig.JobName == "" {
			return errors.Errorf("a job name is required when pushing metrics")
		}
	}

	c.parseLabels()
	reserved := manifestKeys()
	for key := range c.LabelMap {
		if !model.LabelName(key).IsValid() {
			return errors.Errorf("invalid metric label %q", key)
		}
		if key == "partition" || reserved[key] {
			return errors.Errorf("label %q is reserved for a metric label or manifest field", key)
		}
	}

	return nil
}

func (c *Config) parseLabels() {
	result := make(map[string]string)
	if c.Labels == "" {
		c.LabelMap = result
		return
	}

	pairs := strings.Split(c.Labels, ",")

	for _, pair := range pairs {
		kv := strings.SplitN(pair, "=", 2) // SplitN to make sure we only split on the first "="
		if len(kv) == 2 {
			result[kv[0]] = kv[1]
		}
	}

	c.LabelMap = result
}

// partitionPath is the file a partition is written to, e.g. data/iris_x_train.tsv.
func (c Config) partitionPath(partition string) string {
	return filepath.Join(c.OutputDir, fmt.Sprintf("%s_%s.tsv", c.Prefix, partition))
}
