package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/semi-technologies/irisprep/internal/dataset"
	"github.com/semi-technologies/irisprep/internal/prep"
	"github.com/semi-technologies/irisprep/internal/tsv"
)

var providers = map[string]dataset.Provider{
	dataset.Iris{}.Name(): dataset.Iris{},
}

func providerNames() []string {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SplitResult describes one completed split run. It is also the manifest
// format.
type SplitResult struct {
	RunID          string            `json:"run_id"`
	Dataset        string            `json:"dataset"`
	Timestamp      string            `json:"timestamp"`
	Seed           uint64            `json:"seed"`
	TestSize       float64           `json:"test_size"`
	Rows           int               `json:"rows"`
	TrainRows      int               `json:"train_rows"`
	TestRows       int               `json:"test_rows"`
	FeatureColumns int               `json:"feature_columns"`
	LabelColumns   int               `json:"label_columns"`
	FeatureNames   []string          `json:"feature_names"`
	ClassNames     []string          `json:"class_names"`
	Files          map[string]string `json:"files"`
	Duration       float64           `json:"duration_seconds"`
}

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Write train/test TSV partitions of the dataset",
	Long:  `Casts features to integers, one-hot encodes the labels, randomly splits the rows and writes x_train, x_test, y_train and y_test TSV files into an existing output directory`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := globalConfig
		cfg.Mode = "split"
		cfg.SeedSet = cmd.Flags().Changed("seed")

		if err := cfg.Validate(); err != nil {
			fatal(err)
		}

		result, err := runSplit(&cfg, providers[cfg.Dataset])
		if err != nil {
			fatal(err)
		}

		log.WithFields(log.Fields{"train": result.TrainRows, "test": result.TestRows,
			"seed": result.Seed, "run_id": result.RunID}).Info("Split complete")

		for _, p := range partitions {
			successf("wrote %s", result.Files[p])
		}
		if !cfg.SeedSet {
			infof("seeded from the clock, pass --seed %d to reproduce this split", result.Seed)
		}
	},
}

func initSplit() {
	rootCmd.AddCommand(splitCmd)
	splitCmd.PersistentFlags().StringVarP(&globalConfig.Dataset,
		"dataset", "d", "iris", "Bundled dataset to split")
	splitCmd.PersistentFlags().StringVarP(&globalConfig.OutputDir,
		"output-dir", "o", "data", "Existing directory the TSV files are written to")
	splitCmd.PersistentFlags().StringVar(&globalConfig.Prefix,
		"prefix", "iris", "File name prefix, files are named <prefix>_<partition>.tsv")
	splitCmd.PersistentFlags().Float64VarP(&globalConfig.TestSize,
		"test-size", "t", prep.DefaultTestFraction, "Fraction of rows in the test partition, rounded up")
	splitCmd.PersistentFlags().Uint64VarP(&globalConfig.Seed,
		"seed", "s", 0, "Seed for the row permutation (random if not set)")
	splitCmd.PersistentFlags().StringVar(&globalConfig.ManifestFile,
		"manifest", "", "Write a JSON summary of the run to this file")
	splitCmd.PersistentFlags().StringVar(&globalConfig.MetricsFile,
		"metrics-file", "", "Write run metrics in Prometheus text format to this file")
	splitCmd.PersistentFlags().StringVar(&globalConfig.PrometheusConfig.PushURL,
		"push-url", "", "Prometheus pushgateway URL (disabled if empty)")
	splitCmd.PersistentFlags().StringVar(&globalConfig.PrometheusConfig.JobName,
		"job", "irisprep", "Job name used when pushing metrics")
	splitCmd.PersistentFlags().StringVarP(&globalConfig.Labels,
		"labels", "l", "", "Extra metric and manifest labels of format key1=value1,key2=value2,...")
}

// runSplit loads the dataset, encodes and splits it and writes the four
// partitions. Either all partition files are replaced or none are.
func runSplit(cfg *Config, provider dataset.Provider) (*SplitResult, error) {
	startTime := time.Now()

	seed := cfg.Seed
	if !cfg.SeedSet {
		seed = uint64(startTime.UnixNano())
	}

	ds, err := provider.Load()
	if err != nil {
		return nil, errors.Wrapf(err, "load dataset %s", provider.Name())
	}

	log.WithFields(log.Fields{"dataset": provider.Name(), "rows": ds.Rows(),
		"classes": len(ds.ClassNames)}).Debug("Loaded dataset")

	x := prep.CastFeatures(ds.Features)

	encoder, err := prep.NewLabelEncoder(ds.Classes())
	if err != nil {
		return nil, err
	}
	y, err := encoder.Encode(ds.Labels)
	if err != nil {
		return nil, err
	}

	split, err := prep.NewSplitter(cfg.TestSize, seed).Split(x, y)
	if err != nil {
		return nil, err
	}

	outputs := map[string]*mat.Dense{
		"x_train": split.XTrain,
		"x_test":  split.XTest,
		"y_train": split.YTrain,
		"y_test":  split.YTest,
	}

	files := make(map[string]string, len(partitions))
	var stage tsv.Stage
	for _, p := range partitions {
		path := cfg.partitionPath(p)
		if err := stage.Add(path, outputs[p], tsv.FormatInt); err != nil {
			stage.Abort()
			return nil, err
		}
		files[p] = path
	}

	_, featureCols := x.Dims()
	result := &SplitResult{
		RunID:          uuid.NewString(),
		Dataset:        provider.Name(),
		Timestamp:      startTime.UTC().Format(time.RFC3339),
		Seed:           seed,
		TestSize:       cfg.TestSize,
		Rows:           ds.Rows(),
		TrainRows:      len(split.TrainIndex),
		TestRows:       len(split.TestIndex),
		FeatureColumns: featureCols,
		LabelColumns:   encoder.Width(),
		FeatureNames:   ds.FeatureNames,
		ClassNames:     ds.ClassNames,
		Files:          files,
		Duration:       time.Since(startTime).Seconds(),
	}

	// The manifest and metrics file are committed with the partitions, so a
	// bad destination leaves the previous partitions in place.
	if cfg.ManifestFile != "" {
		manifest, err := encodeManifest(cfg, result)
		if err != nil {
			stage.Abort()
			return nil, err
		}
		if err := stage.AddFunc(cfg.ManifestFile, func(w io.Writer) error {
			_, err := w.Write(manifest)
			return err
		}); err != nil {
			stage.Abort()
			return nil, errors.WithMessage(err, "manifest")
		}
	}

	var registry *prometheus.Registry
	if cfg.MetricsFile != "" || cfg.PrometheusConfig.Enabled {
		registry = newRunRegistry(cfg, result)
	}
	if cfg.MetricsFile != "" {
		if err := stage.AddFunc(cfg.MetricsFile, func(w io.Writer) error {
			return writeMetrics(w, registry)
		}); err != nil {
			stage.Abort()
			return nil, errors.WithMessage(err, "metrics file")
		}
	}

	staged := stage.Paths()
	if err := stage.Commit(); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"duration": time.Since(startTime), "files": staged}).Debug("Wrote outputs")

	// The partitions are already in place, a failed push only costs the metrics.
	if registry != nil {
		if err := PushMetricsToPrometheus(cfg, registry, result); err != nil {
			log.WithError(err).WithField("url", cfg.PrometheusConfig.PushURL).
				Warn("Failed to push metrics to Prometheus, partitions were written")
		}
	}

	return result, nil
}

// manifestKeys are the top level manifest fields. Labels must not reuse them.
func manifestKeys() map[string]bool {
	keys := make(map[string]bool)
	t := reflect.TypeOf(SplitResult{})
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		keys[name] = true
	}
	return keys
}

// encodeManifest renders result as JSON, merged with the configured labels.
func encodeManifest(cfg *Config, result *SplitResult) ([]byte, error) {
	jsonData, err := json.Marshal(result)
	if err != nil {
		return nil, errors.Wrap(err, "convert result to json")
	}

	// UseNumber keeps 64-bit seeds exact.
	var resultMap map[string]interface{}
	decoder := json.NewDecoder(bytes.NewReader(jsonData))
	decoder.UseNumber()
	if err := decoder.Decode(&resultMap); err != nil {
		return nil, errors.Wrap(err, "convert json to map")
	}

	for key, value := range cfg.LabelMap {
		if _, ok := resultMap[key]; ok {
			return nil, errors.Errorf("label %q overwrites a manifest field", key)
		}
		resultMap[key] = value
	}

	data, err := json.MarshalIndent(resultMap, "", "    ")
	if err != nil {
		return nil, errors.Wrap(err, "marshal manifest")
	}
	return data, nil
}
