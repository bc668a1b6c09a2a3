package cmd

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/semi-technologies/irisprep/internal/tsv"
)

// ErrVerify is returned when written partitions are inconsistent.
var ErrVerify = errors.New("verify failed")

// VerifyReport summarizes the partitions found on disk.
type VerifyReport struct {
	TrainRows      int
	TestRows       int
	FeatureColumns int
	LabelColumns   int
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check previously written TSV partitions",
	Long:  `Reads the x/y train/test TSV files, checks that they are rectangular and row aligned, that every label row is one-hot and that the files re-serialize byte for byte`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := globalConfig
		cfg.Mode = "verify"

		if err := cfg.Validate(); err != nil {
			fatal(err)
		}

		report, err := runVerify(&cfg)
		if err != nil {
			fatal(err)
		}

		log.WithFields(log.Fields{"train": report.TrainRows, "test": report.TestRows,
			"features": report.FeatureColumns, "labels": report.LabelColumns}).Info("Partitions are consistent")
	},
}

func initVerify() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.PersistentFlags().StringVarP(&globalConfig.OutputDir,
		"output-dir", "o", "data", "Directory holding the TSV files")
	verifyCmd.PersistentFlags().StringVar(&globalConfig.Prefix,
		"prefix", "iris", "File name prefix, files are named <prefix>_<partition>.tsv")
	verifyCmd.PersistentFlags().StringVar(&globalConfig.MetricsFile,
		"metrics-file", "", "Also compare row counts against this metrics file")
}

func runVerify(cfg *Config) (*VerifyReport, error) {
	m := make(map[string]*mat.Dense, len(partitions))
	for _, p := range partitions {
		path := cfg.partitionPath(p)
		dense, err := tsv.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := checkRoundTrip(path, dense); err != nil {
			return nil, err
		}
		m[p] = dense
	}

	xTrainRows, xTrainCols := m["x_train"].Dims()
	xTestRows, xTestCols := m["x_test"].Dims()
	yTrainRows, yTrainCols := m["y_train"].Dims()
	yTestRows, yTestCols := m["y_test"].Dims()

	if xTrainRows != yTrainRows {
		return nil, errors.Wrapf(ErrVerify, "train partition has %d feature rows but %d label rows", xTrainRows, yTrainRows)
	}
	if xTestRows != yTestRows {
		return nil, errors.Wrapf(ErrVerify, "test partition has %d feature rows but %d label rows", xTestRows, yTestRows)
	}
	if xTrainCols != xTestCols {
		return nil, errors.Wrapf(ErrVerify, "feature width differs: train %d, test %d", xTrainCols, xTestCols)
	}
	if yTrainCols != yTestCols {
		return nil, errors.Wrapf(ErrVerify, "label width differs: train %d, test %d", yTrainCols, yTestCols)
	}

	for _, p := range []string{"y_train", "y_test"} {
		if err := checkIndicators(p, m[p]); err != nil {
			return nil, err
		}
	}

	report := &VerifyReport{
		TrainRows:      xTrainRows,
		TestRows:       xTestRows,
		FeatureColumns: xTrainCols,
		LabelColumns:   yTrainCols,
	}

	if cfg.MetricsFile != "" {
		if err := checkMetrics(cfg.MetricsFile, report); err != nil {
			return nil, err
		}
	}

	return report, nil
}

// checkRoundTrip re-serializes m and compares it with the file content.
func checkRoundTrip(path string, m *mat.Dense) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}

	var buf bytes.Buffer
	if err := tsv.Write(&buf, m, tsv.FormatInt); err != nil {
		return err
	}

	if !bytes.Equal(raw, buf.Bytes()) {
		return errors.Wrapf(ErrVerify, "%s does not round-trip as an integer TSV file", path)
	}
	return nil
}

// checkIndicators requires one-hot rows, or 0/1 cells for a single column
// binary encoding.
func checkIndicators(name string, y *mat.Dense) error {
	rows, cols := y.Dims()
	for i := 0; i < rows; i++ {
		ones := 0
		for j := 0; j < cols; j++ {
			switch y.At(i, j) {
			case 0:
			case 1:
				ones++
			default:
				return errors.Wrapf(ErrVerify, "%s row %d: non-binary value %v", name, i, y.At(i, j))
			}
		}
		if cols > 1 && ones != 1 {
			return errors.Wrapf(ErrVerify, "%s row %d: %d indicators set", name, i, ones)
		}
	}
	return nil
}

func checkMetrics(path string, report *VerifyReport) error {
	values, err := readMetricsFile(path)
	if err != nil {
		return errors.Wrapf(err, "read metrics file %s", path)
	}

	expected := map[string]int{
		`irisprep_partition_rows{partition="train"}`: report.TrainRows,
		`irisprep_partition_rows{partition="test"}`:  report.TestRows,
		"irisprep_feature_columns":                   report.FeatureColumns,
		"irisprep_label_columns":                     report.LabelColumns,
	}
	for key, want := range expected {
		got, ok := values[key]
		if !ok {
			return errors.Wrapf(ErrVerify, "metrics file has no %s", key)
		}
		if int(got) != want {
			return errors.Wrapf(ErrVerify, "%s is %v in metrics file, %d on disk", key, got, want)
		}
	}
	return nil
}
