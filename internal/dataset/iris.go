package dataset

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

//go:embed iris.csv
var irisRaw []byte

// IrisClassNames is the class order used for the Iris labels.
var IrisClassNames = []string{"setosa", "versicolor", "virginica"}

// Iris is the bundled Fisher Iris dataset: 150 samples, 4 features, 3 classes.
type Iris struct{}

func (Iris) Name() string { return "iris" }

func (Iris) Load() (*Dataset, error) {
	return parseLabeledCSV(irisRaw, IrisClassNames)
}

// parseLabeledCSV reads a CSV with a header row, numeric feature columns and
// the class name in the last column.
func parseLabeledCSV(raw []byte, classNames []string) (*Dataset, error) {
	records, err := csv.NewReader(bytes.NewReader(raw)).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "parse dataset csv")
	}
	if len(records) < 2 {
		return nil, errors.Errorf("dataset csv has no samples")
	}

	header := records[0]
	if len(header) < 2 {
		return nil, errors.Errorf("dataset csv needs at least one feature and a label column")
	}
	cols := len(header) - 1
	rows := records[1:]

	classIdx := make(map[string]int, len(classNames))
	for i, name := range classNames {
		classIdx[name] = i
	}

	features := mat.NewDense(len(rows), cols, nil)
	labels := make([]int, len(rows))
	for i, rec := range rows {
		if len(rec) != cols+1 {
			return nil, errors.Errorf("row %d: expected %d fields, got %d", i+1, cols+1, len(rec))
		}
		for j := 0; j < cols; j++ {
			v, err := strconv.ParseFloat(rec[j], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "row %d column %q", i+1, header[j])
			}
			features.Set(i, j, v)
		}
		label, ok := classIdx[rec[cols]]
		if !ok {
			return nil, errors.Errorf("row %d: unknown class %q", i+1, rec[cols])
		}
		labels[i] = label
	}

	names := make([]string, len(classNames))
	copy(names, classNames)

	ds := &Dataset{
		Features:     features,
		Labels:       labels,
		FeatureNames: header[:cols],
		ClassNames:   names,
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}
