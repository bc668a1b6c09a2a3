package dataset

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Dataset is a labeled table of feature vectors. Row i of Features belongs
// to Labels[i]; labels index into ClassNames.
type Dataset struct {
	Features     *mat.Dense
	Labels       []int
	FeatureNames []string
	ClassNames   []string
}

// Provider supplies a complete in-memory dataset.
type Provider interface {
	Name() string
	Load() (*Dataset, error)
}

// Rows returns the number of samples.
func (ds *Dataset) Rows() int {
	r, _ := ds.Features.Dims()
	return r
}

// Classes returns the known class indices 0..K-1 in order.
func (ds *Dataset) Classes() []int {
	classes := make([]int, len(ds.ClassNames))
	for i := range classes {
		classes[i] = i
	}
	return classes
}

// Validate checks that the dataset is rectangular, row aligned and that
// every label names a known class.
func (ds *Dataset) Validate() error {
	if ds.Features == nil {
		return errors.Errorf("dataset has no features")
	}

	rows, cols := ds.Features.Dims()
	if len(ds.Labels) != rows {
		return errors.Errorf("dataset has %d feature rows but %d labels", rows, len(ds.Labels))
	}
	if len(ds.FeatureNames) != 0 && len(ds.FeatureNames) != cols {
		return errors.Errorf("dataset has %d feature columns but %d feature names", cols, len(ds.FeatureNames))
	}

	for i, label := range ds.Labels {
		if label < 0 || label >= len(ds.ClassNames) {
			return errors.Errorf("row %d: label %d outside of %d known classes", i, label, len(ds.ClassNames))
		}
	}

	return nil
}
