package prep

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// LabelEncoder turns integer class labels into indicator rows over a fixed,
// ordered set of classes.
type LabelEncoder struct {
	classes []int
	index   map[int]int
}

// NewLabelEncoder builds an encoder for the given class order. At least two
// distinct classes are required.
func NewLabelEncoder(classes []int) (*LabelEncoder, error) {
	if len(classes) < 2 {
		return nil, errors.Wrapf(ErrInvalidLabel, "need at least 2 classes, got %d", len(classes))
	}

	index := make(map[int]int, len(classes))
	for i, c := range classes {
		if _, ok := index[c]; ok {
			return nil, errors.Wrapf(ErrInvalidLabel, "duplicate class %d", c)
		}
		index[c] = i
	}

	owned := make([]int, len(classes))
	copy(owned, classes)
	return &LabelEncoder{classes: owned, index: index}, nil
}

// Width is the number of columns Encode produces: one per class, or a single
// column when there are exactly two classes.
func (e *LabelEncoder) Width() int {
	if len(e.classes) == 2 {
		return 1
	}
	return len(e.classes)
}

// Encode returns a len(labels) x Width() matrix. With K>=3 classes row i has
// a single 1 in the column of labels[i]. With K=2 the single column is 1 for
// the second class and 0 for the first.
func (e *LabelEncoder) Encode(labels []int) (*mat.Dense, error) {
	if len(labels) == 0 {
		return nil, errors.Wrap(ErrInvalidLabel, "no labels to encode")
	}

	out := mat.NewDense(len(labels), e.Width(), nil)
	for i, label := range labels {
		col, ok := e.index[label]
		if !ok {
			return nil, errors.Wrapf(ErrInvalidLabel, "row %d: label %d not in classes %v", i, label, e.classes)
		}

		if len(e.classes) == 2 {
			out.Set(i, 0, float64(col))
			continue
		}
		out.Set(i, col, 1)
	}
	return out, nil
}
