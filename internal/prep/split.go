package prep

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// DefaultTestFraction matches the 80/20 partition the pipeline writes by default.
const DefaultTestFraction = 0.2

// Split holds row-aligned train and test partitions. TrainIndex and
// TestIndex are the source rows in the order they were drawn.
type Split struct {
	XTrain, XTest *mat.Dense
	YTrain, YTest *mat.Dense
	TrainIndex    []int
	TestIndex     []int
}

// Splitter partitions row-aligned matrices into train and test sets by
// drawing a random permutation of the rows.
type Splitter struct {
	TestFraction float64
	// Rand is the permutation source. When nil a clock seeded generator is used.
	Rand *rand.Rand
}

// NewSplitter returns a Splitter whose permutations are reproducible for seed.
func NewSplitter(testFraction float64, seed uint64) *Splitter {
	return &Splitter{
		TestFraction: testFraction,
		Rand:         rand.New(rand.NewSource(seed)),
	}
}

// TestCount returns how many of n rows go to the test partition for
// fraction f. Fractional counts are rounded up.
func TestCount(n int, f float64) (int, error) {
	if n <= 0 {
		return 0, errors.Wrapf(ErrInvalidFraction, "cannot split %d rows", n)
	}
	if !(f > 0 && f < 1) {
		return 0, errors.Wrapf(ErrInvalidFraction, "test fraction %v must be in (0, 1)", f)
	}

	nTest := int(math.Ceil(f * float64(n)))
	if nTest <= 0 || nTest >= n {
		return 0, errors.Wrapf(ErrInvalidFraction,
			"test fraction %v of %d rows leaves %d test and %d train rows", f, n, nTest, n-nTest)
	}
	return nTest, nil
}

// Split draws a permutation of the rows of x and y. The first TestCount rows
// of the permutation form the test partition, the rest the train partition.
func (s *Splitter) Split(x, y mat.Matrix) (*Split, error) {
	n, _ := x.Dims()
	ny, _ := y.Dims()
	if n != ny {
		return nil, errors.Wrapf(ErrShapeMismatch, "x has %d rows, y has %d", n, ny)
	}

	nTest, err := TestCount(n, s.TestFraction)
	if err != nil {
		return nil, err
	}

	rng := s.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	perm := rng.Perm(n)

	testIdx := perm[:nTest]
	trainIdx := perm[nTest:]

	return &Split{
		XTrain:     takeRows(x, trainIdx),
		XTest:      takeRows(x, testIdx),
		YTrain:     takeRows(y, trainIdx),
		YTest:      takeRows(y, testIdx),
		TrainIndex: trainIdx,
		TestIndex:  testIdx,
	}, nil
}

// takeRows copies the given rows of m, in order, into a new matrix.
func takeRows(m mat.Matrix, rows []int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(rows), c, nil)
	buf := make([]float64, c)
	for i, r := range rows {
		out.SetRow(i, mat.Row(buf, r, m))
	}
	return out
}
