package tsv

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrIO is returned when a destination cannot be written or a source
	// cannot be read. The underlying os error is wrapped as well.
	ErrIO = errors.New("tsv: i/o error")

	// ErrParse is returned when a cell is not a number.
	ErrParse = errors.New("tsv: cannot parse cell")

	// ErrRagged is returned when rows have different numbers of cells.
	ErrRagged = errors.New("tsv: rows are not uniform")

	// ErrEmpty is returned when there is no row to read.
	ErrEmpty = errors.New("tsv: no rows")
)

func ioError(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrIO, op, path, err)
}
