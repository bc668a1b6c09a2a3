package tsv

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Read parses whitespace separated numeric cells, one row per line. Every
// row must have the same number of cells as the first.
func Read(r io.Reader) (*mat.Dense, error) {
	var (
		data []float64
		rows int
		cols int
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		rows++
		cells := strings.Fields(scanner.Text())
		if rows == 1 {
			cols = len(cells)
		} else if len(cells) != cols {
			return nil, errors.Wrapf(ErrRagged, "line %d has %d cells, expected %d", rows, len(cells), cols)
		}

		for _, cell := range cells {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, errors.Wrapf(ErrParse, "line %d: %q", rows, cell)
			}
			data = append(data, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read line %d: %w", ErrIO, rows+1, err)
	}

	if rows == 0 || cols == 0 {
		return nil, ErrEmpty
	}
	return mat.NewDense(rows, cols, data), nil
}

// ReadFile reads the matrix stored at path.
func ReadFile(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ioError("open", path, err)
	}
	defer f.Close()

	m, err := Read(f)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}
	return m, nil
}
