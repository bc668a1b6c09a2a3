// Package tsv reads and writes numeric matrices as tab separated text: one
// line per row, one tab between cells and no newline after the last row.
package tsv

import (
	"bufio"
	"io"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

// Formatter renders a single cell.
type Formatter func(float64) string

// FormatInt renders a cell as a base 10 integer. Values are truncated.
func FormatInt(v float64) string {
	return strconv.FormatInt(int64(v), 10)
}

// FormatFloat renders the shortest representation that parses back to v.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Write serializes m to w.
func Write(w io.Writer, m mat.Matrix, format Formatter) error {
	if format == nil {
		format = FormatFloat
	}

	bw := bufio.NewWriter(w)
	rows, cols := m.Dims()
	for i := 0; i < rows; i++ {
		if i > 0 {
			bw.WriteByte('\n')
		}
		for j := 0; j < cols; j++ {
			if j > 0 {
				bw.WriteByte('\t')
			}
			bw.WriteString(format(m.At(i, j)))
		}
	}
	return bw.Flush()
}

// WriteFile replaces path with the serialized matrix. The content is written
// to a temporary file next to path and renamed into place, so path is either
// left untouched or fully written.
func WriteFile(path string, m mat.Matrix, format Formatter) error {
	var s Stage
	if err := s.Add(path, m, format); err != nil {
		return err
	}
	return s.Commit()
}
