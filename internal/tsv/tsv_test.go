package tsv

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestWrite(t *testing.T) {
	tests := []struct {
		name   string
		m      mat.Matrix
		format Formatter
		want   string
	}{
		{
			name:   "integers",
			m:      mat.NewDense(2, 3, []float64{5, 3, 1, 6, 3, 4}),
			format: FormatInt,
			want:   "5\t3\t1\n6\t3\t4",
		},
		{
			name:   "floats",
			m:      mat.NewDense(2, 2, []float64{5.1, 3, 0.25, -1e-7}),
			format: FormatFloat,
			want:   "5.1\t3\n0.25\t-1e-07",
		},
		{
			name:   "single cell",
			m:      mat.NewDense(1, 1, []float64{7}),
			format: FormatInt,
			want:   "7",
		},
		{
			name:   "column",
			m:      mat.NewDense(3, 1, []float64{1, 0, 1}),
			format: nil,
			want:   "1\n0\n1",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, test.m, test.format))
			require.Equal(t, test.want, buf.String())
		})
	}
}

func TestRead(t *testing.T) {
	m, err := Read(strings.NewReader("5\t3\t1\n6\t3\t4"))
	require.NoError(t, err)
	assert.True(t, mat.Equal(mat.NewDense(2, 3, []float64{5, 3, 1, 6, 3, 4}), m))

	t.Run("trailing newline", func(t *testing.T) {
		m, err := Read(strings.NewReader("1 2\n3 4\n"))
		require.NoError(t, err)
		r, c := m.Dims()
		assert.Equal(t, 2, r)
		assert.Equal(t, 2, c)
	})

	errTests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrEmpty},
		{"ragged", "1\t2\n3", ErrRagged},
		{"blank line", "1\t2\n\n3\t4", ErrRagged},
		{"not a number", "1\tx", ErrParse},
	}
	for _, test := range errTests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(test.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, test.want), "got %v", err)
		})
	}

	t.Run("reader failure", func(t *testing.T) {
		cause := errors.New("disk gone")
		_, err := Read(io.MultiReader(strings.NewReader("1\t2\n"), iotest.ErrReader(cause)))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrIO), "got %v", err)
		assert.True(t, errors.Is(err, cause), "got %v", err)
	})

	t.Run("line too long", func(t *testing.T) {
		_, err := Read(strings.NewReader(strings.Repeat("1", 16*1024*1024+1)))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrIO), "got %v", err)
	})
}

func TestRoundTrip(t *testing.T) {
	inputs := []struct {
		name   string
		raw    string
		format Formatter
	}{
		{"features", "5\t3\t1\t0\n6\t2\t4\t1\n7\t3\t6\t2", FormatInt},
		{"one-hot", "1\t0\t0\n0\t1\t0\n0\t0\t1", FormatInt},
		{"floats", "5.1\t3.5\n0.2\t-4", FormatFloat},
	}

	for _, in := range inputs {
		t.Run(in.name, func(t *testing.T) {
			m, err := Read(strings.NewReader(in.raw))
			require.NoError(t, err)

			var buf bytes.Buffer
			require.NoError(t, Write(&buf, m, in.format))
			require.Equal(t, in.raw, buf.String())
		})
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.tsv")

	require.NoError(t, os.WriteFile(path, []byte("old content\n"), 0o644))
	require.NoError(t, WriteFile(path, mat.NewDense(1, 2, []float64{1, 2}), FormatInt))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1\t2", string(got))

	back, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, back.RawMatrix().Data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not remain")
}

func TestWriteFileMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "x.tsv")

	err := WriteFile(path, mat.NewDense(1, 1, []float64{1}), FormatInt)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIO), "got %v", err)
	assert.True(t, errors.Is(err, os.ErrNotExist), "got %v", err)

	_, err = ReadFile(path)
	assert.True(t, errors.Is(err, ErrIO), "got %v", err)
}

func TestStage(t *testing.T) {
	m := mat.NewDense(1, 1, []float64{3})

	t.Run("abort leaves nothing", func(t *testing.T) {
		dir := t.TempDir()
		var s Stage
		require.NoError(t, s.Add(filepath.Join(dir, "a.tsv"), m, FormatInt))
		require.NoError(t, s.Add(filepath.Join(dir, "b.tsv"), m, FormatInt))
		assert.Equal(t, []string{filepath.Join(dir, "a.tsv"), filepath.Join(dir, "b.tsv")}, s.Paths())

		s.Abort()

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("commit publishes all", func(t *testing.T) {
		dir := t.TempDir()
		var s Stage
		require.NoError(t, s.Add(filepath.Join(dir, "a.tsv"), m, FormatInt))
		require.NoError(t, s.Add(filepath.Join(dir, "b.tsv"), m, FormatInt))

		_, err := os.Stat(filepath.Join(dir, "a.tsv"))
		require.True(t, os.IsNotExist(err), "destination visible before commit")

		require.NoError(t, s.Commit())
		for _, name := range []string{"a.tsv", "b.tsv"} {
			got, err := os.ReadFile(filepath.Join(dir, name))
			require.NoError(t, err)
			assert.Equal(t, "3", string(got))
		}

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})
	t.Run("non-matrix files commit with the rest", func(t *testing.T) {
		dir := t.TempDir()
		var s Stage
		require.NoError(t, s.Add(filepath.Join(dir, "a.tsv"), m, FormatInt))
		require.NoError(t, s.AddFunc(filepath.Join(dir, "run.json"), func(w io.Writer) error {
			_, err := io.WriteString(w, `{"rows":1}`)
			return err
		}))

		err := s.AddFunc(filepath.Join(dir, "broken.json"), func(w io.Writer) error {
			return errors.New("encode failed")
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrIO), "got %v", err)

		require.NoError(t, s.Commit())
		got, err := os.ReadFile(filepath.Join(dir, "run.json"))
		require.NoError(t, err)
		assert.Equal(t, `{"rows":1}`, string(got))

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})
}
