package tsv

import (
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
)

const filePerm = 0o644

type pending struct {
	tmp  string
	path string
}

// Stage collects several output files and moves them into place together.
// Nothing is visible at the destination paths until Commit.
type Stage struct {
	files []pending
}

// Add writes m to a temporary file in the directory of path. The directory
// must already exist.
func (s *Stage) Add(path string, m mat.Matrix, format Formatter) error {
	return s.AddFunc(path, func(w io.Writer) error {
		return Write(w, m, format)
	})
}

// AddFunc stages whatever write produces under path. It lets files that are
// not matrices be committed together with the partitions.
func (s *Stage) AddFunc(path string, write func(io.Writer) error) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	f, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return ioError("create", path, err)
	}
	tmp := f.Name()

	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return ioError("write", path, err)
	}
	if err := f.Chmod(filePerm); err != nil {
		f.Close()
		os.Remove(tmp)
		return ioError("chmod", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return ioError("close", path, err)
	}

	s.files = append(s.files, pending{tmp: tmp, path: path})
	return nil
}

// Paths returns the destination paths added so far.
func (s *Stage) Paths() []string {
	out := make([]string, len(s.files))
	for i, p := range s.files {
		out[i] = p.path
	}
	return out
}

// Commit renames every staged file to its destination, overwriting existing
// files. If a rename fails the remaining temporaries are removed.
func (s *Stage) Commit() error {
	for i, p := range s.files {
		if err := os.Rename(p.tmp, p.path); err != nil {
			s.files = s.files[i:]
			s.Abort()
			return ioError("rename", p.path, err)
		}
	}
	s.files = nil
	return nil
}

// Abort removes all staged temporaries. Destinations are not touched.
func (s *Stage) Abort() {
	for _, p := range s.files {
		os.Remove(p.tmp)
	}
	s.files = nil
}
