package prep

import "github.com/pkg/errors"

var (
	// ErrInvalidLabel is returned when a label is not one of the known classes
	// or the class set itself cannot be encoded.
	ErrInvalidLabel = errors.New("prep: invalid label")

	// ErrInvalidFraction is returned when a split fraction is outside (0, 1)
	// or would leave one of the partitions empty.
	ErrInvalidFraction = errors.New("prep: invalid split fraction")

	// ErrShapeMismatch is returned when row-aligned inputs differ in length.
	ErrShapeMismatch = errors.New("prep: shape mismatch")
)
