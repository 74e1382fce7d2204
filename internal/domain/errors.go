package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedFeed means the feed body is not valid JSON.
	ErrMalformedFeed = errors.New("malformed feed response")

	// ErrUnexpectedShape means a field the feed must carry is absent, has the
	// wrong type, or holds an out-of-range value.
	ErrUnexpectedShape = errors.New("unexpected response shape")

	// ErrNoEarthApproach means an object has no close approach to Earth.
	ErrNoEarthApproach = fmt.Errorf("%w: no Earth close approach", ErrUnexpectedShape)

	// ErrNonPositiveInput means a logarithmic score was asked for a zero,
	// negative or non-finite quantity.
	ErrNonPositiveInput = errors.New("non-positive input")
)

func shapeError(path, problem string) error {
	return fmt.Errorf("%w: %s %s", ErrUnexpectedShape, path, problem)
}
