package dimension

import "errors"

// ErrUnsupportedDimension indicates a descriptive-only dimension was used
// where a match criterion is required.
var ErrUnsupportedDimension = errors.New("dimension is not indexable")

// ErrUnknownDimension indicates a name that is not in the catalog.
var ErrUnknownDimension = errors.New("unknown dimension")
