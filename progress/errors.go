package progress

import "errors"

// ErrInvalidSample is returned by Update when chunkBytes is negative.
var ErrInvalidSample = errors.New("progress: chunk_bytes must not be negative")
