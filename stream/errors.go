package stream

import "errors"

var (
	// BufferOverflow is returned when a single source block exceeds
	// MaxSourceBlockSize.
	BufferOverflow = errors.New("stream: source block exceeds maximum size")

	// InvalidRecipientKey is returned when a recipient public key or id
	// does not meet the fixed-length contract.
	InvalidRecipientKey = errors.New("stream: invalid recipient key")

	// Cancelled is returned when the context passed to Encrypt or Decrypt
	// is done. It is checked before each source read and before each chunk
	// emission, so cancellation never produces a partial chunk.
	Cancelled = errors.New("stream: operation cancelled")

	// ChunkSequenceError is returned by Decrypt when a chunk's header index
	// does not match the expected next index.
	ChunkSequenceError = errors.New("stream: chunk sequence error")
)
