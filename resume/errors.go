package resume

import "errors"

var (
	// StateTooOld is returned when a supplied initial state's timestamp_ms
	// is more than 24 hours in the past.
	StateTooOld = errors.New("resume: checkpoint state is too old")

	// StateIntegrityCheckFailed is returned when a supplied initial state
	// carries an integrity_tag_hex that does not match a recomputed tag.
	StateIntegrityCheckFailed = errors.New("resume: checkpoint state integrity check failed")

	// UnsupportedStateVersion is returned when a supplied initial state's
	// version is not one this manager understands.
	UnsupportedStateVersion = errors.New("resume: unsupported checkpoint state version")

	// InvalidChunkIndex is returned when a supplied initial state's
	// chunk_index is nonzero while its bytes_processed is zero.
	InvalidChunkIndex = errors.New("resume: invalid chunk index in checkpoint state")

	// InvalidPublicKeyInState is returned when a supplied initial state's
	// public_key_hex is empty or malformed.
	InvalidPublicKeyInState = errors.New("resume: invalid public key in checkpoint state")

	// PublicKeyMismatch is returned when an encrypt-resumed call's recipient
	// public key does not match the stored state's public_key_hex.
	PublicKeyMismatch = errors.New("resume: recipient public key does not match stored state")

	// ChunkSizeMismatch is returned when an encrypt-resumed call's chunk
	// size does not match the stored state's chunk_size.
	ChunkSizeMismatch = errors.New("resume: chunk size does not match stored state")

	// IncludeChecksumsMismatch is returned when an encrypt-resumed call's
	// include_checksums flag does not match the stored state's value.
	IncludeChecksumsMismatch = errors.New("resume: include_checksums does not match stored state")

	// ErrInvalidCodecKey is returned when EncryptedStateCodec is constructed
	// with too short a key.
	ErrInvalidCodecKey = errors.New("resume: encrypted state codec key too short")

	// ErrEncryptedStateTruncated is returned when an encrypted checkpoint
	// blob is shorter than the minimum possible envelope size.
	ErrEncryptedStateTruncated = errors.New("resume: encrypted checkpoint blob truncated")

	// ErrEncryptedStateAuthFailed is returned when an encrypted checkpoint
	// blob fails authentication.
	ErrEncryptedStateAuthFailed = errors.New("resume: encrypted checkpoint authentication failed")
)
