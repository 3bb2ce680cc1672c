package multirecipient

import "errors"

var (
	// InvalidMagic is returned when the header's magic value does not match
	// Magic, or reserved flag bits are set.
	InvalidMagic = errors.New("multirecipient: invalid magic")

	// UnsupportedVersion is returned when the header's version field is not
	// a version this codec understands.
	UnsupportedVersion = errors.New("multirecipient: unsupported version")

	// InvalidRecipientCount is returned when recipient_count is zero, or
	// exceeds MaxRecipients, or the caller supplied an out-of-range
	// recipient list to EncryptChunk.
	InvalidRecipientCount = errors.New("multirecipient: invalid recipient count")

	// ChunkTooSmallForEncryptedSize is returned when the chunk's total
	// length cannot accommodate the header, recipient table, IV, ciphertext
	// and auth tag implied by the header fields.
	ChunkTooSmallForEncryptedSize = errors.New("multirecipient: chunk too small for encrypted size")

	// ChunkTruncatedRecipientId is returned when fewer bytes remain than a
	// recipient table entry's id field requires.
	ChunkTruncatedRecipientId = errors.New("multirecipient: chunk truncated in recipient id")

	// ChunkTruncatedKeySize is returned when a recipient id was read in
	// full but fewer bytes remain than the entry's 2-byte wrapped-key-length
	// field requires.
	ChunkTruncatedKeySize = errors.New("multirecipient: chunk truncated in key size")

	// ChunkTruncatedEncryptedKey is returned when fewer bytes remain than a
	// recipient table entry's declared wrapped-key length requires.
	ChunkTruncatedEncryptedKey = errors.New("multirecipient: chunk truncated in wrapped key")

	// InvalidKeySize is returned when the shared symmetric key, a recipient
	// id, or an unwrapped key does not match its required fixed length.
	InvalidKeySize = errors.New("multirecipient: invalid key size")

	// DuplicateRecipientId is returned when EncryptChunk is given two
	// recipients with the same id.
	DuplicateRecipientId = errors.New("multirecipient: duplicate recipient id")

	// RecipientNotFound is returned when the caller's id does not appear in
	// the recipient table.
	RecipientNotFound = errors.New("multirecipient: recipient not found")

	// DecryptedSizeMismatch is returned when the decrypted plaintext length
	// does not match the header's original_size field.
	DecryptedSizeMismatch = errors.New("multirecipient: decrypted size mismatch")

	// AuthenticationFailed wraps an ECIES/AEAD authentication failure. The
	// specific cause is never surfaced.
	AuthenticationFailed = errors.New("multirecipient: authentication failed")
)
