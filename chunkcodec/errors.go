package chunkcodec

import "errors"

var (
	// DataTooShortForHeader is returned when fewer than HeaderSize bytes are
	// available to parse.
	DataTooShortForHeader = errors.New("chunkcodec: data too short for header")

	// InvalidMagic is returned when the header's magic value does not match
	// Magic, or when reserved flag bits are set.
	InvalidMagic = errors.New("chunkcodec: invalid magic")

	// UnsupportedVersion is returned when the header's version field is not
	// a version this codec understands.
	UnsupportedVersion = errors.New("chunkcodec: unsupported version")

	// EncryptedSizeMismatch is returned when the header's encrypted_size
	// field does not match the actual number of ciphertext bytes available.
	EncryptedSizeMismatch = errors.New("chunkcodec: encrypted size mismatch")

	// DecryptedSizeMismatch is returned when the decrypted plaintext length
	// does not match the header's original_size field.
	DecryptedSizeMismatch = errors.New("chunkcodec: decrypted size mismatch")

	// ChecksumMismatch is returned when the trailing SHA-256 checksum does
	// not match the decrypted plaintext.
	ChecksumMismatch = errors.New("chunkcodec: checksum mismatch")

	// AuthenticationFailed wraps an ECIES/AEAD authentication failure from
	// the underlying CryptoCore. The specific cause is never surfaced.
	AuthenticationFailed = errors.New("chunkcodec: authentication failed")
)
