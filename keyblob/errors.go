package keyblob

import "errors"

var (
	// InvalidMagic is returned when a blob's leading 4 bytes are not "BCVK".
	InvalidMagic = errors.New("keyblob: invalid magic")

	// UnsupportedVersion is returned when a blob's version byte is not 1.
	UnsupportedVersion = errors.New("keyblob: unsupported version")

	// Truncated is returned when a blob is shorter than its declared
	// length-prefixed fields indicate.
	Truncated = errors.New("keyblob: blob truncated")

	// InvalidPublicKeyIdMismatch is returned when the key_id recomputed
	// from a decoded public blob's n_hex_ascii does not match the key_id
	// carried in the blob.
	InvalidPublicKeyIdMismatch = errors.New("keyblob: recomputed key id does not match blob")

	// InvalidHexEncoding is returned when a length-prefixed hex field does
	// not decode as valid hexadecimal.
	InvalidHexEncoding = errors.New("keyblob: invalid hex encoding")

	// NPublicKeyHexTooWide is returned when n's hex representation exceeds
	// the fixed public-key hex width.
	NPublicKeyHexTooWide = errors.New("keyblob: n hex representation exceeds fixed width")
)
