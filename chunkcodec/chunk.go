// Package chunkcodec implements the single-recipient chunk wire format: a
// framed, authenticated, optionally checksummed unit of ciphertext produced
// by ECIES-wrapping a symmetric key and AES-256-GCM-sealing the plaintext.
//
// This mirrors the teacher pack's crypto/encryption "Chunked" construction
// (internal/d4), generalized from a HKDF/ChaCha20-Poly1305 per-file envelope
// to the streaming engine's per-chunk ECIES envelope and fixed 32-byte
// header.
package chunkcodec

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"fmt"

	"github.com/streamcrypt/enginecore/cryptocore"
	"github.com/streamcrypt/enginecore/log"
)

const (
	// Magic identifies a single-recipient chunk ("ECIE" in ASCII, big-endian
	// as a u32).
	Magic uint32 = 0x45434945

	// Version is the only currently-supported header version.
	Version uint16 = 1

	// HeaderSize is the fixed byte width of a single-recipient chunk header.
	HeaderSize = 32

	// ChecksumSize is the width of the optional trailing SHA-256 checksum.
	ChecksumSize = 32

	// FlagIsLast marks the final chunk of a stream sequence.
	FlagIsLast uint16 = 1 << 0
	// FlagHasChecksum marks the presence of a trailing SHA-256 checksum.
	FlagHasChecksum uint16 = 1 << 1

	flagsReservedMask uint16 = ^(FlagIsLast | FlagHasChecksum)
)

// Header is the parsed fixed-size prefix of a single-recipient chunk.
type Header struct {
	Magic         uint32
	Version       uint16
	Index         uint32
	OriginalSize  uint32
	EncryptedSize uint32
	Flags         uint16
}

// IsLast reports whether the header's IS_LAST flag is set.
func (h Header) IsLast() bool { return h.Flags&FlagIsLast != 0 }

// HasChecksum reports whether the header's HAS_CHECKSUM flag is set.
func (h Header) HasChecksum() bool { return h.Flags&FlagHasChecksum != 0 }

func (h Header) encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	binary.BigEndian.PutUint16(buf[4:6], h.Version)
	binary.BigEndian.PutUint32(buf[6:10], h.Index)
	binary.BigEndian.PutUint32(buf[10:14], h.OriginalSize)
	binary.BigEndian.PutUint32(buf[14:18], h.EncryptedSize)
	binary.BigEndian.PutUint16(buf[18:20], h.Flags)
	// buf[20:32] is reserved and left zero.
	return buf
}

func decodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, DataTooShortForHeader
	}

	h := Header{
		Magic:         binary.BigEndian.Uint32(buf[0:4]),
		Version:       binary.BigEndian.Uint16(buf[4:6]),
		Index:         binary.BigEndian.Uint32(buf[6:10]),
		OriginalSize:  binary.BigEndian.Uint32(buf[10:14]),
		EncryptedSize: binary.BigEndian.Uint32(buf[14:18]),
		Flags:         binary.BigEndian.Uint16(buf[18:20]),
	}

	if h.Magic != Magic {
		log.Component("chunkcodec").Message("rejected chunk: invalid magic")
		return Header{}, InvalidMagic
	}
	if h.Version != Version {
		log.Component("chunkcodec").Field("version", h.Version).Message("rejected chunk: unsupported version")
		return Header{}, UnsupportedVersion
	}
	if h.Flags&flagsReservedMask != 0 {
		log.Component("chunkcodec").Message("rejected chunk: reserved flag bits set")
		return Header{}, fmt.Errorf("%w: reserved flag bits set", InvalidMagic)
	}

	return h, nil
}

// Codec builds and parses single-recipient chunks against a CryptoCore
// capability.
type Codec struct {
	core cryptocore.CryptoCore
}

// New returns a Codec backed by the given CryptoCore implementation.
func New(core cryptocore.CryptoCore) *Codec {
	return &Codec{core: core}
}

// EncryptChunk frames and encrypts plaintext for recipientPublicKey,
// producing Header(32) || Ciphertext || Checksum(0 or 32).
func (c *Codec) EncryptChunk(plaintext, recipientPublicKey []byte, index uint32, isLast, includeChecksum bool) ([]byte, error) {
	ciphertext, err := c.core.EciesEncryptSingle(recipientPublicKey, plaintext)
	if err != nil {
		return nil, fmt.Errorf("unable to seal chunk payload: %w", err)
	}

	flags := uint16(0)
	if isLast {
		flags |= FlagIsLast
	}
	if includeChecksum {
		flags |= FlagHasChecksum
	}

	header := Header{
		Magic:         Magic,
		Version:       Version,
		Index:         index,
		OriginalSize:  uint32(len(plaintext)),
		EncryptedSize: uint32(len(ciphertext)),
		Flags:         flags,
	}

	out := make([]byte, 0, HeaderSize+len(ciphertext)+ChecksumSize)
	out = append(out, header.encode()...)
	out = append(out, ciphertext...)

	if includeChecksum {
		sum := sha256.Sum256(plaintext)
		out = append(out, sum[:]...)
	}

	return out, nil
}

// DecryptChunk parses, authenticates and decrypts a chunk produced by
// EncryptChunk, returning the plaintext and the parsed header.
func (c *Codec) DecryptChunk(data, recipientPrivateKey []byte) ([]byte, Header, error) {
	header, err := decodeHeader(data)
	if err != nil {
		return nil, Header{}, err
	}

	body := data[HeaderSize:]
	expected := int(header.EncryptedSize)
	hasChecksum := header.HasChecksum()

	checksumLen := 0
	if hasChecksum {
		checksumLen = ChecksumSize
	}
	if len(body) != expected+checksumLen {
		log.Component("chunkcodec").Field("chunk_index", header.Index).Message("rejected chunk: encrypted size mismatch")
		return nil, Header{}, EncryptedSizeMismatch
	}

	ciphertext := body[:expected]
	var checksum []byte
	if hasChecksum {
		checksum = body[expected:]
	}

	plaintext, err := c.core.EciesDecryptSingle(recipientPrivateKey, ciphertext)
	if err != nil {
		log.Component("chunkcodec").Error(err).Field("chunk_index", header.Index).Message("rejected chunk: authentication failed")
		return nil, Header{}, fmt.Errorf("%w: %v", AuthenticationFailed, err)
	}

	if uint32(len(plaintext)) != header.OriginalSize {
		log.Component("chunkcodec").Field("chunk_index", header.Index).Message("rejected chunk: decrypted size mismatch")
		return nil, Header{}, DecryptedSizeMismatch
	}

	if hasChecksum {
		sum := sha256.Sum256(plaintext)
		if !constantTimeEqual(sum[:], checksum) {
			log.Component("chunkcodec").Field("chunk_index", header.Index).Message("rejected chunk: checksum mismatch")
			return nil, Header{}, ChecksumMismatch
		}
	}

	return plaintext, header, nil
}

// constantTimeEqual compares two equal-length 32-byte buffers by
// accumulating their XOR and testing the accumulator against zero exactly
// once, per the wire-format's constant-time comparison requirement.
func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
