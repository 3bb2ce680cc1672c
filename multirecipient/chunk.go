// Package multirecipient implements the multi-recipient chunk wire format:
// a single AES-256-GCM-sealed payload under one shared symmetric key, with
// that key ECIES-wrapped once per recipient in a recipient table.
//
// The framing technique — fixed header, one caller-supplied shared key per
// chunk sealed with AES-256-GCM, constant-time table walk — is grounded on
// the teacher pack's chunked encryption construction
// (crypto/encryption/internal/d4), generalized from one shared key to a
// fan-out table of per-recipient wrapped keys.
package multirecipient

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/streamcrypt/enginecore/cryptocore"
	"github.com/streamcrypt/enginecore/idprovider"
	"github.com/streamcrypt/enginecore/internal/pae"
	"github.com/streamcrypt/enginecore/log"
)

const (
	// Magic identifies a multi-recipient chunk ("ECMR" in ASCII, big-endian
	// as a u32).
	Magic uint32 = 0x45434d52

	// Version is the only currently-supported header version.
	Version uint16 = 1

	// HeaderSize is the fixed byte width of a multi-recipient chunk header.
	HeaderSize = 32

	// IVSize is the width of the AES-256-GCM IV.
	IVSize = 12
	// TagSize is the width of the AES-256-GCM authentication tag.
	TagSize = 16
	// SharedKeySize is the width of the shared symmetric key wrapped per
	// recipient.
	SharedKeySize = 32

	// MaxRecipients is the largest recipient_count the header's u16 field
	// can carry.
	MaxRecipients = 65535

	// MinKeySize and MaxKeySize bound a recipient table entry's declared
	// key_size field.
	MinKeySize = 1
	MaxKeySize = 1000

	// recipientEntryPrefixSize is id(L) || wrapped_key_len(u16).
	recipientEntryPrefixSize = idprovider.IDLength + 2
	// recipientIDPrefixSize is the id(L) portion alone, used to tell apart
	// a truncation inside the id from a truncation inside the trailing
	// 2-byte key_size field.
	recipientIDPrefixSize = idprovider.IDLength

	// FlagIsLast marks the final chunk of a stream sequence.
	FlagIsLast uint8 = 1 << 0
	// FlagHasAAD marks that the header bytes were bound as AAD during
	// AES-256-GCM sealing.
	FlagHasAAD uint8 = 1 << 1

	flagsReservedMask uint8 = ^(FlagIsLast | FlagHasAAD)
)

// RecipientEntry is one row of a multi-recipient chunk's recipient table.
type RecipientEntry struct {
	ID         []byte
	WrappedKey []byte
}

// Header is the parsed fixed-size prefix of a multi-recipient chunk.
type Header struct {
	Magic          uint32
	Version        uint16
	RecipientCount uint16
	ChunkIndex     uint32
	OriginalSize   uint32
	EncryptedSize  uint32
	Flags          uint8
}

// IsLast reports whether the header's IS_LAST flag is set.
func (h Header) IsLast() bool { return h.Flags&FlagIsLast != 0 }

// HasAAD reports whether the header bytes were bound as AAD.
func (h Header) HasAAD() bool { return h.Flags&FlagHasAAD != 0 }

func (h Header) encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	binary.BigEndian.PutUint16(buf[4:6], h.Version)
	binary.BigEndian.PutUint16(buf[6:8], h.RecipientCount)
	binary.BigEndian.PutUint32(buf[8:12], h.ChunkIndex)
	binary.BigEndian.PutUint32(buf[12:16], h.OriginalSize)
	binary.BigEndian.PutUint32(buf[16:20], h.EncryptedSize)
	buf[20] = h.Flags
	// buf[21:32] is reserved and left zero.
	return buf
}

func decodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, ChunkTooSmallForEncryptedSize
	}

	h := Header{
		Magic:          binary.BigEndian.Uint32(buf[0:4]),
		Version:        binary.BigEndian.Uint16(buf[4:6]),
		RecipientCount: binary.BigEndian.Uint16(buf[6:8]),
		ChunkIndex:     binary.BigEndian.Uint32(buf[8:12]),
		OriginalSize:   binary.BigEndian.Uint32(buf[12:16]),
		EncryptedSize:  binary.BigEndian.Uint32(buf[16:20]),
		Flags:          buf[20],
	}

	if h.Magic != Magic {
		log.Component("multirecipient").Message("rejected chunk: invalid magic")
		return Header{}, InvalidMagic
	}
	if h.Version != Version {
		log.Component("multirecipient").Field("version", h.Version).Message("rejected chunk: unsupported version")
		return Header{}, UnsupportedVersion
	}
	if h.Flags&flagsReservedMask != 0 {
		log.Component("multirecipient").Message("rejected chunk: reserved flag bits set")
		return Header{}, fmt.Errorf("%w: reserved flag bits set", InvalidMagic)
	}
	if h.RecipientCount == 0 {
		log.Component("multirecipient").Message("rejected chunk: recipient count is zero")
		return Header{}, InvalidRecipientCount
	}

	return h, nil
}

// Codec builds and parses multi-recipient chunks against a CryptoCore
// capability and an IDProvider for recipient-id comparison.
type Codec struct {
	core cryptocore.CryptoCore
	ids  idprovider.IDProvider
}

// New returns a Codec backed by the given CryptoCore and IDProvider.
func New(core cryptocore.CryptoCore, ids idprovider.IDProvider) *Codec {
	return &Codec{core: core, ids: ids}
}

// Recipient is one (id, public key) pair supplied to EncryptChunk.
type Recipient struct {
	ID        []byte
	PublicKey []byte
}

// EncryptChunk seals plaintext under sharedKey and wraps sharedKey once per
// recipient via ECIES, assembling Header || RecipientTable || IV ||
// Ciphertext || AuthTag.
func (c *Codec) EncryptChunk(plaintext, sharedKey []byte, recipients []Recipient, index uint32, isLast, bindHeaderAAD bool) ([]byte, error) {
	if len(recipients) < 1 || len(recipients) > MaxRecipients {
		return nil, InvalidRecipientCount
	}
	if len(sharedKey) != SharedKeySize {
		return nil, fmt.Errorf("%w: shared key must be %d bytes", InvalidKeySize, SharedKeySize)
	}

	seen := make(map[string]struct{}, len(recipients))
	for _, r := range recipients {
		if len(r.ID) != idprovider.IDLength {
			return nil, fmt.Errorf("%w: recipient id must be %d bytes", InvalidKeySize, idprovider.IDLength)
		}
		key := string(r.ID)
		if _, dup := seen[key]; dup {
			return nil, DuplicateRecipientId
		}
		seen[key] = struct{}{}
	}

	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("unable to generate iv: %w", err)
	}

	flags := uint8(0)
	if isLast {
		flags |= FlagIsLast
	}
	if bindHeaderAAD {
		flags |= FlagHasAAD
	}

	entries := make([]RecipientEntry, 0, len(recipients))
	entriesSize := 0
	for _, r := range recipients {
		wrapped, err := c.core.EciesEncryptSingle(r.PublicKey, sharedKey)
		if err != nil {
			return nil, fmt.Errorf("unable to wrap shared key for recipient: %w", err)
		}
		entries = append(entries, RecipientEntry{ID: r.ID, WrappedKey: wrapped})
		entriesSize += recipientEntryPrefixSize + len(wrapped)
	}

	header := Header{
		Magic:          Magic,
		Version:        Version,
		RecipientCount: uint16(len(recipients)),
		ChunkIndex:     index,
		OriginalSize:   uint32(len(plaintext)),
		// AES-256-GCM ciphertext length always equals plaintext length, so
		// EncryptedSize is known before sealing and can be bound as AAD.
		EncryptedSize: uint32(len(plaintext)),
		Flags:         flags,
	}

	var aad []byte
	if bindHeaderAAD {
		var err error
		aad, err = pae.PreAuthenticationEncoding(header.encode())
		if err != nil {
			return nil, fmt.Errorf("unable to prepare chunk aad: %w", err)
		}
	}

	ciphertext, tag, err := c.core.AESGCMEncrypt(sharedKey, iv, plaintext, aad)
	if err != nil {
		return nil, fmt.Errorf("unable to seal chunk payload: %w", err)
	}

	out := make([]byte, 0, HeaderSize+entriesSize+IVSize+len(ciphertext)+TagSize)
	out = append(out, header.encode()...)
	for _, e := range entries {
		out = append(out, e.ID...)
		var lenBuf [2]byte
		binary.BigEndian.PutUint16(lenBuf[:], uint16(len(e.WrappedKey)))
		out = append(out, lenBuf[:]...)
		out = append(out, e.WrappedKey...)
	}
	out = append(out, iv...)
	out = append(out, ciphertext...)
	out = append(out, tag...)

	return out, nil
}

// DecryptChunk parses a multi-recipient chunk, locates callerID in the
// recipient table in constant time, unwraps the shared key with
// callerPrivateKey, and decrypts the payload.
func (c *Codec) DecryptChunk(data, callerID, callerPrivateKey []byte) ([]byte, Header, error) {
	header, err := decodeHeader(data)
	if err != nil {
		return nil, Header{}, err
	}

	// Early upper-bound check: even before walking the recipient table, the
	// chunk must be large enough for the smallest possible recipient table
	// (id + wrapped-key-length prefix only, ignoring wrapped key bodies)
	// plus the IV, the declared encrypted_size and the auth tag. This
	// rejects grossly truncated or forged chunks before any per-entry
	// parsing or ECIES work begins.
	minSize := HeaderSize + int(header.RecipientCount)*recipientEntryPrefixSize + IVSize + int(header.EncryptedSize) + TagSize
	if len(data) < minSize {
		log.Component("multirecipient").Field("chunk_index", header.ChunkIndex).Message("rejected chunk: too small for declared recipient table")
		return nil, Header{}, ChunkTooSmallForEncryptedSize
	}

	cursor := data[HeaderSize:]
	var wrappedKeyForCaller []byte
	found := false

	for i := 0; i < int(header.RecipientCount); i++ {
		if len(cursor) < recipientIDPrefixSize {
			log.Component("multirecipient").Field("chunk_index", header.ChunkIndex).Field("entry", i).Message("rejected chunk: truncated in recipient id")
			return nil, Header{}, ChunkTruncatedRecipientId
		}
		if len(cursor) < recipientEntryPrefixSize {
			log.Component("multirecipient").Field("chunk_index", header.ChunkIndex).Field("entry", i).Message("rejected chunk: truncated in key size")
			return nil, Header{}, ChunkTruncatedKeySize
		}
		id := cursor[:idprovider.IDLength]
		keyLen := binary.BigEndian.Uint16(cursor[idprovider.IDLength : idprovider.IDLength+2])
		cursor = cursor[recipientEntryPrefixSize:]

		if keyLen < MinKeySize || keyLen > MaxKeySize {
			log.Component("multirecipient").Field("chunk_index", header.ChunkIndex).Field("entry", i).Field("key_size", keyLen).Message("rejected chunk: key_size out of bounds")
			return nil, Header{}, fmt.Errorf("%w: key_size must be in [%d, %d]", InvalidKeySize, MinKeySize, MaxKeySize)
		}

		if len(cursor) < int(keyLen) {
			log.Component("multirecipient").Field("chunk_index", header.ChunkIndex).Field("entry", i).Message("rejected chunk: truncated in wrapped key")
			return nil, Header{}, ChunkTruncatedEncryptedKey
		}
		wrappedKey := cursor[:keyLen]
		cursor = cursor[keyLen:]

		// Continue walking every entry regardless of match so the cursor
		// reaches the IV in constant time with respect to match position.
		if c.ids.EqualCT(id, callerID) {
			found = true
			wrappedKeyForCaller = wrappedKey
		}
	}

	if !found {
		log.Component("multirecipient").Field("chunk_index", header.ChunkIndex).Message("rejected chunk: caller id not found in recipient table")
		return nil, Header{}, RecipientNotFound
	}

	if len(cursor) < IVSize+TagSize {
		log.Component("multirecipient").Field("chunk_index", header.ChunkIndex).Message("rejected chunk: too small for iv and auth tag")
		return nil, Header{}, ChunkTooSmallForEncryptedSize
	}
	iv := cursor[:IVSize]
	ciphertextAndTag := cursor[IVSize:]
	if len(ciphertextAndTag) != int(header.EncryptedSize)+TagSize {
		log.Component("multirecipient").Field("chunk_index", header.ChunkIndex).Message("rejected chunk: encrypted size mismatch")
		return nil, Header{}, ChunkTooSmallForEncryptedSize
	}
	ciphertext := ciphertextAndTag[:header.EncryptedSize]
	tag := ciphertextAndTag[header.EncryptedSize:]

	sharedKey, err := c.core.EciesDecryptSingle(callerPrivateKey, wrappedKeyForCaller)
	if err != nil {
		log.Component("multirecipient").Error(err).Field("chunk_index", header.ChunkIndex).Message("rejected chunk: wrapped key authentication failed")
		return nil, Header{}, fmt.Errorf("%w: %v", AuthenticationFailed, err)
	}
	if len(sharedKey) != SharedKeySize {
		return nil, Header{}, fmt.Errorf("%w: unwrapped key has unexpected length", InvalidKeySize)
	}

	var aad []byte
	if header.HasAAD() {
		var err error
		aad, err = pae.PreAuthenticationEncoding(data[:HeaderSize])
		if err != nil {
			return nil, Header{}, fmt.Errorf("unable to prepare chunk aad: %w", err)
		}
	}

	plaintext, err := c.core.AESGCMDecrypt(sharedKey, iv, ciphertext, tag, aad)
	if err != nil {
		log.Component("multirecipient").Error(err).Field("chunk_index", header.ChunkIndex).Message("rejected chunk: payload authentication failed")
		return nil, Header{}, fmt.Errorf("%w: %v", AuthenticationFailed, err)
	}
	if uint32(len(plaintext)) != header.OriginalSize {
		log.Component("multirecipient").Field("chunk_index", header.ChunkIndex).Message("rejected chunk: decrypted size mismatch")
		return nil, Header{}, DecryptedSizeMismatch
	}

	return plaintext, header, nil
}
