// Package keyblob implements the Paillier key-blob codec: a fixed-layout,
// length-prefixed wire format for persisting Paillier public and private
// keys, grounded on the chunk header encode/decode style used throughout
// this module (chunkcodec, multirecipient) — big-endian length prefixes,
// a magic value, and a version byte refused on mismatch.
package keyblob

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/streamcrypt/enginecore/generator/randomness"
	"github.com/streamcrypt/enginecore/paillier"
)

const (
	// Magic identifies a key-blob wire payload.
	Magic = "BCVK"
	// Version is the only wire version this codec understands.
	Version = 1

	// FixedPublicKeyHexWidth is the fixed ASCII-hex width n is padded to,
	// sized to cover n up to 3072 bits (the default Paillier modulus size)
	// in hexadecimal.
	FixedPublicKeyHexWidth = 768

	keyIDSize      = 32
	instanceIDSize = 32
)

// PrivateKeyMaterial holds the two fields carried by a private-key blob.
// Combine it with a PublicKey (from the matching public blob) via Assemble
// to obtain a usable paillier.PrivateKey.
type PrivateKeyMaterial struct {
	Lambda *big.Int
	Mu     *big.Int
}

// Assemble combines decoded private-key material with its public key.
func (m PrivateKeyMaterial) Assemble(pub paillier.PublicKey) *paillier.PrivateKey {
	return &paillier.PrivateKey{PublicKey: pub, Lambda: m.Lambda, Mu: m.Mu}
}

// IsolatedPrivateKeyMaterial is wire-identical to PrivateKeyMaterial but
// carries a distinct Go type so callers cannot accidentally assemble an
// isolated-instance private key against a non-isolated public key without
// an explicit conversion.
type IsolatedPrivateKeyMaterial struct {
	Lambda *big.Int
	Mu     *big.Int
}

// IsolatedPublicKey carries an additional instance id binding a public key
// to one isolated deployment instance.
type IsolatedPublicKey struct {
	InstanceID [instanceIDSize]byte
	PublicKey  paillier.PublicKey
}

// NewInstanceID returns a fresh random instance id for binding an isolated
// deployment's public key blobs, drawing its bytes from the teacher pack's
// generator/randomness CSPRNG reader.
func NewInstanceID() ([instanceIDSize]byte, error) {
	var id [instanceIDSize]byte
	b, err := randomness.Bytes(instanceIDSize)
	if err != nil {
		return id, fmt.Errorf("unable to generate instance id: %w", err)
	}
	copy(id[:], b)
	return id, nil
}

// keyID computes the 32-byte key identifier SHA-256(n_hex_ascii) — over the
// fixed-width padded hex string, so it changes if the padding width ever
// changes, which is intentional: the encoder and decoder must agree on the
// width out of band.
func keyID(nHex string) [keyIDSize]byte {
	return sha256.Sum256([]byte(nHex))
}

func encodeNHex(n *big.Int) (string, error) {
	raw := hex.EncodeToString(n.Bytes())
	if len(raw) > FixedPublicKeyHexWidth {
		return "", NPublicKeyHexTooWide
	}
	padded := make([]byte, FixedPublicKeyHexWidth)
	for i := range padded {
		padded[i] = '0'
	}
	copy(padded[FixedPublicKeyHexWidth-len(raw):], raw)
	return string(padded), nil
}

// EncodePublicKey serializes pub as: "BCVK"(4) || version(1) ||
// key_id(32) || n_len(4) || n_hex_ascii(n_len).
func EncodePublicKey(pub paillier.PublicKey) ([]byte, error) {
	nHex, err := encodeNHex(pub.N)
	if err != nil {
		return nil, err
	}
	id := keyID(nHex)

	out := make([]byte, 0, 4+1+keyIDSize+4+len(nHex))
	out = append(out, []byte(Magic)...)
	out = append(out, byte(Version))
	out = append(out, id[:]...)
	out = appendUint32Prefixed(out, nHex)
	return out, nil
}

// DecodePublicKey reverses EncodePublicKey, recomputing key_id from the
// decoded n_hex_ascii and rejecting a mismatch.
func DecodePublicKey(blob []byte) (paillier.PublicKey, error) {
	rest, err := checkHeader(blob)
	if err != nil {
		return paillier.PublicKey{}, err
	}
	if len(rest) < keyIDSize {
		return paillier.PublicKey{}, Truncated
	}
	wantID := rest[:keyIDSize]
	rest = rest[keyIDSize:]

	nHex, _, err := readUint32Prefixed(rest)
	if err != nil {
		return paillier.PublicKey{}, err
	}

	gotID := keyID(nHex)
	if subtle.ConstantTimeCompare(wantID, gotID[:]) != 1 {
		return paillier.PublicKey{}, InvalidPublicKeyIdMismatch
	}

	n, err := decodeHexBigInt(nHex)
	if err != nil {
		return paillier.PublicKey{}, err
	}
	g := new(big.Int).Add(n, big.NewInt(1))
	return paillier.PublicKey{N: n, G: g}, nil
}

// EncodeIsolatedPublicKey serializes an isolated public key, inserting the
// 32-byte instance_id between key_id and n_len.
func EncodeIsolatedPublicKey(k IsolatedPublicKey) ([]byte, error) {
	nHex, err := encodeNHex(k.PublicKey.N)
	if err != nil {
		return nil, err
	}
	id := keyID(nHex)

	out := make([]byte, 0, 4+1+keyIDSize+instanceIDSize+4+len(nHex))
	out = append(out, []byte(Magic)...)
	out = append(out, byte(Version))
	out = append(out, id[:]...)
	out = append(out, k.InstanceID[:]...)
	out = appendUint32Prefixed(out, nHex)
	return out, nil
}

// DecodeIsolatedPublicKey reverses EncodeIsolatedPublicKey.
func DecodeIsolatedPublicKey(blob []byte) (IsolatedPublicKey, error) {
	rest, err := checkHeader(blob)
	if err != nil {
		return IsolatedPublicKey{}, err
	}
	if len(rest) < keyIDSize+instanceIDSize {
		return IsolatedPublicKey{}, Truncated
	}
	wantID := rest[:keyIDSize]
	rest = rest[keyIDSize:]
	var instanceID [instanceIDSize]byte
	copy(instanceID[:], rest[:instanceIDSize])
	rest = rest[instanceIDSize:]

	nHex, _, err := readUint32Prefixed(rest)
	if err != nil {
		return IsolatedPublicKey{}, err
	}

	gotID := keyID(nHex)
	if subtle.ConstantTimeCompare(wantID, gotID[:]) != 1 {
		return IsolatedPublicKey{}, InvalidPublicKeyIdMismatch
	}

	n, err := decodeHexBigInt(nHex)
	if err != nil {
		return IsolatedPublicKey{}, err
	}
	g := new(big.Int).Add(n, big.NewInt(1))
	return IsolatedPublicKey{InstanceID: instanceID, PublicKey: paillier.PublicKey{N: n, G: g}}, nil
}

// EncodePrivateKey serializes: "BCVK"(4) || version(1) || lambda_len(4) ||
// lambda_hex_ascii || mu_len(4) || mu_hex_ascii.
func EncodePrivateKey(priv *paillier.PrivateKey) ([]byte, error) {
	return encodePrivateMaterial(priv.Lambda, priv.Mu)
}

// EncodeIsolatedPrivateKey is wire-identical to EncodePrivateKey.
func EncodeIsolatedPrivateKey(m IsolatedPrivateKeyMaterial) ([]byte, error) {
	return encodePrivateMaterial(m.Lambda, m.Mu)
}

func encodePrivateMaterial(lambda, mu *big.Int) ([]byte, error) {
	lambdaHex := hex.EncodeToString(lambda.Bytes())
	muHex := hex.EncodeToString(mu.Bytes())

	out := make([]byte, 0, 4+1+4+len(lambdaHex)+4+len(muHex))
	out = append(out, []byte(Magic)...)
	out = append(out, byte(Version))
	out = appendUint32Prefixed(out, lambdaHex)
	out = appendUint32Prefixed(out, muHex)
	return out, nil
}

// DecodePrivateKey reverses EncodePrivateKey.
func DecodePrivateKey(blob []byte) (PrivateKeyMaterial, error) {
	rest, err := checkHeader(blob)
	if err != nil {
		return PrivateKeyMaterial{}, err
	}

	lambdaHex, rest, err := readUint32Prefixed(rest)
	if err != nil {
		return PrivateKeyMaterial{}, err
	}
	muHex, _, err := readUint32Prefixed(rest)
	if err != nil {
		return PrivateKeyMaterial{}, err
	}

	lambda, err := decodeHexBigInt(lambdaHex)
	if err != nil {
		return PrivateKeyMaterial{}, err
	}
	mu, err := decodeHexBigInt(muHex)
	if err != nil {
		return PrivateKeyMaterial{}, err
	}
	return PrivateKeyMaterial{Lambda: lambda, Mu: mu}, nil
}

// DecodeIsolatedPrivateKey reverses EncodeIsolatedPrivateKey.
func DecodeIsolatedPrivateKey(blob []byte) (IsolatedPrivateKeyMaterial, error) {
	m, err := DecodePrivateKey(blob)
	if err != nil {
		return IsolatedPrivateKeyMaterial{}, err
	}
	return IsolatedPrivateKeyMaterial{Lambda: m.Lambda, Mu: m.Mu}, nil
}

func checkHeader(blob []byte) ([]byte, error) {
	if len(blob) < 5 {
		return nil, Truncated
	}
	if string(blob[:4]) != Magic {
		return nil, InvalidMagic
	}
	if blob[4] != Version {
		return nil, UnsupportedVersion
	}
	return blob[5:], nil
}

func appendUint32Prefixed(out []byte, s string) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
	out = append(out, lenBuf[:]...)
	out = append(out, []byte(s)...)
	return out
}

func readUint32Prefixed(data []byte) (field string, rest []byte, err error) {
	if len(data) < 4 {
		return "", nil, Truncated
	}
	n := binary.BigEndian.Uint32(data[:4])
	data = data[4:]
	if uint64(len(data)) < uint64(n) {
		return "", nil, Truncated
	}
	return string(data[:n]), data[n:], nil
}

func decodeHexBigInt(s string) (*big.Int, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", InvalidHexEncoding, err)
	}
	return new(big.Int).SetBytes(raw), nil
}

