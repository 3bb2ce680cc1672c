package cryptocore

import (
	"encoding/binary"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

const (
	// eciesEphemeralPubLen is the length of a compressed secp256k1 point.
	eciesEphemeralPubLen = 33
	// eciesLengthPrefixLen is the width of the big-endian plaintext-length
	// prefix carried inside the ECIES payload.
	eciesLengthPrefixLen = 8
	// eciesHKDFInfo domain-separates the ECIES key derivation from every
	// other HKDF invocation in this module.
	eciesHKDFInfo = "enginecore-ecies-single-recipient-v1"
)

// GenerateKeyPair implements CryptoCore.
//
// A candidate 32-byte scalar is drawn from c.rand and rejected (redrawn) if
// it overflows the group order or reduces to zero, per the usual secp256k1
// rejection-sampling construction.
func (c *defaultCore) GenerateKeyPair() ([]byte, []byte, error) {
	var candidate [32]byte
	for {
		buf, err := c.RandomBytes(32)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to generate secp256k1 private key: %w", err)
		}
		copy(candidate[:], buf)

		var scalar secp256k1.ModNScalar
		overflow := scalar.SetBytes(&candidate)
		if overflow == 0 && !scalar.IsZero() {
			break
		}
	}

	privKey := secp256k1.PrivKeyFromBytes(candidate[:])
	pub := privKey.PubKey()
	return privKey.Serialize(), pub.SerializeCompressed(), nil
}

// Secp256k1SharedSecret implements CryptoCore.
func (c *defaultCore) Secp256k1SharedSecret(priv32, pub []byte) ([]byte, error) {
	privKey, err := parsePrivateKey(priv32)
	if err != nil {
		return nil, err
	}
	pubKey, err := secp256k1.ParsePubKey(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}

	var point, result secp256k1.JacobianPoint
	pubKey.AsJacobian(&point)

	var scalar secp256k1.ModNScalar
	scalar.Set(&privKey.Key)

	secp256k1.ScalarMultNonConst(&scalar, &point, &result)
	result.ToAffine()

	sharedPub := secp256k1.NewPublicKey(&result.X, &result.Y)
	return sharedPub.SerializeUncompressed(), nil
}

func parsePrivateKey(priv32 []byte) (*secp256k1.PrivateKey, error) {
	if len(priv32) != 32 {
		return nil, fmt.Errorf("%w: private key must be 32 bytes", ErrInvalidPrivateKey)
	}
	privKey := secp256k1.PrivKeyFromBytes(priv32)
	if privKey == nil {
		return nil, ErrInvalidPrivateKey
	}
	return privKey, nil
}

// eciesDerive runs the shared ECDH point through HKDF-SHA256 to obtain a
// 32-byte AES-256-GCM key.
func (c *defaultCore) eciesDerive(shared []byte) ([]byte, error) {
	return c.HKDF(SHA256Hash, shared, nil, []byte(eciesHKDFInfo), 32)
}

// EciesEncryptSingle implements CryptoCore.
//
// Wire format: ephemeralPubCompressed(33) || iv(12) || ciphertext || tag(16),
// where the AES-GCM plaintext is uint64be(len(plaintext)) || plaintext.
func (c *defaultCore) EciesEncryptSingle(recipientPub, plaintext []byte) ([]byte, error) {
	ephPriv, ephPub, err := c.GenerateKeyPair()
	if err != nil {
		return nil, err
	}

	shared, err := c.Secp256k1SharedSecret(ephPriv, recipientPub)
	if err != nil {
		return nil, err
	}
	key, err := c.eciesDerive(shared)
	if err != nil {
		return nil, err
	}

	iv, err := c.RandomBytes(gcmIVLen)
	if err != nil {
		return nil, err
	}

	framed := make([]byte, eciesLengthPrefixLen+len(plaintext))
	binary.BigEndian.PutUint64(framed[:eciesLengthPrefixLen], uint64(len(plaintext)))
	copy(framed[eciesLengthPrefixLen:], plaintext)

	ciphertext, tag, err := c.AESGCMEncrypt(key, iv, framed, nil)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, eciesEphemeralPubLen+gcmIVLen+len(ciphertext)+gcmTagLen)
	out = append(out, ephPub...)
	out = append(out, iv...)
	out = append(out, ciphertext...)
	out = append(out, tag...)
	return out, nil
}

// EciesDecryptSingle implements CryptoCore.
func (c *defaultCore) EciesDecryptSingle(recipientPriv, ciphertext []byte) ([]byte, error) {
	minLen := eciesEphemeralPubLen + gcmIVLen + gcmTagLen
	if len(ciphertext) < minLen {
		return nil, ErrCiphertextTooShort
	}

	ephPub := ciphertext[:eciesEphemeralPubLen]
	iv := ciphertext[eciesEphemeralPubLen : eciesEphemeralPubLen+gcmIVLen]
	tag := ciphertext[len(ciphertext)-gcmTagLen:]
	body := ciphertext[eciesEphemeralPubLen+gcmIVLen : len(ciphertext)-gcmTagLen]

	shared, err := c.Secp256k1SharedSecret(recipientPriv, ephPub)
	if err != nil {
		return nil, err
	}
	key, err := c.eciesDerive(shared)
	if err != nil {
		return nil, err
	}

	framed, err := c.AESGCMDecrypt(key, iv, body, tag, nil)
	if err != nil {
		return nil, err
	}
	if len(framed) < eciesLengthPrefixLen {
		return nil, ErrCiphertextTooShort
	}

	n := binary.BigEndian.Uint64(framed[:eciesLengthPrefixLen])
	rest := framed[eciesLengthPrefixLen:]
	if n > uint64(len(rest)) {
		return nil, fmt.Errorf("%w: length prefix exceeds payload", ErrInvalidInput)
	}
	return rest[:n], nil
}
