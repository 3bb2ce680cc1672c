package keyblob_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/streamcrypt/enginecore/keyblob"
	"github.com/streamcrypt/enginecore/paillier"
)

func samplePublicKey() paillier.PublicKey {
	n := new(big.Int).Mul(big.NewInt(104729), big.NewInt(104723))
	g := new(big.Int).Add(n, big.NewInt(1))
	return paillier.PublicKey{N: n, G: g}
}

func TestPublicKeyRoundTrip(t *testing.T) {
	t.Parallel()

	pub := samplePublicKey()
	blob, err := keyblob.EncodePublicKey(pub)
	require.NoError(t, err)
	require.Equal(t, "BCVK", string(blob[:4]))
	require.Equal(t, byte(1), blob[4])

	got, err := keyblob.DecodePublicKey(blob)
	require.NoError(t, err)
	require.Equal(t, 0, pub.N.Cmp(got.N))
	require.Equal(t, 0, pub.G.Cmp(got.G))
}

func TestPublicKeyRejectsTamperedNHex(t *testing.T) {
	t.Parallel()

	pub := samplePublicKey()
	blob, err := keyblob.EncodePublicKey(pub)
	require.NoError(t, err)

	// Flip a byte inside the n_hex_ascii field without touching key_id.
	blob[len(blob)-1] ^= 0x01
	_, err = keyblob.DecodePublicKey(blob)
	require.ErrorIs(t, err, keyblob.InvalidPublicKeyIdMismatch)
}

func TestPublicKeyRejectsBadMagicAndVersion(t *testing.T) {
	t.Parallel()

	pub := samplePublicKey()
	blob, err := keyblob.EncodePublicKey(pub)
	require.NoError(t, err)

	badMagic := append([]byte(nil), blob...)
	badMagic[0] ^= 0xFF
	_, err = keyblob.DecodePublicKey(badMagic)
	require.ErrorIs(t, err, keyblob.InvalidMagic)

	badVersion := append([]byte(nil), blob...)
	badVersion[4] = 9
	_, err = keyblob.DecodePublicKey(badVersion)
	require.ErrorIs(t, err, keyblob.UnsupportedVersion)
}

func TestPublicKeyRejectsTruncatedBlob(t *testing.T) {
	t.Parallel()

	pub := samplePublicKey()
	blob, err := keyblob.EncodePublicKey(pub)
	require.NoError(t, err)

	_, err = keyblob.DecodePublicKey(blob[:10])
	require.ErrorIs(t, err, keyblob.Truncated)
}

func TestPublicKeyRejectsOversizedN(t *testing.T) {
	t.Parallel()

	huge := new(big.Int).Lsh(big.NewInt(1), keyblob.FixedPublicKeyHexWidth*4+8)
	_, err := keyblob.EncodePublicKey(paillier.PublicKey{N: huge, G: huge})
	require.ErrorIs(t, err, keyblob.NPublicKeyHexTooWide)
}

func TestPrivateKeyRoundTrip(t *testing.T) {
	t.Parallel()

	priv := &paillier.PrivateKey{
		PublicKey: samplePublicKey(),
		Lambda:    big.NewInt(987654321),
		Mu:        big.NewInt(123456789),
	}

	blob, err := keyblob.EncodePrivateKey(priv)
	require.NoError(t, err)

	material, err := keyblob.DecodePrivateKey(blob)
	require.NoError(t, err)
	require.Equal(t, 0, priv.Lambda.Cmp(material.Lambda))
	require.Equal(t, 0, priv.Mu.Cmp(material.Mu))

	reassembled := material.Assemble(priv.PublicKey)
	require.Equal(t, 0, priv.N.Cmp(reassembled.N))
}

func TestNewInstanceIDIsUnique(t *testing.T) {
	t.Parallel()

	a, err := keyblob.NewInstanceID()
	require.NoError(t, err)
	b, err := keyblob.NewInstanceID()
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestIsolatedPublicKeyRoundTrip(t *testing.T) {
	t.Parallel()

	instanceID, err := keyblob.NewInstanceID()
	require.NoError(t, err)
	iso := keyblob.IsolatedPublicKey{InstanceID: instanceID, PublicKey: samplePublicKey()}

	blob, err := keyblob.EncodeIsolatedPublicKey(iso)
	require.NoError(t, err)

	got, err := keyblob.DecodeIsolatedPublicKey(blob)
	require.NoError(t, err)
	require.Equal(t, iso.InstanceID, got.InstanceID)
	require.Equal(t, 0, iso.PublicKey.N.Cmp(got.PublicKey.N))
}

func TestIsolatedPrivateKeyWireIdenticalToPlain(t *testing.T) {
	t.Parallel()

	lambda := big.NewInt(111)
	mu := big.NewInt(222)

	plainBlob, err := keyblob.EncodePrivateKey(&paillier.PrivateKey{
		PublicKey: samplePublicKey(), Lambda: lambda, Mu: mu,
	})
	require.NoError(t, err)

	isoBlob, err := keyblob.EncodeIsolatedPrivateKey(keyblob.IsolatedPrivateKeyMaterial{Lambda: lambda, Mu: mu})
	require.NoError(t, err)

	require.Equal(t, plainBlob, isoBlob)

	got, err := keyblob.DecodeIsolatedPrivateKey(isoBlob)
	require.NoError(t, err)
	require.Equal(t, 0, lambda.Cmp(got.Lambda))
	require.Equal(t, 0, mu.Cmp(got.Mu))
}
