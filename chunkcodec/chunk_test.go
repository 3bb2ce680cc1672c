package chunkcodec_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/streamcrypt/enginecore/chunkcodec"
	"github.com/streamcrypt/enginecore/cryptocore"
)

func newCodecAndKeys(t *testing.T) (*chunkcodec.Codec, []byte, []byte) {
	t.Helper()

	core := cryptocore.Default()
	priv, pub, err := core.GenerateKeyPair()
	require.NoError(t, err)

	return chunkcodec.New(core), priv, pub
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	t.Parallel()

	codec, priv, pub := newCodecAndKeys(t)
	plaintext := []byte("the quick brown fox jumps over the lazy dog")

	t.Run("without checksum", func(t *testing.T) {
		t.Parallel()

		chunk, err := codec.EncryptChunk(plaintext, pub, 3, true, false)
		require.NoError(t, err)

		out, header, err := codec.DecryptChunk(chunk, priv)
		require.NoError(t, err)
		require.Equal(t, plaintext, out)
		require.Equal(t, uint32(3), header.Index)
		require.True(t, header.IsLast())
		require.False(t, header.HasChecksum())
	})

	t.Run("with checksum", func(t *testing.T) {
		t.Parallel()

		chunk, err := codec.EncryptChunk(plaintext, pub, 0, false, true)
		require.NoError(t, err)

		out, header, err := codec.DecryptChunk(chunk, priv)
		require.NoError(t, err)
		require.Equal(t, plaintext, out)
		require.False(t, header.IsLast())
		require.True(t, header.HasChecksum())
	})

	t.Run("empty plaintext", func(t *testing.T) {
		t.Parallel()

		chunk, err := codec.EncryptChunk(nil, pub, 0, true, true)
		require.NoError(t, err)

		out, header, err := codec.DecryptChunk(chunk, priv)
		require.NoError(t, err)
		require.Empty(t, out)
		require.Equal(t, uint32(0), header.OriginalSize)
	})
}

func TestEncryptionIsRandomizedButHeadersMatch(t *testing.T) {
	t.Parallel()

	codec, _, pub := newCodecAndKeys(t)
	plaintext := []byte("identical payload")

	a, err := codec.EncryptChunk(plaintext, pub, 5, false, false)
	require.NoError(t, err)
	b, err := codec.EncryptChunk(plaintext, pub, 5, false, false)
	require.NoError(t, err)

	require.NotEqual(t, a, b)
	require.Equal(t, a[:chunkcodec.HeaderSize], b[:chunkcodec.HeaderSize])
}

func TestDecryptChunkFailureModes(t *testing.T) {
	t.Parallel()

	codec, priv, pub := newCodecAndKeys(t)
	plaintext := []byte("payload")

	chunk, err := codec.EncryptChunk(plaintext, pub, 1, true, true)
	require.NoError(t, err)

	t.Run("too short for header", func(t *testing.T) {
		t.Parallel()

		_, _, err := codec.DecryptChunk(chunk[:10], priv)
		require.ErrorIs(t, err, chunkcodec.DataTooShortForHeader)
	})

	t.Run("invalid magic", func(t *testing.T) {
		t.Parallel()

		tampered := append([]byte(nil), chunk...)
		tampered[0] ^= 0xFF
		_, _, err := codec.DecryptChunk(tampered, priv)
		require.ErrorIs(t, err, chunkcodec.InvalidMagic)
	})

	t.Run("unsupported version", func(t *testing.T) {
		t.Parallel()

		tampered := append([]byte(nil), chunk...)
		tampered[5] = 0xFF
		_, _, err := codec.DecryptChunk(tampered, priv)
		require.ErrorIs(t, err, chunkcodec.UnsupportedVersion)
	})

	t.Run("encrypted size mismatch", func(t *testing.T) {
		t.Parallel()

		truncated := chunk[:len(chunk)-1]
		_, _, err := codec.DecryptChunk(truncated, priv)
		require.ErrorIs(t, err, chunkcodec.EncryptedSizeMismatch)
	})

	t.Run("checksum mismatch", func(t *testing.T) {
		t.Parallel()

		tampered := append([]byte(nil), chunk...)
		tampered[len(tampered)-1] ^= 0xFF
		_, _, err := codec.DecryptChunk(tampered, priv)
		require.ErrorIs(t, err, chunkcodec.ChecksumMismatch)
	})

	t.Run("authentication failure with wrong key", func(t *testing.T) {
		t.Parallel()

		core := cryptocore.Default()
		otherPriv, _, err := core.GenerateKeyPair()
		require.NoError(t, err)

		_, _, err = codec.DecryptChunk(chunk, otherPriv)
		require.ErrorIs(t, err, chunkcodec.AuthenticationFailed)
	})

	t.Run("reserved flag bits rejected", func(t *testing.T) {
		t.Parallel()

		tampered := append([]byte(nil), chunk...)
		tampered[19] |= 0x80
		_, _, err := codec.DecryptChunk(tampered, priv)
		require.ErrorIs(t, err, chunkcodec.InvalidMagic)
	})
}
