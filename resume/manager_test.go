package resume_test

import (
	"bytes"
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/streamcrypt/enginecore/cryptocore"
	"github.com/streamcrypt/enginecore/generator/randomness"
	"github.com/streamcrypt/enginecore/idprovider"
	"github.com/streamcrypt/enginecore/multirecipient"
	"github.com/streamcrypt/enginecore/resume"
	"github.com/streamcrypt/enginecore/stream"
)

type sliceSource struct {
	blocks [][]byte
	idx    int
}

func (s *sliceSource) Next(ctx context.Context) ([]byte, bool, error) {
	if s.idx >= len(s.blocks) {
		return nil, false, nil
	}
	b := s.blocks[s.idx]
	s.idx++
	return b, true, nil
}

func newManagerHarness(t *testing.T) (*stream.Engine, cryptocore.CryptoCore) {
	t.Helper()
	core := cryptocore.Default()
	ids := idprovider.Default()
	multi := multirecipient.New(core, ids)
	return stream.New(core, multi), core
}

func TestNewWithoutInitialStateStartsAtZero(t *testing.T) {
	t.Parallel()

	engine, _ := newManagerHarness(t)
	m, err := resume.New(engine, nil)
	require.NoError(t, err)
	require.Zero(t, m.State().ChunkIndex)
}

func TestConstructionRejectsUnsupportedVersion(t *testing.T) {
	t.Parallel()

	engine, _ := newManagerHarness(t)
	state := &resume.State{Version: 99, PublicKeyHex: "aa", TimestampMs: time.Now().UnixMilli()}
	_, err := resume.New(engine, state)
	require.ErrorIs(t, err, resume.UnsupportedStateVersion)
}

func TestConstructionRejectsEmptyPublicKeyHex(t *testing.T) {
	t.Parallel()

	engine, _ := newManagerHarness(t)
	state := &resume.State{Version: 1, TimestampMs: time.Now().UnixMilli()}
	_, err := resume.New(engine, state)
	require.ErrorIs(t, err, resume.InvalidPublicKeyInState)
}

func TestConstructionRejectsStateTooOld(t *testing.T) {
	t.Parallel()

	engine, _ := newManagerHarness(t)
	state := &resume.State{
		Version:      1,
		PublicKeyHex: "aa",
		TimestampMs:  time.Now().Add(-48 * time.Hour).UnixMilli(),
	}
	_, err := resume.New(engine, state)
	require.ErrorIs(t, err, resume.StateTooOld)
}

func TestConstructionRejectsInconsistentChunkIndex(t *testing.T) {
	t.Parallel()

	engine, _ := newManagerHarness(t)
	state := &resume.State{
		Version:      1,
		PublicKeyHex: "aa",
		ChunkIndex:   3,
		// BytesProcessed left at zero: three chunks could not have been
		// emitted without processing any bytes.
		TimestampMs: time.Now().UnixMilli(),
	}
	_, err := resume.New(engine, state)
	require.ErrorIs(t, err, resume.InvalidChunkIndex)
}

func TestSaveThenResumeRoundTripsIntegrityTag(t *testing.T) {
	t.Parallel()

	engine, _ := newManagerHarness(t)
	m, err := resume.New(engine, &resume.State{
		Version:      1,
		PublicKeyHex: "aa",
		TimestampMs:  time.Now().UnixMilli(),
	})
	require.NoError(t, err)

	saved := m.Save()
	require.NotEmpty(t, saved.IntegrityTagHex)

	// A freshly constructed manager with the saved state must accept it.
	resumed, err := resume.New(engine, &saved)
	require.NoError(t, err)
	require.Equal(t, saved.ChunkIndex, resumed.State().ChunkIndex)
}

func TestSaveTamperedIntegrityTagRejected(t *testing.T) {
	t.Parallel()

	engine, _ := newManagerHarness(t)
	m, err := resume.New(engine, nil)
	require.NoError(t, err)
	require.NoError(t, m.RotateIntegrityKey(nil)) // no-op under xor-fold

	saved := m.Save()
	saved.PublicKeyHex = "aa"
	saved.TimestampMs = time.Now().UnixMilli()
	saved.IntegrityTagHex = hex.EncodeToString(bytes.Repeat([]byte{0xFF}, 32))

	_, err = resume.New(engine, &saved)
	require.ErrorIs(t, err, resume.StateIntegrityCheckFailed)
}

func TestHMACIntegrityVariantBumpsVersion(t *testing.T) {
	t.Parallel()

	engine, _ := newManagerHarness(t)
	key := bytes.Repeat([]byte{0x42}, 32)
	m, err := resume.New(engine, &resume.State{
		Version:      1,
		PublicKeyHex: "aa",
		TimestampMs:  time.Now().UnixMilli(),
	}, resume.WithHMACIntegrity(key))
	require.NoError(t, err)

	saved := m.Save()
	require.Equal(t, uint32(2), saved.Version)

	m2, err := resume.New(engine, &saved, resume.WithHMACIntegrity(key))
	require.NoError(t, err)
	require.NotNil(t, m2)

	// A different key must fail verification.
	_, err = resume.New(engine, &saved, resume.WithHMACIntegrity(bytes.Repeat([]byte{0x01}, 32)))
	require.ErrorIs(t, err, resume.StateIntegrityCheckFailed)
}

func TestEncryptResumedSkipsAlreadyProcessedChunksAndUpdatesState(t *testing.T) {
	t.Parallel()

	engine, core := newManagerHarness(t)
	_, pub, err := core.GenerateKeyPair()
	require.NoError(t, err)
	pubHex := hex.EncodeToString(pub)

	chunkSize := 1 << 20 // 1 MiB
	total := 5 * chunkSize
	plaintext, err := randomness.Bytes(total)
	require.NoError(t, err)

	// First pass: encrypt the first two chunks only, capture state.
	m, err := resume.New(engine, nil)
	require.NoError(t, err)

	firstTwo := plaintext[:2*chunkSize]
	var firstChunks [][]byte
	err = m.EncryptResumed(context.Background(), &sliceSource{blocks: [][]byte{firstTwo}}, func(c []byte) error {
		firstChunks = append(firstChunks, append([]byte(nil), c...))
		return nil
	}, resume.ResumeOptions{RecipientPublicKey: pub, PublicKeyHex: pubHex, ChunkSize: chunkSize})
	require.NoError(t, err)
	require.Len(t, firstChunks, 2)
	require.Equal(t, uint32(2), m.State().ChunkIndex)

	saved := m.Save()

	// Second pass: resume from the saved state, feeding the remaining bytes.
	m2, err := resume.New(engine, &saved)
	require.NoError(t, err)

	remainder := plaintext[2*chunkSize:]
	var restChunks [][]byte
	err = m2.EncryptResumed(context.Background(), &sliceSource{blocks: [][]byte{remainder}}, func(c []byte) error {
		restChunks = append(restChunks, append([]byte(nil), c...))
		return nil
	}, resume.ResumeOptions{RecipientPublicKey: pub, PublicKeyHex: pubHex, ChunkSize: chunkSize})
	require.NoError(t, err)
	require.Len(t, restChunks, 3)
	require.Equal(t, uint64(total), m2.State().BytesProcessed)
}

func TestEncryptResumedRejectsMismatchedOptions(t *testing.T) {
	t.Parallel()

	engine, core := newManagerHarness(t)
	_, pub, err := core.GenerateKeyPair()
	require.NoError(t, err)

	state := &resume.State{
		Version:      1,
		PublicKeyHex: hex.EncodeToString(pub),
		ChunkSize:    1024,
		TimestampMs:  time.Now().UnixMilli(),
	}
	m, err := resume.New(engine, state)
	require.NoError(t, err)

	err = m.EncryptResumed(context.Background(), &sliceSource{}, func([]byte) error { return nil },
		resume.ResumeOptions{RecipientPublicKey: pub, PublicKeyHex: "wrong", ChunkSize: 1024})
	require.ErrorIs(t, err, resume.PublicKeyMismatch)

	err = m.EncryptResumed(context.Background(), &sliceSource{}, func([]byte) error { return nil },
		resume.ResumeOptions{RecipientPublicKey: pub, PublicKeyHex: state.PublicKeyHex, ChunkSize: 2048})
	require.ErrorIs(t, err, resume.ChunkSizeMismatch)

	err = m.EncryptResumed(context.Background(), &sliceSource{}, func([]byte) error { return nil },
		resume.ResumeOptions{RecipientPublicKey: pub, PublicKeyHex: state.PublicKeyHex, ChunkSize: 1024, IncludeChecksums: true})
	require.ErrorIs(t, err, resume.IncludeChecksumsMismatch)
}

func TestAutoSaveInvokesCallbackOnInterval(t *testing.T) {
	t.Parallel()

	engine, core := newManagerHarness(t)
	_, pub, err := core.GenerateKeyPair()
	require.NoError(t, err)

	var saves []resume.State
	m, err := resume.New(engine, nil,
		resume.WithAutoSaveInterval(2),
		resume.WithOnStateSaved(func(s resume.State) { saves = append(saves, s) }),
	)
	require.NoError(t, err)

	chunkSize := 16
	plaintext := bytes.Repeat([]byte{0x01}, chunkSize*4)

	err = m.EncryptResumed(context.Background(), &sliceSource{blocks: [][]byte{plaintext}}, func([]byte) error { return nil },
		resume.ResumeOptions{RecipientPublicKey: pub, PublicKeyHex: hex.EncodeToString(pub), ChunkSize: chunkSize})
	require.NoError(t, err)
	require.Len(t, saves, 2)
	require.Equal(t, uint32(2), saves[0].ChunkIndex)
	require.Equal(t, uint32(4), saves[1].ChunkIndex)
}

func TestEncryptedStateCodecRoundTrip(t *testing.T) {
	t.Parallel()

	key := bytes.Repeat([]byte{0x11}, 32)
	codec, err := resume.NewEncryptedStateCodec(key)
	require.NoError(t, err)

	s := resume.State{Version: 1, ChunkIndex: 3, BytesProcessed: 4096, PublicKeyHex: "abcd", ChunkSize: 1024, TimestampMs: 123456}
	blob, err := codec.Seal(s)
	require.NoError(t, err)

	got, err := codec.Open(blob)
	require.NoError(t, err)
	require.Equal(t, s, got)

	blob[len(blob)-1] ^= 0xFF
	_, err = codec.Open(blob)
	require.ErrorIs(t, err, resume.ErrEncryptedStateAuthFailed)
}

func TestEncryptedStateCodecRejectsShortKey(t *testing.T) {
	t.Parallel()

	_, err := resume.NewEncryptedStateCodec([]byte("short"))
	require.ErrorIs(t, err, resume.ErrInvalidCodecKey)
}

func TestFileCheckpointStorePlaintextRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "checkpoint.json")
	store := resume.NewFileCheckpointStore(path, nil)

	s := resume.State{Version: 1, ChunkIndex: 7, PublicKeyHex: "aa", ChunkSize: 1024, TimestampMs: 99}
	require.NoError(t, store.Save(s))

	got, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, s, got)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestFileCheckpointStoreEncryptedRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "checkpoint.bin")
	codec, err := resume.NewEncryptedStateCodec(bytes.Repeat([]byte{0x22}, 32))
	require.NoError(t, err)
	store := resume.NewFileCheckpointStore(path, codec)

	s := resume.State{Version: 1, ChunkIndex: 9, PublicKeyHex: "bb", ChunkSize: 2048, TimestampMs: 42}
	require.NoError(t, store.Save(s))

	got, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, s, got)
}
