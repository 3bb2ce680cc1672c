package resume

import (
	"context"
	"fmt"
	"time"

	"github.com/streamcrypt/enginecore/log"
	"github.com/streamcrypt/enginecore/stream"
)

const (
	// maxStateAge is the window within which a supplied initial state's
	// timestamp is still considered fresh.
	maxStateAge = 24 * time.Hour

	// DefaultChunkSize mirrors the stream package's default segment size.
	DefaultChunkSize = stream.DefaultChunkSize
)

// OnStateSaved is invoked with a defensive copy of the manager's state
// whenever an auto-save checkpoint boundary is crossed.
type OnStateSaved func(State)

// Option configures a Manager.
type Option func(*Manager)

// WithHMACIntegrity switches the manager's integrity-tag algorithm from the
// default XOR-fold construction to keyed HMAC-SHA-256, bumping persisted
// state to version 2. The two variants are never mixed within one Manager.
func WithHMACIntegrity(key []byte) Option {
	return func(m *Manager) {
		m.integrity = integrityAlgorithm{hmacKey: append([]byte(nil), key...)}
	}
}

// WithAutoSaveInterval sets the chunk-count interval at which OnStateSaved
// is invoked. Zero (the default) disables auto-save callbacks.
func WithAutoSaveInterval(n uint32) Option {
	return func(m *Manager) { m.autoSaveInterval = n }
}

// WithOnStateSaved registers the auto-save collaborator.
func WithOnStateSaved(fn OnStateSaved) Option {
	return func(m *Manager) { m.onStateSaved = fn }
}

// withClock overrides the manager's time source; used by tests.
func withClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager wraps a streaming engine with checkpointed, resumable encryption.
type Manager struct {
	engine           *stream.Engine
	state            State
	integrity        integrityAlgorithm
	autoSaveInterval uint32
	onStateSaved     OnStateSaved
	now              func() time.Time
}

// New constructs a Manager. If initialState is non-nil it is validated per
// the construction contract; a validation failure is returned immediately
// and the Manager is unusable.
func New(engine *stream.Engine, initialState *State, opts ...Option) (*Manager, error) {
	m := &Manager{
		engine: engine,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	if initialState == nil {
		m.state = State{Version: m.integrity.version()}
		return m, nil
	}

	if err := m.validateInitialState(*initialState); err != nil {
		return nil, err
	}
	m.state = *initialState
	return m, nil
}

func (m *Manager) validateInitialState(s State) error {
	switch s.Version {
	case xorFoldVersion, hmacSha256Version:
	default:
		return UnsupportedStateVersion
	}

	if s.PublicKeyHex == "" {
		return InvalidPublicKeyInState
	}

	if s.ChunkIndex > 0 && s.BytesProcessed == 0 {
		return InvalidChunkIndex
	}

	age := m.now().Sub(time.UnixMilli(s.TimestampMs))
	if age > maxStateAge {
		return StateTooOld
	}

	if s.IntegrityTagHex != "" {
		alg := m.integrity
		if s.Version == hmacSha256Version && alg.hmacKey == nil {
			log.Component("resume").Message("hmac-tagged state supplied without an hmac key configured")
			return StateIntegrityCheckFailed
		}
		if !alg.verify(s) {
			return StateIntegrityCheckFailed
		}
	}

	return nil
}

// State returns a defensive copy of the manager's current checkpoint state.
func (m *Manager) State() State {
	return m.state.Clone()
}

// Save produces a defensive copy of the current state with integrity_tag_hex
// populated by the manager's configured integrity algorithm.
func (m *Manager) Save() State {
	s := m.state.Clone()
	s.Version = m.integrity.version()
	s.IntegrityTagHex = m.integrity.compute(s)
	return s
}

// ResumeOptions configures an encrypt-resumed session. PublicKeyHex,
// ChunkSize, and IncludeChecksums must match the manager's stored state.
type ResumeOptions struct {
	RecipientPublicKey []byte
	PublicKeyHex       string
	ChunkSize          int
	IncludeChecksums   bool
}

// EncryptResumed validates opts against the manager's stored state,
// delegates segmentation and framing to the streaming engine with chunk
// numbering starting at the stored chunk_index, and updates in-memory state
// after each emitted chunk, invoking the configured OnStateSaved
// collaborator on auto-save boundaries. src is encrypted in full: no input
// is skipped, so it supplies only the bytes not yet processed.
func (m *Manager) EncryptResumed(ctx context.Context, src stream.BlockSource, emit stream.EmitFunc, opts ResumeOptions) error {
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	if m.state.PublicKeyHex != "" {
		if opts.PublicKeyHex != m.state.PublicKeyHex {
			return PublicKeyMismatch
		}
		if uint32(chunkSize) != m.state.ChunkSize {
			return ChunkSizeMismatch
		}
		if opts.IncludeChecksums != m.state.IncludeChecksums {
			return IncludeChecksumsMismatch
		}
	} else {
		m.state.PublicKeyHex = opts.PublicKeyHex
		m.state.ChunkSize = uint32(chunkSize)
		m.state.IncludeChecksums = opts.IncludeChecksums
	}

	startIndex := m.state.ChunkIndex

	streamOpts := stream.Options{
		ChunkSize:          chunkSize,
		IncludeChecksums:   opts.IncludeChecksums,
		RecipientPublicKey: opts.RecipientPublicKey,
		StartIndex:         startIndex,
		Progress: func(chunkBytes int) {
			m.state.ChunkIndex++
			m.state.BytesProcessed += uint64(chunkBytes)
			m.state.TimestampMs = nowMs(m.now())

			if m.autoSaveInterval > 0 && m.onStateSaved != nil && m.state.ChunkIndex%m.autoSaveInterval == 0 {
				m.onStateSaved(m.Save())
			}
		},
	}

	if err := m.engine.Encrypt(ctx, src, emit, streamOpts); err != nil {
		return fmt.Errorf("unable to encrypt resumed session: %w", err)
	}
	return nil
}

// RotateIntegrityKey replaces the manager's HMAC integrity key, so later
// Save calls sign under newKey; chunk_index and bytes_processed are left
// untouched. It is a
// no-op unless the manager was constructed with WithHMACIntegrity; a
// manager using the XOR-fold variant has no key to rotate.
func (m *Manager) RotateIntegrityKey(newKey []byte) error {
	if m.integrity.hmacKey == nil {
		return nil
	}
	m.integrity = integrityAlgorithm{hmacKey: append([]byte(nil), newKey...)}
	return nil
}
