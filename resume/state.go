// Package resume implements the resumable encryption manager: it wraps the
// streaming engine with integrity-protected checkpoint state so a
// long-running encryption session can persist its progress and continue
// after a restart.
//
// Checkpoint persistence follows the teacher pack's atomic-write discipline
// (ioutil/atomic.WriteFile: tempfile, fsync, rename) and its at-rest
// encryption borrows the teacher's HKDF-derived-key ChaCha20-Poly1305
// construction (crypto/encryption/internal/d4), generalized from a file
// envelope to a single encrypted checkpoint blob.
package resume

import (
	"encoding/json"
	"fmt"
	"time"
)

// State is the resumable manager's checkpoint: the minimum facts needed to
// continue an in-progress encryption session from the next un-emitted
// chunk.
type State struct {
	Version          uint32 `json:"version"`
	ChunkIndex       uint32 `json:"chunk_index"`
	BytesProcessed   uint64 `json:"bytes_processed"`
	TotalBytes       *uint64 `json:"total_bytes,omitempty"`
	PublicKeyHex     string `json:"public_key_hex"`
	EncryptionType   string `json:"encryption_type"`
	ChunkSize        uint32 `json:"chunk_size"`
	IncludeChecksums bool   `json:"include_checksums"`
	TimestampMs      int64  `json:"timestamp_ms"`
	IntegrityTagHex  string `json:"integrity_tag_hex,omitempty"`
}

// Clone returns a defensive, independent copy of the state, as required
// before handing it to an on_state_saved collaborator.
func (s State) Clone() State {
	out := s
	if s.TotalBytes != nil {
		total := *s.TotalBytes
		out.TotalBytes = &total
	}
	return out
}

// MarshalJSON is the recommended interchange encoding for persisted state;
// any encoding preserving field names and sizes is acceptable, but this is
// the one the FileCheckpointStore uses.
func (s State) MarshalJSON() ([]byte, error) {
	type alias State
	b, err := json.Marshal(alias(s))
	if err != nil {
		return nil, fmt.Errorf("unable to marshal checkpoint state: %w", err)
	}
	return b, nil
}

// nowMs returns the current time as Unix milliseconds.
func nowMs(now time.Time) int64 {
	return now.UnixMilli()
}
