package resume

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/streamcrypt/enginecore/ioutil/atomic"
)

// FileCheckpointStore persists checkpoint State to a single file on disk,
// writing atomically via ioutil/atomic.WriteFile (tempfile, fsync, rename)
// so a crash mid-write never corrupts a previously saved checkpoint. When a
// codec is set, the JSON payload is additionally sealed in an
// EncryptedStateCodec envelope before it touches disk.
type FileCheckpointStore struct {
	path  string
	codec *EncryptedStateCodec
}

// NewFileCheckpointStore returns a store backed by path. codec may be nil to
// persist plaintext JSON.
func NewFileCheckpointStore(path string, codec *EncryptedStateCodec) *FileCheckpointStore {
	return &FileCheckpointStore{path: path, codec: codec}
}

// Save atomically writes s to the store's file.
func (f *FileCheckpointStore) Save(s State) error {
	var payload []byte
	var err error

	if f.codec != nil {
		payload, err = f.codec.Seal(s)
		if err != nil {
			return fmt.Errorf("unable to seal checkpoint state: %w", err)
		}
	} else {
		payload, err = json.Marshal(s)
		if err != nil {
			return fmt.Errorf("unable to marshal checkpoint state: %w", err)
		}
	}

	if err := atomic.WriteFile(f.path, bytes.NewReader(payload)); err != nil {
		return fmt.Errorf("unable to persist checkpoint state: %w", err)
	}
	return nil
}

// Load reads and decodes the store's checkpoint state.
func (f *FileCheckpointStore) Load() (State, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return State{}, fmt.Errorf("unable to read checkpoint state: %w", err)
	}

	if f.codec != nil {
		return f.codec.Open(raw)
	}

	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return State{}, fmt.Errorf("unable to unmarshal checkpoint state: %w", err)
	}
	return s, nil
}
