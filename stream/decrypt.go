package stream

import (
	"context"
	"fmt"

	"github.com/streamcrypt/enginecore/log"
)

// YieldFunc receives each chunk's decrypted plaintext, in order.
type YieldFunc func(plaintext []byte) error

// DecryptOptions configures a decryption session.
type DecryptOptions struct {
	Progress ProgressFunc

	// RecipientID selects multi-recipient framing when non-empty.
	RecipientID         []byte
	RecipientPrivateKey []byte
}

// Decrypt reads framed chunks from src in order, decrypts each one, and
// invokes yield with the plaintext. It enforces strict increasing chunk
// indices and stops after observing IS_LAST; any chunks presented afterward
// are ignored.
func (e *Engine) Decrypt(ctx context.Context, src ChunkSource, yield YieldFunc, opts DecryptOptions) error {
	expectedIndex := uint32(0)
	multiMode := len(opts.RecipientID) > 0

	for {
		if err := checkCancelled(ctx); err != nil {
			return err
		}

		data, ok, err := src.Next(ctx)
		if err != nil {
			return fmt.Errorf("unable to read chunk: %w", err)
		}
		if !ok {
			return nil
		}

		if err := checkCancelled(ctx); err != nil {
			return err
		}

		var (
			plaintext []byte
			index     uint32
			isLast    bool
		)

		if multiMode {
			out, header, err := e.multi.DecryptChunk(data, opts.RecipientID, opts.RecipientPrivateKey)
			if err != nil {
				return err
			}
			plaintext, index, isLast = out, header.ChunkIndex, header.IsLast()
		} else {
			out, header, err := e.single.DecryptChunk(data, opts.RecipientPrivateKey)
			if err != nil {
				return err
			}
			plaintext, index, isLast = out, header.Index, header.IsLast()
		}

		if index != expectedIndex {
			log.Component("stream").Field("expected_index", expectedIndex).Field("got_index", index).Message("rejected chunk: out of sequence")
			return ChunkSequenceError
		}
		expectedIndex++

		if err := yield(plaintext); err != nil {
			return fmt.Errorf("unable to yield plaintext: %w", err)
		}
		if opts.Progress != nil {
			opts.Progress(len(plaintext))
		}

		if isLast {
			return nil
		}
	}
}
