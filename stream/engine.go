// Package stream implements the streaming encryption/decryption engine: it
// segments an arbitrary byte-block source into fixed-size plaintext chunks,
// delegates chunk framing to chunkcodec or multirecipient, and performs the
// dual operation on decryption while enforcing strict chunk ordering.
//
// BlockSource and ChunkSource are pull-based interfaces; reader_source.go
// adapts a plain io.Reader to either one on top of the teacher pack's
// bounded ioutil.LimitCopy/LimitWriter, which is where this package's
// buffered, hard-limited reads are actually grounded.
package stream

import (
	"context"
	"fmt"

	"github.com/streamcrypt/enginecore/chunkcodec"
	"github.com/streamcrypt/enginecore/cryptocore"
	"github.com/streamcrypt/enginecore/multirecipient"
	"github.com/streamcrypt/enginecore/progress"
)

const (
	// DefaultChunkSize is the plaintext segment size used when Options.ChunkSize
	// is left at its zero value.
	DefaultChunkSize = 1 << 20 // 1 MiB

	// MaxSourceBlockSize is the largest single block BlockSource.Next may
	// return before Encrypt fails with BufferOverflow.
	MaxSourceBlockSize = 100 << 20 // 100 MiB
)

// BlockSource pulls successive byte blocks from a byte-producer. Next
// returns ok=false once the source is exhausted.
type BlockSource interface {
	Next(ctx context.Context) (block []byte, ok bool, err error)
}

// ChunkSource pulls successive framed chunk byte-strings from a byte
// consumer, e.g. reading length-delimited records off a transport.
type ChunkSource interface {
	Next(ctx context.Context) (chunk []byte, ok bool, err error)
}

// ProgressFunc is invoked after every chunk is emitted (encryption) or
// consumed (decryption) with the number of plaintext bytes involved.
type ProgressFunc func(chunkBytes int)

// Options configures an encryption or decryption session.
type Options struct {
	ChunkSize        int
	IncludeChecksums bool
	Progress         ProgressFunc
	Tracker          *progress.Tracker

	// Recipients selects multi-recipient framing. When empty, single
	// recipient framing (chunkcodec) is used with RecipientPublicKey.
	Recipients         []multirecipient.Recipient
	RecipientPublicKey []byte
	SharedKey          []byte
	BindHeaderAAD      bool

	// StartIndex lets a resumable caller begin chunk indices above zero.
	StartIndex uint32
}

func (o Options) chunkSize() int {
	if o.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return o.ChunkSize
}

func (o Options) report(n int) {
	if o.Progress != nil {
		o.Progress(n)
	}
	if o.Tracker != nil {
		_, _ = o.Tracker.Update(int64(n))
	}
}

// Engine drives the chunk-level codecs against a byte-block source or
// chunk source.
type Engine struct {
	core   cryptocore.CryptoCore
	single *chunkcodec.Codec
	multi  *multirecipient.Codec
}

// New returns an Engine backed by the given CryptoCore and multirecipient
// Codec (used only for multi-recipient sessions).
func New(core cryptocore.CryptoCore, multi *multirecipient.Codec) *Engine {
	return &Engine{
		core:   core,
		single: chunkcodec.New(core),
		multi:  multi,
	}
}

// EmitFunc receives each framed chunk produced by Encrypt, in order.
type EmitFunc func(chunk []byte) error

// Encrypt segments src into chunk_size plaintext slices and frames each one
// via chunkcodec (single recipient) or multirecipient (recipient list),
// invoking emit for every produced chunk in increasing index order.
//
// The base contract describes retroactively marking an already-emitted
// chunk's is_last flag once the source turns out to be exhausted exactly on
// a chunk boundary. Since emit hands a chunk's bytes irrevocably to the
// caller, this Engine achieves the same externally observable stream by
// holding one full segment back as a pending chunk: a pending segment is
// only framed and emitted once the engine knows for certain whether another
// segment follows it, so the is_last flag it receives is always correct the
// first time it is framed.
func (e *Engine) Encrypt(ctx context.Context, src BlockSource, emit EmitFunc, opts Options) error {
	if len(opts.Recipients) > 0 {
		if err := validateRecipients(opts.Recipients); err != nil {
			return err
		}
		if len(opts.SharedKey) != multirecipient.SharedKeySize {
			return fmt.Errorf("%w: shared key must be %d bytes", multirecipient.InvalidKeySize, multirecipient.SharedKeySize)
		}
	} else if err := validateSingleRecipientKey(opts.RecipientPublicKey); err != nil {
		return err
	}

	chunkSize := opts.chunkSize()
	var buf []byte
	nextIndex := opts.StartIndex
	var pending []byte
	havePending := false

	flushPending := func(isLast bool) error {
		if !havePending {
			return nil
		}
		chunk, err := e.encodeChunk(pending, nextIndex, isLast, opts)
		if err != nil {
			return err
		}
		if err := emit(chunk); err != nil {
			return fmt.Errorf("unable to emit chunk: %w", err)
		}
		opts.report(len(pending))
		nextIndex++
		pending = nil
		havePending = false
		return nil
	}

	for {
		if err := checkCancelled(ctx); err != nil {
			return err
		}

		block, ok, err := src.Next(ctx)
		if err != nil {
			return fmt.Errorf("unable to read source block: %w", err)
		}
		if !ok {
			break
		}
		if len(block) > MaxSourceBlockSize {
			return BufferOverflow
		}

		buf = append(buf, block...)

		for len(buf) >= chunkSize {
			if err := checkCancelled(ctx); err != nil {
				return err
			}
			// A new full segment exists, so any previously pending segment
			// is now known not to be last.
			if err := flushPending(false); err != nil {
				return err
			}
			pending = append([]byte(nil), buf[:chunkSize]...)
			havePending = true
			buf = append([]byte(nil), buf[chunkSize:]...)
		}
	}

	if err := checkCancelled(ctx); err != nil {
		return err
	}

	switch {
	case len(buf) > 0:
		// A non-empty remainder always forms the true final chunk.
		if err := flushPending(false); err != nil {
			return err
		}
		pending = buf
		havePending = true
		return flushPending(true)
	default:
		// Source ended exactly on a chunk boundary (or produced nothing):
		// whatever is pending, if anything, is the final chunk.
		return flushPending(true)
	}
}

func (e *Engine) encodeChunk(segment []byte, index uint32, isLast bool, opts Options) ([]byte, error) {
	if len(opts.Recipients) > 0 {
		return e.multi.EncryptChunk(segment, opts.SharedKey, opts.Recipients, index, isLast, opts.BindHeaderAAD)
	}
	return e.single.EncryptChunk(segment, opts.RecipientPublicKey, index, isLast, opts.IncludeChecksums)
}

func validateSingleRecipientKey(pub []byte) error {
	if len(pub) != 33 && len(pub) != 65 {
		return fmt.Errorf("%w: recipient public key must be 33 or 65 bytes", InvalidRecipientKey)
	}
	return nil
}

func validateRecipients(recipients []multirecipient.Recipient) error {
	if len(recipients) < 1 || len(recipients) > multirecipient.MaxRecipients {
		return multirecipient.InvalidRecipientCount
	}
	for _, r := range recipients {
		if len(r.ID) != 16 {
			return fmt.Errorf("%w: recipient id must be 16 bytes", InvalidRecipientKey)
		}
		if len(r.PublicKey) != 33 && len(r.PublicKey) != 65 {
			return fmt.Errorf("%w: recipient public key must be 33 or 65 bytes", InvalidRecipientKey)
		}
	}
	return nil
}

func checkCancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return Cancelled
	default:
		return nil
	}
}
