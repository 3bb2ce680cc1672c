package stream

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/streamcrypt/enginecore/ioutil"
)

// chunkLengthPrefixSize is the width of the length prefix ReaderChunkSource
// expects ahead of every framed chunk.
const chunkLengthPrefixSize = 4

// ReaderBlockSource adapts a plain io.Reader into a BlockSource, grounded
// directly on the teacher pack's ioutil.LimitCopy: each Next call copies at
// most chunkSize bytes through a buffered, hard-limited loop, so a reader
// that ignores the requested size can never hand Encrypt a block larger
// than MaxSourceBlockSize.
type ReaderBlockSource struct {
	r         io.Reader
	chunkSize int
}

// NewReaderBlockSource returns a BlockSource pulling chunkSize-sized blocks
// from r. A non-positive chunkSize falls back to DefaultChunkSize.
func NewReaderBlockSource(r io.Reader, chunkSize int) *ReaderBlockSource {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &ReaderBlockSource{r: r, chunkSize: chunkSize}
}

// Next implements BlockSource.
func (s *ReaderBlockSource) Next(ctx context.Context) ([]byte, bool, error) {
	if err := checkCancelled(ctx); err != nil {
		return nil, false, err
	}

	var buf bytes.Buffer
	written, err := ioutil.LimitCopy(&buf, io.LimitReader(s.r, int64(s.chunkSize)), uint64(MaxSourceBlockSize))
	if err != nil {
		if errors.Is(err, ioutil.ErrTruncatedCopy) {
			return nil, false, BufferOverflow
		}
		return nil, false, fmt.Errorf("unable to read source block: %w", err)
	}
	if written == 0 {
		return nil, false, nil
	}
	return buf.Bytes(), true, nil
}

// ReaderChunkSource adapts a plain io.Reader carrying
// length-prefixed(u32 big-endian) || chunk bytes records into a ChunkSource,
// used to feed Decrypt from a transport or file. The declared length is
// never trusted outright: the body copy is bounded by the teacher pack's
// ioutil.LimitWriter at maxChunkSize, so a forged, oversized length prefix
// cannot force an unbounded read before chunkcodec/multirecipient ever sees
// the bytes.
type ReaderChunkSource struct {
	r            io.Reader
	maxChunkSize int
}

// NewReaderChunkSource returns a ChunkSource reading length-prefixed chunks
// from r, rejecting any declared length over maxChunkSize.
func NewReaderChunkSource(r io.Reader, maxChunkSize int) *ReaderChunkSource {
	if maxChunkSize <= 0 {
		maxChunkSize = MaxSourceBlockSize
	}
	return &ReaderChunkSource{r: r, maxChunkSize: maxChunkSize}
}

// Next implements ChunkSource.
func (s *ReaderChunkSource) Next(ctx context.Context) ([]byte, bool, error) {
	if err := checkCancelled(ctx); err != nil {
		return nil, false, err
	}

	var lenBuf [chunkLengthPrefixSize]byte
	if _, err := io.ReadFull(s.r, lenBuf[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("unable to read chunk length prefix: %w", err)
	}
	declared := binary.BigEndian.Uint32(lenBuf[:])

	// LimitWriter caps what actually reaches body at maxChunkSize
	// regardless of how large declared claims to be, so a forged,
	// oversized length prefix is caught below rather than trusted.
	var body bytes.Buffer
	limited := ioutil.LimitWriter(&body, s.maxChunkSize)
	if _, err := io.CopyN(limited, s.r, int64(declared)); err != nil {
		return nil, false, fmt.Errorf("unable to read chunk body: %w", err)
	}
	if body.Len() != int(declared) {
		return nil, false, BufferOverflow
	}

	return body.Bytes(), true, nil
}
