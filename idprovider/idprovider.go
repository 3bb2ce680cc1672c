// Package idprovider generates and compares the recipient identifiers
// carried in a multi-recipient chunk's recipient table.
//
// The default implementation is grounded on the teacher pack's
// generator/token UUIDv4 source (github.com/google/uuid): every recipient id
// is a 16-byte UUIDv4, matching the fixed recipient-id width the wire format
// requires.
package idprovider

import (
	"crypto/subtle"
	"fmt"

	"github.com/google/uuid"
)

// IDLength is the fixed byte width of every recipient identifier produced by
// this package.
const IDLength = 16

// IDProvider generates recipient identifiers and compares them in constant
// time, so that a multi-recipient reader's matching loop never leaks timing
// information about which table entry (if any) belongs to the caller.
type IDProvider interface {
	// Generate returns a fresh IDLength-byte recipient identifier.
	Generate() ([]byte, error)

	// EqualCT reports whether a and b are the same identifier, in time
	// independent of where they first differ.
	EqualCT(a, b []byte) bool
}

// Default returns the production IDProvider: UUIDv4 identifiers from
// crypto/rand via github.com/google/uuid.
func Default() IDProvider {
	return uuidProvider{}
}

type uuidProvider struct{}

// Generate implements IDProvider.
func (uuidProvider) Generate() ([]byte, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("unable to generate recipient id: %w", err)
	}
	out := make([]byte, IDLength)
	copy(out, id[:])
	return out, nil
}

// EqualCT implements IDProvider.
func (uuidProvider) EqualCT(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
