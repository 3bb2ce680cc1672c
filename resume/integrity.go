package resume

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

const (
	integrityTagSize  = 32
	xorFoldVersion    = 1
	hmacSha256Version = 2
)

// canonicalStateBytes builds the canonical byte-string the integrity tag is
// computed over: "version|chunk_index|bytes_processed|public_key_hex|
// chunk_size|include_checksums|timestamp_ms".
func canonicalStateBytes(s State) []byte {
	return []byte(fmt.Sprintf("%d|%d|%d|%s|%d|%t|%d",
		s.Version, s.ChunkIndex, s.BytesProcessed, s.PublicKeyHex,
		s.ChunkSize, s.IncludeChecksums, s.TimestampMs))
}

// xorFoldTag computes the base position-folding XOR hash: out[i%32] ^= in[i].
func xorFoldTag(data []byte) []byte {
	out := make([]byte, integrityTagSize)
	for i, b := range data {
		out[i%integrityTagSize] ^= b
	}
	return out
}

// hmacTag computes a keyed HMAC-SHA-256 integrity tag.
func hmacTag(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

// integrityAlgorithm computes and verifies a checkpoint state's integrity
// tag. Exactly one variant is active per Manager instance: the default
// XOR-fold (state.version == 1) or, when WithHMACIntegrity is supplied, a
// keyed HMAC-SHA-256 upgrade (state.version == 2). The two are never mixed.
type integrityAlgorithm struct {
	hmacKey []byte // nil selects the XOR-fold variant
}

func (a integrityAlgorithm) version() uint32 {
	if a.hmacKey != nil {
		return hmacSha256Version
	}
	return xorFoldVersion
}

func (a integrityAlgorithm) compute(s State) string {
	canon := canonicalStateBytes(s)
	var tag []byte
	if a.hmacKey != nil {
		tag = hmacTag(a.hmacKey, canon)
	} else {
		tag = xorFoldTag(canon)
	}
	return hex.EncodeToString(tag)
}

// verify recomputes the tag for s (using s's own version/fields, ignoring
// s.IntegrityTagHex) and compares it constant-time against the stored tag.
func (a integrityAlgorithm) verify(s State) bool {
	if s.IntegrityTagHex == "" {
		return true
	}
	var tag []byte
	switch s.Version {
	case hmacSha256Version:
		if a.hmacKey == nil {
			return false
		}
		tag = hmacTag(a.hmacKey, canonicalStateBytes(s))
	default:
		// An HMAC-configured manager never accepts a keyless XOR-fold tag.
		if a.hmacKey != nil {
			return false
		}
		tag = xorFoldTag(canonicalStateBytes(s))
	}
	want, err := hex.DecodeString(s.IntegrityTagHex)
	if err != nil || len(want) != len(tag) {
		return false
	}
	return subtle.ConstantTimeCompare(tag, want) == 1
}
