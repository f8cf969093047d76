// Package recindex implements the on-disk index schema: the three key
// spaces ("c:" configuration, "h:" equivalent-class buckets, "m:" file
// signatures), their CBOR-based serialization, and the
// equivalent-class resolver that reconciles hash collisions with
// byte-level comparison.
package recindex

import (
	"encoding/binary"
)

// Key space prefixes. These are raw bytes, not strings with a ':'
// separator character stripped at use time, so callers never need to
// reason about encoding beyond this file.
var (
	prefixConfig = []byte("c:")
	prefixBucket = []byte("h:")
	prefixSig    = []byte("m:")
)

// ConfigPrefix returns the bare "c:" prefix, used to iterate every
// configuration entry.
func ConfigPrefix() []byte {
	return append([]byte(nil), prefixConfig...)
}

// BucketPrefixAll returns the bare "h:" prefix, used to iterate every
// bucket of every digest (e.g. during a rebuild's truncation pass).
func BucketPrefixAll() []byte {
	return append([]byte(nil), prefixBucket...)
}

// ConfigKey builds a "c:<name>" key.
func ConfigKey(name string) []byte {
	return append(append([]byte(nil), prefixConfig...), name...)
}

// ConfigName recovers the name from a "c:<name>" key.
func ConfigName(key []byte) string {
	return string(key[len(prefixConfig):])
}

// HasConfigPrefix reports whether key lies in the "c:" key space.
func HasConfigPrefix(key []byte) bool {
	return hasPrefix(key, prefixConfig)
}

// BucketPrefix returns the "h:<digest>" prefix shared by every ec_id
// of one digest, for prefix iteration.
func BucketPrefix(digest []byte) []byte {
	out := make([]byte, 0, len(prefixBucket)+len(digest))
	out = append(out, prefixBucket...)
	out = append(out, digest...)
	return out
}

// BucketKey builds the full "h:<digest><ec_id_be32>" key. ec_id is
// encoded big-endian so lexicographic key order equals numeric ec_id
// order, per the index schema.
func BucketKey(digest []byte, ecID uint32) []byte {
	key := make([]byte, 0, len(prefixBucket)+len(digest)+4)
	key = append(key, prefixBucket...)
	key = append(key, digest...)
	var ecBytes [4]byte
	binary.BigEndian.PutUint32(ecBytes[:], ecID)
	key = append(key, ecBytes[:]...)
	return key
}

// SplitBucketKey recovers the digest and ec_id from a "h:" key, given
// the digest size in bytes (determined by the repository's configured
// hash algorithm).
func SplitBucketKey(key []byte, digestSize int) (digest []byte, ecID uint32, ok bool) {
	if !hasPrefix(key, prefixBucket) {
		return nil, 0, false
	}
	rest := key[len(prefixBucket):]
	if len(rest) != digestSize+4 {
		return nil, 0, false
	}
	digest = rest[:digestSize]
	ecID = binary.BigEndian.Uint32(rest[digestSize:])
	return digest, ecID, true
}

// SignatureKey builds the "m:<encoded path>" key from an
// already-encoded (pathcodec.Encode) path.
func SignatureKey(encodedPath []byte) []byte {
	key := make([]byte, 0, len(prefixSig)+len(encodedPath))
	key = append(key, prefixSig...)
	key = append(key, encodedPath...)
	return key
}

// SignaturePathSuffix recovers the encoded path suffix from a "m:" key.
func SignaturePathSuffix(key []byte) []byte {
	return key[len(prefixSig):]
}

// HasSignaturePrefix reports whether key lies in the "m:" key space.
func HasSignaturePrefix(key []byte) bool {
	return hasPrefix(key, prefixSig)
}

// SignaturePrefix returns the bare "m:" prefix, used to iterate every
// signature in the store.
func SignaturePrefix() []byte {
	return append([]byte(nil), prefixSig...)
}

func hasPrefix(key, prefix []byte) bool {
	if len(key) < len(prefix) {
		return false
	}
	for i := range prefix {
		if key[i] != prefix[i] {
			return false
		}
	}
	return true
}

// Well-known configuration names.
const (
	ConfigHashAlgorithm = "hash-algorithm"
	ConfigTruncating    = "truncating"
)

// TruncatingMarkerValue is the value written to c:truncating while a
// rebuild is in progress.
const TruncatingMarkerValue = "truncate"
