package recindex

import (
	"github.com/fxamacker/cbor/v2"
)

// Bucket is the ordered list of repository-relative paths sharing one
// (digest, ec_id) pair, stored under a single "h:" key. Paths within a
// bucket are kept unique and, outside of the mid-append window, sorted
// ascending so that listings of a bucket's contents are deterministic.
type Bucket struct {
	Paths []string `cbor:"paths"`
}

// EncodeBucket serializes a Bucket with CBOR.
func EncodeBucket(b Bucket) ([]byte, error) {
	return cbor.Marshal(b)
}

// DecodeBucket is the inverse of EncodeBucket.
func DecodeBucket(data []byte) (Bucket, error) {
	var b Bucket
	err := cbor.Unmarshal(data, &b)
	return b, err
}

// Contains reports whether path is already a member of the bucket.
func (b Bucket) Contains(path string) bool {
	for _, p := range b.Paths {
		if p == path {
			return true
		}
	}
	return false
}

// WithPath returns a copy of the bucket with path appended, keeping
// members sorted and de-duplicated.
func (b Bucket) WithPath(path string) Bucket {
	if b.Contains(path) {
		return b
	}
	paths := make([]string, len(b.Paths)+1)
	copy(paths, b.Paths)
	paths[len(b.Paths)] = path

	// Insertion sort: buckets are expected to stay small (one member
	// under SHA-256 in the common case), so this is cheaper than
	// pulling in sort.Strings for what is usually a single comparison.
	for i := len(paths) - 1; i > 0 && paths[i] < paths[i-1]; i-- {
		paths[i], paths[i-1] = paths[i-1], paths[i]
	}

	return Bucket{Paths: paths}
}

// WithoutPath returns a copy of the bucket with path removed, if
// present.
func (b Bucket) WithoutPath(path string) Bucket {
	if !b.Contains(path) {
		return b
	}
	paths := make([]string, 0, len(b.Paths))
	for _, p := range b.Paths {
		if p != path {
			paths = append(paths, p)
		}
	}
	return Bucket{Paths: paths}
}

// Empty reports whether the bucket has no members and should be
// deleted.
func (b Bucket) Empty() bool {
	return len(b.Paths) == 0
}
