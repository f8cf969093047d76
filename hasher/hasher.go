// Package hasher computes content digests using the hashing primitive
// of the repository's configured algorithm, streaming data through
// fixed-size chunks rather than loading whole files into memory.
package hasher

import (
	"encoding/hex"
	"fmt"
	"io"

	digest "github.com/opencontainers/go-digest"
)

// ChunkSize is the size of each read performed while hashing, chosen
// to amortize syscall overhead without holding large buffers for
// files that are themselves small.
const ChunkSize = 1 << 20 // 1 MiB

// Algorithm identifies one of the supported hash algorithms by the
// name stored in a repository's "c:hash-algorithm" configuration
// value.
type Algorithm string

const (
	SHA256 Algorithm = "sha256"
	SHA512 Algorithm = "sha512"
	SHA1   Algorithm = "sha1"
)

// DefaultAlgorithm is used for repositories created without an
// explicit --hash-algorithm flag.
const DefaultAlgorithm = SHA256

// digestAlgorithm maps an Algorithm to the go-digest algorithm it is
// backed by. Only the algorithms above are accepted, even though
// go-digest itself registers others, so that the set a repository can
// be configured with stays fixed and documented.
func (a Algorithm) digestAlgorithm() (digest.Algorithm, error) {
	switch a {
	case SHA256:
		return digest.SHA256, nil
	case SHA512:
		return digest.SHA512, nil
	case SHA1:
		return digest.SHA1, nil
	default:
		return "", fmt.Errorf("hasher: unsupported hash algorithm %q", string(a))
	}
}

// Available reports whether a is one of the algorithms this package
// supports.
func (a Algorithm) Available() bool {
	_, err := a.digestAlgorithm()
	return err == nil
}

// Size returns the digest length in bytes produced by a.
func (a Algorithm) Size() (int, error) {
	da, err := a.digestAlgorithm()
	if err != nil {
		return 0, err
	}
	return da.Size(), nil
}

// Hash streams r through the hash function selected by alg in
// ChunkSize reads, returning the raw digest bytes. It does not stat or
// otherwise inspect the file r was opened from; callers that need the
// file's mtime are expected to have captured it before opening the
// content for hashing, per the signature recording protocol.
func Hash(alg Algorithm, r io.Reader) ([]byte, error) {
	da, err := alg.digestAlgorithm()
	if err != nil {
		return nil, err
	}

	digester := da.Digester()
	buf := make([]byte, ChunkSize)
	if _, err := io.CopyBuffer(digester.Hash(), r, buf); err != nil {
		return nil, fmt.Errorf("hasher: read content: %w", err)
	}

	d := digester.Digest()
	raw, err := hex.DecodeString(d.Encoded())
	if err != nil {
		return nil, fmt.Errorf("hasher: decode digest: %w", err)
	}
	return raw, nil
}
