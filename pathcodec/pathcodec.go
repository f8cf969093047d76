// Package pathcodec encodes and decodes repository-relative paths into
// the null-separated component form used as the suffix of "m:" index
// keys. The encoding is a pure function: it neither touches the
// filesystem nor depends on any particular store.
package pathcodec

import (
	"errors"
	"path/filepath"
	"strings"
)

// ErrEmptyComponent is returned when a path contains a zero-length
// component, or resolves to "." or "..".
var ErrEmptyComponent = errors.New("pathcodec: empty or relative path component")

// Separator is the byte used to join and terminate encoded path
// components. A trailing separator is always present so that prefix
// scans over a directory's encoded form cannot match an unrelated
// sibling whose name happens to share the directory's name as a
// prefix (e.g. "a" vs "ab").
const Separator = 0

// Split breaks a slash-separated repository-relative path into its
// components, rejecting "." and ".." segments and empty segments.
func Split(relPath string) ([]string, error) {
	relPath = filepath.ToSlash(relPath)
	parts := strings.Split(relPath, "/")

	components := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			return nil, ErrEmptyComponent
		}
		if p == "." || p == ".." {
			return nil, ErrEmptyComponent
		}
		components = append(components, p)
	}

	return components, nil
}

// Encode renders path components into the "m:" key suffix: each
// component followed by a single null byte.
func Encode(components []string) ([]byte, error) {
	var buf strings.Builder
	for _, c := range components {
		if c == "" || c == "." || c == ".." {
			return nil, ErrEmptyComponent
		}
		buf.WriteString(c)
		buf.WriteByte(Separator)
	}
	return []byte(buf.String()), nil
}

// EncodePath is a convenience wrapper combining Split and Encode for a
// slash-separated repository-relative path.
func EncodePath(relPath string) ([]byte, error) {
	components, err := Split(relPath)
	if err != nil {
		return nil, err
	}
	return Encode(components)
}

// Decode is the inverse of Encode: it recovers the path components
// from a null-terminated encoded key suffix.
func Decode(encoded []byte) ([]string, error) {
	if len(encoded) == 0 {
		return nil, nil
	}
	if encoded[len(encoded)-1] != Separator {
		return nil, errors.New("pathcodec: encoded path missing terminator")
	}

	raw := string(encoded[:len(encoded)-1])
	components := strings.Split(raw, string(rune(Separator)))
	for _, c := range components {
		if c == "" {
			return nil, ErrEmptyComponent
		}
	}
	return components, nil
}

// DecodePath is the inverse of EncodePath, joining the recovered
// components with the platform-neutral "/" separator.
func DecodePath(encoded []byte) (string, error) {
	components, err := Decode(encoded)
	if err != nil {
		return "", err
	}
	return strings.Join(components, "/"), nil
}
