// Package inspect renders every entry of a repository's key-value
// store as a single line of text, for ad hoc diagnosis of the index's
// raw contents.
//
// Each line has the form:
//
//	<kind> <key-summary> <value-summary>
//
// kind is one of "c", "h", or "m" for the configuration, bucket, and
// signature key spaces respectively. key-summary is a human path for
// "m" keys, a hex digest plus equivalent-class id for "h" keys, and
// the bare configuration name for "c" keys. value-summary is the
// decoded value: Go's "%#v" rendering for configuration values and
// bucket paths, and "{digest:<hex> mtime_ns:<n> ec_id:<id|nil>}" for
// signatures.
package inspect

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/sherwoodwang/rededup/kvstore"
	"github.com/sherwoodwang/rededup/pathcodec"
	"github.com/sherwoodwang/rededup/recindex"
)

// Line is one rendered row of the store's contents.
type Line struct {
	Kind  string
	Key   string
	Value string
}

// String renders the line in the documented "<kind> <key-summary>
// <value-summary>" format.
func (l Line) String() string {
	return fmt.Sprintf("%s %s %s", l.Kind, l.Key, l.Value)
}

// Walk iterates every entry in store, in key order (configuration,
// then buckets, then signatures — the three key spaces never
// interleave since their prefixes sort in that order), and calls f
// with the rendered Line for each. A decode failure on one entry is
// folded into that entry's value-summary rather than aborting the
// walk, so a corrupt entry doesn't hide the rest of the index.
func Walk(ctx context.Context, store kvstore.Store, f func(Line) error) error {
	for _, prefix := range [][]byte{recindex.ConfigPrefix(), recindex.BucketPrefixAll(), recindex.SignaturePrefix()} {
		if err := walkPrefix(ctx, store, prefix, f); err != nil {
			return err
		}
	}
	return nil
}

func walkPrefix(ctx context.Context, store kvstore.Store, prefix []byte, f func(Line) error) error {
	it, err := store.IterPrefix(ctx, prefix)
	if err != nil {
		return fmt.Errorf("inspect: iterate store: %w", err)
	}
	defer it.Close()

	for it.Next() {
		key := append([]byte(nil), it.Key()...)
		value := append([]byte(nil), it.Value()...)

		line, ok := render(key, value)
		if !ok {
			continue
		}
		if err := f(line); err != nil {
			return err
		}
	}
	return it.Err()
}

func render(key, value []byte) (Line, bool) {
	switch {
	case recindex.HasConfigPrefix(key):
		return Line{Kind: "c", Key: recindex.ConfigName(key), Value: fmt.Sprintf("%#v", string(value))}, true
	case hasBucketPrefix(key):
		return renderBucket(key, value), true
	case recindex.HasSignaturePrefix(key):
		return renderSignature(key, value), true
	default:
		return Line{}, false
	}
}

func hasBucketPrefix(key []byte) bool {
	return len(key) >= 2 && key[0] == 'h' && key[1] == ':'
}

// renderBucket recovers the digest and ec_id without knowing the
// repository's configured digest size, by treating the last 4 bytes
// as the ec_id and everything before them as the digest. A key whose
// digest part would be shorter than 20 bytes (the SHA-1 size) is
// rendered raw, as hex, instead.
func renderBucket(key, value []byte) Line {
	rest := key[2:]
	const minDigestSize = 20
	if len(rest) < minDigestSize+4 {
		return Line{Kind: "h", Key: hex.EncodeToString(rest), Value: fmt.Sprintf("%#v", value)}
	}
	digestSize := len(rest) - 4
	digest, ecID, ok := recindex.SplitBucketKey(key, digestSize)
	if !ok {
		return Line{Kind: "h", Key: hex.EncodeToString(rest), Value: fmt.Sprintf("%#v", value)}
	}

	keySummary := fmt.Sprintf("%s/%d", hex.EncodeToString(digest), ecID)
	bucket, err := recindex.DecodeBucket(value)
	if err != nil {
		return Line{Kind: "h", Key: keySummary, Value: fmt.Sprintf("<decode error: %s>", err)}
	}
	return Line{Kind: "h", Key: keySummary, Value: fmt.Sprintf("%#v", bucket.Paths)}
}

func renderSignature(key, value []byte) Line {
	encodedPath := recindex.SignaturePathSuffix(key)
	relPath, err := pathcodec.DecodePath(encodedPath)
	if err != nil {
		relPath = hex.EncodeToString(encodedPath)
	}

	sig, err := recindex.DecodeSignature(value)
	if err != nil {
		return Line{Kind: "m", Key: relPath, Value: fmt.Sprintf("<decode error: %s>", err)}
	}

	ecID := "nil"
	if sig.HasECID() {
		ecID = fmt.Sprintf("%d", *sig.ECID)
	}
	return Line{
		Kind:  "m",
		Key:   relPath,
		Value: fmt.Sprintf("{digest:%s mtime_ns:%d ec_id:%s}", hex.EncodeToString(sig.Digest), sig.MtimeNS, ecID),
	}
}
