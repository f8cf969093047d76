package hasher

import (
	"crypto/sha256"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashMatchesStdlibSHA256(t *testing.T) {
	content := "the quick brown fox jumps over the lazy dog"

	got, err := Hash(SHA256, strings.NewReader(content))
	require.NoError(t, err)

	want := sha256.Sum256([]byte(content))
	require.Equal(t, want[:], got)
}

func TestHashSizeMatchesDigestLength(t *testing.T) {
	for _, alg := range []Algorithm{SHA256, SHA512, SHA1} {
		size, err := alg.Size()
		require.NoError(t, err)

		digest, err := Hash(alg, strings.NewReader("data"))
		require.NoError(t, err)
		require.Len(t, digest, size)
	}
}

func TestUnsupportedAlgorithmRejected(t *testing.T) {
	bogus := Algorithm("md5")
	require.False(t, bogus.Available())

	_, err := Hash(bogus, strings.NewReader("x"))
	require.Error(t, err)
}

func TestHashEmptyReader(t *testing.T) {
	got, err := Hash(SHA256, strings.NewReader(""))
	require.NoError(t, err)

	want := sha256.Sum256(nil)
	require.Equal(t, want[:], got)
}

func TestHashLargerThanChunkSize(t *testing.T) {
	content := strings.Repeat("a", ChunkSize*2+17)

	got, err := Hash(SHA256, strings.NewReader(content))
	require.NoError(t, err)

	want := sha256.Sum256([]byte(content))
	require.Equal(t, want[:], got)
}
