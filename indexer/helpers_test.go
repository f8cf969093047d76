package indexer

import (
	"io"
	"strings"
	"testing"

	"github.com/sherwoodwang/rededup/pathcodec"
	"github.com/stretchr/testify/require"
)

func stringsReader(s string) io.Reader {
	return strings.NewReader(s)
}

func mustEncodePath(t *testing.T, rel string) []byte {
	t.Helper()
	encoded, err := pathcodec.EncodePath(rel)
	require.NoError(t, err)
	return encoded
}
