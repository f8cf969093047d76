package rerrcode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExitCodesMatchTable(t *testing.T) {
	require.Equal(t, 2, ErrorCodeUsage.ExitCode())
	require.Equal(t, 3, ErrorCodeRepositoryNotFound.ExitCode())
	require.Equal(t, 2, ErrorCodeHashAlgorithmMismatch.ExitCode())
	require.Equal(t, 4, ErrorCodeTruncating.ExitCode())
	require.Equal(t, 1, ErrorCodeStoreCorrupt.ExitCode())
	require.Equal(t, 1, ErrorCodeIO.ExitCode())
}

func TestWithArgsSubstitutesMessage(t *testing.T) {
	err := ErrorCodeRepositoryNotFound.WithArgs("/tmp/foo")
	require.Equal(t, "no repository found at or above /tmp/foo", err.Message)
	require.Equal(t, ErrorCodeRepositoryNotFound, err.ErrorCode())
}

func TestWithDetailPreservesMessage(t *testing.T) {
	err := ErrorCodeStoreCorrupt.WithDetail(map[string]string{"key": "h:deadbeef"})
	require.Equal(t, "repository index is corrupt: %s", err.Message)
	require.NotNil(t, err.Detail)
}

func TestErrorCoderDispatch(t *testing.T) {
	var err error = ErrorCodeUsage.WithArgs("--bogus-flag")

	coder, ok := err.(ErrorCoder)
	require.True(t, ok)
	require.Equal(t, 2, coder.ErrorCode().ExitCode())
}

func TestUnregisteredCodeFallsBackToUnknown(t *testing.T) {
	var bogus ErrorCode = 999999
	require.Equal(t, ErrorCodeUnknown.Descriptor().Value, bogus.Descriptor().Value)
}

func TestErrorsEnvelopeJoinsMessages(t *testing.T) {
	errs := Errors{ErrorCodeIO.WithArgs("disk full"), ErrorCodeUsage.WithArgs("bad flag")}
	require.Contains(t, errs.Error(), "disk full")
	require.Contains(t, errs.Error(), "bad flag")
}

func TestGetErrorCodeGroupSorted(t *testing.T) {
	descs := GetErrorCodeGroup(errGroup)
	require.NotEmpty(t, descs)
	for i := 1; i < len(descs); i++ {
		require.LessOrEqual(t, descs[i-1].Value, descs[i].Value)
	}
}
