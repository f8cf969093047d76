package rerrcode

const errGroup = "rededup"

var (
	// ErrorCodeUnknown is a generic error used as a last resort when
	// no situation-specific error exists.
	ErrorCodeUnknown = Register(errGroup, ErrorDescriptor{
		Value:       "UNKNOWN",
		Message:     "unknown error",
		Description: "Generic error returned when the error does not have a more specific classification.",
		ExitCode:    1,
	})

	// ErrorCodeUsage is returned for bad flags or arguments.
	ErrorCodeUsage = Register(errGroup, ErrorDescriptor{
		Value:       "USAGE",
		Message:     "invalid usage: %s",
		Description: "The command was invoked with invalid or conflicting flags or arguments.",
		ExitCode:    2,
	})

	// ErrorCodeRepositoryNotFound is returned when repository discovery
	// fails to locate a .rededup directory.
	ErrorCodeRepositoryNotFound = Register(errGroup, ErrorDescriptor{
		Value:       "REPOSITORY_NOT_FOUND",
		Message:     "no repository found at or above %s",
		Description: "Repository discovery searched the given path and its ancestors without finding a .rededup directory.",
		ExitCode:    3,
	})

	// ErrorCodeHashAlgorithmMismatch is returned when a command's
	// --hash-algorithm flag conflicts with the repository's stored
	// hash-algorithm configuration.
	ErrorCodeHashAlgorithmMismatch = Register(errGroup, ErrorDescriptor{
		Value:       "HASH_ALGORITHM_MISMATCH",
		Message:     "requested hash algorithm %s does not match repository's configured algorithm %s",
		Description: "The repository's hash algorithm is fixed at its first rebuild; changing it requires an explicit rebuild.",
		ExitCode:    2,
	})

	// ErrorCodeTruncating is returned when a command other than rebuild
	// is invoked against a repository left mid-truncation by an
	// interrupted rebuild.
	ErrorCodeTruncating = Register(errGroup, ErrorDescriptor{
		Value:       "TRUNCATING",
		Message:     "repository %s is in a truncating state; run rebuild to complete or recover it",
		Description: "A previous rebuild was interrupted after truncating the index but before it finished repopulating it.",
		ExitCode:    4,
	})

	// ErrorCodeStoreCorrupt is returned when an index invariant
	// violation is detected while iterating the store.
	ErrorCodeStoreCorrupt = Register(errGroup, ErrorDescriptor{
		Value:       "STORE_CORRUPT",
		Message:     "repository index is corrupt: %s",
		Description: "An internal consistency check on the key-value store's contents failed.",
		ExitCode:    1,
	})

	// ErrorCodeIO is returned for an operation-fatal I/O error, as
	// opposed to a per-file error that is merely logged and counted.
	ErrorCodeIO = Register(errGroup, ErrorDescriptor{
		Value:       "IO",
		Message:     "I/O error: %s",
		Description: "An I/O error prevented the operation from completing, distinct from a per-file error encountered while walking a tree.",
		ExitCode:    1,
	})
)
