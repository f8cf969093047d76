// Package analyzer hashes analyzed paths, probes the index for
// content matches, and produces the per-input report directories,
// including directory-level duplicate aggregation.
package analyzer

import (
	"os"
	"syscall"
)

// PolicyOptions is the metadata-equality policy vector: which
// fields, beyond content and size, two files must agree on to be
// considered identical rather than merely content-duplicate.
type PolicyOptions struct {
	IncludeMtime bool
	IncludeAtime bool
	IncludeCtime bool
	IncludeOwner bool
	IncludeGroup bool
	IncludePerm  bool
}

// DefaultPolicy matches the default policy column: mtime, owner, group,
// and permission bits included; atime and ctime excluded. Size is
// always compared and has no corresponding field here.
func DefaultPolicy() PolicyOptions {
	return PolicyOptions{
		IncludeMtime: true,
		IncludeOwner: true,
		IncludeGroup: true,
		IncludePerm:  true,
	}
}

// PolicyFields renders policy as the flat map a report's meta file
// stores it as.
func PolicyFields(policy PolicyOptions) map[string]bool {
	return map[string]bool{
		"size":       true,
		"mtime":      policy.IncludeMtime,
		"atime":      policy.IncludeAtime,
		"ctime":      policy.IncludeCtime,
		"owner":      policy.IncludeOwner,
		"group":      policy.IncludeGroup,
		"permission": policy.IncludePerm,
	}
}

// MetadataMatches reports whether a and b agree on every field policy
// enables, always including size. Owner, group, and permission bits
// come off the platform's syscall.Stat_t, the escape hatch os.FileInfo
// itself does not expose on any platform.
func MetadataMatches(a, b os.FileInfo, sysA, sysB *syscall.Stat_t, policy PolicyOptions) bool {
	if a.Size() != b.Size() {
		return false
	}
	if policy.IncludeMtime && !a.ModTime().Equal(b.ModTime()) {
		return false
	}
	if policy.IncludeAtime && atimeNS(sysA) != atimeNS(sysB) {
		return false
	}
	if policy.IncludeCtime && ctimeNS(sysA) != ctimeNS(sysB) {
		return false
	}
	if policy.IncludeOwner && sysA.Uid != sysB.Uid {
		return false
	}
	if policy.IncludeGroup && sysA.Gid != sysB.Gid {
		return false
	}
	if policy.IncludePerm && a.Mode().Perm() != b.Mode().Perm() {
		return false
	}
	return true
}
