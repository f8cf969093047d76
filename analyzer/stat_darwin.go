//go:build darwin

package analyzer

import "syscall"

func atimeNS(sys *syscall.Stat_t) int64 {
	return sys.Atimespec.Sec*1e9 + sys.Atimespec.Nsec
}

func ctimeNS(sys *syscall.Stat_t) int64 {
	return sys.Ctimespec.Sec*1e9 + sys.Ctimespec.Nsec
}
