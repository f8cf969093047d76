//go:build linux

package analyzer

import "syscall"

func atimeNS(sys *syscall.Stat_t) int64 {
	return sys.Atim.Sec*1e9 + sys.Atim.Nsec
}

func ctimeNS(sys *syscall.Stat_t) int64 {
	return sys.Ctim.Sec*1e9 + sys.Ctim.Nsec
}
