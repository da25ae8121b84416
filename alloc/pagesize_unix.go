//go:build linux || darwin || freebsd

package alloc

import "golang.org/x/sys/unix"

// PageSize reports the host's memory page size. The original hardcoded
// 4096 on every platform; this port asks the kernel instead.
func PageSize() int {
	return unix.Getpagesize()
}
