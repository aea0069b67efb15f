//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris
// +build aix darwin dragonfly freebsd linux netbsd openbsd solaris

package hostmem

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// acquire maps an anonymous, process-private region via mmap so the image
// lives outside the Go heap and garbage collector scanning.
func acquire(size int) ([]byte, func() error, error) {
	region, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("hostmem: mmap %d bytes: %w", size, err)
	}
	release := func() error {
		return unix.Munmap(region)
	}
	return region, release, nil
}
