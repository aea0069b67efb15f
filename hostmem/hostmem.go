// Package hostmem acquires the fixed-size backing region the engine maps its
// layout onto. On the platforms unix's mmap targets, the region is an
// anonymous private mapping so the host OS, rather than the Go heap, owns the
// 2 MiB; everywhere else it falls back to a plain byte slice.
package hostmem

// Region is the allocator signature ramfs.RegionAllocator expects: acquire
// size bytes, return them plus a release func that gives them back.
type Region func(size int) (region []byte, release func() error, err error)

// Acquire obtains a size-byte region using the best available strategy for
// the current platform (see acquire_unix.go / acquire_other.go).
func Acquire(size int) (region []byte, release func() error, err error) {
	return acquire(size)
}
