package ramfs

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/openramdisk/ramdisk/util"
)

// Options configures a FileSystem at construction time. Kept as a plain
// value struct passed to New, in the style of diskfs.Create and ext4.Read's
// plain-constructor-argument signatures rather than a functional-options
// API; there is exactly one tunable today (the logger).
type Options struct {
	// Logger receives lifecycle and consistency-failure log lines. Defaults
	// to logrus.StandardLogger() if nil.
	Logger logrus.FieldLogger
}

// RegionAllocator is the host seam spec §1 calls "a coarse allocation call
// for the 2 MiB backing region." hostmem.Acquire satisfies this.
type RegionAllocator func(size int) (region []byte, release func() error, err error)

// FileSystem is the process-wide global state S of spec §3: the backing
// region, the inode table, the block bitmap and its counters, and the list
// of per-client file-descriptor tables. Only data and indirect blocks are
// stored in the region, addressed by global block index; the free counters,
// the inode table and the bitmap are held in separate fields and are not
// written into the region's superblock, inode-table or bitmap blocks. It is
// safe for concurrent use by many goroutines.
type FileSystem struct {
	id     uuid.UUID
	logger logrus.FieldLogger

	initMu      sync.RWMutex
	initialized bool
	allocator   RegionAllocator
	release     func() error

	region []byte

	sbMu       sync.Mutex
	freeBlocks int
	freeInodes int

	bitmapMu sync.Mutex
	bm       *bitmap

	inodes [InodeCount]inode

	fdtMu sync.RWMutex
	fdts  map[int]*FDT
}

// New constructs an uninitialized FileSystem. Init must be called before any
// other operation (spec §6: "Before any non-INIT code is accepted, INIT must
// have succeeded").
func New(alloc RegionAllocator, opts Options) *FileSystem {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FileSystem{
		logger:    logger,
		allocator: alloc,
		fdts:      make(map[int]*FDT),
	}
}

// ID returns the instance's diagnostic identifier, stable for the lifetime
// of one Init/Teardown cycle. It participates in no addressing decision and
// exists purely so log lines from concurrent clients can be correlated to
// one engine instance.
func (fs *FileSystem) ID() uuid.UUID {
	return fs.id
}

// Init reserves the backing 2 MiB region exactly once (spec §3 lifecycle)
// and resets the free counters, the inode table (root as an empty DIR), and
// the bitmap.
func (fs *FileSystem) Init() error {
	fs.initMu.Lock()
	defer fs.initMu.Unlock()
	if fs.initialized {
		return ErrAlreadyInitialized
	}

	region, release, err := fs.allocator(ImageSize)
	if err != nil {
		return err
	}

	fs.region = region
	fs.release = release
	fs.bm = newBitmap(TotalBlocks)
	fs.freeBlocks = DataBlocks
	fs.freeInodes = InodeCount - 1 // inode 0 (root) starts ALLOCATED

	for i := range fs.inodes {
		fs.inodes[i] = inode{index: i}
	}
	root := &fs.inodes[RootInode]
	root.typ = typeDir
	root.size = 0

	fs.id = uuid.New()
	fs.initialized = true
	fs.logger.WithFields(logrus.Fields{
		"component": "ramfs",
		"engine_id": fs.id,
	}).Info("ramdisk engine initialized")
	return nil
}

// Teardown releases the backing region exactly once and drops every
// client's file-descriptor table (spec §3 lifecycle, §6 "Persisted state:
// none").
func (fs *FileSystem) Teardown() error {
	fs.initMu.Lock()
	defer fs.initMu.Unlock()
	if !fs.initialized {
		return ErrNotInitialized
	}

	fs.fdtMu.Lock()
	fs.fdts = make(map[int]*FDT)
	fs.fdtMu.Unlock()

	fs.initialized = false
	fs.region = nil
	fs.bm = nil

	var err error
	if fs.release != nil {
		err = fs.release()
		fs.release = nil
	}
	fs.logger.WithFields(logrus.Fields{
		"component": "ramfs",
		"engine_id": fs.id,
	}).Info("ramdisk engine torn down")
	return err
}

// requireInitialized returns ErrNotInitialized unless Init has already
// succeeded. Every externally-reachable operation checks this first.
func (fs *FileSystem) requireInitialized() error {
	fs.initMu.RLock()
	defer fs.initMu.RUnlock()
	if !fs.initialized {
		return ErrNotInitialized
	}
	return nil
}

// logConsistencyFailure logs a fatal, should-be-impossible condition at
// Error level with diagnostic fields before the generic ErrConsistency is
// surfaced to the caller (spec §7: "Consistency failures discovered at
// runtime... are fatal and logged").
func (fs *FileSystem) logConsistencyFailure(op, detail string) {
	fs.logConsistencyFailureBlock(op, detail, nil)
}

// logConsistencyFailureBlock is logConsistencyFailure with the offending
// region's raw bytes attached as a hex/ASCII dump, for failures where a
// specific block or bitmap segment is implicated.
func (fs *FileSystem) logConsistencyFailureBlock(op, detail string, region []byte) {
	entry := fs.logger.WithFields(logrus.Fields{
		"component": "ramfs",
		"engine_id": fs.id,
		"operation": op,
	})
	if len(region) > 0 {
		entry = entry.WithField("region_dump", util.DumpByteSlice(region, 16, true, true, false, nil))
	}
	entry.Error("consistency failure: " + detail)
}

// dataBlock returns a slice over the BlockSize bytes of data block index b
// within the image. b is a global block index (0 is the superblock; the
// data region begins at DataStart), matching the design note to prefer
// indices into the region over raw pointers.
func (fs *FileSystem) dataBlock(b uint32) []byte {
	off := blockOffset(b)
	return fs.region[off : off+BlockSize]
}
