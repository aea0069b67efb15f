package ramfs

import (
	"sync"
	"sync/atomic"
)

// fileType is the type tag carried by every inode slot, modeled on
// filesystem/ext4/inode.go's fileType enumeration and trimmed to the
// four states this layout needs.
type fileType uint8

const (
	typeUnallocated fileType = iota
	typeAllocated
	typeDir
	typeReg
)

// inode is the in-memory shape of a 64-byte on-image inode slot: type, size,
// an atomic open_count, a read/write lock guarding the inode's fields and
// the data/indirect blocks it owns, 8 direct block references, and one
// single- and one double-indirect reference (spec §3).
type inode struct {
	index int // slot index in the inode table; 0 is root

	mu sync.RWMutex // guards everything below plus the blocks it owns

	typ            fileType
	size           int
	openCount      atomic.Int32
	direct         [DirectRefs]uint32
	singleIndirect uint32 // 0 if absent
	doubleIndirect uint32 // 0 if absent
}

// reset clears an inode back to its zero/unallocated shape. Callers must
// hold mu for write.
func (n *inode) reset() {
	n.typ = typeUnallocated
	n.size = 0
	n.openCount.Store(0)
	for i := range n.direct {
		n.direct[i] = noBlock
	}
	n.singleIndirect = noBlock
	n.doubleIndirect = noBlock
}

// allocateInode implements C3: scan the inode table for a free slot,
// claiming the superblock's free-inode count first (spec §4.3).
//
// The scan takes each inode's lock non-blockingly in turn; a slot that is
// already held by another caller is simply skipped rather than waited on,
// since a held lock means the slot is either mid-use (not a candidate) or
// mid-allocation by another racer (also not a candidate once it wins).
func (fs *FileSystem) allocateInode() (*inode, error) {
	fs.sbMu.Lock()
	if fs.freeInodes == 0 {
		fs.sbMu.Unlock()
		return nil, ErrNoSpace
	}
	fs.freeInodes--
	fs.sbMu.Unlock()

	for i := 0; i < InodeCount; i++ {
		n := &fs.inodes[i]
		if !n.mu.TryLock() {
			continue
		}
		if n.typ != typeUnallocated {
			n.mu.Unlock()
			continue
		}
		n.reset()
		n.typ = typeAllocated
		n.mu.Unlock()
		return n, nil
	}

	// Consistency failure: the superblock promised a free slot but the
	// table scan found none.
	fs.sbMu.Lock()
	fs.freeInodes++
	fs.sbMu.Unlock()
	fs.logConsistencyFailure("allocateInode", "inode table scan found no free slot despite positive free-inode count")
	return nil, ErrConsistency
}

// freeInode implements the release half of C3. Callers must hold n.mu for
// write; it is released here after the inode is reset, and the superblock's
// free-inode count is incremented under its own lock.
func (fs *FileSystem) freeInode(n *inode) {
	n.reset()
	n.mu.Unlock()

	fs.sbMu.Lock()
	fs.freeInodes++
	fs.sbMu.Unlock()
}
