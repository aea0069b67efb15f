package ramfs

import (
	"bytes"
	"encoding/binary"
)

// Directory entries are packed 16-byte records: a 14-byte NUL-terminated
// name and a 2-byte inode index (spec §3). A directory's content is an
// array of these, addressed through the same byteAddress machinery as
// ordinary file bytes (BlockSize/DirEntrySize == 16, so no entry ever
// straddles a block boundary).

func encodeDirName(name string) [DirNameLen]byte {
	var b [DirNameLen]byte
	copy(b[:], name)
	return b
}

func decodeDirName(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// dirEntryBlock returns the block and in-block offset of directory entry
// index idx within n, which must already exist (idx*DirEntrySize < n.size).
func (fs *FileSystem) dirEntryBlock(n *inode, idx int) ([]byte, int, bool) {
	addr, rem, ok := fs.byteAddress(n, idx*DirEntrySize)
	if !ok {
		return nil, 0, false
	}
	return fs.dataBlock(addr), rem, true
}

// dirEntryAt decodes directory entry index idx.
func (fs *FileSystem) dirEntryAt(n *inode, idx int) (name string, childIdx int, ok bool) {
	blk, off, ok := fs.dirEntryBlock(n, idx)
	if !ok {
		return "", 0, false
	}
	entry := blk[off : off+DirEntrySize]
	return decodeDirName(entry[:DirNameLen]), int(binary.LittleEndian.Uint16(entry[DirNameLen:])), true
}

// encodeDirEntry packs name+childIdx into a DirEntrySize-byte slot.
func encodeDirEntry(slot []byte, name string, childIdx int) {
	nameBytes := encodeDirName(name)
	copy(slot[:DirNameLen], nameBytes[:])
	binary.LittleEndian.PutUint16(slot[DirNameLen:], uint16(childIdx))
}

// writeDirEntryAt overwrites an existing directory entry slot.
func (fs *FileSystem) writeDirEntryAt(n *inode, idx int, name string, childIdx int) bool {
	blk, off, ok := fs.dirEntryBlock(n, idx)
	if !ok {
		return false
	}
	encodeDirEntry(blk[off:off+DirEntrySize], name, childIdx)
	return true
}

// lookupEntry scans n's directory entries in order for name, returning the
// matched entry's index within the directory and the inode it names.
func (fs *FileSystem) lookupEntry(n *inode, name string) (entryIdx, childIdx int, found bool) {
	count := n.size / DirEntrySize
	for e := 0; e < count; e++ {
		nm, ci, ok := fs.dirEntryAt(n, e)
		if ok && nm == name {
			return e, ci, true
		}
	}
	return 0, 0, false
}

// appendSlot returns a writable directory-entry-sized region for the entry
// about to be appended at n.size, extending n first if n.size sits on a
// block boundary (spec §4.6 step 6).
func (fs *FileSystem) appendSlot(n *inode) ([]byte, error) {
	if n.size%BlockSize == 0 {
		addr, err := fs.extend(n)
		if err != nil {
			return nil, err
		}
		blk := fs.dataBlock(addr)
		return blk[0:DirEntrySize], nil
	}
	addr, rem, ok := fs.byteAddress(n, n.size-1)
	if !ok {
		return nil, ErrConsistency
	}
	off := rem + 1
	blk := fs.dataBlock(addr)
	return blk[off : off+DirEntrySize], nil
}
