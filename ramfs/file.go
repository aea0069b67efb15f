package ramfs

// byteAddress implements C1's addressing function: resolves file byte
// offset to the data block holding it and the remainder within that block.
// Fails if offset >= n.size. Callers must hold n.mu (for read or write).
func (fs *FileSystem) byteAddress(n *inode, offset int) (blockAddr uint32, rem int, ok bool) {
	if offset >= n.size {
		return 0, 0, false
	}
	b, r := blockIndexForOffset(offset)
	class, directIdx, singleIdx, i, j := classify(b)
	switch class {
	case classDirect:
		return n.direct[directIdx], r, true
	case classSingleIndirect:
		return readRef(fs.dataBlock(n.singleIndirect), singleIdx*4), r, true
	default: // classDoubleIndirect
		ind := readRef(fs.dataBlock(n.doubleIndirect), i*4)
		return readRef(fs.dataBlock(ind), j*4), r, true
	}
}

// File is an open handle: a reference to an inode plus a current byte
// position (spec §3 "File object").
type File struct {
	node *inode
	pos  int
}

// readLocked implements C7's read, called with fd's inode already resolved
// and the caller holding no lock yet; it takes the inode's shared lock
// itself, copies into dst, and returns the new position alongside the byte
// count actually read.
func (fs *FileSystem) readLocked(fo File, dst []byte) (int, int, error) {
	n := fo.node
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.typ != typeReg {
		return fo.pos, 0, ErrInvalidArgument
	}

	p := fo.pos
	want := len(dst)
	copied := 0
	for copied < want && p < n.size {
		addr, rem, ok := fs.byteAddress(n, p)
		if !ok {
			break
		}
		blk := fs.dataBlock(addr)
		endOfBlock := BlockSize
		n1 := want - copied
		if s := endOfBlock - rem; s < n1 {
			n1 = s
		}
		if s := n.size - p; s < n1 {
			n1 = s
		}
		copy(dst[copied:copied+n1], blk[rem:rem+n1])
		copied += n1
		p += n1
	}
	return p, copied, nil
}

// writeLocked implements C7's write: always appends at end-of-file (spec §9
// Open Question: write semantics are append-only regardless of the handle's
// current position, inherited unchanged from the source). Callers must have
// already copied the client's payload into src (spec §4.7: "Copy the user
// payload into a kernel-side buffer first").
func (fs *FileSystem) writeLocked(fo File, src []byte) (int, int, error) {
	n := fo.node
	if !n.mu.TryLock() {
		return fo.pos, 0, ErrBusy
	}
	defer n.mu.Unlock()

	if n.typ != typeReg {
		return fo.pos, 0, ErrInvalidArgument
	}
	if n.size >= MaxFileSize {
		return fo.pos, 0, ErrFileTooBig
	}

	want := len(src)
	written := 0
	for written < want && n.size < MaxFileSize {
		var dest uint32
		var spaceInBlock int
		if n.size%BlockSize == 0 {
			d, err := fs.extend(n)
			if err != nil {
				return fo.pos, written, err
			}
			dest = d
			spaceInBlock = BlockSize
		} else {
			addr, rem, ok := fs.byteAddress(n, n.size-1)
			if !ok {
				return fo.pos, written, ErrConsistency
			}
			dest = addr
			// the byte immediately after the last written byte
			spaceInBlock = BlockSize - (rem + 1)
		}

		blk := fs.dataBlock(dest)
		destOff := BlockSize - spaceInBlock
		n1 := want - written
		if spaceInBlock < n1 {
			n1 = spaceInBlock
		}
		copy(blk[destOff:destOff+n1], src[written:written+n1])
		written += n1
		n.size += n1
	}

	newPos := n.size
	return newPos, written, nil
}

// lseek implements spec §4.7's lseek: requires REG, 0 <= offset <= size,
// offset < MaxFileSize.
func (fs *FileSystem) lseek(n *inode, offset int) (int, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.typ != typeReg {
		return 0, ErrInvalidArgument
	}
	if offset < 0 || offset > n.size || offset >= MaxFileSize {
		return 0, ErrInvalidArgument
	}
	return offset, nil
}
