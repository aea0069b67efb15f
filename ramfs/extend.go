package ramfs

// extend implements C4: append one fresh data block to n's addressing,
// lazily materializing single/double indirect blocks as needed (spec §4.4).
// Callers must hold n.mu for write. Returns the new block's index.
func (fs *FileSystem) extend(n *inode) (uint32, error) {
	if n.size >= MaxFileSize {
		return 0, ErrFileTooBig
	}

	b := n.size / BlockSize
	d, ok := fs.allocateBlock()
	if !ok {
		return 0, ErrNoSpace
	}

	class, directIdx, singleIdx, i, j := classify(b)
	switch class {
	case classDirect:
		n.direct[directIdx] = d

	case classSingleIndirect:
		if b == DirectRefs {
			ind, ok := fs.allocateBlock()
			if !ok {
				fs.releaseBlock(d)
				return 0, ErrNoSpace
			}
			n.singleIndirect = ind
		}
		blk := fs.dataBlock(n.singleIndirect)
		writeRef(blk, singleIdx*4, d)

	case classDoubleIndirect:
		switch {
		case b == DirectRefs+SingleIndirectRefs:
			di, ok := fs.allocateBlock()
			if !ok {
				fs.releaseBlock(d)
				return 0, ErrNoSpace
			}
			ind, ok := fs.allocateBlock()
			if !ok {
				fs.releaseBlock(di)
				fs.releaseBlock(d)
				return 0, ErrNoSpace
			}
			n.doubleIndirect = di
			writeRef(fs.dataBlock(di), 0, ind)
			writeRef(fs.dataBlock(ind), 0, d)

		case j == 0:
			ind, ok := fs.allocateBlock()
			if !ok {
				fs.releaseBlock(d)
				return 0, ErrNoSpace
			}
			diBlk := fs.dataBlock(n.doubleIndirect)
			writeRef(diBlk, i*4, ind)
			writeRef(fs.dataBlock(ind), 0, d)

		default:
			diBlk := fs.dataBlock(n.doubleIndirect)
			ind := readRef(diBlk, i*4)
			writeRef(fs.dataBlock(ind), j*4, d)
		}
	}

	return d, nil
}

// shrinkLastBlock releases the data block at file-block index b, plus any
// container (single-indirect, double-indirect, or per-group indirect block)
// that extend allocated specifically to hold it. It is the mirror image of
// extend, walked in the same descending (innermost-first) release order
// (spec §4.6 step 7). Callers must hold n.mu for write and must only call
// this once n.size has been brought back down to the boundary that makes
// block b the now-empty last block.
func (fs *FileSystem) shrinkLastBlock(n *inode, b int) {
	class, directIdx, singleIdx, i, j := classify(b)
	switch class {
	case classDirect:
		d := n.direct[directIdx]
		n.direct[directIdx] = noBlock
		fs.releaseBlock(d)

	case classSingleIndirect:
		d := readRef(fs.dataBlock(n.singleIndirect), singleIdx*4)
		fs.releaseBlock(d)
		if b == DirectRefs {
			ind := n.singleIndirect
			n.singleIndirect = noBlock
			fs.releaseBlock(ind)
		}

	case classDoubleIndirect:
		diBlk := fs.dataBlock(n.doubleIndirect)
		ind := readRef(diBlk, i*4)
		d := readRef(fs.dataBlock(ind), j*4)
		fs.releaseBlock(d)
		switch {
		case b == DirectRefs+SingleIndirectRefs:
			di := n.doubleIndirect
			n.doubleIndirect = noBlock
			fs.releaseBlock(ind)
			fs.releaseBlock(di)
		case j == 0:
			fs.releaseBlock(ind)
		}
	}
}

// freeAllBlocks releases every data block and container owned by n, walking
// back from the last block to the first as spec §4.6 step 6 describes for
// unlinking a REG file. Callers must hold n.mu for write.
func (fs *FileSystem) freeAllBlocks(n *inode) {
	numBlocks := (n.size + BlockSize - 1) / BlockSize
	for b := numBlocks - 1; b >= 0; b-- {
		class, directIdx, singleIdx, i, j := classify(b)
		switch class {
		case classDirect:
			fs.releaseBlock(n.direct[directIdx])
			n.direct[directIdx] = noBlock
		case classSingleIndirect:
			d := readRef(fs.dataBlock(n.singleIndirect), singleIdx*4)
			fs.releaseBlock(d)
		case classDoubleIndirect:
			ind := readRef(fs.dataBlock(n.doubleIndirect), i*4)
			d := readRef(fs.dataBlock(ind), j*4)
			fs.releaseBlock(d)
		}
	}

	if n.singleIndirect != noBlock {
		fs.releaseBlock(n.singleIndirect)
		n.singleIndirect = noBlock
	}
	if n.doubleIndirect != noBlock {
		_, _, _, lastGroup, _ := classify(numBlocks - 1)
		diBlk := fs.dataBlock(n.doubleIndirect)
		for gi := 0; gi <= lastGroup; gi++ {
			if ind := readRef(diBlk, gi*4); ind != noBlock {
				fs.releaseBlock(ind)
			}
		}
		fs.releaseBlock(n.doubleIndirect)
		n.doubleIndirect = noBlock
	}
}
