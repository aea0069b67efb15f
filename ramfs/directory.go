package ramfs

// create implements C6's creat/mkdir: validate no existing entry, resolve
// the parent, allocate a new inode of newType, upgrade the parent's lock via
// the open_count reservation, and append a directory entry (spec §4.6).
func (fs *FileSystem) create(path string, newType fileType) error {
	if err := fs.requireInitialized(); err != nil {
		return err
	}
	if existing, err := fs.resolve(path); err == nil {
		existing.mu.RUnlock()
		return ErrExists
	}

	parent, name, err := fs.resolveParent(path)
	if err != nil {
		return err
	}
	if parent.typ != typeDir {
		parent.mu.RUnlock()
		return ErrInvalidArgument
	}

	newInode, err := fs.allocateInode()
	if err != nil {
		parent.mu.RUnlock()
		return err
	}

	// Upgrade parent's shared lock to exclusive via the open_count
	// reservation (spec §4.6 step 4 / §4.9 lock-upgrade discipline): this
	// blocks out a concurrent unlink of parent while the handover is in
	// flight, without holding any lock across the upgrade itself.
	parent.openCount.Add(1)
	parent.mu.RUnlock()
	parent.mu.Lock()
	parent.openCount.Add(-1)

	// Re-validate under the exclusive lock: another writer may have
	// created the same name, or filled the directory, while we didn't
	// hold any lock during the upgrade.
	if _, _, found := fs.lookupEntry(parent, name); found {
		parent.mu.Unlock()
		fs.abandonInode(newInode)
		return ErrExists
	}

	newInode.mu.Lock()
	newInode.typ = newType
	newInode.mu.Unlock()

	slot, err := fs.appendSlot(parent)
	if err != nil {
		parent.mu.Unlock()
		fs.abandonInode(newInode)
		return err
	}
	encodeDirEntry(slot, name, newInode.index)
	parent.size += DirEntrySize
	parent.mu.Unlock()
	return nil
}

// abandonInode releases an inode allocated by create() whose directory
// entry was never written, returning it to the free pool rather than
// leaking it forever.
func (fs *FileSystem) abandonInode(n *inode) {
	n.mu.Lock()
	fs.freeInode(n)
}

// Creat creates a new regular file at path.
func (fs *FileSystem) Creat(path string) error {
	return fs.create(path, typeReg)
}

// Mkdir creates a new directory at path.
func (fs *FileSystem) Mkdir(path string) error {
	return fs.create(path, typeDir)
}

// Unlink implements C6's unlink (spec §4.6).
func (fs *FileSystem) Unlink(path string) error {
	if err := fs.requireInitialized(); err != nil {
		return err
	}
	parent, name, err := fs.resolveParent(path)
	if err != nil {
		return err
	}

	parent.openCount.Add(1)
	parent.mu.RUnlock()
	parent.mu.Lock()
	parent.openCount.Add(-1)

	entryIdx, targetIdx, found := fs.lookupEntry(parent, name)
	if !found {
		parent.mu.Unlock()
		return ErrInvalidArgument
	}

	target := &fs.inodes[targetIdx]
	if !target.mu.TryLock() {
		parent.mu.Unlock()
		return ErrBusy
	}

	if target.openCount.Load() > 0 {
		target.mu.Unlock()
		parent.mu.Unlock()
		return ErrBusy
	}
	if target.typ == typeDir && target.size != 0 {
		target.mu.Unlock()
		parent.mu.Unlock()
		return ErrNotEmpty
	}

	if target.typ == typeReg {
		fs.freeAllBlocks(target)
	}

	fs.removeDirEntry(parent, entryIdx)
	fs.freeInode(target) // resets + unlocks target, bumps free-inode count
	parent.mu.Unlock()
	return nil
}

// removeDirEntry implements C6's swap-with-last compaction (spec §4.6 step
// 7): the matched entry is overwritten with the last entry in the
// directory, parent.size shrinks by one entry, and if that shrink lands on
// a block boundary the now-empty last block (and any container it was the
// sole occupant of) is released via the mirror-of-extend cleanup.
func (fs *FileSystem) removeDirEntry(parent *inode, entryIdx int) {
	count := parent.size / DirEntrySize
	last := count - 1
	if entryIdx != last {
		name, childIdx, _ := fs.dirEntryAt(parent, last)
		fs.writeDirEntryAt(parent, entryIdx, name, childIdx)
	}
	parent.size -= DirEntrySize
	if parent.size%BlockSize == 0 {
		fs.shrinkLastBlock(parent, parent.size/BlockSize)
	}
}

// readdirNext implements C6's readdir: given an open directory handle at
// position p, returns (name, 1) for the entry at p (and advances p by
// DirEntrySize), or ("", 0) at end-of-directory.
func (fs *FileSystem) readdirNext(n *inode, pos int) (name string, newPos int, status int, err error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.typ != typeDir {
		return "", pos, 0, ErrInvalidArgument
	}
	if pos == n.size {
		return "", pos, 0, nil
	}
	name, _, ok := fs.dirEntryAt(n, pos/DirEntrySize)
	if !ok {
		fs.logConsistencyFailure("readdir", "directory entry address resolution failed within bounds")
		return "", pos, 0, ErrConsistency
	}
	return name, pos + DirEntrySize, 1, nil
}
