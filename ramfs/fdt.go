package ramfs

// FDT is a per-client file-descriptor table: an owner ID and an array of
// MaxFDTEntries file objects. The array does not grow, and no free-slot
// count is kept; Open scans for the first free slot and fails with
// ErrNoSpace when there is none. A
// zero-value File (node == nil) marks a free slot. Descriptor numbers are
// indices into entries. Not internally locked: correctness relies on the
// convention that one client issues one request at a time against its own
// table (spec §4.8); cross-client interference is prevented by the
// FileSystem's fdtMu.
type FDT struct {
	owner   int
	entries []File
}

func newFDT(owner int) *FDT {
	return &FDT{owner: owner, entries: make([]File, MaxFDTEntries)}
}

// fdtFor returns the client's FDT, creating it on first use.
func (fs *FileSystem) fdtFor(clientID int) *FDT {
	fs.fdtMu.RLock()
	t, ok := fs.fdts[clientID]
	fs.fdtMu.RUnlock()
	if ok {
		return t
	}

	fs.fdtMu.Lock()
	defer fs.fdtMu.Unlock()
	if t, ok = fs.fdts[clientID]; ok {
		return t
	}
	t = newFDT(clientID)
	fs.fdts[clientID] = t
	return t
}

// DetachClient destroys a client's FDT, as happens when a client detaches
// (spec §3: "destroyed when the client detaches... or on explicit
// teardown"). Open files belonging to the client are not otherwise closed;
// their open_count simply stays incremented, matching the source's
// behavior of never auto-closing on detach.
func (fs *FileSystem) DetachClient(clientID int) {
	fs.fdtMu.Lock()
	defer fs.fdtMu.Unlock()
	delete(fs.fdts, clientID)
}

// Open implements C8's open: resolve path, bump open_count, claim a free
// FDT slot.
func (fs *FileSystem) Open(clientID int, path string) (int, error) {
	if err := fs.requireInitialized(); err != nil {
		return -1, err
	}
	target, err := fs.resolve(path)
	if err != nil {
		return -1, err
	}
	target.openCount.Add(1)
	defer target.mu.RUnlock()

	t := fs.fdtFor(clientID)
	fd := -1
	for i, e := range t.entries {
		if e.node == nil {
			fd = i
			break
		}
	}
	if fd < 0 {
		target.openCount.Add(-1)
		return -1, ErrNoSpace
	}
	t.entries[fd] = File{node: target, pos: 0}
	return fd, nil
}

// Close implements C8's close.
func (fs *FileSystem) Close(clientID int, fd int) error {
	if err := fs.requireInitialized(); err != nil {
		return err
	}
	t := fs.fdtFor(clientID)
	if fd < 0 || fd >= len(t.entries) || t.entries[fd].node == nil {
		return ErrInvalidArgument
	}
	t.entries[fd].node.openCount.Add(-1)
	t.entries[fd] = File{}
	return nil
}

// getEntry returns a snapshot of the file object at fd, or a zero-value
// File if fd is out of range or the slot is empty.
func (t *FDT) getEntry(fd int) File {
	if fd < 0 || fd >= len(t.entries) {
		return File{}
	}
	return t.entries[fd]
}

func (t *FDT) setEntry(fd int, fo File) {
	if fd < 0 || fd >= len(t.entries) {
		return
	}
	t.entries[fd] = fo
}
