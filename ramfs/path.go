package ramfs

import "strings"

// splitPath validates and tokenizes an absolute path per spec §6: absolute,
// "/"-separated, components <= 13 characters, no "." or ".." handling. A
// trailing slash on any non-root path is stripped before resolution.
func splitPath(path string) ([]string, error) {
	if len(path) == 0 || path[0] != '/' {
		return nil, ErrInvalidArgument
	}
	if path != "/" && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}
	if path == "/" {
		return nil, nil
	}
	parts := strings.Split(path[1:], "/")
	for _, p := range parts {
		if p == "" || len(p) > MaxNameLen {
			return nil, ErrInvalidArgument
		}
	}
	return parts, nil
}

// resolve implements C5: walks a "/"-separated path and returns the target
// inode with its shared lock held. Parent locks are released only after the
// child's lock is acquired (hand-over-hand), so a concurrent unlink cannot
// make a node vanish mid-walk.
func (fs *FileSystem) resolve(path string) (*inode, error) {
	parts, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	cur := &fs.inodes[RootInode]
	cur.mu.RLock()
	if len(parts) == 0 {
		return cur, nil
	}

	for _, name := range parts {
		if cur.typ != typeDir {
			cur.mu.RUnlock()
			return nil, ErrInvalidArgument
		}
		_, childIdx, found := fs.lookupEntry(cur, name)
		if !found {
			cur.mu.RUnlock()
			return nil, ErrInvalidArgument
		}
		child := &fs.inodes[childIdx]
		child.mu.RLock()
		cur.mu.RUnlock()
		cur = child
	}
	return cur, nil
}

// resolveParent implements C5's resolve_parent: returns the directory
// containing path's final component, shared lock held, and the final
// component's name.
func (fs *FileSystem) resolveParent(path string) (*inode, string, error) {
	parts, err := splitPath(path)
	if err != nil {
		return nil, "", err
	}
	if len(parts) == 0 {
		return nil, "", ErrInvalidArgument
	}

	cur := &fs.inodes[RootInode]
	cur.mu.RLock()
	for _, name := range parts[:len(parts)-1] {
		if cur.typ != typeDir {
			cur.mu.RUnlock()
			return nil, "", ErrInvalidArgument
		}
		_, childIdx, found := fs.lookupEntry(cur, name)
		if !found {
			cur.mu.RUnlock()
			return nil, "", ErrInvalidArgument
		}
		child := &fs.inodes[childIdx]
		child.mu.RLock()
		cur.mu.RUnlock()
		cur = child
	}
	return cur, parts[len(parts)-1], nil
}
