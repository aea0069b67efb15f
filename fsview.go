package ramdisk

import (
	"io"
	"io/fs"
	"path"
	"time"

	"github.com/openramdisk/ramdisk/ramfs"
)

// FS adapts an Engine to io/fs.FS (and fs.ReadDirFS), the read-only view a
// host program can hand to anything that already speaks io/fs, such as
// text/template or http.FileServer, without exposing writes, the numbered
// request interface, or a client ID. Modeled on converter.fsCompatible,
// which performs the analogous adaptation for an on-disk
// filesystem.FileSystem.
func FS(r *Engine) fs.FS {
	return &ramdiskFS{r: r}
}

// viewClientID is the fixed client identity FS's read-only traversal opens
// files under. It never collides with a real session's file-descriptor
// table: fs.FS callers never unlink, write, or otherwise need open_count
// attributed to a caller-chosen ID.
const viewClientID = -1

type ramdiskFS struct {
	r *Engine
}

func toRamdiskPath(name string) string {
	if name == "." {
		return "/"
	}
	return "/" + path.Clean(name)
}

func (rfs *ramdiskFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	p := toRamdiskPath(name)
	fd, err := rfs.r.Open(viewClientID, p)
	if err != nil {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return &ramdiskFile{rfs: rfs, fd: fd, name: path.Base(name)}, nil
}

func (rfs *ramdiskFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}
	p := toRamdiskPath(name)
	fd, err := rfs.r.Open(viewClientID, p)
	if err != nil {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: err}
	}
	defer rfs.r.Close(viewClientID, fd)

	var entries []fs.DirEntry
	buf := make([]byte, ramfs.DirNameLen)
	for {
		status, err := rfs.r.Readdir(viewClientID, fd, buf)
		if err != nil {
			return nil, &fs.PathError{Op: "readdir", Path: name, Err: err}
		}
		if status == 0 {
			break
		}
		childName := decodeName(buf)
		childPath := path.Join(p, childName)
		childFD, err := rfs.r.Open(viewClientID, childPath)
		if err != nil {
			return nil, &fs.PathError{Op: "readdir", Path: name, Err: err}
		}
		info := &ramdiskFileInfo{name: childName}
		// Whether an entry is a DIR is otherwise opaque from outside ramfs;
		// readdir itself rejects non-DIR targets with invalid-argument, so
		// probing it is the only externally-visible type check available.
		_, rdErr := rfs.r.Readdir(viewClientID, childFD, buf)
		info.isDir = rdErr == nil
		rfs.r.Close(viewClientID, childFD)
		entries = append(entries, info)
	}
	return entries, nil
}

func decodeName(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

type ramdiskFile struct {
	rfs  *ramdiskFS
	fd   int
	name string
}

func (f *ramdiskFile) Read(p []byte) (int, error) {
	n, err := f.rfs.r.Read(viewClientID, f.fd, p)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (f *ramdiskFile) Stat() (fs.FileInfo, error) {
	info := &ramdiskFileInfo{name: f.name}
	// Same readdir probe as ReadDir: it fails only on a non-DIR inode.
	_, rdErr := f.rfs.r.Readdir(viewClientID, f.fd, make([]byte, ramfs.DirNameLen))
	info.isDir = rdErr == nil
	return info, nil
}

func (f *ramdiskFile) Close() error {
	return f.rfs.r.Close(viewClientID, f.fd)
}

// ramdiskFileInfo implements both fs.FileInfo and fs.DirEntry: the engine
// tracks no mode bits, owner, or modification time (spec §3), so every
// field beyond name and directory-ness is a fixed stand-in.
type ramdiskFileInfo struct {
	name  string
	isDir bool
}

func (i *ramdiskFileInfo) Name() string       { return i.name }
func (i *ramdiskFileInfo) Size() int64        { return 0 }
func (i *ramdiskFileInfo) ModTime() time.Time { return time.Time{} }
func (i *ramdiskFileInfo) IsDir() bool        { return i.isDir }
func (i *ramdiskFileInfo) Sys() any           { return nil }

func (i *ramdiskFileInfo) Mode() fs.FileMode {
	if i.isDir {
		return fs.ModeDir | 0o555
	}
	return 0o444
}

func (i *ramdiskFileInfo) Type() fs.FileMode { return i.Mode().Type() }

func (i *ramdiskFileInfo) Info() (fs.FileInfo, error) { return i, nil }
