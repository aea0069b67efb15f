// Package ramdisk is the external boundary of an in-memory, fixed-size
// hierarchical filesystem engine. It wraps ramfs.FileSystem, translating the
// numbered request codes of the design's external interface (INIT, CREAT,
// MKDIR, OPEN, CLOSE, READ, WRITE, LSEEK, UNLINK, READDIR) into Go method
// calls and mapping internal sentinel errors to the negative integer codes
// callers are handed at the boundary.
//
//	e := ramdisk.New(hostmem.Acquire, ramdisk.Options{})
//	if err := e.Init(); err != nil { ... }
//	defer e.Teardown()
//
//	const client = 0
//	_ = e.Creat("/a")
//	fd, _ := e.Open(client, "/a")
//	e.Write(client, fd, []byte("hello"))
//	e.Lseek(client, fd, 0)
//	buf := make([]byte, 5)
//	e.Read(client, fd, buf)
package ramdisk

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/openramdisk/ramdisk/ramfs"
)

// Request codes, matching the external-interface numbering exactly.
const (
	ReqInit    = 0
	ReqCreat   = 1
	ReqMkdir   = 2
	ReqOpen    = 3
	ReqClose   = 4
	ReqRead    = 5
	ReqWrite   = 6
	ReqLseek   = 7
	ReqUnlink  = 8
	ReqReaddir = 9
)

// Negative error codes surfaced at the external boundary. 0 always means
// success.
const (
	EInvalidArgument    = -1
	EExists             = -2
	ENoSpace            = -3
	EFileTooBig         = -4
	EBusy               = -5
	ENotEmpty           = -6
	EAlreadyInitialized = -7
	ENotInitialized     = -8
	EConsistency        = -9
)

// Options configures an Engine at construction time.
type Options struct {
	Logger logrus.FieldLogger
}

// Engine is the engine facade. One Engine serves many concurrent clients,
// each identified by an arbitrary int the caller chooses and keeps stable
// across a session (its open-file table is keyed on it).
type Engine struct {
	fs *ramfs.FileSystem
}

// New constructs an Engine that, on Init, acquires its backing region via
// alloc (hostmem.Acquire for the standard deployment, or a fake for tests).
func New(alloc ramfs.RegionAllocator, opts Options) *Engine {
	return &Engine{fs: ramfs.New(alloc, ramfs.Options{Logger: opts.Logger})}
}

// Init is request code 0.
func (r *Engine) Init() error { return r.fs.Init() }

// Teardown frees the backing region and every client's file-descriptor
// table. Not itself a numbered request; called by the host at shutdown.
func (r *Engine) Teardown() error { return r.fs.Teardown() }

// Creat is request code 1.
func (r *Engine) Creat(path string) error { return r.fs.Creat(path) }

// Mkdir is request code 2.
func (r *Engine) Mkdir(path string) error { return r.fs.Mkdir(path) }

// Open is request code 3.
func (r *Engine) Open(clientID int, path string) (int, error) { return r.fs.Open(clientID, path) }

// Close is request code 4.
func (r *Engine) Close(clientID, fd int) error { return r.fs.Close(clientID, fd) }

// Read is request code 5. buf is the client's own buffer; up to len(buf)
// bytes are copied into it directly, standing in for the copy-out a real
// host would perform across an address-space boundary.
func (r *Engine) Read(clientID, fd int, buf []byte) (int, error) {
	return r.fs.Read(clientID, fd, &ramfs.BufferMemory{Buf: buf}, len(buf))
}

// Write is request code 6.
func (r *Engine) Write(clientID, fd int, buf []byte) (int, error) {
	return r.fs.Write(clientID, fd, &ramfs.BufferMemory{Buf: buf}, len(buf))
}

// Lseek is request code 7.
func (r *Engine) Lseek(clientID, fd, offset int) error { return r.fs.Lseek(clientID, fd, offset) }

// Unlink is request code 8.
func (r *Engine) Unlink(path string) error { return r.fs.Unlink(path) }

// Readdir is request code 9. On a successful (1) return the next entry's
// name, NUL-padded to ramfs.DirNameLen bytes, is copied into name, which
// must be at least ramfs.DirNameLen bytes.
func (r *Engine) Readdir(clientID, fd int, name []byte) (int, error) {
	return r.fs.Readdir(clientID, fd, &ramfs.BufferMemory{Buf: name})
}

// DetachClient drops a client's open-file table, as happens when a client
// session ends.
func (r *Engine) DetachClient(clientID int) { r.fs.DetachClient(clientID) }

// Errno maps an error returned by any Engine method to the negative integer
// code the external interface reports. Returns 0 for a nil error and
// EConsistency for any error this boundary doesn't recognize; every error
// ramfs can return is mapped below.
func Errno(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ramfs.ErrInvalidArgument):
		return EInvalidArgument
	case errors.Is(err, ramfs.ErrExists):
		return EExists
	case errors.Is(err, ramfs.ErrNoSpace):
		return ENoSpace
	case errors.Is(err, ramfs.ErrFileTooBig):
		return EFileTooBig
	case errors.Is(err, ramfs.ErrBusy):
		return EBusy
	case errors.Is(err, ramfs.ErrNotEmpty):
		return ENotEmpty
	case errors.Is(err, ramfs.ErrAlreadyInitialized):
		return EAlreadyInitialized
	case errors.Is(err, ramfs.ErrNotInitialized):
		return ENotInitialized
	default:
		return EConsistency
	}
}

// Dispatch routes a numbered request (spec §6) to the matching Engine
// method. arg's shape depends on code; see the doc comment on each Req*
// constant's corresponding method. Returns the method's success value (nil
// for codes with no payload) and the already-mapped errno.
func (r *Engine) Dispatch(clientID int, code int, arg any) (result any, errno int) {
	switch code {
	case ReqInit:
		return nil, Errno(r.Init())
	case ReqCreat:
		path, ok := arg.(string)
		if !ok {
			return nil, EInvalidArgument
		}
		return nil, Errno(r.Creat(path))
	case ReqMkdir:
		path, ok := arg.(string)
		if !ok {
			return nil, EInvalidArgument
		}
		return nil, Errno(r.Mkdir(path))
	case ReqOpen:
		path, ok := arg.(string)
		if !ok {
			return nil, EInvalidArgument
		}
		fd, err := r.Open(clientID, path)
		return fd, Errno(err)
	case ReqClose:
		fd, ok := arg.(int)
		if !ok {
			return nil, EInvalidArgument
		}
		return nil, Errno(r.Close(clientID, fd))
	case ReqRead:
		req, ok := arg.(ReadWriteArg)
		if !ok {
			return nil, EInvalidArgument
		}
		n, err := r.Read(clientID, req.FD, req.Buf)
		return n, Errno(err)
	case ReqWrite:
		req, ok := arg.(ReadWriteArg)
		if !ok {
			return nil, EInvalidArgument
		}
		n, err := r.Write(clientID, req.FD, req.Buf)
		return n, Errno(err)
	case ReqLseek:
		req, ok := arg.(SeekArg)
		if !ok {
			return nil, EInvalidArgument
		}
		return nil, Errno(r.Lseek(clientID, req.FD, req.Offset))
	case ReqUnlink:
		path, ok := arg.(string)
		if !ok {
			return nil, EInvalidArgument
		}
		return nil, Errno(r.Unlink(path))
	case ReqReaddir:
		req, ok := arg.(ReaddirArg)
		if !ok {
			return nil, EInvalidArgument
		}
		status, err := r.Readdir(clientID, req.FD, req.Name)
		return status, Errno(err)
	default:
		return nil, EInvalidArgument
	}
}

// ReadWriteArg is the Dispatch argument for ReqRead and ReqWrite: the
// user buffer and the descriptor it targets.
type ReadWriteArg struct {
	FD  int
	Buf []byte
}

// SeekArg is the Dispatch argument for ReqLseek.
type SeekArg struct {
	FD     int
	Offset int
}

// ReaddirArg is the Dispatch argument for ReqReaddir.
type ReaddirArg struct {
	FD   int
	Name []byte
}
