package ramfs

import (
	"bytes"
	"testing"
)

const testClient = 0

func mustCreatOpen(t *testing.T, fs *FileSystem, path string) int {
	t.Helper()
	if err := fs.Creat(path); err != nil {
		t.Fatalf("Creat(%q): %v", path, err)
	}
	fd, err := fs.Open(testClient, path)
	if err != nil {
		t.Fatalf("Open(%q): %v", path, err)
	}
	return fd
}

func TestWriteLseekReadRoundTrip(t *testing.T) {
	fs := newTestFS(t)
	fd := mustCreatOpen(t, fs, "/a")

	payload := []byte("hello")
	n, err := fs.Write(testClient, fd, &BufferMemory{Buf: payload}, len(payload))
	if err != nil || n != len(payload) {
		t.Fatalf("Write = (%d, %v), want (%d, nil)", n, err, len(payload))
	}

	if err := fs.Lseek(testClient, fd, 0); err != nil {
		t.Fatalf("Lseek: %v", err)
	}

	out := make([]byte, len(payload))
	mem := &BufferMemory{Buf: out}
	n, err = fs.Read(testClient, fd, mem, len(payload))
	if err != nil || n != len(payload) {
		t.Fatalf("Read = (%d, %v), want (%d, nil)", n, err, len(payload))
	}
	if !bytes.Equal(out, payload) {
		t.Fatalf("round trip: got %q, want %q", out, payload)
	}
}

func TestWriteIsAlwaysAppend(t *testing.T) {
	fs := newTestFS(t)
	fd := mustCreatOpen(t, fs, "/a")

	fs.Write(testClient, fd, &BufferMemory{Buf: []byte("abc")}, 3)
	fs.Lseek(testClient, fd, 0)
	// A write issued from a seek position of 0 must still land at EOF.
	n, err := fs.Write(testClient, fd, &BufferMemory{Buf: []byte("xyz")}, 3)
	if err != nil || n != 3 {
		t.Fatalf("Write = (%d, %v)", n, err)
	}

	fs.Lseek(testClient, fd, 0)
	out := make([]byte, 6)
	fs.Read(testClient, fd, &BufferMemory{Buf: out}, 6)
	if string(out) != "abcxyz" {
		t.Fatalf("content = %q, want %q", out, "abcxyz")
	}
}

func TestSeekBoundary(t *testing.T) {
	fs := newTestFS(t)
	fd := mustCreatOpen(t, fs, "/a")
	fs.Write(testClient, fd, &BufferMemory{Buf: []byte("abc")}, 3)

	if err := fs.Lseek(testClient, fd, 3); err != nil {
		t.Fatalf("Lseek to size=3 should succeed: %v", err)
	}
	if err := fs.Lseek(testClient, fd, 4); err == nil {
		t.Fatalf("Lseek past size should fail")
	}
}

func TestBoundaryOneByteNewBlock(t *testing.T) {
	fs := newTestFS(t)
	fd := mustCreatOpen(t, fs, "/a")
	before := fs.freeBlocks

	buf := make([]byte, BlockSize)
	fs.Write(testClient, fd, &BufferMemory{Buf: buf}, BlockSize)
	if fs.freeBlocks != before-1 {
		t.Fatalf("after filling exactly one block, freeBlocks = %d, want %d", fs.freeBlocks, before-1)
	}

	// one more byte crosses the 256-byte boundary: exactly one new block.
	fs.Write(testClient, fd, &BufferMemory{Buf: []byte{0x42}}, 1)
	if fs.freeBlocks != before-2 {
		t.Fatalf("after crossing block boundary by one byte, freeBlocks = %d, want %d", fs.freeBlocks, before-2)
	}
}

func TestBoundaryEighthDirectBlockNeedsSingleIndirect(t *testing.T) {
	fs := newTestFS(t)
	fd := mustCreatOpen(t, fs, "/a")

	full := DirectRefs * BlockSize
	buf := make([]byte, full)
	fs.Write(testClient, fd, &BufferMemory{Buf: buf}, full)
	before := fs.freeBlocks

	// the 257th byte past the 8th direct block: one new data block plus one
	// new single-indirect block.
	fs.Write(testClient, fd, &BufferMemory{Buf: []byte{1}}, 1)
	if got, want := before-fs.freeBlocks, 2; got != want {
		t.Fatalf("blocks consumed crossing into single-indirect = %d, want %d", got, want)
	}

	fo := fs.fdts[testClient].getEntry(fd)
	if fo.node.singleIndirect == noBlock {
		t.Fatalf("single-indirect block was not materialized")
	}
}

func TestBoundaryDoubleIndirectGroup(t *testing.T) {
	fs := newTestFS(t)
	fd := mustCreatOpen(t, fs, "/a")

	full := (DirectRefs + SingleIndirectRefs) * BlockSize
	buf := make([]byte, full)
	fs.Write(testClient, fd, &BufferMemory{Buf: buf}, full)
	before := fs.freeBlocks

	// the (72*256+1)th byte: a new data block, a new per-group indirect
	// block, and a new double-indirect container block.
	fs.Write(testClient, fd, &BufferMemory{Buf: []byte{1}}, 1)
	if got, want := before-fs.freeBlocks, 3; got != want {
		t.Fatalf("blocks consumed crossing into double-indirect = %d, want %d", got, want)
	}

	fo := fs.fdts[testClient].getEntry(fd)
	if fo.node.doubleIndirect == noBlock {
		t.Fatalf("double-indirect block was not materialized")
	}
}

func TestFileTooBig(t *testing.T) {
	fs := newTestFS(t)
	fd := mustCreatOpen(t, fs, "/big")

	chunk := make([]byte, BlockSize)
	remaining := MaxFileSize
	for remaining > 0 {
		n := BlockSize
		if remaining < n {
			n = remaining
		}
		written, err := fs.Write(testClient, fd, &BufferMemory{Buf: chunk[:n]}, n)
		if err != nil {
			t.Fatalf("Write at remaining=%d: %v", remaining, err)
		}
		remaining -= written
	}

	fo := fs.fdts[testClient].getEntry(fd)
	if fo.node.size != MaxFileSize {
		t.Fatalf("file size = %d, want %d", fo.node.size, MaxFileSize)
	}

	_, err := fs.Write(testClient, fd, &BufferMemory{Buf: []byte{1}}, 1)
	if err != ErrFileTooBig {
		t.Fatalf("Write past MaxFileSize = %v, want ErrFileTooBig", err)
	}
}

func TestWriteBusyOnConcurrentHold(t *testing.T) {
	fs := newTestFS(t)
	fd := mustCreatOpen(t, fs, "/a")

	fo := fs.fdts[testClient].getEntry(fd)
	fo.node.mu.Lock()
	defer fo.node.mu.Unlock()

	_, err := fs.Write(testClient, fd, &BufferMemory{Buf: []byte{1}}, 1)
	if err != ErrBusy {
		t.Fatalf("Write while exclusively locked = %v, want ErrBusy", err)
	}
}
