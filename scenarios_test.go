package ramdisk

import "testing"

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	r := New(func(size int) ([]byte, func() error, error) {
		return make([]byte, size), func() error { return nil }, nil
	}, Options{})
	if err := r.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { r.Teardown() })
	return r
}

// Scenario 1: init; creat("/a"); open("/a")=0; write("hello")=5;
// lseek(0,0)=0; read(0,buf,5)=5 with buf=="hello".
func TestScenarioWriteReadRoundTrip(t *testing.T) {
	r := newTestEngine(t)
	const client = 0

	if err := r.Creat("/a"); err != nil {
		t.Fatalf("Creat: %v", err)
	}
	fd, err := r.Open(client, "/a")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	n, err := r.Write(client, fd, []byte("hello"))
	if err != nil || n != 5 {
		t.Fatalf("Write = (%d, %v), want (5, nil)", n, err)
	}
	if err := r.Lseek(client, fd, 0); err != nil {
		t.Fatalf("Lseek: %v", err)
	}
	buf := make([]byte, 5)
	n, err = r.Read(client, fd, buf)
	if err != nil || n != 5 {
		t.Fatalf("Read = (%d, %v), want (5, nil)", n, err)
	}
	if string(buf) != "hello" {
		t.Fatalf("buf = %q, want %q", buf, "hello")
	}
}

// Scenario 2: mkdir("/d"); creat("/d/f"); unlink("/d") -> not-empty;
// unlink("/d/f"); unlink("/d") both succeed.
func TestScenarioMkdirNotEmptyThenEmpty(t *testing.T) {
	r := newTestEngine(t)

	if err := r.Mkdir("/d"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := r.Creat("/d/f"); err != nil {
		t.Fatalf("Creat: %v", err)
	}
	if err := r.Unlink("/d"); Errno(err) != ENotEmpty {
		t.Fatalf("Unlink non-empty dir errno = %d, want %d", Errno(err), ENotEmpty)
	}
	if err := r.Unlink("/d/f"); err != nil {
		t.Fatalf("Unlink file: %v", err)
	}
	if err := r.Unlink("/d"); err != nil {
		t.Fatalf("Unlink empty dir: %v", err)
	}
}

// Scenario 3: for i in 0..1023: creat("/" + i) succeeds for 1023 files;
// the 1024th returns no-space.
func TestScenarioInodeExhaustion(t *testing.T) {
	r := newTestEngine(t)

	succeeded := 0
	for i := 0; i < 1024; i++ {
		name := "/" + itoaScenario(i)
		err := r.Creat(name)
		if err != nil {
			if Errno(err) != ENoSpace {
				t.Fatalf("Creat(%q) = %v, want no-space at exhaustion", name, err)
			}
			break
		}
		succeeded++
	}
	if succeeded != 1023 {
		t.Fatalf("succeeded = %d, want 1023", succeeded)
	}
}

func itoaScenario(i int) string {
	if i == 0 {
		return "0"
	}
	var b []byte
	for i > 0 {
		b = append([]byte{byte('0' + i%10)}, b...)
		i /= 10
	}
	return string(b)
}

// Scenario 4: creat("/big"); open; write 1,067,008 bytes total succeeds;
// one more byte returns file-too-big.
func TestScenarioMaxFileSize(t *testing.T) {
	r := newTestEngine(t)
	const client = 0

	if err := r.Creat("/big"); err != nil {
		t.Fatalf("Creat: %v", err)
	}
	fd, err := r.Open(client, "/big")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	const maxFileSize = 1067008
	chunk := make([]byte, 4096)
	remaining := maxFileSize
	for remaining > 0 {
		n := len(chunk)
		if remaining < n {
			n = remaining
		}
		written, err := r.Write(client, fd, chunk[:n])
		if err != nil {
			t.Fatalf("Write at remaining=%d: %v", remaining, err)
		}
		remaining -= written
	}

	if _, err := r.Write(client, fd, []byte{1}); Errno(err) != EFileTooBig {
		t.Fatalf("Write past max size errno = %d, want %d", Errno(err), EFileTooBig)
	}
}

// Scenario 5: creat("/x"); open=0; unlink -> busy; close(0); unlink -> 0.
func TestScenarioUnlinkBusyThenSucceeds(t *testing.T) {
	r := newTestEngine(t)
	const client = 0

	if err := r.Creat("/x"); err != nil {
		t.Fatalf("Creat: %v", err)
	}
	fd, err := r.Open(client, "/x")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := r.Unlink("/x"); Errno(err) != EBusy {
		t.Fatalf("Unlink while open errno = %d, want %d", Errno(err), EBusy)
	}
	if err := r.Close(client, fd); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := r.Unlink("/x"); err != nil {
		t.Fatalf("Unlink after close: %v", err)
	}
}

// Scenario 6: mkdir("/d"); readdir -> 0 (end). After creat("/d/a");
// creat("/d/b"), two successive readdir calls return "a" then "b", then 0.
func TestScenarioReaddirInsertionOrder(t *testing.T) {
	r := newTestEngine(t)
	const client = 0

	if err := r.Mkdir("/d"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	fd, err := r.Open(client, "/d")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	name := make([]byte, 14)
	status, err := r.Readdir(client, fd, name)
	if err != nil || status != 0 {
		t.Fatalf("Readdir on empty dir = (%d, %v), want (0, nil)", status, err)
	}

	if err := r.Creat("/d/a"); err != nil {
		t.Fatalf("Creat: %v", err)
	}
	if err := r.Creat("/d/b"); err != nil {
		t.Fatalf("Creat: %v", err)
	}

	fd2, err := r.Open(client, "/d")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	status, err = r.Readdir(client, fd2, name)
	if err != nil || status != 1 || trimNUL(name) != "a" {
		t.Fatalf("first Readdir = (%q, %d, %v), want (\"a\", 1, nil)", name, status, err)
	}
	status, err = r.Readdir(client, fd2, name)
	if err != nil || status != 1 || trimNUL(name) != "b" {
		t.Fatalf("second Readdir = (%q, %d, %v), want (\"b\", 1, nil)", name, status, err)
	}
	status, err = r.Readdir(client, fd2, name)
	if err != nil || status != 0 {
		t.Fatalf("third Readdir = (%d, %v), want (0, nil)", status, err)
	}
}

func trimNUL(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
