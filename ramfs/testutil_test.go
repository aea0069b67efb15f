package ramfs

import (
	"io"

	"github.com/sirupsen/logrus"
)

// newTestFS builds and initializes a FileSystem backed by a plain heap
// allocation, discarding log output.
func newTestFS(t interface{ Fatalf(string, ...any) }) *FileSystem {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	fs := New(func(size int) ([]byte, func() error, error) {
		return make([]byte, size), func() error { return nil }, nil
	}, Options{Logger: logger})
	if err := fs.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return fs
}
