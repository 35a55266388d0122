package export

import (
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// gzipWriteCloser wraps a gzip writer and the underlying file so Close
// flushes the compressed stream before the file is closed.
type gzipWriteCloser struct {
	gz   *gzip.Writer
	file *os.File
}

func (w *gzipWriteCloser) Write(p []byte) (int, error) { return w.gz.Write(p) }

func (w *gzipWriteCloser) Close() error {
	if err := w.gz.Close(); err != nil {
		w.file.Close()
		return err
	}
	return w.file.Close()
}

// OpenWriter creates path for writing, wrapping it in a gzip writer when
// path ends in ".gz" or forceGzip is set.
func OpenWriter(path string, forceGzip bool) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, newError(FileCreate, path, err)
	}
	if forceGzip || strings.HasSuffix(path, ".gz") {
		return &gzipWriteCloser{gz: gzip.NewWriter(f), file: f}, nil
	}
	return f, nil
}
