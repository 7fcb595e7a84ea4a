package cli

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// openInput resolves one positional input argument to a readable stream,
// transparently decompressing by file extension the way the reference
// implementation's wrapper scripts do for .gz/.zst archives, so a NDJSON
// export piped straight out of a log shipper never needs a manual pre step.
func openInput(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &readCloserPair{Reader: gz, closers: []io.Closer{gz, f}}, nil
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &readCloserPair{Reader: zr.IOReadCloser(), closers: []io.Closer{zr.IOReadCloser(), f}}, nil
	default:
		return f, nil
	}
}

// readCloserPair closes every wrapped layer (the decompressor, then the
// underlying file) in order, since neither gzip.Reader nor zstd.Decoder
// closes what it wraps for you.
type readCloserPair struct {
	io.Reader
	closers []io.Closer
}

func (p *readCloserPair) Close() error {
	var first error
	for _, c := range p.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// expandGlobs expands any shell-style glob patterns among args that the
// invoking shell left unexpanded (relevant on platforms without glob
// expansion, and for patterns quoted to avoid clobbering by the shell).
// Non-matching patterns pass through unchanged -- a literal filename that
// happens to contain no glob metacharacters always matches only itself.
func expandGlobs(args []string) ([]string, error) {
	var out []string
	for _, a := range args {
		matches, err := filepath.Glob(a)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			out = append(out, a)
			continue
		}
		out = append(out, matches...)
	}
	return out, nil
}
