package dict

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// maxLineSize bounds a single dictionary line.
const maxLineSize = 1 << 20

// Options controls dictionary loading.
type Options struct {
	// Strict rejects keywords that are not valid UTF-8. Otherwise they are
	// kept as raw bytes.
	Strict bool

	// Logger receives loader diagnostics. Nil discards them.
	Logger *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// Parse loads a dictionary held in memory.
func Parse(src string, opts Options) (*Dict, error) {
	return Load(strings.NewReader(src), opts)
}

// ParseLines loads a dictionary from individual lines. Each element is
// parsed exactly like a line of a dictionary file.
func ParseLines(lines []string, opts Options) (*Dict, error) {
	return Parse(strings.Join(lines, "\n"), opts)
}

// Load reads a dictionary from r.
func Load(r io.Reader, opts Options) (*Dict, error) {
	d := New()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		keyword, extra := splitLine(sc.Bytes())
		if len(keyword) == 0 {
			continue
		}
		if opts.Strict && !utf8.Valid(keyword) {
			return nil, &ParseError{Line: lineNo, Err: ErrInvalidUTF8}
		}
		if _, err := d.Add(string(keyword), string(extra)); err != nil {
			return nil, &ParseError{Line: lineNo, Err: err}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("dict: read line %d: %w", lineNo+1, err)
	}
	return d, nil
}

// splitLine splits a raw line into keyword and extra at the first TAB.
func splitLine(line []byte) (keyword, extra []byte) {
	line = bytes.TrimSuffix(line, []byte{'\r'})
	keyword, extra, _ = bytes.Cut(line, []byte{'\t'})
	return keyword, extra
}

// LoadFile reads a dictionary file. Files ending in .zst, .gz or .lz4 are
// decompressed transparently.
func LoadFile(path string, opts Options) (*Dict, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dict: %w", err)
	}
	defer f.Close()

	r, closeFn, err := decompress(f, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("dict: %s: %w", path, err)
	}
	defer closeFn()

	d, err := Load(r, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	opts.logger().Debug("dictionary loaded", "path", path, "entries", d.Len())
	return d, nil
}

// decompress wraps r according to the file extension.
func decompress(r io.Reader, ext string) (io.Reader, func(), error) {
	switch strings.ToLower(ext) {
	case ".zst", ".zstd":
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return dec, dec.Close, nil
	case ".gz":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return zr, func() { _ = zr.Close() }, nil
	case ".lz4":
		return lz4.NewReader(r), func() {}, nil
	default:
		return r, func() {}, nil
	}
}

// Write serializes d in the dictionary line format.
func Write(w io.Writer, d *Dict) error {
	bw := bufio.NewWriter(w)
	for _, e := range d.Entries {
		if _, err := bw.WriteString(e.Keyword); err != nil {
			return err
		}
		if e.Extra != "" {
			if err := bw.WriteByte('\t'); err != nil {
				return err
			}
			if _, err := bw.WriteString(e.Extra); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
