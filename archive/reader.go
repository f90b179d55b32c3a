package archive

import (
	"archive/zip"
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Reader provides random access to the entries of a downloaded feed
// archive. Every Entry.Open returns a fresh stream, which is what lets
// the loader make two independent passes over the same entries (header
// inference, then bulk load).
type Reader struct {
	zr *zip.ReadCloser
}

// Open opens the zip archive at path.
func Open(path string) (*Reader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	return &Reader{zr: zr}, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	return r.zr.Close()
}

// Entries lists every file in the archive. Directory entries are
// skipped.
func (r *Reader) Entries() []Entry {
	out := make([]Entry, 0, len(r.zr.File))
	for _, f := range r.zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		out = append(out, Entry{f: f})
	}
	return out
}

// Entry is one file inside the archive.
type Entry struct {
	f *zip.File
}

// Name returns the entry's internal path, lowercased for matching
// against the table specification.
func (e Entry) Name() string {
	return strings.ToLower(e.f.Name)
}

// Open returns a fresh stream over the entry's full contents, header
// line included.
func (e Entry) Open() (io.ReadCloser, error) {
	rc, err := e.f.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry %s: %w", e.f.Name, err)
	}
	return rc, nil
}

// Header opens the entry and reads only through the first line
// terminator, returning the line without it. A file with no terminator
// yields its whole content; an empty file yields "".
func (e Entry) Header() (string, error) {
	rc, err := e.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	line, err := bufio.NewReader(rc).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read header of %s: %w", e.f.Name, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
