// Package media serves local video files with HTTP range-request semantics.
// Every transport front-end (store-dir streaming, query-path streaming, the
// static listing) goes through Describe so the byte-range behavior cannot
// drift between call sites.
package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var contentTypes = map[string]string{
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".ogg":  "video/ogg",
	".ogv":  "video/ogg",
	".mp3":  "audio/mpeg",
	".mkv":  "video/x-matroska",
}

const defaultContentType = "application/octet-stream"

// VideoExtensions lists the file types the library treats as importable video.
var VideoExtensions = []string{".mp4", ".webm", ".ogg", ".ogv", ".mov", ".avi", ".mkv", ".m4v"}

// ContentTypeFor maps a file path to its MIME type by extension.
func ContentTypeFor(path string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return ct
	}
	return defaultContentType
}

// IsVideoFile reports whether the path has a recognized video extension.
func IsVideoFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range VideoExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// SanitizeName strips any directory components from a requested file name.
// Names served from the fixed store directory must never traverse out of it.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	return filepath.Base(name)
}

var rangeRe = regexp.MustCompile(`bytes=(\d*)-(\d*)`)

// ErrUnsatisfiable marks a range that cannot be served from a file of the
// given size.
var ErrUnsatisfiable = fmt.Errorf("requested range not satisfiable")

// ParseRange parses a Range header value against the file size. A missing
// start defaults to 0 and a missing end to size-1; the end is clamped to the
// last byte. Malformed headers, start > end, and start >= size are all
// unsatisfiable.
func ParseRange(header string, size int64) (start, end int64, err error) {
	m := rangeRe.FindStringSubmatch(header)
	if m == nil {
		return 0, 0, ErrUnsatisfiable
	}

	start, end = 0, size-1
	if m[1] != "" {
		if start, err = strconv.ParseInt(m[1], 10, 64); err != nil {
			return 0, 0, ErrUnsatisfiable
		}
	}
	if m[2] != "" {
		if end, err = strconv.ParseInt(m[2], 10, 64); err != nil {
			return 0, 0, ErrUnsatisfiable
		}
	}
	if end > size-1 {
		end = size - 1
	}
	if start > end || start >= size {
		return 0, 0, ErrUnsatisfiable
	}
	return start, end, nil
}

// Descriptor is a transport-neutral response for one file request.
// Body is non-nil only for 200 and 206 and must be closed by the consumer.
type Descriptor struct {
	Status        int
	ContentType   string
	ContentLength int64
	ContentRange  string
	FileSize      int64
	Body          io.ReadCloser
}

// Headers returns the response headers implied by the descriptor.
func (d *Descriptor) Headers() map[string]string {
	h := map[string]string{}
	if d.Status != 200 && d.Status != 206 {
		return h
	}
	h["Accept-Ranges"] = "bytes"
	h["Content-Type"] = d.ContentType
	h["Content-Length"] = strconv.FormatInt(d.ContentLength, 10)
	if d.ContentRange != "" {
		h["Content-Range"] = d.ContentRange
	}
	return h
}

type limitedFile struct {
	io.Reader
	f *os.File
}

func (lf *limitedFile) Close() error { return lf.f.Close() }

// Describe opens the target file and produces the response for an optional
// Range header. The returned Body owns the file handle.
func Describe(path string, rangeHeader string) *Descriptor {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return &Descriptor{Status: 404}
	}
	size := info.Size()

	if rangeHeader == "" {
		f, err := os.Open(path)
		if err != nil {
			return &Descriptor{Status: 404}
		}
		return &Descriptor{
			Status:        200,
			ContentType:   ContentTypeFor(path),
			ContentLength: size,
			FileSize:      size,
			Body:          f,
		}
	}

	start, end, err := ParseRange(rangeHeader, size)
	if err != nil {
		return &Descriptor{Status: 416, FileSize: size}
	}

	f, err := os.Open(path)
	if err != nil {
		return &Descriptor{Status: 404}
	}
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		f.Close()
		return &Descriptor{Status: 404}
	}

	length := end - start + 1
	return &Descriptor{
		Status:        206,
		ContentType:   ContentTypeFor(path),
		ContentLength: length,
		ContentRange:  fmt.Sprintf("bytes %d-%d/%d", start, end, size),
		FileSize:      size,
		Body:          &limitedFile{Reader: io.LimitReader(f, length), f: f},
	}
}
