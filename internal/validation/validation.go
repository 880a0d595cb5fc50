// Package validation checks user-supplied input paths and content before
// the loader commits to reading them. Path checks reject unusable names
// early; content sniffing catches binary files handed in with a document
// extension, where the XML parser would otherwise produce a confusing
// error deep in the run.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Input limits.
const (
	// MaxInputSize is the maximum allowed decoded input size (256 MB).
	MaxInputSize = 256 << 20
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Path and content validation errors.
var (
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
	ErrBinaryContent    = errors.New("binary content in document input")
)

// ValidatePath checks a user-supplied input path for length limits and
// characters no real file name carries.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// ContentKind classifies input content by its leading bytes.
type ContentKind string

const (
	KindGzip    ContentKind = "gzip"
	KindXZ      ContentKind = "xz"
	KindZip     ContentKind = "zip"
	KindTar     ContentKind = "tar"
	KindSQLite  ContentKind = "sqlite"
	KindUnknown ContentKind = "unknown"
)

// magicBytes defines magic byte signatures for content detection.
var magicBytes = []struct {
	kind   ContentKind
	magic  []byte
	offset int
}{
	{KindTar, []byte("ustar"), 257},
	{KindGzip, []byte{0x1f, 0x8b}, 0},
	{KindXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}, 0},
	{KindZip, []byte{0x50, 0x4b, 0x03, 0x04}, 0},
	{KindSQLite, []byte("SQLite format 3"), 0},
}

// Text encoding BOMs accepted for document input.
var textBOMs = [][]byte{
	{0xef, 0xbb, 0xbf}, // UTF-8
	{0xff, 0xfe},       // UTF-16 LE
	{0xfe, 0xff},       // UTF-16 BE
}

// DetectContent matches head against known magic byte signatures.
func DetectContent(head []byte) ContentKind {
	for _, sig := range magicBytes {
		if sig.offset+len(sig.magic) <= len(head) {
			if bytes.Equal(head[sig.offset:sig.offset+len(sig.magic)], sig.magic) {
				return sig.kind
			}
		}
	}
	return KindUnknown
}

// CheckDocument verifies that the head of an input file is plausible for
// its path. Compressed extensions pass through untouched since the
// decompressor validates its own framing; anything else must look like
// text. Empty heads pass so the parser can report empty input itself.
func CheckDocument(head []byte, path string) error {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".gz") || strings.HasSuffix(lower, ".xz") {
		return nil
	}
	if len(head) == 0 {
		return nil
	}
	for _, bom := range textBOMs {
		if bytes.HasPrefix(head, bom) {
			return nil
		}
	}
	if kind := DetectContent(head); kind != KindUnknown {
		return fmt.Errorf("%w: content looks like %s", ErrBinaryContent, kind)
	}
	if !isLikelyText(head) {
		return ErrBinaryContent
	}
	return nil
}

// isLikelyText reports whether the buffer reads as text. Null bytes mean
// binary; otherwise at least 95% of single-byte characters must be
// printable. UTF-8 multi-byte sequences count as neutral.
func isLikelyText(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}
	if bytes.IndexByte(buf, 0) != -1 {
		return false
	}

	printable := 0
	control := 0
	for _, b := range buf {
		if b >= 0x20 && b <= 0x7e || b == '\t' || b == '\n' || b == '\r' {
			printable++
		} else if b < 0x20 {
			control++
		}
	}
	return printable > 0 && float64(printable)/float64(printable+control) > 0.95
}
