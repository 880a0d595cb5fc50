// Package input loads XML documents from disk for the diff pipeline.
//
// Inputs may be plain files or .xz/.gz compressed; text may be UTF-8
// (with or without BOM) or UTF-16 with a BOM. The loader always hands
// the engine plain UTF-8 text and records the decoded content's BLAKE3
// digest for report fingerprints and baseline provenance.
package input

import (
	"bytes"
	"compress/gzip"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"
	"golang.org/x/text/encoding/unicode"

	"github.com/xmldelta/xmldelta/core/errors"
	"github.com/xmldelta/xmldelta/internal/logging"
	"github.com/xmldelta/xmldelta/internal/validation"
)

// MaxInputSize is the maximum allowed decoded input size.
const MaxInputSize = validation.MaxInputSize

// Input is one loaded document ready for parsing.
type Input struct {
	// Path is the source path as given by the caller.
	Path string `json:"path"`
	// Text is the decoded UTF-8 document text.
	Text string `json:"-"`
	// Bytes is the decoded text length.
	Bytes int64 `json:"bytes"`
	// Digest is the BLAKE3 hash of the decoded text.
	Digest string `json:"digest"`
	// Encoding is the detected source encoding.
	Encoding string `json:"encoding"`
	// Compression is the detected wrapper: none, gzip, or xz.
	Compression string `json:"compression"`
}

// Load reads, decompresses, and decodes one document.
func Load(path string) (*Input, error) {
	if err := validation.ValidatePath(path); err != nil {
		return nil, errors.NewValidation("input", err.Error())
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()

	// Quick reject on the on-disk size; the decoded stream is capped
	// again below since compressed inputs expand.
	if info, err := f.Stat(); err == nil && info.Size() > MaxInputSize {
		return nil, errors.NewValidation("input", "file exceeds 256 MB limit")
	}

	if err := checkHead(f, path); err != nil {
		return nil, err
	}

	reader, decompressor, compression, err := wrapReader(f, path)
	if err != nil {
		return nil, err
	}
	if decompressor != nil {
		defer decompressor.Close()
	}

	raw, err := io.ReadAll(io.LimitReader(reader, MaxInputSize+1))
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}
	if int64(len(raw)) > MaxInputSize {
		return nil, errors.NewValidation("input", "decoded content exceeds 256 MB limit")
	}

	text, encodingName, err := decode(raw)
	if err != nil {
		return nil, errors.NewParse("text", path, err.Error())
	}

	digest := Digest(text)
	logging.InputLoaded(path, int64(len(text)), digest,
		"encoding", encodingName, "compression", compression)

	return &Input{
		Path:        path,
		Text:        text,
		Bytes:       int64(len(text)),
		Digest:      digest,
		Encoding:    encodingName,
		Compression: compression,
	}, nil
}

// FromString wraps already-decoded text as an Input. Used by callers
// that do not read from disk.
func FromString(name, text string) *Input {
	return &Input{
		Path:        name,
		Text:        text,
		Bytes:       int64(len(text)),
		Digest:      Digest(text),
		Encoding:    "utf-8",
		Compression: "none",
	}
}

// Digest returns the hex BLAKE3 hash of the given text.
func Digest(text string) string {
	sum := blake3.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// checkHead sniffs the file's leading bytes and rejects content that
// cannot be a document for this path, then rewinds for the real read.
func checkHead(f *os.File, path string) error {
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return errors.NewIO("read", path, err)
	}
	if err := validation.CheckDocument(head[:n], path); err != nil {
		return errors.NewValidation("input", err.Error())
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return errors.NewIO("seek", path, err)
	}
	return nil
}

// wrapReader selects a decompressor from the path extension. The xz
// reader needs no closing; gzip does.
func wrapReader(f *os.File, path string) (io.Reader, io.Closer, string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xz":
		xzr, err := xz.NewReader(f)
		if err != nil {
			return nil, nil, "", errors.NewIO("decompress", path, err)
		}
		return xzr, nil, "xz", nil
	case ".gz":
		gzr, err := gzip.NewReader(f)
		if err != nil {
			return nil, nil, "", errors.NewIO("decompress", path, err)
		}
		return gzr, gzr, "gzip", nil
	default:
		return f, nil, "none", nil
	}
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decode converts raw bytes to UTF-8 text, honoring a leading BOM.
// BOM-less input is assumed to be UTF-8 already.
func decode(raw []byte) (string, string, error) {
	switch {
	case bytes.HasPrefix(raw, bomUTF8):
		return string(raw[len(bomUTF8):]), "utf-8-bom", nil
	case bytes.HasPrefix(raw, bomUTF16LE):
		decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder().Bytes(raw)
		if err != nil {
			return "", "", err
		}
		return string(decoded), "utf-16le", nil
	case bytes.HasPrefix(raw, bomUTF16BE):
		decoded, err := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Bytes(raw)
		if err != nil {
			return "", "", err
		}
		return string(decoded), "utf-16be", nil
	default:
		return string(raw), "utf-8", nil
	}
}
