package fs

import (
	"bytes"
	"io"
	"os"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/text/encoding/unicode"
)

const (
	// SampleSize is the prefix length inspected when sniffing content.
	SampleSize                   = 4096
	nonPrintableThresholdPercent = 30
)

// Encoding identifies a Unicode byte-order mark found at the start of content.
type Encoding int

const (
	EncodingUnknown Encoding = iota
	EncodingUTF8BOM
	EncodingUTF16LE
	EncodingUTF16BE
)

// Sniffed is the result of inspecting a content prefix.
type Sniffed struct {
	MIME     string
	Text     bool
	Encoding Encoding
}

// Sniff classifies content as text or binary. The MIME detector wins when it
// recognises a text type; otherwise the byte heuristics of IsTextFile decide.
func Sniff(content []byte) Sniffed {
	sample := content
	if len(sample) > SampleSize {
		sample = sample[:SampleSize]
	}
	mt := mimetype.Detect(sample)
	out := Sniffed{
		MIME:     mt.String(),
		Encoding: DetectUnicodeEncoding(sample),
	}
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			out.Text = true
			return out
		}
	}
	out.Text = IsTextFile(sample)
	return out
}

// IsTextFile determines if content is text or binary.
func IsTextFile(content []byte) bool {
	if len(content) == 0 {
		return true
	}

	sample := content
	if len(sample) > SampleSize {
		sample = sample[:SampleSize]
	}

	if enc := DetectUnicodeEncoding(sample); enc != EncodingUnknown {
		return true
	}

	if bytes.IndexByte(sample, 0x00) != -1 {
		return false
	}

	if utf8.Valid(sample) {
		return true
	}

	printable := 0
	nonPrintable := 0
	for _, b := range sample {
		if isCommonTextByte(b) {
			printable++
		} else {
			nonPrintable++
		}
	}

	if printable == 0 {
		return false
	}

	return nonPrintable*100/len(sample) < nonPrintableThresholdPercent
}

// ReadFileHead returns up to limit bytes from the beginning of path.
func ReadFileHead(path string, limit int64) ([]byte, error) {
	if limit <= 0 {
		return nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = f.Close()
	}()

	return io.ReadAll(io.LimitReader(f, limit))
}

func isCommonTextByte(b byte) bool {
	switch {
	case b == 0x09 || b == 0x0A || b == 0x0D:
		return true
	case b >= 0x20 && b <= 0x7E:
		return true
	case b == 0x1B:
		return true
	case b >= 0x80:
		return true
	default:
		return false
	}
}

// DetectUnicodeEncoding inspects the leading byte-order mark.
func DetectUnicodeEncoding(sample []byte) Encoding {
	if len(sample) >= 3 && sample[0] == 0xEF && sample[1] == 0xBB && sample[2] == 0xBF {
		return EncodingUTF8BOM
	}
	if len(sample) >= 2 {
		switch {
		case sample[0] == 0xFF && sample[1] == 0xFE:
			return EncodingUTF16LE
		case sample[0] == 0xFE && sample[1] == 0xFF:
			return EncodingUTF16BE
		}
	}
	return EncodingUnknown
}

// NormalizeTextContent converts known Unicode BOM-encoded content into UTF-8 strings.
func NormalizeTextContent(content []byte) string {
	if len(content) == 0 {
		return ""
	}

	switch DetectUnicodeEncoding(content) {
	case EncodingUTF8BOM:
		return string(content[3:])
	case EncodingUTF16LE:
		return decodeUTF16(content, unicode.LittleEndian)
	case EncodingUTF16BE:
		return decodeUTF16(content, unicode.BigEndian)
	default:
		return string(content)
	}
}

func decodeUTF16(content []byte, endian unicode.Endianness) string {
	if len(content)%2 == 1 {
		content = content[:len(content)-1]
	}
	decoder := unicode.UTF16(endian, unicode.ExpectBOM).NewDecoder()
	out, err := decoder.Bytes(content)
	if err != nil {
		return string(content)
	}
	return string(out)
}
