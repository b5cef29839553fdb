// Package textenc turns raw file bytes of unknown encoding into UTF-8 text.
package textenc

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// minConfidence is the chardet score below which the guess is ignored.
const minConfidence = 30

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Result describes how a byte slice was decoded.
type Result struct {
	Text     string
	Encoding string
}

// Decode detects the encoding of raw and returns it as UTF-8.
//
// Order: byte order mark, valid UTF-8, statistical detection, then the
// HTML5 default fallback.
func Decode(raw []byte) (Result, error) {
	if enc, name, ok := fromBOM(raw); ok {
		text, err := decodeWith(enc, raw)
		if err != nil {
			return Result{}, fmt.Errorf("decode %s: %w", name, err)
		}
		return Result{Text: strings.TrimPrefix(text, "\ufeff"), Encoding: name}, nil
	}

	if utf8.Valid(raw) {
		return Result{Text: string(raw), Encoding: "utf-8"}, nil
	}

	enc, name := detect(raw)
	text, err := decodeWith(enc, raw)
	if err != nil {
		return Result{}, fmt.Errorf("decode %s: %w", name, err)
	}
	return Result{Text: text, Encoding: name}, nil
}

// DecodeString is Decode returning only the text.
func DecodeString(raw []byte) (string, error) {
	res, err := Decode(raw)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

func fromBOM(raw []byte) (encoding.Encoding, string, bool) {
	switch {
	case bytes.HasPrefix(raw, bomUTF8):
		return unicode.UTF8BOM, "utf-8", true
	case bytes.HasPrefix(raw, bomUTF16LE):
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), "utf-16le", true
	case bytes.HasPrefix(raw, bomUTF16BE):
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), "utf-16be", true
	}
	return nil, "", false
}

func detect(raw []byte) (encoding.Encoding, string) {
	best, err := chardet.NewTextDetector().DetectBest(raw)
	if err == nil && best != nil && best.Confidence >= minConfidence {
		if enc, name := charset.Lookup(best.Charset); enc != nil {
			return enc, name
		}
	}
	enc, name, _ := charset.DetermineEncoding(raw, "")
	return enc, name
}

func decodeWith(enc encoding.Encoding, raw []byte) (string, error) {
	out, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
