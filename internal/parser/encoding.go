package parser

import (
	"bytes"
	"encoding/binary"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// Encoding names a supported source text encoding.
type Encoding string

const (
	EncodingUTF8    Encoding = "utf-8"
	EncodingUTF16LE Encoding = "utf-16le"
)

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16LEBOM = []byte{0xFF, 0xFE}
)

// Decode turns raw file bytes into text. Valid UTF-8 is used as is; anything
// else must be UTF-16LE behind a byte-order-mark, as written by genstrings.
func Decode(data []byte) (string, Encoding, error) {
	if utf8.Valid(data) {
		return string(bytes.TrimPrefix(data, utf8BOM)), EncodingUTF8, nil
	}

	if !bytes.HasPrefix(data, utf16LEBOM) {
		return "", "", &EncodingError{Reason: "invalid UTF-8 and no UTF-16LE byte-order-mark"}
	}
	body := data[len(utf16LEBOM):]
	if len(body)%2 != 0 {
		return "", "", &EncodingError{Reason: "odd byte count for UTF-16LE"}
	}
	if err := validateUTF16LE(body); err != nil {
		return "", "", err
	}

	// The BOM is already gone, so the decoder must not look for one.
	decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(body)
	if err != nil {
		return "", "", &EncodingError{Reason: "transcode UTF-16LE: " + err.Error()}
	}
	return string(decoded), EncodingUTF16LE, nil
}

// validateUTF16LE rejects unpaired surrogates, which the x/text decoder would
// otherwise replace with U+FFFD.
func validateUTF16LE(body []byte) error {
	for i := 0; i < len(body); i += 2 {
		unit := rune(binary.LittleEndian.Uint16(body[i:]))
		if !utf16.IsSurrogate(unit) {
			continue
		}
		if unit >= 0xDC00 || i+3 >= len(body) {
			return &EncodingError{Reason: "unpaired UTF-16 surrogate"}
		}
		next := rune(binary.LittleEndian.Uint16(body[i+2:]))
		if utf16.DecodeRune(unit, next) == utf8.RuneError {
			return &EncodingError{Reason: "unpaired UTF-16 surrogate"}
		}
		i += 2
	}
	return nil
}
