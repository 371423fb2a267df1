// Package format guesses the outer encoding of PDF stream data from its
// leading and trailing bytes.
package format

import (
	"bytes"

	"github.com/gabriel-vasile/mimetype"
)

// Format is an encoding recognised from the data alone.
type Format int

const (
	// Unknown indicates data that matches no known encoding.
	Unknown Format = iota
	// Flate indicates a zlib stream.
	Flate
	// ASCIIHex indicates hexadecimal digits, optionally ending in '>'.
	ASCIIHex
	// ASCII85 indicates base-85 text ending in "~>".
	ASCII85
	// DCT indicates a JPEG image.
	DCT
	// JPX indicates a JPEG 2000 file or codestream.
	JPX
	// JBIG2 indicates a JBIG2 file.
	JBIG2
)

// String returns the name of the filter that decodes the format.
func (f Format) String() string {
	switch f {
	case Flate:
		return "FlateDecode"
	case ASCIIHex:
		return "ASCIIHexDecode"
	case ASCII85:
		return "ASCII85Decode"
	case DCT:
		return "DCTDecode"
	case JPX:
		return "JPXDecode"
	case JBIG2:
		return "JBIG2Decode"
	default:
		return "Unknown"
	}
}

// IsImage reports whether f is an image encoding that the filters pass
// through undecoded.
func (f Format) IsImage() bool {
	return f == DCT || f == JPX || f == JBIG2
}

var (
	jbig2Magic  = []byte{0x97, 'J', 'B', '2', '\r', '\n', 0x1A, '\n'}
	j2kCodeMark = []byte{0xFF, 0x4F, 0xFF, 0x51}
)

// DetectFromMagic checks the bytes of data to determine its format.
// ASCII85 is only recognised with its "~>" terminator, since base-85 text
// cannot otherwise be told apart from hex digits or plain text.
func DetectFromMagic(data []byte) Format {
	if len(data) < 2 {
		return Unknown
	}

	if bytes.HasPrefix(data, jbig2Magic) {
		return JBIG2
	}
	if bytes.HasPrefix(data, j2kCodeMark) {
		return JPX
	}

	mtype := mimetype.Detect(data)
	switch {
	case mtype.Is("image/jpeg"):
		return DCT
	case mtype.Is("image/jp2"), mtype.Is("image/jpx"):
		return JPX
	}

	if isASCII85(data) {
		return ASCII85
	}
	if isASCIIHex(data) {
		return ASCIIHex
	}
	if hasZlibHeader(data) {
		return Flate
	}

	return Unknown
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == 0
}

func isASCII85(data []byte) bool {
	trimmed := bytes.TrimRightFunc(data, func(r rune) bool { return r < 0x80 && isWhitespace(byte(r)) })
	body, ok := bytes.CutSuffix(trimmed, []byte("~>"))
	if !ok {
		return false
	}
	body = bytes.TrimPrefix(bytes.TrimLeftFunc(body, func(r rune) bool { return r < 0x80 && isWhitespace(byte(r)) }), []byte("<~"))
	for _, c := range body {
		if !isWhitespace(c) && c != 'z' && (c < '!' || c > 'u') {
			return false
		}
	}
	return true
}

func isASCIIHex(data []byte) bool {
	digits := 0
	for _, c := range data {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
			digits++
		case isWhitespace(c):
		case c == '>':
			// EOD; anything after it is ignored by the decoder.
			return digits > 0
		default:
			return false
		}
	}
	return digits > 0
}

// hasZlibHeader reports whether data starts with a zlib CMF/FLG pair
// announcing deflate.
func hasZlibHeader(data []byte) bool {
	cmf, flg := data[0], data[1]
	return cmf&0x0F == 8 && cmf>>4 <= 7 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}
