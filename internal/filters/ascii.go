package filters

import (
	"bytes"
	"fmt"

	"github.com/tsawler/pdfstream/logger"
)

// ASCIIHex is the ASCIIHexDecode filter.
type ASCIIHex struct{}

func (a *ASCIIHex) Name() string { return NameASCIIHex }

func (a *ASCIIHex) Decode(data []byte, _ Params) (*Result, error) {
	out, err := ASCIIHexDecode(data)
	if err != nil {
		return nil, err
	}
	return &Result{Data: out}, nil
}

func (a *ASCIIHex) Encode(data []byte, _ Params) ([]byte, error) {
	return ASCIIHexEncode(data), nil
}

// ASCII85 is the ASCII85Decode filter.
type ASCII85 struct{}

func (a *ASCII85) Name() string { return NameASCII85 }

func (a *ASCII85) Decode(data []byte, _ Params) (*Result, error) {
	out, err := ASCII85Decode(data)
	if err != nil {
		return nil, err
	}
	return &Result{Data: out}, nil
}

func (a *ASCII85) Encode(data []byte, _ Params) ([]byte, error) {
	return ASCII85Encode(data), nil
}

// ASCIIHexDecode decodes ASCII hexadecimal encoded data.
// Each pair of hexadecimal digits (0-9, A-F, a-f) represents one byte.
// Whitespace is ignored, and > marks end of data. A final odd digit is
// completed with 0. Digits that are not hexadecimal are logged and read
// as 0.
func ASCIIHexDecode(data []byte) ([]byte, error) {
	result := make([]byte, 0, len(data)/2)

	var hi byte
	half := false
	for i, c := range data {
		if isWhitespace(c) {
			continue
		}
		if c == '>' {
			break
		}

		v, ok := hexValue(c)
		if !ok {
			logger.Warn("asciihex: invalid hex digit treated as 0", "filter", NameASCIIHex, "char", string(c), "offset", i)
		}

		if half {
			result = append(result, hi<<4|v)
		} else {
			hi = v
		}
		half = !half
	}
	if half {
		result = append(result, hi<<4)
	}

	return result, nil
}

// ASCIIHexEncode encodes data as pairs of uppercase hexadecimal digits. No
// end-of-data marker is written.
func ASCIIHexEncode(data []byte) []byte {
	const digits = "0123456789ABCDEF"
	out := make([]byte, 0, len(data)*2)
	for _, b := range data {
		out = append(out, digits[b>>4], digits[b&0x0f])
	}
	return out
}

// ASCII85Decode decodes ASCII base-85 (Ascii85) encoded data.
// Each group of 5 ASCII characters (! to u, values 33-117) represents 4 bytes.
// The special character 'z' represents four zero bytes. A '~' (normally the
// start of ~>) or the end of the input ends the data. A final group of n
// characters, 2 <= n <= 4, yields n-1 bytes.
func ASCII85Decode(data []byte) ([]byte, error) {
	var result bytes.Buffer
	result.Grow(len(data) * 4 / 5)

	var group [5]byte
	n := 0
	for i, c := range data {
		switch {
		case isWhitespace(c):
			continue
		case c == '~':
			return finishASCII85(&result, group, n)
		case c == 'z':
			if n != 0 {
				return nil, atOffset(int64(i), fmt.Errorf("%w: 'z' inside a group", ErrInvalidASCII85Data))
			}
			result.Write([]byte{0, 0, 0, 0})
			continue
		case c < '!' || c > 'u':
			return nil, atOffset(int64(i), fmt.Errorf("%w: character %q", ErrInvalidASCII85Data, c))
		}

		group[n] = c - '!'
		n++
		if n == 5 {
			value := base85Value(group)
			if value > 0xffffffff {
				return nil, atOffset(int64(i), fmt.Errorf("%w: group value overflows 32 bits", ErrInvalidASCII85Data))
			}
			result.Write([]byte{byte(value >> 24), byte(value >> 16), byte(value >> 8), byte(value)})
			n = 0
		}
	}

	return finishASCII85(&result, group, n)
}

// finishASCII85 flushes a partial final group of n digits.
func finishASCII85(result *bytes.Buffer, group [5]byte, n int) ([]byte, error) {
	switch n {
	case 0:
	case 1:
		logger.Warn("ascii85: single character final group ignored", "filter", NameASCII85)
	default:
		// Pad with 'u' (84), the highest digit.
		for i := n; i < 5; i++ {
			group[i] = 84
		}
		value := base85Value(group)
		for j := 0; j < n-1; j++ {
			result.WriteByte(byte(value >> (24 - uint(j)*8)))
		}
	}
	return result.Bytes(), nil
}

func base85Value(group [5]byte) uint64 {
	var value uint64
	for _, d := range group {
		value = value*85 + uint64(d)
	}
	return value
}

// ascii85LineLength is the number of characters written per line by
// ASCII85Encode.
const ascii85LineLength = 72

// ASCII85Encode encodes data as Ascii85, writing 'z' for groups of four zero
// bytes, breaking lines every 72 characters and ending with ~>.
func ASCII85Encode(data []byte) []byte {
	out := make([]byte, 0, len(data)*5/4+len(data)/(ascii85LineLength*4/5+1)+8)
	col := 0
	emit := func(chars ...byte) {
		for _, c := range chars {
			if col == ascii85LineLength {
				out = append(out, '\n')
				col = 0
			}
			out = append(out, c)
			col++
		}
	}

	for len(data) > 0 {
		n := 4
		if len(data) < 4 {
			n = len(data)
		}
		var word uint32
		for j := 0; j < 4; j++ {
			word <<= 8
			if j < n {
				word |= uint32(data[j])
			}
		}
		data = data[n:]

		if n == 4 && word == 0 {
			emit('z')
			continue
		}

		var chars [5]byte
		for j := 4; j >= 0; j-- {
			chars[j] = byte(word%85) + '!'
			word /= 85
		}
		emit(chars[:n+1]...)
	}

	return append(out, '~', '>')
}

// hexValue converts a hexadecimal character to its numeric value (0-15).
func hexValue(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	default:
		return 0, false
	}
}

// isWhitespace reports whether c is a PDF whitespace character.
func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}
