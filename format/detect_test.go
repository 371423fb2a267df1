package format

import (
	"bytes"
	"compress/zlib"
	"testing"
)

func TestFormat_String(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{Flate, "FlateDecode"},
		{ASCIIHex, "ASCIIHexDecode"},
		{ASCII85, "ASCII85Decode"},
		{DCT, "DCTDecode"},
		{JPX, "JPXDecode"},
		{JBIG2, "JBIG2Decode"},
		{Unknown, "Unknown"},
		{Format(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.format.String(); got != tt.want {
			t.Errorf("Format(%d).String() = %q, want %q", tt.format, got, tt.want)
		}
	}
}

func TestFormat_IsImage(t *testing.T) {
	for _, f := range []Format{DCT, JPX, JBIG2} {
		if !f.IsImage() {
			t.Errorf("%v.IsImage() = false, want true", f)
		}
	}
	for _, f := range []Format{Unknown, Flate, ASCIIHex, ASCII85} {
		if f.IsImage() {
			t.Errorf("%v.IsImage() = true, want false", f)
		}
	}
}

func TestDetectFromMagic(t *testing.T) {
	var zbuf bytes.Buffer
	zw := zlib.NewWriter(&zbuf)
	zw.Write([]byte("hello hello hello"))
	zw.Close()

	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{"zlib", zbuf.Bytes(), Flate},
		{"jpeg", []byte("\xFF\xD8\xFF\xE0\x00\x10JFIF\x00\x01\x01\x00"), DCT},
		{"jp2 file", []byte("\x00\x00\x00\x0CjP  \r\n\x87\n\x00\x00\x00\x14ftypjp2 \x00\x00\x00\x00"), JPX},
		{"j2k codestream", []byte{0xFF, 0x4F, 0xFF, 0x51, 0x00, 0x2F}, JPX},
		{"jbig2", []byte{0x97, 'J', 'B', '2', '\r', '\n', 0x1A, '\n', 0x01}, JBIG2},
		{"ascii85", []byte("87cURDZ~>"), ASCII85},
		{"ascii85 zero group", []byte("z~>\n"), ASCII85},
		{"ascii85 with prefix", []byte("<~87cURDZ~>"), ASCII85},
		{"hex", []byte("48656C6C6F>"), ASCIIHex},
		{"hex lowercase spaced", []byte("48 65 6c\n6c 6f"), ASCIIHex},
		{"plain text", []byte("hello world"), Unknown},
		{"ascii85 without terminator", []byte("87cURDZ"), Unknown},
		{"binary", []byte{0x01, 0x02, 0x03, 0x04}, Unknown},
		{"too short", []byte{0x78}, Unknown},
		{"empty", nil, Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectFromMagic(tt.data); got != tt.want {
				t.Errorf("DetectFromMagic() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasZlibHeader(t *testing.T) {
	tests := []struct {
		data []byte
		want bool
	}{
		{[]byte{0x78, 0x9C}, true},
		{[]byte{0x78, 0x01}, true},
		{[]byte{0x78, 0xDA}, true},
		{[]byte{0x78, 0x9D}, false},
		{[]byte{0x79, 0x9C}, false},
	}

	for _, tt := range tests {
		if got := hasZlibHeader(tt.data); got != tt.want {
			t.Errorf("hasZlibHeader(%x) = %v, want %v", tt.data, got, tt.want)
		}
	}
}
