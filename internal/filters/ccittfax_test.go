package filters

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/ccitt"
)

// faxImage builds a packed bi-level image (1 = black) with runs of random
// length that are partly copied from the row above, so that all three 2-D
// modes occur.
func faxImage(r *rand.Rand, columns, rows int) []byte {
	rowBytes := (columns + 7) / 8
	img := make([]byte, rowBytes*rows)
	for y := 0; y < rows; y++ {
		row := img[y*rowBytes : (y+1)*rowBytes]
		if y > 0 && r.Intn(3) == 0 {
			copy(row, img[(y-1)*rowBytes:y*rowBytes])
			continue
		}
		black := r.Intn(2) == 0
		for x := 0; x < columns; {
			n := 1 + r.Intn(1+r.Intn(columns))
			if x+n > columns {
				n = columns - x
			}
			if black {
				setRun(row, x, x+n)
			}
			x += n
			black = !black
		}
	}
	return img
}

func TestCCITTEncodeWhiteRow(t *testing.T) {
	encoded := encodeG4([]byte{0x00}, 8, MSBFirst)
	// V0, then EOFB and padding.
	assert.Equal(t, []byte{0x80, 0x08, 0x00, 0x80}, encoded)

	decoded, err := decodeFax(encoded, FaxParams{K: -1, Columns: 8, Rows: 1, FillOrder: MSBFirst})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00}, decoded)
}

func TestCCITTFilterPolarity(t *testing.T) {
	params := Params{"K": -1, "Columns": 8}

	// With BlackIs1 false, 0 bits are black and an all-white row is 0xff.
	decoded, err := CCITTFaxDecode([]byte{0x80, 0x08, 0x00, 0x80}, params)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff}, decoded)

	encoded, err := CCITTFaxEncode(decoded, params)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x80, 0x08, 0x00, 0x80}, encoded)

	params["BlackIs1"] = true
	decoded, err = CCITTFaxDecode(encoded, params)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00}, decoded)
}

func TestCCITTG4RoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	for _, columns := range []int{1, 7, 8, 13, 64, 200, 1728, 3000} {
		for _, order := range []FillOrder{MSBFirst, LSBFirst} {
			t.Run(fmt.Sprintf("w%d/order%d", columns, order), func(t *testing.T) {
				rows := 12
				img := faxImage(r, columns, rows)
				encoded := encodeG4(img, columns, order)

				decoded, err := decodeFax(encoded, FaxParams{K: -1, Columns: columns, Rows: rows, FillOrder: order})
				require.NoError(t, err)
				assert.Equal(t, img, decoded)

				// Without Rows the decoder stops at EOFB.
				decoded, err = decodeFax(encoded, FaxParams{K: -1, Columns: columns, FillOrder: order})
				require.NoError(t, err)
				assert.Equal(t, img, decoded)
			})
		}
	}
}

func TestCCITTFilterRoundTrip(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	img := faxImage(r, 96, 20)
	for _, blackIs1 := range []bool{false, true} {
		params := Params{"K": -1, "Columns": 96, "Rows": 20, "BlackIs1": blackIs1}
		encoded, err := CCITTFaxEncode(img, params)
		require.NoError(t, err)
		decoded, err := CCITTFaxDecode(encoded, params)
		require.NoError(t, err)
		assert.Equal(t, img, decoded, "BlackIs1=%v", blackIs1)
	}
}

func TestCCITTEncodeReadableByXImage(t *testing.T) {
	r := rand.New(rand.NewSource(6))
	for _, columns := range []int{8, 64, 1728} {
		rows := 16
		img := faxImage(r, columns, rows)
		encoded := encodeG4(img, columns, MSBFirst)

		// Invert makes 1 black, the convention used by encodeG4.
		rd := ccitt.NewReader(bytes.NewReader(encoded), ccitt.MSB, ccitt.Group4, columns, rows, &ccitt.Options{Invert: true})
		decoded, err := io.ReadAll(rd)
		require.NoError(t, err, "width %d", columns)
		assert.Equal(t, img, decoded, "width %d", columns)
	}
}

func TestCCITTEncodeLongRuns(t *testing.T) {
	columns := 6000
	rowBytes := columns / 8
	img := make([]byte, rowBytes*2)
	setRun(img[:rowBytes], 0, 5000)       // black run past the largest makeup code
	setRun(img[rowBytes:], 2600, columns) // white 2600, then black 3400

	encoded := encodeG4(img, columns, MSBFirst)
	decoded, err := decodeFax(encoded, FaxParams{K: -1, Columns: columns, Rows: 2, FillOrder: MSBFirst})
	require.NoError(t, err)
	assert.Equal(t, img, decoded)
}

// mhRow writes a Modified Huffman row made of alternating runs starting
// with white.
func mhRow(bw *BitWriter, runs ...int) {
	white := true
	for _, run := range runs {
		for run >= 64 {
			m := run / 64
			if m > maxMakeupRun/64 {
				m = maxMakeupRun / 64
			}
			c := makeupCode(white, m*64)
			bw.WriteBits(uint32(c.bits), uint(c.n))
			run -= m * 64
		}
		c := blackTermCodes[run]
		if white {
			c = whiteTermCodes[run]
		}
		bw.WriteBits(uint32(c.bits), uint(c.n))
		white = !white
	}
}

func writeCode(bw *BitWriter, c faxCode) {
	bw.WriteBits(uint32(c.bits), uint(c.n))
}

func TestCCITTDecodeModifiedHuffman(t *testing.T) {
	bw := NewBitWriter(MSBFirst)
	mhRow(bw, 3, 2, 3)     // ...##...
	mhRow(bw, 0, 8)        // ########
	mhRow(bw, 100, 20, 80) // makeup codes on both colors
	data := bw.Bytes()

	decoded, err := decodeFax(data, FaxParams{K: 0, Columns: 8, Rows: 2, FillOrder: MSBFirst})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x18, 0xff}, decoded)

	bw = NewBitWriter(MSBFirst)
	mhRow(bw, 100, 20, 80)
	decoded, err = decodeFax(bw.Bytes(), FaxParams{K: 0, Columns: 200, FillOrder: MSBFirst})
	require.NoError(t, err)
	want := make([]byte, 25)
	setRun(want, 100, 120)
	assert.Equal(t, want, decoded)
}

func TestCCITTDecodeModifiedHuffmanByteAligned(t *testing.T) {
	bw := NewBitWriter(MSBFirst)
	mhRow(bw, 3, 2, 3)
	bw.Flush()
	mhRow(bw, 8)
	bw.Flush()

	decoded, err := decodeFax(bw.Bytes(), FaxParams{K: 0, Columns: 8, EncodedByteAlign: true, FillOrder: MSBFirst})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x18, 0x00}, decoded)
}

func TestCCITTDecodeGroup3WithEOL(t *testing.T) {
	bw := NewBitWriter(MSBFirst)
	bw.WriteBits(0, 4) // fill
	writeCode(bw, eolCode)
	mhRow(bw, 3, 2, 3)
	writeCode(bw, eolCode)
	mhRow(bw, 8)
	for i := 0; i < 6; i++ { // RTC
		writeCode(bw, eolCode)
	}

	decoded, err := decodeFax(bw.Bytes(), FaxParams{K: 0, Columns: 8, FillOrder: MSBFirst})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x18, 0x00}, decoded)
}

func TestCCITTDecodeGroup3TwoDimensional(t *testing.T) {
	bw := NewBitWriter(MSBFirst)
	// Row 1, 1-D: ...##...
	writeCode(bw, eolCode)
	bw.WriteBit(true)
	mhRow(bw, 3, 2, 3)
	// Row 2, 2-D: the same changes shifted right by one.
	writeCode(bw, eolCode)
	bw.WriteBit(false)
	writeCode(bw, verticalCodes[3+1])
	writeCode(bw, verticalCodes[3+1])
	writeCode(bw, verticalCodes[3+0]) // b1 is the right edge
	// RTC
	for i := 0; i < 6; i++ {
		writeCode(bw, eolCode)
		bw.WriteBit(true)
	}

	decoded, err := decodeFax(bw.Bytes(), FaxParams{K: 2, Columns: 8, FillOrder: MSBFirst})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x18, 0x0c}, decoded)
}

func TestCCITTDecodeGroup3TwoDimensionalByteAligned(t *testing.T) {
	// Two white 1-D rows with no EOL codes, each padded to a byte.
	bw := NewBitWriter(MSBFirst)
	for i := 0; i < 2; i++ {
		bw.WriteBit(true)
		mhRow(bw, 8)
		bw.Flush()
	}
	data := bw.Bytes()
	require.Equal(t, []byte{0xcc, 0xcc}, data)

	decoded, err := decodeFax(data, FaxParams{K: 1, Columns: 8, EncodedByteAlign: true, FillOrder: MSBFirst})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00}, decoded)
}

// alignedEOL writes fill bits so that the EOL that follows ends on a byte
// boundary.
func alignedEOL(bw *BitWriter) {
	fill := (8 - (bw.n+12)%8) % 8
	bw.WriteBits(0, fill)
	writeCode(bw, eolCode)
}

func TestCCITTDecodeGroup3TwoDimensionalAlignedEOL(t *testing.T) {
	bw := NewBitWriter(MSBFirst)
	alignedEOL(bw)
	bw.WriteBit(true)
	mhRow(bw, 3, 2, 3)
	alignedEOL(bw)
	bw.WriteBit(false)
	writeCode(bw, verticalCodes[3+1])
	writeCode(bw, verticalCodes[3+1])
	writeCode(bw, verticalCodes[3+0])

	decoded, err := decodeFax(bw.Bytes(), FaxParams{K: 1, Columns: 8, EncodedByteAlign: true, FillOrder: MSBFirst})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x18, 0x0c}, decoded)
}

func TestCCITTDecodeModifiedHuffmanAlignedEOL(t *testing.T) {
	bw := NewBitWriter(MSBFirst)
	alignedEOL(bw)
	mhRow(bw, 3, 2, 3)
	alignedEOL(bw)
	mhRow(bw, 8)

	decoded, err := decodeFax(bw.Bytes(), FaxParams{K: 0, Columns: 8, EncodedByteAlign: true, FillOrder: MSBFirst})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x18, 0x00}, decoded)
}

func TestCCITTDecodeG4ByteAligned(t *testing.T) {
	// Two white rows, each a V0 code padded to a byte, then EOFB.
	data := []byte{0x80, 0x80, 0x00, 0x10, 0x01}
	decoded, err := decodeFax(data, FaxParams{K: -1, Columns: 8, EncodedByteAlign: true, FillOrder: MSBFirst})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00}, decoded)
}

func TestCCITTDecodePassMode(t *testing.T) {
	bw := NewBitWriter(MSBFirst)
	// Row 1: ..##....
	writeCode(bw, horizontalCode)
	mhRow(bw, 2, 2)
	writeCode(bw, verticalCodes[3+0])
	// Row 2: all white. Pass over b1=2, b2=4, then V0 to the edge.
	writeCode(bw, passCode)
	writeCode(bw, verticalCodes[3+0])

	decoded, err := decodeFax(bw.Bytes(), FaxParams{K: -1, Columns: 8, Rows: 2, FillOrder: MSBFirst})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x30, 0x00}, decoded)

	// The encoder picks the same modes. The last byte differs because
	// the encoder continues with EOFB.
	want := bw.Bytes()
	got := encodeG4([]byte{0x30, 0x00}, 8, MSBFirst)
	assert.Equal(t, want[:len(want)-1], got[:len(want)-1])
}

func TestCCITTRowLengthMismatch(t *testing.T) {
	tests := []struct {
		name  string
		build func(bw *BitWriter)
		k     int
	}{
		{"1-D run past the edge", func(bw *BitWriter) { mhRow(bw, 10) }, 0},
		{"1-D EOL inside row", func(bw *BitWriter) {
			mhRow(bw, 3)
			writeCode(bw, eolCode)
		}, 0},
		{"vertical past the edge", func(bw *BitWriter) { writeCode(bw, verticalCodes[3+2]) }, -1},
		{"vertical left of a0", func(bw *BitWriter) {
			writeCode(bw, horizontalCode)
			mhRow(bw, 4, 2)
			writeCode(bw, verticalCodes[3-3]) // b1 is 8, 5 < a0
		}, -1},
		{"horizontal past the edge", func(bw *BitWriter) {
			writeCode(bw, horizontalCode)
			mhRow(bw, 6, 6)
		}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bw := NewBitWriter(MSBFirst)
			tt.build(bw)
			bw.WriteBits(0xffff, 16)
			_, err := decodeFax(bw.Bytes(), FaxParams{K: tt.k, Columns: 8, Rows: 1, FillOrder: MSBFirst})
			assert.ErrorIs(t, err, ErrRowLengthMismatch)
			assert.ErrorIs(t, err, ErrCorruptStream)
		})
	}
}

func TestCCITTTruncatedRow(t *testing.T) {
	bw := NewBitWriter(MSBFirst)
	writeCode(bw, horizontalCode)
	writeCode(bw, whiteTermCodes[3])
	writeCode(bw, faxCode{4, 0x0}) // leading zeros of a long black code

	_, err := decodeFax(bw.Bytes(), FaxParams{K: -1, Columns: 8, FillOrder: MSBFirst})
	assert.ErrorIs(t, err, ErrUnexpectedEndOfStream)
}

func TestCCITTMissingRowsArePadded(t *testing.T) {
	encoded := encodeG4([]byte{0xff}, 8, MSBFirst)
	decoded, err := decodeFax(encoded, FaxParams{K: -1, Columns: 8, Rows: 3, FillOrder: MSBFirst})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0x00, 0x00}, decoded)
}

func TestCCITTRejectsOversizedImage(t *testing.T) {
	g4 := []byte{0x00, 0x10, 0x01, 0x00}
	_, err := CCITTFaxDecode(g4, Params{"K": -1, "Columns": 1048576, "Height": 1 << 40})
	assert.ErrorIs(t, err, ErrUnsupportedFilterConfig)
}

func TestCCITTRowsBeyondDataArePaddedWithoutPreallocation(t *testing.T) {
	encoded := encodeG4(make([]byte, 1), 8, MSBFirst)
	decoded, err := decodeFax(encoded, FaxParams{K: -1, Columns: 8, Rows: 100000, FillOrder: MSBFirst})
	require.NoError(t, err)
	assert.Len(t, decoded, 100000)
}

func TestCCITTHeightOverridesRows(t *testing.T) {
	encoded := encodeG4([]byte{0xff, 0x0f}, 8, MSBFirst)
	decoded, err := CCITTFaxDecode(encoded, Params{"K": -1, "Columns": 8, "Rows": 5, "Height": 2, "BlackIs1": true})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0x0f}, decoded)
}

func TestCCITTFaxRepairsColorSpace(t *testing.T) {
	f := &CCITTFax{}
	res, err := f.Decode([]byte{0x80, 0x08, 0x00, 0x80}, Params{"K": -1, "Columns": 8})
	require.NoError(t, err)
	assert.Equal(t, "DeviceGray", res.ColorSpace)
	assert.Equal(t, Params{"ColorSpace": "DeviceGray"}, res.Repaired)

	res, err = f.Decode([]byte{0x80, 0x08, 0x00, 0x80}, Params{"K": -1, "Columns": 8, "ColorSpace": "DeviceGray"})
	require.NoError(t, err)
	assert.Nil(t, res.Repaired)
}

func TestCCITTEncodeGroup3NotImplemented(t *testing.T) {
	_, err := CCITTFaxEncode([]byte{0}, Params{"K": 0, "Columns": 8})
	assert.ErrorIs(t, err, ErrEncodingNotImplemented)
}

func TestRowChanges(t *testing.T) {
	assert.Empty(t, rowChanges(nil, []byte{0x00, 0x00}, 16))
	assert.Equal(t, []int{0}, rowChanges(nil, []byte{0xff, 0xff}, 16))
	assert.Equal(t, []int{3, 5, 8, 12}, rowChanges(nil, []byte{0x18, 0xf0}, 16))
	// Padding bits past the row width are ignored.
	assert.Equal(t, []int{2}, rowChanges(nil, []byte{0x3f}, 5))
}

func TestFaxTreesDecodeEveryCode(t *testing.T) {
	for run, c := range whiteTermCodes {
		bw := NewBitWriter(MSBFirst)
		writeCode(bw, c)
		v, err := whiteTree.decode(NewBitReader(bytes.NewReader(bw.Bytes()), MSBFirst))
		require.NoError(t, err)
		assert.Equal(t, run, v)
	}
	for i, c := range blackMakeupCodes {
		bw := NewBitWriter(MSBFirst)
		writeCode(bw, c)
		v, err := blackTree.decode(NewBitReader(bytes.NewReader(bw.Bytes()), MSBFirst))
		require.NoError(t, err)
		assert.Equal(t, (i+1)*64, v)
	}
	for i, c := range verticalCodes {
		bw := NewBitWriter(MSBFirst)
		writeCode(bw, c)
		v, err := modeTree.decode(NewBitReader(bytes.NewReader(bw.Bytes()), MSBFirst))
		require.NoError(t, err)
		assert.Equal(t, i-3, v)
	}
}
