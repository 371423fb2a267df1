package filters

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/tsawler/pdfstream/logger"
)

const (
	lzwClear     = 256
	lzwEOD       = 257
	lzwFirstCode = 258
	lzwMaxTable  = 4096
)

// LZW is the LZWDecode filter.
type LZW struct{}

func (l *LZW) Name() string { return NameLZW }

func (l *LZW) Decode(data []byte, params Params) (*Result, error) {
	out, err := LZWDecode(data, params)
	if err != nil {
		return nil, err
	}
	return &Result{Data: out}, nil
}

func (l *LZW) Encode(data []byte, params Params) ([]byte, error) {
	return LZWEncode(data, params)
}

// LZWDecode decompresses LZW data using MSB-first variable width codes of
// 9 to 12 bits. EarlyChange (default 1) switches code widths one entry
// early. A missing EOD code is tolerated with a warning.
func LZWDecode(data []byte, params Params) ([]byte, error) {
	lp, err := lzwParams(params)
	if err != nil {
		return nil, err
	}
	out, err := lzwDecode(data, lp.EarlyChange)
	if err != nil {
		return nil, err
	}
	return Unpredict(out, lp.PredictorParams)
}

// LZWEncode compresses data into an LZW stream that LZWDecode reads back
// with the same parameters.
func LZWEncode(data []byte, params Params) ([]byte, error) {
	lp, err := lzwParams(params)
	if err != nil {
		return nil, err
	}
	predicted, err := Predict(data, lp.PredictorParams)
	if err != nil {
		return nil, err
	}
	return lzwEncode(predicted, lp.EarlyChange), nil
}

// lzwCodeWidth returns the code width in effect when the table holds size
// entries.
func lzwCodeWidth(size, earlyChange int) uint {
	switch {
	case size >= 2048-earlyChange:
		return 12
	case size >= 1024-earlyChange:
		return 11
	case size >= 512-earlyChange:
		return 10
	}
	return 9
}

func newLZWTable() [][]byte {
	table := make([][]byte, lzwFirstCode, lzwMaxTable)
	for i := 0; i < 256; i++ {
		table[i] = []byte{byte(i)}
	}
	return table
}

func lzwDecode(data []byte, earlyChange int) ([]byte, error) {
	br := NewBitReader(bytes.NewReader(data), MSBFirst)
	table := newLZWTable()
	width := uint(9)
	prev := -1

	var out bytes.Buffer
	for {
		code, err := br.ReadBits(width)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, ErrUnexpectedEndOfStream) {
				logger.Warn("lzw: premature end of data", "filter", NameLZW, "decoded", out.Len())
				return out.Bytes(), nil
			}
			return nil, err
		}

		switch code {
		case lzwClear:
			table = table[:lzwFirstCode]
			width = 9
			prev = -1
			continue
		case lzwEOD:
			return out.Bytes(), nil
		}

		c := int(code)
		var entry []byte
		switch {
		case c < len(table) && table[c] != nil:
			entry = table[c]
			if prev != -1 {
				if len(table) == lzwMaxTable {
					return nil, atOffset(br.Offset(), fmt.Errorf("%w: code %d after %d entries with no clear", ErrTableOverflow, c, lzwMaxTable))
				}
				table = append(table, extend(table[prev], entry[0]))
			}
		case c == len(table) && prev != -1:
			// The code being defined by this very step: prev + first(prev).
			entry = extend(table[prev], table[prev][0])
			table = append(table, entry)
		case c == len(table):
			return nil, atOffset(br.Offset(), fmt.Errorf("%w: lzw code %d with no previous code", ErrCorruptStream, c))
		default:
			return nil, atOffset(br.Offset(), fmt.Errorf("%w: undefined lzw code %d, table size %d", ErrCorruptStream, c, len(table)))
		}

		out.Write(entry)
		prev = c
		width = lzwCodeWidth(len(table), earlyChange)
	}
}

// extend returns a new slice holding p followed by b.
func extend(p []byte, b byte) []byte {
	out := make([]byte, len(p)+1)
	copy(out, p)
	out[len(p)] = b
	return out
}

func lzwEncode(data []byte, earlyChange int) []byte {
	bw := NewBitWriter(MSBFirst)
	bw.WriteBits(lzwClear, 9)

	dict := make(map[string]int)
	size := lzwFirstCode
	found := -1
	var pattern []byte

	for _, b := range data {
		if found == -1 {
			pattern = append(pattern[:0], b)
			found = int(b)
			continue
		}
		candidate := append(pattern, b)
		if code, ok := dict[string(candidate)]; ok {
			pattern = candidate
			found = code
			continue
		}

		bw.WriteBits(uint32(found), lzwCodeWidth(size-1, earlyChange))
		dict[string(candidate)] = size
		size++
		if size == lzwMaxTable {
			bw.WriteBits(lzwClear, lzwCodeWidth(size-1, earlyChange))
			dict = make(map[string]int)
			size = lzwFirstCode
		}
		pattern = append(candidate[:0], b)
		found = int(b)
	}

	if found != -1 {
		bw.WriteBits(uint32(found), lzwCodeWidth(size-1, earlyChange))
	}
	bw.WriteBits(lzwEOD, lzwCodeWidth(size, earlyChange))
	bw.WriteBits(0, 7)
	return bw.Bytes()
}
