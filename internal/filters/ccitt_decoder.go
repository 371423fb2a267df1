package filters

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/tsawler/pdfstream/logger"
)

// decode walks the tree from the root, one bit at a time, until it reaches
// a leaf. It returns io.EOF if the source is exhausted before the first bit.
func (t faxTree) decode(br *BitReader) (int, error) {
	n := int32(0)
	for depth := 0; ; depth++ {
		bit, err := br.ReadBit()
		if err != nil {
			if errors.Is(err, io.EOF) && depth > 0 {
				return 0, atOffset(br.Offset(), ErrUnexpectedEndOfStream)
			}
			return 0, err
		}
		b := 0
		if bit {
			b = 1
		}
		n = t[n].next[b]
		if n == 0 {
			return 0, atOffset(br.Offset(), fmt.Errorf("%w: invalid fax code", ErrCorruptStream))
		}
		if t[n].leaf {
			return int(t[n].value), nil
		}
	}
}

// errEndOfData marks an EOL met where a row should start: the RTC or EOFB
// sequence that closes the image.
var errEndOfData = errors.New("end of fax data")

// faxDecoder holds the state of one CCITT decode. Change lists record the
// columns at which the pixel color flips, starting from white; they hold
// values strictly below columns.
type faxDecoder struct {
	br      *BitReader
	columns int
	k       int
	align   bool
	eolMode bool // K == 0 stream whose rows are preceded by EOL codes

	ref    []int // previous row
	cur    []int // row being decoded
	refPos int   // search cursor into ref
}

// decodeFax decodes CCITT data to packed rows of ceil(columns/8) bytes, with
// 1 meaning black. If rows is positive exactly that many rows are returned,
// padding with white rows when the data runs out.
func decodeFax(data []byte, fp FaxParams) ([]byte, error) {
	d := &faxDecoder{
		br:      NewBitReader(bytes.NewReader(data), fp.FillOrder),
		columns: fp.Columns,
		k:       fp.K,
		align:   fp.EncodedByteAlign,
		ref:     make([]int, 0, fp.Columns+2),
		cur:     make([]int, 0, fp.Columns+2),
	}
	if d.k == 0 {
		d.eolMode = d.startsWithEOL()
	}

	rowBytes := (fp.Columns + 7) / 8
	var out []byte
	if fp.Rows > 0 {
		// A row takes at least one bit of input.
		rows := fp.Rows
		if limit := 8*len(data) + 1; rows > limit {
			rows = limit
		}
		out = make([]byte, 0, rows*rowBytes)
	}

	n := 0
	for fp.Rows == 0 || n < fp.Rows {
		twoD, err := d.startRow()
		if err != nil {
			if errors.Is(err, errEndOfData) {
				break
			}
			return nil, err
		}

		d.cur = d.cur[:0]
		if twoD {
			err = d.decodeRow2D()
		} else {
			err = d.decodeRow1D()
		}
		if err != nil {
			if errors.Is(err, errEndOfData) {
				break
			}
			return nil, err
		}

		out = appendRow(out, d.cur, d.columns)
		d.ref, d.cur = d.cur, d.ref
		n++
	}

	if fp.Rows > 0 && n < fp.Rows {
		logger.Warn("ccitt: data ended early, padding with white rows", "filter", NameCCITTFax, "decoded", n, "rows", fp.Rows)
		out = append(out, make([]byte, (fp.Rows-n)*rowBytes)...)
	}
	return out, nil
}

// startsWithEOL reports whether the stream begins with an EOL code,
// optionally preceded by fill bits.
func (d *faxDecoder) startsWithEOL() bool {
	v, got := d.br.PeekBits(32)
	zeros := leadingZeros(v, got)
	return zeros >= 11 && zeros < int(got)
}

// leadingZeros counts the zero bits in front of the first one in the got
// low bits of v.
func leadingZeros(v uint32, got uint) int {
	for i := 0; i < int(got); i++ {
		if v>>(got-1-uint(i))&1 == 1 {
			return i
		}
	}
	return int(got)
}

// skipEOL consumes an EOL code with its fill bits if one comes next. It
// returns errEndOfData when only zero bits are left. With EncodedByteAlign
// an EOL ends on a byte boundary, and zeros that do not are row padding
// followed by the codes of the next row.
func (d *faxDecoder) skipEOL() (bool, error) {
	v, got := d.br.PeekBits(32)
	zeros := leadingZeros(v, got)
	switch {
	case zeros == int(got) && got < 32:
		return false, errEndOfData
	case zeros >= 11 && zeros < int(got):
		n := uint(zeros) + 1
		if d.align && !d.br.alignedAfter(n) {
			return false, nil
		}
		d.br.Skip(n)
		return true, nil
	}
	return false, nil
}

// syncRow moves to the first code of a row that may be preceded by an EOL.
// With EncodedByteAlign a row without an EOL starts on the next byte
// boundary.
func (d *faxDecoder) syncRow() error {
	eol, err := d.skipEOL()
	if err != nil || eol || !d.align {
		return err
	}
	d.br.Align()
	_, err = d.skipEOL()
	return err
}

// atEnd reports whether nothing but zero padding is left.
func (d *faxDecoder) atEnd() bool {
	v, got := d.br.PeekBits(32)
	return got < 32 && v == 0
}

// startRow positions the reader at the first code of a row and reports
// whether the row is coded two-dimensionally.
func (d *faxDecoder) startRow() (bool, error) {
	switch {
	case d.k < 0:
		if d.align {
			d.br.Align()
		}
		if d.atEnd() {
			return false, errEndOfData
		}
		return true, nil

	case d.k > 0:
		if err := d.syncRow(); err != nil {
			return false, err
		}
		tag, err := d.br.ReadBit()
		if err != nil {
			return false, errEndOfData
		}
		return !tag, nil
	}

	if d.eolMode {
		if err := d.syncRow(); err != nil {
			return false, err
		}
	} else if d.align {
		d.br.Align()
	}
	if d.atEnd() {
		return false, errEndOfData
	}
	return false, nil
}

// record appends a color change at pos. A change at the column of the
// previous one cancels it, and changes at the right edge are dropped.
func (d *faxDecoder) record(pos int) {
	if pos >= d.columns {
		return
	}
	if n := len(d.cur); n > 0 && d.cur[n-1] == pos {
		d.cur = d.cur[:n-1]
		return
	}
	d.cur = append(d.cur, pos)
}

// readRun decodes one run of the given color, adding makeup codes to the
// terminating code that closes them.
func (d *faxDecoder) readRun(white bool) (int, error) {
	tree := blackTree
	if white {
		tree = whiteTree
	}
	total := 0
	for {
		v, err := tree.decode(d.br)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, atOffset(d.br.Offset(), ErrUnexpectedEndOfStream)
			}
			return 0, err
		}
		if v == faxEOL {
			return 0, atOffset(d.br.Offset(), fmt.Errorf("%w: EOL inside a row", ErrRowLengthMismatch))
		}
		total += v
		if v < 64 {
			return total, nil
		}
	}
}

// decodeRow1D decodes a Modified Huffman row: alternating white and black
// runs that add up to the row width.
func (d *faxDecoder) decodeRow1D() error {
	a0 := 0
	white := true
	for first := true; a0 < d.columns; first = false {
		run, err := d.readRun(white)
		if err != nil {
			if first && errors.Is(err, ErrRowLengthMismatch) {
				return errEndOfData
			}
			return err
		}
		a0 += run
		if a0 > d.columns {
			return d.mismatch(a0)
		}
		d.record(a0)
		white = !white
	}
	return nil
}

// nextRef returns b1, the first change in the reference row right of a0
// whose color is opposite to the current one, and b2, the change after it.
// Missing changes are reported as the row width.
func (d *faxDecoder) nextRef(a0 int, white bool) (b1, b2 int) {
	i := d.refPos - 1
	if i < 0 {
		i = 0
	}
	// Changes at even indexes turn white to black.
	if (i%2 == 0) != white {
		i++
	}
	for ; i < len(d.ref); i += 2 {
		if d.ref[i] > a0 {
			d.refPos = i
			b1 = d.ref[i]
			if i+1 < len(d.ref) {
				return b1, d.ref[i+1]
			}
			return b1, d.columns
		}
	}
	d.refPos = len(d.ref)
	return d.columns, d.columns
}

// decodeRow2D decodes a row against the reference row using pass,
// horizontal and vertical mode codes. a0 starts left of the first column.
func (d *faxDecoder) decodeRow2D() error {
	a0 := -1
	white := true
	d.refPos = 0

	for a0 < d.columns {
		mode, err := modeTree.decode(d.br)
		if err != nil {
			if errors.Is(err, io.EOF) {
				if a0 < 0 {
					return errEndOfData
				}
				return atOffset(d.br.Offset(), ErrUnexpectedEndOfStream)
			}
			return err
		}

		start := a0
		if start < 0 {
			start = 0
		}

		switch mode {
		case faxEOL:
			if a0 < 0 {
				return errEndOfData
			}
			return atOffset(d.br.Offset(), fmt.Errorf("%w: EOL inside a row", ErrRowLengthMismatch))

		case faxPass:
			_, b2 := d.nextRef(a0, white)
			a0 = b2

		case faxHorizontal:
			r1, err := d.readRun(white)
			if err != nil {
				return err
			}
			r2, err := d.readRun(!white)
			if err != nil {
				return err
			}
			a1 := start + r1
			a2 := a1 + r2
			if a2 > d.columns {
				return d.mismatch(a2)
			}
			d.record(a1)
			d.record(a2)
			a0 = a2

		default: // vertical, mode is the delta
			b1, _ := d.nextRef(a0, white)
			a1 := b1 + mode
			if a1 < start || a1 > d.columns {
				return d.mismatch(a1)
			}
			d.record(a1)
			a0 = a1
			white = !white
		}
	}

	if a0 != d.columns {
		return d.mismatch(a0)
	}
	return nil
}

func (d *faxDecoder) mismatch(pos int) error {
	return atOffset(d.br.Offset(), fmt.Errorf("%w: change at column %d, row width %d", ErrRowLengthMismatch, pos, d.columns))
}

// appendRow expands a change list into a packed row, 1 meaning black.
func appendRow(out []byte, changes []int, columns int) []byte {
	start := len(out)
	out = append(out, make([]byte, (columns+7)/8)...)
	row := out[start:]

	pos := 0
	black := false
	for _, c := range changes {
		if black {
			setRun(row, pos, c)
		}
		pos = c
		black = !black
	}
	if black {
		setRun(row, pos, columns)
	}
	return out
}

// setRun sets bits [from, to) of row.
func setRun(row []byte, from, to int) {
	for from < to && from%8 != 0 {
		row[from/8] |= 0x80 >> uint(from%8)
		from++
	}
	for ; from+8 <= to; from += 8 {
		row[from/8] = 0xff
	}
	for ; from < to; from++ {
		row[from/8] |= 0x80 >> uint(from%8)
	}
}
