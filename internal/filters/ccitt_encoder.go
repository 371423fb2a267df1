package filters

// faxEncoder writes Group 4 (T.6) data. Rows use the internal polarity,
// 1 meaning black.
type faxEncoder struct {
	bw      *BitWriter
	columns int
	ref     []int
	cur     []int
}

// encodeG4 encodes packed rows of ceil(columns/8) bytes. A short final row
// is treated as white past the end of data.
func encodeG4(data []byte, columns int, order FillOrder) []byte {
	e := &faxEncoder{
		bw:      NewBitWriter(order),
		columns: columns,
		ref:     make([]int, 0, columns+2),
		cur:     make([]int, 0, columns+2),
	}

	rowBytes := (columns + 7) / 8
	for off := 0; off < len(data); off += rowBytes {
		end := off + rowBytes
		if end > len(data) {
			end = len(data)
		}
		e.cur = rowChanges(e.cur[:0], data[off:end], columns)
		e.encodeRow()
		e.ref, e.cur = e.cur, e.ref
	}

	// EOFB
	e.write(eolCode)
	e.write(eolCode)
	return e.bw.Bytes()
}

// rowChanges appends to changes the columns at which the color of row
// flips, starting from white. Whole bytes equal to the current color are
// skipped at once.
func rowChanges(changes []int, row []byte, columns int) []int {
	black := false
	for col := 0; col < columns; {
		i := col / 8
		if col%8 == 0 && col+8 <= columns {
			var b byte
			if i < len(row) {
				b = row[i]
			}
			if (black && b == 0xff) || (!black && b == 0x00) {
				col += 8
				continue
			}
		}
		bit := false
		if i < len(row) {
			bit = row[i]&(0x80>>uint(col%8)) != 0
		}
		if bit != black {
			changes = append(changes, col)
			black = bit
		}
		col++
	}
	return changes
}

func (e *faxEncoder) write(c faxCode) {
	e.bw.WriteBits(uint32(c.bits), uint(c.n))
}

// nextChange returns the first change in the current row right of a0, or
// the row width.
func (e *faxEncoder) nextChange(a0 int) (int, int) {
	for i, c := range e.cur {
		if c > a0 {
			if i+1 < len(e.cur) {
				return c, e.cur[i+1]
			}
			return c, e.columns
		}
	}
	return e.columns, e.columns
}

// nextRefChange returns b1 and b2 as defined for the decoder.
func (e *faxEncoder) nextRefChange(a0 int, white bool) (int, int) {
	i := 0
	if !white {
		i = 1
	}
	for ; i < len(e.ref); i += 2 {
		if e.ref[i] > a0 {
			if i+1 < len(e.ref) {
				return e.ref[i], e.ref[i+1]
			}
			return e.ref[i], e.columns
		}
	}
	return e.columns, e.columns
}

func (e *faxEncoder) encodeRow() {
	a0 := -1
	white := true
	for a0 < e.columns {
		a1, a2 := e.nextChange(a0)
		b1, b2 := e.nextRefChange(a0, white)

		switch d := a1 - b1; {
		case b2 < a1:
			e.write(passCode)
			a0 = b2
		case d >= -3 && d <= 3:
			e.write(verticalCodes[d+3])
			a0 = a1
			white = !white
		default:
			start := a0
			if start < 0 {
				start = 0
			}
			e.write(horizontalCode)
			e.writeRun(a1-start, white)
			e.writeRun(a2-a1, !white)
			a0 = a2
		}
	}
}

// writeRun writes a run as makeup codes, largest first, followed by a
// terminating code.
func (e *faxEncoder) writeRun(run int, white bool) {
	for run >= maxMakeupRun {
		e.write(makeupCode(white, maxMakeupRun))
		run -= maxMakeupRun
	}
	if run >= 64 {
		e.write(makeupCode(white, run))
		run %= 64
	}
	if white {
		e.write(whiteTermCodes[run])
	} else {
		e.write(blackTermCodes[run])
	}
}
